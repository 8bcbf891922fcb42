package badgerstore

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const gcInterval = 30 * time.Minute

// Store is the badger backed persistence of the daemon. It implements both
// ports.MarketStore and ports.HistoryStore. An empty datadir opens an
// in-memory database.
type Store struct {
	store *badgerhold.Store

	quit      chan struct{}
	closeOnce sync.Once
}

func NewStore(baseDbDir string, logger badger.Logger) (*Store, error) {
	var dbDir string
	if len(baseDbDir) > 0 {
		dbDir = filepath.Join(baseDbDir, "db")
	}

	s := &Store{quit: make(chan struct{})}
	store, err := s.createDb(dbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	s.store = store
	return s, nil
}

func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.quit)
		err = s.store.Close()
	})
	return err
}

func (s *Store) createDb(
	dbDir string, logger badger.Logger,
) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		go func() {
			ticker := time.NewTicker(gcInterval)
			defer ticker.Stop()

			for {
				select {
				case <-s.quit:
					return
				case <-ticker.C:
					if err := db.Badger().RunValueLogGC(0.5); err != nil &&
						err != badger.ErrNoRewrite {
						log.Error(err)
					}
				}
			}
		}()
	}

	return db, nil
}
