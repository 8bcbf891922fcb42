package badgerstore

import (
	"context"

	"github.com/dgraph-io/badger/v3"
	"github.com/slab-network/oracled/internal/core/domain"
)

type historyRecord struct {
	Market  string
	Entries []domain.PriceEntry
}

// SaveHistory replaces the stored snapshot with the given one.
func (s *Store) SaveHistory(
	ctx context.Context, history map[string][]domain.PriceEntry,
) error {
	return s.store.Badger().Update(func(tx *badger.Txn) error {
		var stored []historyRecord
		if err := s.store.TxFind(tx, &stored, nil); err != nil {
			return err
		}
		for _, r := range stored {
			if err := s.store.TxDelete(tx, r.Market, historyRecord{}); err != nil {
				return err
			}
		}

		for market, entries := range history {
			if len(entries) <= 0 {
				continue
			}
			record := historyRecord{Market: market, Entries: entries}
			if err := s.store.TxUpsert(tx, market, &record); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) LoadHistory(
	ctx context.Context,
) (map[string][]domain.PriceEntry, error) {
	var records []historyRecord
	if err := s.store.Find(&records, nil); err != nil {
		return nil, err
	}

	history := make(map[string][]domain.PriceEntry, len(records))
	for _, r := range records {
		history[r.Market] = r.Entries
	}
	return history, nil
}
