package pusher

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/slab-network/oracled/internal/core/domain"
	"github.com/slab-network/oracled/internal/core/ports"
	"github.com/slab-network/oracled/pkg/slab"
	"github.com/slab-network/oracled/pkg/soltx"
	"github.com/slab-network/oracled/pkg/stats"
)

const DefaultMinPushInterval = 5 * time.Second

// PriceSource yields validated prices for a market.
type PriceSource interface {
	FetchPrice(ctx context.Context, mint, marketID string) (domain.PriceEntry, bool)
}

// TxSender lands an instruction on chain.
type TxSender interface {
	Send(ctx context.Context, ix soltx.Instruction, signer ports.Signer) (string, error)
}

type Config struct {
	ProgramID       soltx.PublicKey
	MinPushInterval time.Duration
}

// Service pushes validated prices to the markets the local signer is the
// oracle authority of, at most once per MinPushInterval per market.
type Service struct {
	source PriceSource
	sender TxSender
	signer ports.Signer
	bus    ports.EventBus
	cfg    Config
	now    func() time.Time

	lock        sync.Mutex
	marketLocks map[string]*sync.Mutex
	lastPush    map[string]time.Time
	warned      map[string]bool
}

func NewService(
	source PriceSource, sender TxSender, signer ports.Signer,
	bus ports.EventBus, cfg Config,
) (*Service, error) {
	if signer == nil {
		return nil, ErrMissingSigner
	}
	if cfg.ProgramID.IsZero() {
		return nil, ErrMissingProgramID
	}
	if cfg.MinPushInterval <= 0 {
		cfg.MinPushInterval = DefaultMinPushInterval
	}

	return &Service{
		source:      source,
		sender:      sender,
		signer:      signer,
		bus:         bus,
		cfg:         cfg,
		now:         time.Now,
		marketLocks: make(map[string]*sync.Mutex),
		lastPush:    make(map[string]time.Time),
		warned:      make(map[string]bool),
	}, nil
}

// PushPrice pushes the current price of the market on chain and reports
// whether it did.
func (s *Service) PushPrice(ctx context.Context, market domain.Market) bool {
	_, ok := s.Push(ctx, market)
	return ok
}

// Push is like PushPrice but also returns the pushed price.
func (s *Service) Push(
	ctx context.Context, market domain.Market,
) (domain.PriceEntry, bool) {
	unlock := s.lockMarket(market.Address)
	defer unlock()

	logger := log.WithField("market", market.Address)

	if s.pushedRecently(market.Address) {
		stats.Pushes.WithLabelValues("rate_limited").Inc()
		return domain.PriceEntry{}, false
	}

	entry, ok := s.source.FetchPrice(ctx, market.Mint, market.Address)
	if !ok {
		if market.AuthorityPriceE6 <= 0 {
			logger.Debug("no valid price, skipping push")
			stats.Pushes.WithLabelValues("no_price").Inc()
			return domain.PriceEntry{}, false
		}
		entry = domain.PriceEntry{
			PriceE6:   market.AuthorityPriceE6,
			Source:    domain.SourceOnChain,
			Timestamp: s.now(),
		}
	}

	if !s.isAuthority(logger, market) {
		stats.Pushes.WithLabelValues("unauthorized").Inc()
		return domain.PriceEntry{}, false
	}

	slabKey, err := soltx.PublicKeyFromBase58(market.Address)
	if err != nil {
		logger.WithError(err).Warn("invalid market address, skipping push")
		stats.Pushes.WithLabelValues("failed").Inc()
		return domain.PriceEntry{}, false
	}

	ix := slab.NewPushOraclePriceInstruction(
		s.cfg.ProgramID, s.signer.PublicKey(), slabKey,
		slab.PushOraclePrice{PriceE6: entry.PriceE6, Timestamp: s.now()},
	)

	signature, err := s.sender.Send(ctx, ix, s.signer)
	if err != nil {
		logger.WithError(err).Warn("failed to push price")
		stats.Pushes.WithLabelValues("failed").Inc()
		return domain.PriceEntry{}, false
	}

	s.lock.Lock()
	s.lastPush[market.Address] = s.now()
	s.lock.Unlock()

	logger.Debugf(
		"pushed price %d from %s in tx %s", entry.PriceE6, entry.Source, signature,
	)
	stats.Pushes.WithLabelValues("ok").Inc()

	s.bus.Publish(domain.TopicPriceUpdated, market.Address, domain.PriceUpdate{
		PriceE6: entry.PriceE6,
		Source:  entry.Source,
	})
	return entry, true
}

// LastPush returns when the market was last pushed successfully.
func (s *Service) LastPush(marketID string) (time.Time, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	ts, ok := s.lastPush[marketID]
	return ts, ok
}

func (s *Service) lockMarket(marketID string) func() {
	s.lock.Lock()
	l, ok := s.marketLocks[marketID]
	if !ok {
		l = &sync.Mutex{}
		s.marketLocks[marketID] = l
	}
	s.lock.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *Service) pushedRecently(marketID string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	last, ok := s.lastPush[marketID]
	return ok && s.now().Sub(last) < s.cfg.MinPushInterval
}

func (s *Service) isAuthority(logger *log.Entry, market domain.Market) bool {
	if s.signer.PublicKey().String() == market.OracleAuthority {
		return true
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.warned[market.Address] {
		s.warned[market.Address] = true
		logger.Warnf(
			"signer %s is not the oracle authority %s, not pushing prices",
			s.signer.PublicKey(), market.OracleAuthority,
		)
	}
	return false
}
