package aggregator

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/slab-network/oracled/internal/core/domain"
	"github.com/slab-network/oracled/internal/core/ports"
	"github.com/slab-network/oracled/pkg/stats"
	"golang.org/x/sync/singleflight"
)

// Service combines the quotes of several price providers into one validated
// price per market and owns the price history of every tracked market.
type Service struct {
	cfg Config
	now func() time.Time

	inflight singleflight.Group

	lock    sync.RWMutex
	markets *domain.TrackedMarkets
}

func NewService(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	return &Service{
		cfg:     cfg,
		now:     time.Now,
		markets: domain.NewTrackedMarkets(cfg.TrackedMarketsCapacity, cfg.HistoryCapacity),
	}, nil
}

// FetchPrice returns a validated price for the market's mint, or false when
// there is no actionable price.
func (s *Service) FetchPrice(
	ctx context.Context, mint, marketID string,
) (domain.PriceEntry, bool) {
	quotes := s.fetchQuotes(ctx, mint)
	logger := log.WithFields(log.Fields{"market": marketID, "mint": mint})

	valid := make([]uint64, 0, len(quotes))
	for _, q := range quotes {
		if q.IsOK() {
			valid = append(valid, q.PriceE6)
		}
	}

	if len(valid) >= 2 {
		if d := domain.Divergence(valid...); d > s.cfg.DivergenceThreshold {
			logger.Warnf(
				"providers diverge by %.2f%%, rejecting prices %v", d*100, valid,
			)
			stats.AggregatorResults.WithLabelValues("diverged").Inc()
			return domain.PriceEntry{}, false
		}
	}

	now := s.now()
	for i, q := range quotes {
		if !q.IsOK() {
			continue
		}
		entry := domain.PriceEntry{
			PriceE6:   q.PriceE6,
			Source:    s.cfg.Providers[i].Name(),
			Timestamp: now,
		}
		return s.accept(logger, marketID, entry)
	}

	return s.cached(logger, marketID, now)
}

// CurrentPrice returns the newest accepted price of the market regardless of
// its age.
func (s *Service) CurrentPrice(marketID string) (domain.PriceEntry, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.markets.Latest(marketID)
}

// History returns the accepted prices of the market, oldest first.
func (s *Service) History(marketID string) []domain.PriceEntry {
	s.lock.RLock()
	defer s.lock.RUnlock()

	h, ok := s.markets.History(marketID)
	if !ok {
		return nil
	}
	return h.Entries()
}

func (s *Service) TrackedCount() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.markets.Len()
}

// Snapshot returns a copy of every tracked history.
func (s *Service) Snapshot() map[string][]domain.PriceEntry {
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := make(map[string][]domain.PriceEntry, s.markets.Len())
	for _, m := range s.markets.Markets() {
		h, _ := s.markets.History(m)
		out[m] = h.Entries()
	}
	return out
}

// Restore replays previously snapshotted histories, oldest entries first.
// Capacity bounds apply as for freshly accepted prices.
func (s *Service) Restore(histories map[string][]domain.PriceEntry) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for market, entries := range histories {
		for _, e := range entries {
			s.markets.Record(market, e)
		}
	}
	stats.TrackedMarkets.Set(float64(s.markets.Len()))
}

func (s *Service) accept(
	logger *log.Entry, marketID string, entry domain.PriceEntry,
) (domain.PriceEntry, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	// Only a last price younger than the staleness bound is a reference for
	// the deviation check.
	if last, ok := s.markets.Latest(marketID); ok &&
		last.Age(entry.Timestamp) < s.cfg.Staleness {
		change := domain.RelativeChange(entry.PriceE6, last.PriceE6, last.PriceE6)
		if change > s.cfg.DeviationThreshold {
			logger.Warnf(
				"price %d from %s deviates %.2f%% from last %d, rejecting",
				entry.PriceE6, entry.Source, change*100, last.PriceE6,
			)
			stats.AggregatorResults.WithLabelValues("deviated").Inc()
			return domain.PriceEntry{}, false
		}
	}

	if evicted, ok := s.markets.Record(marketID, entry); ok {
		logger.Debugf("stopped tracking market %s", evicted)
	}
	stats.TrackedMarkets.Set(float64(s.markets.Len()))
	stats.AggregatorResults.WithLabelValues("fresh").Inc()
	return entry, true
}

func (s *Service) cached(
	logger *log.Entry, marketID string, now time.Time,
) (domain.PriceEntry, bool) {
	last, ok := s.CurrentPrice(marketID)
	if !ok || last.Age(now) >= s.cfg.Staleness {
		logger.Debug("no fresh quote and no usable cached price")
		stats.AggregatorResults.WithLabelValues("unavailable").Inc()
		return domain.PriceEntry{}, false
	}

	stats.AggregatorResults.WithLabelValues("cached").Inc()
	return last.WithSource(domain.SourceCached), true
}

// fetchQuotes queries all providers in parallel and returns their quotes in
// provider order. Failed fetches yield an absent quote.
func (s *Service) fetchQuotes(ctx context.Context, mint string) []ports.Quote {
	quotes := make([]ports.Quote, len(s.cfg.Providers))

	wg := &sync.WaitGroup{}
	wg.Add(len(s.cfg.Providers))
	for i, p := range s.cfg.Providers {
		go func(i int, p ports.PriceProvider) {
			defer wg.Done()
			quotes[i] = s.fetchQuote(ctx, p, mint)
		}(i, p)
	}
	wg.Wait()

	return quotes
}

// fetchQuote shares one upstream fetch among all concurrent callers for the
// same provider and mint. The shared fetch is bound to the provider timeout
// only, so a caller giving up does not cancel it for the others.
func (s *Service) fetchQuote(
	ctx context.Context, p ports.PriceProvider, mint string,
) ports.Quote {
	key := p.Name() + ":" + mint
	ch := s.inflight.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(
			context.Background(), s.cfg.ProviderTimeout,
		)
		defer cancel()
		return p.FetchPrice(fetchCtx, mint)
	})

	select {
	case <-ctx.Done():
		stats.ProviderFetches.WithLabelValues(p.Name(), "canceled").Inc()
		return ports.Quote{Status: ports.QuoteAbsent}
	case res := <-ch:
		if res.Err != nil {
			log.WithError(res.Err).Debugf("%s: failed to fetch price of %s", p.Name(), mint)
			stats.ProviderFetches.WithLabelValues(p.Name(), "error").Inc()
			return ports.Quote{Status: ports.QuoteAbsent}
		}
		quote := res.Val.(ports.Quote)
		stats.ProviderFetches.WithLabelValues(p.Name(), quote.Status.String()).Inc()
		return quote
	}
}
