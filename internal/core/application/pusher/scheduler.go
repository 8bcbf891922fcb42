package pusher

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/slab-network/oracled/internal/core/domain"
	"github.com/slab-network/oracled/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultCrankInterval    = 10 * time.Second
	DefaultCrankConcurrency = 8
)

// Scheduler periodically pushes prices for every registered market.
type Scheduler struct {
	pusher      *Service
	markets     ports.MarketStore
	interval    time.Duration
	concurrency int

	lock    sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

func NewScheduler(
	pusher *Service, markets ports.MarketStore,
	interval time.Duration, concurrency int,
) *Scheduler {
	if interval <= 0 {
		interval = DefaultCrankInterval
	}
	if concurrency <= 0 {
		concurrency = DefaultCrankConcurrency
	}
	return &Scheduler{
		pusher:      pusher,
		markets:     markets,
		interval:    interval,
		concurrency: concurrency,
	}
}

// Start cranks all markets right away and then at every interval, until Stop
// is called or ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.stopped = make(chan struct{})

	go s.loop(ctx, s.stopped)
	log.Debugf("crank scheduler started with interval %s", s.interval)
}

// Stop halts the scheduler and waits for the running round to end.
func (s *Scheduler) Stop() {
	s.lock.Lock()
	cancel, stopped := s.cancel, s.stopped
	s.cancel, s.stopped = nil, nil
	s.lock.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped
	log.Debug("crank scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, stopped chan struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Warn("crank round failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce pushes the price of every registered market, a bounded number at a
// time, and returns how many were pushed. The stored authority price of
// every pushed market is updated.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	markets, err := s.markets.ListMarkets(ctx)
	if err != nil {
		return 0, err
	}

	var (
		lock   sync.Mutex
		pushed int
	)

	eg := &errgroup.Group{}
	eg.SetLimit(s.concurrency)
	for _, m := range markets {
		m := m
		eg.Go(func() error {
			entry, ok := s.pusher.Push(ctx, m)
			if !ok {
				return nil
			}

			lock.Lock()
			pushed++
			lock.Unlock()

			if err := s.markets.UpdateMarket(
				ctx, m.Address,
				func(market *domain.Market) (*domain.Market, error) {
					market.AuthorityPriceE6 = entry.PriceE6
					return market, nil
				},
			); err != nil {
				log.WithError(err).WithField("market", m.Address).Warn(
					"failed to store pushed price",
				)
			}
			return nil
		})
	}
	//nolint
	eg.Wait()

	return pushed, nil
}
