package ports

import (
	"context"

	"github.com/slab-network/oracled/internal/core/domain"
)

// MarketStore persists the markets cranked by the daemon.
type MarketStore interface {
	AddMarket(ctx context.Context, market domain.Market) error
	GetMarket(ctx context.Context, address string) (*domain.Market, error)
	ListMarkets(ctx context.Context) ([]domain.Market, error)
	UpdateMarket(
		ctx context.Context, address string,
		updateFn func(m *domain.Market) (*domain.Market, error),
	) error
	RemoveMarket(ctx context.Context, address string) error
}

// HistoryStore persists price history snapshots across restarts.
type HistoryStore interface {
	SaveHistory(ctx context.Context, history map[string][]domain.PriceEntry) error
	LoadHistory(ctx context.Context) (map[string][]domain.PriceEntry, error)
}
