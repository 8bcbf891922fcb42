package badgerstore

import (
	"context"

	"github.com/slab-network/oracled/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

func (s *Store) AddMarket(ctx context.Context, market domain.Market) error {
	if err := market.IsValid(); err != nil {
		return err
	}

	if err := s.store.Insert(market.Address, &market); err != nil {
		if err == badgerhold.ErrKeyExists {
			return domain.ErrMarketAlreadyExists
		}
		return err
	}
	return nil
}

func (s *Store) GetMarket(
	ctx context.Context, address string,
) (*domain.Market, error) {
	var market domain.Market
	if err := s.store.Get(address, &market); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrMarketNotFound
		}
		return nil, err
	}
	return &market, nil
}

func (s *Store) ListMarkets(ctx context.Context) ([]domain.Market, error) {
	var markets []domain.Market
	if err := s.store.Find(&markets, nil); err != nil {
		return nil, err
	}
	return markets, nil
}

func (s *Store) UpdateMarket(
	ctx context.Context, address string,
	updateFn func(m *domain.Market) (*domain.Market, error),
) error {
	market, err := s.GetMarket(ctx, address)
	if err != nil {
		return err
	}

	updatedMarket, err := updateFn(market)
	if err != nil {
		return err
	}
	if err := updatedMarket.IsValid(); err != nil {
		return err
	}

	return s.store.Update(address, updatedMarket)
}

func (s *Store) RemoveMarket(ctx context.Context, address string) error {
	if err := s.store.Delete(address, domain.Market{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return err
	}
	return nil
}
