package badgerstore_test

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/slab-network/oracled/internal/core/domain"
	"github.com/slab-network/oracled/internal/core/ports"
	badgerstore "github.com/slab-network/oracled/internal/infrastructure/storage/badger"
	"github.com/stretchr/testify/require"
)

var (
	ctx = context.Background()

	_ ports.MarketStore  = (*badgerstore.Store)(nil)
	_ ports.HistoryStore = (*badgerstore.Store)(nil)
)

func newStore(t *testing.T, dir string) *badgerstore.Store {
	store, err := badgerstore.NewStore(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		//nolint
		store.Close()
	})
	return store
}

func randomAddress(t *testing.T) string {
	buf := make([]byte, 32)
	_, err := rand.Read(buf)
	require.NoError(t, err)
	return base58.Encode(buf)
}

func newTestMarket(t *testing.T) domain.Market {
	return domain.Market{
		Address:         randomAddress(t),
		Mint:            randomAddress(t),
		OracleAuthority: randomAddress(t),
	}
}

func TestMarketStore(t *testing.T) {
	t.Run("add and remove", func(t *testing.T) {
		store := newStore(t, "")
		market := newTestMarket(t)

		require.NoError(t, store.AddMarket(ctx, market))
		require.ErrorIs(t, store.AddMarket(ctx, market), domain.ErrMarketAlreadyExists)

		require.NoError(t, store.RemoveMarket(ctx, market.Address))
		require.NoError(t, store.RemoveMarket(ctx, market.Address))

		_, err := store.GetMarket(ctx, market.Address)
		require.ErrorIs(t, err, domain.ErrMarketNotFound)
	})

	t.Run("invalid market", func(t *testing.T) {
		store := newStore(t, "")
		market := newTestMarket(t)
		market.Mint = ""
		require.ErrorIs(t, store.AddMarket(ctx, market), domain.ErrMarketMissingMint)
	})

	t.Run("update", func(t *testing.T) {
		store := newStore(t, "")
		market := newTestMarket(t)
		require.NoError(t, store.AddMarket(ctx, market))

		err := store.UpdateMarket(ctx, market.Address, func(m *domain.Market) (*domain.Market, error) {
			m.AuthorityPriceE6 = 1500000
			return m, nil
		})
		require.NoError(t, err)

		got, err := store.GetMarket(ctx, market.Address)
		require.NoError(t, err)
		require.Equal(t, uint64(1500000), got.AuthorityPriceE6)

		err = store.UpdateMarket(ctx, randomAddress(t), func(m *domain.Market) (*domain.Market, error) {
			return m, nil
		})
		require.ErrorIs(t, err, domain.ErrMarketNotFound)
	})

	t.Run("list", func(t *testing.T) {
		store := newStore(t, "")
		for i := 0; i < 3; i++ {
			require.NoError(t, store.AddMarket(ctx, newTestMarket(t)))
		}

		markets, err := store.ListMarkets(ctx)
		require.NoError(t, err)
		require.Len(t, markets, 3)
	})
}

func TestHistoryStore(t *testing.T) {
	dir := t.TempDir()
	store, err := badgerstore.NewStore(dir, nil)
	require.NoError(t, err)

	ts := time.Unix(1700000000, 0)
	snapshot := map[string][]domain.PriceEntry{
		"slab1": {
			{PriceE6: 1000000, Source: "dexscreener", Timestamp: ts},
			{PriceE6: 1010000, Source: "jupiter", Timestamp: ts.Add(time.Second)},
		},
		"slab2": {{PriceE6: 5, Source: "dexscreener", Timestamp: ts}},
	}
	require.NoError(t, store.SaveHistory(ctx, snapshot))

	// a new snapshot replaces the previous one
	delete(snapshot, "slab2")
	require.NoError(t, store.SaveHistory(ctx, snapshot))
	require.NoError(t, store.Close())

	reopened := newStore(t, dir)
	loaded, err := reopened.LoadHistory(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Len(t, loaded["slab1"], 2)

	last := loaded["slab1"][1]
	require.Equal(t, uint64(1010000), last.PriceE6)
	require.Equal(t, "jupiter", last.Source)
	require.True(t, ts.Add(time.Second).Equal(last.Timestamp))
}
