package pusher_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/slab-network/oracled/internal/core/domain"
	"github.com/slab-network/oracled/internal/core/ports"
	"github.com/slab-network/oracled/pkg/soltx"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPriceSource struct {
	mock.Mock
}

func (m *mockPriceSource) FetchPrice(
	ctx context.Context, mint, marketID string,
) (domain.PriceEntry, bool) {
	args := m.Called(mint, marketID)
	return args.Get(0).(domain.PriceEntry), args.Bool(1)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(
	ctx context.Context, ix soltx.Instruction, signer ports.Signer,
) (string, error) {
	args := m.Called(ix, signer)
	return args.String(0), args.Error(1)
}

type mockMarketStore struct {
	mock.Mock
}

func (m *mockMarketStore) AddMarket(ctx context.Context, market domain.Market) error {
	return m.Called(market).Error(0)
}

func (m *mockMarketStore) GetMarket(
	ctx context.Context, address string,
) (*domain.Market, error) {
	args := m.Called(address)

	var res *domain.Market
	if a := args.Get(0); a != nil {
		res = a.(*domain.Market)
	}
	return res, args.Error(1)
}

func (m *mockMarketStore) ListMarkets(ctx context.Context) ([]domain.Market, error) {
	args := m.Called()

	var res []domain.Market
	if a := args.Get(0); a != nil {
		res = a.([]domain.Market)
	}
	return res, args.Error(1)
}

func (m *mockMarketStore) UpdateMarket(
	ctx context.Context, address string,
	updateFn func(m *domain.Market) (*domain.Market, error),
) error {
	return m.Called(address, updateFn).Error(0)
}

func (m *mockMarketStore) RemoveMarket(ctx context.Context, address string) error {
	return m.Called(address).Error(0)
}

type testSigner struct {
	key ed25519.PrivateKey
}

func newTestSigner(t *testing.T) testSigner {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return testSigner{key}
}

func (s testSigner) PublicKey() soltx.PublicKey {
	var pk soltx.PublicKey
	copy(pk[:], s.key.Public().(ed25519.PublicKey))
	return pk
}

func (s testSigner) Sign(msg []byte) ([]byte, error) {
	return ed25519.Sign(s.key, msg), nil
}

func randomKey(t *testing.T) soltx.PublicKey {
	var pk soltx.PublicKey
	_, err := rand.Read(pk[:])
	require.NoError(t, err)
	return pk
}
