package submitter_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/slab-network/oracled/pkg/explorer"
	"github.com/slab-network/oracled/pkg/soltx"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRPC struct {
	mock.Mock
}

func (m *mockRPC) GetRecentPrioritizationFees(
	ctx context.Context, accounts []string,
) ([]explorer.PrioritizationFee, error) {
	args := m.Called(accounts)

	var res []explorer.PrioritizationFee
	if a := args.Get(0); a != nil {
		res = a.([]explorer.PrioritizationFee)
	}
	return res, args.Error(1)
}

func (m *mockRPC) GetLatestBlockhash(
	ctx context.Context,
) (*explorer.Blockhash, error) {
	args := m.Called()

	var res *explorer.Blockhash
	if a := args.Get(0); a != nil {
		res = a.(*explorer.Blockhash)
	}
	return res, args.Error(1)
}

func (m *mockRPC) SendRawTransaction(
	ctx context.Context, rawTx []byte,
) (string, error) {
	args := m.Called(rawTx)
	return args.String(0), args.Error(1)
}

func (m *mockRPC) GetSignatureStatuses(
	ctx context.Context, signatures ...string,
) ([]*explorer.SignatureStatus, error) {
	args := m.Called(signatures)

	var res []*explorer.SignatureStatus
	if a := args.Get(0); a != nil {
		res = a.([]*explorer.SignatureStatus)
	}
	return res, args.Error(1)
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

func randomBlockhash(t *testing.T) *explorer.Blockhash {
	buf := make([]byte, 32)
	_, err := rand.Read(buf)
	require.NoError(t, err)
	return &explorer.Blockhash{Blockhash: base58.Encode(buf), LastValidBlockHeight: 100}
}

// fakeClock advances on every sleep instead of blocking.
type fakeClock struct {
	lock   sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	return ctx.Err()
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]time.Duration{}, c.sleeps...)
}
