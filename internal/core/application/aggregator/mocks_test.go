package aggregator_test

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/slab-network/oracled/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

type mockProvider struct {
	mock.Mock
	name string
}

func newMockProvider(name string) *mockProvider {
	return &mockProvider{name: name}
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) FetchPrice(
	ctx context.Context, mint string,
) (ports.Quote, error) {
	args := m.Called(mint)

	var res ports.Quote
	if a := args.Get(0); a != nil {
		res = a.(ports.Quote)
	}
	return res, args.Error(1)
}

// blockingProvider holds every fetch until released and counts upstream calls.
type blockingProvider struct {
	name    string
	price   uint64
	calls   int32
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingProvider(name string, price uint64) *blockingProvider {
	return &blockingProvider{
		name:    name,
		price:   price,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *blockingProvider) Name() string {
	return b.name
}

func (b *blockingProvider) FetchPrice(
	ctx context.Context, _ string,
) (ports.Quote, error) {
	atomic.AddInt32(&b.calls, 1)
	b.once.Do(func() { close(b.started) })

	select {
	case <-b.release:
		return ports.Quote{Status: ports.QuoteOK, PriceE6: b.price}, nil
	case <-ctx.Done():
		return ports.Quote{}, ctx.Err()
	}
}
