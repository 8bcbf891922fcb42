package aggregator

import (
	"fmt"
	"time"

	"github.com/slab-network/oracled/internal/core/domain"
	"github.com/slab-network/oracled/internal/core/ports"
)

const (
	DefaultProviderTimeout     = 10 * time.Second
	DefaultDivergenceThreshold = 0.10
	DefaultDeviationThreshold  = 0.30
	DefaultStaleness           = 60 * time.Second
)

// Config holds the aggregation policy. Zero values are replaced with the
// package defaults.
type Config struct {
	// Providers in priority order, highest first.
	Providers []ports.PriceProvider
	// ProviderTimeout bounds every single provider fetch.
	ProviderTimeout time.Duration
	// DivergenceThreshold is the max relative spread among fresh quotes.
	DivergenceThreshold float64
	// DeviationThreshold is the max relative change of a fresh price against
	// the latest accepted one.
	DeviationThreshold float64
	// Staleness is the max age of a history entry served as cached price.
	Staleness              time.Duration
	HistoryCapacity        int
	TrackedMarketsCapacity int
}

func (c Config) validate() error {
	if len(c.Providers) <= 0 {
		return ErrMissingProviders
	}
	seen := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		if p == nil {
			return ErrMissingProviders
		}
		if seen[p.Name()] {
			return fmt.Errorf("%w: %s", ErrDuplicatedProvider, p.Name())
		}
		seen[p.Name()] = true
	}
	if c.DivergenceThreshold < 0 || c.DeviationThreshold < 0 {
		return ErrInvalidThreshold
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.ProviderTimeout <= 0 {
		c.ProviderTimeout = DefaultProviderTimeout
	}
	if c.DivergenceThreshold == 0 {
		c.DivergenceThreshold = DefaultDivergenceThreshold
	}
	if c.DeviationThreshold == 0 {
		c.DeviationThreshold = DefaultDeviationThreshold
	}
	if c.Staleness <= 0 {
		c.Staleness = DefaultStaleness
	}
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = domain.DefaultHistoryCapacity
	}
	if c.TrackedMarketsCapacity <= 0 {
		c.TrackedMarketsCapacity = domain.DefaultTrackedMarketsCapacity
	}
	return c
}
