package domain

import "time"

const (
	// SourceCached tags an entry served from PriceHistory instead of a fresh
	// provider fetch.
	SourceCached = "cached"
	// SourceOnChain tags the last authority price read from the market.
	SourceOnChain = "on-chain"

	// PriceScale is the fixed-point scale of priceE6 values.
	PriceScale = 1_000_000
)

// PriceEntry is an accepted price observation for a market.
type PriceEntry struct {
	PriceE6   uint64
	Source    string
	Timestamp time.Time
}

// WithSource returns a copy of the entry tagged with the given source.
func (p PriceEntry) WithSource(source string) PriceEntry {
	p.Source = source
	return p
}

// Age returns how old the entry is at the given instant.
func (p PriceEntry) Age(now time.Time) time.Duration {
	return now.Sub(p.Timestamp)
}

// RelativeChange returns |a-b| / base as a float.
func RelativeChange(a, b, base uint64) float64 {
	if base == 0 {
		return 0
	}
	diff := a - b
	if b > a {
		diff = b - a
	}
	return float64(diff) / float64(base)
}

// Divergence returns the relative spread (max-min)/min of the given prices,
// which for two prices is |a-b|/min(a,b).
func Divergence(prices ...uint64) float64 {
	if len(prices) < 2 {
		return 0
	}
	min, max := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	return RelativeChange(max, min, min)
}
