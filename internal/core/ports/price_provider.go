package ports

import "context"

// QuoteStatus tells apart a usable quote from the different kinds of "no data".
type QuoteStatus int

const (
	// QuoteAbsent means the provider has no price for the mint.
	QuoteAbsent QuoteStatus = iota
	// QuoteOK means PriceE6 holds a positive price.
	QuoteOK
	// QuoteMalformed means the provider answered with something unusable.
	QuoteMalformed
)

func (s QuoteStatus) String() string {
	switch s {
	case QuoteOK:
		return "ok"
	case QuoteMalformed:
		return "malformed"
	default:
		return "absent"
	}
}

// Quote is the tagged result of a provider fetch.
type Quote struct {
	Status  QuoteStatus
	PriceE6 uint64
}

func (q Quote) IsOK() bool {
	return q.Status == QuoteOK && q.PriceE6 > 0
}

// PriceProvider is an external price source for token mints.
type PriceProvider interface {
	// Name identifies the provider and is recorded as the price source.
	Name() string
	// FetchPrice returns the current price of the mint. Transport failures are
	// returned as errors; missing or unparsable prices as a non-OK Quote.
	FetchPrice(ctx context.Context, mint string) (Quote, error)
}
