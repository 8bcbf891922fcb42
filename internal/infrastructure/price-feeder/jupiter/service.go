package jupiterfeeder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/slab-network/oracled/internal/core/ports"
	pricefeeder "github.com/slab-network/oracled/internal/infrastructure/price-feeder"
	"github.com/slab-network/oracled/pkg/circuitbreaker"
)

const (
	// Name is recorded as the source of prices from this provider.
	Name = "jupiter"
	// DefaultBaseURL is the public Jupiter price API.
	DefaultBaseURL = "https://api.jup.ag/price/v2"
)

type priceData struct {
	ID    string          `json:"id"`
	Price json.RawMessage `json:"price"`
}

type priceResponse struct {
	Data map[string]*priceData `json:"data"`
}

type service struct {
	baseURL string
	client  *pricefeeder.Client
	cache   *pricefeeder.ResponseCache
}

// NewService returns a PriceProvider backed by the Jupiter price API.
func NewService(
	baseURL string, timeout, cacheTTL time.Duration,
) (ports.PriceProvider, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid jupiter url: %w", err)
	}

	return &service{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: pricefeeder.NewClient(
			circuitbreaker.NewCircuitBreaker(Name), timeout,
		),
		cache: pricefeeder.NewResponseCache(cacheTTL),
	}, nil
}

func (s *service) Name() string {
	return Name
}

func (s *service) FetchPrice(
	ctx context.Context, mint string,
) (ports.Quote, error) {
	if quote, ok := s.cache.Get(mint); ok {
		return quote, nil
	}

	endpoint := fmt.Sprintf("%s?ids=%s", s.baseURL, url.QueryEscape(mint))
	body, err := s.client.Get(ctx, endpoint)
	if err != nil {
		if errors.Is(err, pricefeeder.ErrNotFound) {
			return ports.Quote{Status: ports.QuoteAbsent}, nil
		}
		return ports.Quote{}, err
	}

	quote := parseQuote(body, mint)
	if quote.IsOK() {
		s.cache.Set(mint, quote)
	}
	return quote, nil
}

func parseQuote(body []byte, mint string) ports.Quote {
	var res priceResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return ports.Quote{Status: ports.QuoteMalformed}
	}

	data := res.Data[mint]
	if data == nil || len(data.Price) <= 0 || string(data.Price) == "null" {
		return ports.Quote{Status: ports.QuoteAbsent}
	}

	// the api has served the price both as a string and as a number
	price := strings.Trim(string(data.Price), `"`)
	priceE6, err := pricefeeder.ToPriceE6(price)
	if err != nil {
		return ports.Quote{Status: ports.QuoteMalformed}
	}
	return ports.Quote{Status: ports.QuoteOK, PriceE6: priceE6}
}
