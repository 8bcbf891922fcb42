package dexscreenerfeeder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/slab-network/oracled/internal/core/ports"
	pricefeeder "github.com/slab-network/oracled/internal/infrastructure/price-feeder"
	"github.com/slab-network/oracled/pkg/circuitbreaker"
)

const (
	// Name is recorded as the source of prices from this provider.
	Name = "dexscreener"
	// DefaultBaseURL is the public DexScreener API.
	DefaultBaseURL = "https://api.dexscreener.com"
)

type pair struct {
	BaseToken struct {
		Address string `json:"address"`
	} `json:"baseToken"`
	PriceUsd  string `json:"priceUsd"`
	Liquidity *struct {
		Usd float64 `json:"usd"`
	} `json:"liquidity"`
}

type tokensResponse struct {
	Pairs []pair `json:"pairs"`
}

type service struct {
	baseURL string
	client  *pricefeeder.Client
	cache   *pricefeeder.ResponseCache
}

// NewService returns a PriceProvider backed by DexScreener token pairs. The
// price of a mint is the USD price of its most liquid pair.
func NewService(
	baseURL string, timeout, cacheTTL time.Duration,
) (ports.PriceProvider, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid dexscreener url: %w", err)
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

	endpoint := fmt.Sprintf(
		"%s/latest/dex/tokens/%s", s.baseURL, url.PathEscape(mint),
	)
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
	var res tokensResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return ports.Quote{Status: ports.QuoteMalformed}
	}

	var (
		best      *pair
		bestLiq   float64
		malformed bool
	)
	for i := range res.Pairs {
		p := &res.Pairs[i]
		if p.BaseToken.Address != mint {
			continue
		}
		if _, err := decimal.NewFromString(p.PriceUsd); err != nil {
			malformed = true
			continue
		}
		liq := 0.0
		if p.Liquidity != nil {
			liq = p.Liquidity.Usd
		}
		if best == nil || liq > bestLiq {
			best, bestLiq = p, liq
		}
	}

	if best == nil {
		if malformed {
			return ports.Quote{Status: ports.QuoteMalformed}
		}
		return ports.Quote{Status: ports.QuoteAbsent}
	}

	priceE6, err := pricefeeder.ToPriceE6(best.PriceUsd)
	if err != nil {
		return ports.Quote{Status: ports.QuoteMalformed}
	}
	return ports.Quote{Status: ports.QuoteOK, PriceE6: priceE6}
}
