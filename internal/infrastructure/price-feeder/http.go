package pricefeeder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// DefaultRequestTimeout bounds a single upstream request.
const DefaultRequestTimeout = 10 * time.Second

// ErrNotFound is returned by Get when upstream answers 404.
var ErrNotFound = errors.New("not found")

// Client is a minimal HTTP GET client guarded by a circuit breaker.
type Client struct {
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

func NewClient(cb *gobreaker.CircuitBreaker, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{&http.Client{}, cb, timeout}
}

// Get fetches url and returns the body of a 200 response.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	res, err := c.cb.Execute(func() (interface{}, error) {
		body, err := c.get(ctx, url)
		// a missing price is an answer, not a provider failure
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return body, err
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, ErrNotFound
	}
	return res.([]byte), nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
}
