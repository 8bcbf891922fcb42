package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/slab-network/oracled/pkg/circuitbreaker"
	"github.com/slab-network/oracled/pkg/explorer"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"
)

const (
	defaultRequestTimeout    = 15 * time.Second
	defaultRequestsPerSecond = 10
)

type service struct {
	endpoint       string
	client         *http.Client
	cb             *gobreaker.CircuitBreaker
	limiter        ratelimit.Limiter
	requestTimeout time.Duration
	nextID         uint64
}

// NewService returns a JSON-RPC client for the given endpoint as an
// explorer.Service. Every call is paced to requestsPerSecond and bounded by
// requestTimeout.
func NewService(
	endpoint string, requestTimeout time.Duration, requestsPerSecond int,
) (explorer.Service, error) {
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid rpc endpoint: %w", err)
	}
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = defaultRequestsPerSecond
	}

	return &service{
		endpoint:       endpoint,
		client:         &http.Client{},
		cb:             circuitbreaker.NewCircuitBreaker("rpc"),
		limiter:        ratelimit.New(requestsPerSecond),
		requestTimeout: requestTimeout,
	}, nil
}

func (s *service) GetRecentPrioritizationFees(
	ctx context.Context, accounts []string,
) ([]explorer.PrioritizationFee, error) {
	if accounts == nil {
		accounts = []string{}
	}
	var fees []explorer.PrioritizationFee
	if err := s.call(
		ctx, "getRecentPrioritizationFees", []interface{}{accounts}, &fees,
	); err != nil {
		return nil, err
	}
	return fees, nil
}

func (s *service) GetLatestBlockhash(
	ctx context.Context,
) (*explorer.Blockhash, error) {
	var res struct {
		Value explorer.Blockhash `json:"value"`
	}
	params := []interface{}{
		map[string]string{"commitment": explorer.CommitmentConfirmed},
	}
	if err := s.call(ctx, "getLatestBlockhash", params, &res); err != nil {
		return nil, err
	}
	if len(res.Value.Blockhash) <= 0 {
		return nil, fmt.Errorf("getLatestBlockhash: empty blockhash")
	}
	return &res.Value, nil
}

func (s *service) SendRawTransaction(
	ctx context.Context, rawTx []byte,
) (string, error) {
	params := []interface{}{
		base64.StdEncoding.EncodeToString(rawTx),
		map[string]interface{}{
			"encoding":            "base64",
			"skipPreflight":       false,
			"preflightCommitment": explorer.CommitmentConfirmed,
		},
	}
	var signature string
	if err := s.call(ctx, "sendTransaction", params, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

func (s *service) GetSignatureStatuses(
	ctx context.Context, signatures ...string,
) ([]*explorer.SignatureStatus, error) {
	var res struct {
		Value []*explorer.SignatureStatus `json:"value"`
	}
	params := []interface{}{
		signatures,
		map[string]bool{"searchTransactionHistory": false},
	}
	if err := s.call(ctx, "getSignatureStatuses", params, &res); err != nil {
		return nil, err
	}
	return res.Value, nil
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *service) call(
	ctx context.Context, method string, params, result interface{},
) error {
	s.limiter.Take()

	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.doRequest(ctx, method, params, result)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func (s *service) doRequest(
	ctx context.Context, method string, params, result interface{},
) error {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      atomic.AddUint64(&s.nextID, 1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, s.endpoint, bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &explorer.RPCError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("malformed rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return &explorer.RPCError{
			StatusCode: resp.StatusCode,
			Code:       rpcResp.Error.Code,
			Message:    rpcResp.Error.Message,
		}
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(rpcResp.Result, result)
}
