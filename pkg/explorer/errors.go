package explorer

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// CodeSendTransactionPreflightFailure is the JSON-RPC error code of a
// transaction rejected by its preflight simulation.
const CodeSendTransactionPreflightFailure = -32002

// RPCError is an error answered by the node, either at the HTTP layer
// (StatusCode) or inside the JSON-RPC envelope (Code).
type RPCError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *RPCError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("rpc http status %d: %s", e.StatusCode, e.Message)
}

// IsRateLimited returns whether err looks like the node throttling us.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) && rpcErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "too many requests")
}

// IsPreflightFailure returns whether the node refused to send a transaction
// because simulating it failed.
func IsPreflightFailure(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) &&
		rpcErr.Code == CodeSendTransactionPreflightFailure
}
