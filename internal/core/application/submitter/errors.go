package submitter

import (
	"context"
	"errors"
	"fmt"

	"github.com/slab-network/oracled/pkg/explorer"
	"github.com/slab-network/oracled/pkg/soltx"
)

var (
	// ErrConfirmationTimeout is returned when a sent transaction is not
	// confirmed within the confirmation timeout.
	ErrConfirmationTimeout = errors.New("transaction not confirmed in time")
	ErrInvalidMaxAttempts  = errors.New("max attempts must be positive")
)

// TransactionError is returned when the chain reports that a sent
// transaction failed to execute.
type TransactionError struct {
	Signature string
	Err       interface{}
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.Signature, e.Err)
}

// IsFatal returns whether retrying the submission cannot help.
func IsFatal(err error) bool {
	var txErr *TransactionError
	return errors.As(err, &txErr) ||
		explorer.IsPreflightFailure(err) ||
		errors.Is(err, soltx.ErrTransactionTooLarge) ||
		errors.Is(err, soltx.ErrUnknownSigner) ||
		errors.Is(err, soltx.ErrMissingSigner) ||
		errors.Is(err, soltx.ErrNoInstructions) ||
		errors.Is(err, context.Canceled)
}
