package explorer

import "context"

// Commitment levels of a signature status, in increasing order of finality.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// PrioritizationFee is the minimum per-compute-unit fee paid to land in a
// recent slot.
type PrioritizationFee struct {
	Slot              uint64 `json:"slot"`
	PrioritizationFee uint64 `json:"prioritizationFee"`
}

// Blockhash anchors a transaction to a recent block.
type Blockhash struct {
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

// SignatureStatus is the processing status of a submitted transaction.
type SignatureStatus struct {
	Slot               uint64      `json:"slot"`
	Confirmations      *uint64     `json:"confirmations"`
	Err                interface{} `json:"err"`
	ConfirmationStatus string      `json:"confirmationStatus"`
}

// Failed returns whether the transaction landed but its execution failed.
func (s SignatureStatus) Failed() bool {
	return s.Err != nil
}

// Confirmed returns whether the transaction reached at least the confirmed
// commitment.
func (s SignatureStatus) Confirmed() bool {
	return s.ConfirmationStatus == CommitmentConfirmed ||
		s.ConfirmationStatus == CommitmentFinalized
}

// Service is the blockchain RPC boundary used to land transactions.
type Service interface {
	// GetRecentPrioritizationFees returns the fees paid in recent slots by
	// transactions locking the given accounts.
	GetRecentPrioritizationFees(
		ctx context.Context, accounts []string,
	) ([]PrioritizationFee, error)
	// GetLatestBlockhash returns a fresh blockhash.
	GetLatestBlockhash(ctx context.Context) (*Blockhash, error)
	// SendRawTransaction submits the serialized transaction with preflight
	// checks enabled and returns its signature.
	SendRawTransaction(ctx context.Context, rawTx []byte) (string, error)
	// GetSignatureStatuses returns one status per signature, nil for those not
	// yet seen by the node.
	GetSignatureStatuses(
		ctx context.Context, signatures ...string,
	) ([]*SignatureStatus, error)
}
