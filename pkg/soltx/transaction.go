package soltx

import (
	"crypto/ed25519"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const (
	// MaxTransactionSize is the network ceiling for a serialized transaction,
	// derived from the IPv6 MTU minus headers.
	MaxTransactionSize = 1232
	// SignatureLength is the size in bytes of an ed25519 signature.
	SignatureLength = ed25519.SignatureSize
)

// Signer produces signatures for a given public key.
type Signer interface {
	PublicKey() PublicKey
	Sign(message []byte) ([]byte, error)
}

// Transaction is a legacy transaction whose signatures are produced by
// Signers instead of raw private keys.
type Transaction struct {
	*solana.Transaction
}

// NewTransaction compiles the given instructions into a legacy message paid
// by payer and anchored to the given base58 blockhash.
func NewTransaction(
	payer PublicKey, blockhash string, instructions ...Instruction,
) (*Transaction, error) {
	if len(instructions) <= 0 {
		return nil, ErrNoInstructions
	}

	hash, err := solana.HashFromBase58(blockhash)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %s", ErrInvalidBlockhash, blockhash, err)
	}

	tx, err := solana.NewTransaction(
		instructions, hash, solana.TransactionPayer(payer),
	)
	if err != nil {
		return nil, err
	}
	return &Transaction{tx}, nil
}

// Sign replaces the signatures of the transaction with those of the given
// signers. Every required signer must be given.
func (t *Transaction) Sign(signers ...Signer) error {
	msg, err := t.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	required := t.Message.Signers()
	signatures := make([]solana.Signature, len(required))

	for _, s := range signers {
		idx := -1
		for i, k := range required {
			if k.Equals(s.PublicKey()) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownSigner, s.PublicKey())
		}

		sig, err := s.Sign(msg)
		if err != nil {
			return fmt.Errorf("sign with %s: %w", s.PublicKey(), err)
		}
		if len(sig) != SignatureLength {
			return fmt.Errorf("signature of %s has wrong length %d", s.PublicKey(), len(sig))
		}
		signatures[idx] = solana.SignatureFromBytes(sig)
	}

	for i, sig := range signatures {
		if sig.IsZero() {
			return fmt.Errorf("%w: %s", ErrMissingSigner, required[i])
		}
	}
	t.Signatures = signatures
	return nil
}

// Serialize returns the wire encoding of the signed transaction.
func (t *Transaction) Serialize() ([]byte, error) {
	return t.MarshalBinary()
}

// Signature returns the base58 encoded fee payer signature, which is also the
// transaction id.
func (t *Transaction) Signature() string {
	if len(t.Signatures) <= 0 {
		return ""
	}
	return t.Signatures[0].String()
}

// CheckTransactionSize fails if the serialized transaction cannot fit the
// network packet limit.
func CheckTransactionSize(raw []byte) error {
	if len(raw) > MaxTransactionSize {
		return fmt.Errorf(
			"%w: %d bytes, max %d", ErrTransactionTooLarge, len(raw), MaxTransactionSize,
		)
	}
	return nil
}
