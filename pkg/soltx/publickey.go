package soltx

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// PublicKey identifies an account on chain.
type PublicKey = solana.PublicKey

// PublicKeyFromBase58 parses the base58 representation of an account address.
func PublicKeyFromBase58(str string) (PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(str)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w %q: %s", ErrInvalidPublicKey, str, err)
	}
	return pk, nil
}
