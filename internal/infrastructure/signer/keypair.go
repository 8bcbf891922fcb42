package signer

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/slab-network/oracled/internal/core/ports"
	"github.com/slab-network/oracled/pkg/soltx"
)

var (
	ErrInvalidKeypair  = errors.New("invalid keypair")
	ErrKeypairMismatch = errors.New("keypair public key does not match secret")
)

type keypair struct {
	key ed25519.PrivateKey
	pub soltx.PublicKey
}

// NewKeypair returns a ports.Signer for the given 64-byte ed25519 key.
func NewKeypair(key ed25519.PrivateKey) (ports.Signer, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf(
			"%w: got %d bytes, want %d", ErrInvalidKeypair, len(key), ed25519.PrivateKeySize,
		)
	}

	derived := ed25519.NewKeyFromSeed(key.Seed())
	if !bytes.Equal(derived, key) {
		return nil, ErrKeypairMismatch
	}

	var pub soltx.PublicKey
	copy(pub[:], derived.Public().(ed25519.PublicKey))
	return &keypair{derived, pub}, nil
}

// LoadKeypairFile reads a keypair file as written by the solana cli, a JSON
// array of the 64 secret key bytes. A base58 encoded secret is accepted too.
func LoadKeypairFile(path string) (ports.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keypair file: %w", err)
	}
	return ParseKeypair(data)
}

func ParseKeypair(data []byte) (ports.Signer, error) {
	data = bytes.TrimSpace(data)
	if len(data) <= 0 {
		return nil, ErrInvalidKeypair
	}

	if data[0] == '[' {
		var raw []byte
		var ints []int
		if err := json.Unmarshal(data, &ints); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidKeypair, err)
		}
		for _, i := range ints {
			if i < 0 || i > 255 {
				return nil, fmt.Errorf("%w: byte out of range", ErrInvalidKeypair)
			}
			raw = append(raw, byte(i))
		}
		return NewKeypair(raw)
	}

	return NewKeypair(base58.Decode(string(data)))
}

func (k *keypair) PublicKey() soltx.PublicKey {
	return k.pub
}

func (k *keypair) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(k.key, message), nil
}
