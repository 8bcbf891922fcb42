package soltx_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/slab-network/oracled/pkg/soltx"
	"github.com/stretchr/testify/require"
)

type testSigner struct {
	key ed25519.PrivateKey
}

func newTestSigner(t *testing.T) testSigner {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return testSigner{key}
}

func (s testSigner) PublicKey() soltx.PublicKey {
	var pk soltx.PublicKey
	copy(pk[:], s.key.Public().(ed25519.PublicKey))
	return pk
}

func (s testSigner) Sign(msg []byte) ([]byte, error) {
	return ed25519.Sign(s.key, msg), nil
}

func randomKey(t *testing.T) soltx.PublicKey {
	var pk soltx.PublicKey
	_, err := rand.Read(pk[:])
	require.NoError(t, err)
	return pk
}

func randomBlockhash(t *testing.T) string {
	buf := make([]byte, 32)
	_, err := rand.Read(buf)
	require.NoError(t, err)
	return base58.Encode(buf)
}

func TestPublicKey(t *testing.T) {
	pk := soltx.ComputeBudgetProgramID
	parsed, err := soltx.PublicKeyFromBase58(pk.String())
	require.NoError(t, err)
	require.Equal(t, pk, parsed)

	_, err = soltx.PublicKeyFromBase58("abc")
	require.ErrorIs(t, err, soltx.ErrInvalidPublicKey)
}

func TestNewTransaction(t *testing.T) {
	signer := newTestSigner(t)
	program := randomKey(t)
	slab := randomKey(t)

	ix := soltx.NewInstruction(
		program, []byte{1, 2, 3},
		&soltx.AccountMeta{PublicKey: signer.PublicKey(), IsSigner: true, IsWritable: true},
		&soltx.AccountMeta{PublicKey: slab, IsWritable: true},
	)

	tx, err := soltx.NewTransaction(
		signer.PublicKey(), randomBlockhash(t),
		soltx.SetComputeUnitLimit(200000), soltx.SetComputeUnitPrice(5000), ix,
	)
	require.NoError(t, err)

	msg := tx.Message
	require.Equal(t, uint8(1), msg.Header.NumRequiredSignatures)
	require.Equal(t, uint8(0), msg.Header.NumReadonlySignedAccounts)
	// compute budget program + target program
	require.Equal(t, uint8(2), msg.Header.NumReadonlyUnsignedAccounts)
	require.Len(t, msg.AccountKeys, 4)
	require.Equal(t, signer.PublicKey(), msg.AccountKeys[0])
	require.Equal(t, slab, msg.AccountKeys[1])
	require.Len(t, msg.Instructions, 3)

	require.NoError(t, tx.Sign(signer))
	require.NotEmpty(t, tx.Signature())

	raw, err := tx.Serialize()
	require.NoError(t, err)
	require.NoError(t, soltx.CheckTransactionSize(raw))
	require.Equal(t, byte(1), raw[0])

	msgBytes, err := msg.MarshalBinary()
	require.NoError(t, err)
	require.True(t, ed25519.Verify(
		signer.key.Public().(ed25519.PublicKey), msgBytes, raw[1:65],
	))
}

func TestNewTransactionErrors(t *testing.T) {
	signer := newTestSigner(t)

	_, err := soltx.NewTransaction(signer.PublicKey(), randomBlockhash(t))
	require.ErrorIs(t, err, soltx.ErrNoInstructions)

	_, err = soltx.NewTransaction(
		signer.PublicKey(), "short", soltx.SetComputeUnitLimit(1),
	)
	require.ErrorIs(t, err, soltx.ErrInvalidBlockhash)

	tx, err := soltx.NewTransaction(
		signer.PublicKey(), randomBlockhash(t), soltx.SetComputeUnitLimit(1),
	)
	require.NoError(t, err)
	err = tx.Sign(newTestSigner(t))
	require.ErrorIs(t, err, soltx.ErrUnknownSigner)

	err = tx.Sign()
	require.ErrorIs(t, err, soltx.ErrMissingSigner)
}

func TestCheckTransactionSize(t *testing.T) {
	tests := []struct {
		size    int
		wantErr bool
	}{
		{0, false},
		{soltx.MaxTransactionSize - 1, false},
		{soltx.MaxTransactionSize, false},
		{soltx.MaxTransactionSize + 1, true},
		{4096, true},
	}

	for _, tt := range tests {
		err := soltx.CheckTransactionSize(make([]byte, tt.size))
		if tt.wantErr {
			require.True(t, errors.Is(err, soltx.ErrTransactionTooLarge), tt.size)
			continue
		}
		require.NoError(t, err, tt.size)
	}
}

func TestOversizedInstruction(t *testing.T) {
	signer := newTestSigner(t)
	tx, err := soltx.NewTransaction(
		signer.PublicKey(), randomBlockhash(t),
		soltx.NewInstruction(randomKey(t), make([]byte, 1300)),
	)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(signer))

	raw, err := tx.Serialize()
	require.NoError(t, err)
	require.ErrorIs(t, soltx.CheckTransactionSize(raw), soltx.ErrTransactionTooLarge)
}
