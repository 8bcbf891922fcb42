package soltx

import "errors"

var (
	// ErrInvalidPublicKey is returned if a string is not a valid base58 encoded
	// 32-byte key.
	ErrInvalidPublicKey = errors.New("invalid public key")
	// ErrInvalidBlockhash is returned if a blockhash does not decode to 32 bytes.
	ErrInvalidBlockhash = errors.New("invalid blockhash")
	// ErrTransactionTooLarge is returned when the serialized transaction
	// exceeds MaxTransactionSize. It is never transient.
	ErrTransactionTooLarge = errors.New("transaction too large")
	// ErrMissingSigner is returned when a required signature was not provided.
	ErrMissingSigner = errors.New("missing signer")
	// ErrUnknownSigner is returned when signing with a key that is not a
	// required signer of the message.
	ErrUnknownSigner = errors.New("signer is not required by the message")
	// ErrNoInstructions is returned when building a transaction with nothing in it.
	ErrNoInstructions = errors.New("transaction must contain at least one instruction")
)
