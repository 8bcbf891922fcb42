package pusher

import "errors"

var (
	ErrMissingSigner    = errors.New("missing signer")
	ErrMissingProgramID = errors.New("missing program id")
)
