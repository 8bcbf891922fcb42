package aggregator

import "errors"

var (
	ErrMissingProviders   = errors.New("at least one price provider is required")
	ErrDuplicatedProvider = errors.New("duplicated price provider")
	ErrInvalidThreshold   = errors.New("thresholds must not be negative")
)
