package domain

import "errors"

var (
	ErrMarketMissingAddress   = errors.New("market address must not be empty")
	ErrMarketMissingMint      = errors.New("market mint must not be empty")
	ErrMarketMissingAuthority = errors.New("market oracle authority must not be empty")
	ErrMarketNotFound         = errors.New("market not found")
	ErrMarketAlreadyExists    = errors.New("market already exists")
)
