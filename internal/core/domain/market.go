package domain

// Market is a slab tracked by the daemon.
type Market struct {
	// Address is the slab account address, used as market id everywhere.
	Address string
	// Mint is the collateral/index token priced by the providers.
	Mint string
	// OracleAuthority is the only signer allowed to push prices to the slab.
	OracleAuthority string
	// AuthorityPriceE6 is the last known authority price on chain, 0 if unset.
	AuthorityPriceE6 uint64
}

func (m Market) IsValid() error {
	if len(m.Address) <= 0 {
		return ErrMarketMissingAddress
	}
	if len(m.Mint) <= 0 {
		return ErrMarketMissingMint
	}
	if len(m.OracleAuthority) <= 0 {
		return ErrMarketMissingAuthority
	}
	return nil
}
