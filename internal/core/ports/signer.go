package ports

import "github.com/slab-network/oracled/pkg/soltx"

// Signer holds the key the daemon signs transactions with.
type Signer interface {
	soltx.Signer
}
