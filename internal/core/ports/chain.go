package ports

import "github.com/slab-network/oracled/pkg/explorer"

// ChainRPC is the subset of the blockchain RPC used to land transactions.
type ChainRPC = explorer.Service
