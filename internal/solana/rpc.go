package solana

import "context"

// RPCClient defines the Solana JSON-RPC reads used for wallet analytics.
type RPCClient interface {
	// GetBalance returns the native balance of address in lamports.
	GetBalance(ctx context.Context, address string) (uint64, error)

	// GetTokenAccountsByOwner returns the parsed SPL token accounts owned by owner.
	GetTokenAccountsByOwner(ctx context.Context, owner string) ([]TokenAccount, error)

	// GetSignaturesForAddress retrieves signatures for an address, newest first.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetTransaction retrieves a transaction by signature. Returns nil if not found.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetAccountInfo retrieves raw account data. Returns nil if not found.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)
}
