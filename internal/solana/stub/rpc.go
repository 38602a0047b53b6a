// Package stub provides an in-memory solana.RPCClient for tests and offline runs.
package stub

import (
	"context"
	"errors"
	"sync"

	"wallet-analytics/internal/solana"
)

// ErrNotFound is returned when a transaction is not in the stub store.
var ErrNotFound = errors.New("not found")

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	mu            sync.RWMutex
	Balances      map[string]uint64
	TokenAccounts map[string][]solana.TokenAccount
	Transactions  map[string]*solana.Transaction
	Signatures    map[string][]solana.SignatureInfo // newest first
	Accounts      map[string]*solana.AccountInfo

	// Fail, when set, is returned by every call.
	Fail error
}

var _ solana.RPCClient = (*RPCClient)(nil)

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Balances:      make(map[string]uint64),
		TokenAccounts: make(map[string][]solana.TokenAccount),
		Transactions:  make(map[string]*solana.Transaction),
		Signatures:    make(map[string][]solana.SignatureInfo),
		Accounts:      make(map[string]*solana.AccountInfo),
	}
}

// GetBalance returns the stored balance.
func (c *RPCClient) GetBalance(_ context.Context, address string) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Fail != nil {
		return 0, c.Fail
	}
	return c.Balances[address], nil
}

// GetTokenAccountsByOwner returns the stored token accounts.
func (c *RPCClient) GetTokenAccountsByOwner(_ context.Context, owner string) ([]solana.TokenAccount, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Fail != nil {
		return nil, c.Fail
	}
	return c.TokenAccounts[owner], nil
}

// GetSignaturesForAddress pages through the stored signatures honoring Before and Limit.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Fail != nil {
		return nil, c.Fail
	}

	sigs := c.Signatures[address]
	if opts != nil && opts.Before != "" {
		for i, s := range sigs {
			if s.Signature == opts.Before {
				sigs = sigs[i+1:]
				break
			}
		}
	}
	if opts != nil && opts.Limit > 0 && opts.Limit < len(sigs) {
		sigs = sigs[:opts.Limit]
	}
	return sigs, nil
}

// GetTransaction retrieves a transaction by signature from the stub store.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Fail != nil {
		return nil, c.Fail
	}
	tx, ok := c.Transactions[signature]
	if !ok {
		return nil, ErrNotFound
	}
	return tx, nil
}

// GetAccountInfo returns the stored account, or nil.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Fail != nil {
		return nil, c.Fail
	}
	return c.Accounts[pubkey], nil
}

// AddTransaction stores tx and prepends its signature to each listed address,
// keeping the newest-first order of getSignaturesForAddress.
func (c *RPCClient) AddTransaction(tx *solana.Transaction, addresses ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Transactions[tx.Signature] = tx
	bt := tx.BlockTime
	info := solana.SignatureInfo{Signature: tx.Signature, Slot: tx.Slot, BlockTime: &bt}
	if tx.Meta != nil {
		info.Err = tx.Meta.Err
	}
	for _, addr := range addresses {
		c.Signatures[addr] = append([]solana.SignatureInfo{info}, c.Signatures[addr]...)
	}
}
