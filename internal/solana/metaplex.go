package solana

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ErrInvalidAddress is returned for strings that are not 32-byte base58 keys.
var ErrInvalidAddress = errors.New("invalid address")

// DecodeAddress decodes a base58 public key.
func DecodeAddress(address string) ([]byte, error) {
	b, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAddress, address, err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("%w: %s decodes to %d bytes", ErrInvalidAddress, address, len(b))
	}
	return b, nil
}

// ValidateAddress reports whether address is a well-formed public key.
func ValidateAddress(address string) error {
	_, err := DecodeAddress(address)
	return err
}

// FindProgramAddress derives a program address from seeds, searching bumps
// from 255 down for the first hash that is off the ed25519 curve.
func FindProgramAddress(seeds [][]byte, programID []byte) (string, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		h := sha256.New()
		for _, seed := range seeds {
			h.Write(seed)
		}
		h.Write([]byte{byte(bump)})
		h.Write(programID)
		h.Write([]byte("ProgramDerivedAddress"))
		sum := h.Sum(nil)

		if !isOnCurve(sum) {
			return base58.Encode(sum), uint8(bump), nil
		}
	}
	return "", 0, errors.New("no viable bump seed")
}

func isOnCurve(point []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

// MetadataAddress derives the Metaplex metadata account of a mint.
func MetadataAddress(mint string) (string, error) {
	mintKey, err := DecodeAddress(mint)
	if err != nil {
		return "", err
	}
	program, _ := base58.Decode(MetaplexProgramID)
	addr, _, err := FindProgramAddress([][]byte{[]byte("metadata"), program, mintKey}, program)
	return addr, err
}

// TokenMetadata is the name and symbol stored in a Metaplex metadata account.
type TokenMetadata struct {
	Mint   string
	Name   string
	Symbol string
}

// ParseMetadata decodes the borsh prefix of a Metaplex metadata account:
// key u8 (4) | update authority | mint | name | symbol | uri ...
func ParseMetadata(data []byte) (*TokenMetadata, error) {
	const header = 1 + 32 + 32
	if len(data) < header || data[0] != 4 {
		return nil, fmt.Errorf("not a metadata account")
	}

	meta := &TokenMetadata{Mint: base58.Encode(data[33:65])}
	offset := header

	readString := func(limit uint32) (string, error) {
		if offset+4 > len(data) {
			return "", fmt.Errorf("truncated length at %d", offset)
		}
		n := binary.LittleEndian.Uint32(data[offset:])
		offset += 4
		if n > limit || offset+int(n) > len(data) {
			return "", fmt.Errorf("string length %d out of range", n)
		}
		s := strings.TrimRight(string(data[offset:offset+int(n)]), "\x00 ")
		offset += int(n)
		return s, nil
	}

	var err error
	if meta.Name, err = readString(64); err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	if meta.Symbol, err = readString(16); err != nil {
		return nil, fmt.Errorf("symbol: %w", err)
	}
	return meta, nil
}

// knownSymbols short-circuits lookups for common mints.
var knownSymbols = map[string]string{
	WrappedSOLMint:                                 "SOL",
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": "USDC",
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": "USDT",
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  "JUP",
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": "BONK",
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So":  "MSOL",
	"J1toso1uCk3RLmjorhTtrVwY9HJ7X8V9yYac6Y7kGCPn": "JITOSOL",
	"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R": "RAY",
	"HZ1JovNiVvGrGNiiYvEozEVgZ58xaU3RKwX8eACQBCt3": "PYTH",
	"jtojtomepa8beP8AuQc6eXt5FriJwfFMwQx2v2f9mCL":  "JTO",
	"EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm": "WIF",
	"7vfCXTUXx5WJV5JADk17DUJ4ksgau7utNKj4b963voxs": "WETH",
}

// SymbolResolver maps mints to tickers: a static table first, then the
// on-chain Metaplex metadata account. Results are memoized, including misses.
type SymbolResolver struct {
	rpc   RPCClient
	cache sync.Map // mint -> string
}

// NewSymbolResolver creates a resolver. rpc may be nil for static lookups only.
func NewSymbolResolver(rpc RPCClient) *SymbolResolver {
	return &SymbolResolver{rpc: rpc}
}

// Resolve returns the ticker of mint, or "" when none can be found.
// A failed RPC call is returned and not memoized.
func (r *SymbolResolver) Resolve(ctx context.Context, mint string) (string, error) {
	if s, ok := knownSymbols[mint]; ok {
		return s, nil
	}
	if v, ok := r.cache.Load(mint); ok {
		return v.(string), nil
	}
	if r.rpc == nil {
		return "", nil
	}

	pda, err := MetadataAddress(mint)
	if err != nil {
		r.cache.Store(mint, "")
		return "", nil
	}
	info, err := r.rpc.GetAccountInfo(ctx, pda)
	if err != nil {
		return "", fmt.Errorf("metadata for %s: %w", mint, err)
	}

	symbol := ""
	if info != nil {
		if raw, err := base64.StdEncoding.DecodeString(info.Data); err == nil {
			if meta, err := ParseMetadata(raw); err == nil {
				symbol = strings.ToUpper(meta.Symbol)
			}
		}
	}
	r.cache.Store(mint, symbol)
	return symbol, nil
}
