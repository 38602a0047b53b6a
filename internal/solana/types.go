package solana

import (
	"github.com/shopspring/decimal"
)

// Well-known program and mint addresses.
const (
	TokenProgramID     = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	Token2022ProgramID = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
	MetaplexProgramID  = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"
	WrappedSOLMint     = "So11111111111111111111111111111111111111112"
	LamportsPerSOL     = 1_000_000_000
)

// SignatureInfo from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// SignaturesOpts defines optional pagination parameters for getSignaturesForAddress.
type SignaturesOpts struct {
	Before string // Start searching backwards from this signature
	Until  string // Search until this signature
	Limit  int    // Maximum number of signatures to return
}

// TokenAccount is a jsonParsed SPL token account.
type TokenAccount struct {
	Address  string
	Mint     string
	Owner    string
	Amount   decimal.Decimal // UI amount, decimals applied
	Decimals uint8
}

// Transaction is a parsed transaction with the balance data needed to derive
// wallet deltas.
type Transaction struct {
	Slot        int64
	Signature   string
	BlockTime   int64 // Unix timestamp (seconds)
	AccountKeys []string
	Meta        *TransactionMeta
}

// TransactionMeta contains transaction status and balance snapshots.
type TransactionMeta struct {
	Err               interface{}
	Fee               uint64
	PreBalances       []uint64
	PostBalances      []uint64
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
	LogMessages       []string
}

// TokenBalance is a token account balance before or after a transaction.
type TokenBalance struct {
	AccountIndex int
	Mint         string
	Owner        string
	Amount       decimal.Decimal // UI amount, decimals applied
	Decimals     uint8
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}
