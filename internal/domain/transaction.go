package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind tags a wallet transaction. The set is closed; see Flow.
type Kind string

const (
	KindBuy         Kind = "buy"
	KindSell        Kind = "sell"
	KindTransferIn  Kind = "transfer_in"
	KindTransferOut Kind = "transfer_out"
	KindAirdrop     Kind = "airdrop"
	KindReward      Kind = "reward"
)

// Flow is the direction of a transaction relative to the wallet.
type Flow int

const (
	FlowInflow Flow = iota + 1
	FlowOutflow
)

// String returns the string representation of Flow.
func (f Flow) String() string {
	switch f {
	case FlowInflow:
		return "inflow"
	case FlowOutflow:
		return "outflow"
	}
	return "unknown"
}

// Flow classifies the kind into inflow or outflow.
// Every Kind constant must have a case here.
func (k Kind) Flow() (Flow, error) {
	switch k {
	case KindBuy, KindTransferIn, KindAirdrop, KindReward:
		return FlowInflow, nil
	case KindSell, KindTransferOut:
		return FlowOutflow, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
}

// IsIncome reports whether the kind is received without a purchase.
func (k Kind) IsIncome() bool {
	return k == KindAirdrop || k == KindReward
}

// ParseKind parses a kind tag.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, err := k.Flow(); err != nil {
		return "", err
	}
	return k, nil
}

// Transaction is one typed wallet event as supplied by the history collaborator.
type Transaction struct {
	ID        string          // signature or hash
	Asset     string          // mint address or NativeAsset
	Symbol    string          // ticker when known
	Kind      Kind            // event tag
	Quantity  decimal.Decimal // token units, always positive
	ValueUSD  decimal.Decimal // USD value at event time
	GasUSD    decimal.Decimal // network fee attributed to this event
	Timestamp int64           // Unix timestamp in milliseconds
	Seq       int             // insertion order, breaks timestamp ties
}

// UnitPrice returns the USD price per unit at event time, zero for zero quantity.
func (t Transaction) UnitPrice() decimal.Decimal {
	if t.Quantity.IsZero() {
		return decimal.Zero
	}
	return t.ValueUSD.Div(t.Quantity)
}

// AssetLabel returns the symbol when known, else the asset id.
func (t Transaction) AssetLabel() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return t.Asset
}

// Validate checks the fields the lot engine relies on.
func (t Transaction) Validate() error {
	if t.Asset == "" {
		return fmt.Errorf("transaction %s: empty asset", t.ID)
	}
	if _, err := t.Kind.Flow(); err != nil {
		return fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	if t.Quantity.IsNegative() {
		return fmt.Errorf("transaction %s: negative quantity %s", t.ID, t.Quantity)
	}
	if t.ValueUSD.IsNegative() || t.GasUSD.IsNegative() {
		return fmt.Errorf("transaction %s: negative USD amount", t.ID)
	}
	return nil
}
