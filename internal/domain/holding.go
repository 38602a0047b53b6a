package domain

import (
	"fmt"
	"strings"
	"time"
)

// NativeAsset is the asset id used for the chain's native token balance.
const NativeAsset = "SOL"

// Holding is a point-in-time position snapshot for one asset.
// Owned by the caller; the engine never mutates it.
type Holding struct {
	Asset     string  // mint address, or NativeAsset
	Symbol    string  // ticker, e.g. "ETH", "USDC"
	Quantity  float64 // token units, decimals applied
	UnitPrice float64 // USD per unit
	ValueUSD  float64 // Quantity * UnitPrice
}

// NewHolding builds a Holding with its USD value derived from quantity and price.
func NewHolding(asset, symbol string, quantity, unitPrice float64) Holding {
	return Holding{
		Asset:     asset,
		Symbol:    symbol,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		ValueUSD:  quantity * unitPrice,
	}
}

// Key returns the identifier used for price lookups: the symbol when known, else the asset id.
func (h Holding) Key() string {
	if h.Symbol != "" {
		return strings.ToUpper(h.Symbol)
	}
	return h.Asset
}

// TotalValue sums USD value across holdings.
func TotalValue(holdings []Holding) float64 {
	var total float64
	for _, h := range holdings {
		total += h.ValueUSD
	}
	return total
}

// PricePoint is a single observation of an asset price.
type PricePoint struct {
	Timestamp int64   // Unix timestamp in milliseconds
	Price     float64 // USD
}

// Period is a lookback window for historical analytics.
type Period string

const (
	Period1D  Period = "1d"
	Period7D  Period = "7d"
	Period30D Period = "30d"
	Period90D Period = "90d"
	Period1Y  Period = "1y"
)

// Days returns the number of days covered by the period.
func (p Period) Days() int {
	switch p {
	case Period1D:
		return 1
	case Period7D:
		return 7
	case Period30D:
		return 30
	case Period90D:
		return 90
	case Period1Y:
		return 365
	}
	return 0
}

// Duration returns the period length.
func (p Period) Duration() time.Duration {
	return time.Duration(p.Days()) * 24 * time.Hour
}

// IsValid checks if the period is a supported value.
func (p Period) IsValid() bool {
	return p.Days() > 0
}

// ParsePeriod parses a period string such as "30d".
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("unknown period %q", s)
	}
	return p, nil
}
