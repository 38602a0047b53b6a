package domain

import "github.com/shopspring/decimal"

// AccountingMethod selects the lot consumption order on disposal.
type AccountingMethod string

const (
	MethodFIFO AccountingMethod = "fifo"
	MethodLIFO AccountingMethod = "lifo"
	// MethodSpecificID is accepted by configuration but has no distinct
	// algorithm; the engine consumes lots in FIFO order and reports it.
	MethodSpecificID AccountingMethod = "specific_id"
)

// IsValid checks if the method is a supported value.
func (m AccountingMethod) IsValid() bool {
	return m == MethodFIFO || m == MethodLIFO || m == MethodSpecificID
}

// Lot is an open acquisition record.
type Lot struct {
	ID         string          // deterministic, see idhash.ComputeLotID
	Asset      string          // mint address or NativeAsset
	Quantity   decimal.Decimal // remaining units, never negative
	CostBasis  decimal.Decimal // remaining total cost basis (USD)
	AcquiredAt int64           // Unix timestamp in milliseconds
	SourceTxID string          // inflow transaction that opened the lot
}

// UnitCost returns cost basis per remaining unit.
func (l Lot) UnitCost() decimal.Decimal {
	if l.Quantity.IsZero() {
		return decimal.Zero
	}
	return l.CostBasis.Div(l.Quantity)
}

// LotConsumption records how much of one lot a disposal used.
type LotConsumption struct {
	LotID      string
	Quantity   decimal.Decimal
	CostBasis  decimal.Decimal
	AcquiredAt int64
}

// RealizedDisposal is produced when an outflow consumes one or more lots.
type RealizedDisposal struct {
	ID              string           // deterministic, see idhash.ComputeDisposalID
	TxID            string           // outflow transaction
	Asset           string           // mint address or NativeAsset
	Symbol          string           // ticker when known
	Kind            Kind             // sell or transfer_out
	Quantity        decimal.Decimal  // units disposed
	Proceeds        decimal.Decimal  // USD received, net of gas when configured
	CostBasis       decimal.Decimal  // consumed basis across lots
	GainLoss        decimal.Decimal  // Proceeds - CostBasis
	HoldingPeriodMs int64            // from quantity-weighted acquisition time
	LongTerm        bool             // HoldingPeriodMs >= threshold
	DisposedAt      int64            // Unix timestamp in milliseconds
	GasUSD          decimal.Decimal  // fee of the outflow transaction
	Lots            []LotConsumption // per-lot detail, consumption order
}

// GainLossPct returns gain/loss as a percentage of cost basis, zero when basis is zero.
func (d RealizedDisposal) GainLossPct() decimal.Decimal {
	if d.CostBasis.IsZero() {
		return decimal.Zero
	}
	return d.GainLoss.Div(d.CostBasis).Mul(decimal.NewFromInt(100))
}

// HoldingDays returns the holding period in fractional days.
func (d RealizedDisposal) HoldingDays() float64 {
	return float64(d.HoldingPeriodMs) / float64(MillisPerDay)
}

// MillisPerDay is the number of milliseconds in a day.
const MillisPerDay int64 = 24 * 60 * 60 * 1000
