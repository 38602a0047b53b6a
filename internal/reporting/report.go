package reporting

import (
	"time"

	"wallet-analytics/internal/domain"
)

// Report is the rendered view of one analytics cycle.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	CycleID     string
	Address     string
	Network     string
	Period      domain.Period

	// Portfolio (sorted by value desc, then symbol)
	TotalValueUSD float64
	Holdings      []HoldingRow

	// Risk
	Risk    *domain.RiskMetrics
	Sectors []SectorRow // sorted by share desc

	// Signals (sorted by asset)
	Signals []SignalRow

	Performance domain.Performance
	Plan        domain.RebalancePlan

	// Tax is nil when the replay failed or history was unavailable.
	Tax      *domain.TaxReport
	TaxError string

	// Failures (sorted by source)
	Failures []FailureRow
}

// HoldingRow is one position with its portfolio weight.
type HoldingRow struct {
	Symbol    string
	Asset     string
	Quantity  float64
	UnitPrice float64
	ValueUSD  float64
	WeightPct float64
}

// SectorRow is one sector's share of portfolio value.
type SectorRow struct {
	Sector domain.Sector
	Pct    float64
}

// SignalRow joins indicator readings and the prediction for one asset.
type SignalRow struct {
	Asset      string
	Price      float64
	RSI        float64
	SMA20      float64
	Trend      domain.Signal // MACD
	Predicted  float64
	Direction  domain.Signal
	Confidence float64
}

// FailureRow is an isolated upstream failure.
type FailureRow struct {
	Source string
	Error  string
}
