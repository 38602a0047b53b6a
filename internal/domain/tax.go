package domain

import "github.com/shopspring/decimal"

// TaxSummary aggregates a tax year beyond the disposal totals.
type TaxSummary struct {
	TransactionCount         int             `json:"transaction_count"`
	BuyCount                 int             `json:"buy_count"`  // inflow events
	SellCount                int             `json:"sell_count"` // outflow events
	TotalBoughtUSD           decimal.Decimal `json:"total_bought_usd"`
	TotalSoldUSD             decimal.Decimal `json:"total_sold_usd"`
	RewardIncomeUSD          decimal.Decimal `json:"reward_income_usd"`
	TotalGasUSD              decimal.Decimal `json:"total_gas_usd"`
	AverageHoldingPeriodDays float64         `json:"average_holding_period_days"`
	BestAsset                string          `json:"best_asset,omitempty"`
	BestAssetGain            decimal.Decimal `json:"best_asset_gain"`
	WorstAsset               string          `json:"worst_asset,omitempty"`
	WorstAssetGain           decimal.Decimal `json:"worst_asset_gain"`
}

// TaxReport is an immutable aggregate over one calendar year.
type TaxReport struct {
	Year            int                `json:"year"`
	Method          AccountingMethod   `json:"method"`           // as configured
	EffectiveMethod AccountingMethod   `json:"effective_method"` // order actually applied
	TotalProceeds   decimal.Decimal    `json:"total_proceeds"`
	TotalCostBasis  decimal.Decimal    `json:"total_cost_basis"`
	TotalGainLoss   decimal.Decimal    `json:"total_gain_loss"`
	ShortTermGain   decimal.Decimal    `json:"short_term_gain"`
	LongTermGain    decimal.Decimal    `json:"long_term_gain"`
	Disposals       []RealizedDisposal `json:"disposals"`
	Summary         TaxSummary         `json:"summary"`
	Rows            []TaxRow           `json:"rows"`
	GeneratedAt     int64              `json:"generated_at"` // Unix ms
}

// TaxRowColumns is the export header. Column order is part of the contract.
var TaxRowColumns = []string{
	"date", "id", "type", "asset", "amount", "price", "value_usd", "cost_basis",
	"proceeds", "gain_loss", "gain_loss_pct", "holding_period_days", "long_term", "gas_usd",
}

// TaxRow is one transaction of the report year in flat export form. Disposal
// columns are zero for inflows.
type TaxRow struct {
	Date              int64           `json:"date"` // Unix ms
	ID                string          `json:"id"`
	Type              Kind            `json:"type"`
	Asset             string          `json:"asset"`
	Amount            decimal.Decimal `json:"amount"`
	Price             decimal.Decimal `json:"price"`
	ValueUSD          decimal.Decimal `json:"value_usd"`
	CostBasis         decimal.Decimal `json:"cost_basis"`
	Proceeds          decimal.Decimal `json:"proceeds"`
	GainLoss          decimal.Decimal `json:"gain_loss"`
	GainLossPct       decimal.Decimal `json:"gain_loss_pct"`
	HoldingPeriodDays float64         `json:"holding_period_days"`
	LongTerm          bool            `json:"long_term"`
	GasUSD            decimal.Decimal `json:"gas_usd"`
}
