package domain

// AssetPerformance is the price change of one held asset over a period.
type AssetPerformance struct {
	Asset     string  `json:"asset"`
	Symbol    string  `json:"symbol"`
	PriceThen float64 `json:"price_then"`
	PriceNow  float64 `json:"price_now"`
	ChangePct float64 `json:"change_pct"`
}

// Performance compares current holdings against their value one period ago.
// Assets without a usable price history are excluded from both values.
type Performance struct {
	Period    Period             `json:"period"`
	ValueThen float64            `json:"value_then"`
	ValueNow  float64            `json:"value_now"`
	ChangePct float64            `json:"change_pct"`
	Assets    []AssetPerformance `json:"assets"`
}
