package domain

// Signal is a directional indicator reading.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// MACD holds the latest MACD line, signal line and histogram values.
type MACD struct {
	Line      float64 `json:"line"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
	Trend     Signal  `json:"trend"`
}

// TechnicalIndicators bundles the indicator readings for one asset.
type TechnicalIndicators struct {
	Asset        string  `json:"asset"`
	CurrentPrice float64 `json:"current_price"`
	RSI          float64 `json:"rsi"`
	MACD         MACD    `json:"macd"`
	SMA20        float64 `json:"sma20"`
	SMA50        float64 `json:"sma50"`
	EMA12        float64 `json:"ema12"`
	EMA26        float64 `json:"ema26"`
	ChangePct    float64 `json:"change_pct"` // over the analysed period
}

// Prediction is an illustrative heuristic projection, not a statistical forecast.
type Prediction struct {
	Asset          string   `json:"asset"`
	CurrentPrice   float64  `json:"current_price"`
	PredictedPrice float64  `json:"predicted_price"`
	Direction      Signal   `json:"direction"`
	Confidence     float64  `json:"confidence"` // 0..0.95
	Signals        []string `json:"signals"`
}
