package domain

// Sector is a coarse asset classification used for allocation reporting.
type Sector string

const (
	SectorLayer1         Sector = "layer1"
	SectorDeFi           Sector = "defi"
	SectorStablecoin     Sector = "stablecoin"
	SectorMeme           Sector = "meme"
	SectorInfrastructure Sector = "infrastructure"
	SectorOther          Sector = "other"
)

// RiskLevel is the tiered risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// CorrelationMatrix is symmetric with a unit diagonal. Values[i][j] is the
// correlation between Assets[i] and Assets[j].
type CorrelationMatrix struct {
	Assets []string    `json:"assets"`
	Values [][]float64 `json:"values"`
}

// Get returns the correlation between two assets, or 0 when either is absent.
func (m CorrelationMatrix) Get(a, b string) float64 {
	i, j := -1, -1
	for k, asset := range m.Assets {
		if asset == a {
			i = k
		}
		if asset == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return 0
	}
	return m.Values[i][j]
}

// RiskMetrics is recomputed wholesale each cycle and never mutated in place.
type RiskMetrics struct {
	TotalValueUSD        float64            `json:"total_value_usd"`
	Volatility           float64            `json:"volatility"`            // annualized
	VaR                  float64            `json:"var"`                   // USD, parametric
	VaRConfidence        float64            `json:"var_confidence"`        // e.g. 0.95
	MaxDrawdown          float64            `json:"max_drawdown"`          // percent
	SharpeRatio          float64            `json:"sharpe_ratio"`
	Beta                 float64            `json:"beta"`
	Correlation          CorrelationMatrix  `json:"correlation"`
	DiversificationScore float64            `json:"diversification_score"` // 0..100
	ConcentrationRisk    float64            `json:"concentration_risk"`    // percent in largest holding
	SectorAllocation     map[Sector]float64 `json:"sector_allocation"`     // percent of USD value
	RiskScore            RiskLevel          `json:"risk_score"`
}
