package orchestrator

import (
	"fmt"
	"time"

	"wallet-analytics/internal/domain"
)

// Input identifies what a cycle analyses. Any change starts a new generation.
type Input struct {
	Address string        `json:"address"`
	Network string        `json:"network"`
	Period  domain.Period `json:"period"`
}

// Validate checks the input before any fetch is made.
func (in Input) Validate() error {
	if in.Address == "" {
		return fmt.Errorf("%w: empty address", domain.ErrInvalidConfig)
	}
	if !in.Period.IsValid() {
		return fmt.Errorf("%w: unknown period %q", domain.ErrInvalidConfig, in.Period)
	}
	return nil
}

// Result is the output of one analytics cycle. Results are never merged
// across cycles.
type Result struct {
	CycleID     string                                `json:"cycle_id"`
	Generation  uint64                                `json:"generation"`
	Input       Input                                 `json:"input"`
	StartedAt   time.Time                             `json:"started_at"`
	CompletedAt time.Time                             `json:"completed_at"`
	Holdings    []domain.Holding                      `json:"holdings"`
	Risk        *domain.RiskMetrics                   `json:"risk"`
	Indicators  map[string]domain.TechnicalIndicators `json:"indicators"`
	Predictions map[string]domain.Prediction          `json:"predictions"`
	Performance domain.Performance                    `json:"performance"`
	Plan        domain.RebalancePlan                  `json:"plan"`
	Tax         *domain.TaxReport                     `json:"tax,omitempty"`

	// TaxError is set when the lot replay failed, typically an outflow with
	// no matching inflow. The rest of the result is still valid.
	TaxError string `json:"tax_error,omitempty"`

	// Failures lists isolated upstream failures keyed by asset, plus
	// "transactions" when the history could not be read.
	Failures map[string]string `json:"failures,omitempty"`
}

// Duration returns the cycle wall time.
func (r *Result) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}
