package taxlot

import (
	"fmt"
	"time"

	"wallet-analytics/internal/domain"
)

// DefaultLongTermThreshold is the holding period at which a disposal is long-term.
const DefaultLongTermThreshold = 365 * 24 * time.Hour

// Options configures lot accounting.
type Options struct {
	Method            domain.AccountingMethod
	IncludeGasInBasis bool // capitalize inflow gas, deduct outflow gas from proceeds
	IncludeRewards    bool // treat airdrops and rewards as income at their USD value
	LongTermThreshold time.Duration
}

// DefaultOptions returns FIFO with gas and rewards included and a one-year threshold.
func DefaultOptions() Options {
	return Options{
		Method:            domain.MethodFIFO,
		IncludeGasInBasis: true,
		IncludeRewards:    true,
		LongTermThreshold: DefaultLongTermThreshold,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if !o.Method.IsValid() {
		return fmt.Errorf("%w: accounting method %q", domain.ErrInvalidConfig, o.Method)
	}
	if o.LongTermThreshold < 0 {
		return fmt.Errorf("%w: negative long-term threshold %s", domain.ErrInvalidConfig, o.LongTermThreshold)
	}
	return nil
}

// EffectiveMethod returns the consumption order actually applied.
// Specific identification has no lot selection input and consumes FIFO.
func (o Options) EffectiveMethod() domain.AccountingMethod {
	if o.Method == domain.MethodSpecificID {
		return domain.MethodFIFO
	}
	return o.Method
}
