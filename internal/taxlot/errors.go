package taxlot

import (
	"fmt"

	"github.com/shopspring/decimal"

	"wallet-analytics/internal/domain"
)

// InsufficientLotBalanceError is returned when an outflow exceeds the open
// lot quantity of its asset. It usually means an inflow is missing upstream.
type InsufficientLotBalanceError struct {
	Asset     string
	TxID      string
	Timestamp int64
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientLotBalanceError) Error() string {
	return fmt.Sprintf("insufficient lot balance for %s in tx %s: requested %s, available %s",
		e.Asset, e.TxID, e.Requested, e.Available)
}

// Unwrap makes the error match domain.ErrDataIntegrity.
func (e *InsufficientLotBalanceError) Unwrap() error {
	return domain.ErrDataIntegrity
}
