package taxlot

import (
	"github.com/shopspring/decimal"

	"wallet-analytics/internal/domain"
)

// book holds the open lots of one asset in acquisition order.
type book struct {
	asset string
	lots  []domain.Lot
}

func newBook(asset string) *book {
	return &book{asset: asset}
}

func (b *book) open(lot domain.Lot) {
	b.lots = append(b.lots, lot)
}

func (b *book) quantity() decimal.Decimal {
	total := decimal.Zero
	for _, l := range b.lots {
		total = total.Add(l.Quantity)
	}
	return total
}

// snapshot returns a copy of the open lots.
func (b *book) snapshot() []domain.Lot {
	out := make([]domain.Lot, len(b.lots))
	copy(out, b.lots)
	return out
}

// consume removes qty units in the order given by method. Partially consumed
// lots keep their remainder with proportionally reduced basis. The book is
// left untouched when the open quantity is insufficient.
func (b *book) consume(qty decimal.Decimal, method domain.AccountingMethod) ([]domain.LotConsumption, bool) {
	if b.quantity().LessThan(qty) {
		return nil, false
	}

	order := make([]int, len(b.lots))
	for i := range order {
		if method == domain.MethodLIFO {
			order[i] = len(b.lots) - 1 - i
		} else {
			order[i] = i
		}
	}

	remaining := qty
	var used []domain.LotConsumption
	for _, idx := range order {
		if !remaining.IsPositive() {
			break
		}
		lot := &b.lots[idx]
		take := decimal.Min(remaining, lot.Quantity)
		if !take.IsPositive() {
			continue
		}

		var basis decimal.Decimal
		if take.Equal(lot.Quantity) {
			basis = lot.CostBasis
		} else {
			basis = lot.CostBasis.Mul(take).Div(lot.Quantity)
		}

		lot.Quantity = lot.Quantity.Sub(take)
		lot.CostBasis = lot.CostBasis.Sub(basis)
		remaining = remaining.Sub(take)

		used = append(used, domain.LotConsumption{
			LotID:      lot.ID,
			Quantity:   take,
			CostBasis:  basis,
			AcquiredAt: lot.AcquiredAt,
		})
	}

	open := b.lots[:0]
	for _, l := range b.lots {
		if l.Quantity.IsPositive() {
			open = append(open, l)
		}
	}
	b.lots = open

	return used, true
}
