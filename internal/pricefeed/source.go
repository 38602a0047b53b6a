// Package pricefeed adapts price-history providers to the engine.
//
// Sources return ascending, possibly empty series. A symbol the provider does
// not know yields domain.ErrInsufficientData; transport failures wrap
// domain.ErrUpstream.
package pricefeed

import (
	"context"

	"wallet-analytics/internal/domain"
)

// Source fetches historical prices for one asset.
type Source interface {
	History(ctx context.Context, asset string, period domain.Period) ([]domain.PricePoint, error)
}

// Quoter fetches current USD prices for many assets at once.
type Quoter interface {
	// Spot returns prices keyed by upper-cased symbol. Unknown symbols are omitted.
	Spot(ctx context.Context, symbols []string) (map[string]float64, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, asset string, period domain.Period) ([]domain.PricePoint, error)

// History calls f.
func (f SourceFunc) History(ctx context.Context, asset string, period domain.Period) ([]domain.PricePoint, error) {
	return f(ctx, asset, period)
}
