package cache

import (
	"context"

	"github.com/sirupsen/logrus"

	"wallet-analytics/internal/domain"
)

// Tiered checks a local cache before a shared one and back-fills the local
// tier on shared hits. Shared write failures are logged, not returned.
type Tiered struct {
	local  PriceCache
	shared PriceCache
	logger logrus.FieldLogger
}

var _ PriceCache = (*Tiered)(nil)

// NewTiered combines a local and a shared cache.
func NewTiered(local, shared PriceCache, logger logrus.FieldLogger) *Tiered {
	return &Tiered{local: local, shared: shared, logger: logger}
}

// Get implements PriceCache.
func (t *Tiered) Get(ctx context.Context, asset string, period domain.Period) ([]domain.PricePoint, bool) {
	if series, ok := t.local.Get(ctx, asset, period); ok {
		return series, true
	}
	series, ok := t.shared.Get(ctx, asset, period)
	if !ok {
		return nil, false
	}
	_ = t.local.Set(ctx, asset, period, series)
	return series, true
}

// Set implements PriceCache.
func (t *Tiered) Set(ctx context.Context, asset string, period domain.Period, series []domain.PricePoint) error {
	if err := t.local.Set(ctx, asset, period, series); err != nil {
		return err
	}
	if err := t.shared.Set(ctx, asset, period, series); err != nil {
		t.logger.WithFields(logrus.Fields{
			"asset":  asset,
			"period": period,
			"error":  err,
		}).Warn("Shared cache write failed")
	}
	return nil
}

// Invalidate implements PriceCache.
func (t *Tiered) Invalidate(ctx context.Context, asset string) error {
	if err := t.local.Invalidate(ctx, asset); err != nil {
		return err
	}
	return t.shared.Invalidate(ctx, asset)
}
