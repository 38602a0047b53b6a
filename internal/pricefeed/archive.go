package pricefeed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/storage"
)

// Archived is a read-through source: fresh series are written to the archive,
// and the archive serves the window when the upstream source fails.
type Archived struct {
	upstream Source
	store    storage.PriceSeriesStore
	logger   logrus.FieldLogger
	now      func() time.Time
}

var _ Source = (*Archived)(nil)

// NewArchived wraps upstream with an archive store.
func NewArchived(upstream Source, store storage.PriceSeriesStore, logger logrus.FieldLogger) *Archived {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Archived{
		upstream: upstream,
		store:    store,
		logger:   logger.WithField("component", "price_archive"),
		now:      time.Now,
	}
}

// History returns the upstream series, falling back to archived points in the
// period window when upstream fails with anything but missing data.
func (a *Archived) History(ctx context.Context, asset string, period domain.Period) ([]domain.PricePoint, error) {
	key := strings.ToUpper(asset)
	series, err := a.upstream.History(ctx, asset, period)
	if err == nil {
		if len(series) > 0 {
			if werr := a.store.Upsert(ctx, key, series); werr != nil {
				a.logger.WithError(werr).WithField("asset", key).Warn("archive write failed")
			}
		}
		return series, nil
	}
	if errors.Is(err, domain.ErrInsufficientData) || ctx.Err() != nil {
		return nil, err
	}

	end := a.now().UnixMilli()
	start := end - period.Duration().Milliseconds()
	archived, rerr := a.store.GetRange(ctx, key, start, end)
	if rerr != nil || len(archived) == 0 {
		if rerr != nil {
			a.logger.WithError(rerr).WithField("asset", key).Warn("archive read failed")
		}
		return nil, err
	}

	a.logger.WithFields(logrus.Fields{
		"asset":  key,
		"points": len(archived),
	}).WithError(err).Info("serving archived prices")
	return archived, nil
}
