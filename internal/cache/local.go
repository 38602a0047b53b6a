package cache

import (
	"context"
	"time"

	"github.com/karlseguin/ccache/v2"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/observability"
)

// LocalOptions configures the in-process cache.
type LocalOptions struct {
	TTL          time.Duration
	MaxSize      int64
	ItemsToPrune uint32
}

// Local is an in-process TTL cache backed by ccache.
type Local struct {
	cache *ccache.Cache
	ttl   time.Duration
}

var _ PriceCache = (*Local)(nil)

// NewLocal creates an in-process cache.
func NewLocal(opts LocalOptions) *Local {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 5000
	}
	if opts.ItemsToPrune == 0 {
		opts.ItemsToPrune = 100
	}

	return &Local{
		cache: ccache.New(ccache.Configure().
			MaxSize(opts.MaxSize).
			ItemsToPrune(opts.ItemsToPrune)),
		ttl: opts.TTL,
	}
}

// Get implements PriceCache.
func (l *Local) Get(_ context.Context, asset string, period domain.Period) ([]domain.PricePoint, bool) {
	item := l.cache.Get(Key("", asset, period))
	if item == nil || item.Expired() {
		observability.RecordCacheLookup("local", false)
		return nil, false
	}
	series, ok := item.Value().([]domain.PricePoint)
	observability.RecordCacheLookup("local", ok)
	if !ok {
		return nil, false
	}
	return clone(series), true
}

// Set implements PriceCache.
func (l *Local) Set(_ context.Context, asset string, period domain.Period, series []domain.PricePoint) error {
	l.cache.Set(Key("", asset, period), clone(series), l.ttl)
	return nil
}

// Invalidate implements PriceCache.
func (l *Local) Invalidate(_ context.Context, asset string) error {
	l.cache.DeletePrefix(assetPrefix("", asset))
	return nil
}

// ItemCount returns the number of cached entries, expired ones included.
func (l *Local) ItemCount() int {
	return l.cache.ItemCount()
}

// Stop stops the ccache worker goroutine.
func (l *Local) Stop() {
	l.cache.Stop()
}
