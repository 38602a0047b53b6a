package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/sirupsen/logrus"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/observability"
)

// MemcachedOptions configures the Memcached backend.
type MemcachedOptions struct {
	Hosts        []string
	KeyPrefix    string
	TTL          time.Duration
	Timeout      time.Duration
	MaxIdleConns int
}

// Memcached is a shared TTL cache backed by Memcached.
type Memcached struct {
	client *memcache.Client
	prefix string
	ttl    time.Duration
	logger logrus.FieldLogger
}

var _ PriceCache = (*Memcached)(nil)

// NewMemcached creates a Memcached-backed cache.
func NewMemcached(opts MemcachedOptions, logger logrus.FieldLogger) (*Memcached, error) {
	if len(opts.Hosts) == 0 {
		return nil, fmt.Errorf("memcached: no hosts configured")
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "wa:"
	}

	client := memcache.New(opts.Hosts...)
	if opts.Timeout > 0 {
		client.Timeout = opts.Timeout
	}
	if opts.MaxIdleConns > 0 {
		client.MaxIdleConns = opts.MaxIdleConns
	}

	return &Memcached{client: client, prefix: opts.KeyPrefix, ttl: opts.TTL, logger: logger}, nil
}

// Get implements PriceCache. Backend errors count as misses.
func (m *Memcached) Get(_ context.Context, asset string, period domain.Period) ([]domain.PricePoint, bool) {
	key := Key(m.prefix, asset, period)
	item, err := m.client.Get(key)
	if err != nil {
		if !errors.Is(err, memcache.ErrCacheMiss) {
			m.logger.WithFields(logrus.Fields{"key": key, "error": err}).Warn("Memcached get failed")
		}
		observability.RecordCacheLookup("memcached", false)
		return nil, false
	}

	series, err := decode(item.Value)
	if err != nil {
		m.logger.WithFields(logrus.Fields{"key": key, "error": err}).Warn("Dropping undecodable cache entry")
		observability.RecordCacheLookup("memcached", false)
		return nil, false
	}
	observability.RecordCacheLookup("memcached", true)
	return series, true
}

// Set implements PriceCache.
func (m *Memcached) Set(_ context.Context, asset string, period domain.Period, series []domain.PricePoint) error {
	data, err := encode(asset, period, series)
	if err != nil {
		return err
	}
	err = m.client.Set(&memcache.Item{
		Key:        Key(m.prefix, asset, period),
		Value:      data,
		Expiration: int32(m.ttl.Seconds()),
	})
	if err != nil {
		return fmt.Errorf("memcached set: %w", err)
	}
	return nil
}

// Invalidate implements PriceCache. Memcached has no prefix delete, so every
// period key is removed individually.
func (m *Memcached) Invalidate(_ context.Context, asset string) error {
	for _, p := range allPeriods {
		if err := m.client.Delete(Key(m.prefix, asset, p)); err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
			return fmt.Errorf("memcached delete: %w", err)
		}
	}
	return nil
}
