package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/observability"
)

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// Redis is a shared TTL cache backed by Redis.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger logrus.FieldLogger
}

var _ PriceCache = (*Redis)(nil)

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, opts RedisOptions, logger logrus.FieldLogger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}

	return NewRedisWithClient(client, opts, logger), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client redis.UniversalClient, opts RedisOptions, logger logrus.FieldLogger) *Redis {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "wa:"
	}
	return &Redis{client: client, prefix: opts.KeyPrefix, ttl: opts.TTL, logger: logger}
}

// Get implements PriceCache. Backend errors count as misses.
func (r *Redis) Get(ctx context.Context, asset string, period domain.Period) ([]domain.PricePoint, bool) {
	key := Key(r.prefix, asset, period)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.WithFields(logrus.Fields{"key": key, "error": err}).Warn("Redis get failed")
		}
		observability.RecordCacheLookup("redis", false)
		return nil, false
	}

	series, err := decode(data)
	if err != nil {
		r.logger.WithFields(logrus.Fields{"key": key, "error": err}).Warn("Dropping undecodable cache entry")
		_ = r.client.Del(ctx, key).Err()
		observability.RecordCacheLookup("redis", false)
		return nil, false
	}
	observability.RecordCacheLookup("redis", true)
	return series, true
}

// Set implements PriceCache.
func (r *Redis) Set(ctx context.Context, asset string, period domain.Period, series []domain.PricePoint) error {
	data, err := encode(asset, period, series)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, Key(r.prefix, asset, period), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate implements PriceCache.
func (r *Redis) Invalidate(ctx context.Context, asset string) error {
	keys := make([]string, len(allPeriods))
	for i, p := range allPeriods {
		keys[i] = Key(r.prefix, asset, p)
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
