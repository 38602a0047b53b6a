package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"wallet-analytics/internal/advisor"
	"wallet-analytics/internal/api"
	"wallet-analytics/internal/cache"
	"wallet-analytics/internal/config"
	"wallet-analytics/internal/orchestrator"
	"wallet-analytics/internal/pricefeed"
	"wallet-analytics/internal/risk"
	"wallet-analytics/internal/solana"
	"wallet-analytics/internal/storage"
	chstore "wallet-analytics/internal/storage/clickhouse"
	"wallet-analytics/internal/storage/memory"
	"wallet-analytics/internal/storage/migrations"
	pgstore "wallet-analytics/internal/storage/postgres"
	"wallet-analytics/internal/taxlot"
	"wallet-analytics/internal/wallet"
)

// app holds the wired service and the cleanup of everything it opened.
type app struct {
	service  *api.Service
	cleanups []func()
}

func (a *app) close() {
	if a.service != nil {
		a.service.Close()
	}
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
}

// stores holds the archive implementations.
type stores struct {
	transactions storage.TransactionStore
	disposals    storage.DisposalStore
	prices       storage.PriceSeriesStore
}

func newApp(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.close()
		return nil, err
	}

	st, cleanup, err := createStores(ctx, cfg.Storage, logger)
	if err != nil {
		return fail(err)
	}
	a.cleanups = append(a.cleanups, cleanup)

	priceCache, cleanup, err := createCache(ctx, cfg.Cache, logger)
	if err != nil {
		return fail(err)
	}
	a.cleanups = append(a.cleanups, cleanup)

	// Prices: CoinGecko with ClickHouse read-through
	coingecko := pricefeed.NewClient(pricefeed.Config{
		BaseURL:           cfg.Prices.BaseURL,
		APIKey:            cfg.Prices.APIKey,
		Timeout:           cfg.Prices.Timeout,
		RequestsPerMinute: cfg.Prices.RequestsPerMinute,
		Logger:            logger,
	})
	prices := pricefeed.NewArchived(coingecko, st.prices, logger)

	// Chain
	rpc := solana.NewHTTPClient(cfg.Solana.RPCEndpoint,
		solana.WithTimeout(cfg.Solana.RPCTimeout),
		solana.WithMaxRetries(cfg.Solana.MaxRetries),
	)
	symbols := solana.NewSymbolResolver(rpc)

	holdings := wallet.NewHoldings(rpc, symbols, coingecko, logger)
	history := wallet.NewHistory(rpc, symbols, prices, wallet.HistoryOptions{
		Limit:  cfg.Solana.HistoryLimit,
		Logger: logger,
	})
	transactions := wallet.NewArchivedHistory(history, st.transactions, logger)

	taxEngine, err := taxlot.NewEngine(cfg.TaxOptions())
	if err != nil {
		return fail(err)
	}

	orch, err := orchestrator.New(orchestrator.Options{
		Holdings:       holdings,
		Transactions:   transactions,
		Prices:         prices,
		Cache:          priceCache,
		Disposals:      st.disposals,
		Risk:           risk.NewEngine(cfg.RiskEngineConfig()),
		Tax:            taxEngine,
		Advisor:        advisor.New(cfg.AdvisorOptions()),
		Tolerance:      cfg.Risk.Tolerance,
		TaxYear:        cfg.Tax.Year,
		ReferenceAsset: cfg.Prices.ReferenceAsset,
		Concurrency:    cfg.Orchestrator.Concurrency,
		Debounce:       cfg.Orchestrator.Debounce,
		Logger:         logger,
	})
	if err != nil {
		return fail(err)
	}

	a.service, err = api.NewService(api.Options{
		Orchestrator: orch,
		Transactions: transactions,
		Tax:          taxEngine,
		Network:      cfg.Solana.Network,
		Period:       cfg.Orchestrator.Period,
		Logger:       logger,
	})
	if err != nil {
		return fail(err)
	}
	return a, nil
}

// createStores opens the archive stores, applying migrations on first use.
func createStores(ctx context.Context, cfg config.StorageConfig, logger logrus.FieldLogger) (*stores, func(), error) {
	if cfg.UseMemory {
		return &stores{
			transactions: memory.NewTransactionStore(),
			disposals:    memory.NewDisposalStore(),
			prices:       memory.NewPriceSeriesStore(),
		}, func() {}, nil
	}

	// PostgreSQL (transactions, disposals)
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.ApplyPostgres(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	// ClickHouse (price series)
	chConn, err := migrations.ApplyClickhouse(ctx, cfg.ClickHouseDSN, logger)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
	}

	st := &stores{
		transactions: pgstore.NewTransactionStore(pool),
		disposals:    pgstore.NewDisposalStore(pool),
		prices:       chstore.NewPriceSeriesStore(chConn),
	}
	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return st, cleanup, nil
}

// createCache builds the price cache. Shared backends sit behind an
// in-process tier.
func createCache(ctx context.Context, cfg config.CacheConfig, logger logrus.FieldLogger) (cache.PriceCache, func(), error) {
	local := cache.NewLocal(cache.LocalOptions{TTL: cfg.TTL, MaxSize: cfg.MaxSize})

	switch cfg.Backend {
	case "", "local":
		return local, local.Stop, nil

	case "redis":
		shared, err := cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.TTL,
		}, logger)
		if err != nil {
			local.Stop()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return cache.NewTiered(local, shared, logger), func() {
			shared.Close()
			local.Stop()
		}, nil

	case "memcached":
		shared, err := cache.NewMemcached(cache.MemcachedOptions{
			Hosts: cfg.MemcachedHosts,
			TTL:   cfg.TTL,
		}, logger)
		if err != nil {
			local.Stop()
			return nil, nil, fmt.Errorf("connect to memcached: %w", err)
		}
		return cache.NewTiered(local, shared, logger), local.Stop, nil
	}

	local.Stop()
	return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}
