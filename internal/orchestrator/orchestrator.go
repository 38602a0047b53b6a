// Package orchestrator runs analytics cycles: it fetches holdings, price
// history and transactions, then feeds the pure engines.
//
// Run executes one cycle synchronously. Pipeline adds debouncing and
// supersession on top of Run for long-lived consumers.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"wallet-analytics/internal/advisor"
	"wallet-analytics/internal/cache"
	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/indicators"
	"wallet-analytics/internal/observability"
	"wallet-analytics/internal/pricefeed"
	"wallet-analytics/internal/risk"
	"wallet-analytics/internal/storage"
	"wallet-analytics/internal/taxlot"
)

// Default scheduling values.
const (
	DefaultDebounce    = 5 * time.Second
	DefaultConcurrency = 8
)

// HoldingsSource returns the current holdings of a wallet.
type HoldingsSource interface {
	Holdings(ctx context.Context, address string) ([]domain.Holding, error)
}

// TransactionSource returns a wallet's transaction history in any order.
type TransactionSource interface {
	Transactions(ctx context.Context, address string) ([]domain.Transaction, error)
}

// Options for creating Orchestrator.
type Options struct {
	// Required collaborators
	Holdings     HoldingsSource
	Transactions TransactionSource
	Prices       pricefeed.Source

	// Optional collaborators
	Cache     cache.PriceCache      // nil disables caching
	Disposals storage.DisposalStore // nil skips disposal archiving

	// Engines; zero values use defaults
	Risk    *risk.Engine
	Tax     *taxlot.Engine
	Advisor *advisor.Advisor

	Tolerance      domain.RiskTolerance
	TaxYear        int    // 0 means the current year
	ReferenceAsset string // beta reference, e.g. "BTC"
	Concurrency    int    // max concurrent price fetches
	Debounce       time.Duration

	Logger logrus.FieldLogger
	Clock  func() time.Time
}

// Orchestrator coordinates fetch-then-compute cycles.
type Orchestrator struct {
	holdings     HoldingsSource
	transactions TransactionSource
	prices       pricefeed.Source
	cache        cache.PriceCache
	disposals    storage.DisposalStore

	risk    *risk.Engine
	tax     *taxlot.Engine
	advisor *advisor.Advisor

	tolerance   domain.RiskTolerance
	taxYear     int
	reference   string
	concurrency int
	debounce    time.Duration

	logger logrus.FieldLogger
	clock  func() time.Time
}

// New creates a new Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Holdings == nil || opts.Transactions == nil || opts.Prices == nil {
		return nil, fmt.Errorf("%w: holdings, transactions and prices sources are required", domain.ErrInvalidConfig)
	}
	if opts.Risk == nil {
		opts.Risk = risk.NewEngine(risk.DefaultConfig())
	}
	if opts.Tax == nil {
		engine, err := taxlot.NewEngine(taxlot.DefaultOptions())
		if err != nil {
			return nil, err
		}
		opts.Tax = engine
	}
	if opts.Advisor == nil {
		opts.Advisor = advisor.New(advisor.DefaultOptions())
	}
	if opts.Tolerance == "" {
		opts.Tolerance = domain.ToleranceModerate
	}
	if !opts.Tolerance.IsValid() {
		return nil, fmt.Errorf("%w: unknown risk tolerance %q", domain.ErrInvalidConfig, opts.Tolerance)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Orchestrator{
		holdings:     opts.Holdings,
		transactions: opts.Transactions,
		prices:       opts.Prices,
		cache:        opts.Cache,
		disposals:    opts.Disposals,
		risk:         opts.Risk,
		tax:          opts.Tax,
		advisor:      opts.Advisor,
		tolerance:    opts.Tolerance,
		taxYear:      opts.TaxYear,
		reference:    opts.ReferenceAsset,
		concurrency:  opts.Concurrency,
		debounce:     opts.Debounce,
		logger:       opts.Logger.WithField("component", "orchestrator"),
		clock:        opts.Clock,
	}, nil
}

// Run executes one cycle synchronously.
// Phases:
//  1. Load holdings (failure aborts the cycle)
//  2. Fetch price series per asset concurrently (failures isolated)
//  3. Risk, indicators, performance and advisor over fetched data
//  4. Replay transactions into the tax report
func (o *Orchestrator) Run(ctx context.Context, in Input) (*Result, error) {
	start := o.clock()
	res, err := o.run(ctx, in, start)
	elapsed := o.clock().Sub(start).Seconds()

	switch {
	case err == nil:
		observability.RecordCycle("success", elapsed)
	case errors.Is(err, context.Canceled):
		observability.RecordCycle("cancelled", elapsed)
	default:
		observability.RecordCycle("error", elapsed)
	}
	return res, err
}

func (o *Orchestrator) run(ctx context.Context, in Input, start time.Time) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	res := &Result{
		CycleID:     uuid.NewString(),
		Input:       in,
		StartedAt:   start,
		Indicators:  make(map[string]domain.TechnicalIndicators),
		Predictions: make(map[string]domain.Prediction),
		Failures:    make(map[string]string),
	}
	log := o.logger.WithFields(logrus.Fields{
		"cycle_id": res.CycleID,
		"address":  in.Address,
		"period":   in.Period,
	})

	// Phase 1
	holdings, err := o.holdings.Holdings(ctx, in.Address)
	if err != nil {
		return nil, fmt.Errorf("load holdings: %w", err)
	}
	res.Holdings = holdings

	// Phase 2
	series, failures, err := o.fetchAll(ctx, o.assetKeys(holdings), in.Period)
	if err != nil {
		return nil, err
	}
	for asset, ferr := range failures {
		res.Failures[asset] = ferr.Error()
		log.WithError(ferr).WithField("asset", asset).Warn("price history unavailable, asset degraded")
	}

	// Phase 3
	prices := make(map[string][]domain.PricePoint, len(holdings))
	for _, h := range holdings {
		if s, ok := series[h.Key()]; ok {
			prices[h.Key()] = s
		}
	}
	res.Risk = o.risk.Compute(risk.Input{
		Holdings:  holdings,
		Prices:    prices,
		Reference: series[o.reference],
	})
	for key, s := range prices {
		if len(s) == 0 {
			continue
		}
		ti, pred := indicators.Analyze(key, s)
		res.Indicators[key] = ti
		res.Predictions[key] = pred
	}
	res.Performance = Performance(holdings, prices, in.Period, start)
	res.Plan = o.advisor.Plan(holdings, res.Risk, o.tolerance)

	// Phase 4
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.runTax(ctx, in.Address, res, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.CompletedAt = o.clock()
	log.WithFields(logrus.Fields{
		"holdings":    len(holdings),
		"failures":    len(res.Failures),
		"risk":        res.Risk.RiskScore,
		"duration_ms": res.Duration().Milliseconds(),
	}).Info("analytics cycle completed")
	return res, nil
}

// assetKeys returns the sorted price keys of holdings plus the reference asset.
func (o *Orchestrator) assetKeys(holdings []domain.Holding) []string {
	seen := make(map[string]bool)
	var keys []string
	add := func(k string) {
		if k != "" && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for _, h := range holdings {
		add(h.Key())
	}
	add(o.reference)
	sort.Strings(keys)
	return keys
}

// fetchAll fetches every key concurrently. A failing task records its error
// and returns nil, so the group never aborts the batch.
func (o *Orchestrator) fetchAll(ctx context.Context, keys []string, period domain.Period) (map[string][]domain.PricePoint, map[string]error, error) {
	var (
		mu       sync.Mutex
		series   = make(map[string][]domain.PricePoint, len(keys))
		failures = make(map[string]error)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for _, key := range keys {
		g.Go(func() error {
			s, err := o.fetch(gctx, key, period)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[key] = err
				return nil
			}
			series[key] = s
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return series, failures, nil
}

// fetch reads one series through the cache. Missing data is an empty series,
// not a failure.
func (o *Orchestrator) fetch(ctx context.Context, asset string, period domain.Period) ([]domain.PricePoint, error) {
	if o.cache != nil {
		if s, ok := o.cache.Get(ctx, asset, period); ok {
			return s, nil
		}
	}

	s, err := o.prices.History(ctx, asset, period)
	switch {
	case errors.Is(err, domain.ErrInsufficientData):
		return []domain.PricePoint{}, nil
	case err != nil:
		if ctx.Err() == nil {
			observability.RecordPriceFetchFailure(asset)
		}
		return nil, err
	}

	if o.cache != nil && len(s) > 0 {
		if err := o.cache.Set(ctx, asset, period, s); err != nil {
			o.logger.WithError(err).WithField("asset", asset).Warn("cache write failed")
		}
	}
	return s, nil
}

// runTax replays the full history and builds the configured year's report.
// Integrity failures are surfaced on the result, never swallowed.
func (o *Orchestrator) runTax(ctx context.Context, address string, res *Result, log logrus.FieldLogger) {
	txs, err := o.transactions.Transactions(ctx, address)
	if err != nil {
		if ctx.Err() == nil {
			res.Failures["transactions"] = err.Error()
			log.WithError(err).Warn("transaction history unavailable, tax report skipped")
		}
		return
	}

	ledger, err := o.tax.Replay(address, txs)
	if err != nil {
		var integrity *taxlot.InsufficientLotBalanceError
		if errors.As(err, &integrity) {
			observability.RecordTaxIntegrityFailure()
		}
		res.TaxError = err.Error()
		log.WithError(err).Warn("lot replay failed")
		return
	}
	observability.RecordDisposals(len(ledger.Disposals))

	year := o.taxYear
	if year == 0 {
		year = res.StartedAt.UTC().Year()
	}
	report, err := o.tax.YearReport(ledger, year, o.clock())
	if err != nil {
		res.TaxError = err.Error()
		return
	}
	res.Tax = report

	if o.disposals != nil {
		if err := o.disposals.Replace(ctx, address, ledger.Method, ledger.Disposals); err != nil {
			log.WithError(err).Warn("disposal archive write failed")
		}
	}
}
