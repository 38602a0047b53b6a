package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/pricefeed"
	"wallet-analytics/internal/solana"
	"wallet-analytics/internal/timeseries"
)

// Default history settings.
const (
	DefaultHistoryLimit = 500
	DefaultPageSize     = 100
	DefaultPricePeriod  = domain.Period1Y
	DefaultMaxPriceSkew = 72 * time.Hour
)

// HistoryOptions configures History.
type HistoryOptions struct {
	Limit        int           // max signatures walked per wallet
	PageSize     int           // signatures per getSignaturesForAddress call
	PricePeriod  domain.Period // lookback used to value past events
	MaxPriceSkew time.Duration // farthest price point accepted for an event
	Logger       logrus.FieldLogger
}

// History derives typed transactions from the wallet's on-chain history.
type History struct {
	rpc     solana.RPCClient
	symbols *solana.SymbolResolver
	prices  pricefeed.Source
	opts    HistoryOptions
	logger  logrus.FieldLogger
}

// NewHistory creates a transaction source. Zero options fall back to defaults.
func NewHistory(rpc solana.RPCClient, symbols *solana.SymbolResolver, prices pricefeed.Source, opts HistoryOptions) *History {
	if opts.Limit <= 0 {
		opts.Limit = DefaultHistoryLimit
	}
	if opts.PageSize <= 0 || opts.PageSize > opts.Limit {
		opts.PageSize = min(DefaultPageSize, opts.Limit)
	}
	if !opts.PricePeriod.IsValid() {
		opts.PricePeriod = DefaultPricePeriod
	}
	if opts.MaxPriceSkew <= 0 {
		opts.MaxPriceSkew = DefaultMaxPriceSkew
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if symbols == nil {
		symbols = solana.NewSymbolResolver(rpc)
	}
	return &History{
		rpc:     rpc,
		symbols: symbols,
		prices:  prices,
		opts:    opts,
		logger:  opts.Logger.WithField("component", "wallet_history"),
	}
}

// Transactions returns the wallet's successful transactions, oldest first,
// one event per non-zero asset delta. Seq follows chain order.
func (h *History) Transactions(ctx context.Context, address string) ([]domain.Transaction, error) {
	if err := solana.ValidateAddress(address); err != nil {
		return nil, err
	}

	sigs, err := h.signatures(ctx, address)
	if err != nil {
		return nil, err
	}

	pricer := newPricer(h.prices, h.opts.PricePeriod, h.opts.MaxPriceSkew, h.logger)
	var (
		out     []domain.Transaction
		skipped int
	)
	// signatures arrive newest first
	for i := len(sigs) - 1; i >= 0; i-- {
		sig := sigs[i]
		tx, err := h.rpc.GetTransaction(ctx, sig.Signature)
		if err != nil {
			return nil, fmt.Errorf("%w: transaction %s: %v", domain.ErrUpstream, sig.Signature, err)
		}
		if tx == nil || tx.Meta == nil || tx.Meta.Err != nil {
			skipped++
			continue
		}

		blockTime := tx.BlockTime
		if blockTime == 0 && sig.BlockTime != nil {
			blockTime = *sig.BlockTime
		}
		if blockTime == 0 {
			skipped++
			continue
		}

		events := h.events(ctx, tx, address, blockTime*1000, pricer)
		for j := range events {
			events[j].Seq = len(out)
			out = append(out, events[j])
		}
	}

	h.logger.WithFields(logrus.Fields{
		"address":      address,
		"signatures":   len(sigs),
		"transactions": len(out),
		"skipped":      skipped,
	}).Debug("history loaded")
	return out, nil
}

// signatures pages backwards through successful signatures up to the limit.
func (h *History) signatures(ctx context.Context, address string) ([]solana.SignatureInfo, error) {
	var (
		out    []solana.SignatureInfo
		before string
	)
	for len(out) < h.opts.Limit {
		page, err := h.rpc.GetSignaturesForAddress(ctx, address, &solana.SignaturesOpts{
			Before: before,
			Limit:  min(h.opts.PageSize, h.opts.Limit-len(out)),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: signatures of %s: %v", domain.ErrUpstream, address, err)
		}
		if len(page) == 0 {
			break
		}
		for _, s := range page {
			if s.Err == nil {
				out = append(out, s)
			}
		}
		before = page[len(page)-1].Signature
		if len(page) < h.opts.PageSize {
			break
		}
	}
	return out, nil
}

// events converts one transaction into typed events. The fee, when the
// wallet paid it, is charged to the first leg, which is an outflow whenever
// the transaction has one.
func (h *History) events(ctx context.Context, tx *solana.Transaction, owner string, ts int64, p *pricer) []domain.Transaction {
	paidFee := FeePayer(tx) == owner
	legs := Classify(Deltas(tx, owner), paidFee)
	if len(legs) == 0 {
		return nil
	}

	events := make([]domain.Transaction, len(legs))
	known := make([]bool, len(legs))
	var inValue, outValue decimal.Decimal
	var inCount, outCount int
	for i, leg := range legs {
		symbol := h.symbolOf(ctx, leg.Asset)
		qty := leg.Amount.Abs()
		events[i] = domain.Transaction{
			ID:        tx.Signature,
			Asset:     leg.Asset,
			Symbol:    symbol,
			Kind:      leg.Kind,
			Quantity:  qty,
			Timestamp: ts,
		}
		if price, ok := p.at(ctx, symbol, ts); ok {
			events[i].ValueUSD = qty.Mul(price)
			known[i] = true
		}
		if leg.Amount.IsPositive() {
			inCount++
			inValue = inValue.Add(events[i].ValueUSD)
		} else {
			outCount++
			outValue = outValue.Add(events[i].ValueUSD)
		}
	}

	// a lone unpriced swap leg is worth what was given for it
	for i, leg := range legs {
		if known[i] {
			continue
		}
		switch {
		case leg.Kind == domain.KindBuy && inCount == 1:
			events[i].ValueUSD = outValue
		case leg.Kind == domain.KindSell && outCount == 1:
			events[i].ValueUSD = inValue
		}
	}

	if paidFee && tx.Meta.Fee > 0 {
		if solPrice, ok := p.at(ctx, domain.NativeAsset, ts); ok {
			events[0].GasUSD = lamportsToSOL(int64(tx.Meta.Fee)).Mul(solPrice)
		}
	}
	return events
}

func (h *History) symbolOf(ctx context.Context, asset string) string {
	if asset == domain.NativeAsset {
		return domain.NativeAsset
	}
	symbol, err := h.symbols.Resolve(ctx, asset)
	if err != nil {
		h.logger.WithError(err).WithField("mint", asset).Warn("symbol lookup failed")
	}
	return symbol
}

// pricer values events from lazily fetched series, one fetch per symbol.
type pricer struct {
	source  pricefeed.Source
	period  domain.Period
	maxSkew int64
	logger  logrus.FieldLogger
	series  map[string][]domain.PricePoint
}

func newPricer(source pricefeed.Source, period domain.Period, maxSkew time.Duration, logger logrus.FieldLogger) *pricer {
	return &pricer{
		source:  source,
		period:  period,
		maxSkew: maxSkew.Milliseconds(),
		logger:  logger,
		series:  make(map[string][]domain.PricePoint),
	}
}

// at returns the price nearest to ts when one lies within the skew limit.
func (p *pricer) at(ctx context.Context, symbol string, ts int64) (decimal.Decimal, bool) {
	if symbol == "" || p.source == nil {
		return decimal.Zero, false
	}
	series, fetched := p.series[symbol]
	if !fetched {
		s, err := p.source.History(ctx, symbol, p.period)
		if err != nil && !errors.Is(err, domain.ErrInsufficientData) {
			p.logger.WithError(err).WithField("symbol", symbol).Warn("price history unavailable, events left unvalued")
		}
		series = timeseries.Normalize(s)
		p.series[symbol] = series
	}

	point, ok := timeseries.NearestPrice(series, ts)
	if !ok {
		return decimal.Zero, false
	}
	skew := point.Timestamp - ts
	if skew < 0 {
		skew = -skew
	}
	if skew > p.maxSkew {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(point.Price), true
}
