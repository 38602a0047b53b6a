package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"wallet-analytics/internal/advisor"
	"wallet-analytics/internal/cache"
	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/orchestrator"
	"wallet-analytics/internal/pricefeed"
	"wallet-analytics/internal/risk"
	"wallet-analytics/internal/solana"
	"wallet-analytics/internal/wallet"
)

// live holds the chain and price sources built from configuration.
type live struct {
	prices   *pricefeed.Client
	holdings *wallet.Holdings
	history  *wallet.History
}

func (e *env) live() *live {
	prices := pricefeed.NewClient(pricefeed.Config{
		BaseURL:           e.cfg.Prices.BaseURL,
		APIKey:            e.cfg.Prices.APIKey,
		Timeout:           e.cfg.Prices.Timeout,
		RequestsPerMinute: e.cfg.Prices.RequestsPerMinute,
		Logger:            e.logger,
	})
	rpc := solana.NewHTTPClient(e.cfg.Solana.RPCEndpoint,
		solana.WithTimeout(e.cfg.Solana.RPCTimeout),
		solana.WithMaxRetries(e.cfg.Solana.MaxRetries),
	)
	symbols := solana.NewSymbolResolver(rpc)

	return &live{
		prices:   prices,
		holdings: wallet.NewHoldings(rpc, symbols, prices, e.logger),
		history: wallet.NewHistory(rpc, symbols, prices, wallet.HistoryOptions{
			Limit:  e.cfg.Solana.HistoryLimit,
			Logger: e.logger,
		}),
	}
}

// orchestrator builds a one-shot orchestrator over live sources. Series are
// cached in process so the reference asset is fetched once.
func (e *env) orchestrator(l *live) (*orchestrator.Orchestrator, error) {
	tax, err := e.taxEngine("")
	if err != nil {
		return nil, err
	}
	return orchestrator.New(orchestrator.Options{
		Holdings:       l.holdings,
		Transactions:   l.history,
		Prices:         l.prices,
		Cache:          cache.NewLocal(cache.LocalOptions{TTL: e.cfg.Cache.TTL}),
		Risk:           risk.NewEngine(e.cfg.RiskEngineConfig()),
		Tax:            tax,
		Advisor:        advisor.New(e.cfg.AdvisorOptions()),
		Tolerance:      e.cfg.Risk.Tolerance,
		TaxYear:        e.cfg.Tax.Year,
		ReferenceAsset: e.cfg.Prices.ReferenceAsset,
		Concurrency:    e.cfg.Orchestrator.Concurrency,
		Logger:         e.logger,
	})
}

// txRecord is one entry of a transaction file.
type txRecord struct {
	ID        string          `json:"id"`
	Asset     string          `json:"asset"`
	Symbol    string          `json:"symbol"`
	Kind      string          `json:"kind"`
	Quantity  decimal.Decimal `json:"quantity"`
	ValueUSD  decimal.Decimal `json:"value_usd"`
	GasUSD    decimal.Decimal `json:"gas_usd"`
	Timestamp time.Time       `json:"timestamp"`
}

// readTransactions decodes a JSON array of transactions. File order becomes
// Seq so same-timestamp events keep their listed order.
func readTransactions(r io.Reader) ([]domain.Transaction, error) {
	var records []txRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(records))
	for i, rec := range records {
		kind, err := domain.ParseKind(rec.Kind)
		if err != nil {
			return nil, fmt.Errorf("transaction %d (%s): %w", i, rec.ID, err)
		}
		id := rec.ID
		if id == "" {
			id = fmt.Sprintf("tx-%d", i)
		}
		txs = append(txs, domain.Transaction{
			ID:        id,
			Asset:     rec.Asset,
			Symbol:    rec.Symbol,
			Kind:      kind,
			Quantity:  rec.Quantity,
			ValueUSD:  rec.ValueUSD,
			GasUSD:    rec.GasUSD,
			Timestamp: rec.Timestamp.UnixMilli(),
			Seq:       i,
		})
	}
	return txs, nil
}

func readTransactionFile(path string) ([]domain.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readTransactions(f)
}

// readStakingRewards loads staking positions and returns their payouts as
// reward transactions.
func readStakingRewards(path string) ([]domain.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var positions []domain.StakingPosition
	if err := json.NewDecoder(f).Decode(&positions); err != nil {
		return nil, fmt.Errorf("decode staking positions: %w", err)
	}
	var txs []domain.Transaction
	for _, p := range positions {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		txs = append(txs, p.RewardTransactions()...)
	}
	return txs, nil
}

// output opens path for writing, or returns w for "" and "-".
func output(path string, w io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return w, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
