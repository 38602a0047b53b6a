// Package wallet reads a Solana wallet's holdings and transaction history
// and converts them into engine inputs.
package wallet

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/pricefeed"
	"wallet-analytics/internal/solana"
)

// Holdings reads current balances over RPC and prices them with a quoter.
type Holdings struct {
	rpc     solana.RPCClient
	symbols *solana.SymbolResolver
	quoter  pricefeed.Quoter
	logger  logrus.FieldLogger
}

// NewHoldings creates a holdings source.
func NewHoldings(rpc solana.RPCClient, symbols *solana.SymbolResolver, quoter pricefeed.Quoter, logger logrus.FieldLogger) *Holdings {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if symbols == nil {
		symbols = solana.NewSymbolResolver(rpc)
	}
	return &Holdings{
		rpc:     rpc,
		symbols: symbols,
		quoter:  quoter,
		logger:  logger.WithField("component", "wallet_holdings"),
	}
}

// Holdings returns one holding per asset with a non-zero balance: the native
// balance plus SPL token accounts aggregated by mint. Assets without a quote
// are returned with a zero price. Ordered by USD value descending.
func (h *Holdings) Holdings(ctx context.Context, address string) ([]domain.Holding, error) {
	if err := solana.ValidateAddress(address); err != nil {
		return nil, err
	}

	lamports, err := h.rpc.GetBalance(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("%w: balance of %s: %v", domain.ErrUpstream, address, err)
	}
	accounts, err := h.rpc.GetTokenAccountsByOwner(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("%w: token accounts of %s: %v", domain.ErrUpstream, address, err)
	}

	quantities := map[string]decimal.Decimal{}
	if lamports > 0 {
		quantities[domain.NativeAsset] = lamportsToSOL(int64(lamports))
	}
	for _, acc := range accounts {
		if acc.Amount.IsZero() {
			continue
		}
		key := assetOf(acc.Mint)
		quantities[key] = quantities[key].Add(acc.Amount)
	}

	holdings := make([]domain.Holding, 0, len(quantities))
	symbols := make([]string, 0, len(quantities))
	for asset, qty := range quantities {
		symbol := h.symbolOf(ctx, asset)
		if symbol != "" {
			symbols = append(symbols, symbol)
		}
		holdings = append(holdings, domain.Holding{
			Asset:    asset,
			Symbol:   symbol,
			Quantity: qty.InexactFloat64(),
		})
	}

	quotes := map[string]float64{}
	if len(symbols) > 0 && h.quoter != nil {
		quotes, err = h.quoter.Spot(ctx, symbols)
		if err != nil {
			return nil, fmt.Errorf("quote holdings of %s: %w", address, err)
		}
	}
	for i := range holdings {
		if p, ok := quotes[strings.ToUpper(holdings[i].Symbol)]; ok {
			holdings[i] = domain.NewHolding(holdings[i].Asset, holdings[i].Symbol, holdings[i].Quantity, p)
		}
	}

	sort.Slice(holdings, func(i, j int) bool {
		if holdings[i].ValueUSD != holdings[j].ValueUSD {
			return holdings[i].ValueUSD > holdings[j].ValueUSD
		}
		return holdings[i].Asset < holdings[j].Asset
	})

	h.logger.WithFields(logrus.Fields{
		"address":  address,
		"holdings": len(holdings),
		"quoted":   len(quotes),
	}).Debug("holdings loaded")
	return holdings, nil
}

func (h *Holdings) symbolOf(ctx context.Context, asset string) string {
	if asset == domain.NativeAsset {
		return domain.NativeAsset
	}
	symbol, err := h.symbols.Resolve(ctx, asset)
	if err != nil {
		h.logger.WithError(err).WithField("mint", asset).Warn("symbol lookup failed")
	}
	return symbol
}
