// Package taxlot replays a wallet's transaction history into open lots and
// realized disposals, and aggregates them into yearly tax reports.
//
// The lot inventory is rebuilt from scratch on every Process call. Events are
// applied in ascending timestamp order with Transaction.Seq breaking ties.
package taxlot

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/idhash"
)

// Engine replays transactions under fixed options.
type Engine struct {
	opts Options
}

// NewEngine creates an engine after validating opts.
func NewEngine(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Engine{opts: opts}, nil
}

// Options returns the engine options.
func (e *Engine) Options() Options {
	return e.opts
}

// Ledger is the result of one replay.
type Ledger struct {
	Method          domain.AccountingMethod
	EffectiveMethod domain.AccountingMethod

	// Transactions in processing order, zero-quantity events removed.
	Transactions []domain.Transaction
	Disposals    []domain.RealizedDisposal

	books      map[string]*book
	disposalAt map[int]int // transaction index -> disposal index
}

// OpenLots returns a copy of the open lots for asset in acquisition order.
func (l *Ledger) OpenLots(asset string) []domain.Lot {
	b, ok := l.books[asset]
	if !ok {
		return nil
	}
	return b.snapshot()
}

// OpenQuantity returns the remaining quantity for asset.
func (l *Ledger) OpenQuantity(asset string) decimal.Decimal {
	b, ok := l.books[asset]
	if !ok {
		return decimal.Zero
	}
	return b.quantity()
}

// Assets returns every asset seen during replay, sorted.
func (l *Ledger) Assets() []string {
	out := make([]string, 0, len(l.books))
	for a := range l.books {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// disposalFor returns the disposal produced by the transaction at index i.
func (l *Ledger) disposalFor(i int) (domain.RealizedDisposal, bool) {
	d, ok := l.disposalAt[i]
	if !ok {
		return domain.RealizedDisposal{}, false
	}
	return l.Disposals[d], true
}

// Sorted returns a copy of txs ordered by timestamp, then Seq, then input order.
func Sorted(txs []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// Process replays txs and returns the resulting ledger. It fails on the first
// malformed transaction or on an outflow exceeding the open balance
// (*InsufficientLotBalanceError); balances are never clamped.
func (e *Engine) Process(txs []domain.Transaction) (*Ledger, error) {
	ledger := &Ledger{
		Method:          e.opts.Method,
		EffectiveMethod: e.opts.EffectiveMethod(),
		books:           make(map[string]*book),
		disposalAt:      make(map[int]int),
	}

	for _, tx := range Sorted(txs) {
		if err := tx.Validate(); err != nil {
			return nil, err
		}
		if tx.Quantity.IsZero() {
			continue
		}

		idx := len(ledger.Transactions)
		ledger.Transactions = append(ledger.Transactions, tx)

		b, ok := ledger.books[tx.Asset]
		if !ok {
			b = newBook(tx.Asset)
			ledger.books[tx.Asset] = b
		}

		flow, _ := tx.Kind.Flow()
		switch flow {
		case domain.FlowInflow:
			b.open(e.openLot(tx, idx))
		case domain.FlowOutflow:
			d, err := e.dispose(b, tx, idx, ledger.EffectiveMethod)
			if err != nil {
				return nil, err
			}
			ledger.disposalAt[idx] = len(ledger.Disposals)
			ledger.Disposals = append(ledger.Disposals, d)
		}
	}

	return ledger, nil
}

func (e *Engine) openLot(tx domain.Transaction, idx int) domain.Lot {
	basis := tx.ValueUSD
	if tx.Kind.IsIncome() && !e.opts.IncludeRewards {
		basis = decimal.Zero
	}
	if e.opts.IncludeGasInBasis {
		basis = basis.Add(tx.GasUSD)
	}
	return domain.Lot{
		ID:         idhash.ComputeLotID(tx.Asset, tx.ID, idx, tx.Timestamp),
		Asset:      tx.Asset,
		Quantity:   tx.Quantity,
		CostBasis:  basis,
		AcquiredAt: tx.Timestamp,
		SourceTxID: tx.ID,
	}
}

func (e *Engine) dispose(b *book, tx domain.Transaction, idx int, method domain.AccountingMethod) (domain.RealizedDisposal, error) {
	used, ok := b.consume(tx.Quantity, method)
	if !ok {
		return domain.RealizedDisposal{}, &InsufficientLotBalanceError{
			Asset:     tx.Asset,
			TxID:      tx.ID,
			Timestamp: tx.Timestamp,
			Requested: tx.Quantity,
			Available: b.quantity(),
		}
	}

	basis := decimal.Zero
	weighted := decimal.Zero
	for _, u := range used {
		basis = basis.Add(u.CostBasis)
		weighted = weighted.Add(u.Quantity.Mul(decimal.NewFromInt(u.AcquiredAt)))
	}
	acquiredAt := weighted.Div(tx.Quantity).Round(0).IntPart()

	holding := tx.Timestamp - acquiredAt
	if holding < 0 {
		holding = 0
	}

	proceeds := tx.ValueUSD
	if e.opts.IncludeGasInBasis {
		proceeds = proceeds.Sub(tx.GasUSD)
	}

	return domain.RealizedDisposal{
		ID:              idhash.ComputeDisposalID(tx.ID, tx.Asset, tx.Kind, idx, tx.Timestamp),
		TxID:            tx.ID,
		Asset:           tx.Asset,
		Symbol:          tx.Symbol,
		Kind:            tx.Kind,
		Quantity:        tx.Quantity,
		Proceeds:        proceeds,
		CostBasis:       basis,
		GainLoss:        proceeds.Sub(basis),
		HoldingPeriodMs: holding,
		LongTerm:        holding >= e.opts.LongTermThreshold.Milliseconds(),
		DisposedAt:      tx.Timestamp,
		GasUSD:          tx.GasUSD,
		Lots:            used,
	}, nil
}

// Replay processes txs and wraps any failure with the wallet context.
func (e *Engine) Replay(address string, txs []domain.Transaction) (*Ledger, error) {
	ledger, err := e.Process(txs)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", address, err)
	}
	return ledger, nil
}
