package taxlot

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-analytics/internal/domain"
)

const day = domain.MillisPerDay

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]interface{}{fmt.Sprintf("want %s, got %s", want, got)}, msgAndArgs...)...)
}

func tx(id, asset string, kind domain.Kind, qty, usd string, ts int64) domain.Transaction {
	return domain.Transaction{
		ID:        id,
		Asset:     asset,
		Symbol:    asset,
		Kind:      kind,
		Quantity:  dec(qty),
		ValueUSD:  dec(usd),
		GasUSD:    decimal.Zero,
		Timestamp: ts,
	}
}

func withGas(t domain.Transaction, gas string) domain.Transaction {
	t.GasUSD = dec(gas)
	return t
}

func newEngine(t *testing.T, mutate func(*Options)) *Engine {
	t.Helper()
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	e, err := NewEngine(opts)
	require.NoError(t, err)
	return e
}

func fifoLifoHistory() []domain.Transaction {
	return []domain.Transaction{
		tx("b1", "SOL", domain.KindBuy, "10", "10", 1*day),
		tx("b2", "SOL", domain.KindBuy, "10", "30", 2*day),
		tx("s1", "SOL", domain.KindSell, "10", "50", 3*day),
	}
}

func TestProcess_FIFOvsLIFO(t *testing.T) {
	tests := []struct {
		method        domain.AccountingMethod
		wantGain      string
		wantRemaining string
	}{
		{domain.MethodFIFO, "40", "30"},
		{domain.MethodLIFO, "20", "10"},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			e := newEngine(t, func(o *Options) { o.Method = tt.method })

			ledger, err := e.Process(fifoLifoHistory())
			require.NoError(t, err)
			require.Len(t, ledger.Disposals, 1)

			assertDec(t, tt.wantGain, ledger.Disposals[0].GainLoss)
			assertDec(t, "10", ledger.OpenQuantity("SOL"))

			lots := ledger.OpenLots("SOL")
			require.Len(t, lots, 1)
			assertDec(t, tt.wantRemaining, lots[0].CostBasis)
		})
	}
}

func TestProcess_PartialConsumptionSplitsBasis(t *testing.T) {
	e := newEngine(t, nil)
	ledger, err := e.Process([]domain.Transaction{
		tx("b1", "SOL", domain.KindBuy, "10", "100", 0),
		tx("s1", "SOL", domain.KindSell, "4", "60", day),
	})
	require.NoError(t, err)

	d := ledger.Disposals[0]
	assertDec(t, "40", d.CostBasis)
	assertDec(t, "20", d.GainLoss)
	require.Len(t, d.Lots, 1)

	lots := ledger.OpenLots("SOL")
	require.Len(t, lots, 1)
	assertDec(t, "6", lots[0].Quantity)
	assertDec(t, "60", lots[0].CostBasis)
	assert.Equal(t, d.Lots[0].LotID, lots[0].ID)
}

func TestProcess_OverflowIsIntegrityError(t *testing.T) {
	e := newEngine(t, nil)
	_, err := e.Process([]domain.Transaction{
		tx("b1", "SOL", domain.KindBuy, "5", "50", 0),
		tx("s1", "SOL", domain.KindSell, "6", "90", day),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDataIntegrity))

	var balanceErr *InsufficientLotBalanceError
	require.True(t, errors.As(err, &balanceErr))
	assert.Equal(t, "SOL", balanceErr.Asset)
	assert.Equal(t, "s1", balanceErr.TxID)
	assertDec(t, "6", balanceErr.Requested)
	assertDec(t, "5", balanceErr.Available)
}

func TestProcess_OutflowWithoutLots(t *testing.T) {
	e := newEngine(t, nil)
	_, err := e.Replay("wallet1", []domain.Transaction{
		tx("t1", "BONK", domain.KindTransferOut, "1", "0", 0),
	})
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
	assert.Contains(t, err.Error(), "wallet1")
}

func TestProcess_LotInvariantAfterEveryPrefix(t *testing.T) {
	history := []domain.Transaction{
		tx("1", "SOL", domain.KindBuy, "5", "500", 1*day),
		tx("2", "JUP", domain.KindAirdrop, "100", "80", 1*day),
		tx("3", "SOL", domain.KindBuy, "2.5", "300", 2*day),
		tx("4", "SOL", domain.KindSell, "3", "420", 3*day),
		tx("5", "JUP", domain.KindTransferOut, "40", "36", 4*day),
		tx("6", "SOL", domain.KindReward, "0.125", "18", 5*day),
		tx("7", "SOL", domain.KindTransferOut, "4.625", "700", 6*day),
		tx("8", "JUP", domain.KindSell, "60", "90", 7*day),
		tx("9", "SOL", domain.KindTransferIn, "1", "150", 8*day),
	}

	for _, method := range []domain.AccountingMethod{domain.MethodFIFO, domain.MethodLIFO} {
		e := newEngine(t, func(o *Options) { o.Method = method })
		for n := 1; n <= len(history); n++ {
			prefix := history[:n]
			ledger, err := e.Process(prefix)
			require.NoError(t, err, "%s prefix %d", method, n)

			net := map[string]decimal.Decimal{}
			for _, p := range prefix {
				flow, _ := p.Kind.Flow()
				if flow == domain.FlowInflow {
					net[p.Asset] = net[p.Asset].Add(p.Quantity)
				} else {
					net[p.Asset] = net[p.Asset].Sub(p.Quantity)
				}
			}
			for asset, want := range net {
				assert.True(t, want.Equal(ledger.OpenQuantity(asset)),
					"%s prefix %d asset %s: want %s got %s", method, n, asset, want, ledger.OpenQuantity(asset))
				for _, lot := range ledger.OpenLots(asset) {
					assert.True(t, lot.Quantity.IsPositive())
				}
			}
		}
	}
}

func TestProcess_SameTimestampUsesSeq(t *testing.T) {
	e := newEngine(t, nil)

	buy := tx("b", "SOL", domain.KindBuy, "1", "100", day)
	sell := tx("s", "SOL", domain.KindSell, "1", "110", day)

	buy.Seq, sell.Seq = 0, 1
	ledger, err := e.Process([]domain.Transaction{sell, buy})
	require.NoError(t, err)
	assert.Equal(t, "b", ledger.Transactions[0].ID)
	assertDec(t, "10", ledger.Disposals[0].GainLoss)

	buy.Seq, sell.Seq = 1, 0
	_, err = e.Process([]domain.Transaction{buy, sell})
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
}

func TestProcess_SortsByTimestamp(t *testing.T) {
	e := newEngine(t, nil)
	history := fifoLifoHistory()
	reversed := []domain.Transaction{history[2], history[1], history[0]}

	ledger, err := e.Process(reversed)
	require.NoError(t, err)
	assertDec(t, "40", ledger.Disposals[0].GainLoss)
	assert.Equal(t, int64(3*day), reversed[0].Timestamp, "input must not be reordered")
}

func TestProcess_ZeroQuantityIgnored(t *testing.T) {
	e := newEngine(t, nil)
	ledger, err := e.Process([]domain.Transaction{
		tx("z1", "SOL", domain.KindSell, "0", "0", 0),
		tx("b1", "SOL", domain.KindBuy, "1", "10", day),
		tx("z2", "SOL", domain.KindBuy, "0", "5", 2*day),
	})
	require.NoError(t, err)
	assert.Len(t, ledger.Transactions, 1)
	assert.Len(t, ledger.OpenLots("SOL"), 1)
}

func TestProcess_UnknownKind(t *testing.T) {
	e := newEngine(t, nil)
	_, err := e.Process([]domain.Transaction{tx("x", "SOL", domain.Kind("swap"), "1", "1", 0)})
	assert.ErrorIs(t, err, domain.ErrUnknownKind)
}

func TestProcess_Gas(t *testing.T) {
	history := []domain.Transaction{
		withGas(tx("b1", "SOL", domain.KindBuy, "10", "100", 0), "2"),
		withGas(tx("s1", "SOL", domain.KindSell, "5", "80", day), "1"),
	}

	t.Run("included", func(t *testing.T) {
		ledger, err := newEngine(t, nil).Process(history)
		require.NoError(t, err)
		d := ledger.Disposals[0]
		assertDec(t, "79", d.Proceeds)
		assertDec(t, "51", d.CostBasis)
		assertDec(t, "28", d.GainLoss)
		assertDec(t, "1", d.GasUSD)
		assertDec(t, "51", ledger.OpenLots("SOL")[0].CostBasis)
	})

	t.Run("excluded", func(t *testing.T) {
		ledger, err := newEngine(t, func(o *Options) { o.IncludeGasInBasis = false }).Process(history)
		require.NoError(t, err)
		d := ledger.Disposals[0]
		assertDec(t, "80", d.Proceeds)
		assertDec(t, "50", d.CostBasis)
		assertDec(t, "30", d.GainLoss)
	})
}

func TestProcess_RewardsExcludedHaveZeroBasis(t *testing.T) {
	e := newEngine(t, func(o *Options) { o.IncludeRewards = false })
	ledger, err := e.Process([]domain.Transaction{
		tx("r1", "JUP", domain.KindAirdrop, "100", "50", 0),
		tx("s1", "JUP", domain.KindSell, "100", "70", day),
	})
	require.NoError(t, err)
	assertDec(t, "0", ledger.Disposals[0].CostBasis)
	assertDec(t, "70", ledger.Disposals[0].GainLoss)
}

func TestProcess_LongTermThreshold(t *testing.T) {
	e := newEngine(t, nil)
	for _, tt := range []struct {
		heldDays int64
		want     bool
	}{{364, false}, {365, true}, {400, true}} {
		ledger, err := e.Process([]domain.Transaction{
			tx("b", "SOL", domain.KindBuy, "1", "10", 0),
			tx("s", "SOL", domain.KindSell, "1", "20", tt.heldDays*day),
		})
		require.NoError(t, err)
		assert.Equal(t, tt.want, ledger.Disposals[0].LongTerm, "held %d days", tt.heldDays)
	}
}

func TestProcess_WeightedHoldingPeriod(t *testing.T) {
	e := newEngine(t, nil)
	ledger, err := e.Process([]domain.Transaction{
		tx("b1", "SOL", domain.KindBuy, "10", "10", 0),
		tx("b2", "SOL", domain.KindBuy, "10", "10", 10*day),
		tx("s1", "SOL", domain.KindSell, "20", "40", 20*day),
	})
	require.NoError(t, err)
	d := ledger.Disposals[0]
	assert.Equal(t, 15*day, d.HoldingPeriodMs)
	assert.InDelta(t, 15.0, d.HoldingDays(), 1e-9)
	assert.Len(t, d.Lots, 2)
	assert.Empty(t, ledger.OpenLots("SOL"))
}

func TestSpecificIDFallsBackToFIFO(t *testing.T) {
	e := newEngine(t, func(o *Options) { o.Method = domain.MethodSpecificID })
	ledger, err := e.Process(fifoLifoHistory())
	require.NoError(t, err)
	assert.Equal(t, domain.MethodSpecificID, ledger.Method)
	assert.Equal(t, domain.MethodFIFO, ledger.EffectiveMethod)
	assertDec(t, "40", ledger.Disposals[0].GainLoss)
}

func TestOptionsValidate(t *testing.T) {
	_, err := NewEngine(Options{Method: "hifo"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = NewEngine(Options{Method: domain.MethodFIFO, LongTermThreshold: -time.Hour})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
