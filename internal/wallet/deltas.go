package wallet

import (
	"sort"

	"github.com/shopspring/decimal"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/solana"
)

// Delta is the net change of one asset for the wallet within a transaction.
type Delta struct {
	Asset  string          // mint address or domain.NativeAsset
	Amount decimal.Decimal // signed, decimals applied
}

// Deltas derives per-asset balance changes of owner from a transaction's
// balance snapshots. When owner paid the fee it is added back to the native
// delta, so the fee is never mistaken for a transfer. Wrapped SOL is folded
// into the native asset. Zero deltas are dropped; the result is sorted
// outflows first, then by asset.
func Deltas(tx *solana.Transaction, owner string) []Delta {
	if tx == nil || tx.Meta == nil {
		return nil
	}
	sums := make(map[string]decimal.Decimal)

	if i := indexOf(tx.AccountKeys, owner); i >= 0 && i < len(tx.Meta.PreBalances) && i < len(tx.Meta.PostBalances) {
		lamports := int64(tx.Meta.PostBalances[i]) - int64(tx.Meta.PreBalances[i])
		if FeePayer(tx) == owner {
			lamports += int64(tx.Meta.Fee)
		}
		sums[domain.NativeAsset] = lamportsToSOL(lamports)
	}

	for _, b := range tx.Meta.PostTokenBalances {
		if b.Owner == owner {
			key := assetOf(b.Mint)
			sums[key] = sums[key].Add(b.Amount)
		}
	}
	for _, b := range tx.Meta.PreTokenBalances {
		if b.Owner == owner {
			key := assetOf(b.Mint)
			sums[key] = sums[key].Sub(b.Amount)
		}
	}

	out := make([]Delta, 0, len(sums))
	for asset, amount := range sums {
		if !amount.IsZero() {
			out = append(out, Delta{Asset: asset, Amount: amount})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ni, nj := out[i].Amount.IsNegative(), out[j].Amount.IsNegative()
		if ni != nj {
			return ni
		}
		return out[i].Asset < out[j].Asset
	})
	return out
}

// FeePayer returns the first account key, which signs for and pays the fee.
func FeePayer(tx *solana.Transaction) string {
	if tx == nil || len(tx.AccountKeys) == 0 {
		return ""
	}
	return tx.AccountKeys[0]
}

// Leg is a classified delta.
type Leg struct {
	Delta
	Kind domain.Kind
}

// Classify tags each delta with a transaction kind:
//   - mixed signs form a swap: outflows sell, inflows buy
//   - inflows only are transfers in, or airdrops for tokens the wallet did not pay a fee to receive
//   - outflows only are transfers out
func Classify(deltas []Delta, ownerPaidFee bool) []Leg {
	var hasIn, hasOut bool
	for _, d := range deltas {
		if d.Amount.IsPositive() {
			hasIn = true
		} else {
			hasOut = true
		}
	}

	legs := make([]Leg, len(deltas))
	for i, d := range deltas {
		in := d.Amount.IsPositive()
		var kind domain.Kind
		switch {
		case hasIn && hasOut && in:
			kind = domain.KindBuy
		case hasIn && hasOut:
			kind = domain.KindSell
		case in && !ownerPaidFee && d.Asset != domain.NativeAsset:
			kind = domain.KindAirdrop
		case in:
			kind = domain.KindTransferIn
		default:
			kind = domain.KindTransferOut
		}
		legs[i] = Leg{Delta: d, Kind: kind}
	}
	return legs
}

func assetOf(mint string) string {
	if mint == solana.WrappedSOLMint {
		return domain.NativeAsset
	}
	return mint
}

func lamportsToSOL(lamports int64) decimal.Decimal {
	return decimal.NewFromInt(lamports).Shift(-9)
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}
