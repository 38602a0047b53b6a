package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// StakingPosition is a validated record of assets staked with a protocol.
type StakingPosition struct {
	Protocol     string          // e.g. "marinade", "jito"
	Asset        string          // staked asset id
	Symbol       string          // staked asset ticker
	Staked       decimal.Decimal // units staked
	APY          decimal.Decimal // percent
	Rewards      []RewardRecord  // accrued rewards, any order
	ValidatorKey string          // optional
}

// RewardRecord is one reward payout of a staking position.
type RewardRecord struct {
	ID        string          // signature or epoch-derived id
	Asset     string          // reward asset id
	Symbol    string          // reward asset ticker
	Quantity  decimal.Decimal // units received
	ValueUSD  decimal.Decimal // USD at receipt
	Timestamp int64           // Unix ms
}

// LiquidityPosition is a validated record of a two-sided AMM position.
type LiquidityPosition struct {
	Protocol string          // e.g. "raydium", "orca"
	Pool     string          // pool address
	TokenA   string          // asset id of side A
	TokenB   string          // asset id of side B
	AmountA  decimal.Decimal // units of A
	AmountB  decimal.Decimal // units of B
	ValueUSD decimal.Decimal // combined USD value
}

var errEmptyProtocol = errors.New("empty protocol")

// Validate checks the staking schema.
func (p StakingPosition) Validate() error {
	if p.Protocol == "" {
		return errEmptyProtocol
	}
	if p.Asset == "" {
		return fmt.Errorf("%s staking: empty asset", p.Protocol)
	}
	if p.Staked.IsNegative() {
		return fmt.Errorf("%s staking: negative stake %s", p.Protocol, p.Staked)
	}
	for _, r := range p.Rewards {
		if r.ID == "" || r.Asset == "" {
			return fmt.Errorf("%s staking: reward missing id or asset", p.Protocol)
		}
		if !r.Quantity.IsPositive() || r.ValueUSD.IsNegative() {
			return fmt.Errorf("%s staking: reward %s has invalid amounts", p.Protocol, r.ID)
		}
	}
	return nil
}

// RewardTransactions converts reward payouts into reward-kind transactions.
func (p StakingPosition) RewardTransactions() []Transaction {
	txs := make([]Transaction, 0, len(p.Rewards))
	for _, r := range p.Rewards {
		txs = append(txs, Transaction{
			ID:        r.ID,
			Asset:     r.Asset,
			Symbol:    r.Symbol,
			Kind:      KindReward,
			Quantity:  r.Quantity,
			ValueUSD:  r.ValueUSD,
			Timestamp: r.Timestamp,
		})
	}
	return txs
}

// Validate checks the liquidity schema.
func (p LiquidityPosition) Validate() error {
	if p.Protocol == "" {
		return errEmptyProtocol
	}
	if p.Pool == "" || p.TokenA == "" || p.TokenB == "" {
		return fmt.Errorf("%s liquidity: pool and both tokens are required", p.Protocol)
	}
	if p.TokenA == p.TokenB {
		return fmt.Errorf("%s liquidity: identical pool sides %s", p.Protocol, p.TokenA)
	}
	if p.AmountA.IsNegative() || p.AmountB.IsNegative() || p.ValueUSD.IsNegative() {
		return fmt.Errorf("%s liquidity: negative amounts", p.Protocol)
	}
	return nil
}
