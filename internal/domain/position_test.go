package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStakingPosition_Validate(t *testing.T) {
	valid := StakingPosition{
		Protocol: "marinade",
		Asset:    NativeAsset,
		Staked:   decimal.NewFromInt(12),
		Rewards: []RewardRecord{
			{ID: "e500", Asset: NativeAsset, Quantity: decimal.RequireFromString("0.01"), ValueUSD: decimal.NewFromInt(2)},
		},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(p *StakingPosition)
	}{
		{"empty protocol", func(p *StakingPosition) { p.Protocol = "" }},
		{"empty asset", func(p *StakingPosition) { p.Asset = "" }},
		{"negative stake", func(p *StakingPosition) { p.Staked = decimal.NewFromInt(-1) }},
		{"reward without id", func(p *StakingPosition) { p.Rewards[0].ID = "" }},
		{"zero reward", func(p *StakingPosition) { p.Rewards[0].Quantity = decimal.Zero }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			p.Rewards = append([]RewardRecord(nil), valid.Rewards...)
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestStakingPosition_RewardTransactions(t *testing.T) {
	p := StakingPosition{
		Protocol: "jito",
		Asset:    NativeAsset,
		Rewards: []RewardRecord{
			{ID: "r1", Asset: NativeAsset, Symbol: "SOL", Quantity: decimal.NewFromInt(1), ValueUSD: decimal.NewFromInt(150), Timestamp: 1000},
			{ID: "r2", Asset: NativeAsset, Symbol: "SOL", Quantity: decimal.NewFromInt(2), ValueUSD: decimal.NewFromInt(310), Timestamp: 2000},
		},
	}

	txs := p.RewardTransactions()

	require.Len(t, txs, 2)
	for _, tx := range txs {
		assert.Equal(t, KindReward, tx.Kind)
		assert.True(t, tx.Kind.IsIncome())
		assert.NoError(t, tx.Validate())
	}
	assert.Equal(t, "r2", txs[1].ID)
	assert.Equal(t, int64(2000), txs[1].Timestamp)
}

func TestLiquidityPosition_Validate(t *testing.T) {
	p := LiquidityPosition{
		Protocol: "orca",
		Pool:     "pool",
		TokenA:   NativeAsset,
		TokenB:   "usdc",
		AmountA:  decimal.NewFromInt(1),
		AmountB:  decimal.NewFromInt(150),
		ValueUSD: decimal.NewFromInt(300),
	}
	assert.NoError(t, p.Validate())

	same := p
	same.TokenB = p.TokenA
	assert.Error(t, same.Validate())

	neg := p
	neg.AmountB = decimal.NewFromInt(-1)
	assert.Error(t, neg.Validate())

	assert.ErrorIs(t, LiquidityPosition{}.Validate(), errEmptyProtocol)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("transfer_in")
	require.NoError(t, err)
	assert.Equal(t, KindTransferIn, k)

	_, err = ParseKind("stake")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
