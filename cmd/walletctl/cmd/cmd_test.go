package cmd

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/reporting"
)

const txFixture = `[
  {"id": "b1", "asset": "So11111111111111111111111111111111111111112", "symbol": "SOL",
   "kind": "buy", "quantity": "10", "value_usd": "1000", "timestamp": "2024-01-10T12:00:00Z"},
  {"asset": "So11111111111111111111111111111111111111112", "symbol": "SOL",
   "kind": "sell", "quantity": 4, "value_usd": 600, "timestamp": "2024-06-10T12:00:00Z"}
]`

func TestReadTransactions(t *testing.T) {
	txs, err := readTransactions(strings.NewReader(txFixture))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "b1", txs[0].ID)
	assert.Equal(t, domain.KindBuy, txs[0].Kind)
	assert.Equal(t, "10", txs[0].Quantity.String())
	assert.Equal(t, 0, txs[0].Seq)

	assert.Equal(t, "tx-1", txs[1].ID, "missing ids are generated from position")
	assert.Equal(t, domain.KindSell, txs[1].Kind)
	assert.Equal(t, "600", txs[1].ValueUSD.String())
	assert.Equal(t, 1, txs[1].Seq)
	assert.Equal(t, int64(1718020800000), txs[1].Timestamp)
}

func TestReadTransactions_UnknownKind(t *testing.T) {
	_, err := readTransactions(strings.NewReader(`[{"kind": "stake", "quantity": 1}]`))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownKind)
}

func TestReadTransactions_BadJSON(t *testing.T) {
	_, err := readTransactions(strings.NewReader(`{`))
	assert.Error(t, err)
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	err := root.Execute()
	return out.String(), err
}

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "txs.json")
	require.NoError(t, os.WriteFile(path, []byte(txFixture), 0o600))
	return path
}

func TestTaxCmd_CSV(t *testing.T) {
	out, err := runRoot(t, "tax", "--file", writeFixture(t), "--year", "2024")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, domain.TaxRowColumns, records[0])
	assert.Equal(t, "sell", records[2][2])
	assert.Contains(t, records[2], "200.00")
}

func TestTaxCmd_MarkdownToFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "tax.md")
	out, err := runRoot(t, "tax", "--file", writeFixture(t), "--year", "2024",
		"--format", "markdown", "--out", dest)
	require.NoError(t, err)
	assert.Empty(t, out)

	body, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(body), "2024")
}

func TestTaxCmd_JSONMatchesEngine(t *testing.T) {
	out, err := runRoot(t, "tax", "--file", writeFixture(t), "--year", "2024", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"rows"`)
	assert.Contains(t, out, `"year": 2024`)
}

func TestTaxCmd_StakingRewards(t *testing.T) {
	staking := filepath.Join(t.TempDir(), "staking.json")
	require.NoError(t, os.WriteFile(staking, []byte(`[{
	  "Protocol": "marinade", "Asset": "So11111111111111111111111111111111111111112", "Staked": "10",
	  "Rewards": [{"ID": "r1", "Asset": "So11111111111111111111111111111111111111112", "Symbol": "SOL",
	               "Quantity": "0.5", "ValueUSD": "75", "Timestamp": 1719792000000}]
	}]`), 0o600))

	out, err := runRoot(t, "tax", "--file", writeFixture(t), "--staking", staking,
		"--year", "2024", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"reward_income_usd": "75"`)
	assert.Contains(t, out, `"id": "r1"`)
}

func TestTaxCmd_RequiresOneSource(t *testing.T) {
	_, err := runRoot(t, "tax", "--year", "2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of")

	_, err = runRoot(t, "tax", "--file", "a.json", "--address", "b", "--year", "2024")
	require.Error(t, err)
}

func TestTaxCmd_UnknownFormat(t *testing.T) {
	_, err := runRoot(t, "tax", "--file", writeFixture(t), "--year", "2024", "--format", "xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestTaxCmd_InvalidAddress(t *testing.T) {
	_, err := runRoot(t, "tax", "--address", "not-a-wallet", "--year", "2024")
	assert.Error(t, err)
}

func TestRiskCmd_RejectsBadInput(t *testing.T) {
	_, err := runRoot(t, "risk", "not-a-wallet")
	assert.Error(t, err)

	_, err = runRoot(t, "risk", "4wBqpZM9xaSheZzJSMawUKKwhdpChKbZ5eu5ky4Vigw", "--period", "2w")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported period")
}

func TestWriteSignals(t *testing.T) {
	ti := domain.TechnicalIndicators{Asset: "SOL", CurrentPrice: 150, RSI: 55}
	ti.MACD.Trend = domain.SignalBuy
	pred := domain.Prediction{Asset: "SOL", PredictedPrice: 155, Direction: domain.SignalBuy, Confidence: 0.6}
	signals := []signal{{Indicators: ti, Prediction: pred}}

	var buf bytes.Buffer
	require.NoError(t, writeSignals(&buf, signals, "table"))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "SOL"))
	assert.Contains(t, lines[1], "155.000000")

	buf.Reset()
	require.NoError(t, writeSignals(&buf, signals, "json"))
	assert.Contains(t, buf.String(), `"predicted_price": 155`)

	assert.Error(t, writeSignals(&buf, signals, "yaml"))
}

func TestWriteResult_UnknownFormat(t *testing.T) {
	assert.Error(t, writeResult(&bytes.Buffer{}, nil, "pdf"))
	_, err := reporting.NewGenerator().Generate(nil)
	assert.Error(t, err)
}
