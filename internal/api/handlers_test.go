package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/logging"
	"wallet-analytics/internal/orchestrator"
	"wallet-analytics/internal/pricefeed"
)

const wallet = "4wBqpZM9xaSheZzJSMawUKKwhdpChKbZ5eu5ky4Vigw"

var now = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

type holdingsFunc func(ctx context.Context, address string) ([]domain.Holding, error)

func (f holdingsFunc) Holdings(ctx context.Context, address string) ([]domain.Holding, error) {
	return f(ctx, address)
}

type transactionsFunc func(ctx context.Context, address string) ([]domain.Transaction, error)

func (f transactionsFunc) Transactions(ctx context.Context, address string) ([]domain.Transaction, error) {
	return f(ctx, address)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func series(days int, price float64) []domain.PricePoint {
	out := make([]domain.PricePoint, days+1)
	for i := range out {
		out[i] = domain.PricePoint{Timestamp: now.AddDate(0, 0, i-days).UnixMilli(), Price: price + float64(i%4)}
	}
	return out
}

func tx(id string, kind domain.Kind, qty, value int64, month time.Month) domain.Transaction {
	return domain.Transaction{
		ID:        id,
		Asset:     domain.NativeAsset,
		Symbol:    "SOL",
		Kind:      kind,
		Quantity:  decimal.NewFromInt(qty),
		ValueUSD:  decimal.NewFromInt(value),
		Timestamp: time.Date(2025, month, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
	}
}

type fixture struct {
	holdings     orchestrator.HoldingsSource
	transactions orchestrator.TransactionSource
}

func newRouter(t *testing.T, f fixture) (*gin.Engine, *Service) {
	t.Helper()
	if f.holdings == nil {
		f.holdings = holdingsFunc(func(context.Context, string) ([]domain.Holding, error) {
			return []domain.Holding{
				domain.NewHolding(domain.NativeAsset, "SOL", 10, 150),
				domain.NewHolding("usdc-mint", "USDC", 500, 1),
			}, nil
		})
	}
	if f.transactions == nil {
		f.transactions = transactionsFunc(func(context.Context, string) ([]domain.Transaction, error) {
			return []domain.Transaction{
				tx("buy", domain.KindBuy, 10, 1000, time.January),
				tx("sell", domain.KindSell, 4, 600, time.June),
			}, nil
		})
	}

	logger := logging.Discard()
	orch, err := orchestrator.New(orchestrator.Options{
		Holdings:     f.holdings,
		Transactions: f.transactions,
		Prices: pricefeed.NewStatic(map[string][]domain.PricePoint{
			"SOL":  series(40, 140),
			"USDC": series(40, 1),
		}),
		Debounce: 10 * time.Millisecond,
		Logger:   logger,
		Clock:    func() time.Time { return now },
	})
	require.NoError(t, err)

	svc, err := NewService(Options{
		Orchestrator: orch,
		Transactions: f.transactions,
		Network:      "mainnet-beta",
		Logger:       logger,
		Clock:        func() time.Time { return now },
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	return NewRouter(svc, nil, logger), svc
}

func do(router http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	router, _ := newRouter(t, fixture{})

	rec := do(router, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newRouter(t, fixture{})

	rec := do(router, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInvalidAddressRejected(t *testing.T) {
	router, _ := newRouter(t, fixture{})

	for _, path := range []string{
		"/v1/wallets/not-a-wallet/analytics",
		"/v1/wallets/0OIl/tax/2025",
	} {
		rec := do(router, http.MethodGet, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestAnalytics_JSON(t *testing.T) {
	router, _ := newRouter(t, fixture{})

	rec := do(router, http.MethodGet, "/v1/wallets/"+wallet+"/analytics?period=7d")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res orchestrator.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, wallet, res.Input.Address)
	assert.Equal(t, domain.Period7D, res.Input.Period)
	require.NotNil(t, res.Risk)
	assert.InDelta(t, 2000.0, res.Risk.TotalValueUSD, 1e-9)
	assert.Contains(t, res.Indicators, "SOL")
	require.NotNil(t, res.Tax)
	assert.Equal(t, 2026, res.Tax.Year)
}

func TestAnalytics_Markdown(t *testing.T) {
	router, _ := newRouter(t, fixture{})

	rec := do(router, http.MethodGet, "/v1/wallets/"+wallet+"/analytics?format=markdown")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, rec.Body.String(), "# Wallet Analytics")
	assert.Contains(t, rec.Body.String(), "Period: 30d")
}

func TestAnalytics_BadQuery(t *testing.T) {
	router, _ := newRouter(t, fixture{})

	rec := do(router, http.MethodGet, "/v1/wallets/"+wallet+"/analytics?period=2w")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodGet, "/v1/wallets/"+wallet+"/analytics?format=xml")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalytics_UpstreamFailure(t *testing.T) {
	router, _ := newRouter(t, fixture{
		holdings: holdingsFunc(func(context.Context, string) ([]domain.Holding, error) {
			return nil, domain.ErrUpstream
		}),
	})

	rec := do(router, http.MethodGet, "/v1/wallets/"+wallet+"/analytics")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRefresh_SchedulesPipeline(t *testing.T) {
	router, svc := newRouter(t, fixture{})

	rec := do(router, http.MethodPost, "/v1/wallets/"+wallet+"/refresh?period=90d")
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		st := svc.Status()
		return len(st.Wallets) == 1 && st.Wallets[0].LastCycle != nil
	}, 2*time.Second, 5*time.Millisecond)

	st := svc.Status()
	assert.Equal(t, wallet, st.Wallets[0].Address)
	assert.Equal(t, domain.Period90D, st.Wallets[0].Period)
	assert.Equal(t, uint64(1), st.Wallets[0].Generation)
	assert.Equal(t, 1, st.Wallets[0].Triggers)

	// The published result is served without a new cycle.
	res, err := svc.Analytics(context.Background(), wallet, domain.Period90D)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Generation)

	assert.Equal(t, 1, svc.RefreshAll("cron"))
	assert.Equal(t, 2, svc.Status().Wallets[0].Triggers)
}

func TestStatusEndpoint(t *testing.T) {
	router, _ := newRouter(t, fixture{})

	rec := do(router, http.MethodGet, "/status")

	require.Equal(t, http.StatusOK, rec.Code)
	var st Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "mainnet-beta", st.Network)
	assert.Empty(t, st.Wallets)
}

func TestTax_JSON(t *testing.T) {
	router, _ := newRouter(t, fixture{})

	rec := do(router, http.MethodGet, "/v1/wallets/"+wallet+"/tax/2025")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report domain.TaxReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2025, report.Year)
	require.Len(t, report.Disposals, 1)
	assert.True(t, report.TotalGainLoss.Equal(decimal.NewFromInt(200)), "got %s", report.TotalGainLoss)
}

func TestTax_CSV(t *testing.T) {
	router, _ := newRouter(t, fixture{})

	rec := do(router, http.MethodGet, "/v1/wallets/"+wallet+"/tax/2025?format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "tax-"+wallet+"-2025.csv")

	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, domain.TaxRowColumns, records[0])
	assert.Equal(t, "sell", records[2][2])
	assert.Equal(t, "200.00", records[2][9])
}

func TestTax_Errors(t *testing.T) {
	router, _ := newRouter(t, fixture{
		transactions: transactionsFunc(func(context.Context, string) ([]domain.Transaction, error) {
			return []domain.Transaction{tx("sell", domain.KindSell, 1, 100, time.May)}, nil
		}),
	})

	tests := []struct {
		path string
		want int
	}{
		{"/v1/wallets/" + wallet + "/tax/abc", http.StatusBadRequest},
		{"/v1/wallets/" + wallet + "/tax/1999", http.StatusBadRequest},
		{"/v1/wallets/" + wallet + "/tax/2025", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		rec := do(router, http.MethodGet, tt.path)
		assert.Equal(t, tt.want, rec.Code, tt.path)
	}
}
