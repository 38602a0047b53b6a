package pricefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/observability"
)

// Default client configuration values.
const (
	DefaultBaseURL           = "https://api.coingecko.com/api/v3"
	DefaultTimeout           = 10 * time.Second
	DefaultRequestsPerMinute = 30
	DefaultMaxRetries        = 3
	DefaultRetryDelay        = 500 * time.Millisecond
	DefaultMaxDelay          = 8 * time.Second
)

// Config configures the CoinGecko client.
type Config struct {
	BaseURL           string
	APIKey            string // sent as x-cg-pro-api-key when set
	Timeout           time.Duration
	RequestsPerMinute int
	MaxRetries        int
	RetryDelay        time.Duration
	HTTPClient        *http.Client
	Logger            logrus.FieldLogger
}

// Client is a rate-limited CoinGecko-compatible price client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
	logger     logrus.FieldLogger
}

// Compile-time interface checks.
var (
	_ Source = (*Client)(nil)
	_ Quoter = (*Client)(nil)
)

// NewClient creates a client. Zero config fields fall back to defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: cfg.HTTPClient,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger.WithField("component", "coingecko"),
	}
}

type marketChartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

// History fetches the market chart for the period, normalized to ascending order.
func (c *Client) History(ctx context.Context, asset string, period domain.Period) ([]domain.PricePoint, error) {
	if !period.IsValid() {
		return nil, fmt.Errorf("coingecko: %w: period %q", domain.ErrInvalidConfig, period)
	}
	coinID, ok := CoinID(asset)
	if !ok {
		return nil, fmt.Errorf("coingecko: %w: no coin id for %s", domain.ErrInsufficientData, asset)
	}

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("days", strconv.Itoa(period.Days()))
	if period.Days() > 90 {
		q.Set("interval", "daily")
	}

	body, err := c.get(ctx, "/coins/"+coinID+"/market_chart?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp marketChartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("coingecko: %w: parse market chart: %v", domain.ErrUpstream, err)
	}

	points := make([]domain.PricePoint, 0, len(resp.Prices))
	for _, p := range resp.Prices {
		if p[1] <= 0 {
			continue
		}
		points = append(points, domain.PricePoint{Timestamp: int64(p[0]), Price: p[1]})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Timestamp < points[j].Timestamp })
	return points, nil
}

// Spot fetches current USD prices for the given symbols in one request.
func (c *Client) Spot(ctx context.Context, symbols []string) (map[string]float64, error) {
	idToSymbol := make(map[string]string, len(symbols))
	ids := make([]string, 0, len(symbols))
	for _, s := range symbols {
		id, ok := CoinID(s)
		if !ok {
			continue
		}
		if _, dup := idToSymbol[id]; dup {
			continue
		}
		idToSymbol[id] = strings.ToUpper(s)
		ids = append(ids, id)
	}
	out := make(map[string]float64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	sort.Strings(ids)

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")

	body, err := c.get(ctx, "/simple/price?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("coingecko: %w: parse simple price: %v", domain.ErrUpstream, err)
	}
	for id, p := range resp {
		if sym, ok := idToSymbol[id]; ok && p.USD > 0 {
			out[sym] = p.USD
		}
	}
	return out, nil
}

// errNotRetryable marks responses that will not improve on retry.
var errNotRetryable = errors.New("not retryable")

// get performs a rate-limited GET with exponential backoff on 429 and 5xx.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > DefaultMaxDelay {
				delay = DefaultMaxDelay
			}
		}

		body, err := c.do(ctx, endpoint)
		if err == nil {
			observability.RecordProviderRequest("ok")
			return body, nil
		}
		lastErr = err
		if errors.Is(err, errNotRetryable) || ctx.Err() != nil {
			break
		}
		c.logger.WithFields(logrus.Fields{
			"endpoint": endpoint,
			"attempt":  attempt + 1,
		}).WithError(err).Debug("price request failed, retrying")
	}

	observability.RecordProviderRequest("error")
	return nil, fmt.Errorf("coingecko: %w: %v", domain.ErrUpstream, lastErr)
}

func (c *Client) do(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w: %v", errNotRetryable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "wallet-analytics/1.0")
	if c.apiKey != "" {
		req.Header.Set("x-cg-pro-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, body)
	}
	return body, nil
}

func statusError(status int, body []byte) error {
	msg := http.StatusText(status)
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		msg = e.Error
	}
	if status == http.StatusTooManyRequests || status >= 500 {
		return fmt.Errorf("HTTP %d: %s", status, msg)
	}
	return fmt.Errorf("HTTP %d: %s: %w", status, msg, errNotRetryable)
}

// coinIDs maps tickers to CoinGecko coin ids.
var coinIDs = map[string]string{
	"BTC":     "bitcoin",
	"WBTC":    "wrapped-bitcoin",
	"ETH":     "ethereum",
	"WETH":    "weth",
	"SOL":     "solana",
	"WSOL":    "wrapped-solana",
	"USDC":    "usd-coin",
	"USDT":    "tether",
	"DAI":     "dai",
	"PYUSD":   "paypal-usd",
	"JUP":     "jupiter-exchange-solana",
	"RAY":     "raydium",
	"ORCA":    "orca",
	"DRIFT":   "drift-protocol",
	"MNDE":    "marinade",
	"MSOL":    "msol",
	"JITOSOL": "jito-staked-sol",
	"BSOL":    "blazestake-staked-sol",
	"JTO":     "jito-governance-token",
	"PYTH":    "pyth-network",
	"RENDER":  "render-token",
	"HNT":     "helium",
	"BONK":    "bonk",
	"WIF":     "dogwifcoin",
	"POPCAT":  "popcat",
	"LINK":    "chainlink",
	"AVAX":    "avalanche-2",
	"DOGE":    "dogecoin",
}

// CoinID resolves a ticker to its CoinGecko id.
func CoinID(symbol string) (string, bool) {
	id, ok := coinIDs[strings.ToUpper(strings.TrimSpace(symbol))]
	return id, ok
}
