package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"wallet-analytics/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient implements RPCClient using HTTP JSON-RPC 2.0.
// Transport failures and 429/5xx responses are retried with exponential
// backoff; JSON-RPC error objects are returned immediately.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new Solana RPC HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

var _ RPCClient = (*HTTPClient)(nil)

// call performs a JSON-RPC call with retries and exponential backoff.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	start := time.Now()
	defer func() { observability.RecordRPCLatency(method, time.Since(start).Seconds()) }()

	reqID := c.requestID.Add(1)
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%s: rate limited (429)", method)
			continue
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("%s: server status %d", method, resp.StatusCode)
			continue
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("%s: unexpected status %d: %s", method, resp.StatusCode, string(respBody))
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if rpcResp.Error != nil {
			return fmt.Errorf("%s: %w", method, rpcResp.Error)
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("%s: unmarshal result: %w", method, err)
			}
		}

		return nil
	}

	return fmt.Errorf("%s: max retries exceeded: %w", method, lastErr)
}

// GetBalance returns the native balance in lamports.
func (c *HTTPClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	params := []interface{}{address, map[string]string{"commitment": "confirmed"}}

	var result struct {
		Value uint64 `json:"value"`
	}
	if err := c.call(ctx, "getBalance", params, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// GetTokenAccountsByOwner returns the owner's token accounts under the classic
// and Token-2022 programs.
func (c *HTTPClient) GetTokenAccountsByOwner(ctx context.Context, owner string) ([]TokenAccount, error) {
	var accounts []TokenAccount
	for _, program := range []string{TokenProgramID, Token2022ProgramID} {
		params := []interface{}{
			owner,
			map[string]string{"programId": program},
			map[string]string{"encoding": "jsonParsed", "commitment": "confirmed"},
		}

		var result getTokenAccountsResult
		if err := c.call(ctx, "getTokenAccountsByOwner", params, &result); err != nil {
			return nil, err
		}

		for _, v := range result.Value {
			info := v.Account.Data.Parsed.Info
			amount, err := info.TokenAmount.decimal()
			if err != nil {
				return nil, fmt.Errorf("token account %s: %w", v.Pubkey, err)
			}
			accounts = append(accounts, TokenAccount{
				Address:  v.Pubkey,
				Mint:     info.Mint,
				Owner:    info.Owner,
				Amount:   amount,
				Decimals: info.TokenAmount.Decimals,
			})
		}
	}
	return accounts, nil
}

type getTokenAccountsResult struct {
	Value []struct {
		Pubkey  string `json:"pubkey"`
		Account struct {
			Data struct {
				Parsed struct {
					Info struct {
						Mint        string        `json:"mint"`
						Owner       string        `json:"owner"`
						TokenAmount uiTokenAmount `json:"tokenAmount"`
					} `json:"info"`
				} `json:"parsed"`
			} `json:"data"`
		} `json:"account"`
	} `json:"value"`
}

// uiTokenAmount is the RPC token amount object.
type uiTokenAmount struct {
	Amount         string `json:"amount"`
	Decimals       uint8  `json:"decimals"`
	UIAmountString string `json:"uiAmountString"`
}

// decimal returns the amount with decimals applied, preferring the raw integer.
func (a uiTokenAmount) decimal() (decimal.Decimal, error) {
	if a.Amount != "" {
		raw, err := decimal.NewFromString(a.Amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse amount %q: %w", a.Amount, err)
		}
		return raw.Shift(-int32(a.Decimals)), nil
	}
	if a.UIAmountString != "" {
		return decimal.NewFromString(a.UIAmountString)
	}
	return decimal.Zero, nil
}

// GetTransaction retrieves a jsonParsed transaction by signature.
// Returns nil if the transaction is unknown to the node.
func (c *HTTPClient) GetTransaction(ctx context.Context, signature string) (*Transaction, error) {
	params := []interface{}{
		signature,
		map[string]interface{}{
			"encoding":                       "jsonParsed",
			"commitment":                     "confirmed",
			"maxSupportedTransactionVersion": 0,
		},
	}

	var result *getTransactionResult
	if err := c.call(ctx, "getTransaction", params, &result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	tx := &Transaction{
		Slot:      result.Slot,
		Signature: signature,
	}
	if result.BlockTime != nil {
		tx.BlockTime = *result.BlockTime
	}
	for _, k := range result.Transaction.Message.AccountKeys {
		tx.AccountKeys = append(tx.AccountKeys, k.Pubkey)
	}

	if m := result.Meta; m != nil {
		tx.Meta = &TransactionMeta{
			Err:          m.Err,
			Fee:          m.Fee,
			PreBalances:  m.PreBalances,
			PostBalances: m.PostBalances,
			LogMessages:  m.LogMessages,
		}
		var err error
		if tx.Meta.PreTokenBalances, err = convertTokenBalances(m.PreTokenBalances); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", signature, err)
		}
		if tx.Meta.PostTokenBalances, err = convertTokenBalances(m.PostTokenBalances); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", signature, err)
		}
	}

	return tx, nil
}

// getTransactionResult is the raw RPC response for getTransaction.
type getTransactionResult struct {
	Slot        int64  `json:"slot"`
	BlockTime   *int64 `json:"blockTime"`
	Transaction struct {
		Message struct {
			AccountKeys []struct {
				Pubkey string `json:"pubkey"`
				Signer bool   `json:"signer"`
			} `json:"accountKeys"`
		} `json:"message"`
	} `json:"transaction"`
	Meta *struct {
		Err               interface{}       `json:"err"`
		Fee               uint64            `json:"fee"`
		PreBalances       []uint64          `json:"preBalances"`
		PostBalances      []uint64          `json:"postBalances"`
		PreTokenBalances  []rawTokenBalance `json:"preTokenBalances"`
		PostTokenBalances []rawTokenBalance `json:"postTokenBalances"`
		LogMessages       []string          `json:"logMessages"`
	} `json:"meta"`
}

type rawTokenBalance struct {
	AccountIndex  int           `json:"accountIndex"`
	Mint          string        `json:"mint"`
	Owner         string        `json:"owner"`
	UITokenAmount uiTokenAmount `json:"uiTokenAmount"`
}

func convertTokenBalances(raw []rawTokenBalance) ([]TokenBalance, error) {
	out := make([]TokenBalance, 0, len(raw))
	for _, r := range raw {
		amount, err := r.UITokenAmount.decimal()
		if err != nil {
			return nil, err
		}
		out = append(out, TokenBalance{
			AccountIndex: r.AccountIndex,
			Mint:         r.Mint,
			Owner:        r.Owner,
			Amount:       amount,
			Decimals:     r.UITokenAmount.Decimals,
		})
	}
	return out, nil
}

// GetSignaturesForAddress retrieves signatures for an address with pagination.
func (c *HTTPClient) GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error) {
	config := map[string]interface{}{"commitment": "confirmed"}
	if opts != nil {
		if opts.Before != "" {
			config["before"] = opts.Before
		}
		if opts.Until != "" {
			config["until"] = opts.Until
		}
		if opts.Limit > 0 {
			config["limit"] = opts.Limit
		}
	}

	var result []struct {
		Signature string      `json:"signature"`
		Slot      int64       `json:"slot"`
		BlockTime *int64      `json:"blockTime"`
		Err       interface{} `json:"err"`
	}
	if err := c.call(ctx, "getSignaturesForAddress", []interface{}{address, config}, &result); err != nil {
		return nil, err
	}

	sigs := make([]SignatureInfo, len(result))
	for i, r := range result {
		sigs[i] = SignatureInfo{
			Signature: r.Signature,
			Slot:      r.Slot,
			BlockTime: r.BlockTime,
			Err:       r.Err,
		}
	}
	return sigs, nil
}

// GetAccountInfo retrieves account info by public key.
// Returns nil if account not found.
func (c *HTTPClient) GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error) {
	params := []interface{}{
		pubkey,
		map[string]interface{}{
			"encoding": "base64",
		},
	}

	var result struct {
		Value *struct {
			Lamports   uint64   `json:"lamports"`
			Owner      string   `json:"owner"`
			Data       []string `json:"data"` // [base64_data, encoding]
			Executable bool     `json:"executable"`
			RentEpoch  uint64   `json:"rentEpoch"`
		} `json:"value"`
	}
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}
	if result.Value == nil {
		return nil, nil
	}

	info := &AccountInfo{
		Lamports:   result.Value.Lamports,
		Owner:      result.Value.Owner,
		Executable: result.Value.Executable,
		RentEpoch:  result.Value.RentEpoch,
	}
	if len(result.Value.Data) >= 1 {
		info.Data = result.Value.Data[0]
	}
	return info, nil
}
