package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"wallet-analytics/internal/observability"
)

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SubscribeTimeout bounds the wait for a subscription acknowledgement.
	SubscribeTimeout time.Duration
	// Logger receives connection and protocol errors.
	Logger logrus.FieldLogger
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SubscribeTimeout:  30 * time.Second,
	}
}

var errClientClosed = errors.New("client closed")

// subscription is what is needed to replay a subscription after reconnect.
type subscription struct {
	kind    NotificationKind
	address string
	method  string
	params  []interface{}
	ch      chan Notification
}

// WSClientImpl implements WSClient using gorilla/websocket.
type WSClientImpl struct {
	endpoint string
	config   WSClientConfig
	logger   logrus.FieldLogger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs maps the server subscription id to its record.
	subs   map[int64]*subscription
	subsMu sync.RWMutex

	// pending maps request id to the channel waiting for the subscription id.
	pending   map[uint64]chan int64
	pendingMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

var _ WSClient = (*WSClientImpl)(nil)

// NewWSClient creates a new WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.SubscribeTimeout <= 0 {
		cfg.SubscribeTimeout = DefaultWSConfig().SubscribeTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	c := &WSClientImpl{
		endpoint: endpoint,
		config:   cfg,
		logger:   cfg.Logger.WithField("component", "solana_ws"),
		subs:     make(map[int64]*subscription),
		pending:  make(map[uint64]chan int64),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

// connect establishes WebSocket connection.
func (c *WSClientImpl) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// SubscribeAccount subscribes to account changes of address.
func (c *WSClientImpl) SubscribeAccount(ctx context.Context, address string) (<-chan Notification, error) {
	return c.subscribe(ctx, &subscription{
		kind:    NotificationAccount,
		address: address,
		method:  "accountSubscribe",
		params: []interface{}{
			address,
			map[string]string{"encoding": "base64", "commitment": "confirmed"},
		},
	})
}

// SubscribeLogs subscribes to transaction logs matching the filter.
func (c *WSClientImpl) SubscribeLogs(ctx context.Context, filter LogsFilter) (<-chan Notification, error) {
	mentions := map[string]interface{}{}
	address := ""
	if len(filter.Mentions) > 0 {
		mentions["mentions"] = filter.Mentions
		address = filter.Mentions[0]
	} else {
		mentions["all"] = nil
	}

	return c.subscribe(ctx, &subscription{
		kind:    NotificationLogs,
		address: address,
		method:  "logsSubscribe",
		params: []interface{}{
			mentions,
			map[string]string{"commitment": "confirmed"},
		},
	})
}

func (c *WSClientImpl) subscribe(ctx context.Context, sub *subscription) (<-chan Notification, error) {
	subID, err := c.request(ctx, sub)
	if err != nil {
		return nil, err
	}

	sub.ch = make(chan Notification, 1024)
	c.subsMu.Lock()
	c.subs[subID] = sub
	c.subsMu.Unlock()

	return sub.ch, nil
}

// request sends a subscribe request and waits for the subscription id.
func (c *WSClientImpl) request(ctx context.Context, sub *subscription) (int64, error) {
	if c.closed.Load() {
		return 0, errClientClosed
	}

	reqID := c.requestID.Add(1)
	confirm := make(chan int64, 1)
	c.pendingMu.Lock()
	c.pending[reqID] = confirm
	c.pendingMu.Unlock()

	forget := func() {
		c.pendingMu.Lock()
		delete(c.pending, reqID)
		c.pendingMu.Unlock()
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  sub.method,
		Params:  sub.params,
	}

	c.connMu.Lock()
	if c.conn == nil {
		c.connMu.Unlock()
		forget()
		return 0, fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err := c.conn.WriteJSON(req)
	c.connMu.Unlock()
	if err != nil {
		forget()
		return 0, fmt.Errorf("write %s: %w", sub.method, err)
	}

	timer := time.NewTimer(c.config.SubscribeTimeout)
	defer timer.Stop()

	select {
	case subID, ok := <-confirm:
		if !ok {
			return 0, errClientClosed
		}
		return subID, nil
	case <-timer.C:
		forget()
		return 0, fmt.Errorf("%s timeout after %s", sub.method, c.config.SubscribeTimeout)
	case <-c.done:
		return 0, errClientClosed
	case <-ctx.Done():
		forget()
		return 0, ctx.Err()
	}
}

// Close closes the WebSocket connection.
func (c *WSClientImpl) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()

	c.subsMu.Lock()
	for id, sub := range c.subs {
		close(sub.ch)
		delete(c.subs, id)
	}
	c.subsMu.Unlock()

	c.pendingMu.Lock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	return nil
}

// readLoop reads messages and dispatches them, reconnecting on read errors.
func (c *WSClientImpl) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			if !c.reconnecting.Swap(true) {
				c.logger.WithError(err).WithField("delay", reconnectDelay).Warn("websocket read failed, reconnecting")
				go c.reconnect(reconnectDelay)
			}

			reconnectDelay *= 2
			if reconnectDelay > c.config.MaxReconnectDelay {
				reconnectDelay = c.config.MaxReconnectDelay
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = c.config.ReconnectDelay
		c.handleMessage(message)
	}
}

// reconnect redials and replays every active subscription.
func (c *WSClientImpl) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		c.logger.WithError(err).Warn("websocket reconnect failed")
		return
	}
	observability.RecordWSReconnect()

	c.resubscribeAll(ctx)
}

// resubscribeAll replays active subscriptions under new server ids.
func (c *WSClientImpl) resubscribeAll(ctx context.Context) {
	c.subsMu.RLock()
	old := make(map[int64]*subscription, len(c.subs))
	for id, sub := range c.subs {
		old[id] = sub
	}
	c.subsMu.RUnlock()

	for oldID, sub := range old {
		newID, err := c.request(ctx, sub)
		if err != nil {
			c.logger.WithError(err).WithField("method", sub.method).Warn("resubscribe failed")
			continue
		}

		c.subsMu.Lock()
		delete(c.subs, oldID)
		c.subs[newID] = sub
		c.subsMu.Unlock()
	}
}

// handleMessage routes acknowledgements, notifications and errors.
func (c *WSClientImpl) handleMessage(message []byte) {
	var env wsEnvelope
	if err := json.Unmarshal(message, &env); err != nil {
		c.logger.WithError(err).Debug("ignoring malformed websocket message")
		return
	}

	switch {
	case env.Error != nil:
		c.logger.WithFields(logrus.Fields{
			"code": env.Error.Code,
			"id":   env.ID,
		}).Warn(env.Error.Message)
	case env.ID != nil && len(env.Result) > 0:
		var subID int64
		if err := json.Unmarshal(env.Result, &subID); err == nil {
			c.handleSubscribeResponse(*env.ID, subID)
		}
	case env.Params != nil:
		c.handleNotification(env.Method, env.Params)
	}
}

// handleSubscribeResponse hands the subscription id to the waiting request.
func (c *WSClientImpl) handleSubscribeResponse(reqID uint64, subID int64) {
	c.pendingMu.Lock()
	ch, ok := c.pending[reqID]
	if ok {
		delete(c.pending, reqID)
	}
	c.pendingMu.Unlock()

	if ok {
		select {
		case ch <- subID:
		default:
		}
	}
}

// handleNotification converts a notification and delivers it to its subscriber.
func (c *WSClientImpl) handleNotification(method string, params *wsNotificationParams) {
	c.subsMu.RLock()
	sub, ok := c.subs[params.Subscription]
	c.subsMu.RUnlock()
	if !ok {
		return
	}

	n := Notification{Kind: sub.kind, Address: sub.address}
	if params.Result.Context != nil {
		n.Slot = params.Result.Context.Slot
	}

	switch method {
	case "accountNotification":
		var v struct {
			Lamports uint64 `json:"lamports"`
		}
		if err := json.Unmarshal(params.Result.Value, &v); err != nil {
			return
		}
		n.Lamports = v.Lamports
	case "logsNotification":
		var v struct {
			Signature string      `json:"signature"`
			Err       interface{} `json:"err"`
		}
		if err := json.Unmarshal(params.Result.Value, &v); err != nil {
			return
		}
		n.Signature = v.Signature
		n.Err = v.Err
	default:
		return
	}
	observability.RecordWSMessage()

	select {
	case sub.ch <- n:
	case <-c.done:
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// a dead connection surfaces in readLoop
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsEnvelope struct {
	ID     *uint64               `json:"id"`
	Method string                `json:"method"`
	Result json.RawMessage       `json:"result"`
	Error  *rpcError             `json:"error"`
	Params *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64 `json:"subscription"`
	Result       struct {
		Context *struct {
			Slot int64 `json:"slot"`
		} `json:"context"`
		Value json.RawMessage `json:"value"`
	} `json:"result"`
}
