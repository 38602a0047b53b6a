package solana

import "context"

// WSClient defines the Solana WebSocket subscriptions used to watch wallets.
type WSClient interface {
	// SubscribeAccount notifies on every change of the account's lamports or data.
	SubscribeAccount(ctx context.Context, address string) (<-chan Notification, error)

	// SubscribeLogs notifies on transactions whose logs mention any filter address.
	SubscribeLogs(ctx context.Context, filter LogsFilter) (<-chan Notification, error)

	// Close closes the WebSocket connection and all subscription channels.
	Close() error
}

// LogsFilter defines subscription filter for logs.
type LogsFilter struct {
	// Mentions filters logs that mention any of these addresses.
	Mentions []string
}

// NotificationKind identifies the subscription that produced a notification.
type NotificationKind string

const (
	NotificationAccount NotificationKind = "account"
	NotificationLogs    NotificationKind = "logs"
)

// Notification is a subscription message.
type Notification struct {
	Kind      NotificationKind
	Address   string // subscribed account, or first mention for logs
	Slot      int64
	Lamports  uint64 // account notifications only
	Signature string // logs notifications only
	Err       interface{}
}
