package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/logging"
	"wallet-analytics/internal/solana"
)

type fakeWS struct {
	account chan solana.Notification
	logs    chan solana.Notification
	fail    error
}

func newFakeWS() *fakeWS {
	return &fakeWS{
		account: make(chan solana.Notification, 4),
		logs:    make(chan solana.Notification, 4),
	}
}

func (f *fakeWS) SubscribeAccount(context.Context, string) (<-chan solana.Notification, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return f.account, nil
}

func (f *fakeWS) SubscribeLogs(context.Context, solana.LogsFilter) (<-chan solana.Notification, error) {
	return f.logs, nil
}

func (f *fakeWS) Close() error {
	close(f.account)
	close(f.logs)
	return nil
}

func triggers(svc *Service) int {
	st := svc.Status()
	if len(st.Wallets) == 0 {
		return 0
	}
	return st.Wallets[0].Triggers
}

func TestWatcher_TriggersOnActivity(t *testing.T) {
	_, svc := newRouter(t, fixture{})
	ws := newFakeWS()
	w := NewWatcher(ws, svc, domain.Period7D, logging.Discard())

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background(), []string{wallet}) }()

	ws.account <- solana.Notification{Kind: solana.NotificationAccount, Address: wallet, Lamports: 1}
	require.Eventually(t, func() bool { return triggers(svc) == 1 }, time.Second, 5*time.Millisecond)

	ws.logs <- solana.Notification{Kind: solana.NotificationLogs, Signature: "failed", Err: map[string]interface{}{"InstructionError": 1}}
	ws.logs <- solana.Notification{Kind: solana.NotificationLogs, Signature: "ok"}
	require.Eventually(t, func() bool { return triggers(svc) == 2 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, domain.Period7D, svc.Status().Wallets[0].Period)

	require.NoError(t, ws.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop after channels closed")
	}
	assert.Equal(t, 2, triggers(svc), "failed transaction logs are ignored")
}

func TestWatcher_StopsOnContext(t *testing.T) {
	_, svc := newRouter(t, fixture{})
	w := NewWatcher(newFakeWS(), svc, domain.Period7D, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, []string{wallet}) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watcher ignored cancellation")
	}
}

func TestWatcher_SubscribeError(t *testing.T) {
	_, svc := newRouter(t, fixture{})
	ws := newFakeWS()
	ws.fail = errors.New("socket closed")

	err := NewWatcher(ws, svc, domain.Period7D, logging.Discard()).Run(context.Background(), []string{wallet})

	assert.ErrorContains(t, err, "socket closed")
}
