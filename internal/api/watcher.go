package api

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/solana"
)

// Watcher refreshes wallets when the chain reports activity on them.
type Watcher struct {
	ws      solana.WSClient
	service *Service
	period  domain.Period
	logger  logrus.FieldLogger
}

// NewWatcher creates a watcher over an open WebSocket client.
func NewWatcher(ws solana.WSClient, service *Service, period domain.Period, logger logrus.FieldLogger) *Watcher {
	return &Watcher{
		ws:      ws,
		service: service,
		period:  period,
		logger:  logger.WithField("component", "watcher"),
	}
}

// Run subscribes to account and log notifications for every wallet and
// blocks until ctx is done or every subscription channel is closed.
func (w *Watcher) Run(ctx context.Context, wallets []string) error {
	var wg sync.WaitGroup
	for _, addr := range wallets {
		account, err := w.ws.SubscribeAccount(ctx, addr)
		if err != nil {
			return fmt.Errorf("subscribe account %s: %w", addr, err)
		}
		logs, err := w.ws.SubscribeLogs(ctx, solana.LogsFilter{Mentions: []string{addr}})
		if err != nil {
			return fmt.Errorf("subscribe logs %s: %w", addr, err)
		}

		wg.Add(2)
		go w.forward(ctx, &wg, addr, account)
		go w.forward(ctx, &wg, addr, logs)
		w.logger.WithField("address", addr).Info("watching wallet")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (w *Watcher) forward(ctx context.Context, wg *sync.WaitGroup, addr string, ch <-chan solana.Notification) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			// failed transactions do not move balances
			if n.Kind == solana.NotificationLogs && n.Err != nil {
				continue
			}
			w.logger.WithFields(logrus.Fields{
				"address":   addr,
				"kind":      n.Kind,
				"slot":      n.Slot,
				"signature": n.Signature,
			}).Debug("wallet activity")
			w.service.Refresh(addr, w.period, "ws")
		}
	}
}
