// Package main runs the wallet analytics service:
// - HTTP API (gin): analytics, refresh, tax export, status, metrics
// - Scheduled refresh (cron) of every known wallet
// - WebSocket watcher refreshing wallets on on-chain activity
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"wallet-analytics/internal/api"
	"wallet-analytics/internal/config"
	"wallet-analytics/internal/logging"
	"wallet-analytics/internal/reporting"
	"wallet-analytics/internal/solana"
)

func main() {
	envFile := flag.String("env-file", ".env", "Environment file loaded before the process environment")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.Logging)
	gin.SetMode(cfg.Server.GinMode)

	logger.WithFields(logrus.Fields{
		"addr":    cfg.Server.Addr,
		"network": cfg.Solana.Network,
		"storage": storageMode(cfg.Storage),
		"cache":   cfg.Cache.Backend,
	}).Info("Starting wallet analytics server")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.close()

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(app.service, reporting.NewGenerator(), logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.WithField("address", server.Addr).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Initial cycle for configured wallets
	for _, w := range cfg.Orchestrator.WatchWallets {
		app.service.Refresh(w, cfg.Orchestrator.Period, "startup")
	}

	scheduler, err := startScheduler(cfg.Orchestrator.RefreshSchedule, app.service, logger)
	if err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}

	watcherDone := startWatcher(ctx, cfg, app.service, logger)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.WithField("signal", sig.String()).Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer shutdownCancel()

	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
			logger.Warn("Scheduled refresh did not finish before shutdown timeout")
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	// Cancel main context to stop background services
	cancel()
	select {
	case <-watcherDone:
	case <-shutdownCtx.Done():
		logger.Warn("Watcher did not stop before shutdown timeout")
	}

	logger.Info("Shutdown complete")
}

// startScheduler refreshes every known wallet on the cron spec. An empty spec
// disables scheduling.
func startScheduler(spec string, service *api.Service, logger logrus.FieldLogger) (*cron.Cron, error) {
	if spec == "" {
		return nil, nil
	}

	cronLogger := cron.PrintfLogger(logger.WithField("component", "cron"))
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	if _, err := c.AddFunc(spec, func() {
		n := service.RefreshAll("cron")
		logger.WithField("wallets", n).Info("Scheduled refresh triggered")
	}); err != nil {
		return nil, err
	}
	c.Start()
	logger.WithField("schedule", spec).Info("Refresh scheduler started")
	return c, nil
}

// startWatcher subscribes to wallet activity when a WebSocket endpoint and
// wallets are configured. The returned channel closes when the watcher stops.
func startWatcher(ctx context.Context, cfg *config.Config, service *api.Service, logger logrus.FieldLogger) <-chan struct{} {
	done := make(chan struct{})
	if cfg.Solana.WSEndpoint == "" || len(cfg.Orchestrator.WatchWallets) == 0 {
		close(done)
		return done
	}

	wsConfig := solana.DefaultWSConfig()
	wsConfig.Logger = logger.WithField("component", "ws")

	go func() {
		defer close(done)

		ws, err := solana.NewWSClient(ctx, cfg.Solana.WSEndpoint, &wsConfig)
		if err != nil {
			logger.WithError(err).Error("WebSocket connect failed, activity watcher disabled")
			return
		}
		defer ws.Close()

		w := api.NewWatcher(ws, service, cfg.Orchestrator.Period, logger)
		if err := w.Run(ctx, cfg.Orchestrator.WatchWallets); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("Activity watcher stopped")
		}
	}()
	return done
}

func storageMode(cfg config.StorageConfig) string {
	if cfg.UseMemory {
		return "memory"
	}
	return "postgres+clickhouse"
}
