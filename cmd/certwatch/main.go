package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/hamed0406/certwatch/internal/config"
	"github.com/hamed0406/certwatch/internal/httpapi"
	"github.com/hamed0406/certwatch/internal/logging"
	"github.com/hamed0406/certwatch/internal/notify"
	"github.com/hamed0406/certwatch/internal/probe"
	"github.com/hamed0406/certwatch/internal/repo/memory"
	"github.com/hamed0406/certwatch/internal/scheduler"
	"github.com/hamed0406/certwatch/internal/sites"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := config.Validate(); err != nil {
		logger.Warn("config_invalid_values", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()

	history, closeHistory := openHistory(ctx, cfg, logger)
	defer closeHistory()

	siteList := sites.File{Path: cfg.SitesFile}
	hosts, err := siteList.Load()
	if err != nil {
		logger.Warn("sites_load_error", zap.String("file", cfg.SitesFile), zap.Error(err))
	}

	var prober probe.Prober = probe.NewTLSProber(cfg.ProbeTimeout)
	prober = probe.WithRetry(prober, cfg.ProbeAttempts, cfg.ProbeBackoff)
	prober = &probe.DiagnosingProber{Inner: prober}

	results := memory.New()
	notifier := notify.NewWebhook(cfg.Webhook, cfg.WebhookFormat)
	dedup := scheduler.NewDeduplicator(ctx, logger, history, cfg.AlertDays, clock)

	loop := &scheduler.Loop{
		Logger:   logger,
		Sites:    siteList,
		Scanner:  scheduler.NewOrchestrator(logger, prober, cfg.MaxWorkers, clock),
		Results:  results,
		Dedup:    dedup,
		Notifier: notifier,
		Interval: cfg.CheckInterval,
		Clock:    clock,
	}
	loop.SetHosts(hosts)

	logger.Info("startup",
		zap.Int("sites", len(hosts)),
		zap.String("addr", cfg.Addr),
		zap.Duration("interval", cfg.CheckInterval),
		zap.Int("alert_days", cfg.AlertDays),
		zap.Int("workers", cfg.MaxWorkers),
		zap.Bool("webhook", notifier.Configured()),
		zap.String("webhook_format", cfg.WebhookFormat),
		zap.Bool("test_auth", cfg.TestKey != ""),
		zap.Bool("database_url_set", cfg.DatabaseURL != ""),
		zap.String("data_dir", cfg.DataDir),
	)
	if !notifier.Configured() {
		logger.Warn("webhook_not_configured")
	}

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.Run(ctx)
	}()

	if !results.WaitReady(ctx, cfg.ReadyTimeout) {
		logger.Warn("first_scan_not_ready", zap.Duration("waited", cfg.ReadyTimeout))
	}

	api := httpapi.NewServer(logger, results, notifier, dedup, httpapi.Settings{
		Interval:     cfg.CheckInterval,
		TestKey:      cfg.TestKey,
		TestCooldown: cfg.TestCooldown,
		SiteCount:    func() int { return len(loop.Hosts()) },
	}, clock)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("api_listen_failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutdown_requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api_shutdown_error", zap.Error(err))
	}
	stop()
	<-loopDone
	dedup.Flush(shutdownCtx)
	logger.Info("shutdown_complete")
}
