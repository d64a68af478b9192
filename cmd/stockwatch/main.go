package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stockwatch/internal/analytics"
	"stockwatch/internal/api"
	"stockwatch/internal/config"
	"stockwatch/internal/history"
	"stockwatch/internal/ledger"
	"stockwatch/internal/notifier"
	"stockwatch/internal/portfolio"
	"stockwatch/internal/quotes"
	"stockwatch/internal/rules"
	"stockwatch/internal/scheduler"
	"stockwatch/internal/store"
)

func main() {
	// .env is optional, real env vars win either way
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger()
	if os.Getenv("LOG_FORMAT") == "json" {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	log.Logger = logger

	logger.Info().Msg("stockwatch starting")

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("config validation")
	}

	// Quote source
	yahoo := quotes.NewYahooSource(cfg.Quotes.Proxy, logger)
	var src quotes.Source = yahoo
	logger.Info().Str("source", src.Name()).Msg("quote source ready")

	// Store, falling back to in-memory when SQLite cannot be opened
	var st store.Store
	if cfg.Database.SQLitePath != "" {
		sqls, err := store.NewSQLiteStore(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("sqlite store unavailable, falling back to memory store")
			st = store.NewMemoryStore()
		} else {
			st = sqls
			defer sqls.Close()
		}
	} else {
		st = store.NewMemoryStore()
	}

	// Services
	led := ledger.NewService(st, logger)
	pf := portfolio.NewService(src, logger)
	an := analytics.NewService(src, logger)
	engine := rules.NewEngine(src, logger)
	rs := rules.NewService(st, engine, logger)
	hist := history.NewBuilder(src, logger)

	// Alert sinks
	sinks := []notifier.Sink{notifier.NewLogSink(logger)}
	if cfg.Alerts.WebhookURL != "" {
		sinks = append(sinks, notifier.NewWebhookSink(cfg.Alerts.WebhookURL))
		logger.Info().Msg("webhook alert sink enabled")
	}

	// Scheduler
	sched := scheduler.New(led, pf, rs, st, sinks, logger)
	if err := sched.RegisterAll(cfg.Alerts.CheckCron, cfg.Schedule.SnapshotCron); err != nil {
		logger.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP API
	server := api.New(api.Config{
		Addr:      cfg.HTTP.Addr,
		Log:       logger,
		Ledger:    led,
		Portfolio: pf,
		Analytics: an,
		Rules:     rs,
		History:   hist,
		Store:     st,
		Market:    yahoo,
	})
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	if os.Getenv("RUN_ON_START") == "true" {
		logger.Info().Msg("RUN_ON_START enabled, checking rules now")
		go sched.RunCheckNow()
	}

	logger.Info().Msg("stockwatch is running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutdown signal received, stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("stockwatch stopped")
}
