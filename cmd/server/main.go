package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"price_tracker/internal/bot"
	"price_tracker/internal/config"
	"price_tracker/internal/ledger"
	"price_tracker/internal/orchestrator"
	"price_tracker/internal/reconciler"
	"price_tracker/internal/scheduler"
	"price_tracker/internal/scraper"
	"price_tracker/internal/storage"
	"price_tracker/internal/tracker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry := scraper.DefaultRegistry()
	stores, err := store.ListStores(ctx)
	if err != nil {
		log.Error("list stores", "error", err)
		os.Exit(1)
	}
	if err := registry.Validate(stores); err != nil {
		log.Error("validate store adapters", "error", err)
		os.Exit(1)
	}

	tr := tracker.New(store, log)
	if _, err := tr.Reset(ctx); err != nil {
		log.Error("reset store statuses", "error", err)
		os.Exit(1)
	}

	led := ledger.New(store)
	orch := orchestrator.New(store, registry, http.DefaultClient, tr, led,
		reconciler.NewClassifier(), log, cfg.AdapterTimeout)

	b, err := bot.New(cfg.TelegramBotToken, store, cfg, orch, tr, led, registry, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	sched := scheduler.New(store, orch, log)
	sched.SetTickInterval(cfg.SchedulerTick)

	log.Info("starting price tracker")

	go sched.Run(ctx)

	b.Run(ctx)

	log.Info("price tracker stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
