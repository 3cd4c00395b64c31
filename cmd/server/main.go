package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/buzzcap/buzzmarket/internal/config"
	"github.com/buzzcap/buzzmarket/internal/engine"
	"github.com/buzzcap/buzzmarket/internal/feeds"
	"github.com/buzzcap/buzzmarket/internal/pricing"
	"github.com/buzzcap/buzzmarket/internal/server"
	"github.com/buzzcap/buzzmarket/internal/storage/sqlite"
	"github.com/buzzcap/buzzmarket/pkg/logger"
)

func main() {
	// Load .env (best-effort). If missing, fall back to real env vars.
	_ = godotenv.Load()

	getenv := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	var (
		configPath = flag.String("config", getenv("BUZZMARKET_CONFIG", ""), "path to YAML config (optional)")
		listenAddr = flag.String("listen", "", "HTTP listen address (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if *listenAddr != "" {
		cfg.Listen = *listenAddr
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open store failed: %v", err)
	}
	defer store.Close()

	fetcher := feeds.NewFetcher(cfg.Feeds, cfg.FeedTimeout())
	eng := engine.NewEngine(store, store, fetcher, pricing.NewModel(nil), store)

	if cfg.TriggerSecret == "" {
		logger.Warnf("no trigger secret configured: the tick endpoint will reject every call")
	}

	srv := server.New(server.Config{TriggerSecret: cfg.TriggerSecret}, eng, store)
	defer srv.Close()
	srv.StartBackground(cfg.TickInterval())

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infof("buzzmarket listening on %s (%d feeds, internal tick %s)",
			cfg.Listen, len(cfg.Feeds), cfg.TickInterval())
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("http server error: %v", err)
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	<-stopCh

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)

	fmt.Println("server stopped")
}
