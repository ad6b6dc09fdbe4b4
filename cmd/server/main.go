package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ryandielhenn/zephyrkv/internal/telemetry"
	"github.com/ryandielhenn/zephyrkv/pkg/admin"
	"github.com/ryandielhenn/zephyrkv/pkg/kv"
	"github.com/ryandielhenn/zephyrkv/pkg/seed"
	"github.com/ryandielhenn/zephyrkv/pkg/sweep"
)

// set with -ldflags "-X main.version=... -X main.gitSHA=..."
var (
	version = "dev"
	gitSHA  = "unknown"
)

func main() {
	cfg := LoadConfig()
	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()
	telemetry.SetBuildInfo(version, gitSHA)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Bulk-load the initial entries
	entries, err := loadSeed(ctx, cfg, log)
	if err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}

	// 2. Build the store and export its gauges
	store := kv.NewStore(entries,
		kv.WithLogger(log.Named("kv")),
		kv.WithRecorder(telemetry.StoreRecorder{}),
	)
	if err := telemetry.RegisterStore(telemetry.Registry, store); err != nil {
		log.Fatal("register store metrics", zap.Error(err))
	}

	// 3. Evict expired records in the background
	sw := sweep.New(store, sweep.Config{
		Interval: cfg.SweepInterval,
		Batch:    cfg.SweepBatch,
		Logger:   log.Named("sweep"),
	})
	go sw.Run(ctx)

	// 4. Serve health, info and metrics
	srv := &http.Server{
		Addr:              cfg.AdminAddr,
		Handler:           admin.New(store, log.Named("admin")).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("admin shutdown", zap.Error(err))
		}
	}()

	log.Info("zephyrkv admin listening", zap.String("addr", cfg.AdminAddr), zap.String("version", version))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("admin server", zap.Error(err))
	}
	log.Info("shutdown complete", zap.Int("records", store.Len()))
}

func newLogger(cfg Config) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
	}
	zc := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = lvl
	return zc.Build()
}

func loadSeed(ctx context.Context, cfg Config, log *zap.Logger) ([]kv.Entry, error) {
	if len(cfg.EtcdEndpoints) == 0 {
		log.Info("no etcd endpoints, starting empty")
		return nil, nil
	}

	log.Info("creating etcd client", zap.Strings("endpoints", cfg.EtcdEndpoints))
	cli, err := seed.NewClient(cfg.EtcdEndpoints)
	if err != nil {
		return nil, fmt.Errorf("etcd client: %w", err)
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return seed.FromClient(cli, cfg.SeedPrefix, log.Named("seed")).Load(ctx)
}
