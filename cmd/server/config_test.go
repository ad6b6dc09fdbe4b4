package main

import (
	"slices"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"ADMIN_ADDR", "SWEEP_INTERVAL_MS", "SWEEP_BATCH", "ETCD_ENDPOINTS", "SEED_PREFIX", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	if cfg.AdminAddr != ":8080" || cfg.SweepInterval != time.Second || cfg.SweepBatch != 128 {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.EtcdEndpoints != nil {
		t.Fatalf("EtcdEndpoints = %v, want nil", cfg.EtcdEndpoints)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("ADMIN_ADDR", "127.0.0.1:9000")
	t.Setenv("SWEEP_INTERVAL_MS", "250")
	t.Setenv("SWEEP_BATCH", "not-a-number")
	t.Setenv("ETCD_ENDPOINTS", "http://etcd:2379, http://etcd2:2379,")
	t.Setenv("SEED_PREFIX", "/seed/")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := LoadConfig()
	if cfg.AdminAddr != "127.0.0.1:9000" {
		t.Fatalf("AdminAddr = %q", cfg.AdminAddr)
	}
	if cfg.SweepInterval != 250*time.Millisecond {
		t.Fatalf("SweepInterval = %s", cfg.SweepInterval)
	}
	if cfg.SweepBatch != 128 {
		t.Fatalf("malformed SWEEP_BATCH should keep default, got %d", cfg.SweepBatch)
	}
	if want := []string{"http://etcd:2379", "http://etcd2:2379"}; !slices.Equal(cfg.EtcdEndpoints, want) {
		t.Fatalf("EtcdEndpoints = %v, want %v", cfg.EtcdEndpoints, want)
	}
	if cfg.SeedPrefix != "/seed/" {
		t.Fatalf("SeedPrefix = %q", cfg.SeedPrefix)
	}
}

func TestNewLogger(t *testing.T) {
	log, err := newLogger(Config{LogLevel: "debug", LogFormat: "console"})
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug level not enabled")
	}

	if _, err := newLogger(Config{LogLevel: "loud", LogFormat: "json"}); err == nil {
		t.Fatalf("invalid level should fail")
	}
}
