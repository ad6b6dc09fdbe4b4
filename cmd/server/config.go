package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ryandielhenn/zephyrkv/pkg/seed"
	"github.com/ryandielhenn/zephyrkv/pkg/sweep"
)

type Config struct {
	AdminAddr     string
	SweepInterval time.Duration
	SweepBatch    int
	EtcdEndpoints []string
	SeedPrefix    string
	LogLevel      string
	LogFormat     string
}

// LoadConfig reads the environment. Unset or malformed values keep their
// defaults.
func LoadConfig() Config {
	cfg := Config{
		AdminAddr:     ":8080",
		SweepInterval: sweep.DefaultInterval,
		SweepBatch:    sweep.DefaultBatch,
		SeedPrefix:    seed.DefaultPrefix,
		LogLevel:      "info",
		LogFormat:     "json",
	}

	if v := os.Getenv("ADMIN_ADDR"); v != "" {
		cfg.AdminAddr = v
	}
	if v := os.Getenv("SWEEP_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.SweepInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("SWEEP_BATCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SweepBatch = n
		}
	}
	if v := os.Getenv("ETCD_ENDPOINTS"); v != "" {
		for _, ep := range strings.Split(v, ",") {
			if ep = strings.TrimSpace(ep); ep != "" {
				cfg.EtcdEndpoints = append(cfg.EtcdEndpoints, ep)
			}
		}
	}
	if v := os.Getenv("SEED_PREFIX"); v != "" {
		cfg.SeedPrefix = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	return cfg
}
