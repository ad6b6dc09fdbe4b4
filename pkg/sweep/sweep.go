// Package sweep drives active eviction of expired records.
package sweep

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ryandielhenn/zephyrkv/pkg/kv"
)

const (
	DefaultInterval = time.Second
	DefaultBatch    = 128
)

// Evictor is the part of a store the sweeper needs.
type Evictor interface {
	EvictOneExpired() (kv.Pair, bool)
}

type Config struct {
	Interval time.Duration
	// Batch caps evictions per tick so one sweep cannot hold off readers
	// for long.
	Batch  int
	Logger *zap.Logger
}

type Sweeper struct {
	ev  Evictor
	cfg Config
}

func New(ev Evictor, cfg Config) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Batch <= 0 {
		cfg.Batch = DefaultBatch
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Sweeper{ev: ev, cfg: cfg}
}

// DrainOnce evicts due records until none is due or the batch limit is hit.
// It returns the number of records evicted.
func (s *Sweeper) DrainOnce() int {
	n := 0
	for n < s.cfg.Batch {
		if _, ok := s.ev.EvictOneExpired(); !ok {
			break
		}
		n++
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.cfg.Logger.Info("sweeper started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("batch", s.cfg.Batch),
	)
	var total int
	for {
		select {
		case <-ctx.Done():
			s.cfg.Logger.Info("sweeper stopped", zap.Int("evicted", total))
			return
		case <-ticker.C:
			if n := s.DrainOnce(); n > 0 {
				total += n
				s.cfg.Logger.Debug("sweep", zap.Int("evicted", n))
			}
		}
	}
}
