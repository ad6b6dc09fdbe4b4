package kv

import (
	"time"

	"go.uber.org/zap"
)

// Recorder receives per-operation observations from a Store.
type Recorder interface {
	ObserveOp(op, result string, d time.Duration)
	Evicted()
	StaleExpiry()
}

type nopRecorder struct{}

func (nopRecorder) ObserveOp(string, string, time.Duration) {}
func (nopRecorder) Evicted()                                {}
func (nopRecorder) StaleExpiry()                            {}

type Option func(*Store)

func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.rec = r
		}
	}
}
