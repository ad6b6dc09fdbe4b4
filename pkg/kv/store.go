package kv

import (
	"time"

	"go.uber.org/zap"

	"github.com/ryandielhenn/zephyrkv/pkg/gate"
)

// Operation and result labels passed to the Recorder.
const (
	OpSet    = "set"
	OpRemove = "remove"
	OpGet    = "get"
	OpRange  = "get_many_sorted"
	OpEvict  = "evict"

	ResultOK   = "ok"
	ResultHit  = "hit"
	ResultMiss = "miss"
)

// Entry is one (key, value, ttl) triple used to build a Store.
// A TTL of zero or less never expires.
type Entry struct {
	Key   string
	Value string
	TTL   time.Duration
}

type Pair struct {
	Key   string
	Value string
}

// Store is an in-memory KV with per-key TTL, ordered range scans and
// explicit eviction of expired records.
//
// Expired records are hidden from readers as soon as their expiration
// instant is reached, but stay in memory until EvictOneExpired or Remove
// takes them out.
type Store struct {
	gate  *gate.Gate
	ix    *index
	clock Clock
	log   *zap.Logger
	rec   Recorder
}

// NewStore builds a store from entries applied in order, so later entries
// for the same key replace earlier ones.
func NewStore(entries []Entry, opts ...Option) *Store {
	s := &Store{
		gate:  gate.New(),
		ix:    newIndex(),
		clock: SystemClock{},
		log:   zap.NewNop(),
		rec:   nopRecorder{},
	}
	for _, o := range opts {
		o(s)
	}

	for _, e := range entries {
		s.ix.upsert(e.Key, e.Value, expiryFor(s.clock.Now(), e.TTL))
	}
	s.log.Info("store initialized",
		zap.Int("entries", len(entries)),
		zap.Int("records", len(s.ix.points)),
		zap.Int("expiring", s.ix.expiry.Len()),
	)
	return s
}

func (s *Store) Set(key, value string, ttl time.Duration) {
	start := time.Now()
	s.gate.Lock()
	defer s.gate.Unlock()

	s.ix.upsert(key, value, expiryFor(s.clock.Now(), ttl))
	s.rec.ObserveOp(OpSet, ResultOK, time.Since(start))
}

// Remove deletes key and reports whether it was present, expired or not.
func (s *Store) Remove(key string) bool {
	start := time.Now()
	s.gate.Lock()
	defer s.gate.Unlock()

	_, ok := s.ix.erase(key)
	s.rec.ObserveOp(OpRemove, hitOrMiss(ok), time.Since(start))
	return ok
}

// Get returns the value for key. An expired record reads as absent but is
// left in place.
func (s *Store) Get(key string) (string, bool) {
	start := time.Now()
	s.gate.RLock()
	defer s.gate.RUnlock()

	r, ok := s.ix.points[key]
	if ok && r.expired(s.clock.Now()) {
		ok = false
	}
	s.rec.ObserveOp(OpGet, hitOrMiss(ok), time.Since(start))
	if !ok {
		return "", false
	}
	return r.value, true
}

// GetManySorted returns up to count live pairs with key >= start in
// ascending key order. Expired records are skipped, not evicted.
func (s *Store) GetManySorted(start string, count int) []Pair {
	if count <= 0 {
		return nil
	}

	begin := time.Now()
	s.gate.RLock()
	defer s.gate.RUnlock()

	now := s.clock.Now()
	out := make([]Pair, 0, min(count, len(s.ix.points)))
	s.ix.ascend(start, func(r *record) bool {
		if !r.expired(now) {
			out = append(out, Pair{Key: r.key, Value: r.value})
		}
		return len(out) < count
	})
	s.rec.ObserveOp(OpRange, ResultOK, time.Since(begin))
	return out
}

// EvictOneExpired removes the record with the earliest due expiration and
// returns it. It reports false when nothing is due.
func (s *Store) EvictOneExpired() (Pair, bool) {
	start := time.Now()
	s.gate.Lock()
	defer s.gate.Unlock()

	item, r, due := s.ix.popDue(s.clock.Now())
	if !due {
		s.rec.ObserveOp(OpEvict, ResultMiss, time.Since(start))
		return Pair{}, false
	}
	if r == nil {
		s.log.Debug("dropped stale expiry entry", zap.String("key", item.key), zap.Time("at", item.at))
		s.rec.StaleExpiry()
		s.rec.ObserveOp(OpEvict, ResultMiss, time.Since(start))
		return Pair{}, false
	}

	s.log.Debug("evicted expired record", zap.String("key", r.key), zap.Time("expires_at", r.expiresAt))
	s.rec.Evicted()
	s.rec.ObserveOp(OpEvict, ResultHit, time.Since(start))
	return Pair{Key: r.key, Value: r.value}, true
}

// Len returns the number of records held, including expired ones not yet
// evicted.
func (s *Store) Len() int {
	s.gate.RLock()
	defer s.gate.RUnlock()
	return len(s.ix.points)
}

// PendingExpiry returns the number of records that carry an expiration.
func (s *Store) PendingExpiry() int {
	s.gate.RLock()
	defer s.gate.RUnlock()
	return s.ix.expiry.Len()
}

func (s *Store) GateWaiting() int64  { return s.gate.Waiting() }
func (s *Store) GateRetries() uint64 { return s.gate.Retries() }

func hitOrMiss(ok bool) string {
	if ok {
		return ResultHit
	}
	return ResultMiss
}
