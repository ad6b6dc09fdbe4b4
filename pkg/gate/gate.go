// Package gate provides a shared/exclusive lock with a writer-intent
// counter layered on top of it.
//
// Writers announce themselves before they start waiting for exclusive
// access. Readers that arrive while any writer is announced park on a
// condition variable instead of joining the shared lock, so a steady
// stream of readers cannot keep a pending writer out indefinitely.
//
// The counter only gates admission of new readers. Mutual exclusion is
// still provided by the underlying sync.RWMutex.
package gate

import (
	"sync"
	"sync/atomic"
)

type Gate struct {
	rw      sync.RWMutex
	waiting atomic.Int64
	retries atomic.Uint64

	mu   sync.Mutex
	idle *sync.Cond // signalled when waiting drops to zero
}

func New() *Gate {
	g := &Gate{}
	g.idle = sync.NewCond(&g.mu)
	return g
}

// Lock acquires exclusive access. The writer is counted as waiting only
// until the exclusive lock is held.
func (g *Gate) Lock() {
	g.waiting.Add(1)
	g.rw.Lock()
	if g.waiting.Add(-1) == 0 {
		g.mu.Lock()
		g.idle.Broadcast()
		g.mu.Unlock()
	}
}

func (g *Gate) Unlock() {
	g.rw.Unlock()
}

// RLock acquires shared access once no writer is waiting. If a writer
// announces itself between the wait and the shared acquisition, the
// shared lock is dropped and admission starts over.
func (g *Gate) RLock() {
	for {
		g.mu.Lock()
		for g.waiting.Load() != 0 {
			g.idle.Wait()
		}
		g.mu.Unlock()

		g.rw.RLock()
		if g.waiting.Load() == 0 {
			return
		}
		g.rw.RUnlock()
		g.retries.Add(1)
	}
}

func (g *Gate) RUnlock() {
	g.rw.RUnlock()
}

// Waiting reports the number of writers that announced intent but do not
// hold the exclusive lock yet.
func (g *Gate) Waiting() int64 {
	return g.waiting.Load()
}

// Retries reports how many reader admissions were restarted because a
// writer showed up after the shared lock was taken.
func (g *Gate) Retries() uint64 {
	return g.retries.Load()
}
