// Package admission implements the gateway's admission-control core: a keyed
// registry of replenishing quotas (reservoirs) with per-key serialized
// execution, authentication penalties, and idle-state eviction. Keys are
// derived from the client's network origin; unrelated keys never contend.
package admission

import (
	"context"
	"sync"
	"time"

	"metricsgw/internal/models"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// entry holds all per-key state: the quota reservoir, the penalty deadline,
// the single-occupancy execution slot, and the pacer enforcing minimum spacing
// between scheduled operations.
type entry struct {
	mu             sync.Mutex // guards reservoir and penalizedUntil
	reservoir      *Reservoir
	penalizedUntil time.Time

	// slot serializes work for the key. semaphore.Weighted wakes waiters in
	// FIFO order, which gives the strict program-order execution guarantee.
	slot  *semaphore.Weighted
	pacer *rate.Limiter

	lastSeen time.Time // guarded by Scheduler.mu
}

// penalize extends the penalty deadline. A later existing deadline wins;
// penalties never shorten one another.
func (e *entry) penalize(d time.Duration, now time.Time) time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	until := now.Add(d)
	if until.After(e.penalizedUntil) {
		e.penalizedUntil = until
	}
	return e.penalizedUntil
}

// Scheduler owns the key-to-entry registry. Entries are created on first use,
// mutated under per-key locks, and evicted by a background sweep once idle.
// The registry mutex covers only map access; quota and penalty mutations take
// the entry lock, so different keys never contend on admission decisions.
type Scheduler struct {
	capacity       int64
	refillAmount   int64
	refillInterval time.Duration
	minSpacing     time.Duration
	idleThreshold  time.Duration
	sweepInterval  time.Duration

	mu      sync.Mutex
	entries map[string]*entry
	done    chan struct{}
	closed  bool
}

// NewScheduler creates a scheduler from admission configuration and starts
// the background eviction sweep.
func NewScheduler(cfg models.AdmissionConfig) *Scheduler {
	s := &Scheduler{
		capacity:       cfg.Capacity,
		refillAmount:   cfg.RefillAmount,
		refillInterval: cfg.RefillInterval,
		minSpacing:     cfg.MinSpacing,
		idleThreshold:  cfg.IdleThreshold,
		sweepInterval:  cfg.SweepInterval,
		entries:        make(map[string]*entry),
		done:           make(chan struct{}),
	}
	go s.sweep()
	return s
}

// resolve returns the entry for key, creating it with a full reservoir and no
// penalty on first sight. Creation races are settled by the registry mutex:
// one creation wins and every concurrent caller observes the same entry.
func (s *Scheduler) resolve(key string, now time.Time) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		pace := rate.NewLimiter(rate.Inf, 1)
		if s.minSpacing > 0 {
			pace = rate.NewLimiter(rate.Every(s.minSpacing), 1)
		}
		e = &entry{
			reservoir: NewReservoir(s.capacity, s.refillAmount, s.refillInterval, now),
			slot:      semaphore.NewWeighted(1),
			pacer:     pace,
		}
		s.entries[key] = e
	}
	e.lastSeen = now
	return e
}

// Penalize sets the key's penalty deadline to now+d, or leaves a later
// existing deadline in place. The key's entry is created if unseen: forged
// requests from a new origin still acquire penalty state.
func (s *Scheduler) Penalize(key string, d time.Duration, now time.Time) time.Time {
	return s.resolve(key, now).penalize(d, now)
}

// IsPenalized reports whether the key is inside a penalty window.
func (s *Scheduler) IsPenalized(key string, now time.Time) bool {
	e := s.resolve(key, now)
	e.mu.Lock()
	defer e.mu.Unlock()
	return now.Before(e.penalizedUntil)
}

// schedule runs work in the entry's execution slot: at most one operation per
// key at a time, in admission order, with the pacer enforcing the configured
// minimum spacing between consecutive operations. Quota has already been
// consumed by the gate; this is purely a serialization primitive.
func (s *Scheduler) schedule(ctx context.Context, e *entry, work func(context.Context) error) error {
	if err := e.slot.Acquire(ctx, 1); err != nil {
		return err
	}
	defer e.slot.Release(1)

	if err := e.pacer.Wait(ctx); err != nil {
		return err
	}
	return work(ctx)
}

// EvictIdle removes entries last seen before now minus the idle threshold.
// An entry whose execution slot is held (or contended) is skipped and retried
// on a later sweep; in-flight work is never destroyed. It returns the number
// of entries evicted.
//
// A caller that resolved an entry just before eviction completes against the
// detached state; the key's next request starts over with a full reservoir.
func (s *Scheduler) EvictIdle(now time.Time) int {
	cutoff := now.Add(-s.idleThreshold)
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, e := range s.entries {
		if !e.lastSeen.Before(cutoff) {
			continue
		}
		if !e.slot.TryAcquire(1) {
			continue
		}
		delete(s.entries, key)
		e.slot.Release(1)
		evicted++
	}
	return evicted
}

// sweep periodically evicts idle entries until Close.
func (s *Scheduler) sweep() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.EvictIdle(time.Now())
		}
	}
}

// Len returns the number of tracked keys.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the background sweep goroutine.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
}
