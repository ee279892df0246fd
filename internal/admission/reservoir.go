package admission

import "time"

// Reservoir is a replenishing per-key quota: a token bucket with discrete
// periodic refill rather than a continuous drip. The balance is credited
// refillAmount per elapsed interval, saturating at capacity; admitted batches
// consume their record count from the balance.
//
// A Reservoir is not safe for concurrent use on its own. The owning scheduler
// entry serializes access.
type Reservoir struct {
	available      int64
	capacity       int64
	refillAmount   int64
	refillInterval time.Duration
	lastRefill     time.Time
}

// NewReservoir creates a full reservoir. The first refill becomes due one
// interval after now.
func NewReservoir(capacity, refillAmount int64, refillInterval time.Duration, now time.Time) *Reservoir {
	return &Reservoir{
		available:      capacity,
		capacity:       capacity,
		refillAmount:   refillAmount,
		refillInterval: refillInterval,
		lastRefill:     now,
	}
}

// refresh credits any refills due since lastRefill. Crediting is idempotent
// per interval boundary: lastRefill advances by whole intervals, so repeated
// calls within one interval add nothing.
func (r *Reservoir) refresh(now time.Time) {
	elapsed := now.Sub(r.lastRefill)
	if elapsed < r.refillInterval {
		return
	}

	intervals := int64(elapsed / r.refillInterval)
	r.available += intervals * r.refillAmount
	if r.available > r.capacity {
		r.available = r.capacity
	}
	r.lastRefill = r.lastRefill.Add(time.Duration(intervals) * r.refillInterval)
}

// Peek returns the current balance after applying any due refill. Refill is
// not spending, so repeated peeks never drain the reservoir.
func (r *Reservoir) Peek(now time.Time) int64 {
	r.refresh(now)
	return r.available
}

// TryConsume attempts to spend weight units. The spend is all-or-nothing: on
// success the balance drops by exactly weight, on failure it is untouched.
// A weight of zero always succeeds; a weight above capacity can never succeed
// and the caller must reject or split the batch.
func (r *Reservoir) TryConsume(weight int64, now time.Time) bool {
	r.refresh(now)
	if weight == 0 {
		return true
	}
	if weight > r.available {
		return false
	}
	r.available -= weight
	return true
}

// Capacity returns the refill target.
func (r *Reservoir) Capacity() int64 {
	return r.capacity
}
