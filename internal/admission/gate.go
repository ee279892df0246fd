package admission

import (
	"context"
	"errors"
	"time"
)

// Status classifies an admission decision.
type Status int

const (
	// Admitted means the batch's weight was consumed and the work may run.
	Admitted Status = iota
	// BadSignature means authentication failed; the key has been penalized.
	BadSignature
	// Penalized means the key is inside a penalty window; nothing was consumed.
	Penalized
	// OverQuota means the reservoir balance was below the batch's weight.
	OverQuota
)

func (s Status) String() string {
	switch s {
	case Admitted:
		return "admitted"
	case BadSignature:
		return "bad_signature"
	case Penalized:
		return "penalized"
	case OverQuota:
		return "over_quota"
	default:
		return "unknown"
	}
}

// ErrNotAdmitted is returned by Decision.Run when the decision was a rejection.
var ErrNotAdmitted = errors.New("admission: decision was not admitted")

// Decision is the outcome of a single admission attempt. Remaining carries the
// post-decision reservoir balance for response headers; RetryNotBefore is set
// only for Penalized rejections.
type Decision struct {
	Status         Status
	Remaining      int64
	RetryNotBefore time.Time

	run func(context.Context, func(context.Context) error) error
}

// Run executes work in the key's serialized execution slot. It is valid only
// on an Admitted decision and must be invoked at most once.
func (d Decision) Run(ctx context.Context, work func(context.Context) error) error {
	if d.run == nil {
		return ErrNotAdmitted
	}
	return d.run(ctx, work)
}

// Gate is the admission façade used by the transport layer. It resolves the
// key's scheduler entry and decides, in a single per-key critical section,
// whether a batch may proceed.
type Gate struct {
	sched   *Scheduler
	penalty time.Duration
}

// NewGate creates a Gate over the scheduler with the given penalty duration
// for failed authentication.
func NewGate(sched *Scheduler, penalty time.Duration) *Gate {
	return &Gate{sched: sched, penalty: penalty}
}

// Admit decides whether a batch of the given weight from the given key may be
// scheduled. The check order is fixed: signature, then penalty, then quota.
// Penalty short-circuits before the quota check so a penalized client cannot
// probe reservoir state, and a signature failure penalizes the key without
// ever touching its quota accounting.
func (g *Gate) Admit(key string, authOk bool, weight int64, now time.Time) Decision {
	e := g.sched.resolve(key, now)

	if !authOk {
		until := e.penalize(g.penalty, now)
		return Decision{Status: BadSignature, RetryNotBefore: until}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if now.Before(e.penalizedUntil) {
		return Decision{Status: Penalized, RetryNotBefore: e.penalizedUntil}
	}

	if !e.reservoir.TryConsume(weight, now) {
		return Decision{Status: OverQuota, Remaining: e.reservoir.Peek(now)}
	}

	return Decision{
		Status:    Admitted,
		Remaining: e.reservoir.Peek(now),
		run: func(ctx context.Context, work func(context.Context) error) error {
			// The entry is captured here: if the sweep evicts the key before
			// the work runs, it completes against the detached state.
			return g.sched.schedule(ctx, e, work)
		},
	}
}
