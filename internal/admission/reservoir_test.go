package admission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReservoir_StartsFull(t *testing.T) {
	now := time.Now()
	r := NewReservoir(10, 10, time.Minute, now)

	assert.Equal(t, int64(10), r.Peek(now))
	assert.Equal(t, int64(10), r.Capacity())
}

func TestReservoir_TryConsume(t *testing.T) {
	now := time.Now()
	r := NewReservoir(10, 10, time.Minute, now)

	assert.True(t, r.TryConsume(4, now))
	assert.Equal(t, int64(6), r.Peek(now))

	assert.True(t, r.TryConsume(6, now))
	assert.Equal(t, int64(0), r.Peek(now))

	assert.False(t, r.TryConsume(1, now))
	assert.Equal(t, int64(0), r.Peek(now))
}

func TestReservoir_NoPartialConsumption(t *testing.T) {
	now := time.Now()
	r := NewReservoir(10, 10, time.Minute, now)

	assert.True(t, r.TryConsume(7, now))
	assert.False(t, r.TryConsume(5, now))

	// The failed consume must leave the balance untouched.
	assert.Equal(t, int64(3), r.Peek(now))
}

func TestReservoir_ZeroWeightAlwaysSucceeds(t *testing.T) {
	now := time.Now()
	r := NewReservoir(10, 10, time.Minute, now)

	assert.True(t, r.TryConsume(10, now))
	assert.Equal(t, int64(0), r.Peek(now))

	assert.True(t, r.TryConsume(0, now))
	assert.Equal(t, int64(0), r.Peek(now))
}

func TestReservoir_WeightAboveCapacityNeverSucceeds(t *testing.T) {
	now := time.Now()
	r := NewReservoir(10, 10, time.Minute, now)

	assert.False(t, r.TryConsume(11, now))
	assert.Equal(t, int64(10), r.Peek(now))

	// Even after many refills the balance saturates at capacity.
	assert.False(t, r.TryConsume(11, now.Add(10*time.Minute)))
}

func TestReservoir_ConsumedSumNeverExceedsInitial(t *testing.T) {
	now := time.Now()
	r := NewReservoir(100, 100, time.Hour, now)

	var consumed int64
	weights := []int64{30, 30, 30, 30, 30, 5, 5, 5, 1, 1, 1}
	for _, w := range weights {
		if r.TryConsume(w, now) {
			consumed += w
		}
	}

	assert.LessOrEqual(t, consumed, int64(100))
	assert.Equal(t, int64(100)-consumed, r.Peek(now))
}

func TestReservoir_RefillSaturatesAtCapacity(t *testing.T) {
	now := time.Now()
	r := NewReservoir(10, 10, time.Minute, now)

	assert.True(t, r.TryConsume(3, now))

	// Many elapsed intervals never bank past capacity.
	assert.Equal(t, int64(10), r.Peek(now.Add(100*time.Minute)))
}

func TestReservoir_RefillIdempotentWithinInterval(t *testing.T) {
	now := time.Now()
	r := NewReservoir(10, 2, time.Minute, now)

	assert.True(t, r.TryConsume(8, now))
	assert.Equal(t, int64(2), r.Peek(now))

	later := now.Add(time.Minute)
	assert.Equal(t, int64(4), r.Peek(later))

	// Repeated peeks within the same interval credit nothing further.
	assert.Equal(t, int64(4), r.Peek(later))
	assert.Equal(t, int64(4), r.Peek(later.Add(30*time.Second)))
}

func TestReservoir_PartialRefillPerInterval(t *testing.T) {
	now := time.Now()
	r := NewReservoir(10, 3, time.Minute, now)

	assert.True(t, r.TryConsume(10, now))

	assert.Equal(t, int64(0), r.Peek(now.Add(30*time.Second)))
	assert.Equal(t, int64(3), r.Peek(now.Add(time.Minute)))
	assert.Equal(t, int64(9), r.Peek(now.Add(3*time.Minute)))
	assert.Equal(t, int64(10), r.Peek(now.Add(4*time.Minute)))
}

func TestReservoir_PeekHasNoSpendEffect(t *testing.T) {
	now := time.Now()
	r := NewReservoir(10, 10, time.Minute, now)

	for i := 0; i < 100; i++ {
		assert.Equal(t, int64(10), r.Peek(now))
	}
}
