package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOccasionDoesNotFireEarly(t *testing.T) {
	o := newOccasion()
	fired := 0
	o.fire = func() { fired++ }

	o.maybe()
	o.maybe()
	assert.Zero(t, fired, "initial interval has not elapsed")
}

func TestOccasionFiresAfterInterval(t *testing.T) {
	o := newOccasion()
	fired := 0
	o.fire = func() { fired++ }

	o.last.Store(time.Now().Add(-time.Minute).UnixNano())
	o.maybe()
	assert.Equal(t, 1, fired)

	// Immediately after firing the interval is fresh again.
	o.maybe()
	assert.Equal(t, 1, fired)
}

func TestOccasionCheapCallbackIntervalIsOneMinute(t *testing.T) {
	o := newOccasion()
	o.fire = func() {}

	o.force()
	assert.Equal(t, int64(occasionCheapInterval), o.between.Load())
}

func TestOccasionExpensiveCallbackIsThrottled(t *testing.T) {
	if testing.Short() {
		t.Skip("sleeps past the cheap-callback threshold")
	}

	o := newOccasion()
	cost := occasionCheapThreshold + 100*time.Millisecond
	o.fire = func() { time.Sleep(cost) }

	o.force()
	between := time.Duration(o.between.Load())
	assert.GreaterOrEqual(t, between, occasionCostFactor*cost)
}

func TestOccasionSkipsWhenLocked(t *testing.T) {
	o := newOccasion()
	fired := 0
	o.fire = func() { fired++ }
	o.last.Store(time.Now().Add(-time.Minute).UnixNano())

	// Another worker is mid-occasion: the check must be skipped without
	// blocking.
	o.mu.Lock()
	done := make(chan struct{})
	go func() {
		o.maybe()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("maybe() blocked behind a held occasion lock")
	}
	o.mu.Unlock()

	assert.Zero(t, fired)
}
