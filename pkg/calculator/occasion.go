package calculator

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// occasionInitialInterval is the delay before the first occasion fires.
	occasionInitialInterval = 10 * time.Second

	// occasionCheapInterval is used after a callback that cost less than
	// occasionCheapThreshold: cheap occasions run about once a minute.
	occasionCheapInterval = 60 * time.Second
	occasionCheapThreshold = 2 * time.Second

	// occasionCostFactor throttles expensive callbacks (large trees being
	// serialized) so occasion overhead stays near 1/25 of the run time.
	occasionCostFactor = 25
)

// occasion is the shared adaptive timer gating progress reporting and
// checkpoint saves. Any worker may notice the interval has elapsed; only the
// one that wins the try-lock fires the callback, everyone else just keeps
// hashing. No worker ever blocks behind occasion work.
type occasion struct {
	mu      sync.Mutex
	last    atomic.Int64 // unix nanoseconds of the last occasion
	between atomic.Int64 // current interval in nanoseconds
	fire    func()
}

func newOccasion() *occasion {
	o := &occasion{}
	o.last.Store(time.Now().UnixNano())
	o.between.Store(int64(occasionInitialInterval))
	return o
}

// maybe fires the occasion callback if the adaptive interval has elapsed and
// no other worker is mid-occasion.
func (o *occasion) maybe() {
	if o.elapsed() <= time.Duration(o.between.Load()) {
		return
	}
	if !o.mu.TryLock() {
		return
	}
	defer o.mu.Unlock()

	// Another worker may have fired while we were acquiring the lock.
	if o.elapsed() <= time.Duration(o.between.Load()) {
		return
	}
	o.do()
}

// force fires the occasion callback unconditionally, serialized with maybe.
func (o *occasion) force() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.do()
}

func (o *occasion) do() {
	start := time.Now()
	o.last.Store(start.UnixNano())
	if o.fire != nil {
		o.fire()
	}

	cost := time.Since(start)
	if cost < occasionCheapThreshold {
		o.between.Store(int64(occasionCheapInterval))
	} else {
		o.between.Store(int64(cost) * occasionCostFactor)
	}
}

func (o *occasion) elapsed() time.Duration {
	return time.Duration(time.Now().UnixNano() - o.last.Load())
}
