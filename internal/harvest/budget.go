package harvest

import "time"

// Budget tracks the wall-clock allowance of one harvest run. A safety
// margin is reserved so the loop stops with enough time left to flush
// the final batch and emit the run result.
type Budget struct {
	start  time.Time
	limit  time.Duration
	margin time.Duration
	now    func() time.Time
}

// NewBudget starts the clock. A non-positive limit means unbounded.
func NewBudget(limit, margin time.Duration) *Budget {
	b := &Budget{
		limit:  limit,
		margin: margin,
		now:    time.Now,
	}
	b.start = b.now()
	return b
}

// Elapsed is the time consumed since the budget started.
func (b *Budget) Elapsed() time.Duration {
	return b.now().Sub(b.start)
}

// Remaining is the time left before the limit, ignoring the margin.
func (b *Budget) Remaining() time.Duration {
	if b.limit <= 0 {
		return time.Duration(1<<62 - 1)
	}
	return b.limit - b.Elapsed()
}

// Exhausted reports whether the loop must stop now: the remaining time
// has fallen inside the safety margin.
func (b *Budget) Exhausted() bool {
	if b.limit <= 0 {
		return false
	}
	return b.Remaining() <= b.margin
}
