package harvest

import (
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 9, 11, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestBudgetExhaustion(t *testing.T) {
	clock := newFakeClock()
	b := &Budget{limit: 10 * time.Second, margin: 3 * time.Second, now: clock.Now}
	b.start = clock.Now()

	if b.Exhausted() {
		t.Fatal("fresh budget must not be exhausted")
	}

	clock.Advance(6 * time.Second)
	if b.Exhausted() {
		t.Fatalf("4s remaining with 3s margin must not be exhausted (remaining=%v)", b.Remaining())
	}

	clock.Advance(1 * time.Second)
	if !b.Exhausted() {
		t.Fatalf("3s remaining with 3s margin must be exhausted (remaining=%v)", b.Remaining())
	}
	if b.Elapsed() != 7*time.Second {
		t.Errorf("elapsed = %v, want 7s", b.Elapsed())
	}
}

func TestBudgetUnbounded(t *testing.T) {
	clock := newFakeClock()
	b := &Budget{limit: 0, margin: 3 * time.Second, now: clock.Now}
	b.start = clock.Now()

	clock.Advance(1000 * time.Hour)
	if b.Exhausted() {
		t.Fatal("a zero limit means no budget; it never exhausts")
	}
}
