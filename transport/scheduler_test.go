package transport

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// advanceUntil steps the manual clock until cond holds, failing the test if
// it never does. Stepping instead of one big jump keeps the dispatch loop's
// wait registration from racing the advance.
func advanceUntil(t *testing.T, clk *ManualClock, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		clk.Advance(0.05)
		return cond()
	}, 2*time.Second, time.Millisecond)
}

type firedLog struct {
	mu    sync.Mutex
	names []string
}

func (f *firedLog) add(name string) func() {
	return func() {
		f.mu.Lock()
		f.names = append(f.names, name)
		f.mu.Unlock()
	}
}

func (f *firedLog) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

func TestManualClockAfter(t *testing.T) {
	clk := NewManualClock()

	select {
	case <-clk.After(0):
	default:
		t.Fatal("After(0) should be closed immediately")
	}

	ch := clk.After(1.0)
	select {
	case <-ch:
		t.Fatal("waiter released before its deadline")
	default:
	}

	clk.Advance(0.5)
	select {
	case <-ch:
		t.Fatal("waiter released at half its deadline")
	default:
	}

	clk.Advance(0.5)
	select {
	case <-ch:
	default:
		t.Fatal("waiter not released at its deadline")
	}
}

func TestSchedulerFiresAfterLookAheadPlusOffset(t *testing.T) {
	clk := NewManualClock()
	s := NewScheduler(clk, 120)
	defer s.Dispose()

	var log firedLog
	h := s.Schedule(500, log.add("a"))
	require.NotNil(t, h)
	assert.InDelta(t, 0.62, h.Time, 1e-9)
	assert.True(t, s.Pending(h))

	// Not yet due: 0.55 < 0.12 + 0.5.
	clk.Advance(0.55)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, log.snapshot())
	assert.True(t, s.Pending(h))

	advanceUntil(t, clk, func() bool { return len(log.snapshot()) == 1 })
	assert.False(t, s.Pending(h))
}

func TestSchedulerOrdering(t *testing.T) {
	clk := NewManualClock()
	s := NewScheduler(clk, 120)
	defer s.Dispose()

	var log firedLog
	s.Schedule(300, log.add("late"))
	s.Schedule(100, log.add("early"))
	s.Schedule(200, log.add("mid"))
	// Same target time: registration order wins.
	s.Schedule(400, log.add("tie-1"))
	s.Schedule(400, log.add("tie-2"))

	advanceUntil(t, clk, func() bool { return len(log.snapshot()) == 5 })
	assert.Equal(t, []string{"early", "mid", "late", "tie-1", "tie-2"}, log.snapshot())
}

func TestSchedulerCancel(t *testing.T) {
	clk := NewManualClock()
	s := NewScheduler(clk, 120)
	defer s.Dispose()

	var log firedLog
	h := s.Schedule(100, log.add("cancelled"))
	kept := s.Schedule(300, log.add("kept"))

	s.Cancel(h)
	assert.False(t, s.Pending(h))
	s.Cancel(h) // repeat is a no-op
	s.Cancel(nil)

	advanceUntil(t, clk, func() bool { return len(log.snapshot()) == 1 })
	assert.Equal(t, []string{"kept"}, log.snapshot())
	assert.False(t, s.Pending(kept))
}

func TestSchedulerDispose(t *testing.T) {
	clk := NewManualClock()
	s := NewScheduler(clk, 120)

	var log firedLog
	s.Schedule(100, log.add("dropped"))
	s.Dispose()
	s.Dispose() // idempotent

	assert.Nil(t, s.Schedule(100, log.add("after-dispose")))

	clk.Advance(5)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, log.snapshot())
}

func TestSchedulerLookAheadFallback(t *testing.T) {
	clk := NewManualClock()

	s := NewScheduler(clk, 120)
	assert.InDelta(t, 0.12, s.LookAhead(), 1e-9)
	s.Dispose()

	s = NewScheduler(clk, 0)
	assert.InDelta(t, DefaultLookAheadMs/1000, s.LookAhead(), 1e-9)
	s.Dispose()
}
