package transport

import (
	"sync"

	"foreshadow/debug"
)

// DefaultLookAheadMs is the scheduling buffer added to every target time so
// triggered sound lands on time despite engine buffering latency.
const DefaultLookAheadMs = 120.0

// Handle identifies one scheduled callback.
type Handle struct {
	ID   uint64
	Time float64 // absolute transport time the callback fires at
}

type entry struct {
	id   uint64
	time float64
	fn   func()
}

// Scheduler wraps a Clock with a fixed look-ahead buffer and cancellable
// handles. Callbacks fire in target-time order on a single dispatch
// goroutine; ties fire in registration order.
type Scheduler struct {
	clock     Clock
	lookAhead float64 // seconds

	mu       sync.Mutex
	active   map[uint64]*entry
	nextID   uint64
	disposed bool

	stopChan      chan struct{}
	interruptChan chan struct{} // signal dispatch loop to recalculate (set changed)
}

// NewScheduler creates a Scheduler over clock with the given look-ahead in
// milliseconds. A non-positive look-ahead falls back to the default. The
// dispatch loop starts immediately.
func NewScheduler(clock Clock, lookAheadMs float64) *Scheduler {
	if lookAheadMs <= 0 {
		lookAheadMs = DefaultLookAheadMs
	}
	s := &Scheduler{
		clock:         clock,
		lookAhead:     lookAheadMs / 1000.0,
		active:        make(map[uint64]*entry),
		stopChan:      make(chan struct{}),
		interruptChan: make(chan struct{}, 1),
	}
	go s.dispatchLoop()
	return s
}

// LookAhead returns the look-ahead in seconds. Constant for the scheduler's
// lifetime.
func (s *Scheduler) LookAhead() float64 {
	return s.lookAhead
}

// Schedule registers fn to fire once the clock reaches
// now + lookAhead + offsetMs/1000. Returns nil after Dispose.
func (s *Scheduler) Schedule(offsetMs float64, fn func()) *Handle {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.nextID++
	e := &entry{
		id:   s.nextID,
		time: s.clock.Now() + s.lookAhead + offsetMs/1000.0,
		fn:   fn,
	}
	s.active[e.id] = e
	s.mu.Unlock()

	debug.Log("sched", "schedule id=%d at=%.3f", e.id, e.time)
	s.interrupt()
	return &Handle{ID: e.id, Time: e.time}
}

// Cancel removes a pending callback. Cancelling nil, an unknown handle, or a
// handle that already fired is a no-op.
func (s *Scheduler) Cancel(h *Handle) {
	if h == nil {
		return
	}
	s.mu.Lock()
	_, ok := s.active[h.ID]
	if ok {
		delete(s.active, h.ID)
	}
	s.mu.Unlock()
	if ok {
		debug.Log("sched", "cancel id=%d", h.ID)
		s.interrupt()
	}
}

// Pending reports whether the handle has neither fired nor been cancelled.
func (s *Scheduler) Pending(h *Handle) bool {
	if h == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[h.ID]
	return ok
}

// Dispose cancels every outstanding handle and stops the dispatch loop.
// Idempotent.
func (s *Scheduler) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	n := len(s.active)
	s.active = make(map[uint64]*entry)
	s.mu.Unlock()

	close(s.stopChan)
	debug.Log("sched", "dispose, dropped %d pending", n)
}

// interrupt signals the dispatch loop to recalculate its next wait.
func (s *Scheduler) interrupt() {
	select {
	case s.interruptChan <- struct{}{}:
	default:
	}
}

// earliest returns the next entry to fire: smallest target time, then
// smallest id so same-time callbacks keep registration order.
func (s *Scheduler) earliest() *entry {
	var next *entry
	for _, e := range s.active {
		if next == nil || e.time < next.time || (e.time == next.time && e.id < next.id) {
			next = e
		}
	}
	return next
}

func (s *Scheduler) dispatchLoop() {
	for {
		s.mu.Lock()
		next := s.earliest()
		s.mu.Unlock()

		if next == nil {
			select {
			case <-s.stopChan:
				return
			case <-s.interruptChan:
			}
			continue
		}

		wait := next.time - s.clock.Now()
		if wait > 0 {
			select {
			case <-s.stopChan:
				return
			case <-s.interruptChan:
				// Set changed, recalculate.
				continue
			case <-s.clock.After(wait):
			}
		}

		// Re-verify membership: the entry may have been cancelled while we
		// slept, and the clock may not have reached the target yet if an
		// earlier waiter woke us.
		s.mu.Lock()
		e, ok := s.active[next.id]
		if ok && e.time <= s.clock.Now() {
			delete(s.active, e.id)
		} else {
			ok = false
		}
		s.mu.Unlock()

		if ok {
			e.fn()
		}
	}
}
