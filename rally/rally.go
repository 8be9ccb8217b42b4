// Package rally simulates a breakout rally: it invents upcoming brick hits
// and paddle bounces and feeds them to the foreshadowing engine, so the
// whole pipeline can be heard and watched without a game attached.
package rally

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"foreshadow/debug"
	"foreshadow/engine"
	"foreshadow/synth"
	"foreshadow/transport"
)

// FeedLine is one rendered diagnostics line for the TUI event feed.
type FeedLine struct {
	At       float64 // transport time when it happened
	Kind     string  // "scheduled", "note", "completed", "cancelled"
	Text     string
	Velocity float64 // for note lines, 0 otherwise
}

const feedCap = 14

// Rally owns the engine plus the demo state around it.
type Rally struct {
	Engine *engine.Engine
	clock  transport.Clock

	mu         sync.Mutex
	rng        *rand.Rand
	nextBrick  int
	nextPaddle int
	feed       []FeedLine
	auto       bool
	autoStop   chan struct{}
	stopped    bool

	// UpdateChan gets a non-blocking tick whenever visible state changes.
	UpdateChan chan struct{}
}

// New builds a rally around the given output backend. The engine's
// diagnostics are wired into the rally's event feed.
func New(out synth.Synth, clock transport.Clock, seed uint32, scale engine.Scale, lookAheadMs float64, tun engine.Tuning) *Rally {
	r := &Rally{
		clock:      clock,
		rng:        rand.New(rand.NewSource(int64(seed))),
		UpdateChan: make(chan struct{}, 1),
	}
	r.Engine = engine.New(engine.Options{
		Clock:       clock,
		Output:      out,
		LookAheadMs: lookAheadMs,
		Scale:       scale,
		Seed:        seed,
		Tuning:      tun,
		Diagnostics: engine.Diagnostics{
			PatternScheduled: func(id string, notes int, avgVel float64) {
				r.push(FeedLine{
					At:   clock.Now(),
					Kind: "scheduled",
					Text: fmt.Sprintf("%s  %d notes  avg vel %.2f", id, notes, avgVel),
				})
			},
			NoteTriggered: func(id string, note engine.PatternEvent) {
				r.push(FeedLine{
					At:       clock.Now(),
					Kind:     "note",
					Text:     fmt.Sprintf("%s  pitch %d", id, note.Pitch),
					Velocity: note.Velocity,
				})
			},
			EventFinalized: func(id string, reason engine.FinalizeReason) {
				r.push(FeedLine{
					At:   clock.Now(),
					Kind: string(reason),
					Text: id,
				})
			},
		},
	})
	return r
}

// ScheduleBrick feeds the engine one upcoming brick hit.
func (r *Rally) ScheduleBrick() {
	r.mu.Lock()
	r.nextBrick++
	id := fmt.Sprintf("brick-%d", r.nextBrick)
	ev := engine.PredictedEvent{
		ID:        id,
		Type:      engine.EventBrickHit,
		TimeUntil: 0.8 + r.rng.Float64()*1.8,
	}
	if r.rng.Float64() < 0.5 {
		pitch := 72 + r.rng.Intn(12)
		ev.TargetPitch = &pitch
	}
	intensity := 0.35 + r.rng.Float64()*0.6
	ev.Intensity = &intensity
	r.mu.Unlock()

	r.Engine.ScheduleEvent(ev)
	r.notifyUpdate()
}

// SchedulePaddle feeds the engine one upcoming paddle bounce.
func (r *Rally) SchedulePaddle() {
	r.mu.Lock()
	r.nextPaddle++
	id := fmt.Sprintf("paddle-%d", r.nextPaddle)
	ev := engine.PredictedEvent{
		ID:        id,
		Type:      engine.EventPaddleBounce,
		TimeUntil: 0.6 + r.rng.Float64()*1.2,
	}
	intensity := 0.5 + r.rng.Float64()*0.5
	ev.Intensity = &intensity
	r.mu.Unlock()

	r.Engine.ScheduleEvent(ev)
	r.notifyUpdate()
}

// CancelNext cancels the record closest to its event, as if the ball
// got deflected.
func (r *Rally) CancelNext() {
	active := r.Engine.Active()
	if len(active) == 0 {
		return
	}
	r.Engine.CancelEvent(active[0].ID)
	r.notifyUpdate()
}

// CancelAll wipes every pending foreshadow.
func (r *Rally) CancelAll() {
	for _, info := range r.Engine.Active() {
		r.Engine.CancelEvent(info.ID)
	}
	r.notifyUpdate()
}

// ToggleAuto starts or stops the self-playing rally loop.
func (r *Rally) ToggleAuto() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return false
	}
	if r.auto {
		close(r.autoStop)
		r.auto = false
		debug.Log("rally", "auto rally stopped")
		return false
	}
	r.auto = true
	r.autoStop = make(chan struct{})
	go r.autoLoop(r.autoStop)
	debug.Log("rally", "auto rally started")
	return true
}

// Auto reports whether the self-playing loop is running.
func (r *Rally) Auto() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.auto
}

func (r *Rally) autoLoop(stop chan struct{}) {
	for {
		r.mu.Lock()
		wait := time.Duration(600+r.rng.Intn(900)) * time.Millisecond
		roll := r.rng.Float64()
		r.mu.Unlock()

		select {
		case <-stop:
			return
		case <-time.After(wait):
		}

		switch {
		case roll < 0.45:
			r.ScheduleBrick()
		case roll < 0.8:
			r.SchedulePaddle()
		default:
			r.CancelNext()
		}
	}
}

// Feed returns a copy of the recent diagnostics lines, newest last.
func (r *Rally) Feed() []FeedLine {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]FeedLine, len(r.feed))
	copy(out, r.feed)
	return out
}

// Now returns the transport time for display.
func (r *Rally) Now() float64 {
	return r.clock.Now()
}

// Stop shuts down the auto loop and disposes the engine.
func (r *Rally) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	if r.auto {
		close(r.autoStop)
		r.auto = false
	}
	r.mu.Unlock()

	r.Engine.Dispose()
}

func (r *Rally) push(line FeedLine) {
	r.mu.Lock()
	r.feed = append(r.feed, line)
	if len(r.feed) > feedCap {
		r.feed = r.feed[len(r.feed)-feedCap:]
	}
	r.mu.Unlock()
	r.notifyUpdate()
}

func (r *Rally) notifyUpdate() {
	select {
	case r.UpdateChan <- struct{}{}:
	default:
	}
}
