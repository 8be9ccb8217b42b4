// Package engine is the predictive audio foreshadowing engine: it receives
// upcoming gameplay impacts and schedules short generated musical phrases
// that telegraph them, timed against the transport clock the sound engine
// renders with.
package engine

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"foreshadow/debug"
	"foreshadow/synth"
	"foreshadow/transport"
)

// Phase is the lifecycle state of one scheduled foreshadow.
type Phase int

const (
	// PhaseScheduled means notes are pending or sounding.
	PhaseScheduled Phase = iota
	// PhaseDraining means cleanup has started: gain is ramping out and no
	// further notes will fire.
	PhaseDraining
)

func (p Phase) String() string {
	if p == PhaseDraining {
		return "draining"
	}
	return "scheduled"
}

// record is the runtime state of one scheduled foreshadow. Owned exclusively
// by the engine; every deferred callback re-validates membership in the
// active table before touching it.
type record struct {
	event   PredictedEvent
	pattern Pattern
	phase   Phase
	gain    synth.GainControl
	voice   synth.Voice
	notes   []*transport.Handle
	cleanup *transport.Handle
	dispose *transport.Handle
	endTime float64
}

// teardown holds the resources of a cancelled foreshadow while its fade-out
// plays; disposal is deferred so the ramp stays audible.
type teardown struct {
	id     string
	gain   synth.GainControl
	voice  synth.Voice
	handle *transport.Handle
}

// Options configures a new Engine.
type Options struct {
	Clock  transport.Clock // required
	Output synth.Synth     // required

	// Scheduler to register callbacks with. When nil the engine creates its
	// own over Clock with LookAheadMs and disposes it with the engine.
	Scheduler   *transport.Scheduler
	LookAheadMs float64

	Scale       Scale  // empty falls back to the built-in 7-note scale
	Seed        uint32 // global seed; per-event seeds derive from it
	Diagnostics Diagnostics
	Tuning      Tuning // zero fields fall back to DefaultTuning
}

// Engine owns one active playback record per predicted-event id and drives
// each through schedule, play, fade and dispose against the transport clock.
type Engine struct {
	clock     transport.Clock
	sched     *transport.Scheduler
	ownsSched bool
	out       synth.Synth
	scale     Scale
	seed      uint32
	diag      Diagnostics
	tun       Tuning

	mu          sync.Mutex
	active      map[string]*record
	teardowns   map[uint64]*teardown
	teardownSeq uint64
	disposed    bool
}

// New creates an Engine. Clock and Output are required.
func New(opts Options) *Engine {
	e := &Engine{
		clock:     opts.Clock,
		sched:     opts.Scheduler,
		out:       opts.Output,
		scale:     opts.Scale.OrDefault(),
		seed:      opts.Seed,
		diag:      opts.Diagnostics,
		tun:       opts.Tuning.sanitized(),
		active:    make(map[string]*record),
		teardowns: make(map[uint64]*teardown),
	}
	if e.sched == nil {
		e.sched = transport.NewScheduler(opts.Clock, opts.LookAheadMs)
		e.ownsSched = true
	}
	return e
}

// ScheduleEvent builds and schedules a foreshadow pattern for the event.
// Malformed input (empty id, impact too close) and degenerate patterns are
// ignored silently. Scheduling an id that is already active cancels and
// disposes the old record first, so at most one voice per id is ever audible.
func (e *Engine) ScheduleEvent(ev PredictedEvent) {
	e.mu.Lock()
	if e.disposed || ev.ID == "" || ev.TimeUntil <= e.tun.MinTimeUntil {
		e.mu.Unlock()
		return
	}

	var after []func()
	if old, ok := e.active[ev.ID]; ok {
		after = append(after, e.finalizeNowLocked(ev.ID, old, FinalizeCancelled))
	}

	rs := NewSource(DeriveSeed(ev.ID, ev.Type, e.seed))
	lead := ResolveLeadIn(ev, rs, e.tun)
	pattern := BuildPattern(ev, lead, rs, e.scale)
	if len(pattern.Events) == 0 {
		e.mu.Unlock()
		runAll(after)
		return
	}

	now := e.clock.Now()
	startOffset := ev.TimeUntil - pattern.Duration
	if startOffset < 0 {
		startOffset = 0
	}
	endOffset := math.Max(ev.TimeUntil, pattern.Duration+startOffset)

	gain := e.out.NewGain()
	var voice synth.Voice
	if pattern.Instrument == InstrumentPercussion {
		voice = e.out.NewPercussion(gain)
	} else {
		voice = e.out.NewMelodic(gain)
	}
	// Start silent; the fade-in ramp brings the record up at pattern start.
	gain.Set(0)

	rec := &record{
		event:   ev,
		pattern: pattern,
		gain:    gain,
		voice:   voice,
		endTime: now + endOffset,
	}
	e.active[ev.ID] = rec

	id := ev.ID
	rec.notes = append(rec.notes, e.sched.Schedule(startOffset*1000, func() {
		e.fadeIn(id, rec)
	}))
	for _, note := range pattern.Events {
		note := note
		rec.notes = append(rec.notes, e.sched.Schedule((startOffset+note.Offset)*1000, func() {
			e.fireNote(id, rec, note)
		}))
	}
	rec.cleanup = e.sched.Schedule((endOffset+e.tun.CleanupDelay)*1000, func() {
		e.runCleanup(id, rec)
	})
	rec.dispose = e.sched.Schedule((endOffset+e.tun.CleanupDelay+e.tun.DisposeDelay)*1000, func() {
		e.runDispose(id, rec)
	})
	e.mu.Unlock()

	runAll(after)
	debug.Log("engine", "scheduled id=%s style=%s notes=%d start=+%.3f end=+%.3f",
		id, pattern.Instrument, len(pattern.Events), startOffset, endOffset)
	if e.diag.PatternScheduled != nil {
		e.diag.PatternScheduled(id, len(pattern.Events), pattern.AverageVelocity())
	}
}

// CancelEvent halts playback for an id and fades it out. Unknown ids and
// repeated cancels are no-ops. Disposal of the record's resources is deferred
// so the fade-out stays audible; the record itself leaves the active table
// immediately.
func (e *Engine) CancelEvent(id string) {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	rec, ok := e.active[id]
	if !ok {
		e.mu.Unlock()
		return
	}
	delete(e.active, id)
	e.cancelHandlesLocked(rec)

	e.teardownSeq++
	seq := e.teardownSeq
	td := &teardown{id: id, gain: rec.gain, voice: rec.voice}
	e.teardowns[seq] = td
	gain, voice := rec.gain, rec.voice
	e.mu.Unlock()

	voice.Halt()
	gain.RampTo(0, e.tun.FadeOut)
	h := e.sched.Schedule(e.tun.CancelDisposeDelay*1000, func() {
		e.finishTeardown(seq)
	})

	e.mu.Lock()
	if td2, ok := e.teardowns[seq]; ok {
		td2.handle = h
	}
	e.mu.Unlock()

	debug.Log("engine", "cancelled id=%s", id)
}

// Dispose cancels every active foreshadow, releases the shared bus, and
// renders the engine inert. Idempotent. Every live record finalizes with
// reason cancelled before Dispose returns.
func (e *Engine) Dispose() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true

	var after []func()
	for id, rec := range e.active {
		after = append(after, e.finalizeNowLocked(id, rec, FinalizeCancelled))
	}
	e.active = make(map[string]*record)
	for _, td := range e.teardowns {
		td := td
		e.sched.Cancel(td.handle)
		after = append(after, func() {
			td.voice.Release()
			td.gain.Release()
			if e.diag.EventFinalized != nil {
				e.diag.EventFinalized(td.id, FinalizeCancelled)
			}
		})
	}
	e.teardowns = make(map[uint64]*teardown)
	e.mu.Unlock()

	runAll(after)
	e.out.Close()
	if e.ownsSched {
		e.sched.Dispose()
	}
	debug.Log("engine", "disposed")
}

// ActiveCount returns the number of live records.
func (e *Engine) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}

// ActiveInfo is a read-only snapshot of one live record, for diagnostics
// surfaces.
type ActiveInfo struct {
	ID         string
	Type       EventType
	Phase      Phase
	Instrument Instrument
	NoteCount  int
	EndTime    float64
}

// Active returns snapshots of every live record, ordered by end time.
func (e *Engine) Active() []ActiveInfo {
	e.mu.Lock()
	out := make([]ActiveInfo, 0, len(e.active))
	for id, rec := range e.active {
		out = append(out, ActiveInfo{
			ID:         id,
			Type:       rec.event.Type,
			Phase:      rec.phase,
			Instrument: rec.pattern.Instrument,
			NoteCount:  len(rec.pattern.Events),
			EndTime:    rec.endTime,
		})
	}
	e.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].EndTime != out[j].EndTime {
			return out[i].EndTime < out[j].EndTime
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// fadeIn ramps the record's gain up at pattern start.
func (e *Engine) fadeIn(id string, rec *record) {
	e.mu.Lock()
	cur, ok := e.active[id]
	if !ok || cur != rec || rec.phase != PhaseScheduled {
		e.mu.Unlock()
		return
	}
	gain := rec.gain
	e.mu.Unlock()
	gain.RampTo(1, e.tun.FadeIn)
}

// fireNote plays one pattern note. Trigger failures are swallowed so the
// schedule/cleanup/dispose chain keeps going; the worst case is a silently
// skipped note.
func (e *Engine) fireNote(id string, rec *record, note PatternEvent) {
	e.mu.Lock()
	cur, ok := e.active[id]
	if !ok || cur != rec || rec.phase != PhaseScheduled {
		e.mu.Unlock()
		return
	}
	voice := rec.voice
	e.mu.Unlock()

	if err := safeTrigger(voice, note); err != nil {
		debug.Log("engine", "trigger failed id=%s pitch=%d: %v", id, note.Pitch, err)
		return
	}
	debug.LogEvery(8, "engine", "note id=%s pitch=%d vel=%.2f", id, note.Pitch, note.Velocity)
	if e.diag.NoteTriggered != nil {
		e.diag.NoteTriggered(id, note)
	}
}

// runCleanup moves the record into Draining: gain ramps out, pending note
// callbacks are dropped.
func (e *Engine) runCleanup(id string, rec *record) {
	e.mu.Lock()
	cur, ok := e.active[id]
	if !ok || cur != rec || rec.phase != PhaseScheduled {
		e.mu.Unlock()
		return
	}
	rec.phase = PhaseDraining
	for _, h := range rec.notes {
		e.sched.Cancel(h)
	}
	gain := rec.gain
	e.mu.Unlock()

	gain.RampTo(0, e.tun.FadeOut)
	debug.Log("engine", "draining id=%s", id)
}

// runDispose frees the record's voice and gain, removes the id, and reports
// natural completion.
func (e *Engine) runDispose(id string, rec *record) {
	e.mu.Lock()
	cur, ok := e.active[id]
	if !ok || cur != rec {
		e.mu.Unlock()
		return
	}
	delete(e.active, id)
	gain, voice := rec.gain, rec.voice
	e.mu.Unlock()

	voice.Release()
	gain.Release()
	debug.Log("engine", "completed id=%s", id)
	if e.diag.EventFinalized != nil {
		e.diag.EventFinalized(id, FinalizeCompleted)
	}
}

// finishTeardown releases a cancelled record's resources after its fade-out.
func (e *Engine) finishTeardown(seq uint64) {
	e.mu.Lock()
	td, ok := e.teardowns[seq]
	if !ok {
		e.mu.Unlock()
		return
	}
	delete(e.teardowns, seq)
	e.mu.Unlock()

	td.voice.Release()
	td.gain.Release()
	if e.diag.EventFinalized != nil {
		e.diag.EventFinalized(td.id, FinalizeCancelled)
	}
}

// finalizeNowLocked tears a record down synchronously: used when an id is
// superseded by a fresh schedule and when the engine disposes. Returns the
// closure to run after the lock drops. Callers must already hold e.mu and
// have removed (or be about to clear) the record from the active table.
func (e *Engine) finalizeNowLocked(id string, rec *record, reason FinalizeReason) func() {
	delete(e.active, id)
	e.cancelHandlesLocked(rec)
	gain, voice := rec.gain, rec.voice
	return func() {
		voice.Halt()
		gain.Set(0)
		voice.Release()
		gain.Release()
		debug.Log("engine", "finalized id=%s reason=%s", id, reason)
		if e.diag.EventFinalized != nil {
			e.diag.EventFinalized(id, reason)
		}
	}
}

func (e *Engine) cancelHandlesLocked(rec *record) {
	for _, h := range rec.notes {
		e.sched.Cancel(h)
	}
	e.sched.Cancel(rec.cleanup)
	e.sched.Cancel(rec.dispose)
}

// safeTrigger isolates playback failures, panics included, to this one note.
func safeTrigger(voice synth.Voice, note PatternEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("trigger panic: %v", r)
		}
	}()
	return voice.Trigger(note.Pitch, note.Velocity, note.Duration)
}

func runAll(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}
