package synth

import (
	"errors"
	"sync"
)

// Silent is a Synth that renders nothing and records what was asked of it.
// Used by tests and headless runs.
type Silent struct {
	mu sync.Mutex

	// FailTriggers makes every Trigger return an error, for exercising the
	// engine's swallow-and-continue path.
	FailTriggers bool

	gains    int
	voices   int
	released int
	triggers []SilentTrigger
	closed   bool
}

// SilentTrigger records one Trigger call.
type SilentTrigger struct {
	Melodic  bool
	Pitch    int
	Velocity float64
	Duration float64
}

// NewSilent creates a silent backend.
func NewSilent() *Silent {
	return &Silent{}
}

func (s *Silent) NewGain() GainControl {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gains++
	return &silentGain{parent: s}
}

func (s *Silent) NewMelodic(gain GainControl) Voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voices++
	return &silentVoice{parent: s, melodic: true}
}

func (s *Silent) NewPercussion(gain GainControl) Voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voices++
	return &silentVoice{parent: s, melodic: false}
}

func (s *Silent) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Triggers returns a snapshot of every recorded Trigger call.
func (s *Silent) Triggers() []SilentTrigger {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SilentTrigger, len(s.triggers))
	copy(out, s.triggers)
	return out
}

// LiveAllocations returns allocated-but-unreleased gains plus voices.
func (s *Silent) LiveAllocations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gains + s.voices - s.released
}

// Closed reports whether the bus was released.
func (s *Silent) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type silentGain struct {
	parent   *Silent
	released bool
}

func (g *silentGain) Set(level float64)           {}
func (g *silentGain) RampTo(target, over float64) {}

func (g *silentGain) Release() {
	g.parent.mu.Lock()
	defer g.parent.mu.Unlock()
	if !g.released {
		g.released = true
		g.parent.released++
	}
}

type silentVoice struct {
	parent   *Silent
	melodic  bool
	released bool
}

func (v *silentVoice) Trigger(pitch int, velocity, duration float64) error {
	v.parent.mu.Lock()
	defer v.parent.mu.Unlock()
	if v.parent.FailTriggers {
		return errors.New("synth: device unavailable")
	}
	v.parent.triggers = append(v.parent.triggers, SilentTrigger{
		Melodic:  v.melodic,
		Pitch:    pitch,
		Velocity: velocity,
		Duration: duration,
	})
	return nil
}

func (v *silentVoice) Halt() {}

func (v *silentVoice) Release() {
	v.parent.mu.Lock()
	defer v.parent.mu.Unlock()
	if !v.released {
		v.released = true
		v.parent.released++
	}
}
