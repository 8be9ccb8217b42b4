// Package synth is the audio-rendering boundary of the foreshadow engine: a
// shared output bus that hands out per-foreshadow gain controls and voices.
// Backends exist for MIDI output, a built-in software synth, and a silent
// recorder used in tests and headless runs.
package synth

// GainControl is a per-foreshadow gain node routed into the shared bus. Each
// scheduled foreshadow owns exactly one; the engine ramps it in after the
// pattern starts and back out during cleanup or cancellation.
type GainControl interface {
	// Set jumps to a level in [0,1] immediately.
	Set(level float64)

	// RampTo moves the level toward target over the given seconds.
	RampTo(target, over float64)

	// Release frees the node. The control must not be used afterwards.
	Release()
}

// Voice renders foreshadow notes through its gain control. Melodic voices are
// polyphonic and pitched; percussion voices are one-shot hits where pitch is
// advisory.
type Voice interface {
	// Trigger starts one note. Velocity is [0,1], duration in seconds.
	// Errors are transient playback failures; callers may drop them.
	Trigger(pitch int, velocity, duration float64) error

	// Halt silences the voice immediately without releasing it.
	Halt()

	// Release frees the voice. The voice must not be used afterwards.
	Release()
}

// Synth is the external synthesizer capability: allocation of gain controls
// and voices against one shared bus.
type Synth interface {
	NewGain() GainControl
	NewMelodic(gain GainControl) Voice
	NewPercussion(gain GainControl) Voice

	// Close releases the shared bus. Idempotent.
	Close() error
}
