package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func buildFor(ev PredictedEvent, global uint32) (float64, Pattern) {
	rs := NewSource(DeriveSeed(ev.ID, ev.Type, global))
	lead := ResolveLeadIn(ev, rs, DefaultTuning())
	return lead, BuildPattern(ev, lead, rs, nil)
}

func TestResolveLeadIn(t *testing.T) {
	tun := DefaultTuning()

	t.Run("supplied clamps to bounds", func(t *testing.T) {
		ev := PredictedEvent{ID: "a", Type: EventBrickHit, TimeUntil: 10, LeadIn: floatPtr(5)}
		assert.InDelta(t, tun.LeadInMax, ResolveLeadIn(ev, NewSource(1), tun), 1e-9)

		ev.LeadIn = floatPtr(0.1)
		assert.InDelta(t, tun.LeadInMin, ResolveLeadIn(ev, NewSource(1), tun), 1e-9)
	})

	t.Run("supplied in range passes through", func(t *testing.T) {
		ev := PredictedEvent{ID: "a", Type: EventBrickHit, TimeUntil: 10, LeadIn: floatPtr(1.2)}
		assert.InDelta(t, 1.2, ResolveLeadIn(ev, NewSource(1), tun), 1e-9)
	})

	t.Run("derived stays inside its window", func(t *testing.T) {
		ev := PredictedEvent{ID: "a", Type: EventBrickHit, TimeUntil: 2.0}
		lead := ResolveLeadIn(ev, NewSource(99), tun)
		// timeUntil * [0.65, 0.85], capped at timeUntil-0.1
		assert.GreaterOrEqual(t, lead, 1.3-1e-9)
		assert.LessOrEqual(t, lead, 1.7+1e-9)
	})

	t.Run("short event pins to the minimum", func(t *testing.T) {
		ev := PredictedEvent{ID: "a", Type: EventBrickHit, TimeUntil: 0.3}
		assert.InDelta(t, tun.LeadInMin, ResolveLeadIn(ev, NewSource(99), tun), 1e-9)
	})

	t.Run("deterministic per seed", func(t *testing.T) {
		ev := PredictedEvent{ID: "a", Type: EventBrickHit, TimeUntil: 1.7}
		assert.Equal(t, ResolveLeadIn(ev, NewSource(5), tun), ResolveLeadIn(ev, NewSource(5), tun))
	})
}

func TestBuildPatternDeterministic(t *testing.T) {
	ev := PredictedEvent{
		ID:        "brick-9",
		Type:      EventBrickHit,
		TimeUntil: 1.8,
		Intensity: floatPtr(0.7),
	}
	lead1, p1 := buildFor(ev, 42)
	lead2, p2 := buildFor(ev, 42)
	assert.Equal(t, lead1, lead2)
	assert.Equal(t, p1, p2)

	// A different global seed shifts the content.
	_, p3 := buildFor(ev, 43)
	assert.NotEqual(t, p1, p3)
}

func TestBuildPatternPercussionRamp(t *testing.T) {
	ev := PredictedEvent{
		ID:        "brick-1",
		Type:      EventBrickHit,
		TimeUntil: 1.5,
		Intensity: floatPtr(0.9),
	}
	_, p := buildFor(ev, 1)

	require.Equal(t, InstrumentPercussion, p.Instrument)
	require.Len(t, p.Events, 8)
	assert.InDelta(t, 1.0375147270504386, p.Duration, 1e-9)

	// Accent lands exactly on the pattern end at near-full velocity.
	last := p.Events[len(p.Events)-1]
	assert.Equal(t, p.Duration, last.Offset)
	assert.InDelta(t, 0.985, last.Velocity, 1e-9)

	// Ramp is ordered and velocities trend upward toward the accent.
	for i, n := range p.Events {
		assert.Equal(t, InstrumentPercussion, n.Instrument)
		assert.GreaterOrEqual(t, n.Velocity, 0.05)
		assert.LessOrEqual(t, n.Velocity, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, n.Offset, p.Events[i-1].Offset)
		}
	}
	assert.Greater(t, last.Velocity, p.Events[0].Velocity)
}

func TestBuildPatternMelodicRun(t *testing.T) {
	ev := PredictedEvent{
		ID:          "note-3",
		Type:        EventBrickHit,
		TimeUntil:   1.8,
		Intensity:   floatPtr(0.5),
		TargetPitch: intPtr(76),
	}
	_, p := buildFor(ev, 1)

	require.Equal(t, InstrumentMelodic, p.Instrument)
	require.Len(t, p.Events, 6)
	assert.InDelta(t, 1.337043263297528, p.Duration, 1e-9)

	// Final note resolves onto the hinted pitch, exactly at the pattern end.
	last := p.Events[len(p.Events)-1]
	assert.Equal(t, 76, last.Pitch)
	assert.Equal(t, p.Duration, last.Offset)
	assert.InDelta(t, 0.875, last.Velocity, 1e-9)

	// Run rises from roughly an octave below, snapped to the scale.
	for i, n := range p.Events[:len(p.Events)-1] {
		assert.Equal(t, InstrumentMelodic, n.Instrument)
		assert.Equal(t, n.Pitch, DefaultScale.Nearest(n.Pitch), "note %d not on scale", i)
		assert.GreaterOrEqual(t, n.Pitch, 76-12-3)
		assert.LessOrEqual(t, n.Pitch, 76+3)
	}
	assert.Less(t, p.Events[0].Pitch, last.Pitch)
}

func TestBuildPatternIntensityBias(t *testing.T) {
	count := func(intensity float64) int {
		perc := 0
		for i := 0; i < 60; i++ {
			ev := PredictedEvent{
				ID:        fmt.Sprintf("b-%d", i),
				Type:      EventBrickHit,
				TimeUntil: 1.5,
				Intensity: floatPtr(intensity),
			}
			if _, p := buildFor(ev, 1); p.Instrument == InstrumentPercussion {
				perc++
			}
		}
		return perc
	}

	assert.Greater(t, count(0.9), 30, "high intensity should favor percussion")
	assert.Less(t, count(0.2), 30, "low intensity should favor melodic")
}

func TestBuildPatternRespectsTimeUntil(t *testing.T) {
	// Long lead-in request against a close event: duration may not push the
	// pattern past the impact by more than the builder's floor allows.
	for i := 0; i < 20; i++ {
		ev := PredictedEvent{
			ID:        fmt.Sprintf("close-%d", i),
			Type:      EventPaddleBounce,
			TimeUntil: 0.9,
			LeadIn:    floatPtr(2.6),
		}
		_, p := buildFor(ev, 7)
		require.NotEmpty(t, p.Events)
		assert.LessOrEqual(t, p.Duration, 0.9)
		assert.Equal(t, p.Duration, p.Events[len(p.Events)-1].Offset)
	}
}

func TestAverageVelocity(t *testing.T) {
	p := Pattern{Events: []PatternEvent{{Velocity: 0.2}, {Velocity: 0.4}, {Velocity: 0.9}}}
	assert.InDelta(t, 0.5, p.AverageVelocity(), 1e-9)

	assert.Zero(t, Pattern{}.AverageVelocity())
}
