package engine

import "math"

// Pattern builder: turns a predicted event plus its seeded random source into
// a concrete timed note sequence. Identical (event, seed, scale) inputs yield
// identical patterns; every random draw below happens in a fixed order.

// Style selection bias by intensity.
const (
	biasHighIntensity = 0.7
	biasLowIntensity  = 0.35
	biasNeutral       = 0.5
)

// ResolveLeadIn returns the pattern length in seconds for an event. A
// caller-supplied lead-in is clamped to the tuned bounds; otherwise the
// lead-in is derived from the time until impact. Either way the result is
// re-clamped so the pattern neither starts before now nor outlives the event.
func ResolveLeadIn(ev PredictedEvent, rs *Source, tun Tuning) float64 {
	var lead float64
	if ev.LeadIn != nil {
		lead = clamp(*ev.LeadIn, tun.LeadInMin, tun.LeadInMax)
	} else {
		lead = ev.TimeUntil * (0.65 + rs.Float64()*0.2)
	}
	upper := math.Min(tun.LeadInMax, math.Max(tun.LeadInMin, ev.TimeUntil-0.1))
	return clamp(lead, tun.LeadInMin, upper)
}

// BuildPattern generates the foreshadow pattern for an event. The returned
// pattern may be empty only in degenerate cases; callers skip those silently.
func BuildPattern(ev PredictedEvent, leadIn float64, rs *Source, scale Scale) Pattern {
	scale = scale.OrDefault()

	intensity := ev.intensity()
	bias := biasNeutral
	if intensity > 0.6 {
		bias = biasHighIntensity
	} else if intensity < 0.3 {
		bias = biasLowIntensity
	}

	if rs.Float64() < bias {
		return buildPercussionRamp(ev, leadIn, intensity, rs)
	}
	return buildMelodicRun(ev, leadIn, intensity, rs, scale)
}

// buildPercussionRamp emits an accelerating hit ladder whose velocity climbs
// from an intensity-derived base toward full, with a final accent landing
// exactly on the pattern's end.
func buildPercussionRamp(ev PredictedEvent, leadIn, intensity float64, rs *Source) Pattern {
	duration := clamp(leadIn, 0.45, math.Max(0.6, ev.TimeUntil-0.1))
	steps := int(math.Round(duration * 7))
	if steps < 4 {
		steps = 4
	}

	base := 0.25 + 0.35*intensity
	events := make([]PatternEvent, 0, steps+1)
	for i := 0; i < steps; i++ {
		frac := float64(i) / float64(steps)
		jitter := (rs.Float64() - 0.5) * 0.08
		events = append(events, PatternEvent{
			Offset:     duration * frac,
			Instrument: InstrumentPercussion,
			Velocity:   clamp(base+(1.0-base)*frac+jitter, 0.05, 1),
			Duration:   0.04 + rs.Float64()*0.03,
		})
	}
	// Accent lands on the event's moment.
	events = append(events, PatternEvent{
		Offset:     duration,
		Instrument: InstrumentPercussion,
		Velocity:   clamp(0.85+0.15*intensity, 0, 1),
		Duration:   0.09,
	})

	return Pattern{Duration: duration, Events: events, Instrument: InstrumentPercussion}
}

// buildMelodicRun walks forward through the scale from roughly an octave
// below the target pitch, rising each step, and lands the final note exactly
// on the target at the pattern's end.
func buildMelodicRun(ev PredictedEvent, leadIn, intensity float64, rs *Source, scale Scale) Pattern {
	duration := clamp(leadIn, 0.5, math.Max(0.65, ev.TimeUntil-0.08))
	steps := int(math.Round(duration * 4.5))
	if steps < 3 {
		steps = 3
	} else if steps > 8 {
		steps = 8
	}

	target := resolveTargetPitch(ev, rs, scale)
	start := target - 12
	gap := duration / float64(steps-1)
	base := 0.3 + 0.3*intensity

	events := make([]PatternEvent, 0, steps)
	for i := 0; i < steps-1; i++ {
		frac := float64(i) / float64(steps-1)
		wobble := (rs.Float64() - 0.5) * 3 // drift within the run, snapped to scale
		pitch := scale.Nearest(start + int(math.Round(frac*float64(target-start)+wobble)))
		events = append(events, PatternEvent{
			Offset:     gap * float64(i),
			Instrument: InstrumentMelodic,
			Pitch:      pitch,
			Velocity:   clamp(base+(0.9-base)*frac+(rs.Float64()-0.5)*0.06, 0.05, 1),
			Duration:   gap * 0.9,
		})
	}
	events = append(events, PatternEvent{
		Offset:     duration,
		Instrument: InstrumentMelodic,
		Pitch:      target,
		Velocity:   clamp(0.75+0.25*intensity, 0, 1),
		Duration:   0.35,
	})

	return Pattern{Duration: duration, Events: events, Instrument: InstrumentMelodic}
}

// resolveTargetPitch picks the pitch a melodic run resolves onto: the
// caller's hint when present, otherwise a scale degree an octave up.
func resolveTargetPitch(ev PredictedEvent, rs *Source, scale Scale) int {
	if ev.TargetPitch != nil {
		return *ev.TargetPitch
	}
	return scale[rs.IntN(len(scale))] + 12
}
