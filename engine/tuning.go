package engine

// Tuning holds the hand-tuned timing constants of the foreshadow lifecycle.
// The defaults are the values the feature shipped with; they are exposed for
// configuration rather than re-derived.
type Tuning struct {
	// MinTimeUntil rejects predictions too close to fit a pattern.
	MinTimeUntil float64

	// LeadInMin/LeadInMax bound the resolved pattern lead-in.
	LeadInMin float64
	LeadInMax float64

	// FadeIn is the gain ramp 0 -> 1 right after pattern start.
	FadeIn float64

	// FadeOut is the gain ramp to 0 during cleanup or cancellation.
	FadeOut float64

	// CleanupDelay is how long after the pattern's end time cleanup runs.
	CleanupDelay float64

	// DisposeDelay separates cleanup from resource disposal.
	DisposeDelay float64

	// CancelDisposeDelay defers disposal after an explicit cancel so the
	// fade-out stays audible.
	CancelDisposeDelay float64
}

// DefaultTuning returns the shipped lifecycle constants.
func DefaultTuning() Tuning {
	return Tuning{
		MinTimeUntil:       0.2,
		LeadInMin:          0.35,
		LeadInMax:          2.6,
		FadeIn:             0.12,
		FadeOut:            0.18,
		CleanupDelay:       0.35,
		DisposeDelay:       0.22,
		CancelDisposeDelay: 0.24,
	}
}

// sanitized fills non-positive fields from the defaults so a partial config
// override cannot produce a zero-length lifecycle phase.
func (t Tuning) sanitized() Tuning {
	def := DefaultTuning()
	if t.MinTimeUntil <= 0 {
		t.MinTimeUntil = def.MinTimeUntil
	}
	if t.LeadInMin <= 0 {
		t.LeadInMin = def.LeadInMin
	}
	if t.LeadInMax <= t.LeadInMin {
		t.LeadInMax = def.LeadInMax
	}
	if t.FadeIn <= 0 {
		t.FadeIn = def.FadeIn
	}
	if t.FadeOut <= 0 {
		t.FadeOut = def.FadeOut
	}
	if t.CleanupDelay <= 0 {
		t.CleanupDelay = def.CleanupDelay
	}
	if t.DisposeDelay <= 0 {
		t.DisposeDelay = def.DisposeDelay
	}
	if t.CancelDisposeDelay <= 0 {
		t.CancelDisposeDelay = def.CancelDisposeDelay
	}
	return t
}
