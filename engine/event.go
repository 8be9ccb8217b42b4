package engine

// EventType identifies the kind of predicted gameplay impact.
type EventType string

const (
	EventBrickHit     EventType = "brickHit"
	EventPaddleBounce EventType = "paddleBounce"
)

// Instrument selects which voice renders a pattern.
type Instrument string

const (
	InstrumentMelodic    Instrument = "melodic"
	InstrumentPercussion Instrument = "percussion"
)

// PredictedEvent is a gameplay occurrence expected a known number of seconds
// in the future, supplied by the physics predictor. Immutable once passed in.
type PredictedEvent struct {
	ID        string
	Type      EventType
	TimeUntil float64 // seconds until the impact, must be > 0

	// Optional hints. Nil means "engine decides".
	TargetPitch *int     // semitone the melodic run resolves onto
	Intensity   *float64 // [0,1] impact strength
	LeadIn      *float64 // requested pattern length in seconds
}

// intensity returns the event's intensity, defaulting to the midpoint.
func (e PredictedEvent) intensity() float64 {
	if e.Intensity == nil {
		return 0.5
	}
	return clamp(*e.Intensity, 0, 1)
}

// PatternEvent is one note of a foreshadow pattern. Read-only.
type PatternEvent struct {
	Offset     float64 // seconds from pattern start
	Instrument Instrument
	Pitch      int     // semitone; 0 for unpitched percussion hits
	Velocity   float64 // [0,1]
	Duration   float64 // seconds
}

// Pattern is a short generated note sequence meant to be heard just before a
// predicted event occurs. One per schedule call; immutable.
type Pattern struct {
	Duration   float64
	Events     []PatternEvent // ordered by Offset
	Instrument Instrument
}

// AverageVelocity returns the mean note velocity, 0 for an empty pattern.
func (p Pattern) AverageVelocity() float64 {
	if len(p.Events) == 0 {
		return 0
	}
	sum := 0.0
	for _, ev := range p.Events {
		sum += ev.Velocity
	}
	return sum / float64(len(p.Events))
}

// FinalizeReason reports how a scheduled foreshadow ended.
type FinalizeReason string

const (
	FinalizeCompleted FinalizeReason = "completed"
	FinalizeCancelled FinalizeReason = "cancelled"
)

// Diagnostics is the observer bundle for the engine's externally visible
// event stream. Nil fields are skipped. Callbacks run outside the engine's
// lock and may call back into it.
type Diagnostics struct {
	// PatternScheduled fires once per successful ScheduleEvent.
	PatternScheduled func(id string, noteCount int, avgVelocity float64)

	// NoteTriggered fires once per note at actual playback time.
	NoteTriggered func(id string, note PatternEvent)

	// EventFinalized fires exactly once per scheduled record.
	EventFinalized func(id string, reason FinalizeReason)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
