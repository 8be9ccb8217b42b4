// patterndump prints the pattern the engine would generate for one
// predicted event, without opening any audio output. Handy for checking
// determinism across runs and eyeballing generated phrases.
package main

import (
	"flag"
	"fmt"
	"os"

	"foreshadow/engine"
)

func main() {
	var (
		id        = flag.String("id", "brick-1", "predicted event id")
		typ       = flag.String("type", "brickHit", "event type: brickHit or paddleBounce")
		timeUntil = flag.Float64("time-until", 1.5, "seconds until the impact")
		seed      = flag.Uint("seed", 1, "global seed")
		pitch     = flag.Int("pitch", -1, "target pitch hint, -1 for none")
		intensity = flag.Float64("intensity", -1, "intensity hint [0,1], -1 for none")
		leadIn    = flag.Float64("lead-in", -1, "requested lead-in seconds, -1 for none")
	)
	flag.Parse()

	ev := engine.PredictedEvent{
		ID:        *id,
		TimeUntil: *timeUntil,
	}
	switch *typ {
	case "brickHit":
		ev.Type = engine.EventBrickHit
	case "paddleBounce":
		ev.Type = engine.EventPaddleBounce
	default:
		fmt.Printf("unknown event type %q\n", *typ)
		os.Exit(1)
	}
	if *pitch >= 0 {
		p := *pitch
		ev.TargetPitch = &p
	}
	if *intensity >= 0 {
		i := *intensity
		ev.Intensity = &i
	}
	if *leadIn >= 0 {
		l := *leadIn
		ev.LeadIn = &l
	}

	derived := engine.DeriveSeed(ev.ID, ev.Type, uint32(*seed))
	rs := engine.NewSource(derived)
	lead := engine.ResolveLeadIn(ev, rs, engine.DefaultTuning())
	pat := engine.BuildPattern(ev, lead, rs, engine.DefaultScale)

	fmt.Printf("event      %s (%s)  timeUntil=%.3fs\n", ev.ID, ev.Type, ev.TimeUntil)
	fmt.Printf("seed       global=%d derived=0x%08x\n", *seed, derived)
	fmt.Printf("lead-in    %.3fs\n", lead)
	fmt.Printf("pattern    %s, %d notes, %.3fs\n", pat.Instrument, len(pat.Events), pat.Duration)
	fmt.Println()

	for i, n := range pat.Events {
		fmt.Printf("  %2d  t=%6.3f  %-10s pitch=%3d  vel=%.3f  dur=%.3f\n",
			i, n.Offset, n.Instrument, n.Pitch, n.Velocity, n.Duration)
	}
}
