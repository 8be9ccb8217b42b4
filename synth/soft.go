package synth

import (
	"io"
	"sync"
	"time"

	"github.com/hajimehoshi/oto/v2"

	"foreshadow/debug"
)

// softRampStep is how often a gain ramp updates live player volumes.
const softRampStep = 15 * time.Millisecond

// Soft is the built-in software synthesizer: procedurally rendered one-shots
// played through an oto context. The context is the shared bus; each gain
// control scales the players routed through it.
type Soft struct {
	ctx   *oto.Context
	ready chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewSoft opens the audio device.
func NewSoft() (*Soft, error) {
	ctx, ready, err := oto.NewContext(sampleRate, channelCount, bitDepth)
	if err != nil {
		return nil, err
	}
	debug.Log("synth", "soft synth context up, rate=%d", sampleRate)
	return &Soft{ctx: ctx, ready: ready}, nil
}

func (s *Soft) NewGain() GainControl {
	return &softGain{players: make(map[oto.Player]struct{})}
}

func (s *Soft) NewMelodic(gain GainControl) Voice {
	g, _ := gain.(*softGain)
	return &softVoice{synth: s, gain: g, melodic: true}
}

func (s *Soft) NewPercussion(gain GainControl) Voice {
	g, _ := gain.(*softGain)
	return &softVoice{synth: s, gain: g}
}

// Close marks the bus released. The oto context itself has no close; live
// players finish on their own.
func (s *Soft) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// available reports whether the device is ready and the bus still open.
func (s *Soft) available() bool {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return false
	}
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// softGain scales every player routed through it and follows ramps with a
// stepping goroutine, so fades apply to notes already sounding.
type softGain struct {
	mu      sync.Mutex
	level   float64
	gen     int
	players map[oto.Player]struct{}
}

func (g *softGain) Set(level float64) {
	g.mu.Lock()
	g.gen++
	g.applyLocked(clampUnit(level))
	g.mu.Unlock()
}

func (g *softGain) RampTo(target, over float64) {
	target = clampUnit(target)
	if over <= 0 {
		g.Set(target)
		return
	}

	g.mu.Lock()
	g.gen++
	gen := g.gen
	from := g.level
	g.mu.Unlock()

	steps := int(over / softRampStep.Seconds())
	if steps < 1 {
		steps = 1
	}
	go func() {
		for i := 1; i <= steps; i++ {
			time.Sleep(softRampStep)
			g.mu.Lock()
			if g.gen != gen {
				g.mu.Unlock()
				return
			}
			g.applyLocked(from + (target-from)*float64(i)/float64(steps))
			g.mu.Unlock()
		}
	}()
}

func (g *softGain) Release() {
	g.mu.Lock()
	g.gen++
	g.players = make(map[oto.Player]struct{})
	g.mu.Unlock()
}

func (g *softGain) applyLocked(level float64) {
	g.level = level
	for p := range g.players {
		p.SetVolume(level)
	}
}

func (g *softGain) attach(p oto.Player) {
	g.mu.Lock()
	g.players[p] = struct{}{}
	p.SetVolume(g.level)
	g.mu.Unlock()
}

func (g *softGain) detach(p oto.Player) {
	g.mu.Lock()
	delete(g.players, p)
	g.mu.Unlock()
}

type softVoice struct {
	synth   *Soft
	gain    *softGain
	melodic bool

	mu     sync.Mutex
	halted bool
}

// Trigger renders the note and hands it to a fresh player. A device that is
// not ready yet degrades to a skipped note, not an error.
func (v *softVoice) Trigger(pitch int, velocity, duration float64) error {
	v.mu.Lock()
	halted := v.halted
	v.mu.Unlock()
	if halted || !v.synth.available() {
		return nil
	}

	var samples []byte
	if v.melodic {
		samples = renderPluck(noteFrequency(pitch), velocity, duration)
	} else {
		samples = renderHit(velocity, velocity >= 0.8)
	}
	if len(samples) == 0 {
		return nil
	}

	player := v.synth.ctx.NewPlayer(&sampleReader{data: samples})
	if v.gain != nil {
		v.gain.attach(player)
	}
	player.Play()
	go func() {
		for player.IsPlaying() {
			time.Sleep(10 * time.Millisecond)
		}
		player.Close()
		if v.gain != nil {
			v.gain.detach(player)
		}
	}()
	return nil
}

func (v *softVoice) Halt() {
	v.mu.Lock()
	v.halted = true
	v.mu.Unlock()
	if v.gain != nil {
		v.gain.Set(0)
	}
}

func (v *softVoice) Release() {
	v.Halt()
}

type sampleReader struct {
	data []byte
	pos  int
}

func (r *sampleReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}
