package synth

import (
	"fmt"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"foreshadow/debug"
)

// GM drum notes used by the percussion voice.
const (
	drumClosedHat = 42
	drumSnare     = 38
)

// gainRampStep is how often a gain ramp emits a CC update.
const gainRampStep = 20 * time.Millisecond

// MIDI renders foreshadows through an external MIDI synthesizer: melodic
// notes on one channel, percussion hits as GM drums, gain ramps as stepped
// CC11 expression messages.
type MIDI struct {
	out  drivers.Out
	send func(gomidi.Message) error

	melodicCh    uint8 // 0-based
	percussionCh uint8 // 0-based, usually 9 (GM drums)

	mu     sync.Mutex
	closed bool
}

// NewMIDI opens the first output port whose name contains portName
// (case-insensitive; empty matches the first port).
func NewMIDI(portName string, melodicCh, percussionCh uint8) (*MIDI, error) {
	var outPort drivers.Out
	for _, port := range gomidi.GetOutPorts() {
		if portName == "" || strings.Contains(strings.ToLower(port.String()), strings.ToLower(portName)) {
			outPort = port
			break
		}
	}
	if outPort == nil {
		return nil, fmt.Errorf("midi: no output port matching %q", portName)
	}

	send, err := gomidi.SendTo(outPort)
	if err != nil {
		return nil, fmt.Errorf("midi: open %s: %w", outPort.String(), err)
	}
	debug.Log("midi", "out port %s melodic=ch%d percussion=ch%d", outPort.String(), melodicCh+1, percussionCh+1)

	return &MIDI{
		out:          outPort,
		send:         send,
		melodicCh:    melodicCh,
		percussionCh: percussionCh,
	}, nil
}

func (m *MIDI) NewGain() GainControl {
	return &midiGain{synth: m}
}

func (m *MIDI) NewMelodic(gain GainControl) Voice {
	if g, ok := gain.(*midiGain); ok {
		g.channel = m.melodicCh
	}
	return &midiVoice{synth: m, channel: m.melodicCh, melodic: true, active: make(map[uint8]struct{})}
}

func (m *MIDI) NewPercussion(gain GainControl) Voice {
	if g, ok := gain.(*midiGain); ok {
		g.channel = m.percussionCh
	}
	return &midiVoice{synth: m, channel: m.percussionCh, active: make(map[uint8]struct{})}
}

func (m *MIDI) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	// Quiet both channels before dropping the port.
	m.emit(gomidi.ControlChange(m.melodicCh, 123, 0))
	m.emit(gomidi.ControlChange(m.percussionCh, 123, 0))
	return m.out.Close()
}

// emit sends one message, dropping it when the port is gone. Transient send
// failures surface to the caller only on note triggers.
func (m *MIDI) emit(msg gomidi.Message) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return fmt.Errorf("midi: port closed")
	}
	send := m.send
	m.mu.Unlock()
	return send(msg)
}

// midiGain approximates a per-foreshadow gain node with channel expression
// (CC11). Ramps step the controller until the target is reached; a newer ramp
// supersedes an older one.
type midiGain struct {
	synth   *MIDI
	channel uint8

	mu    sync.Mutex
	level float64
	gen   int
}

func (g *midiGain) Set(level float64) {
	g.mu.Lock()
	g.gen++
	g.level = clampUnit(level)
	v := uint8(g.level * 127)
	g.mu.Unlock()
	g.synth.emit(gomidi.ControlChange(g.channel, 11, v))
}

func (g *midiGain) RampTo(target, over float64) {
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

	steps := int(over / gainRampStep.Seconds())
	if steps < 1 {
		steps = 1
	}
	go func() {
		for i := 1; i <= steps; i++ {
			time.Sleep(gainRampStep)
			g.mu.Lock()
			if g.gen != gen {
				g.mu.Unlock()
				return
			}
			g.level = from + (target-from)*float64(i)/float64(steps)
			v := uint8(g.level * 127)
			g.mu.Unlock()
			g.synth.emit(gomidi.ControlChange(g.channel, 11, v))
		}
	}()
}

func (g *midiGain) Release() {
	g.mu.Lock()
	g.gen++ // stop any ramp in flight
	g.mu.Unlock()
}

// midiVoice plays notes on one channel. Melodic voices are polyphonic;
// percussion maps hits to GM drum notes by accent.
type midiVoice struct {
	synth   *MIDI
	channel uint8
	melodic bool

	mu       sync.Mutex
	active   map[uint8]struct{}
	halted   bool
	released bool
}

func (v *midiVoice) Trigger(pitch int, velocity, duration float64) error {
	v.mu.Lock()
	if v.halted || v.released {
		v.mu.Unlock()
		return nil
	}
	v.mu.Unlock()

	key := uint8(clampInt(pitch, 0, 127))
	if !v.melodic {
		// Unpitched hits: accent lands on the snare, the ramp rides the hat.
		if velocity >= 0.8 {
			key = drumSnare
		} else {
			key = drumClosedHat
		}
	}
	vel := uint8(clampUnit(velocity)*126) + 1

	if err := v.synth.emit(gomidi.NoteOn(v.channel, key, vel)); err != nil {
		return err
	}
	v.mu.Lock()
	v.active[key] = struct{}{}
	v.mu.Unlock()

	time.AfterFunc(time.Duration(duration*float64(time.Second)), func() {
		v.mu.Lock()
		_, on := v.active[key]
		delete(v.active, key)
		v.mu.Unlock()
		if on {
			v.synth.emit(gomidi.NoteOff(v.channel, key))
		}
	})
	return nil
}

func (v *midiVoice) Halt() {
	v.mu.Lock()
	v.halted = true
	keys := make([]uint8, 0, len(v.active))
	for k := range v.active {
		keys = append(keys, k)
	}
	v.active = make(map[uint8]struct{})
	v.mu.Unlock()

	for _, k := range keys {
		v.synth.emit(gomidi.NoteOff(v.channel, k))
	}
}

func (v *midiVoice) Release() {
	v.Halt()
	v.mu.Lock()
	v.released = true
	v.mu.Unlock()
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
