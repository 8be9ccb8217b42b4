package synth

import "math"

// Procedural one-shot rendering for the software backend. Buffers are stereo
// float32 LE frames at 44.1kHz, generated per trigger.

const (
	sampleRate   = 44100
	channelCount = 2
	bitDepth     = 0 // 32-bit float (oto.FormatFloat32LE)
)

// putStereoF32 writes a [-1,1] sample as float32 LE to both stereo channels
// at frame i.
func putStereoF32(buf []byte, i int, sample float64) {
	v := math.Float32bits(float32(sample))
	buf[i*8] = byte(v)
	buf[i*8+1] = byte(v >> 8)
	buf[i*8+2] = byte(v >> 16)
	buf[i*8+3] = byte(v >> 24)
	buf[i*8+4] = byte(v)
	buf[i*8+5] = byte(v >> 8)
	buf[i*8+6] = byte(v >> 16)
	buf[i*8+7] = byte(v >> 24)
}

// softSat applies gentle tanh-like saturation instead of hard clipping.
func softSat(x float64) float64 {
	if x > 1.0 {
		return 1.0 - 0.5/x
	}
	if x < -1.0 {
		return -1.0 + 0.5/(-x)
	}
	return x - x*x*x/3.0
}

// adsr returns an envelope at normalized progress [0,1].
// attack/decay/release are fractions of the total duration.
func adsr(progress, attack, decay, sustain, release float64) float64 {
	switch {
	case progress < attack:
		return progress / attack
	case progress < attack+decay:
		return 1.0 - (progress-attack)/decay*(1.0-sustain)
	case progress < 1.0-release:
		return sustain
	default:
		return sustain * (1.0 - (progress-(1.0-release))/release)
	}
}

// fmOsc returns an FM-synthesized sample.
// carrier: base frequency, modRatio: modulator/carrier ratio, modIdx: depth.
func fmOsc(t, carrier, modRatio, modIdx float64) float64 {
	mod := math.Sin(2 * math.Pi * carrier * modRatio * t)
	return math.Sin(2*math.Pi*carrier*t + modIdx*mod)
}

// lcg advances an LCG seed and returns a noise sample in [-1,1].
func lcg(seed *uint64) float64 {
	*seed = *seed*6364136223846793005 + 1442695040888963407
	return float64(int64(*seed>>33)-int64(1<<30)) / float64(1 << 30)
}

// makeBuf allocates a stereo float32 buffer for n samples.
func makeBuf(n int) []byte { return make([]byte, n*8) }

// noteFrequency converts a semitone pitch to Hz (A440 MIDI mapping).
func noteFrequency(pitch int) float64 {
	return 440.0 * math.Pow(2, float64(pitch-69)/12.0)
}

// renderPluck: FM pluck at the note's frequency. Bell attack, quick decay,
// thin second harmonic for clarity.
func renderPluck(freq, velocity, duration float64) []byte {
	if duration < 0.06 {
		duration = 0.06
	}
	n := int(duration * sampleRate)
	buf := makeBuf(n)
	amp := 0.14 + 0.38*velocity
	for i := 0; i < n; i++ {
		t := float64(i) / sampleRate
		p := float64(i) / float64(n)
		env := adsr(p, 0.02, 0.5, 0.12, 0.3)
		s := fmOsc(t, freq, 2.0, 2.6*env) * env * amp
		s += math.Sin(2*math.Pi*freq*2*t) * env * amp * 0.16
		putStereoF32(buf, i, softSat(s))
	}
	return buf
}

// renderHit: short filtered-noise tick with a pitched thump underneath.
// Accent hits get a longer body and a deeper thump.
func renderHit(velocity float64, accent bool) []byte {
	dur := 0.055
	thumpFreq := 1300.0
	if accent {
		dur = 0.11
		thumpFreq = 190.0
	}
	n := int(dur * sampleRate)
	buf := makeBuf(n)
	seed := uint64(0x7E1E6A5 + int(velocity*255))
	lp := 0.0
	amp := 0.12 + 0.4*velocity
	for i := 0; i < n; i++ {
		t := float64(i) / sampleRate
		p := float64(i) / float64(n)
		lp = lp*0.6 + lcg(&seed)*0.4
		tick := lp * math.Exp(-p*18)
		thump := math.Sin(2*math.Pi*thumpFreq*t) * math.Exp(-p*14) * 0.8
		putStereoF32(buf, i, softSat((tick*0.5+thump*0.6)*amp))
	}
	return buf
}
