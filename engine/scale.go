package engine

import "math"

// Scale is the ordered set of semitone pitches melodic runs walk through.
// Read-only for the engine's lifetime.
type Scale []int

// DefaultScale is a C major scale around middle C (MIDI 60).
var DefaultScale = Scale{60, 62, 64, 65, 67, 69, 71}

// OrDefault returns the scale, or DefaultScale when empty.
func (s Scale) OrDefault() Scale {
	if len(s) == 0 {
		return DefaultScale
	}
	return s
}

// Nearest returns the scale pitch closest to p, considering octave
// transpositions of every degree. Ties resolve to the lower pitch.
func (s Scale) Nearest(p int) int {
	best := s[0]
	bestDist := math.MaxInt32
	for _, deg := range s {
		// Shift the degree into the octave around p, then check neighbors.
		base := deg + ((p-deg)/12)*12
		for _, cand := range [3]int{base - 12, base, base + 12} {
			d := p - cand
			if d < 0 {
				d = -d
			}
			if d < bestDist || (d == bestDist && cand < best) {
				best = cand
				bestDist = d
			}
		}
	}
	return best
}

// NoteFrequency converts a semitone pitch to Hz using the A440 MIDI mapping.
func NoteFrequency(pitch int) float64 {
	return 440.0 * math.Pow(2, float64(pitch-69)/12.0)
}
