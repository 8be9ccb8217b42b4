package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaleNearest(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{60, 60},
		{61, 60}, // equidistant, lower wins
		{63, 62},
		{66, 65},
		{72, 72}, // octave-shifted degree
		{50, 50},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultScale.Nearest(tt.in), "Nearest(%d)", tt.in)
	}
}

func TestScaleOrDefault(t *testing.T) {
	assert.Equal(t, DefaultScale, Scale(nil).OrDefault())

	custom := Scale{48, 50, 52}
	assert.Equal(t, custom, custom.OrDefault())
}

func TestNoteFrequency(t *testing.T) {
	assert.InDelta(t, 440.0, NoteFrequency(69), 1e-9)
	assert.InDelta(t, 220.0, NoteFrequency(57), 1e-9)
	assert.InDelta(t, 880.0, NoteFrequency(81), 1e-9)
	assert.InDelta(t, 261.63, NoteFrequency(60), 0.01)
}
