package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Active record list
	Scheduled rune // ◆ pattern scheduled, waiting
	Draining  rune // ◇ ramping out
	NoteFired rune // ● note just triggered

	// Event feed
	Completed rune // ✓ pattern reached its event
	Cancelled rune // ✗ pattern cut off early

	// Timeline bar
	BarFill  rune // █ elapsed portion of lead-in
	BarEmpty rune // · remaining portion
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Scheduled: '◆',
			Draining:  '◇',
			NoteFired: '●',

			Completed: '✓',
			Cancelled: '✗',

			BarFill:  '█',
			BarEmpty: '·',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0  // deep violet
	RoleSurface = 0.1  // dark violet
	RoleMuted   = 0.25 // violet-magenta
	RoleFG      = 0.45 // pink (readable)
	RoleAccent  = 0.55 // magenta
	RoleActive  = 0.7  // coral
	RoleWarning = 0.85 // orange
	RoleSuccess = 1.0  // bright yellow
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

// Velocity maps a note velocity to the warm half of the palette, so
// louder notes render brighter in the feed.
func (t *Theme) Velocity(vel float64) lipgloss.Color {
	if vel < 0 {
		vel = 0
	}
	if vel > 1 {
		vel = 1
	}
	return rgbToLipgloss(t.Palette.Lookup(0.4 + 0.6*vel))
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
