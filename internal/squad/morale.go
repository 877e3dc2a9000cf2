package squad

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// maxMoraleSwing bounds the weekly morale change.
const maxMoraleSwing = 6

// MoraleField drives smooth week-to-week morale drift. Each player samples
// their own line through a seeded noise field, so mood moves in streaks
// rather than jumping randomly.
type MoraleField struct {
	noise opensimplex.Noise
}

// NewMoraleField creates a morale field from the game seed.
func NewMoraleField(seed int64) *MoraleField {
	return &MoraleField{noise: opensimplex.NewNormalized(seed + 500)}
}

// Swing returns the morale change for a player in a given week.
func (f *MoraleField) Swing(p *Player, season, week int) int {
	x := float64(p.ID) * 0.618
	y := float64(season*64+week) * 0.15
	v := f.noise.Eval2(x, y)*2 - 1 // [-1, 1]
	scale := float64(maxMoraleSwing)
	switch p.Personality {
	case Rebellious:
		scale *= 1.5
	case Professional:
		scale *= 0.5
	}
	return int(math.Round(v * scale))
}

// Drift applies one week of morale movement. Transfer-listed loyal players
// lose an extra point; injured players cannot gain morale.
func (f *MoraleField) Drift(p *Player, season, week int) {
	swing := f.Swing(p, season, week)
	if p.Injured() && swing > 0 {
		swing = 0
	}
	if p.TransferListed && p.Personality == Loyal {
		swing--
	}
	p.Morale = clampInt(p.Morale+swing, 0, 100)
}
