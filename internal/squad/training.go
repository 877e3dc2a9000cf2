// Weekly player condition and season-end development.

package squad

import (
	"fmt"
	"math"

	"github.com/talgya/touchline/internal/entropy"
)

// Intensity is how hard a player trains each week.
type Intensity uint8

const (
	Low Intensity = iota
	Medium
	High
	Extreme
)

var intensityNames = []string{"low", "medium", "high", "extreme"}

func (i Intensity) String() string               { return enumName(intensityNames, uint8(i)) }
func (i Intensity) MarshalText() ([]byte, error) { return enumText(intensityNames, "intensity", uint8(i)) }
func (i *Intensity) UnmarshalText(b []byte) error {
	return enumParse(intensityNames, "intensity", b, (*uint8)(i))
}

// FatigueDelta is the weekly fatigue change for an intensity.
func (i Intensity) FatigueDelta() int {
	switch i {
	case Low:
		return -15
	case Medium:
		return 5
	case High:
		return 18
	case Extreme:
		return 35
	}
	return 0
}

// GrowthMultiplier scales season-end development for an intensity.
func (i Intensity) GrowthMultiplier() float64 {
	switch i {
	case Low:
		return 0.5
	case Medium:
		return 1
	case High:
		return 2.2
	case Extreme:
		return 4.5
	}
	return 1
}

// Focus is the skill a player's training develops.
type Focus uint8

const (
	FocusNone Focus = iota
	FocusGoalkeeping
	FocusDefending
	FocusPlaymaking
	FocusFinishing
)

var focusNames = []string{"none", "goalkeeping", "defending", "playmaking", "finishing"}

func (f Focus) String() string                { return enumName(focusNames, uint8(f)) }
func (f Focus) MarshalText() ([]byte, error)  { return enumText(focusNames, "focus", uint8(f)) }
func (f *Focus) UnmarshalText(b []byte) error { return enumParse(focusNames, "focus", b, (*uint8)(f)) }

// Training is a player's weekly training plan.
type Training struct {
	Focus     Focus     `json:"focus"`
	Intensity Intensity `json:"intensity"`
}

// focusFor returns the only specialist focus a position may take.
func focusFor(pos Position) Focus {
	switch pos {
	case Goalkeeper:
		return FocusGoalkeeping
	case Defender:
		return FocusDefending
	case Midfielder:
		return FocusPlaymaking
	case Forward:
		return FocusFinishing
	}
	return FocusNone
}

// SetTraining changes the plan. Specialist focus must match the position
// and injured players cannot change plans.
func (p *Player) SetTraining(t Training) error {
	if p.Injured() {
		return fmt.Errorf("%w: %s is injured", ErrInvalidTraining, p.Name)
	}
	if t.Focus != FocusNone && t.Focus != focusFor(p.Position) {
		return fmt.Errorf("%w: focus %s does not suit a %s", ErrInvalidTraining, t.Focus, p.Position)
	}
	p.Training = t
	return nil
}

// WeeklyCondition applies one week of training load and injury recovery.
// Injured players rest instead of training.
func WeeklyCondition(p *Player) {
	if p.Injured() {
		p.InjuryWeeks--
		p.Fatigue = clampInt(p.Fatigue+Low.FatigueDelta(), 0, 100)
		return
	}
	p.Fatigue = clampInt(p.Fatigue+p.Training.Intensity.FatigueDelta(), 0, 100)
}

// Develop ages a player by one season and applies skill growth from
// potential and training intensity, then refreshes strength and value.
// Returns the skill changes.
func Develop(p *Player, rng entropy.Source) Skills {
	before := p.Skills
	p.Age++

	focus := p.Training.Focus
	if focus == FocusNone {
		focus = focusFor(p.Position)
	}
	ceiling := float64(p.Potential) / 50 * p.Training.Intensity.GrowthMultiplier()
	gain := int(math.Floor(rng.Float64() * ceiling))
	switch focus {
	case FocusGoalkeeping:
		p.Skills.Goalkeeping += gain
	case FocusDefending:
		p.Skills.Defending += gain
	case FocusPlaymaking:
		p.Skills.Playmaking += gain
	case FocusFinishing:
		p.Skills.Finishing += gain
	}

	if p.Age >= 30 {
		p.Skills.Goalkeeping = decline(p.Skills.Goalkeeping, rng)
		p.Skills.Defending = decline(p.Skills.Defending, rng)
		p.Skills.Playmaking = decline(p.Skills.Playmaking, rng)
		p.Skills.Finishing = decline(p.Skills.Finishing, rng)
	}

	p.Recompute()
	p.LastSeason = Skills{
		Goalkeeping: p.Skills.Goalkeeping - before.Goalkeeping,
		Defending:   p.Skills.Defending - before.Defending,
		Playmaking:  p.Skills.Playmaking - before.Playmaking,
		Finishing:   p.Skills.Finishing - before.Finishing,
	}
	return p.LastSeason
}

func decline(v int, rng entropy.Source) int {
	v -= rng.Intn(2)
	if v < 1 {
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
