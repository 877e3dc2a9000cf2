// Package squad provides the player and club data model, procedural roster
// generation, tactical lineups and weekly player condition.
package squad

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PlayerID is a unique identifier for a player.
type PlayerID uint64

// ClubID is a unique identifier for a club. FreeAgent marks players with no club.
type ClubID uint64

// FreeAgent is the owning-club reference of an unattached player.
const FreeAgent ClubID = 0

// Position is a player's broad tactical category.
type Position uint8

const (
	Goalkeeper Position = iota
	Defender
	Midfielder
	Forward
)

// NumPositions is the number of position categories.
const NumPositions = 4

var positionNames = []string{"GK", "DEF", "MID", "FWD"}

func (p Position) String() string                { return enumName(positionNames, uint8(p)) }
func (p Position) MarshalText() ([]byte, error)  { return enumText(positionNames, "position", uint8(p)) }
func (p *Position) UnmarshalText(b []byte) error { return enumParse(positionNames, "position", b, (*uint8)(p)) }

// Personality is a player's temperament archetype.
type Personality uint8

const (
	Loyal Personality = iota
	Ambitious
	Rebellious
	Professional
)

var personalityNames = []string{"loyal", "ambitious", "rebellious", "professional"}

func (p Personality) String() string               { return enumName(personalityNames, uint8(p)) }
func (p Personality) MarshalText() ([]byte, error) { return enumText(personalityNames, "personality", uint8(p)) }
func (p *Personality) UnmarshalText(b []byte) error {
	return enumParse(personalityNames, "personality", b, (*uint8)(p))
}

// RoleTier is the squad status promised to a player during negotiation.
type RoleTier uint8

const (
	KeyPlayer RoleTier = iota
	Starter
	Rotation
	Prospect
)

var roleTierNames = []string{"key_player", "starter", "rotation", "prospect"}

func (r RoleTier) String() string                { return enumName(roleTierNames, uint8(r)) }
func (r RoleTier) MarshalText() ([]byte, error)  { return enumText(roleTierNames, "role tier", uint8(r)) }
func (r *RoleTier) UnmarshalText(b []byte) error { return enumParse(roleTierNames, "role tier", b, (*uint8)(r)) }

// ParseRoleTier converts a role tier name into a RoleTier.
func ParseRoleTier(s string) (RoleTier, error) {
	var r RoleTier
	err := r.UnmarshalText([]byte(s))
	return r, err
}

// Skills holds the four hidden ratings.
type Skills struct {
	Goalkeeping int `json:"goalkeeping"`
	Defending   int `json:"defending"`
	Playmaking  int `json:"playmaking"`
	Finishing   int `json:"finishing"`
}

// Player is a footballer on a club roster or in the free-agent pool.
type Player struct {
	ID       PlayerID `json:"id"`
	Name     string   `json:"name"`
	Position Position `json:"position"`
	Age      int      `json:"age"`
	Skills   Skills   `json:"skills"`

	// Derived from Skills and Age by Recompute; never set directly.
	Strength int             `json:"strength"`
	Value    decimal.Decimal `json:"value"`

	Ambition    int         `json:"ambition"`  // 0–100
	Potential   int         `json:"potential"` // growth ceiling
	Personality Personality `json:"personality"`
	Morale      int         `json:"morale"`  // 0–100
	Fatigue     int         `json:"fatigue"` // 0–100
	InjuryWeeks int         `json:"injury_weeks"`

	TransferListed bool     `json:"transfer_listed"`
	Goals          int      `json:"goals"` // season tally
	ClubID         ClubID   `json:"club_id"`
	PreferredRole  string   `json:"preferred_role"`
	Training       Training `json:"training"`
	LastSeason     Skills   `json:"last_season_changes"`
}

// ValueMultiplier converts strength index into market value.
const ValueMultiplier = 120

// StrengthIndex computes the overall strength index from the skill ratings
// and age. The age penalty is 1.0 under 25, 0.8 from 25 to 29 and 0.6 at 30+.
func StrengthIndex(s Skills, age int) int {
	sum := s.Goalkeeping*3 + s.Defending + s.Playmaking + s.Finishing
	// Whole-number percentages keep the floor exact.
	switch {
	case age < 25:
		return sum * 100
	case age < 30:
		return sum * 80
	default:
		return sum * 60
	}
}

// MarketValue converts a strength index into currency.
func MarketValue(strength int) decimal.Decimal {
	return decimal.NewFromInt(int64(strength) * ValueMultiplier)
}

// Recompute refreshes Strength and Value together from the skills and age.
func (p *Player) Recompute() {
	p.Strength = StrengthIndex(p.Skills, p.Age)
	p.Value = MarketValue(p.Strength)
}

// Injured reports whether the player is unavailable for selection.
func (p *Player) Injured() bool {
	return p.InjuryWeeks > 0
}

func enumName(names []string, v uint8) string {
	if int(v) < len(names) {
		return names[v]
	}
	return "unknown"
}

func enumText(names []string, kind string, v uint8) ([]byte, error) {
	if int(v) >= len(names) {
		return nil, fmt.Errorf("unknown %s %d", kind, v)
	}
	return []byte(names[v]), nil
}

func enumParse(names []string, kind string, b []byte, dst *uint8) error {
	for i, n := range names {
		if n == string(b) {
			*dst = uint8(i)
			return nil
		}
	}
	return fmt.Errorf("unknown %s %q", kind, string(b))
}
