package squad

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// Divisions in a league; division 1 is the strongest.
const (
	TopDivision    = 1
	BottomDivision = 3
	NumDivisions   = 3
)

var (
	// ErrInvalidRole is returned for a tactical role the formation does not name.
	ErrInvalidRole = errors.New("invalid tactical role")
	// ErrInvalidFormation is returned for an unsupported formation.
	ErrInvalidFormation = errors.New("invalid formation")
	// ErrInvalidTraining is returned for a plan the player cannot follow.
	ErrInvalidTraining = errors.New("invalid training plan")
	// ErrIneligible is returned when a player cannot be selected.
	ErrIneligible = errors.New("player not eligible")
)

// Record is a club's cumulative season statistics.
type Record struct {
	Points       int `json:"points"`
	Played       int `json:"played"`
	GoalsFor     int `json:"goals_for"`
	GoalsAgainst int `json:"goals_against"`
}

// GoalDifference returns goals for minus goals against.
func (r Record) GoalDifference() int {
	return r.GoalsFor - r.GoalsAgainst
}

// Crest is the visual descriptor of a club. Opaque to the simulation.
type Crest struct {
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	Pattern        string `json:"pattern"`
	Shape          string `json:"shape"`
	Symbol         string `json:"symbol"`
}

// Club is a team in the league.
type Club struct {
	ID       ClubID          `json:"id"`
	Name     string          `json:"name"`
	Division int             `json:"division"`
	IsUser   bool            `json:"is_user"`
	Budget   decimal.Decimal `json:"budget"` // may dip negative from wage drag
	Capacity int             `json:"capacity"`
	Roster   []*Player       `json:"roster"`
	Record   Record          `json:"record"`

	Formation Formation           `json:"formation"`
	Lineup    map[string]PlayerID `json:"lineup"` // tactical role → player
	Crest     Crest               `json:"crest"`
}

// Player returns the roster player with the given ID, or nil.
func (c *Club) Player(id PlayerID) *Player {
	for _, p := range c.Roster {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Add puts a player on the roster and points the player at this club.
// Adding a player already on the roster is an error.
func (c *Club) Add(p *Player) error {
	if c.Player(p.ID) != nil {
		return fmt.Errorf("player %d already on %s", p.ID, c.Name)
	}
	p.ClubID = c.ID
	c.Roster = append(c.Roster, p)
	return nil
}

// Remove takes a player off the roster and out of every tactical role.
// Returns nil if the player is not on the roster.
func (c *Club) Remove(id PlayerID) *Player {
	for i, p := range c.Roster {
		if p.ID != id {
			continue
		}
		c.Roster = append(c.Roster[:i], c.Roster[i+1:]...)
		c.clearPlayer(id)
		return p
	}
	return nil
}

// Assign puts a roster player into a tactical role. The player leaves any
// role held before, so no player ever occupies two roles.
func (c *Club) Assign(role string, id PlayerID) error {
	if !c.Formation.HasRole(role) {
		return fmt.Errorf("%w: %s in %s", ErrInvalidRole, role, c.Formation)
	}
	p := c.Player(id)
	if p == nil {
		return fmt.Errorf("%w: player %d not on %s", ErrIneligible, id, c.Name)
	}
	if p.Injured() {
		return fmt.Errorf("%w: %s is injured for %d weeks", ErrIneligible, p.Name, p.InjuryWeeks)
	}
	if c.Lineup == nil {
		c.Lineup = make(map[string]PlayerID)
	}
	c.clearPlayer(id)
	c.Lineup[role] = id
	return nil
}

// Unassign empties a tactical role.
func (c *Club) Unassign(role string) error {
	if !c.Formation.HasRole(role) {
		return fmt.Errorf("%w: %s in %s", ErrInvalidRole, role, c.Formation)
	}
	delete(c.Lineup, role)
	return nil
}

// RoleOf returns the tactical role a player holds, or "".
func (c *Club) RoleOf(id PlayerID) string {
	for role, pid := range c.Lineup {
		if pid == id {
			return role
		}
	}
	return ""
}

func (c *Club) clearPlayer(id PlayerID) {
	for role, pid := range c.Lineup {
		if pid == id {
			delete(c.Lineup, role)
		}
	}
}

// SetFormation switches formation and clears the whole lineup.
func (c *Club) SetFormation(f Formation) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFormation, f)
	}
	c.Formation = f
	c.Lineup = make(map[string]PlayerID)
	return nil
}

// AutoLineup fills the starting eleven and bench with the strongest
// healthy players.
func (c *Club) AutoLineup() {
	if !c.Formation.Valid() {
		c.Formation = DefaultFormation
	}
	ranked := c.healthyByStrength()
	roles := append(c.Formation.Roles(), BenchRoles...)

	c.Lineup = make(map[string]PlayerID, len(roles))
	for i, role := range roles {
		if i >= len(ranked) {
			break
		}
		c.Lineup[role] = ranked[i].ID
	}
}

// MatchSquad returns the effective lineup for a match: the assigned
// healthy starters, topped up to eleven with the strongest unassigned
// healthy players. Falls back to the full roster if nobody is fit.
func (c *Club) MatchSquad() []*Player {
	const eleven = 11
	picked := make(map[PlayerID]bool)
	var squad []*Player
	for _, role := range c.Formation.Roles() {
		p := c.Player(c.Lineup[role])
		if p == nil || p.Injured() {
			continue
		}
		picked[p.ID] = true
		squad = append(squad, p)
	}
	for _, p := range c.healthyByStrength() {
		if len(squad) >= eleven {
			break
		}
		if !picked[p.ID] {
			squad = append(squad, p)
		}
	}
	if len(squad) == 0 {
		return c.Roster
	}
	return squad
}

func (c *Club) healthyByStrength() []*Player {
	ranked := make([]*Player, 0, len(c.Roster))
	for _, p := range c.Roster {
		if !p.Injured() {
			ranked = append(ranked, p)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Strength > ranked[j].Strength
	})
	return ranked
}

// Prestige rates a club's attractiveness to players:
// min(100, (4 − division)×30 + points-per-game×5).
func (c *Club) Prestige() float64 {
	games := c.Record.Played
	if games == 0 {
		games = 1
	}
	base := float64(BottomDivision+1-c.Division) * 30
	perf := float64(c.Record.Points) / float64(games) * 5
	return math.Min(100, base+perf)
}

// ResetRecord zeroes the season statistics.
func (c *Club) ResetRecord() {
	c.Record = Record{}
}

// ValidDivision reports whether d names a league division.
func ValidDivision(d int) bool {
	return d >= TopDivision && d <= BottomDivision
}
