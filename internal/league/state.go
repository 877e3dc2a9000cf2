// Package league holds the aggregate game state: every club, the free-agent
// pool, the calendar, open negotiations, pending offers and the season
// archive. A State is serialisable as one opaque blob.
package league

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/talgya/touchline/internal/entropy"
	"github.com/talgya/touchline/internal/fixtures"
	"github.com/talgya/touchline/internal/match"
	"github.com/talgya/touchline/internal/squad"
	"github.com/talgya/touchline/internal/standings"
	"github.com/talgya/touchline/internal/transfer"
)

var (
	ErrUnknownPlayer      = errors.New("unknown player")
	ErrUnknownNegotiation = errors.New("unknown negotiation")
	ErrOwnPlayer          = errors.New("player already at your club")
	ErrNotYourPlayer      = errors.New("player not at your club")
)

// SeasonRecord archives the outcome of a finished season.
type SeasonRecord struct {
	Season     int                      `json:"season"`
	Champions  map[int]string           `json:"champions"`   // division → club name
	TopScorers map[int]standings.Scorer `json:"top_scorers"` // division → scorer
}

// State is the whole league at one point in time.
type State struct {
	Season     int          `json:"season"`
	Week       int          `json:"week"`
	Seed       int64        `json:"seed"`
	UserClubID squad.ClubID `json:"user_club_id"`

	Clubs        []*squad.Club         `json:"clubs"`
	FreeAgents   squad.Pool            `json:"free_agents"`
	Calendar     fixtures.Calendar     `json:"calendar"`
	Negotiations transfer.Negotiations `json:"negotiations"`
	Offers       transfer.Offers       `json:"offers"`
	History      []SeasonRecord        `json:"history"`

	NextPlayerID squad.PlayerID `json:"next_player_id"`
	NextClubID   squad.ClubID   `json:"next_club_id"`
}

// Club returns the club with the given ID, or nil.
func (s *State) Club(id squad.ClubID) *squad.Club {
	for _, c := range s.Clubs {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// UserClub returns the club the user manages.
func (s *State) UserClub() *squad.Club {
	return s.Club(s.UserClubID)
}

// Division returns the clubs of one division in league order.
func (s *State) Division(d int) []*squad.Club {
	var out []*squad.Club
	for _, c := range s.Clubs {
		if c.Division == d {
			out = append(out, c)
		}
	}
	return out
}

// Rivals returns every club except the user's.
func (s *State) Rivals() []*squad.Club {
	out := make([]*squad.Club, 0, len(s.Clubs))
	for _, c := range s.Clubs {
		if c.ID != s.UserClubID {
			out = append(out, c)
		}
	}
	return out
}

// FindPlayer locates a player. The club is nil for free agents.
func (s *State) FindPlayer(id squad.PlayerID) (*squad.Player, *squad.Club) {
	for _, c := range s.Clubs {
		if p := c.Player(id); p != nil {
			return p, c
		}
	}
	if p := s.FreeAgents.Find(id); p != nil {
		return p, nil
	}
	return nil, nil
}

// SeasonLength is the number of weeks in a season.
func (s *State) SeasonLength() int {
	return s.Calendar.Length()
}

// UserFixture returns the user's match for the current week, or nil.
func (s *State) UserFixture() *match.Match {
	return s.Calendar.Fixture(s.UserClubID, s.Week)
}

// Generator returns a roster generator continuing this state's ID
// sequence. Call SyncIDs afterwards to keep the state's counters.
func (s *State) Generator(rng entropy.Source) *squad.Generator {
	g := squad.NewGenerator(rng)
	g.SetNextIDs(s.NextPlayerID, s.NextClubID)
	return g
}

// SyncIDs stores the generator's next IDs.
func (s *State) SyncIDs(g *squad.Generator) {
	s.NextPlayerID, s.NextClubID = g.NextIDs()
}

// Encode serialises the state.
func (s *State) Encode() ([]byte, error) {
	blob, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode league state: %w", err)
	}
	return blob, nil
}

// Decode restores a state from Encode output.
func Decode(blob []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(blob, &s); err != nil {
		return nil, fmt.Errorf("decode league state: %w", err)
	}
	return &s, nil
}

// Clone returns a deep copy sharing nothing with s.
func (s *State) Clone() (*State, error) {
	blob, err := s.Encode()
	if err != nil {
		return nil, err
	}
	return Decode(blob)
}

// Validate checks the cross-entity invariants: each player has exactly
// one owner that agrees with the player's club reference, and lineups
// only name the club's own players, each at most once.
func (s *State) Validate() error {
	owners := make(map[squad.PlayerID]squad.ClubID)
	claim := func(p *squad.Player, owner squad.ClubID) error {
		if prev, ok := owners[p.ID]; ok {
			return fmt.Errorf("player %d owned by both %d and %d", p.ID, prev, owner)
		}
		if p.ClubID != owner {
			return fmt.Errorf("player %d points at club %d but is held by %d", p.ID, p.ClubID, owner)
		}
		owners[p.ID] = owner
		return nil
	}
	for _, c := range s.Clubs {
		for _, p := range c.Roster {
			if err := claim(p, c.ID); err != nil {
				return err
			}
		}
		seen := make(map[squad.PlayerID]string)
		for role, id := range c.Lineup {
			if c.Player(id) == nil {
				return fmt.Errorf("%s lineup role %s names player %d not on the roster", c.Name, role, id)
			}
			if other, ok := seen[id]; ok {
				return fmt.Errorf("%s lineup has player %d in %s and %s", c.Name, id, other, role)
			}
			seen[id] = role
		}
	}
	for _, p := range s.FreeAgents {
		if err := claim(p, squad.FreeAgent); err != nil {
			return err
		}
	}
	if s.UserClub() == nil {
		return fmt.Errorf("user club %d missing", s.UserClubID)
	}
	if n := s.SeasonLength(); s.Week < 1 || s.Week > n {
		return fmt.Errorf("week %d outside season of %d weeks", s.Week, n)
	}
	return nil
}
