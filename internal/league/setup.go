package league

import (
	"fmt"

	"github.com/talgya/touchline/internal/entropy"
	"github.com/talgya/touchline/internal/fixtures"
	"github.com/talgya/touchline/internal/squad"
)

// Setup describes a new game.
type Setup struct {
	UserClub         string
	UserDivision     int
	ClubsPerDivision int
	Rivals           []string // rival club names, used in order
	FreeAgents       int
	Seed             int64
}

// New creates a league for week 1 of season 1: the user's club, AI rivals
// in every division, a free-agent pool and the first calendar.
func New(setup Setup, rng entropy.Source) (*State, error) {
	if !squad.ValidDivision(setup.UserDivision) {
		return nil, fmt.Errorf("new league: user division %d outside %d–%d",
			setup.UserDivision, squad.TopDivision, squad.BottomDivision)
	}
	if setup.ClubsPerDivision < 2 || setup.ClubsPerDivision%2 != 0 {
		return nil, fmt.Errorf("new league: %d clubs per division: %w", setup.ClubsPerDivision, fixtures.ErrConfiguration)
	}

	s := &State{Season: 1, Week: 1, Seed: setup.Seed}
	g := squad.NewGenerator(rng)
	rival := 0
	nextName := func() string {
		rival++
		if rival <= len(setup.Rivals) {
			return setup.Rivals[rival-1]
		}
		return fmt.Sprintf("Athletic %d", rival)
	}

	for d := squad.TopDivision; d <= squad.BottomDivision; d++ {
		for i := 0; i < setup.ClubsPerDivision; i++ {
			if d == setup.UserDivision && i == 0 {
				c := g.Club(setup.UserClub, d, true)
				c.AutoLineup()
				s.UserClubID = c.ID
				s.Clubs = append(s.Clubs, c)
				continue
			}
			s.Clubs = append(s.Clubs, g.Club(nextName(), d, false))
		}
	}
	s.FreeAgents = g.FreeAgents(setup.FreeAgents)

	cal, err := fixtures.Build(s.Clubs)
	if err != nil {
		return nil, fmt.Errorf("new league: %w", err)
	}
	s.Calendar = cal
	s.SyncIDs(g)
	return s, nil
}
