// Package fixtures builds double round-robin league calendars.
package fixtures

import (
	"errors"
	"fmt"
	"sort"

	"github.com/talgya/touchline/internal/match"
	"github.com/talgya/touchline/internal/squad"
)

// ErrConfiguration is returned when a division cannot be scheduled.
var ErrConfiguration = errors.New("calendar configuration error")

// Week is one matchday of a division.
type Week struct {
	Number  int            `json:"number"`
	Matches []*match.Match `json:"matches"`
}

// Calendar maps each division to its ordered weeks.
type Calendar map[int][]Week

// Generate builds a circle-method double round-robin for one division.
// The first leg has N−1 rounds with home and away alternating by round
// parity; the return leg mirrors it with venues swapped.
func Generate(division int, clubs []squad.ClubID) ([]Week, error) {
	n := len(clubs)
	if n == 0 || n%2 != 0 {
		return nil, fmt.Errorf("division %d has %d clubs, need a positive even count: %w", division, n, ErrConfiguration)
	}

	rounds := n - 1
	weeks := make([]Week, 0, 2*rounds)
	for r := 0; r < rounds; r++ {
		week := Week{Number: r + 1}
		for m := 0; m < n/2; m++ {
			var home, away squad.ClubID
			if m == 0 {
				home, away = clubs[r%rounds], clubs[n-1]
			} else {
				home, away = clubs[(r+m)%rounds], clubs[(rounds-m+r)%rounds]
			}
			if r%2 == 1 {
				home, away = away, home
			}
			week.Matches = append(week.Matches, &match.Match{Home: home, Away: away, Division: division, Week: week.Number})
		}
		weeks = append(weeks, week)
	}

	for r := 0; r < rounds; r++ {
		week := Week{Number: rounds + r + 1}
		for _, first := range weeks[r].Matches {
			week.Matches = append(week.Matches, &match.Match{Home: first.Away, Away: first.Home, Division: division, Week: week.Number})
		}
		weeks = append(weeks, week)
	}
	return weeks, nil
}

// Build generates the calendar for every division of the league. All
// divisions must have the same size so the season length is uniform.
func Build(clubs []*squad.Club) (Calendar, error) {
	byDivision := make(map[int][]squad.ClubID)
	for _, c := range clubs {
		byDivision[c.Division] = append(byDivision[c.Division], c.ID)
	}
	if len(byDivision) == 0 {
		return nil, fmt.Errorf("no clubs to schedule: %w", ErrConfiguration)
	}

	divisions := make([]int, 0, len(byDivision))
	for d := range byDivision {
		divisions = append(divisions, d)
	}
	sort.Ints(divisions)

	size := len(byDivision[divisions[0]])
	cal := make(Calendar, len(divisions))
	for _, d := range divisions {
		if len(byDivision[d]) != size {
			return nil, fmt.Errorf("division %d has %d clubs, division %d has %d: %w",
				d, len(byDivision[d]), divisions[0], size, ErrConfiguration)
		}
		weeks, err := Generate(d, byDivision[d])
		if err != nil {
			return nil, err
		}
		cal[d] = weeks
	}
	return cal, nil
}

// Length returns the number of weeks in the season.
func (c Calendar) Length() int {
	for _, weeks := range c {
		return len(weeks)
	}
	return 0
}

// Week returns the matches of every division for a week number.
func (c Calendar) Week(number int) []*match.Match {
	var out []*match.Match
	for _, d := range c.Divisions() {
		for _, w := range c[d] {
			if w.Number == number {
				out = append(out, w.Matches...)
			}
		}
	}
	return out
}

// Divisions returns the scheduled divisions in ascending order.
func (c Calendar) Divisions() []int {
	ds := make([]int, 0, len(c))
	for d := range c {
		ds = append(ds, d)
	}
	sort.Ints(ds)
	return ds
}

// Fixture returns the club's match in the given week, or nil.
func (c Calendar) Fixture(club squad.ClubID, week int) *match.Match {
	for _, m := range c.Week(week) {
		if m.Involves(club) {
			return m
		}
	}
	return nil
}
