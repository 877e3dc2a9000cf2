// Package standings folds match results into club records and ranks the
// league table.
package standings

import (
	"sort"

	"github.com/talgya/touchline/internal/match"
	"github.com/talgya/touchline/internal/squad"
)

// Points returns the league points for a side that scored gf and conceded ga.
func Points(gf, ga int) int {
	switch {
	case gf > ga:
		return 3
	case gf == ga:
		return 1
	default:
		return 0
	}
}

// Lookup resolves a club by identity.
type Lookup func(squad.ClubID) *squad.Club

// Apply adds every played, not yet counted match to the records of the
// two clubs and marks it counted. Matches already counted are skipped, so
// applying the same week twice changes nothing. Returns the number of
// matches counted.
func Apply(lookup Lookup, matches []*match.Match) int {
	counted := 0
	for _, m := range matches {
		if !m.Played || m.Counted {
			continue
		}
		home, away := lookup(m.Home), lookup(m.Away)
		if home == nil || away == nil {
			continue
		}
		record(&home.Record, m.Score[match.Home], m.Score[match.Away])
		record(&away.Record, m.Score[match.Away], m.Score[match.Home])
		m.Counted = true
		counted++
	}
	return counted
}

func record(r *squad.Record, gf, ga int) {
	r.Played++
	r.GoalsFor += gf
	r.GoalsAgainst += ga
	r.Points += Points(gf, ga)
}

// Table orders clubs by points, goal difference and goals for, all
// descending. Remaining ties keep the input order.
func Table(clubs []*squad.Club) []*squad.Club {
	out := append([]*squad.Club(nil), clubs...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Record, out[j].Record
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference() != b.GoalDifference() {
			return a.GoalDifference() > b.GoalDifference()
		}
		return a.GoalsFor > b.GoalsFor
	})
	return out
}

// Champion returns the top of the table, or nil for no clubs.
func Champion(clubs []*squad.Club) *squad.Club {
	table := Table(clubs)
	if len(table) == 0 {
		return nil
	}
	return table[0]
}

// Scorer is the leading goalscorer of a division.
type Scorer struct {
	Name  string `json:"name"`
	Club  string `json:"club"`
	Goals int    `json:"goals"`
}

// TopScorer returns the player with the most goals in the given clubs.
// Ties go to the first player encountered. With no goals at all the first
// rostered player is returned with zero.
func TopScorer(clubs []*squad.Club) (Scorer, bool) {
	var best Scorer
	found := false
	for _, c := range clubs {
		for _, p := range c.Roster {
			if !found || p.Goals > best.Goals {
				best = Scorer{Name: p.Name, Club: c.Name, Goals: p.Goals}
				found = true
			}
		}
	}
	return best, found
}
