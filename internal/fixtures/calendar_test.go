package fixtures

import (
	"errors"
	"testing"

	"github.com/talgya/touchline/internal/squad"
)

func ids(n int) []squad.ClubID {
	out := make([]squad.ClubID, n)
	for i := range out {
		out[i] = squad.ClubID(i + 1)
	}
	return out
}

func TestGenerateDoubleRoundRobin(t *testing.T) {
	for _, n := range []int{2, 4, 6, 8, 10, 20} {
		weeks, err := Generate(1, ids(n))
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if len(weeks) != 2*(n-1) {
			t.Fatalf("n=%d: %d weeks, want %d", n, len(weeks), 2*(n-1))
		}
		home := make(map[squad.ClubID]int)
		away := make(map[squad.ClubID]int)
		pairs := make(map[[2]squad.ClubID]int)
		for i, w := range weeks {
			if w.Number != i+1 {
				t.Fatalf("n=%d: week %d numbered %d", n, i+1, w.Number)
			}
			seen := make(map[squad.ClubID]bool)
			for _, m := range w.Matches {
				if seen[m.Home] || seen[m.Away] || m.Home == m.Away {
					t.Fatalf("n=%d week %d: club plays twice", n, w.Number)
				}
				seen[m.Home], seen[m.Away] = true, true
				home[m.Home]++
				away[m.Away]++
				pairs[[2]squad.ClubID{m.Home, m.Away}]++
				if m.Week != w.Number || m.Division != 1 {
					t.Fatalf("match metadata %+v in week %d", m, w.Number)
				}
			}
			if len(seen) != n {
				t.Fatalf("n=%d week %d: %d clubs play, want %d", n, w.Number, len(seen), n)
			}
		}
		for _, id := range ids(n) {
			if home[id] != n-1 || away[id] != n-1 {
				t.Errorf("n=%d club %d: %d home, %d away", n, id, home[id], away[id])
			}
		}
		// Every ordered pairing occurs exactly once.
		if len(pairs) != n*(n-1) {
			t.Errorf("n=%d: %d distinct ordered pairings, want %d", n, len(pairs), n*(n-1))
		}
	}
}

func TestGenerateReturnLegMirrors(t *testing.T) {
	weeks, _ := Generate(2, ids(8))
	if len(weeks) != 14 {
		t.Fatalf("8 clubs gave %d weeks, want 14", len(weeks))
	}
	for r := 0; r < 7; r++ {
		for i, m := range weeks[r].Matches {
			back := weeks[r+7].Matches[i]
			if back.Home != m.Away || back.Away != m.Home {
				t.Fatalf("week %d match %d is not the mirror of week %d", r+8, i, r+1)
			}
		}
	}
}

func TestGenerateRejectsOddCounts(t *testing.T) {
	for _, n := range []int{0, 1, 3, 7} {
		if _, err := Generate(1, ids(n)); !errors.Is(err, ErrConfiguration) {
			t.Errorf("n=%d: err = %v, want ErrConfiguration", n, err)
		}
	}
}

func TestBuildRequiresUniformDivisions(t *testing.T) {
	var clubs []*squad.Club
	for i := 1; i <= 12; i++ {
		clubs = append(clubs, &squad.Club{ID: squad.ClubID(i), Division: 1 + (i-1)/4})
	}
	cal, err := Build(clubs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cal.Length() != 6 || len(cal.Divisions()) != 3 {
		t.Fatalf("length %d divisions %v", cal.Length(), cal.Divisions())
	}
	if got := len(cal.Week(1)); got != 6 {
		t.Errorf("week 1 has %d matches across divisions, want 6", got)
	}
	if m := cal.Fixture(5, 3); m == nil || !m.Involves(5) || m.Division != 2 {
		t.Errorf("Fixture(5, 3) = %+v", m)
	}

	clubs = append(clubs, &squad.Club{ID: 13, Division: 3}, &squad.Club{ID: 14, Division: 3})
	if _, err := Build(clubs); !errors.Is(err, ErrConfiguration) {
		t.Errorf("uneven divisions: err = %v, want ErrConfiguration", err)
	}
}
