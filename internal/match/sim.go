package match

import (
	"fmt"
	"math"

	"github.com/talgya/touchline/internal/entropy"
	"github.com/talgya/touchline/internal/squad"
)

// Per-minute probabilities shared by both modes.
const (
	chanceRate    = 0.08
	goalShare     = 0.25 // of chances
	saveShare     = 0.30 // of chances
	cardRate      = 0.02
	injuryRate    = 0.005
	yellowShare   = 0.85 // of cards
	batchCardRate = 0.30
)

// fatiguePenalty scales a player's contribution. Above 70 fatigue the
// player loses strength linearly, down to 70% at fatigue 100.
func fatiguePenalty(fatigue int) float64 {
	if fatigue <= 70 {
		return 1
	}
	if fatigue > 100 {
		fatigue = 100
	}
	return 1 - float64(fatigue-70)/100
}

// AttackPower is the summed finishing of the outfield players, each
// reduced by fatigue.
func AttackPower(players []*squad.Player) float64 {
	var power float64
	for _, p := range players {
		if p.Position == squad.Goalkeeper {
			continue
		}
		power += float64(p.Skills.Finishing) * fatiguePenalty(p.Fatigue)
	}
	return power
}

// Batch resolves a match instantly. Each side scores
// max(0, floor(random × attackPower / 10)) goals, each goal attributed to
// a random outfield player at a random minute, plus at most one card.
func Batch(home, away Team, rng entropy.Source) Result {
	var r Result
	teams := [2]Team{Home: home, Away: away}
	for side := range teams {
		goals := int(math.Floor(rng.Float64() * AttackPower(teams[side].Players) / 10))
		r.Score[side] = max(0, goals)
	}
	for _, side := range []Side{Home, Away} {
		t := teams[side]
		for i := 0; i < r.Score[side]; i++ {
			e := Event{Minute: 10 + rng.Intn(75), Type: Goal, Side: side}
			if p := pick(outfield(t.Players), rng); p != nil {
				e.Player = p.ID
				e.Text = fmt.Sprintf("GOAL! %s scores for %s", p.Name, t.Name)
			} else {
				e.Text = fmt.Sprintf("GOAL for %s", t.Name)
			}
			r.Events = append(r.Events, e)
		}
	}
	if entropy.Chance(rng, batchCardRate) {
		side := Side(rng.Intn(2))
		e := Event{Minute: 40, Type: Yellow, Side: side, Text: fmt.Sprintf("Yellow card for %s", teams[side].Name)}
		if p := pick(teams[side].Players, rng); p != nil {
			e.Player = p.ID
			e.Text = fmt.Sprintf("Yellow card for %s (%s)", p.Name, teams[side].Name)
		}
		r.Events = append(r.Events, e)
	}
	SortEvents(r.Events)
	return r
}

func outfield(players []*squad.Player) []*squad.Player {
	out := make([]*squad.Player, 0, len(players))
	for _, p := range players {
		if p.Position != squad.Goalkeeper {
			out = append(out, p)
		}
	}
	return out
}

func attackers(players []*squad.Player) []*squad.Player {
	var out []*squad.Player
	for _, p := range players {
		if p.Position == squad.Midfielder || p.Position == squad.Forward {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return outfield(players)
	}
	return out
}

func keeper(players []*squad.Player) *squad.Player {
	for _, p := range players {
		if p.Position == squad.Goalkeeper {
			return p
		}
	}
	return nil
}

func pick(players []*squad.Player, rng entropy.Source) *squad.Player {
	if len(players) == 0 {
		return nil
	}
	return players[rng.Intn(len(players))]
}
