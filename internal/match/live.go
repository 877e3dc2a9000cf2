package match

import (
	"context"
	"fmt"
	"time"

	"github.com/talgya/touchline/internal/entropy"
)

// Live steps a match forward one minute at a time. It only reads the
// squads; nothing is credited until the result is committed.
type Live struct {
	teams  [2]Team
	power  [2]float64
	rng    entropy.Source
	minute int
	result Result
}

// NewLive prepares a live match at minute zero.
func NewLive(home, away Team, rng entropy.Source) *Live {
	return &Live{
		teams: [2]Team{Home: home, Away: away},
		power: [2]float64{Home: AttackPower(home.Players), Away: AttackPower(away.Players)},
		rng:   rng,
	}
}

// Minute returns the last minute simulated.
func (l *Live) Minute() int { return l.minute }

// Done reports whether the final whistle has gone.
func (l *Live) Done() bool { return l.minute >= Minutes }

// Score returns the running score.
func (l *Live) Score() [2]int { return l.result.Score }

// Step simulates the next minute and returns the events it produced.
func (l *Live) Step() []Event {
	if l.Done() {
		return nil
	}
	l.minute++
	start := len(l.result.Events)

	if l.rng.Float64() < chanceRate {
		l.chance()
	}
	incident := l.rng.Float64()
	switch {
	case incident < cardRate:
		l.card()
	case incident < cardRate+injuryRate:
		l.injury()
	}
	return l.result.Events[start:]
}

// Finish plays out the remaining minutes.
func (l *Live) Finish() Result {
	for !l.Done() {
		l.Step()
	}
	return l.Result()
}

// Result returns a copy of the result so far.
func (l *Live) Result() Result {
	r := Result{Score: l.result.Score, Events: append([]Event(nil), l.result.Events...)}
	SortEvents(r.Events)
	return r
}

func (l *Live) add(e Event) {
	e.Minute = l.minute
	l.result.Events = append(l.result.Events, e)
}

func (l *Live) chance() {
	side := Away
	total := l.power[Home] + l.power[Away]
	homeShare := 0.5
	if total > 0 {
		homeShare = l.power[Home] / total
	}
	if l.rng.Float64() < homeShare {
		side = Home
	}
	attacking, defending := l.teams[side], l.teams[side.Other()]
	shooter := pick(attackers(attacking.Players), l.rng)
	name := attacking.Name
	if shooter != nil {
		name = shooter.Name
	}

	outcome := l.rng.Float64()
	switch {
	case outcome < goalShare:
		l.result.Score[side]++
		e := Event{Type: Goal, Side: side, Text: fmt.Sprintf("GOAL! %s scores for %s", name, attacking.Name)}
		if shooter != nil {
			e.Player = shooter.ID
		}
		l.add(e)
	case outcome < goalShare+saveShare:
		e := Event{Type: Save, Side: side.Other(), Text: fmt.Sprintf("Great save to deny %s", name)}
		if gk := keeper(defending.Players); gk != nil {
			e.Player = gk.ID
			e.Text = fmt.Sprintf("%s saves from %s", gk.Name, name)
		}
		l.add(e)
	default:
		l.add(Event{Type: Chance, Side: side, Text: fmt.Sprintf("%s goes close for %s", name, attacking.Name)})
	}
}

func (l *Live) card() {
	side := Side(l.rng.Intn(2))
	t := l.teams[side]
	kind, label := Yellow, "Yellow"
	if l.rng.Float64() >= yellowShare {
		kind, label = Red, "Red"
	}
	e := Event{Type: kind, Side: side, Text: fmt.Sprintf("%s card for %s", label, t.Name)}
	if p := pick(t.Players, l.rng); p != nil {
		e.Player = p.ID
		e.Text = fmt.Sprintf("%s card for %s (%s)", label, p.Name, t.Name)
	}
	l.add(e)
}

func (l *Live) injury() {
	side := Side(l.rng.Intn(2))
	t := l.teams[side]
	p := pick(t.Players, l.rng)
	if p == nil {
		return
	}
	l.add(Event{
		Type:        Injury,
		Side:        side,
		Player:      p.ID,
		InjuryWeeks: 1 + l.rng.Intn(3),
		Text:        fmt.Sprintf("%s (%s) is down injured", p.Name, t.Name),
	})
}

// Run drives a live match on a ticker, one minute per interval, passing
// each event to onEvent as it happens. Cancelling ctx abandons the match:
// the accumulated events are discarded and no result is returned.
func Run(ctx context.Context, l *Live, interval time.Duration, onEvent func(Event)) (*Result, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for !l.Done() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			for _, e := range l.Step() {
				if onEvent != nil {
					onEvent(e)
				}
			}
		}
	}
	r := l.Result()
	return &r, nil
}
