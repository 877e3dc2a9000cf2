package match

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/talgya/touchline/internal/entropy"
	"github.com/talgya/touchline/internal/squad"
)

func testClub(id squad.ClubID, seed int64) *squad.Club {
	g := squad.NewGenerator(entropy.NewSeeded(seed))
	g.SetNextIDs(squad.PlayerID(id)*100, id)
	return g.Club("Club", 1, false)
}

func TestAttackPowerAppliesFatiguePenalty(t *testing.T) {
	players := []*squad.Player{
		{Position: squad.Goalkeeper, Skills: squad.Skills{Finishing: 50}},
		{Position: squad.Forward, Skills: squad.Skills{Finishing: 10}, Fatigue: 40},
		{Position: squad.Forward, Skills: squad.Skills{Finishing: 10}, Fatigue: 100},
		{Position: squad.Midfielder, Skills: squad.Skills{Finishing: 10}, Fatigue: 85},
	}
	// 10 + 7 + 8.5; the keeper does not count.
	if got := AttackPower(players); got < 25.49 || got > 25.51 {
		t.Fatalf("AttackPower = %v, want 25.5", got)
	}
}

func TestBatchScoreFormula(t *testing.T) {
	home := Team{Name: "Home", Players: []*squad.Player{
		{ID: 1, Position: squad.Forward, Skills: squad.Skills{Finishing: 40}},
		{ID: 2, Position: squad.Goalkeeper},
	}}
	away := Team{Name: "Away", Players: []*squad.Player{
		{ID: 3, Position: squad.Forward, Skills: squad.Skills{Finishing: 20}},
	}}
	// home: floor(0.5×40/10)=2, away: floor(0.9×20/10)=1, minutes from
	// the next draws, then no card.
	rng := entropy.NewSequence(0.5, 0.9, 0.0, 0.5, 0.99, 0.1, 0.99)
	r := Batch(home, away, rng)
	if r.Score != [2]int{2, 1} {
		t.Fatalf("score = %v, want [2 1]", r.Score)
	}
	goals := 0
	for i, e := range r.Events {
		if i > 0 && e.Minute < r.Events[i-1].Minute {
			t.Fatalf("events not sorted: %v", r.Events)
		}
		if e.Type == Goal {
			goals++
			if e.Player == 2 {
				t.Errorf("goalkeeper credited with a goal")
			}
			if e.Minute < 10 || e.Minute > 84 {
				t.Errorf("goal minute %d out of range", e.Minute)
			}
		}
	}
	if goals != 3 {
		t.Fatalf("goal events = %d, want 3", goals)
	}
}

func TestBatchNeverNegative(t *testing.T) {
	rng := entropy.NewSeeded(1)
	for i := 0; i < 100; i++ {
		r := Batch(Team{}, Team{}, rng)
		if r.Score[Home] != 0 || r.Score[Away] != 0 {
			t.Fatalf("empty teams scored %v", r.Score)
		}
	}
}

func TestLiveDoesNotMutatePlayers(t *testing.T) {
	home, away := testClub(1, 10), testClub(2, 20)
	l := NewLive(TeamOf(home), TeamOf(away), entropy.NewSeeded(5))
	r := l.Finish()
	if l.Minute() != Minutes || !l.Done() {
		t.Fatalf("minute = %d after Finish", l.Minute())
	}
	for _, c := range []*squad.Club{home, away} {
		for _, p := range c.Roster {
			if p.Goals != 0 || p.InjuryWeeks != 0 {
				t.Fatalf("live sim mutated %s", p.Name)
			}
		}
	}
	goals := [2]int{}
	for _, e := range r.Events {
		if e.Type == Goal {
			goals[e.Side]++
		}
	}
	if goals != r.Score {
		t.Fatalf("goal events %v disagree with score %v", goals, r.Score)
	}
	if l.Step() != nil {
		t.Errorf("Step after full time should produce nothing")
	}
}

func TestLiveIsReproducible(t *testing.T) {
	home, away := testClub(1, 10), testClub(2, 20)
	a := NewLive(TeamOf(home), TeamOf(away), entropy.NewSeeded(77)).Finish()
	b := NewLive(TeamOf(home), TeamOf(away), entropy.NewSeeded(77)).Finish()
	if a.Score != b.Score || len(a.Events) != len(b.Events) {
		t.Fatalf("same seed gave %v and %v", a.Score, b.Score)
	}
}

func TestLiveChanceOutcomes(t *testing.T) {
	home := Team{Name: "H", Players: []*squad.Player{{ID: 1, Name: "Striker", Position: squad.Forward, Skills: squad.Skills{Finishing: 10}}}}
	away := Team{Name: "A", Players: []*squad.Player{{ID: 2, Name: "Keeper", Position: squad.Goalkeeper}}}

	// chance, home side, shooter, goal, no incident
	l := NewLive(home, away, entropy.NewSequence(0.01, 0.1, 0.0, 0.1, 0.9))
	events := l.Step()
	if len(events) != 1 || events[0].Type != Goal || events[0].Player != 1 || events[0].Minute != 1 {
		t.Fatalf("events = %+v, want goal by player 1", events)
	}
	if l.Score() != [2]int{1, 0} {
		t.Fatalf("score = %v", l.Score())
	}

	// chance, home side, shooter, save
	l = NewLive(home, away, entropy.NewSequence(0.01, 0.1, 0.0, 0.4, 0.9))
	events = l.Step()
	if len(events) != 1 || events[0].Type != Save || events[0].Player != 2 || events[0].Side != Away {
		t.Fatalf("events = %+v, want save by keeper", events)
	}
}

func TestCommitCreditsScorersOnce(t *testing.T) {
	home, away := testClub(1, 10), testClub(2, 20)
	scorer := home.Roster[3]
	hurt := away.Roster[4]
	m := &Match{Home: home.ID, Away: away.ID, Division: 1, Week: 1}
	r := Result{Score: [2]int{1, 0}, Events: []Event{
		{Minute: 70, Type: Injury, Side: Away, Player: hurt.ID, InjuryWeeks: 2},
		{Minute: 12, Type: Goal, Side: Home, Player: scorer.ID},
	}}
	if err := Commit(m, r, home, away); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !m.Played || m.Score != [2]int{1, 0} {
		t.Fatalf("match not stored: %+v", m)
	}
	if m.Events[0].Minute != 12 {
		t.Errorf("events not sorted on commit")
	}
	if scorer.Goals != 1 || hurt.InjuryWeeks != 2 {
		t.Errorf("goals=%d injury=%d", scorer.Goals, hurt.InjuryWeeks)
	}
	if err := Commit(m, r, home, away); !errors.Is(err, ErrAlreadyPlayed) {
		t.Fatalf("second Commit err = %v, want ErrAlreadyPlayed", err)
	}
	if scorer.Goals != 1 {
		t.Errorf("second commit credited the goal again")
	}
}

func TestRunCancelDiscardsResult(t *testing.T) {
	home, away := testClub(1, 10), testClub(2, 20)
	ctx, cancel := context.WithCancel(context.Background())
	seen := 0
	l := NewLive(TeamOf(home), TeamOf(away), entropy.NewSeeded(3))
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	r, err := Run(ctx, l, time.Hour, func(Event) { seen++ })
	if !errors.Is(err, context.Canceled) || r != nil {
		t.Fatalf("Run = %v, %v; want nil, context.Canceled", r, err)
	}
}

func TestRunCompletes(t *testing.T) {
	home, away := testClub(1, 10), testClub(2, 20)
	var streamed []Event
	r, err := Run(context.Background(), NewLive(TeamOf(home), TeamOf(away), entropy.NewSeeded(3)),
		time.Microsecond, func(e Event) { streamed = append(streamed, e) })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(streamed) != len(r.Events) {
		t.Fatalf("streamed %d events, result has %d", len(streamed), len(r.Events))
	}
}
