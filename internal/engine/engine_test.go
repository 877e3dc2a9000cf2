package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/talgya/touchline/internal/entropy"
	"github.com/talgya/touchline/internal/finance"
	"github.com/talgya/touchline/internal/league"
	"github.com/talgya/touchline/internal/match"
	"github.com/talgya/touchline/internal/squad"
	"github.com/talgya/touchline/internal/transfer"
)

func newGame(t *testing.T, perDivision int) (*Engine, *league.State) {
	t.Helper()
	s, err := league.New(league.Setup{
		UserClub:         "Touchline FC",
		UserDivision:     2,
		ClubsPerDivision: perDivision,
		FreeAgents:       6,
		Seed:             11,
	}, entropy.NewSeeded(11))
	if err != nil {
		t.Fatalf("league.New: %v", err)
	}
	return New(finance.DefaultLedger(), entropy.NewSeeded(12), 11), s
}

func advance(t *testing.T, e *Engine, s *league.State) (*league.State, *WeekReport) {
	t.Helper()
	next, report, err := e.AdvanceWeek(s, nil)
	if err != nil {
		t.Fatalf("AdvanceWeek (season %d week %d): %v", s.Season, s.Week, err)
	}
	return next, report
}

func TestAdvanceWeekLeavesInputUntouched(t *testing.T) {
	e, s := newGame(t, 4)
	before, _ := s.Encode()
	next, _ := advance(t, e, s)
	after, _ := s.Encode()
	if string(before) != string(after) {
		t.Fatalf("AdvanceWeek modified its input state")
	}
	if next.Week != 2 || s.Week != 1 {
		t.Fatalf("weeks: input %d, output %d", s.Week, next.Week)
	}
	if err := next.Validate(); err != nil {
		t.Fatalf("next state invalid: %v", err)
	}
}

func TestAdvanceWeekPlaysEveryDivision(t *testing.T) {
	e, s := newGame(t, 6)
	next, report := advance(t, e, s)
	if len(report.Results) != 9 {
		t.Fatalf("played %d matches, want 9 across three divisions", len(report.Results))
	}
	for _, m := range next.Calendar.Week(1) {
		if !m.Played || !m.Counted {
			t.Fatalf("week 1 match %d v %d not played and counted", m.Home, m.Away)
		}
		for i := 1; i < len(m.Events); i++ {
			if m.Events[i].Minute < m.Events[i-1].Minute {
				t.Fatalf("events out of order")
			}
		}
	}
	points, played := 0, 0
	for _, c := range next.Clubs {
		points += c.Record.Points
		played += c.Record.Played
		if c.Record.Played != 1 {
			t.Errorf("%s played %d matches in week 1", c.Name, c.Record.Played)
		}
	}
	draws := 0
	for _, m := range report.Results {
		if m.Score[match.Home] == m.Score[match.Away] {
			draws++
		}
	}
	if want := 3*len(report.Results) - draws; points != want {
		t.Errorf("points %d, want %d", points, want)
	}
}

func TestAdvanceWeekUsesSuppliedResult(t *testing.T) {
	e, s := newGame(t, 4)
	m := s.UserFixture()
	home := s.Club(m.Home)
	scorer := home.Roster[5]
	r := match.Result{Score: [2]int{1, 0}, Events: []match.Event{
		{Minute: 33, Type: match.Goal, Side: match.Home, Player: scorer.ID},
	}}
	next, report, err := e.AdvanceWeek(s, ResultFor(s, r))
	if err != nil {
		t.Fatal(err)
	}
	if report.UserMatch.Score != [2]int{1, 0} {
		t.Fatalf("user score = %v", report.UserMatch.Score)
	}
	if got := next.Club(home.ID).Player(scorer.ID).Goals; got != 1 {
		t.Fatalf("scorer goals = %d, want 1", got)
	}
	if next.Club(m.Home).Record.Points != 3 {
		t.Fatalf("home points = %d", next.Club(m.Home).Record.Points)
	}
}

func TestAdvanceWeekRejectsPlayedFixture(t *testing.T) {
	e, s := newGame(t, 4)
	s.UserFixture().Played = true
	if _, _, err := e.AdvanceWeek(s, nil); !errors.Is(err, ErrNoUserFixture) {
		t.Fatalf("err = %v, want ErrNoUserFixture", err)
	}
}

func TestAgreedTransferResolvesAtWeekEnd(t *testing.T) {
	e, s := newGame(t, 4)
	user := s.UserClub()
	user.Budget = decimal.NewFromInt(50_000_000)
	fa := s.FreeAgents[0]
	fa.Ambition = 0
	n, _ := s.OpenNegotiation(fa.ID, entropy.NewSeeded(1))
	if _, err := s.OfferFee(n.ID, fa.Value); err != nil {
		t.Fatal(err)
	}
	if _, err := s.OfferTerms(n.ID, decimal.NewFromInt(5_000), squad.Starter); err != nil || n.Status != transfer.Agreed {
		t.Fatalf("terms: %v %s", err, n.Status)
	}
	cost := n.Cost()
	budget := user.Budget

	next, report := advance(t, e, s)
	nu := next.UserClub()
	if nu.Player(fa.ID) == nil || next.FreeAgents.Find(fa.ID) != nil {
		t.Fatalf("free agent not signed")
	}
	want := budget.Add(report.Finance.Total).Sub(cost)
	if !nu.Budget.Equal(want) {
		t.Fatalf("budget = %s, want %s", nu.Budget, want)
	}
	if len(next.Negotiations) != 0 || len(report.Transfers) != 1 || !report.Transfers[0].Completed {
		t.Fatalf("negotiations %d, transfers %+v", len(next.Negotiations), report.Transfers)
	}
}

func TestUnfundedTransferIsDropped(t *testing.T) {
	e, s := newGame(t, 4)
	fa := s.FreeAgents[0]
	n := transfer.Open(transfer.NewID(entropy.NewSeeded(1)), fa, nil, s.UserClubID)
	n.Status = transfer.Agreed
	n.Fee = decimal.NewFromInt(1_000_000_000_000)
	pending := transfer.Open(transfer.NewID(entropy.NewSeeded(2)), s.Club(1).Roster[0], s.Club(1), s.UserClubID)
	s.Negotiations = append(s.Negotiations, n, pending)

	next, report := advance(t, e, s)
	if next.FreeAgents.Find(fa.ID) == nil {
		t.Fatalf("unfunded transfer executed")
	}
	if len(report.Transfers) != 1 || report.Transfers[0].Completed {
		t.Fatalf("transfers = %+v", report.Transfers)
	}
	if len(next.Negotiations) != 1 || next.Negotiations[0].ID != pending.ID {
		t.Fatalf("in-progress negotiation should carry over")
	}
}

func TestNegotiationForMovedPlayerIsDropped(t *testing.T) {
	e, s := newGame(t, 4)
	fa := s.FreeAgents[0]
	n, err := s.OpenNegotiation(fa.ID, entropy.NewSeeded(1))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Club(1).Add(s.FreeAgents.Remove(fa.ID)); err != nil {
		t.Fatal(err)
	}
	next, _ := advance(t, e, s)
	if next.Negotiations.Find(n.ID) != nil {
		t.Fatalf("negotiation for a player signed elsewhere carried over")
	}
}

func TestSeasonRollover(t *testing.T) {
	e, s := newGame(t, 4)
	s.UserClub().Roster[0].TransferListed = true
	var report *WeekReport
	for week := 1; week <= 6; week++ {
		s, report = advance(t, e, s)
	}
	if report.Rollover == nil {
		t.Fatalf("no rollover after the final week")
	}
	if s.Season != 2 || s.Week != 1 || len(s.History) != 1 {
		t.Fatalf("season %d week %d history %d", s.Season, s.Week, len(s.History))
	}
	rec := s.History[0]
	for d := squad.TopDivision; d <= squad.BottomDivision; d++ {
		if rec.Champions[d] == "" || rec.TopScorers[d].Name == "" {
			t.Errorf("division %d missing champion or top scorer: %+v", d, rec)
		}
	}
	for _, c := range s.Clubs {
		if c.Record != (squad.Record{}) {
			t.Errorf("%s record not reset: %+v", c.Name, c.Record)
		}
		for _, p := range c.Roster {
			if p.Goals != 0 {
				t.Errorf("%s kept %d goals", p.Name, p.Goals)
			}
		}
	}
	if len(s.Negotiations) != 0 || len(s.Offers) != 0 {
		t.Errorf("negotiations/offers survived rollover")
	}
	for _, m := range s.Calendar.Week(1) {
		if m.Played {
			t.Fatalf("new calendar has played matches")
		}
	}
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestRolloverCrownsTableLeader(t *testing.T) {
	e, s := newGame(t, 4)
	div := s.Division(1)
	div[0].Record = squad.Record{Points: 10, GoalsFor: 8, GoalsAgainst: 2}
	div[1].Record = squad.Record{Points: 12, GoalsFor: 5, GoalsAgainst: 5}
	div[2].Record = squad.Record{Points: 12, GoalsFor: 9, GoalsAgainst: 4}
	div[3].Record = squad.Record{Points: 12, GoalsFor: 7, GoalsAgainst: 2}
	div[2].Roster[4].Goals = 6
	div[3].Roster[1].Goals = 6
	rec, err := e.Rollover(s)
	if err != nil {
		t.Fatal(err)
	}
	// div[2] and div[3] share GD +5; div[2] has more goals for.
	if rec.Champions[1] != div[2].Name {
		t.Fatalf("champion = %s, want %s", rec.Champions[1], div[2].Name)
	}
	if rec.TopScorers[1].Club != div[2].Name || rec.TopScorers[1].Goals != 6 {
		t.Fatalf("top scorer = %+v", rec.TopScorers[1])
	}
}

func TestDeterministicWeeks(t *testing.T) {
	e1, s1 := newGame(t, 4)
	e2, s2 := newGame(t, 4)
	a, _ := advance(t, e1, s1)
	b, _ := advance(t, e2, s2)
	ab, _ := a.Encode()
	bb, _ := b.Encode()
	if string(ab) != string(bb) {
		t.Fatalf("same seeds produced different weeks")
	}
}

type memStore struct {
	mu    sync.Mutex
	saved []int
}

func (m *memStore) SaveState(_ context.Context, s *league.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, s.Week)
	return nil
}

type memPub struct {
	mu      sync.Mutex
	reports []any
}

func (m *memPub) Publish(_ context.Context, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, v)
	return nil
}

func TestSessionSerialisesCommands(t *testing.T) {
	e, s := newGame(t, 4)
	store, pub := &memStore{}, &memPub{}
	sess := NewSession(e, s, store, pub)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := sess.Advance(ctx, nil); err != nil {
				t.Errorf("Advance: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := sess.Snapshot().Week; got != 4 {
		t.Fatalf("week = %d after three advances, want 4", got)
	}
	if len(store.saved) != 3 || len(pub.reports) != 3 {
		t.Fatalf("saved %d, published %d", len(store.saved), len(pub.reports))
	}

	failing := errors.New("nope")
	before := sess.Snapshot()
	err := sess.Do(ctx, func(st *league.State, _ entropy.Source) error {
		st.UserClub().Budget = decimal.Zero
		return failing
	})
	if !errors.Is(err, failing) || sess.Snapshot() != before {
		t.Fatalf("failed command replaced the state")
	}
	err = sess.Do(ctx, func(st *league.State, rng entropy.Source) error {
		_, err := st.OpenNegotiation(st.FreeAgents[0].ID, rng)
		return err
	})
	if err != nil || len(sess.Snapshot().Negotiations) != 1 || len(before.Negotiations) != 0 {
		t.Fatalf("Do: %v", err)
	}
}

func TestSessionClosed(t *testing.T) {
	e, s := newGame(t, 4)
	sess := NewSession(e, s, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go sess.Run(ctx)
	cancel()
	<-sess.done
	if _, err := sess.Advance(context.Background(), nil); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("err = %v, want ErrSessionClosed", err)
	}
}

func TestAutoplay(t *testing.T) {
	e, s := newGame(t, 4)
	sess := NewSession(e, s, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)
	n, err := Autoplay(ctx, sess, 7, time.Millisecond)
	if err != nil || n != 7 {
		t.Fatalf("Autoplay = %d, %v", n, err)
	}
	if snap := sess.Snapshot(); snap.Season != 2 || snap.Week != 2 {
		t.Fatalf("season %d week %d after 7 weeks of a 6-week season", snap.Season, snap.Week)
	}
}

func TestSessionLiveMatch(t *testing.T) {
	e, s := newGame(t, 4)
	sess := NewSession(e, s, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	f, err := sess.LiveMatch(ctx)
	if err != nil {
		t.Fatalf("LiveMatch: %v", err)
	}
	if !f.Match.Involves(s.UserClubID) || f.Match.Played {
		t.Fatalf("fixture %+v is not the user's unplayed match", f.Match)
	}
	if f.Season != s.Season || f.Week != s.Week {
		t.Fatalf("live fixture for season %d week %d, want %d/%d", f.Season, f.Week, s.Season, s.Week)
	}
	result := f.Live.Finish()
	report, err := sess.Advance(ctx, f.Result(result))
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if report.UserMatch.Score != result.Score {
		t.Fatalf("user match %v, live result %v", report.UserMatch.Score, result.Score)
	}
}

func TestStaleLiveResultIsRefused(t *testing.T) {
	e, s := newGame(t, 4)
	sess := NewSession(e, s, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	f, err := sess.LiveMatch(ctx)
	if err != nil {
		t.Fatalf("LiveMatch: %v", err)
	}
	if _, err := sess.Advance(ctx, nil); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	before := sess.Snapshot()
	if _, err := sess.Advance(ctx, f.Result(f.Live.Finish())); !errors.Is(err, ErrNoUserFixture) {
		t.Fatalf("stale result: err = %v, want ErrNoUserFixture", err)
	}
	if after := sess.Snapshot(); after != before {
		t.Fatalf("stale result replaced the state")
	}
	if m := before.UserFixture(); m == nil || m.Played {
		t.Fatalf("week %d fixture was played by a stale result", before.Week)
	}
}

func TestAdvanceWeekRejectsOtherWeekResult(t *testing.T) {
	e, s := newGame(t, 4)
	r := &UserResult{Season: s.Season, Week: s.Week + 1, Result: match.Result{Score: [2]int{2, 0}}}
	if _, _, err := e.AdvanceWeek(s, r); !errors.Is(err, ErrNoUserFixture) {
		t.Fatalf("err = %v, want ErrNoUserFixture", err)
	}
}
