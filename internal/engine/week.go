// Package engine advances the league one week at a time and rolls seasons
// over, and serialises all state changes through a single-writer Session.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/touchline/internal/entropy"
	"github.com/talgya/touchline/internal/finance"
	"github.com/talgya/touchline/internal/league"
	"github.com/talgya/touchline/internal/match"
	"github.com/talgya/touchline/internal/squad"
	"github.com/talgya/touchline/internal/standings"
	"github.com/talgya/touchline/internal/transfer"
)

// ErrNoUserFixture is returned when the user has no unplayed match in the
// current week.
var ErrNoUserFixture = errors.New("no unplayed user fixture this week")

// Engine runs week advances against an injected random source.
type Engine struct {
	Ledger finance.Ledger
	Morale *squad.MoraleField
	RNG    entropy.Source
}

// New creates an engine. The morale field is seeded from the game seed so
// mood swings replay with the game.
func New(ledger finance.Ledger, rng entropy.Source, seed int64) *Engine {
	return &Engine{Ledger: ledger, Morale: squad.NewMoraleField(seed), RNG: rng}
}

// TransferNote records a negotiation resolved at week time.
type TransferNote struct {
	Player    string `json:"player"`
	From      string `json:"from"`
	Completed bool   `json:"completed"`
	Reason    string `json:"reason,omitempty"`
}

// WeekReport summarises one week advance.
type WeekReport struct {
	Season    int                  `json:"season"`
	Week      int                  `json:"week"`
	UserMatch *match.Match         `json:"user_match"`
	Results   []*match.Match       `json:"results"`
	Finance   finance.Report       `json:"finance"`
	Transfers []TransferNote       `json:"transfers,omitempty"`
	NewOffers []*transfer.Offer    `json:"new_offers,omitempty"`
	Rollover  *league.SeasonRecord `json:"rollover,omitempty"`
}

// UserResult settles the user's fixture for one week. A result for any
// other week is refused.
type UserResult struct {
	Season int
	Week   int
	Result match.Result
}

// ResultFor ties r to the state's current week.
func ResultFor(s *league.State, r match.Result) *UserResult {
	return &UserResult{Season: s.Season, Week: s.Week, Result: r}
}

// AdvanceWeek plays the current week and returns the next state. The
// input state is never modified; on error it remains the current state.
// A nil userResult plays the user's match live to full time.
func (e *Engine) AdvanceWeek(s *league.State, userResult *UserResult) (*league.State, *WeekReport, error) {
	if m := s.UserFixture(); m == nil || m.Played {
		return nil, nil, fmt.Errorf("advance season %d week %d: %w", s.Season, s.Week, ErrNoUserFixture)
	}
	if userResult != nil && (userResult.Season != s.Season || userResult.Week != s.Week) {
		return nil, nil, fmt.Errorf("result for season %d week %d while at season %d week %d: %w",
			userResult.Season, userResult.Week, s.Season, s.Week, ErrNoUserFixture)
	}
	next, err := s.Clone()
	if err != nil {
		return nil, nil, fmt.Errorf("advance week: %w", err)
	}
	report := &WeekReport{Season: next.Season, Week: next.Week}

	if err := e.playUserMatch(next, userResult, report); err != nil {
		return nil, nil, err
	}
	if err := e.playOthers(next, report); err != nil {
		return nil, nil, err
	}
	standings.Apply(next.Club, report.Results)

	e.runLedger(next, report)
	e.resolveTransfers(next, report)
	report.NewOffers = transfer.GenerateOffers(next.UserClub(), next.Rivals(), e.RNG)
	next.Offers = append(next.Offers, report.NewOffers...)
	e.weeklyCondition(next)

	next.Week++
	if next.Week > next.SeasonLength() {
		record, err := e.Rollover(next)
		if err != nil {
			return nil, nil, err
		}
		report.Rollover = record
	}

	slog.Info("week advanced",
		"season", report.Season,
		"week", report.Week,
		"matches", len(report.Results),
		"score", fmt.Sprintf("%d-%d", report.UserMatch.Score[match.Home], report.UserMatch.Score[match.Away]),
		"budget", next.UserClub().Budget.StringFixed(0),
		"transfers", len(report.Transfers),
		"new_offers", len(report.NewOffers),
	)
	return next, report, nil
}

func (e *Engine) playUserMatch(s *league.State, userResult *UserResult, report *WeekReport) error {
	m := s.UserFixture()
	home, away := s.Club(m.Home), s.Club(m.Away)
	var r match.Result
	if userResult != nil {
		r = userResult.Result
	} else {
		r = match.NewLive(match.TeamOf(home), match.TeamOf(away), e.RNG).Finish()
	}
	if err := match.Commit(m, r, home, away); err != nil {
		return fmt.Errorf("user match: %w", err)
	}
	report.UserMatch = m
	report.Results = append(report.Results, m)
	return nil
}

func (e *Engine) playOthers(s *league.State, report *WeekReport) error {
	for _, m := range s.Calendar.Week(s.Week) {
		if m.Played {
			continue
		}
		home, away := s.Club(m.Home), s.Club(m.Away)
		r := match.Batch(match.TeamOf(home), match.TeamOf(away), e.RNG)
		if err := match.Commit(m, r, home, away); err != nil {
			return fmt.Errorf("division %d: %w", m.Division, err)
		}
		slog.Debug("match played", "division", m.Division, "week", m.Week,
			"home", home.Name, "away", away.Name, "score", fmt.Sprintf("%d-%d", m.Score[match.Home], m.Score[match.Away]))
		report.Results = append(report.Results, m)
	}
	return nil
}

func (e *Engine) runLedger(s *league.State, report *WeekReport) {
	user := s.UserClub()
	report.Finance = e.Ledger.Weekly(user, report.UserMatch.Home == user.ID, e.RNG)
	finance.Apply(user, report.Finance)
	for _, c := range s.Rivals() {
		e.Ledger.Subsidize(c)
	}
}

// resolveTransfers executes agreed negotiations the buyer can still fund
// and drops the rest of the agreed and failed ones. Negotiations still in
// progress carry over.
func (e *Engine) resolveTransfers(s *league.State, report *WeekReport) {
	kept := s.Negotiations[:0]
	for _, n := range s.Negotiations {
		switch n.Status {
		case transfer.Agreed:
			note := TransferNote{Player: n.PlayerName, From: n.SellerName}
			err := transfer.Execute(s.Club(n.BuyerID), s.Club(n.SellerID), &s.FreeAgents, n.PlayerID, n.Fee, n.Bonus)
			if err != nil {
				note.Reason = err.Error()
				slog.Warn("transfer dropped", "player", n.PlayerName, "from", n.SellerName, "error", err)
			} else {
				note.Completed = true
			}
			report.Transfers = append(report.Transfers, note)
		case transfer.Failed:
			// dropped
		default:
			if s.Available(n) == nil {
				slog.Debug("negotiation dropped, player moved", "player", n.PlayerName, "status", n.Status)
				continue
			}
			kept = append(kept, n)
		}
	}
	s.Negotiations = kept

	// Offers for players who have left the user's club can never complete.
	user := s.UserClub()
	stale := make(map[squad.PlayerID]bool)
	for _, o := range s.Offers {
		if user.Player(o.PlayerID) == nil {
			stale[o.PlayerID] = true
		}
	}
	for id := range stale {
		s.Offers.DropPlayer(id)
	}
}

func (e *Engine) weeklyCondition(s *league.State) {
	for _, c := range s.Clubs {
		for _, p := range c.Roster {
			squad.WeeklyCondition(p)
			e.Morale.Drift(p, s.Season, s.Week)
		}
		if !c.IsUser {
			c.AutoLineup()
		}
	}
}
