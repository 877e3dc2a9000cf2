package engine

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/talgya/touchline/internal/entropy"
	"github.com/talgya/touchline/internal/league"
	"github.com/talgya/touchline/internal/match"
)

// ErrSessionClosed is returned for commands sent after the session stopped.
var ErrSessionClosed = errors.New("session closed")

// Store persists a state after each week.
type Store interface {
	SaveState(ctx context.Context, s *league.State) error
}

// Publisher broadcasts week reports to presentation layers.
type Publisher interface {
	Publish(ctx context.Context, v any) error
}

// Session owns the league state. Every change goes through one goroutine,
// and each command works on a copy that replaces the current state only
// when the command succeeds, so readers always see a complete week.
type Session struct {
	engine  *Engine
	store   Store
	pub     Publisher
	current atomic.Pointer[league.State]
	cmds    chan func()
	done    chan struct{}
}

// NewSession wraps a state. Store and publisher may be nil.
func NewSession(e *Engine, s *league.State, store Store, pub Publisher) *Session {
	sess := &Session{
		engine: e,
		store:  store,
		pub:    pub,
		cmds:   make(chan func()),
		done:   make(chan struct{}),
	}
	sess.current.Store(s)
	return sess
}

// Run processes commands until ctx is cancelled.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-s.cmds:
			cmd()
		}
	}
}

// Snapshot returns the current state. Callers must treat it as read-only;
// the session never modifies a state after installing it.
func (s *Session) Snapshot() *league.State {
	return s.current.Load()
}

// Do applies fn to a copy of the current state and installs the copy if
// fn succeeds. fn draws any randomness it needs from rng.
func (s *Session) Do(ctx context.Context, fn func(st *league.State, rng entropy.Source) error) error {
	return s.submit(ctx, func() error {
		next, err := s.current.Load().Clone()
		if err != nil {
			return err
		}
		if err := fn(next, s.engine.RNG); err != nil {
			return err
		}
		s.current.Store(next)
		return nil
	})
}

// Advance plays the current week. A nil result plays the user's match
// live. The new state is saved and the report published; failures there
// are logged and do not undo the week.
func (s *Session) Advance(ctx context.Context, userResult *UserResult) (*WeekReport, error) {
	var report *WeekReport
	err := s.submit(ctx, func() error {
		next, r, err := s.engine.AdvanceWeek(s.current.Load(), userResult)
		if err != nil {
			return err
		}
		s.current.Store(next)
		report = r

		if s.store != nil {
			if err := s.store.SaveState(ctx, next); err != nil {
				slog.Warn("save after week failed", "season", r.Season, "week", r.Week, "error", err)
			}
		}
		if s.pub != nil {
			if err := s.pub.Publish(ctx, r); err != nil {
				slog.Warn("publish week report failed", "season", r.Season, "week", r.Week, "error", err)
			}
		}
		return nil
	})
	return report, err
}

// LiveFixture is the user's match prepared for minute-by-minute play.
type LiveFixture struct {
	Season int
	Week   int
	Match  *match.Match
	Live   *match.Live
}

// Result ties a finished live result to the week it was prepared for.
func (f *LiveFixture) Result(r match.Result) *UserResult {
	return &UserResult{Season: f.Season, Week: f.Week, Result: r}
}

// LiveMatch prepares the user's fixture for minute-by-minute play. The
// match draws from its own source, seeded from the engine's, so it can
// run outside the session goroutine. Pass f.Result(...) to Advance; it is
// refused if the week moved on in the meantime.
func (s *Session) LiveMatch(ctx context.Context) (*LiveFixture, error) {
	var f *LiveFixture
	err := s.submit(ctx, func() error {
		st := s.current.Load()
		m := st.UserFixture()
		if m == nil || m.Played {
			return ErrNoUserFixture
		}
		seed := int64(s.engine.RNG.Intn(math.MaxInt32))
		f = &LiveFixture{
			Season: st.Season,
			Week:   st.Week,
			Match:  m,
			Live:   match.NewLive(match.TeamOf(st.Club(m.Home)), match.TeamOf(st.Club(m.Away)), entropy.NewSeeded(seed)),
		}
		return nil
	})
	return f, err
}

func (s *Session) submit(ctx context.Context, cmd func() error) error {
	reply := make(chan error, 1)
	select {
	case s.cmds <- func() { reply <- cmd() }:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
