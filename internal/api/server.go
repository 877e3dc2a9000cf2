// Package api serves the game over HTTP.
// GET endpoints are read-only views of the current week.
// POST endpoints change the game and require the bearer token when one is
// configured.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/talgya/touchline/internal/engine"
	"github.com/talgya/touchline/internal/entropy"
	"github.com/talgya/touchline/internal/feed"
	"github.com/talgya/touchline/internal/league"
	"github.com/talgya/touchline/internal/match"
	"github.com/talgya/touchline/internal/persistence"
	"github.com/talgya/touchline/internal/scout"
	"github.com/talgya/touchline/internal/squad"
	"github.com/talgya/touchline/internal/standings"
	"github.com/talgya/touchline/internal/transfer"
)

const maxSSEConns = 4

// Server serves one game session over HTTP.
type Server struct {
	Session        *engine.Session
	Scout          scout.Service  // nil = placeholder reports
	DB             *persistence.DB // nil = history from the live state only
	Feed           *feed.Memory    // nil = no reports or stream
	Port           int
	AdminKey       string        // Bearer token for POST endpoints. Empty = open.
	ScoutPerMinute int           // per-IP scouting requests per minute
	LiveTick       time.Duration // pause between minutes of a streamed match

	// Active SSE connection count (atomic).
	sseConns int32
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	perMinute := s.ScoutPerMinute
	if perMinute <= 0 {
		perMinute = 20
	}
	scoutLimiter := NewRateLimiter(perMinute, time.Minute)

	mux := http.NewServeMux()

	// Views.
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/standings", s.handleStandings)
	mux.HandleFunc("GET /api/v1/archive/{season}/{week}/standings", s.handleArchivedStandings)
	mux.HandleFunc("GET /api/v1/formations", s.handleFormations)
	mux.HandleFunc("GET /api/v1/clubs/{id}", s.handleClub)
	mux.HandleFunc("GET /api/v1/fixtures", s.handleFixtures)
	mux.HandleFunc("GET /api/v1/market", s.handleMarket)
	mux.HandleFunc("GET /api/v1/negotiations", s.handleNegotiations)
	mux.HandleFunc("GET /api/v1/offers", s.handleOffers)
	mux.HandleFunc("GET /api/v1/history", s.handleHistory)
	mux.HandleFunc("GET /api/v1/reports", s.handleReports)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)

	// Manager actions.
	mux.HandleFunc("POST /api/v1/negotiations", s.authorized(s.handleOpenNegotiation))
	mux.HandleFunc("POST /api/v1/negotiations/{id}/fee", s.authorized(s.handleOfferFee))
	mux.HandleFunc("POST /api/v1/negotiations/{id}/terms", s.authorized(s.handleOfferTerms))
	mux.HandleFunc("POST /api/v1/offers/{id}/accept", s.authorized(s.handleAcceptOffer))
	mux.HandleFunc("POST /api/v1/offers/{id}/reject", s.authorized(s.handleRejectOffer))
	mux.HandleFunc("POST /api/v1/players/{id}/list", s.authorized(s.handleToggleListing))
	mux.HandleFunc("POST /api/v1/players/{id}/training", s.authorized(s.handleTraining))
	mux.HandleFunc("POST /api/v1/lineup", s.authorized(s.handleLineup))
	mux.HandleFunc("POST /api/v1/scout", s.authorized(RateLimitMiddleware(scoutLimiter, s.handleScout)))
	mux.HandleFunc("POST /api/v1/scout/sign", s.authorized(s.handleSignScouted))
	mux.HandleFunc("POST /api/v1/advance", s.authorized(s.handleAdvance))
	mux.HandleFunc("POST /api/v1/live", s.authorized(s.handleLive))
	mux.HandleFunc("POST /api/v1/snapshot", s.authorized(s.handleSnapshot))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine. The returned server
// is for shutdown.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set TOUCHLINE_CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("TOUCHLINE_CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// authorized requires the bearer token when an admin key is configured.
func (s *Server) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey != "" && !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Session.Snapshot()
	user := st.UserClub()
	status := map[string]any{
		"season":        st.Season,
		"week":          st.Week,
		"season_length": st.SeasonLength(),
		"club":          user.Name,
		"division":      user.Division,
		"budget":        user.Budget,
		"budget_text":   transfer.Money(user.Budget),
		"record":        user.Record,
		"prestige":      user.Prestige(),
		"negotiations":  len(st.Negotiations),
		"offers":        len(st.Offers),
	}
	if m := st.UserFixture(); m != nil {
		status["next_match"] = fixtureView(st, m)
	}
	writeJSON(w, status)
}

type tableRow struct {
	Position       int          `json:"position"`
	ClubID         squad.ClubID `json:"club_id"`
	Club           string       `json:"club"`
	IsUser         bool         `json:"is_user,omitempty"`
	Record         squad.Record `json:"record"`
	GoalDifference int          `json:"goal_difference"`
}

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, standingsView(s.Session.Snapshot()))
}

// handleArchivedStandings serves the tables as saved at a past week.
func (s *Server) handleArchivedStandings(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	season, err1 := strconv.Atoi(r.PathValue("season"))
	week, err2 := strconv.Atoi(r.PathValue("week"))
	if err1 != nil || err2 != nil {
		http.Error(w, "season and week must be numbers", http.StatusBadRequest)
		return
	}
	st, err := s.DB.LoadWeek(r.Context(), season, week)
	if errors.Is(err, persistence.ErrNoState) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("load archived week failed", "season", season, "week", week, "error", err)
		http.Error(w, "archive unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, standingsView(st))
}

func (s *Server) handleFormations(w http.ResponseWriter, r *http.Request) {
	type formationView struct {
		Name  squad.Formation `json:"name"`
		Roles []string        `json:"roles"`
	}
	var out []formationView
	for _, f := range squad.Formations() {
		out = append(out, formationView{Name: f, Roles: f.Roles()})
	}
	writeJSON(w, map[string]any{"formations": out, "bench": squad.BenchRoles})
}

func standingsView(st *league.State) map[string]any {
	tables := map[int][]tableRow{}
	for _, d := range st.Calendar.Divisions() {
		for i, c := range standings.Table(st.Division(d)) {
			tables[d] = append(tables[d], tableRow{
				Position:       i + 1,
				ClubID:         c.ID,
				Club:           c.Name,
				IsUser:         c.IsUser,
				Record:         c.Record,
				GoalDifference: c.Record.GoalDifference(),
			})
		}
	}
	scorers := map[int]standings.Scorer{}
	for d := range tables {
		if sc, ok := standings.TopScorer(st.Division(d)); ok {
			scorers[d] = sc
		}
	}
	return map[string]any{
		"season":      st.Season,
		"week":        st.Week,
		"tables":      tables,
		"top_scorers": scorers,
	}
}

func (s *Server) handleClub(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid club id", http.StatusBadRequest)
		return
	}
	c := s.Session.Snapshot().Club(squad.ClubID(id))
	if c == nil {
		http.Error(w, "club not found", http.StatusNotFound)
		return
	}
	writeJSON(w, c)
}

type fixture struct {
	Division int    `json:"division"`
	Week     int    `json:"week"`
	Home     string `json:"home"`
	Away     string `json:"away"`
	Played   bool   `json:"played"`
	Score    [2]int `json:"score"`
}

func fixtureView(st *league.State, m *match.Match) fixture {
	f := fixture{Division: m.Division, Week: m.Week, Played: m.Played, Score: m.Score}
	if c := st.Club(m.Home); c != nil {
		f.Home = c.Name
	}
	if c := st.Club(m.Away); c != nil {
		f.Away = c.Name
	}
	return f
}

// handleFixtures lists one week of matches (default: the current week).
func (s *Server) handleFixtures(w http.ResponseWriter, r *http.Request) {
	st := s.Session.Snapshot()
	week := st.Week
	if v := r.URL.Query().Get("week"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > st.SeasonLength() {
			http.Error(w, "invalid week", http.StatusBadRequest)
			return
		}
		week = n
	}
	matches := st.Calendar.Week(week)
	out := make([]fixture, 0, len(matches))
	for _, m := range matches {
		out = append(out, fixtureView(st, m))
	}
	writeJSON(w, map[string]any{"week": week, "fixtures": out})
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	entries := s.Session.Snapshot().Market()
	if pos := r.URL.Query().Get("position"); pos != "" {
		filtered := entries[:0:0]
		for _, e := range entries {
			if e.Player.Position.String() == strings.ToUpper(pos) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	writeJSON(w, entries)
}

func (s *Server) handleNegotiations(w http.ResponseWriter, r *http.Request) {
	ns := s.Session.Snapshot().Negotiations
	if ns == nil {
		ns = transfer.Negotiations{}
	}
	writeJSON(w, ns)
}

// handleOffers lists pending AI bids. With ?player=ID the bids for that
// player come in the player's order of preference.
func (s *Server) handleOffers(w http.ResponseWriter, r *http.Request) {
	st := s.Session.Snapshot()
	offers := st.Offers
	if v := r.URL.Query().Get("player"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid player id", http.StatusBadRequest)
			return
		}
		offers = st.RankedOffers(squad.PlayerID(id))
	}
	if offers == nil {
		offers = transfer.Offers{}
	}
	writeJSON(w, offers)
}

// handleHistory returns the archived seasons, from the database when one
// is attached.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		records, err := s.DB.Records(r.Context())
		if err != nil {
			slog.Error("load season records failed", "error", err)
			http.Error(w, "history unavailable", http.StatusInternalServerError)
			return
		}
		if len(records) > 0 {
			writeJSON(w, records)
			return
		}
	}
	history := s.Session.Snapshot().History
	if history == nil {
		history = []league.SeasonRecord{}
	}
	writeJSON(w, history)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if s.Feed == nil {
		writeJSON(w, []json.RawMessage{})
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	writeJSON(w, s.Feed.Recent(limit))
}

// handleStream pushes week reports as server-sent events.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.Feed == nil {
		http.Error(w, "streaming disabled", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := s.openSSE(w)
	if !ok {
		return
	}
	defer atomic.AddInt32(&s.sseConns, -1)

	ch := s.Feed.Subscribe()
	defer s.Feed.Unsubscribe(ch)

	for _, msg := range s.Feed.Recent(5) {
		writeSSE(w, "week", msg)
	}
	flusher.Flush()

	// Stream loop with heartbeat.
	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			writeSSE(w, "week", msg)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// openSSE sets the event-stream headers and claims a connection slot.
// The caller releases the slot when ok is true.
func (s *Server) openSSE(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return nil, false
	}
	if current := atomic.AddInt32(&s.sseConns, 1); current > maxSSEConns {
		atomic.AddInt32(&s.sseConns, -1)
		http.Error(w, "too many SSE connections", http.StatusServiceUnavailable)
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return flusher, true
}

func writeSSE(w http.ResponseWriter, event string, data []byte) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

func (s *Server) handleOpenNegotiation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID squad.PlayerID `json:"player_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.do(w, r, func(st *league.State, rng entropy.Source) (any, error) {
		return st.OpenNegotiation(req.PlayerID, rng)
	})
}

func (s *Server) handleOfferFee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var req struct {
		Fee decimal.Decimal `json:"fee"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Fee.IsNegative() {
		http.Error(w, "fee must not be negative", http.StatusBadRequest)
		return
	}
	s.do(w, r, func(st *league.State, _ entropy.Source) (any, error) {
		return st.OfferFee(id, req.Fee)
	})
}

func (s *Server) handleOfferTerms(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var req struct {
		Bonus decimal.Decimal `json:"bonus"`
		Role  squad.RoleTier  `json:"role"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Bonus.IsNegative() {
		http.Error(w, "bonus must not be negative", http.StatusBadRequest)
		return
	}
	s.do(w, r, func(st *league.State, _ entropy.Source) (any, error) {
		return st.OfferTerms(id, req.Bonus, req.Role)
	})
}

func (s *Server) handleAcceptOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	s.do(w, r, func(st *league.State, _ entropy.Source) (any, error) {
		if err := st.AcceptOffer(id); err != nil {
			return nil, err
		}
		return map[string]any{"success": true, "budget": st.UserClub().Budget}, nil
	})
}

func (s *Server) handleRejectOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	s.do(w, r, func(st *league.State, _ entropy.Source) (any, error) {
		if err := st.RejectOffer(id); err != nil {
			return nil, err
		}
		return map[string]any{"success": true}, nil
	})
}

func (s *Server) handleToggleListing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathPlayer(w, r)
	if !ok {
		return
	}
	s.do(w, r, func(st *league.State, _ entropy.Source) (any, error) {
		listed, err := st.ToggleTransferList(id)
		if err != nil {
			return nil, err
		}
		return map[string]any{"player_id": id, "transfer_listed": listed}, nil
	})
}

func (s *Server) handleTraining(w http.ResponseWriter, r *http.Request) {
	id, ok := pathPlayer(w, r)
	if !ok {
		return
	}
	var req squad.Training
	if !decode(w, r, &req) {
		return
	}
	s.do(w, r, func(st *league.State, _ entropy.Source) (any, error) {
		if err := st.SetTraining(id, req); err != nil {
			return nil, err
		}
		return map[string]any{"player_id": id, "training": req}, nil
	})
}

// handleLineup changes the formation, fills the lineup automatically or
// assigns players to roles, in that order.
func (s *Server) handleLineup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Formation   squad.Formation           `json:"formation,omitempty"`
		Auto        bool                      `json:"auto,omitempty"`
		Assignments map[string]squad.PlayerID `json:"assignments,omitempty"`
		Clear       []string                  `json:"clear,omitempty"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.do(w, r, func(st *league.State, _ entropy.Source) (any, error) {
		if req.Formation != "" {
			if err := st.SetFormation(req.Formation); err != nil {
				return nil, err
			}
		}
		if req.Auto {
			st.AutoLineup()
		}
		for _, role := range req.Clear {
			if err := st.Unassign(role); err != nil {
				return nil, err
			}
		}
		for role, id := range req.Assignments {
			if err := st.Assign(role, id); err != nil {
				return nil, err
			}
		}
		user := st.UserClub()
		return map[string]any{"formation": user.Formation, "lineup": user.Lineup}, nil
	})
}

func (s *Server) handleScout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SkillLevel int `json:"skill_level"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.SkillLevel < 1 || req.SkillLevel > 5 {
		http.Error(w, "skill_level must be between 1 and 5", http.StatusBadRequest)
		return
	}
	user := s.Session.Snapshot().UserClub()
	report := scout.Fetch(r.Context(), s.Scout, scout.Request{
		Club:       user.Name,
		Division:   user.Division,
		SkillLevel: req.SkillLevel,
	})
	writeJSON(w, report)
}

// handleSignScouted brings a recommended player into the market and opens
// a negotiation for them.
func (s *Server) handleSignScouted(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string         `json:"name"`
		Position squad.Position `json:"position"`
		Age      int            `json:"age"`
	}
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.Age < 16 || req.Age > 40 {
		http.Error(w, "name and an age between 16 and 40 are required", http.StatusBadRequest)
		return
	}
	s.do(w, r, func(st *league.State, rng entropy.Source) (any, error) {
		return st.SignScouted(req.Name, req.Position, req.Age, rng)
	})
}

// handleAdvance plays the week. An optional score settles the user's
// match without simulating it.
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Score *[2]int `json:"score,omitempty"`
	}
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	var result *engine.UserResult
	if req.Score != nil {
		if req.Score[0] < 0 || req.Score[1] < 0 {
			http.Error(w, "score must not be negative", http.StatusBadRequest)
			return
		}
		result = engine.ResultFor(s.Session.Snapshot(), match.Result{Score: *req.Score})
	}
	report, err := s.Session.Advance(r.Context(), result)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, report)
}

// handleLive streams the user's match minute by minute, then plays the
// rest of the week with its result. A client that disconnects early
// abandons the match and the week stays unplayed.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	f, err := s.Session.LiveMatch(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	flusher, ok := s.openSSE(w)
	if !ok {
		return
	}
	defer atomic.AddInt32(&s.sseConns, -1)

	st := s.Session.Snapshot()
	kickoff, _ := json.Marshal(fixtureView(st, f.Match))
	writeSSE(w, "kickoff", kickoff)
	flusher.Flush()

	tick := s.LiveTick
	if tick <= 0 {
		tick = time.Millisecond
	}
	result, err := match.Run(r.Context(), f.Live, tick, func(e match.Event) {
		data, err := json.Marshal(e)
		if err != nil {
			return
		}
		writeSSE(w, "event", data)
		flusher.Flush()
	})
	if err != nil {
		slog.Info("live match abandoned", "season", f.Season, "week", f.Week, "minute", f.Live.Minute())
		return
	}

	// Finish the week even if the client leaves during the save.
	report, err := s.Session.Advance(context.WithoutCancel(r.Context()), f.Result(*result))
	if err != nil {
		data, _ := json.Marshal(map[string]string{"error": err.Error()})
		writeSSE(w, "error", data)
		flusher.Flush()
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	writeSSE(w, "full_time", data)
	flusher.Flush()
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	st := s.Session.Snapshot()
	if err := s.DB.SaveState(r.Context(), st); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"season":  st.Season,
		"week":    st.Week,
		"message": "snapshot saved",
	})
}

// do runs fn as a session command and writes its result.
func (s *Server) do(w http.ResponseWriter, r *http.Request, fn func(st *league.State, rng entropy.Source) (any, error)) {
	var out any
	err := s.Session.Do(r.Context(), func(st *league.State, rng entropy.Source) error {
		v, err := fn(st, rng)
		out = v
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, out)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func pathPlayer(w http.ResponseWriter, r *http.Request) (squad.PlayerID, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid player id", http.StatusBadRequest)
		return 0, false
	}
	return squad.PlayerID(id), true
}

// statusFor maps game errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, league.ErrUnknownPlayer),
		errors.Is(err, league.ErrUnknownNegotiation),
		errors.Is(err, transfer.ErrUnknownOffer):
		return http.StatusNotFound
	case errors.Is(err, transfer.ErrPlayerUnavailable):
		return http.StatusGone
	case errors.Is(err, transfer.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, transfer.ErrInvalidTransition),
		errors.Is(err, transfer.ErrOfferRefused),
		errors.Is(err, league.ErrOwnPlayer),
		errors.Is(err, engine.ErrNoUserFixture),
		errors.Is(err, match.ErrAlreadyPlayed):
		return http.StatusConflict
	case errors.Is(err, league.ErrNotYourPlayer),
		errors.Is(err, squad.ErrInvalidRole),
		errors.Is(err, squad.ErrInvalidFormation),
		errors.Is(err, squad.ErrInvalidTraining),
		errors.Is(err, squad.ErrIneligible):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrSessionClosed),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
