package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/talgya/touchline/internal/engine"
	"github.com/talgya/touchline/internal/entropy"
	"github.com/talgya/touchline/internal/feed"
	"github.com/talgya/touchline/internal/finance"
	"github.com/talgya/touchline/internal/league"
	"github.com/talgya/touchline/internal/persistence"
	"github.com/talgya/touchline/internal/scout"
	"github.com/talgya/touchline/internal/transfer"
)

func newServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	st, err := league.New(league.Setup{
		UserClub:         "Touchline FC",
		UserDivision:     2,
		ClubsPerDivision: 4,
		FreeAgents:       5,
		Seed:             3,
	}, entropy.NewSeeded(3))
	if err != nil {
		t.Fatalf("league.New: %v", err)
	}
	mem := feed.NewMemory(10)
	sess := engine.NewSession(engine.New(finance.DefaultLedger(), entropy.NewSeeded(4), 3), st, nil, mem)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go sess.Run(ctx)

	s := &Server{Session: sess, Feed: mem, ScoutPerMinute: 2, LiveTick: time.Millisecond}
	return s, s.Handler()
}

func call(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {
	_, h := newServer(t)
	rec := call(t, h, http.MethodGet, "/api/v1/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["season"] != 1.0 || got["week"] != 1.0 || got["club"] != "Touchline FC" {
		t.Fatalf("status = %v", got)
	}
	if _, ok := got["next_match"]; !ok {
		t.Fatalf("status has no next match")
	}
	if text, _ := got["budget_text"].(string); !strings.HasPrefix(text, "€") {
		t.Fatalf("budget_text = %q, want euros", text)
	}
}

func TestAdminKeyRequired(t *testing.T) {
	s, _ := newServer(t)
	s.AdminKey = "secret"
	h := s.Handler()

	if rec := call(t, h, http.MethodPost, "/api/v1/advance", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("without token: %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/advance", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("with token: %d %s", rec.Code, rec.Body)
	}
	if rec := call(t, h, http.MethodGet, "/api/v1/status", ""); rec.Code != http.StatusOK {
		t.Fatalf("GET needs no token: %d", rec.Code)
	}
}

func TestNegotiationFlow(t *testing.T) {
	s, h := newServer(t)
	p := s.Session.Snapshot().FreeAgents[0]

	rec := call(t, h, http.MethodPost, "/api/v1/negotiations", fmt.Sprintf(`{"player_id":%d}`, p.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("open: %d %s", rec.Code, rec.Body)
	}
	var n transfer.Negotiation
	if err := json.Unmarshal(rec.Body.Bytes(), &n); err != nil {
		t.Fatal(err)
	}
	if n.Status != transfer.ClubNegotiating || !n.FreeAgent() {
		t.Fatalf("opened %+v", n)
	}

	rec = call(t, h, http.MethodPost, "/api/v1/negotiations/"+n.ID.String()+"/fee", `{"fee":"0"}`)
	json.Unmarshal(rec.Body.Bytes(), &n)
	if rec.Code != http.StatusOK || n.Status != transfer.ClubRejected {
		t.Fatalf("zero fee: %d status %s", rec.Code, n.Status)
	}

	fee := transfer.MinimumFee(p.Value, true).String()
	rec = call(t, h, http.MethodPost, "/api/v1/negotiations/"+n.ID.String()+"/fee", `{"fee":"`+fee+`"}`)
	json.Unmarshal(rec.Body.Bytes(), &n)
	if n.Status != transfer.PlayerNegotiating {
		t.Fatalf("fee at minimum: status %s", n.Status)
	}

	rec = call(t, h, http.MethodPost, "/api/v1/negotiations/"+n.ID.String()+"/terms", `{"bonus":"`+p.Value.String()+`","role":"key_player"}`)
	json.Unmarshal(rec.Body.Bytes(), &n)
	if rec.Code != http.StatusOK || n.Status != transfer.Agreed {
		t.Fatalf("terms: %d status %s", rec.Code, n.Status)
	}

	rec = call(t, h, http.MethodPost, "/api/v1/negotiations/"+n.ID.String()+"/terms", `{"bonus":"1","role":"starter"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("terms after agreement: %d", rec.Code)
	}
}

func TestErrorStatuses(t *testing.T) {
	_, h := newServer(t)
	tests := []struct {
		name, method, path, body string
		want                     int
	}{
		{"unknown negotiation", http.MethodPost, "/api/v1/negotiations/3f1c2d7e-8a4b-4c4e-9c1b-0d2e3f4a5b6c/fee", `{"fee":"100"}`, http.StatusNotFound},
		{"bad uuid", http.MethodPost, "/api/v1/negotiations/nope/fee", `{"fee":"100"}`, http.StatusBadRequest},
		{"unknown player", http.MethodPost, "/api/v1/negotiations", `{"player_id":999999}`, http.StatusNotFound},
		{"unknown offer", http.MethodPost, "/api/v1/offers/3f1c2d7e-8a4b-4c4e-9c1b-0d2e3f4a5b6c/accept", "", http.StatusNotFound},
		{"bad formation", http.MethodPost, "/api/v1/lineup", `{"formation":"2-2-6"}`, http.StatusBadRequest},
		{"not my player", http.MethodPost, "/api/v1/players/999999/list", "", http.StatusBadRequest},
		{"negative fee", http.MethodPost, "/api/v1/negotiations/3f1c2d7e-8a4b-4c4e-9c1b-0d2e3f4a5b6c/fee", `{"fee":"-5"}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/api/v1/lineup", `{`, http.StatusBadRequest},
		{"unknown club", http.MethodGet, "/api/v1/clubs/999", "", http.StatusNotFound},
		{"bad week", http.MethodGet, "/api/v1/fixtures?week=99", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := call(t, h, tt.method, tt.path, tt.body); rec.Code != tt.want {
				t.Fatalf("%s %s = %d, want %d (%s)", tt.method, tt.path, rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestOwnPlayerCannotBeApproached(t *testing.T) {
	s, h := newServer(t)
	id := s.Session.Snapshot().UserClub().Roster[0].ID
	if rec := call(t, h, http.MethodPost, "/api/v1/negotiations", fmt.Sprintf(`{"player_id":%d}`, id)); rec.Code != http.StatusConflict {
		t.Fatalf("own player: %d", rec.Code)
	}
}

func TestAdvanceAndReports(t *testing.T) {
	s, h := newServer(t)
	rec := call(t, h, http.MethodPost, "/api/v1/advance", `{"score":[3,1]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("advance: %d %s", rec.Code, rec.Body)
	}
	var report engine.WeekReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.Week != 1 || report.UserMatch == nil || report.UserMatch.Score != [2]int{3, 1} {
		t.Fatalf("report = %+v", report)
	}
	if s.Session.Snapshot().Week != 2 {
		t.Fatalf("week did not advance")
	}

	rec = call(t, h, http.MethodGet, "/api/v1/reports?limit=5", "")
	var reports []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &reports); err != nil || len(reports) != 1 {
		t.Fatalf("reports = %s (%v)", rec.Body, err)
	}

	rec = call(t, h, http.MethodGet, "/api/v1/standings", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Touchline FC") {
		t.Fatalf("standings: %d", rec.Code)
	}
}

func TestLiveMatchPlaysTheWeek(t *testing.T) {
	s, h := newServer(t)
	rec := call(t, h, http.MethodPost, "/api/v1/live", "")
	body := rec.Body.String()
	if !strings.Contains(body, "event: kickoff") || !strings.Contains(body, "event: full_time") {
		t.Fatalf("live stream missing kickoff or full time:\n%s", body)
	}
	if s.Session.Snapshot().Week != 2 {
		t.Fatalf("week = %d after live match", s.Session.Snapshot().Week)
	}
}

func TestScoutPlaceholderAndRateLimit(t *testing.T) {
	_, h := newServer(t)
	for i := 0; i < 2; i++ {
		rec := call(t, h, http.MethodPost, "/api/v1/scout", `{"skill_level":3}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("scout %d: %d", i, rec.Code)
		}
		var report scout.Report
		if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
			t.Fatal(err)
		}
		if !report.Placeholder || report.Analysis != scout.PlaceholderAnalysis {
			t.Fatalf("report = %+v", report)
		}
	}
	rec := call(t, h, http.MethodPost, "/api/v1/scout", `{"skill_level":3}`)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("third scout: %d", rec.Code)
	}
}

func TestSignScouted(t *testing.T) {
	s, h := newServer(t)
	rec := call(t, h, http.MethodPost, "/api/v1/scout/sign", `{"name":"Ada Brook","position":"MID","age":21}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("sign: %d %s", rec.Code, rec.Body)
	}
	var n transfer.Negotiation
	json.Unmarshal(rec.Body.Bytes(), &n)
	if n.PlayerName != "Ada Brook" || !n.FreeAgent() {
		t.Fatalf("negotiation = %+v", n)
	}
	if p, club := s.Session.Snapshot().FindPlayer(n.PlayerID); p == nil || club != nil {
		t.Fatalf("scouted player not in the free-agent pool")
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatalf("burst refused")
	}
	if rl.Allow("a") {
		t.Fatalf("third request allowed")
	}
	if !rl.Allow("b") {
		t.Fatalf("other IP refused")
	}
	if got := rl.RetryAfter("a"); got < 1 || got > 30 {
		t.Fatalf("RetryAfter = %d", got)
	}
	now = now.Add(30 * time.Second)
	if !rl.Allow("a") {
		t.Fatalf("token not refilled after half the window")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.5:5123"
	if got := clientIP(r); got != "10.0.0.5" {
		t.Fatalf("remote = %q", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := clientIP(r); got != "203.0.113.7" {
		t.Fatalf("forwarded = %q", got)
	}
}

func TestFormations(t *testing.T) {
	_, h := newServer(t)
	rec := call(t, h, http.MethodGet, "/api/v1/formations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		Formations []struct {
			Name  string   `json:"name"`
			Roles []string `json:"roles"`
		} `json:"formations"`
		Bench []string `json:"bench"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Formations) != 4 || len(got.Bench) != 7 {
		t.Fatalf("formations %d, bench %d", len(got.Formations), len(got.Bench))
	}
	for _, f := range got.Formations {
		if len(f.Roles) != 11 {
			t.Errorf("%s has %d roles", f.Name, len(f.Roles))
		}
	}
}

func TestLineupClear(t *testing.T) {
	s, h := newServer(t)
	id := s.Session.Snapshot().UserClub().Roster[0].ID
	body := fmt.Sprintf(`{"assignments":{"GK":%d}}`, id)
	if rec := call(t, h, http.MethodPost, "/api/v1/lineup", body); rec.Code != http.StatusOK {
		t.Fatalf("assign: %d %s", rec.Code, rec.Body)
	}
	if rec := call(t, h, http.MethodPost, "/api/v1/lineup", `{"clear":["GK"]}`); rec.Code != http.StatusOK {
		t.Fatalf("clear: %d %s", rec.Code, rec.Body)
	}
	if _, ok := s.Session.Snapshot().UserClub().Lineup["GK"]; ok {
		t.Fatalf("GK still assigned")
	}
	if rec := call(t, h, http.MethodPost, "/api/v1/lineup", `{"clear":["XX"]}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown role: %d", rec.Code)
	}
}

func TestArchivedStandings(t *testing.T) {
	s, h := newServer(t)
	if rec := call(t, h, http.MethodGet, "/api/v1/archive/1/1/standings", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("without db: %d", rec.Code)
	}
	db, err := persistence.Open(filepath.Join(t.TempDir(), "touchline.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	s.DB = db
	if err := db.SaveState(context.Background(), s.Session.Snapshot()); err != nil {
		t.Fatal(err)
	}
	if rec := call(t, h, http.MethodPost, "/api/v1/advance", ""); rec.Code != http.StatusOK {
		t.Fatalf("advance: %d", rec.Code)
	}

	rec := call(t, h, http.MethodGet, "/api/v1/archive/1/1/standings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("archive: %d %s", rec.Code, rec.Body)
	}
	var got struct {
		Week int `json:"week"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil || got.Week != 1 {
		t.Fatalf("archived week = %d, %v", got.Week, err)
	}
	if rec := call(t, h, http.MethodGet, "/api/v1/archive/9/9/standings", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing week: %d", rec.Code)
	}
	if rec := call(t, h, http.MethodGet, "/api/v1/archive/x/1/standings", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad season: %d", rec.Code)
	}
}
