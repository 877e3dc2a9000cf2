package scout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/talgya/touchline/internal/squad"
)

// ErrUnavailable marks a scouting failure. Fetch never returns it.
var ErrUnavailable = errors.New("scouting service unavailable")

// MaxRecommendations is the most players a report may recommend.
const MaxRecommendations = 3

// Request describes who is asking for a report.
type Request struct {
	Club       string `json:"club"`
	Division   int    `json:"division"`
	SkillLevel int    `json:"skill_level"` // 1–5; better scouts look further afield
}

// Recommendation is a suggested signing.
type Recommendation struct {
	Name           string          `json:"name"`
	Position       squad.Position  `json:"position"`
	Age            int             `json:"age"`
	Rationale      string          `json:"rationale"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
}

// Report is a scouting report.
type Report struct {
	Analysis        string           `json:"analysis"`
	Recommendations []Recommendation `json:"recommendations"`
	Placeholder     bool             `json:"placeholder,omitempty"`
}

// Service produces scouting reports.
type Service interface {
	Scout(ctx context.Context, req Request) (*Report, error)
}

// PlaceholderAnalysis is shown when no report could be produced.
const PlaceholderAnalysis = "Report unavailable. Our scouts are travelling."

// Placeholder returns the empty fallback report.
func Placeholder() *Report {
	return &Report{Analysis: PlaceholderAnalysis, Placeholder: true}
}

// Fetch asks the service for a report and falls back to the placeholder
// when the service is missing, unreachable or returns nonsense.
func Fetch(ctx context.Context, svc Service, req Request) *Report {
	if svc == nil {
		return Placeholder()
	}
	r, err := svc.Scout(ctx, req)
	if err != nil {
		slog.Warn("scouting report unavailable", "club", req.Club, "division", req.Division, "error", err)
		return Placeholder()
	}
	return r
}

// Scout generates a report through the language model.
func (c *Client) Scout(ctx context.Context, req Request) (*Report, error) {
	text, err := c.Complete(ctx, systemPrompt, userPrompt(req), 800)
	if err != nil {
		return nil, fmt.Errorf("scout %s: %w", req.Club, err)
	}
	return parseReport(text)
}

const systemPrompt = `You are a world-class football scout. Reply with a single JSON object and nothing else:
{"analysis": "<2-3 sentence tactical analysis>",
 "recommendations": [{"name": "...", "position": "GK|DEF|MID|FWD", "age": 0, "rationale": "...", "estimated_value": 0}]}
Recommend at most 3 players who would realistically join a club of this level.`

func userPrompt(req Request) string {
	level := req.SkillLevel
	if level < 1 {
		level = 1
	}
	return fmt.Sprintf("Club: %s\nDivision: %d of 3 (1 is the strongest)\nScout skill level: %d of 5\n"+
		"Write the tactical analysis and your recommended signings.", req.Club, req.Division, level)
}

// parseReport extracts the JSON object from a model reply.
func parseReport(text string) (*Report, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object found in response: %w", ErrUnavailable)
	}

	var r Report
	if err := json.Unmarshal([]byte(text[start:end+1]), &r); err != nil {
		return nil, fmt.Errorf("parse scouting report: %v: %w", err, ErrUnavailable)
	}
	if strings.TrimSpace(r.Analysis) == "" {
		return nil, fmt.Errorf("scouting report has no analysis: %w", ErrUnavailable)
	}

	kept := r.Recommendations[:0]
	for _, rec := range r.Recommendations {
		if strings.TrimSpace(rec.Name) == "" || rec.Age <= 0 {
			continue
		}
		kept = append(kept, rec)
		if len(kept) == MaxRecommendations {
			break
		}
	}
	r.Recommendations = kept
	return &r, nil
}
