package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/touchline/internal/fixtures"
	"github.com/talgya/touchline/internal/league"
	"github.com/talgya/touchline/internal/squad"
	"github.com/talgya/touchline/internal/standings"
)

// Rollover closes the season: it archives each division's champion and
// top scorer, clears records and goal tallies, develops every player,
// draws a new calendar and opens week 1 of the next season. Open
// negotiations and offers do not survive the summer.
func (e *Engine) Rollover(s *league.State) (*league.SeasonRecord, error) {
	record := league.SeasonRecord{
		Season:     s.Season,
		Champions:  make(map[int]string),
		TopScorers: make(map[int]standings.Scorer),
	}
	for _, d := range s.Calendar.Divisions() {
		clubs := s.Division(d)
		if champ := standings.Champion(clubs); champ != nil {
			record.Champions[d] = champ.Name
		}
		if scorer, ok := standings.TopScorer(clubs); ok {
			record.TopScorers[d] = scorer
		}
	}
	s.History = append(s.History, record)

	for _, c := range s.Clubs {
		c.ResetRecord()
		for _, p := range c.Roster {
			p.Goals = 0
			squad.Develop(p, e.RNG)
		}
		if !c.IsUser {
			c.AutoLineup()
		}
	}
	for _, p := range s.FreeAgents {
		p.Goals = 0
		squad.Develop(p, e.RNG)
	}

	cal, err := fixtures.Build(s.Clubs)
	if err != nil {
		return nil, fmt.Errorf("rollover season %d: %w", s.Season, err)
	}
	s.Calendar = cal
	s.Negotiations = nil
	s.Offers = nil
	s.Season++
	s.Week = 1

	slog.Info("season complete",
		"season", record.Season,
		"champion", record.Champions[squad.TopDivision],
		"top_scorer", record.TopScorers[squad.TopDivision].Name,
		"goals", record.TopScorers[squad.TopDivision].Goals,
	)
	return &record, nil
}
