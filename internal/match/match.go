// Package match simulates football matches between two squads, either live
// minute by minute or instantly in batch, and commits finished results.
package match

import (
	"errors"
	"fmt"
	"sort"

	"github.com/talgya/touchline/internal/squad"
)

// ErrAlreadyPlayed is returned when committing a result to a played match.
var ErrAlreadyPlayed = errors.New("match already played")

// Minutes is the length of a match.
const Minutes = 90

// EventType classifies a match event.
type EventType uint8

const (
	Goal EventType = iota
	Yellow
	Red
	Injury
	Save
	Chance
)

var eventTypeNames = []string{"goal", "yellow", "red", "injury", "save", "chance"}

func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return "unknown"
}

func (t EventType) MarshalText() ([]byte, error) {
	if int(t) >= len(eventTypeNames) {
		return nil, fmt.Errorf("unknown event type %d", t)
	}
	return []byte(eventTypeNames[t]), nil
}

func (t *EventType) UnmarshalText(b []byte) error {
	for i, n := range eventTypeNames {
		if n == string(b) {
			*t = EventType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown event type %q", string(b))
}

// Side identifies the home or away team.
type Side uint8

const (
	Home Side = iota
	Away
)

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == Home {
		return Away
	}
	return Home
}

func (s Side) String() string {
	if s == Home {
		return "home"
	}
	return "away"
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "home":
		*s = Home
	case "away":
		*s = Away
	default:
		return fmt.Errorf("unknown side %q", string(b))
	}
	return nil
}

// Event is one notable moment of a match.
type Event struct {
	Minute int       `json:"minute"` // 0–90
	Type   EventType `json:"type"`
	Side   Side      `json:"side"`
	Text   string    `json:"text"`

	// Player is the scorer for goals, the keeper for saves and the
	// subject of cards and injuries.
	Player      squad.PlayerID `json:"player,omitempty"`
	InjuryWeeks int            `json:"injury_weeks,omitempty"`
}

// Result is the outcome of a simulated match.
type Result struct {
	Score  [2]int  `json:"score"` // indexed by Side
	Events []Event `json:"events"`
}

// Match is one calendar fixture.
type Match struct {
	Home     squad.ClubID `json:"home"`
	Away     squad.ClubID `json:"away"`
	Division int          `json:"division"`
	Week     int          `json:"week"`
	Played   bool         `json:"played"`
	Score    [2]int       `json:"score"`
	Events   []Event      `json:"events,omitempty"`

	// Counted is set once the standings have absorbed this match.
	Counted bool `json:"counted"`
}

// Involves reports whether the club plays in this match.
func (m *Match) Involves(id squad.ClubID) bool {
	return m.Home == id || m.Away == id
}

// Team is a club's name and effective lineup as seen by the simulator.
type Team struct {
	Name    string
	Players []*squad.Player
}

// TeamOf builds the simulator view of a club from its match squad.
func TeamOf(c *squad.Club) Team {
	return Team{Name: c.Name, Players: c.MatchSquad()}
}

// SortEvents orders events ascending by minute, keeping the order of
// events within the same minute.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Minute < events[j].Minute
	})
}

// Commit stores a finished result on the match and credits scorers and
// injuries to the players of the two clubs. This is the only place player
// goal tallies change.
func Commit(m *Match, r Result, home, away *squad.Club) error {
	if m.Played {
		return fmt.Errorf("commit week %d %d v %d: %w", m.Week, m.Home, m.Away, ErrAlreadyPlayed)
	}
	if home.ID != m.Home || away.ID != m.Away {
		return fmt.Errorf("commit week %d: clubs %d v %d do not match fixture %d v %d",
			m.Week, home.ID, away.ID, m.Home, m.Away)
	}

	events := append([]Event(nil), r.Events...)
	SortEvents(events)

	m.Score = r.Score
	m.Events = events
	m.Played = true

	clubs := [2]*squad.Club{Home: home, Away: away}
	for _, e := range events {
		if e.Player == 0 {
			continue
		}
		p := clubs[e.Side].Player(e.Player)
		if p == nil {
			continue
		}
		switch e.Type {
		case Goal:
			p.Goals++
		case Injury:
			if e.InjuryWeeks > p.InjuryWeeks {
				p.InjuryWeeks = e.InjuryWeeks
			}
		}
	}
	return nil
}
