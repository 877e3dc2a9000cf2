// Package finance runs the weekly club accounts.
//
// Only the user's club gets full accounting: gate receipts, sponsorship,
// wages and stadium upkeep. AI clubs receive a flat weekly subsidy scaled
// by division instead. Their budgets matter only as a ceiling on what they
// can bid, so they are not modelled line by line.
package finance

import (
	"github.com/shopspring/decimal"

	"github.com/talgya/touchline/internal/entropy"
	"github.com/talgya/touchline/internal/squad"
)

// Ledger holds the weekly accounting rates.
type Ledger struct {
	TicketPrice        decimal.Decimal // per spectator
	SponsorPerTier     decimal.Decimal // × (4 − division)
	WageRate           decimal.Decimal // share of market value paid per week
	MaintenancePerSeat decimal.Decimal // per seat of capacity per week
	AISubsidyPerTier   decimal.Decimal // × (4 − division), AI clubs only
}

// DefaultLedger returns the standard rates.
func DefaultLedger() Ledger {
	return Ledger{
		TicketPrice:        decimal.NewFromInt(20),
		SponsorPerTier:     decimal.NewFromInt(150_000),
		WageRate:           decimal.NewFromFloat(0.005),
		MaintenancePerSeat: decimal.NewFromInt(1),
		AISubsidyPerTier:   decimal.NewFromInt(50_000),
	}
}

// Report is one week of a club's accounts.
type Report struct {
	Home        bool            `json:"home"`
	Attendance  int             `json:"attendance"`
	Capacity    int             `json:"capacity"`
	Tickets     decimal.Decimal `json:"tickets"`
	Sponsorship decimal.Decimal `json:"sponsorship"`
	Wages       decimal.Decimal `json:"wages"`
	Maintenance decimal.Decimal `json:"maintenance"`
	Total       decimal.Decimal `json:"total"` // income minus outgoings
}

// Income returns the week's receipts.
func (r Report) Income() decimal.Decimal {
	return r.Tickets.Add(r.Sponsorship)
}

// Expenses returns the week's outgoings.
func (r Report) Expenses() decimal.Decimal {
	return r.Wages.Add(r.Maintenance)
}

func tier(division int) decimal.Decimal {
	return decimal.NewFromInt(int64(squad.BottomDivision + 1 - division))
}

// Weekly computes the user club's accounts for a week. When the club plays
// at home, attendance is a uniform draw between 60% and 100% of capacity.
func (l Ledger) Weekly(c *squad.Club, home bool, rng entropy.Source) Report {
	r := Report{Home: home, Capacity: c.Capacity}
	if home {
		r.Attendance = int(float64(c.Capacity) * (0.6 + rng.Float64()*0.4))
	}
	r.Tickets = l.TicketPrice.Mul(decimal.NewFromInt(int64(r.Attendance)))
	r.Sponsorship = l.SponsorPerTier.Mul(tier(c.Division))

	// Each wage is floored to whole units before summing.
	r.Wages = decimal.Zero
	for _, p := range c.Roster {
		r.Wages = r.Wages.Add(p.Value.Mul(l.WageRate).Floor())
	}
	r.Maintenance = l.MaintenancePerSeat.Mul(decimal.NewFromInt(int64(c.Capacity)))

	r.Total = r.Income().Sub(r.Expenses())
	return r
}

// Apply books a report against the club budget. The budget may go
// negative from wage drag.
func Apply(c *squad.Club, r Report) {
	c.Budget = c.Budget.Add(r.Total)
}

// Subsidize pays an AI club its flat weekly stipend and returns it.
func (l Ledger) Subsidize(c *squad.Club) decimal.Decimal {
	amount := l.AISubsidyPerTier.Mul(tier(c.Division))
	c.Budget = c.Budget.Add(amount)
	return amount
}
