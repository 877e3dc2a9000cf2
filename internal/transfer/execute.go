package transfer

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/talgya/touchline/internal/squad"
)

// Execute moves a player to the buyer in one step: the buyer pays
// fee+bonus, a selling club receives the fee, and the player leaves the
// seller's roster (or the pool when seller is nil) for the buyer's. If any
// check fails nothing is changed.
func Execute(buyer, seller *squad.Club, pool *squad.Pool, playerID squad.PlayerID, fee, bonus decimal.Decimal) error {
	cost := fee.Add(bonus)
	if buyer.Budget.Sub(cost).IsNegative() {
		return fmt.Errorf("%s cannot pay %s (budget %s): %w", buyer.Name, Money(cost), Money(buyer.Budget), ErrInsufficientFunds)
	}
	if buyer.Player(playerID) != nil {
		return fmt.Errorf("player %d already at %s: %w", playerID, buyer.Name, ErrPlayerUnavailable)
	}

	var p *squad.Player
	if seller != nil {
		if seller.ID == buyer.ID {
			return fmt.Errorf("%s cannot buy from itself: %w", buyer.Name, ErrPlayerUnavailable)
		}
		p = seller.Player(playerID)
	} else if pool != nil {
		p = pool.Find(playerID)
	}
	if p == nil {
		return fmt.Errorf("player %d: %w", playerID, ErrPlayerUnavailable)
	}

	if seller != nil {
		seller.Remove(playerID)
		seller.Budget = seller.Budget.Add(fee)
		if !seller.IsUser {
			seller.AutoLineup()
		}
	} else {
		pool.Remove(playerID)
	}
	p.TransferListed = false
	// Cannot fail: checked above.
	_ = buyer.Add(p)
	buyer.Budget = buyer.Budget.Sub(cost)
	if !buyer.IsUser {
		buyer.AutoLineup()
	}

	from := "free agency"
	if seller != nil {
		from = seller.Name
	}
	slog.Info("transfer completed", "player", p.Name, "from", from, "to", buyer.Name,
		"fee", fee.String(), "bonus", bonus.String())
	return nil
}
