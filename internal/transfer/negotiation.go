// Package transfer implements the two-phase transfer negotiation, AI
// offers for the user's listed players and the atomic transfer itself.
package transfer

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/talgya/touchline/internal/entropy"
	"github.com/talgya/touchline/internal/squad"
)

var (
	// ErrInvalidTransition is returned when an operation does not apply to
	// the negotiation's current status.
	ErrInvalidTransition = errors.New("invalid negotiation transition")
	// ErrInsufficientFunds is returned when a transfer would leave the
	// buyer with a negative budget.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrPlayerUnavailable is returned when the player is no longer with
	// the expected seller.
	ErrPlayerUnavailable = errors.New("player unavailable")
)

// Status is the lifecycle state of a negotiation.
type Status uint8

const (
	ClubNegotiating Status = iota
	ClubRejected
	PlayerNegotiating
	Agreed
	Failed
)

var statusNames = []string{"CLUB_NEGOTIATING", "CLUB_REJECTED", "PLAYER_NEGOTIATING", "AGREED", "FAILED"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "UNKNOWN"
}

func (s Status) MarshalText() ([]byte, error) {
	if int(s) >= len(statusNames) {
		return nil, fmt.Errorf("unknown negotiation status %d", s)
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for i, n := range statusNames {
		if n == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown negotiation status %q", string(b))
}

// Terminal reports whether no further offer can advance the negotiation
// as it stands. A rejected fee may still be re-offered.
func (s Status) Terminal() bool {
	switch s {
	case ClubRejected, Agreed, Failed:
		return true
	case ClubNegotiating, PlayerNegotiating:
		return false
	}
	return true
}

// Fee multipliers on market value.
var (
	listedFeeFactor   = decimal.NewFromFloat(0.9)
	unlistedFeeFactor = decimal.NewFromFloat(1.4)
)

// MinimumFee is the lowest fee the selling club accepts. Listed players
// and free agents go for 90% of value; anyone else costs a 40% premium.
func MinimumFee(value decimal.Decimal, listed bool) decimal.Decimal {
	if listed {
		return value.Mul(listedFeeFactor)
	}
	return value.Mul(unlistedFeeFactor)
}

// Desirability scores a contract offer from the player's point of view:
// (bonus / (value×0.1))×30 + (prestige/100)×50 + 20 for a key-player
// promise or 10 otherwise.
func Desirability(bonus, value decimal.Decimal, buyerPrestige float64, role squad.RoleTier) decimal.Decimal {
	// Multiply before dividing so exact ties stay exact.
	score := decimal.Zero
	if value.IsPositive() {
		score = bonus.Mul(decimal.NewFromInt(300)).Div(value)
	}
	score = score.Add(decimal.NewFromFloat(buyerPrestige).Mul(decimal.NewFromInt(50)).Div(decimal.NewFromInt(100)))
	if role == squad.KeyPlayer {
		return score.Add(decimal.NewFromInt(20))
	}
	return score.Add(decimal.NewFromInt(10))
}

// Negotiation tracks one attempt to sign a player. Player and seller
// names are display snapshots taken when it opened.
type Negotiation struct {
	ID         uuid.UUID      `json:"id"`
	PlayerID   squad.PlayerID `json:"player_id"`
	PlayerName string         `json:"player_name"`
	SellerID   squad.ClubID   `json:"seller_id"` // squad.FreeAgent for the pool
	SellerName string         `json:"seller_name"`
	BuyerID    squad.ClubID   `json:"buyer_id"`

	Fee    decimal.Decimal `json:"fee"`
	Status Status          `json:"status"`
	Bonus  decimal.Decimal `json:"bonus"`
	Role   squad.RoleTier  `json:"role"`

	ClubMessage   string `json:"club_message"`
	PlayerMessage string `json:"player_message"`
}

// Open starts a negotiation for a player. A nil seller means the player
// is a free agent.
func Open(id uuid.UUID, p *squad.Player, seller *squad.Club, buyer squad.ClubID) *Negotiation {
	n := &Negotiation{
		ID:         id,
		PlayerID:   p.ID,
		PlayerName: p.Name,
		SellerID:   squad.FreeAgent,
		SellerName: "Free Agent",
		BuyerID:    buyer,
		Status:     ClubNegotiating,
	}
	if seller != nil {
		n.SellerID = seller.ID
		n.SellerName = seller.Name
	}
	return n
}

// FreeAgent reports whether the player is being signed from the pool.
func (n *Negotiation) FreeAgent() bool {
	return n.SellerID == squad.FreeAgent
}

// OfferFee puts a transfer fee to the selling club. A fee at or above
// the minimum moves to the player phase; anything lower is rejected and
// may be raised with another offer.
func (n *Negotiation) OfferFee(fee decimal.Decimal, p *squad.Player) error {
	if n.Status != ClubNegotiating && n.Status != ClubRejected {
		return fmt.Errorf("offer fee for %s in %s: %w", n.PlayerName, n.Status, ErrInvalidTransition)
	}
	n.Fee = fee
	minimum := MinimumFee(p.Value, p.TransferListed || n.FreeAgent())
	if fee.LessThan(minimum) {
		n.Status = ClubRejected
		n.ClubMessage = fmt.Sprintf("%s turn down %s for %s. They will not sell below %s.",
			n.SellerName, Money(fee), n.PlayerName, Money(minimum))
		return nil
	}
	n.Status = PlayerNegotiating
	if n.FreeAgent() {
		n.ClubMessage = fmt.Sprintf("%s is available. His representatives will hear your terms.", n.PlayerName)
	} else {
		n.ClubMessage = fmt.Sprintf("%s accept %s for %s. You may now speak to the player.", n.SellerName, Money(fee), n.PlayerName)
	}
	return nil
}

// OfferTerms puts a signing bonus and role promise to the player, who
// agrees when the offer's desirability reaches their ambition.
func (n *Negotiation) OfferTerms(bonus decimal.Decimal, role squad.RoleTier, p *squad.Player, buyerPrestige float64) error {
	if n.Status != PlayerNegotiating {
		return fmt.Errorf("offer terms to %s in %s: %w", n.PlayerName, n.Status, ErrInvalidTransition)
	}
	n.Bonus = bonus
	n.Role = role
	score := Desirability(bonus, p.Value, buyerPrestige, role)
	if score.GreaterThanOrEqual(decimal.NewFromInt(int64(p.Ambition))) {
		n.Status = Agreed
		n.PlayerMessage = fmt.Sprintf("%s agrees to join as a %s. The deal completes at the end of the week.", n.PlayerName, role)
		return nil
	}
	n.Status = Failed
	n.PlayerMessage = fmt.Sprintf("%s is not convinced by a %s bonus and a %s role.", n.PlayerName, Money(bonus), role)
	return nil
}

// Cost is what the buyer pays on completion.
func (n *Negotiation) Cost() decimal.Decimal {
	return n.Fee.Add(n.Bonus)
}

// Negotiations is the set of open negotiations.
type Negotiations []*Negotiation

// Find returns the negotiation with the given ID, or nil.
func (ns Negotiations) Find(id uuid.UUID) *Negotiation {
	for _, n := range ns {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// ForPlayer returns the first negotiation targeting a player, or nil.
func (ns Negotiations) ForPlayer(id squad.PlayerID) *Negotiation {
	for _, n := range ns {
		if n.PlayerID == id {
			return n
		}
	}
	return nil
}

// NewID draws a random identifier from the game's entropy source.
func NewID(rng entropy.Source) uuid.UUID {
	id, err := uuid.NewRandomFromReader(entropy.Reader(rng))
	if err != nil {
		return uuid.New()
	}
	return id
}

// Money formats an amount in whole euros with thousands separators.
func Money(d decimal.Decimal) string {
	return "€" + humanize.Comma(d.IntPart())
}
