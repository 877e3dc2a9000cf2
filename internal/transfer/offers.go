package transfer

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/talgya/touchline/internal/entropy"
	"github.com/talgya/touchline/internal/squad"
)

var (
	// ErrOfferRefused is returned when accepting an offer the player has
	// already turned down.
	ErrOfferRefused = errors.New("player refused the move")
	// ErrUnknownOffer is returned for an offer that is not pending.
	ErrUnknownOffer = errors.New("unknown offer")
)

// AI bidding behaviour.
const (
	bidRate        = 0.30
	acceptanceRate = 0.90
	minBidFactor   = 0.8
	bidFactorRange = 0.4
)

// RefusalReason is the message shown when a player rejects a suitor.
const RefusalReason = "The player does not want to move to this club."

// Offer is an AI club's bid for one of the user's listed players.
type Offer struct {
	ID            uuid.UUID       `json:"id"`
	PlayerID      squad.PlayerID  `json:"player_id"`
	PlayerName    string          `json:"player_name"`
	BuyerID       squad.ClubID    `json:"buyer_id"`
	BuyerName     string          `json:"buyer_name"`
	Amount        decimal.Decimal `json:"amount"`
	PlayerAccepts bool            `json:"player_accepts"`
	RefusalReason string          `json:"refusal_reason,omitempty"`
}

// GenerateOffers rolls one week of AI interest in the user's listed
// players. Each listed player draws a bid with 30% probability from a
// uniformly chosen rival, for 80–120% of market value.
func GenerateOffers(user *squad.Club, rivals []*squad.Club, rng entropy.Source) []*Offer {
	if len(rivals) == 0 {
		return nil
	}
	var offers []*Offer
	for _, p := range user.Roster {
		if !p.TransferListed || !entropy.Chance(rng, bidRate) {
			continue
		}
		buyer := rivals[rng.Intn(len(rivals))]
		factor := decimal.NewFromFloat(minBidFactor + rng.Float64()*bidFactorRange)
		o := &Offer{
			PlayerID:      p.ID,
			PlayerName:    p.Name,
			BuyerID:       buyer.ID,
			BuyerName:     buyer.Name,
			Amount:        p.Value.Mul(factor).Round(0),
			PlayerAccepts: entropy.Chance(rng, acceptanceRate),
		}
		if !o.PlayerAccepts {
			o.RefusalReason = RefusalReason
		}
		o.ID = NewID(rng)
		offers = append(offers, o)
	}
	return offers
}

// Offers is the set of pending inbound offers.
type Offers []*Offer

// Find returns the pending offer with the given ID, or nil.
func (b Offers) Find(id uuid.UUID) *Offer {
	for _, o := range b {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// Reject discards an offer.
func (b *Offers) Reject(id uuid.UUID) error {
	if b.remove(func(o *Offer) bool { return o.ID == id }) == 0 {
		return fmt.Errorf("reject offer %s: %w", id, ErrUnknownOffer)
	}
	return nil
}

// Accept completes the transfer an offer proposes. Refused offers cannot
// be accepted. On success every pending offer for the player is dropped;
// an offer the buyer can no longer fund is dropped as well.
func (b *Offers) Accept(id uuid.UUID, seller *squad.Club, clubs func(squad.ClubID) *squad.Club) error {
	o := b.Find(id)
	if o == nil {
		return fmt.Errorf("accept offer %s: %w", id, ErrUnknownOffer)
	}
	if !o.PlayerAccepts {
		return fmt.Errorf("accept offer for %s: %w", o.PlayerName, ErrOfferRefused)
	}
	buyer := clubs(o.BuyerID)
	if buyer == nil {
		b.remove(func(x *Offer) bool { return x.ID == id })
		return fmt.Errorf("accept offer %s: buyer %d gone: %w", id, o.BuyerID, ErrUnknownOffer)
	}
	if err := Execute(buyer, seller, nil, o.PlayerID, o.Amount, decimal.Zero); err != nil {
		b.remove(func(x *Offer) bool { return x.ID == id })
		return fmt.Errorf("accept offer for %s: %w", o.PlayerName, err)
	}
	b.remove(func(x *Offer) bool { return x.PlayerID == o.PlayerID })
	return nil
}

// ForPlayer returns the pending offers for one player.
func (b Offers) ForPlayer(id squad.PlayerID) Offers {
	var out Offers
	for _, o := range b {
		if o.PlayerID == id {
			out = append(out, o)
		}
	}
	return out
}

// DropPlayer removes all offers for a player who is no longer available.
func (b *Offers) DropPlayer(id squad.PlayerID) int {
	return b.remove(func(o *Offer) bool { return o.PlayerID == id })
}

func (b *Offers) remove(match func(*Offer) bool) int {
	kept := (*b)[:0]
	removed := 0
	for _, o := range *b {
		if match(o) {
			removed++
			continue
		}
		kept = append(kept, o)
	}
	for i := len(kept); i < len(*b); i++ {
		(*b)[i] = nil
	}
	*b = kept
	return removed
}

// Suitability scores how much a player likes an offer. Ambitious players
// weight the buyer's prestige, others the money:
// prestige×w + min(100, amount/value×50)×(1−w), with w = ambition/100.
func Suitability(o *Offer, p *squad.Player, buyerPrestige float64) float64 {
	moneyScore := 100.0
	if p.Value.IsPositive() {
		ratio, _ := o.Amount.Div(p.Value).Float64()
		moneyScore = math.Min(100, ratio*50)
	}
	w := float64(p.Ambition) / 100
	return buyerPrestige*w + moneyScore*(1-w)
}

// RankOffers orders offers for a player from most to least preferred.
// Ties keep their pending order.
func RankOffers(offers Offers, p *squad.Player, prestige func(squad.ClubID) float64) Offers {
	ranked := append(Offers(nil), offers...)
	scores := make(map[uuid.UUID]float64, len(ranked))
	for _, o := range ranked {
		scores[o.ID] = Suitability(o, p, prestige(o.BuyerID))
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i].ID] > scores[ranked[j].ID]
	})
	return ranked
}
