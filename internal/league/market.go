package league

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/talgya/touchline/internal/entropy"
	"github.com/talgya/touchline/internal/squad"
	"github.com/talgya/touchline/internal/transfer"
)

// MarketEntry is a player the user can approach.
type MarketEntry struct {
	Player     *squad.Player   `json:"player"`
	ClubID     squad.ClubID    `json:"club_id"`
	ClubName   string          `json:"club_name"`
	MinimumFee decimal.Decimal `json:"minimum_fee"`
}

// Market lists every player outside the user's club with the fee their
// club would accept: listed players first, then free agents, then the
// rest of the league.
func (s *State) Market() []MarketEntry {
	var listed, free, others []MarketEntry
	for _, c := range s.Rivals() {
		for _, p := range c.Roster {
			e := MarketEntry{Player: p, ClubID: c.ID, ClubName: c.Name, MinimumFee: transfer.MinimumFee(p.Value, p.TransferListed)}
			if p.TransferListed {
				listed = append(listed, e)
			} else {
				others = append(others, e)
			}
		}
	}
	for _, p := range s.FreeAgents {
		free = append(free, MarketEntry{Player: p, ClubName: "Free Agent", MinimumFee: transfer.MinimumFee(p.Value, true)})
	}
	return append(append(listed, free...), others...)
}

// OpenNegotiation starts (or returns the live) negotiation for a player
// outside the user's club.
func (s *State) OpenNegotiation(playerID squad.PlayerID, rng entropy.Source) (*transfer.Negotiation, error) {
	p, seller := s.FindPlayer(playerID)
	if p == nil {
		return nil, fmt.Errorf("open negotiation for %d: %w", playerID, ErrUnknownPlayer)
	}
	if seller != nil && seller.ID == s.UserClubID {
		return nil, fmt.Errorf("open negotiation for %s: %w", p.Name, ErrOwnPlayer)
	}
	for _, n := range s.Negotiations {
		if n.PlayerID == playerID && (!n.Status.Terminal() || n.Status == transfer.ClubRejected) {
			return n, nil
		}
	}
	n := transfer.Open(transfer.NewID(rng), p, seller, s.UserClubID)
	s.Negotiations = append(s.Negotiations, n)
	return n, nil
}

func (s *State) negotiation(id uuid.UUID) (*transfer.Negotiation, *squad.Player, error) {
	n := s.Negotiations.Find(id)
	if n == nil {
		return nil, nil, fmt.Errorf("negotiation %s: %w", id, ErrUnknownNegotiation)
	}
	p := s.Available(n)
	if p == nil {
		return nil, nil, fmt.Errorf("negotiation for %s: %w", n.PlayerName, transfer.ErrPlayerUnavailable)
	}
	return n, p, nil
}

// Available returns the negotiated player while they are still with the
// club the negotiation was opened against, or nil.
func (s *State) Available(n *transfer.Negotiation) *squad.Player {
	p, owner := s.FindPlayer(n.PlayerID)
	if p == nil || (owner == nil) != n.FreeAgent() || (owner != nil && owner.ID != n.SellerID) {
		return nil
	}
	return p
}

// OfferFee puts a fee to the selling club.
func (s *State) OfferFee(id uuid.UUID, fee decimal.Decimal) (*transfer.Negotiation, error) {
	n, p, err := s.negotiation(id)
	if err != nil {
		return nil, err
	}
	if err := n.OfferFee(fee, p); err != nil {
		return n, err
	}
	slog.Debug("fee offered", "player", n.PlayerName, "fee", fee.String(), "status", n.Status)
	return n, nil
}

// OfferTerms puts a bonus and role to the player. The offer is refused
// upfront when the user's budget cannot cover fee plus bonus.
func (s *State) OfferTerms(id uuid.UUID, bonus decimal.Decimal, role squad.RoleTier) (*transfer.Negotiation, error) {
	n, p, err := s.negotiation(id)
	if err != nil {
		return nil, err
	}
	user := s.UserClub()
	if n.Status == transfer.PlayerNegotiating && user.Budget.LessThan(n.Fee.Add(bonus)) {
		return n, fmt.Errorf("terms for %s: %w", n.PlayerName, transfer.ErrInsufficientFunds)
	}
	if err := n.OfferTerms(bonus, role, p, user.Prestige()); err != nil {
		return n, err
	}
	slog.Debug("terms offered", "player", n.PlayerName, "bonus", bonus.String(), "role", role, "status", n.Status)
	return n, nil
}

// AcceptOffer completes an AI bid for one of the user's players.
func (s *State) AcceptOffer(id uuid.UUID) error {
	return s.Offers.Accept(id, s.UserClub(), s.Club)
}

// RejectOffer discards an AI bid.
func (s *State) RejectOffer(id uuid.UUID) error {
	return s.Offers.Reject(id)
}

// RankedOffers returns the pending offers for a user player in the
// player's order of preference.
func (s *State) RankedOffers(playerID squad.PlayerID) transfer.Offers {
	p := s.UserClub().Player(playerID)
	if p == nil {
		return nil
	}
	return transfer.RankOffers(s.Offers.ForPlayer(playerID), p, func(id squad.ClubID) float64 {
		if c := s.Club(id); c != nil {
			return c.Prestige()
		}
		return 0
	})
}

// ToggleTransferList flips a user player's listing and returns the new
// value. Delisting withdraws the player's pending offers.
func (s *State) ToggleTransferList(playerID squad.PlayerID) (bool, error) {
	p := s.UserClub().Player(playerID)
	if p == nil {
		return false, fmt.Errorf("toggle listing of %d: %w", playerID, ErrNotYourPlayer)
	}
	p.TransferListed = !p.TransferListed
	if !p.TransferListed {
		s.Offers.DropPlayer(playerID)
	}
	return p.TransferListed, nil
}

// SignScouted adds a recommended player to the free-agent pool and opens
// a negotiation for them like any other market player.
func (s *State) SignScouted(name string, pos squad.Position, age int, rng entropy.Source) (*transfer.Negotiation, error) {
	g := s.Generator(rng)
	p := g.Scouted(name, pos, age, s.UserClub().Division)
	s.SyncIDs(g)
	s.FreeAgents.Add(p)
	return s.OpenNegotiation(p.ID, rng)
}

// Assign puts a user player into a tactical role.
func (s *State) Assign(role string, playerID squad.PlayerID) error {
	return s.UserClub().Assign(role, playerID)
}

// Unassign empties one of the user's tactical roles.
func (s *State) Unassign(role string) error {
	return s.UserClub().Unassign(role)
}

// SetFormation changes the user's formation and clears the lineup.
func (s *State) SetFormation(f squad.Formation) error {
	return s.UserClub().SetFormation(f)
}

// AutoLineup fills the user's lineup with the strongest fit players.
func (s *State) AutoLineup() {
	s.UserClub().AutoLineup()
}

// SetTraining changes a user player's training plan.
func (s *State) SetTraining(playerID squad.PlayerID, t squad.Training) error {
	p := s.UserClub().Player(playerID)
	if p == nil {
		return fmt.Errorf("set training for %d: %w", playerID, ErrNotYourPlayer)
	}
	return p.SetTraining(t)
}
