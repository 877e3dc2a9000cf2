package squad

// Pool is the set of unattached players.
type Pool []*Player

// Find returns the free agent with the given ID, or nil.
func (p Pool) Find(id PlayerID) *Player {
	for _, pl := range p {
		if pl.ID == id {
			return pl
		}
	}
	return nil
}

// Remove takes a player out of the pool. Returns nil if absent.
func (p *Pool) Remove(id PlayerID) *Player {
	for i, pl := range *p {
		if pl.ID == id {
			*p = append((*p)[:i], (*p)[i+1:]...)
			return pl
		}
	}
	return nil
}

// Add puts a player in the pool and detaches it from any club.
func (p *Pool) Add(pl *Player) {
	pl.ClubID = FreeAgent
	*p = append(*p, pl)
}
