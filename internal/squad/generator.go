// Roster generation: players and clubs with procedurally derived attributes.

package squad

import (
	"hash/fnv"

	"github.com/shopspring/decimal"

	"github.com/talgya/touchline/internal/entropy"
)

// RosterSize is the number of players generated per club.
const RosterSize = 18

// Generator creates players and clubs. All draws come from the injected
// source, so a seeded source reproduces the same rosters.
type Generator struct {
	rng        entropy.Source
	nextPlayer PlayerID
	nextClub   ClubID
}

// NewGenerator creates a generator issuing IDs from 1.
func NewGenerator(rng entropy.Source) *Generator {
	return &Generator{rng: rng, nextPlayer: 1, nextClub: 1}
}

// SetNextIDs sets the next IDs to issue (used when restoring a saved game).
func (g *Generator) SetNextIDs(player PlayerID, club ClubID) {
	g.nextPlayer = player
	g.nextClub = club
}

// NextIDs returns the IDs the generator will issue next.
func (g *Generator) NextIDs() (PlayerID, ClubID) {
	return g.nextPlayer, g.nextClub
}

// skillBase returns the rating scale for a division.
func skillBase(division int) int {
	switch division {
	case 1:
		return 12
	case 2:
		return 8
	default:
		return 5
	}
}

// Player generates a player scaled to a division. Free agents draw their
// own base in [4, 12) regardless of division.
func (g *Generator) Player(division int, free bool) *Player {
	base := skillBase(division)
	if free {
		base = 4 + g.rng.Intn(8)
	}
	pos := Position(g.rng.Intn(NumPositions))
	age := 17 + g.rng.Intn(18)
	return g.build(g.generateName(), pos, age, base)
}

// Scouted generates a free agent with a known identity, as recommended by
// the scouting service. Ratings still come from the division scale; the
// market value is derived from them like any other player's.
func (g *Generator) Scouted(name string, pos Position, age, division int) *Player {
	if age < 16 {
		age = 16
	}
	return g.build(name, pos, age, skillBase(division))
}

func (g *Generator) build(name string, pos Position, age, base int) *Player {
	id := g.nextPlayer
	g.nextPlayer++

	skills := Skills{
		Goalkeeping: 1 + g.rng.Intn(3),
		Defending:   1 + g.rng.Intn(base+2),
		Playmaking:  1 + g.rng.Intn(base+2),
		Finishing:   1 + g.rng.Intn(base+2),
	}

	// Boost the rating matching the position.
	primary := base + g.rng.Intn(5)
	switch pos {
	case Goalkeeper:
		skills.Goalkeeping = primary
	case Defender:
		skills.Defending = primary
	case Midfielder:
		skills.Playmaking = primary
	case Forward:
		skills.Finishing = primary
	}

	pool := rolePool[pos]
	p := &Player{
		ID:            id,
		Name:          name,
		Position:      pos,
		Age:           age,
		Skills:        skills,
		Ambition:      20 + g.rng.Intn(70),
		Potential:     30 + g.rng.Intn(70),
		Personality:   Personality(g.rng.Intn(4)),
		Morale:        70 + g.rng.Intn(30),
		Fatigue:       g.rng.Intn(10),
		ClubID:        FreeAgent,
		PreferredRole: pool[g.rng.Intn(len(pool))],
		Training:      Training{Focus: FocusNone, Intensity: Medium},
	}
	p.Recompute()
	return p
}

// Club generates a club with a full roster. Budget and capacity scale
// inversely with division. Non-user clubs get an automatic lineup.
func (g *Generator) Club(name string, division int, isUser bool) *Club {
	id := g.nextClub
	g.nextClub++

	tier := int64(BottomDivision + 1 - division)
	c := &Club{
		ID:        id,
		Name:      name,
		Division:  division,
		IsUser:    isUser,
		Budget:    decimal.NewFromInt(tier * 2_000_000),
		Capacity:  int(tier) * 8_000,
		Formation: DefaultFormation,
		Lineup:    make(map[string]PlayerID),
		Crest:     crestFor(name),
	}
	for i := 0; i < RosterSize; i++ {
		p := g.Player(division, false)
		p.ClubID = id
		c.Roster = append(c.Roster, p)
	}
	if !isUser {
		c.AutoLineup()
	}
	return c
}

// FreeAgents generates a pool of unattached players from random divisions.
func (g *Generator) FreeAgents(count int) Pool {
	pool := make(Pool, 0, count)
	for i := 0; i < count; i++ {
		division := TopDivision + g.rng.Intn(NumDivisions)
		pool = append(pool, g.Player(division, true))
	}
	return pool
}

func (g *Generator) generateName() string {
	first := firstNames[g.rng.Intn(len(firstNames))]
	last := lastNames[g.rng.Intn(len(lastNames))]
	return first + " " + last
}

// crestFor derives a stable crest from the club name.
func crestFor(name string) Crest {
	h := fnv.New32a()
	h.Write([]byte(name))
	v := int(h.Sum32() & 0x7fffffff)
	return Crest{
		PrimaryColor:   crestColors[v%len(crestColors)],
		SecondaryColor: crestColors[(v*7)%len(crestColors)],
		Pattern:        crestPatterns[(v*13)%len(crestPatterns)],
		Shape:          crestShapes[(v*17)%len(crestShapes)],
		Symbol:         crestSymbols[(v*31)%len(crestSymbols)],
	}
}

var crestColors = []string{
	"#ef4444", "#3b82f6", "#10b981", "#f59e0b", "#8b5cf6", "#ec4899", "#ffffff",
	"#09090b", "#06b6d4", "#f97316", "#a855f7", "#14b8a6", "#6366f1", "#84cc16",
}

var crestPatterns = []string{"stripes", "diagonal", "cross", "plain", "chevron", "checkered", "stars"}

var crestShapes = []string{"shield", "circle", "diamond", "hexagon", "square"}

var crestSymbols = []string{"ball", "lion", "eagle", "flame", "star", "crown", "bolt", "dragon", "wolf", "anchor", "tower", "trident"}

// Name pools for procedural generation.
var firstNames = []string{
	"Mateo", "Thiago", "Erling", "Jude", "Bukayo", "Luka", "Kevin", "Bruno",
	"Antoine", "Robert", "Harry", "Marcus", "Declan", "Pedri", "Iker", "Enzo",
	"Julian", "Darwin", "Federico", "Ruben", "Bernardo", "Ousmane", "Theo", "Lucas",
	"Jules", "Moussa", "Achraf", "Hakim", "Sadio", "Victor", "Riyad", "Jonathan",
	"Milan", "Dusan", "Piotr", "Jakub", "Dominik", "Tomas", "Romelu", "Youri",
	"Gabriel", "Fabio", "Roberto", "Paolo", "Marco", "Davide", "Sandro", "Arthur",
}

var lastNames = []string{
	"Garcia", "Silva", "Haaland", "Saka", "Kubo", "Salah", "Buffon", "Bastoni",
	"Muller", "Schmidt", "Fernandes", "Kane", "Foden", "Rice", "Hernandez", "Suarez",
	"Valverde", "Gimenez", "Cancelo", "Dias", "Coman", "Saliba", "Pavard", "Kounde",
	"Fofana", "Kamara", "Hakimi", "Mane", "Mendy", "Sarr", "Osimhen", "Ndidi",
	"Partey", "Kudus", "Davies", "Larin", "Oblak", "Kovacic", "Schick", "Doku",
	"Onana", "Castagne", "Rossi", "Mancini", "Ricci", "Colombo", "Esposito", "Riva",
}
