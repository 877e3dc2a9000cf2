package squad

// Formation names a tactical shape and the roles it fields.
type Formation string

const (
	Formation442 Formation = "4-4-2"
	Formation433 Formation = "4-3-3"
	Formation352 Formation = "3-5-2"
	Formation541 Formation = "5-4-1"
)

// DefaultFormation is used for generated clubs.
const DefaultFormation = Formation442

var formationRoles = map[Formation][]string{
	Formation442: {"GK", "LB", "LCB", "RCB", "RB", "LM", "LCM", "RCM", "RM", "LS", "RS"},
	Formation433: {"GK", "LB", "LCB", "RCB", "RB", "LCM", "CM", "RCM", "LW", "ST", "RW"},
	Formation352: {"GK", "LCB", "CB", "RCB", "LWB", "LCM", "CM", "RCM", "RWB", "LS", "RS"},
	Formation541: {"GK", "LWB", "LCB", "CB", "RCB", "RWB", "LM", "LCM", "RCM", "RM", "ST"},
}

// BenchRoles are the seven substitute slots shared by every formation.
var BenchRoles = []string{"S1", "S2", "S3", "S4", "S5", "S6", "S7"}

// Formations lists the supported shapes.
func Formations() []Formation {
	return []Formation{Formation442, Formation433, Formation352, Formation541}
}

// Valid reports whether the formation is supported.
func (f Formation) Valid() bool {
	_, ok := formationRoles[f]
	return ok
}

// Roles returns a copy of the eleven starting roles.
func (f Formation) Roles() []string {
	return append([]string(nil), formationRoles[f]...)
}

// HasRole reports whether role is a starting or bench slot of f.
func (f Formation) HasRole(role string) bool {
	for _, r := range formationRoles[f] {
		if r == role {
			return true
		}
	}
	for _, r := range BenchRoles {
		if r == role {
			return true
		}
	}
	return false
}

// rolePool lists preferred tactical roles per position.
var rolePool = [NumPositions][]string{
	Goalkeeper: {"GK"},
	Defender:   {"LB", "RB", "LCB", "RCB", "CB"},
	Midfielder: {"LCM", "RCM", "CM", "LM", "RM"},
	Forward:    {"LW", "RW", "ST", "LS", "RS"},
}
