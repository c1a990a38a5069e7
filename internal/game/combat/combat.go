// Package combat implements melee strike resolution for skirmish duels.
package combat

// Facing is the horizontal direction a fighter is looking.
type Facing int

const (
	// FacingRight means attacks sweep toward increasing x.
	FacingRight Facing = 1
	// FacingLeft means attacks sweep toward decreasing x.
	FacingLeft Facing = -1
)

// Valid reports whether f is one of the two legal facings.
func (f Facing) Valid() bool {
	return f == FacingRight || f == FacingLeft
}

// String returns a human-readable facing label.
func (f Facing) String() string {
	switch f {
	case FacingRight:
		return "right"
	case FacingLeft:
		return "left"
	default:
		return "unknown"
	}
}

// Fighter is the minimal view of a combatant needed to resolve a strike.
type Fighter struct {
	ID     string
	Name   string
	X      float64
	Facing Facing
	Health int
}

// Strike holds the outcome of a single resolved attack.
type Strike struct {
	// AttackerID is the attacking fighter's ID.
	AttackerID string
	// AttackerName is the attacking fighter's display name.
	AttackerName string
	// Hit is true when the attack connected with the defender.
	Hit bool
	// DefenderID is the struck fighter's ID. Empty when Hit is false.
	DefenderID string
	// Damage is the health removed from the defender. Zero when Hit is false.
	Damage int
	// RemainingHealth is the defender's health after the strike.
	// May be negative; the death threshold is <= 0.
	RemainingHealth int
	// Lethal is true when the strike drove the defender's health to <= 0.
	Lethal bool
}

// Connects reports whether an attack launched from attackerX while facing f
// reaches a defender standing at defenderX. The reach window is exclusive at
// both ends: a defender exactly on the attacker or exactly at full reach is
// not hit.
//
// Precondition: f must be a valid Facing; reach must be > 0.
// Postcondition: Connects(x, FacingRight, d, r) == Connects(-x, FacingLeft, -d, r).
func Connects(attackerX float64, f Facing, defenderX, reach float64) bool {
	switch f {
	case FacingRight:
		return defenderX > attackerX && defenderX < attackerX+reach
	case FacingLeft:
		return defenderX > attackerX-reach && defenderX < attackerX
	default:
		return false
	}
}

// ResolveStrike resolves an attack by attacker against defender.
// A connecting strike removes damage health; health is not floored, so the
// defender's remaining health may go negative. Lethal is set when remaining
// health is at or below zero.
//
// Precondition: attacker.Facing must be valid; reach > 0; damage >= 1.
// Postcondition: Returns a Strike naming the attacker; DefenderID is set iff Hit.
func ResolveStrike(attacker, defender Fighter, reach float64, damage int) Strike {
	s := Strike{
		AttackerID:   attacker.ID,
		AttackerName: attacker.Name,
	}

	if !Connects(attacker.X, attacker.Facing, defender.X, reach) {
		return s
	}

	s.Hit = true
	s.DefenderID = defender.ID
	s.Damage = damage
	s.RemainingHealth = defender.Health - damage
	s.Lethal = s.RemainingHealth <= 0
	return s
}
