// Package stage defines duel arenas: named spawn layouts loaded from YAML
// definitions, with a built-in default matching the original browser client.
package stage

import (
	"fmt"
	"strings"
)

// Spawn is a fighter's starting coordinate.
type Spawn struct {
	X float64
	Y float64
}

// Stage describes where and how the two fighters enter a duel.
// The first player to join takes the left side, the second the right.
type Stage struct {
	// Name identifies the stage within a stage directory.
	Name string
	// LeftSpawn is the first joiner's starting position.
	LeftSpawn Spawn
	// RightSpawn is the second joiner's starting position.
	RightSpawn Spawn
	// LeftColor is the first joiner's sprite color (CSS hex).
	LeftColor string
	// RightColor is the second joiner's sprite color (CSS hex).
	RightColor string
}

// Default returns the built-in stage: the layout hard-coded in the original
// client (left at x=100, right at x=600, both at y=300).
func Default() Stage {
	return Stage{
		Name:       "default",
		LeftSpawn:  Spawn{X: 100, Y: 300},
		RightSpawn: Spawn{X: 600, Y: 300},
		LeftColor:  "#FF5733",
		RightColor: "#33A1FF",
	}
}

// Validate checks the stage invariants.
//
// Postcondition: Returns nil if the stage is usable, or an error describing all violations.
func (s Stage) Validate() error {
	var errs []string

	if s.Name == "" {
		errs = append(errs, "stage name must not be empty")
	}
	if s.LeftSpawn.X >= s.RightSpawn.X {
		errs = append(errs, fmt.Sprintf("left spawn x (%g) must be less than right spawn x (%g)", s.LeftSpawn.X, s.RightSpawn.X))
	}
	if s.LeftColor == "" {
		errs = append(errs, "left color must not be empty")
	}
	if s.RightColor == "" {
		errs = append(errs, "right color must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid stage %q: %s", s.Name, strings.Join(errs, "; "))
	}
	return nil
}
