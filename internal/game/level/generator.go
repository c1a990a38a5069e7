// Package level generates simple platformer levels for the duel backdrop.
// Generation is a pure function over an injectable random source.
package level

import "math/rand"

// Tile values in a generated grid.
const (
	TileEmpty       = 0
	TileGround      = 1
	TileStart       = 2
	TileExit        = 3
	TileCollectible = 4
	TileEnemy       = 5
)

// Difficulty bounds. Requests outside the range are clamped.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Source supplies random integers for generation.
type Source interface {
	// Intn returns a uniform random int in [0, n).
	Intn(n int) int
}

type mathSource struct{}

func (mathSource) Intn(n int) int { return rand.Intn(n) }

// NewRandomSource returns a Source backed by math/rand.
func NewRandomSource() Source { return mathSource{} }

// Level is a generated platformer level plus the client physics metadata.
type Level struct {
	// Grid is row-major: Grid[y][x], with y=0 the top row.
	Grid        [][]int `json:"level"`
	Difficulty  int     `json:"difficulty"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	PlayerSpeed float64 `json:"player_speed"`
	EnemySpeed  float64 `json:"enemy_speed"`
	JumpForce   float64 `json:"jump_force"`
	Gravity     float64 `json:"gravity"`
}

// ClampDifficulty forces d into [MinDifficulty, MaxDifficulty].
func ClampDifficulty(d int) int {
	if d < MinDifficulty {
		return MinDifficulty
	}
	if d > MaxDifficulty {
		return MaxDifficulty
	}
	return d
}

// randInt returns a uniform random int in [lo, hi], inclusive on both ends.
//
// Precondition: hi >= lo.
func randInt(src Source, lo, hi int) int {
	return lo + src.Intn(hi-lo+1)
}

// Generate builds a platformer level. Difficulty controls the number of
// platforms, collectibles, and enemies and is clamped to [1, 5]. The bottom
// row is solid ground; the player start marker lands near the left edge and
// the exit near the right, both one row above the ground.
//
// Precondition: width >= 10; height >= 8; src must be non-nil.
// Postcondition: Returns a Level whose Grid is height rows of width tiles.
func Generate(difficulty, width, height int, src Source) Level {
	difficulty = ClampDifficulty(difficulty)

	grid := make([][]int, height)
	for y := range grid {
		grid[y] = make([]int, width)
	}

	// Ground
	for x := 0; x < width; x++ {
		grid[height-1][x] = TileGround
	}

	// Low platforms scale with difficulty.
	numPlatforms := 5 + difficulty*2
	for n := 0; n < numPlatforms; n++ {
		length := randInt(src, 3, 8)
		x := randInt(src, 0, width-length-1)
		y := randInt(src, height/2, height-3)
		for j := 0; j < length; j++ {
			grid[y][x+j] = TileGround
		}
	}

	// Floating platforms in the upper half.
	numFloating := 3 + difficulty
	for n := 0; n < numFloating; n++ {
		length := randInt(src, 2, 5)
		x := randInt(src, 0, width-length-1)
		y := randInt(src, 2, height/2)
		for j := 0; j < length; j++ {
			grid[y][x+j] = TileGround
		}
	}

	// Start near the left edge, exit near the right, both on the ground row.
	grid[height-2][randInt(src, 1, 5)] = TileStart
	grid[height-2][randInt(src, width-6, width-2)] = TileExit

	// Collectibles only land on empty tiles.
	for n := 0; n < difficulty*2; n++ {
		x := randInt(src, 1, width-2)
		y := randInt(src, 1, height-3)
		if grid[y][x] == TileEmpty {
			grid[y][x] = TileCollectible
		}
	}

	// Enemies only land on empty tiles.
	for n := 0; n < difficulty; n++ {
		x := randInt(src, 8, width-2)
		y := randInt(src, 1, height-3)
		if grid[y][x] == TileEmpty {
			grid[y][x] = TileEnemy
		}
	}

	return Level{
		Grid:        grid,
		Difficulty:  difficulty,
		Width:       width,
		Height:      height,
		PlayerSpeed: 5 + float64(difficulty)*0.5,
		EnemySpeed:  2 + float64(difficulty),
		JumpForce:   10,
		Gravity:     0.5,
	}
}
