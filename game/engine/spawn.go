package engine

import (
	"math/rand/v2"
	"time"
)

// RandSource is the capability the engine draws spawn positions and values from.
// *rand.Rand from math/rand/v2 satisfies it; tests script it.
type RandSource interface {
	IntN(n int) int
	Float64() float64
}

// NewRandSource returns a PCG-backed source seeded from the clock
func NewRandSource() RandSource {
	seed := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}

// NewSeededRandSource returns a reproducible source
func NewSeededRandSource(seed uint64) RandSource {
	return rand.New(rand.NewPCG(seed, 2048))
}

// spawnTile places a 2 (or, one time in ten, a 4) on a uniformly chosen empty
// cell. It returns nil when the grid is full.
func spawnTile(g Grid, rng RandSource) *Tile {
	empty := g.EmptyCells()
	if len(empty) == 0 {
		return nil
	}

	pos := empty[rng.IntN(len(empty))]
	value := 2
	if rng.Float64() >= SpawnTwoProbability {
		value = 4
	}
	g[pos.Row][pos.Col] = value

	return &Tile{Row: pos.Row, Col: pos.Col, Value: value}
}
