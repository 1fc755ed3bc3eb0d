// Package dice rolls the build-phase die and resolves dice-conditioned
// production across the board.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"

	"github.com/dmklda/farmandcity-sub002/internal/game/board"
	"github.com/dmklda/farmandcity-sub002/internal/game/resources"
)

// Sides of the build-phase die.
const Sides = 6

// Roller produces die rolls from its own rand source, so a game session
// can be seeded deterministically in tests.
type Roller struct {
	rng *rand.Rand
}

// NewRoller creates a roller seeded from crypto/rand.
func NewRoller() *Roller {
	var b [8]byte
	seed := int64(1)
	if _, err := crand.Read(b[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(b[:]))
	}
	return NewSeededRoller(seed)
}

// NewSeededRoller creates a roller with a fixed seed.
func NewSeededRoller(seed int64) *Roller {
	return &Roller{rng: rand.New(rand.NewSource(seed))}
}

// Roll returns a uniform value in [1, Sides].
func (r *Roller) Roll() int {
	return 1 + r.rng.Intn(Sides)
}

// Intn exposes the roller's source for other weighted draws in the same
// session (catastrophes, destruction targets).
func (r *Roller) Intn(n int) int {
	return r.rng.Intn(n)
}

// Float64 returns a uniform value in [0, 1).
func (r *Roller) Float64() float64 {
	return r.rng.Float64()
}

// ResolveProduction matches every placed farm/city card whose effect is
// conditioned on the rolled value and sums their stack-scaled production.
// Only coins, food and materials are dice-produced; population and
// reputation components are discarded.
func ResolveProduction(b *board.Board, value int) (resources.Delta, []string) {
	delta := resources.Delta{}
	var activated []string

	for _, ref := range b.OccupiedCells(board.GridFarm, board.GridCity) {
		cell, _ := b.Grid(ref.Grid).Cell(ref.X, ref.Y)
		matched := false
		for _, op := range cell.DiceOps() {
			if op.DiceValue != value {
				continue
			}
			switch op.Resource {
			case resources.Coins, resources.Food, resources.Materials:
				delta = delta.Add(op.Resource, op.Amount)
				matched = true
			}
		}
		if matched {
			activated = append(activated, cell.Base.ID)
		}
	}

	return delta, activated
}
