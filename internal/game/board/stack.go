package board

import (
	"github.com/dmklda/farmandcity-sub002/internal/game/effect"
)

// maxLevel caps a cell's effective level regardless of stack height.
const maxLevel = 4

// Level converts a card count into an effective level.
func Level(count int) int {
	if count > maxLevel {
		return maxLevel
	}
	if count < 1 {
		return 0
	}
	return count
}

// Multiplier returns the effect scaling for a stack of count identical
// cards: 1 + 0.5 per card beyond the first.
func Multiplier(count int) float64 {
	if count < 1 {
		return 0
	}
	return 1 + 0.5*float64(count-1)
}

// scaledOps parses the cell's base card once and scales every amount by
// the stack multiplier.
func (c *Cell) scaledOps(parse func(string) []effect.Op) []effect.Op {
	if c.Base == nil {
		return nil
	}
	ops := parse(c.Base.EffectText)
	if len(ops) == 0 {
		return nil
	}
	factor := Multiplier(c.Count())
	scaled := make([]effect.Op, len(ops))
	for i, op := range ops {
		scaled[i] = op.Scale(factor)
	}
	return scaled
}

// ProductionOps returns the cell's stack-scaled per-turn production ops.
func (c *Cell) ProductionOps() []effect.Op {
	return c.scaledOps(effect.ParseProduction)
}

// InstantOps returns the cell's stack-scaled one-shot ops.
func (c *Cell) InstantOps() []effect.Op {
	return c.scaledOps(effect.ParseInstant)
}

// DiceOps returns the cell's stack-scaled dice-conditioned ops.
func (c *Cell) DiceOps() []effect.Op {
	return c.scaledOps(effect.ParseDice)
}
