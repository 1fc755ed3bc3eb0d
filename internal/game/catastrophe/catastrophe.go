// Package catastrophe selects and resolves rarity-weighted random
// adverse events, scaled by turn number.
package catastrophe

import (
	"math"

	"github.com/dmklda/farmandcity-sub002/internal/catalog"
	"github.com/dmklda/farmandcity-sub002/internal/game/board"
	"github.com/dmklda/farmandcity-sub002/internal/game/resources"
)

// EffectType keys how a catastrophe is applied to the game state.
type EffectType string

const (
	ResourceLoss        EffectType = "resource_loss"
	ProductionReduction EffectType = "production_reduction"
	PopulationLoss      EffectType = "population_loss"
	CardDestruction     EffectType = "card_destruction"
	Mixed               EffectType = "mixed"
)

// EffectData parameterizes a catastrophe's effect.
type EffectData struct {
	// Losses holds positive amounts to subtract (resource_loss, mixed).
	Losses resources.Delta `json:"losses,omitempty"`
	// ProductionMultiplier scales production while active (production_reduction).
	ProductionMultiplier float64 `json:"productionMultiplier,omitempty"`
	// DurationTurns is how long a production reduction lasts.
	DurationTurns int `json:"durationTurns,omitempty"`
	// PopulationLoss is the amount subtracted (population_loss).
	PopulationLoss int `json:"populationLoss,omitempty"`
	// CardsDestroyed is how many occupied cells are cleared (card_destruction).
	CardsDestroyed int `json:"cardsDestroyed,omitempty"`
}

// Catastrophe is a catalog entry.
type Catastrophe struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	EffectType EffectType     `json:"effectType"`
	EffectData EffectData     `json:"effectData"`
	Rarity     catalog.Rarity `json:"rarity"`
}

// Instance records a catastrophe that hit a specific game.
type Instance struct {
	CatastropheID string `json:"catastropheId"`
	Turn          int    `json:"turn"`
	Resolved      bool   `json:"resolved"`
}

// Rand is the randomness the generator consumes. The game session's
// dice roller satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

var baseWeights = map[catalog.Rarity]float64{
	catalog.RarityCommon:    0.5,
	catalog.RarityUncommon:  0.3,
	catalog.RarityRare:      0.15,
	catalog.RarityLegendary: 0.05,
}

// turnMultiplier scales rarity weights with game progress: min(turn/20, 2),
// floored at 1 so early turns keep the base distribution.
func turnMultiplier(turn int) float64 {
	m := math.Min(float64(turn)/20.0, 2.0)
	if m < 1 {
		return 1
	}
	return m
}

// RarityWeights returns the normalized draw probabilities at the given
// turn: common is divided by the turn multiplier, rare and legendary are
// multiplied by it, then all weights are renormalized to sum to 1.
func RarityWeights(turn int) map[catalog.Rarity]float64 {
	m := turnMultiplier(turn)
	weights := map[catalog.Rarity]float64{
		catalog.RarityCommon:    baseWeights[catalog.RarityCommon] / m,
		catalog.RarityUncommon:  baseWeights[catalog.RarityUncommon],
		catalog.RarityRare:      baseWeights[catalog.RarityRare] * m,
		catalog.RarityLegendary: baseWeights[catalog.RarityLegendary] * m,
	}
	total := 0.0
	for _, w := range weights {
		total += w
	}
	for r := range weights {
		weights[r] /= total
	}
	return weights
}

// Draw selects one catastrophe from the catalog using the turn-scaled
// rarity weights. If the drawn rarity has no entries, it falls back to a
// uniform draw over the full catalog. Returns false for an empty catalog.
func Draw(turn int, pool []Catastrophe, rng Rand) (Catastrophe, bool) {
	if len(pool) == 0 {
		return Catastrophe{}, false
	}

	weights := RarityWeights(turn)
	roll := rng.Float64()
	cumulative := 0.0
	drawn := catalog.RarityLegendary
	for _, r := range []catalog.Rarity{catalog.RarityCommon, catalog.RarityUncommon, catalog.RarityRare, catalog.RarityLegendary} {
		cumulative += weights[r]
		if roll < cumulative {
			drawn = r
			break
		}
	}

	var matching []Catastrophe
	for _, c := range pool {
		if c.Rarity == drawn {
			matching = append(matching, c)
		}
	}
	if len(matching) == 0 {
		return pool[rng.Intn(len(pool))], true
	}
	return matching[rng.Intn(len(matching))], true
}

// Outcome is the resolved, state-independent effect of a catastrophe,
// ready for the engine to commit.
type Outcome struct {
	Delta                resources.Delta
	ProductionMultiplier float64
	DurationTurns        int
	Destroyed            []board.CellRef
}

// Resolve computes a catastrophe's outcome against the current board.
// Resource losses clamp at the ledger (floor 0); destruction targets are
// chosen uniformly at random across occupied farm and city cells, one
// whole cell (stack included) per destroyed card slot.
func Resolve(cat Catastrophe, b *board.Board, rng Rand) Outcome {
	switch cat.EffectType {
	case ResourceLoss, Mixed:
		return Outcome{Delta: negate(cat.EffectData.Losses)}
	case PopulationLoss:
		return Outcome{Delta: resources.Delta{Population: -cat.EffectData.PopulationLoss}}
	case ProductionReduction:
		mult := cat.EffectData.ProductionMultiplier
		if mult <= 0 || mult > 1 {
			mult = 0.5
		}
		turns := cat.EffectData.DurationTurns
		if turns <= 0 {
			turns = 1
		}
		return Outcome{ProductionMultiplier: mult, DurationTurns: turns}
	case CardDestruction:
		occupied := b.OccupiedCells(board.GridFarm, board.GridCity)
		n := cat.EffectData.CardsDestroyed
		if n > len(occupied) {
			n = len(occupied)
		}
		var destroyed []board.CellRef
		for i := 0; i < n; i++ {
			pick := rng.Intn(len(occupied))
			destroyed = append(destroyed, occupied[pick])
			occupied = append(occupied[:pick], occupied[pick+1:]...)
		}
		return Outcome{Destroyed: destroyed}
	default:
		return Outcome{}
	}
}

func negate(d resources.Delta) resources.Delta {
	return resources.Delta{
		Coins:      -d.Coins,
		Food:       -d.Food,
		Materials:  -d.Materials,
		Population: -d.Population,
	}
}

// DefaultSet is the built-in catastrophe catalog.
func DefaultSet() []Catastrophe {
	return []Catastrophe{
		{ID: "cat-tax", Name: "Royal Tax", EffectType: ResourceLoss, Rarity: catalog.RarityCommon,
			EffectData: EffectData{Losses: resources.Delta{Coins: 2}}},
		{ID: "cat-rats", Name: "Rat Infestation", EffectType: ResourceLoss, Rarity: catalog.RarityCommon,
			EffectData: EffectData{Losses: resources.Delta{Food: 2}}},
		{ID: "cat-drought", Name: "Long Drought", EffectType: ProductionReduction, Rarity: catalog.RarityUncommon,
			EffectData: EffectData{ProductionMultiplier: 0.5, DurationTurns: 2}},
		{ID: "cat-plague", Name: "Plague", EffectType: PopulationLoss, Rarity: catalog.RarityRare,
			EffectData: EffectData{PopulationLoss: 2}},
		{ID: "cat-fire", Name: "Great Fire", EffectType: CardDestruction, Rarity: catalog.RarityRare,
			EffectData: EffectData{CardsDestroyed: 1}},
		{ID: "cat-earthquake", Name: "Earthquake", EffectType: Mixed, Rarity: catalog.RarityLegendary,
			EffectData: EffectData{Losses: resources.Delta{Coins: 2, Materials: 3, Population: 1}}},
	}
}
