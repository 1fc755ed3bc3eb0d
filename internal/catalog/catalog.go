// Package catalog supplies the read-only card catalog the engine plays
// from. Cards are immutable catalog entries; the engine never mutates
// them. An empty or partial catalog is valid and degrades gracefully.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmklda/farmandcity-sub002/internal/game/resources"
)

// CardType identifies which grid or play rule a card belongs to.
type CardType string

const (
	TypeFarm     CardType = "farm"
	TypeCity     CardType = "city"
	TypeLandmark CardType = "landmark"
	TypeEvent    CardType = "event"
	TypeAction   CardType = "action"
	TypeMagic    CardType = "magic"
	TypeDefense  CardType = "defense"
	TypeTrap     CardType = "trap"
)

// Rarity buckets cards and catastrophes for weighted draws.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityLegendary Rarity = "legendary"
	// RarityCrisis marks event cards whose presence on the board
	// legalizes defense-card play.
	RarityCrisis Rarity = "crisis"
)

// Card is an immutable catalog entry.
type Card struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Type       CardType            `json:"type"`
	Cost       resources.Resources `json:"cost"`
	EffectText string              `json:"effectText"`
	Rarity     Rarity              `json:"rarity"`
	// DiceValue is optional metadata for cards whose art shows the die
	// face they key on. The parser is the source of truth; this is
	// presentation data.
	DiceValue int `json:"diceValue,omitempty"`
}

// Catalog is the full set of cards available to a game session.
type Catalog struct {
	cards map[string]Card
	order []string
}

// New builds a catalog from a card list. Later duplicates of an ID win,
// matching the import script's upsert behavior.
func New(cards []Card) *Catalog {
	c := &Catalog{cards: make(map[string]Card, len(cards))}
	for _, card := range cards {
		if card.ID == "" {
			continue
		}
		if _, exists := c.cards[card.ID]; !exists {
			c.order = append(c.order, card.ID)
		}
		c.cards[card.ID] = card
	}
	return c
}

// LoadFile reads a JSON card list from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var cards []Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	return New(cards), nil
}

// Get returns the card with the given ID.
func (c *Catalog) Get(id string) (Card, bool) {
	card, ok := c.cards[id]
	return card, ok
}

// All returns every card in insertion order.
func (c *Catalog) All() []Card {
	out := make([]Card, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.cards[id])
	}
	return out
}

// Len returns the number of cards in the catalog.
func (c *Catalog) Len() int {
	return len(c.cards)
}
