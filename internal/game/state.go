package game

import (
	"github.com/dmklda/farmandcity-sub002/internal/catalog"
	"github.com/dmklda/farmandcity-sub002/internal/game/board"
	"github.com/dmklda/farmandcity-sub002/internal/game/catastrophe"
	"github.com/dmklda/farmandcity-sub002/internal/game/resources"
	"github.com/dmklda/farmandcity-sub002/internal/game/victory"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusActive  Status = "active"
	StatusVictory Status = "victory"
	StatusDefeat  Status = "defeat"
)

// PlayerStats accumulates across the whole session.
type PlayerStats struct {
	Reputation      int `json:"reputation"`
	Buildings       int `json:"buildings"`
	Landmarks       int `json:"landmarks"`
	TotalProduction int `json:"totalProduction"`
	MagicPlayed     int `json:"magicPlayed"`
	EventsResolved  int `json:"eventsResolved"`
}

// TurnFlags reset at the start of every turn.
type TurnFlags struct {
	ActionUsed        bool `json:"actionUsedThisTurn"`
	BuiltCount        int  `json:"builtCountThisTurn"`
	LandmarkBuilt     bool `json:"landmarkBuiltThisTurn"`
	DiceUsed          bool `json:"diceUsed"`
	DiceResult        int  `json:"diceResult"`
	ManualDiscardUsed bool `json:"manualDiscardUsed"`
	FoodShortage      bool `json:"foodShortage"`
}

// ProductionPenalty is an active catastrophe-driven production reduction.
type ProductionPenalty struct {
	Multiplier float64 `json:"multiplier"`
	TurnsLeft  int     `json:"turnsLeft"`
}

// State is the aggregate game state for one session. It is mutated
// exclusively through Engine operations; rejected operations leave it
// untouched.
type State struct {
	ID           string                 `json:"id"`
	Turn         int                    `json:"turn"`
	Phase        Phase                  `json:"phase"`
	Status       Status                 `json:"status"`
	DefeatReason victory.DefeatReason   `json:"defeatReason,omitempty"`
	Resources    resources.Resources    `json:"resources"`
	Board        *board.Board           `json:"board"`
	Hand         []catalog.Card         `json:"hand"`
	Deck         []catalog.Card         `json:"deck"`
	DiscardPile  []catalog.Card         `json:"discardPile"`
	Stats        PlayerStats            `json:"playerStats"`
	Victory      *victory.System        `json:"victorySystem"`
	Catastrophes []catastrophe.Instance `json:"activeEvents"`
	Penalty      *ProductionPenalty     `json:"productionPenalty,omitempty"`
	Flags        TurnFlags              `json:"flags"`
}

// progress builds the victory-evaluation snapshot from current state.
func (s *State) progress() victory.Progress {
	return victory.Progress{
		Reputation:     s.Stats.Reputation,
		Landmarks:      s.Stats.Landmarks,
		Turn:           s.Turn,
		TotalResources: s.Resources.Coins + s.Resources.Food + s.Resources.Materials + s.Resources.Population,
		Diversity:      s.Board.DistinctPlacedTypes(),
		MagicPlayed:    s.Stats.MagicPlayed,
		EventsResolved: s.Stats.EventsResolved,
	}
}

// Settings configures a game session at construction.
type Settings struct {
	StartingResources  resources.Resources
	StartingReputation int
	HandLimit          int
	DrawThreshold      int
	BuildLimit         int
	LandmarkLimit      int
	TurnLimit          int
	ReputationGoal     int
	VictoryMode        victory.Mode
	CatastropheChance  float64
}

// DefaultSettings mirrors the original game's balance values.
func DefaultSettings() Settings {
	return Settings{
		StartingResources:  resources.Resources{Coins: 5, Food: 5, Materials: 5, Population: 3},
		StartingReputation: 0,
		HandLimit:          7,
		DrawThreshold:      6,
		BuildLimit:         2,
		LandmarkLimit:      1,
		TurnLimit:          20,
		ReputationGoal:     10,
		VictoryMode:        victory.ModeSimple,
		CatastropheChance:  0.10,
	}
}
