package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmklda/farmandcity-sub002/internal/catalog"
	"github.com/dmklda/farmandcity-sub002/internal/game/board"
	"github.com/dmklda/farmandcity-sub002/internal/game/catastrophe"
	"github.com/dmklda/farmandcity-sub002/internal/game/resources"
	"github.com/dmklda/farmandcity-sub002/internal/game/victory"
)

// snapshotVersion guards forward compatibility of persisted saves.
const snapshotVersion = 1

// Snapshot is the persistable form of a session. It carries the deck
// identity the session was started with so a load can be rejected when
// the player's active deck has changed, and a checksum that guards
// against divergent or corrupted saves.
type Snapshot struct {
	Version      int                    `json:"version"`
	GameID       string                 `json:"gameId"`
	DeckActiveID string                 `json:"deckActiveId"`
	Turn         int                    `json:"turn"`
	Phase        string                 `json:"phase"`
	Status       Status                 `json:"status"`
	DefeatReason victory.DefeatReason   `json:"defeatReason,omitempty"`
	Resources    resources.Resources    `json:"resources"`
	Board        *board.Board           `json:"board"`
	Hand         []catalog.Card         `json:"hand"`
	Deck         []catalog.Card         `json:"deck"`
	DiscardPile  []catalog.Card         `json:"discardPile"`
	Stats        PlayerStats            `json:"playerStats"`
	Victory      *victory.System        `json:"victorySystem,omitempty"`
	Catastrophes []catastrophe.Instance `json:"activeEvents,omitempty"`
	Penalty      *ProductionPenalty     `json:"productionPenalty,omitempty"`
	Flags        TurnFlags              `json:"flags"`
	Timestamp    time.Time              `json:"timestamp"`
	Checksum     string                 `json:"checksum,omitempty"`
}

// NewSnapshot captures the session state for persistence. The state is
// deep-copied so the snapshot stays stable while the session plays on.
func NewSnapshot(s State, deckActiveID string) Snapshot {
	sn := Snapshot{
		Version:      snapshotVersion,
		GameID:       s.ID,
		DeckActiveID: deckActiveID,
		Turn:         s.Turn,
		Phase:        s.Phase.String(),
		Status:       s.Status,
		DefeatReason: s.DefeatReason,
		Resources:    s.Resources,
		Board:        s.Board.Clone(),
		Hand:         append([]catalog.Card(nil), s.Hand...),
		Deck:         append([]catalog.Card(nil), s.Deck...),
		DiscardPile:  append([]catalog.Card(nil), s.DiscardPile...),
		Stats:        s.Stats,
		Victory:      s.Victory.Clone(),
		Catastrophes: append([]catastrophe.Instance(nil), s.Catastrophes...),
		Flags:        s.Flags,
		Timestamp:    time.Now().UTC(),
	}
	if s.Penalty != nil {
		p := *s.Penalty
		sn.Penalty = &p
	}
	sn.Checksum = sn.ComputeChecksum()
	return sn
}

// Restore rebuilds a live session state from the snapshot.
func (sn Snapshot) Restore() (*State, error) {
	phase, err := ParsePhase(sn.Phase)
	if err != nil {
		return nil, fmt.Errorf("restore snapshot %s: %w", sn.GameID, err)
	}
	b := sn.Board
	if b == nil {
		b = board.New()
	}
	s := &State{
		ID:           sn.GameID,
		Turn:         sn.Turn,
		Phase:        phase,
		Status:       sn.Status,
		DefeatReason: sn.DefeatReason,
		Resources:    sn.Resources,
		Board:        b.Clone(),
		Hand:         append([]catalog.Card(nil), sn.Hand...),
		Deck:         append([]catalog.Card(nil), sn.Deck...),
		DiscardPile:  append([]catalog.Card(nil), sn.DiscardPile...),
		Stats:        sn.Stats,
		Victory:      sn.Victory.Clone(),
		Catastrophes: append([]catastrophe.Instance(nil), sn.Catastrophes...),
		Flags:        sn.Flags,
	}
	if sn.Penalty != nil {
		p := *sn.Penalty
		s.Penalty = &p
	}
	return s, nil
}

// ComputeChecksum hashes the canonical representation of the snapshot.
// Timestamps and the stored checksum itself are excluded, so equal game
// states always hash equal.
func (sn Snapshot) ComputeChecksum() string {
	hash := sha256.Sum256([]byte(sn.canonical()))
	return hex.EncodeToString(hash[:])
}

// VerifyChecksum reports whether the stored checksum matches the state.
func (sn Snapshot) VerifyChecksum() bool {
	return sn.Checksum != "" && sn.Checksum == sn.ComputeChecksum()
}

// canonical builds a deterministic string form of the snapshot. Cell
// order is fixed row-major per grid; card lists keep their order because
// deck and discard order is game state.
func (sn Snapshot) canonical() string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("GAME:%s|%s|%d|%s|%s|%s\n",
		sn.GameID,
		sn.DeckActiveID,
		sn.Turn,
		sn.Phase,
		sn.Status,
		sn.DefeatReason,
	))
	buf.WriteString(fmt.Sprintf("RESOURCES:%d|%d|%d|%d\n",
		sn.Resources.Coins,
		sn.Resources.Food,
		sn.Resources.Materials,
		sn.Resources.Population,
	))
	buf.WriteString(fmt.Sprintf("STATS:%d|%d|%d|%d|%d|%d\n",
		sn.Stats.Reputation,
		sn.Stats.Buildings,
		sn.Stats.Landmarks,
		sn.Stats.TotalProduction,
		sn.Stats.MagicPlayed,
		sn.Stats.EventsResolved,
	))
	buf.WriteString(fmt.Sprintf("FLAGS:%t|%d|%t|%t|%d|%t|%t\n",
		sn.Flags.ActionUsed,
		sn.Flags.BuiltCount,
		sn.Flags.LandmarkBuilt,
		sn.Flags.DiceUsed,
		sn.Flags.DiceResult,
		sn.Flags.ManualDiscardUsed,
		sn.Flags.FoodShortage,
	))

	if sn.Board != nil {
		for _, gridType := range []board.GridType{board.GridFarm, board.GridCity, board.GridLandmark, board.GridEvent} {
			grid := sn.Board.Grid(gridType)
			for y := 0; y < grid.Rows; y++ {
				for x := 0; x < grid.Cols; x++ {
					cell := &grid.Cells[y][x]
					if !cell.Occupied() {
						continue
					}
					ids := make([]string, 0, cell.Count())
					ids = append(ids, cell.Base.ID)
					for _, c := range cell.Stack {
						ids = append(ids, c.ID)
					}
					buf.WriteString(fmt.Sprintf("CELL:%s|%d|%d|%s\n", gridType, x, y, strings.Join(ids, ",")))
				}
			}
		}
	}

	writeCards := func(label string, cards []catalog.Card) {
		ids := make([]string, len(cards))
		for i, c := range cards {
			ids[i] = c.ID
		}
		buf.WriteString(label)
		buf.WriteString(":")
		buf.WriteString(strings.Join(ids, ","))
		buf.WriteString("\n")
	}
	writeCards("HAND", sn.Hand)
	writeCards("DECK", sn.Deck)
	writeCards("DISCARD", sn.DiscardPile)

	for _, inst := range sn.Catastrophes {
		buf.WriteString(fmt.Sprintf("CATASTROPHE:%s|%d|%t\n", inst.CatastropheID, inst.Turn, inst.Resolved))
	}

	if sn.Penalty != nil {
		buf.WriteString(fmt.Sprintf("PENALTY:%.3f|%d\n", sn.Penalty.Multiplier, sn.Penalty.TurnsLeft))
	}

	if sn.Victory != nil {
		conditions := append([]victory.Condition(nil), sn.Victory.Conditions...)
		sort.Slice(conditions, func(i, j int) bool { return conditions[i].ID < conditions[j].ID })
		for _, c := range conditions {
			buf.WriteString(fmt.Sprintf("CONDITION:%s|%s|%s|%d|%t\n", c.ID, c.Type, c.Category, c.Target, c.Completed))
		}
	}

	return buf.String()
}

// Marshal serializes the snapshot for storage or transmission.
func (sn Snapshot) Marshal() ([]byte, error) {
	data, err := json.Marshal(sn)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot %s: %w", sn.GameID, err)
	}
	return data, nil
}

// UnmarshalSnapshot parses a stored snapshot.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var sn Snapshot
	if err := json.Unmarshal(data, &sn); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return sn, nil
}
