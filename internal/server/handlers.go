package server

import (
	"context"

	"go.uber.org/zap"

	"github.com/dmklda/farmandcity-sub002/internal/catalog"
	"github.com/dmklda/farmandcity-sub002/internal/game"
	"github.com/dmklda/farmandcity-sub002/internal/game/board"
)

// Message is a client command.
type Message struct {
	Type         string `json:"type"`
	GameID       string `json:"gameId,omitempty"`
	PlayerID     string `json:"playerId,omitempty"`
	DeckActiveID string `json:"deckActiveId,omitempty"`
	HandIndex    int    `json:"handIndex"`
	GridType     string `json:"gridType,omitempty"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
}

// Response is the reply to one command. Notices are pushed separately
// through the broadcast path.
type Response struct {
	Type      string       `json:"type"`
	GameID    string       `json:"gameId,omitempty"`
	State     *game.State  `json:"state,omitempty"`
	Phase     string       `json:"phase,omitempty"`
	DiceValue int          `json:"diceValue,omitempty"`
	Notice    *game.Notice `json:"notice,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// SaveStore is the persistence surface the handler needs.
type SaveStore interface {
	Upsert(ctx context.Context, playerID string, sn game.Snapshot) error
	Load(ctx context.Context, playerID, deckActiveID string) (game.Snapshot, error)
	Delete(ctx context.Context, playerID string) error
}

// Handler executes client commands against the engine.
type Handler struct {
	engine *game.Engine
	cards  *catalog.Catalog
	saves  SaveStore
	logger *zap.Logger
}

// NewHandler builds a handler. saves may be nil when persistence is
// disabled; save and load commands then report an error.
func NewHandler(engine *game.Engine, cards *catalog.Catalog, saves SaveStore, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, cards: cards, saves: saves, logger: logger}
}

// Handle dispatches one command and returns its reply.
func (h *Handler) Handle(ctx context.Context, msg Message) Response {
	switch msg.Type {
	case "new_game":
		return h.newGame()
	case "get_state":
		return h.getState(msg.GameID)
	case "advance_phase":
		phase, err := h.engine.AdvancePhase(msg.GameID)
		if err != nil {
			return errResponse(msg.GameID, err)
		}
		return h.stateResponse("phase_changed", msg.GameID, phase.String(), 0)
	case "roll_dice":
		value, err := h.engine.RollDice(msg.GameID)
		if err != nil {
			return errResponse(msg.GameID, err)
		}
		return h.stateResponse("dice_rolled", msg.GameID, "", value)
	case "place_card":
		if err := h.engine.PlaceCard(msg.GameID, msg.HandIndex, board.GridType(msg.GridType), msg.X, msg.Y); err != nil {
			return errResponse(msg.GameID, err)
		}
		return h.stateResponse("card_placed", msg.GameID, "", 0)
	case "play_card":
		if err := h.engine.PlayCard(msg.GameID, msg.HandIndex); err != nil {
			return errResponse(msg.GameID, err)
		}
		return h.stateResponse("card_played", msg.GameID, "", 0)
	case "discard":
		if err := h.engine.Discard(msg.GameID, msg.HandIndex); err != nil {
			return errResponse(msg.GameID, err)
		}
		return h.stateResponse("card_discarded", msg.GameID, "", 0)
	case "save_game":
		return h.saveGame(ctx, msg)
	case "load_game":
		return h.loadGame(ctx, msg)
	default:
		return Response{Type: "error", GameID: msg.GameID, Error: "unknown command type: " + msg.Type}
	}
}

func (h *Handler) newGame() Response {
	id, err := h.engine.NewGame(h.cards.All())
	if err != nil {
		return errResponse("", err)
	}
	return h.stateResponse("game_created", id, "", 0)
}

func (h *Handler) getState(gameID string) Response {
	return h.stateResponse("game_state", gameID, "", 0)
}

func (h *Handler) saveGame(ctx context.Context, msg Message) Response {
	if h.saves == nil {
		return Response{Type: "error", GameID: msg.GameID, Error: "persistence is disabled"}
	}
	state, err := h.engine.State(msg.GameID)
	if err != nil {
		return errResponse(msg.GameID, err)
	}
	sn := game.NewSnapshot(state, msg.DeckActiveID)
	if err := h.saves.Upsert(ctx, msg.PlayerID, sn); err != nil {
		return errResponse(msg.GameID, err)
	}
	return Response{Type: "game_saved", GameID: msg.GameID}
}

func (h *Handler) loadGame(ctx context.Context, msg Message) Response {
	if h.saves == nil {
		return Response{Type: "error", Error: "persistence is disabled"}
	}
	sn, err := h.saves.Load(ctx, msg.PlayerID, msg.DeckActiveID)
	if err != nil {
		return errResponse("", err)
	}
	state, err := sn.Restore()
	if err != nil {
		return errResponse("", err)
	}
	h.engine.Restore(state)
	return h.stateResponse("game_loaded", state.ID, "", 0)
}

func (h *Handler) stateResponse(respType, gameID, phase string, diceValue int) Response {
	state, err := h.engine.State(gameID)
	if err != nil {
		return errResponse(gameID, err)
	}
	return Response{
		Type:      respType,
		GameID:    gameID,
		State:     &state,
		Phase:     phase,
		DiceValue: diceValue,
	}
}

func errResponse(gameID string, err error) Response {
	return Response{Type: "error", GameID: gameID, Error: err.Error()}
}
