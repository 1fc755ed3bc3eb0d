package game

import (
	"time"

	"github.com/dmklda/farmandcity-sub002/internal/game/resources"
	"github.com/google/uuid"
)

// NoticeType indicates the category of an outbound game notice.
type NoticeType string

const (
	NoticeTurnStarted    NoticeType = "TURN_STARTED"
	NoticePhaseChanged   NoticeType = "PHASE_CHANGED"
	NoticeCardDrawn      NoticeType = "CARD_DRAWN"
	NoticeCardDiscarded  NoticeType = "CARD_DISCARDED"
	NoticeCardPlayed     NoticeType = "CARD_PLAYED"
	NoticeConstruction   NoticeType = "CONSTRUCTION"
	NoticeComboStacked   NoticeType = "COMBO_STACKED"
	NoticeLandmarkBuilt  NoticeType = "LANDMARK_BUILT"
	NoticeEventPlaced    NoticeType = "EVENT_PLACED"
	NoticeDiceResult     NoticeType = "DICE_RESULT"
	NoticeProduction     NoticeType = "PRODUCTION_SUMMARY"
	NoticePenalty        NoticeType = "PENALTY"
	NoticeBonus          NoticeType = "BONUS"
	NoticeCatastrophe    NoticeType = "CATASTROPHE"
	NoticeVictory        NoticeType = "VICTORY"
	NoticeDefeat         NoticeType = "DEFEAT"
)

// Notice is a structured outbound event. The engine reports penalties,
// production summaries and terminal outcomes through notices rather than
// errors; only rejections are errors.
type Notice struct {
	ID        string          `json:"id"`
	Type      NoticeType      `json:"type"`
	GameID    string          `json:"gameId"`
	Turn      int             `json:"turn"`
	Phase     string          `json:"phase"`
	Message   string          `json:"message"`
	CardID    string          `json:"cardId,omitempty"`
	DiceValue int             `json:"diceValue,omitempty"`
	Delta     resources.Delta `json:"delta,omitempty"`
	Cards     []string        `json:"cards,omitempty"`
	// Reputation is the reputation change carried by this notice, kept
	// out of Delta because reputation is not part of the spendable pool.
	Reputation int       `json:"reputation,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Sink consumes engine notices. The caller supplies one at engine
// construction; there is no global notifier.
type Sink interface {
	Notify(Notice)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Notice)

// Notify implements Sink.
func (f SinkFunc) Notify(n Notice) { f(n) }

// NopSink discards all notices.
func NopSink() Sink { return SinkFunc(func(Notice) {}) }

func newNotice(noticeType NoticeType, gameID string, turn int, phase Phase, message string) Notice {
	return Notice{
		ID:        uuid.NewString(),
		Type:      noticeType,
		GameID:    gameID,
		Turn:      turn,
		Phase:     phase.String(),
		Message:   message,
		Timestamp: time.Now(),
	}
}
