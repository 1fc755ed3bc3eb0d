package game

import (
	"fmt"
	"sync"

	"github.com/dmklda/farmandcity-sub002/internal/catalog"
	"github.com/dmklda/farmandcity-sub002/internal/game/board"
	"github.com/dmklda/farmandcity-sub002/internal/game/catastrophe"
	"github.com/dmklda/farmandcity-sub002/internal/game/dice"
	"github.com/dmklda/farmandcity-sub002/internal/game/effect"
	"github.com/dmklda/farmandcity-sub002/internal/game/resources"
	"github.com/dmklda/farmandcity-sub002/internal/game/victory"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// initialHandSize is dealt at game construction, before the first draw.
const initialHandSize = 5

// Engine drives the per-turn state machine for every active game
// session. Every public operation validates before mutating: a returned
// rejection means the state is unchanged. Mutating operations hold the
// engine mutex for their whole duration, so concurrent callers are
// serialized; State takes a read lock and returns a detached copy.
type Engine struct {
	logger       *zap.Logger
	sink         Sink
	settings     Settings
	catastrophes []catastrophe.Catastrophe
	roller       *dice.Roller

	mu    sync.RWMutex
	games map[string]*State
}

// NewEngine creates an engine. A nil sink discards notices; a nil roller
// gets a crypto-seeded one.
func NewEngine(settings Settings, sink Sink, roller *dice.Roller, logger *zap.Logger) *Engine {
	if sink == nil {
		sink = NopSink()
	}
	if roller == nil {
		roller = dice.NewRoller()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		logger:       logger,
		sink:         sink,
		settings:     settings,
		catastrophes: catastrophe.DefaultSet(),
		roller:       roller,
		games:        make(map[string]*State),
	}
}

// SetCatastrophes replaces the catastrophe catalog. An empty catalog
// disables catastrophes (the draw degrades gracefully).
func (e *Engine) SetCatastrophes(pool []catastrophe.Catastrophe) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.catastrophes = pool
}

// NewGame starts a session from the given deck, deals the opening hand
// and runs the first draw step.
func (e *Engine) NewGame(deck []catalog.Card) (string, error) {
	s := &State{
		ID:        uuid.NewString(),
		Turn:      1,
		Phase:     PhaseDraw,
		Status:    StatusActive,
		Resources: e.settings.StartingResources,
		Board:     board.New(),
		Deck:      append([]catalog.Card(nil), deck...),
		Stats:     PlayerStats{Reputation: e.settings.StartingReputation},
		Victory:   newVictorySystem(e.settings),
	}
	for len(s.Hand) < initialHandSize && len(s.Deck) > 0 {
		s.Hand = append(s.Hand, s.Deck[0])
		s.Deck = s.Deck[1:]
	}

	e.mu.Lock()
	e.games[s.ID] = s
	e.notify(newNotice(NoticeTurnStarted, s.ID, s.Turn, s.Phase, "turn 1 started"))
	e.drawStep(s)
	e.postMutation(s)
	e.mu.Unlock()

	e.logger.Info("game started",
		zap.String("game_id", s.ID),
		zap.Int("deck_size", len(s.Deck)),
		zap.Int("hand_size", len(s.Hand)),
	)
	return s.ID, nil
}

// newVictorySystem builds the victory system the settings ask for.
// Composite mode requires one completed major and one minor from the
// default condition set; SetVictorySystem replaces it for custom setups.
func newVictorySystem(settings Settings) *victory.System {
	if settings.VictoryMode == victory.ModeComposite {
		return victory.NewComposite([]victory.Condition{
			{ID: "reputation-goal", Category: victory.CategoryReputation, Target: settings.ReputationGoal, Type: victory.Major},
			{ID: "landmark-built", Category: victory.CategoryLandmarks, Target: 1, Type: victory.Major},
			{ID: "diverse-city", Category: victory.CategoryDiversity, Target: 3, Type: victory.Minor},
			{ID: "stockpile", Category: victory.CategoryResources, Target: 30, Type: victory.Minor},
		}, 1, 1)
	}
	return victory.NewSimple("reputation-goal", victory.CategoryReputation, settings.ReputationGoal)
}

// SetVictorySystem swaps in a custom victory system (composite setups).
func (e *Engine) SetVictorySystem(gameID string, vs *victory.System) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.lookup(gameID)
	if err != nil {
		return err
	}
	s.Victory = vs
	return nil
}

// State returns a copy of the session state for inspection. The board
// and card slices are cloned so callers cannot mutate the live state.
func (e *Engine) State(gameID string) (State, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, err := e.lookup(gameID)
	if err != nil {
		return State{}, err
	}
	view := *s
	view.Board = s.Board.Clone()
	view.Hand = append([]catalog.Card(nil), s.Hand...)
	view.Deck = append([]catalog.Card(nil), s.Deck...)
	view.DiscardPile = append([]catalog.Card(nil), s.DiscardPile...)
	view.Catastrophes = append([]catastrophe.Instance(nil), s.Catastrophes...)
	view.Victory = s.Victory.Clone()
	if s.Penalty != nil {
		p := *s.Penalty
		view.Penalty = &p
	}
	return view, nil
}

// Restore registers a session rebuilt from a snapshot. An existing
// session with the same ID is replaced.
func (e *Engine) Restore(s *State) {
	e.mu.Lock()
	e.games[s.ID] = s
	e.mu.Unlock()
	e.logger.Info("game restored",
		zap.String("game_id", s.ID),
		zap.Int("turn", s.Turn),
		zap.String("phase", s.Phase.String()),
	)
}

// EndGame drops the session.
func (e *Engine) EndGame(gameID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.games, gameID)
}

// AdvancePhase moves the session to the next phase. Leaving the build
// phase requires the die to have been rolled; leaving the end phase
// requires the hand to be within the limit.
func (e *Engine) AdvancePhase(gameID string) (Phase, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.lookup(gameID)
	if err != nil {
		return 0, err
	}
	if s.Status != StatusActive {
		return s.Phase, ErrGameOver
	}

	switch s.Phase {
	case PhaseBuild:
		if !s.Flags.DiceUsed {
			return s.Phase, ErrDiceNotRolled
		}
	case PhaseEnd:
		if len(s.Hand) > e.settings.HandLimit {
			return s.Phase, ErrMustDiscard
		}
	}

	next, wrapped := s.Phase.next()
	s.Phase = next
	e.notify(newNotice(NoticePhaseChanged, s.ID, s.Turn, s.Phase, "entered "+s.Phase.String()))

	if wrapped {
		e.startNextTurn(s)
	}

	switch s.Phase {
	case PhaseProduction:
		e.runProduction(s)
	case PhaseEnd:
		e.runEndPipeline(s)
	}

	e.postMutation(s)
	return s.Phase, nil
}

// PlaceCard plays a grid card from the hand onto the board during the
// build phase. On success the cost is deducted and the card's
// stack-scaled instant effect applies atomically with the placement.
func (e *Engine) PlaceCard(gameID string, handIndex int, gridType board.GridType, x, y int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.lookup(gameID)
	if err != nil {
		return err
	}
	if s.Status != StatusActive {
		return ErrGameOver
	}
	if s.Phase != PhaseBuild {
		return ErrWrongPhase
	}
	if handIndex < 0 || handIndex >= len(s.Hand) {
		return ErrHandIndexOutOfRange
	}
	card := s.Hand[handIndex]

	switch card.Type {
	case catalog.TypeFarm, catalog.TypeCity:
		if s.Flags.BuiltCount >= e.settings.BuildLimit {
			return ErrBuildLimitReached
		}
	case catalog.TypeLandmark:
		if s.Flags.LandmarkBuilt {
			return ErrLandmarkLimitReached
		}
	case catalog.TypeEvent:
		// Unlimited; events always replace.
	default:
		return board.ErrNoGridForType
	}

	if err := s.Board.CanPlace(gridType, x, y, card); err != nil {
		return err
	}
	if !s.Resources.CanAfford(card.Cost) {
		return ErrInsufficientResources
	}

	// Legality holds; commit.
	s.Resources = s.Resources.Subtract(card.Cost)
	s.Hand = append(s.Hand[:handIndex], s.Hand[handIndex+1:]...)
	replaced, _ := s.Board.Place(gridType, x, y, card)
	if replaced != nil {
		s.DiscardPile = append(s.DiscardPile, *replaced)
	}

	cell, _ := s.Board.Grid(gridType).Cell(x, y)
	delta, rep := e.applyOps(s, cell.InstantOps())

	notice := newNotice(NoticeConstruction, s.ID, s.Turn, s.Phase, card.Name+" built")
	switch card.Type {
	case catalog.TypeFarm, catalog.TypeCity:
		s.Flags.BuiltCount++
		s.Stats.Buildings++
		if cell.Count() > 1 {
			notice.Type = NoticeComboStacked
			notice.Message = fmt.Sprintf("%s stacked to level %d", card.Name, cell.Level())
		}
	case catalog.TypeLandmark:
		s.Flags.LandmarkBuilt = true
		s.Stats.Landmarks++
		notice.Type = NoticeLandmarkBuilt
		notice.Message = card.Name + " landmark built"
	case catalog.TypeEvent:
		s.Stats.EventsResolved++
		notice.Type = NoticeEventPlaced
		notice.Message = card.Name + " event in play"
	}
	notice.CardID = card.ID
	notice.Delta = delta
	notice.Reputation = rep
	e.notify(notice)

	e.logger.Debug("card placed",
		zap.String("game_id", s.ID),
		zap.String("card_id", card.ID),
		zap.String("grid", string(gridType)),
	)

	e.postMutation(s)
	return nil
}

// PlayCard plays an action, magic or defense card from the hand.
// Actions are limited to one per turn in the action phase; magic is
// playable in action or build; defense only while a crisis event is
// active, in any phase.
func (e *Engine) PlayCard(gameID string, handIndex int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.lookup(gameID)
	if err != nil {
		return err
	}
	if s.Status != StatusActive {
		return ErrGameOver
	}
	if handIndex < 0 || handIndex >= len(s.Hand) {
		return ErrHandIndexOutOfRange
	}
	card := s.Hand[handIndex]

	switch card.Type {
	case catalog.TypeAction:
		if s.Phase != PhaseAction {
			return ErrWrongPhase
		}
		if s.Flags.ActionUsed {
			return ErrActionAlreadyUsed
		}
	case catalog.TypeMagic:
		if s.Phase != PhaseAction && s.Phase != PhaseBuild {
			return ErrWrongPhase
		}
	case catalog.TypeDefense:
		if !s.Board.HasCrisisEvent() {
			return ErrNoCrisisActive
		}
	default:
		return ErrCardNotPlayable
	}
	if !s.Resources.CanAfford(card.Cost) {
		return ErrInsufficientResources
	}

	s.Resources = s.Resources.Subtract(card.Cost)
	s.Hand = append(s.Hand[:handIndex], s.Hand[handIndex+1:]...)
	s.DiscardPile = append(s.DiscardPile, card)

	delta, rep := e.applyOps(s, effect.ParseInstant(card.EffectText))

	switch card.Type {
	case catalog.TypeAction:
		s.Flags.ActionUsed = true
	case catalog.TypeMagic:
		s.Stats.MagicPlayed++
	}

	notice := newNotice(NoticeCardPlayed, s.ID, s.Turn, s.Phase, card.Name+" played")
	notice.CardID = card.ID
	notice.Delta = delta
	notice.Reputation = rep
	e.notify(notice)

	e.postMutation(s)
	return nil
}

// RollDice performs the mandatory build-phase die roll and applies any
// dice-conditioned production. It may be called exactly once per build
// phase.
func (e *Engine) RollDice(gameID string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.lookup(gameID)
	if err != nil {
		return 0, err
	}
	if s.Status != StatusActive {
		return 0, ErrGameOver
	}
	if s.Phase != PhaseBuild {
		return 0, ErrWrongPhase
	}
	if s.Flags.DiceUsed {
		return 0, ErrDiceAlreadyRolled
	}

	value := e.roller.Roll()
	s.Flags.DiceUsed = true
	s.Flags.DiceResult = value

	delta, activated := dice.ResolveProduction(s.Board, value)
	s.Resources = s.Resources.Apply(delta)
	s.Stats.TotalProduction += positiveSum(delta)

	notice := newNotice(NoticeDiceResult, s.ID, s.Turn, s.Phase,
		fmt.Sprintf("rolled %d, %d cards activated", value, len(activated)))
	notice.DiceValue = value
	notice.Delta = delta
	notice.Cards = activated
	e.notify(notice)

	e.postMutation(s)
	return value, nil
}

// Discard moves a hand card to the discard pile during the end phase.
// It is mandatory while the hand exceeds the limit; otherwise one manual
// discard is allowed per turn.
func (e *Engine) Discard(gameID string, handIndex int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.lookup(gameID)
	if err != nil {
		return err
	}
	if s.Status != StatusActive {
		return ErrGameOver
	}
	if s.Phase != PhaseEnd {
		return ErrWrongPhase
	}
	if handIndex < 0 || handIndex >= len(s.Hand) {
		return ErrHandIndexOutOfRange
	}
	if len(s.Hand) <= e.settings.HandLimit {
		if s.Flags.ManualDiscardUsed {
			return ErrManualDiscardUsed
		}
		s.Flags.ManualDiscardUsed = true
	}

	card := s.Hand[handIndex]
	s.Hand = append(s.Hand[:handIndex], s.Hand[handIndex+1:]...)
	s.DiscardPile = append(s.DiscardPile, card)

	notice := newNotice(NoticeCardDiscarded, s.ID, s.Turn, s.Phase, card.Name+" discarded")
	notice.CardID = card.ID
	e.notify(notice)

	e.postMutation(s)
	return nil
}

// drawStep draws one card when the hand is below the draw threshold; an
// empty deck costs a reputation point instead of a card.
func (e *Engine) drawStep(s *State) {
	if len(s.Deck) == 0 {
		s.Stats.Reputation = resources.ClampReputation(s.Stats.Reputation, -1)
		n := newNotice(NoticePenalty, s.ID, s.Turn, s.Phase, "deck empty, reputation lost")
		n.Reputation = -1
		e.notify(n)
		return
	}
	if len(s.Hand) >= e.settings.DrawThreshold {
		return
	}
	card := s.Deck[0]
	s.Deck = s.Deck[1:]
	s.Hand = append(s.Hand, card)

	n := newNotice(NoticeCardDrawn, s.ID, s.Turn, s.Phase, card.Name+" drawn")
	n.CardID = card.ID
	e.notify(n)
}

// runProduction sums the non-dice production of every placed farm, city
// and event card, applies any active production penalty, and commits the
// result once.
func (e *Engine) runProduction(s *State) {
	delta := resources.Delta{}
	rep := 0
	var contributors []string
	for _, ref := range s.Board.OccupiedCells(board.GridFarm, board.GridCity, board.GridEvent) {
		cell, _ := s.Board.Grid(ref.Grid).Cell(ref.X, ref.Y)
		ops := cell.ProductionOps()
		if len(ops) > 0 {
			contributors = append(contributors, cell.Base.Name)
		}
		for _, op := range ops {
			if op.Resource == resources.Reputation {
				rep += op.Amount
				continue
			}
			delta = delta.Add(op.Resource, op.Amount)
		}
	}

	if s.Penalty != nil && s.Penalty.TurnsLeft > 0 {
		delta = scaleDelta(delta, s.Penalty.Multiplier)
	}

	if s.Resources.Food+delta.Food < 0 {
		s.Flags.FoodShortage = true
	}
	s.Resources = s.Resources.Apply(delta)
	if rep != 0 {
		s.Stats.Reputation = resources.ClampReputation(s.Stats.Reputation, rep)
	}
	s.Stats.TotalProduction += positiveSum(delta)

	notice := newNotice(NoticeProduction, s.ID, s.Turn, s.Phase, "production resolved")
	notice.Delta = delta
	notice.Reputation = rep
	notice.Cards = contributors
	e.notify(notice)
}

// runEndPipeline applies the fixed, ordered end-phase consequences:
// discard requirement, food-shortage penalty, diversity bonus, and the
// empty-deck penalty.
func (e *Engine) runEndPipeline(s *State) {
	if len(s.Hand) > e.settings.HandLimit {
		e.notify(newNotice(NoticePenalty, s.ID, s.Turn, s.Phase,
			fmt.Sprintf("hand over limit, discard %d cards", len(s.Hand)-e.settings.HandLimit)))
	}

	if s.Flags.FoodShortage {
		s.Resources = s.Resources.Apply(resources.Delta{Population: -1})
		s.Stats.Reputation = resources.ClampReputation(s.Stats.Reputation, -1)
		s.Flags.FoodShortage = false
		n := newNotice(NoticePenalty, s.ID, s.Turn, s.Phase, "food shortage")
		n.Delta = resources.Delta{Population: -1}
		n.Reputation = -1
		e.notify(n)
	}

	if s.Board.DistinctPlacedTypes() >= 3 {
		s.Stats.Reputation = resources.ClampReputation(s.Stats.Reputation, 1)
		n := newNotice(NoticeBonus, s.ID, s.Turn, s.Phase, "diversity bonus")
		n.Reputation = 1
		e.notify(n)
	}

	if len(s.Deck) == 0 {
		s.Stats.Reputation = resources.ClampReputation(s.Stats.Reputation, -1)
		n := newNotice(NoticePenalty, s.ID, s.Turn, s.Phase, "deck exhausted")
		n.Reputation = -1
		e.notify(n)
	}
}

// startNextTurn runs on the end→draw wrap: the turn increments, per-turn
// flags reset, the catastrophe roll happens, and the draw step runs.
func (e *Engine) startNextTurn(s *State) {
	s.Turn++
	s.Flags = TurnFlags{}
	if s.Penalty != nil {
		s.Penalty.TurnsLeft--
		if s.Penalty.TurnsLeft <= 0 {
			s.Penalty = nil
		}
	}

	// The turn limit is checked against the incremented turn before any
	// of the new turn's events fire. A finished game draws no card and
	// suffers no catastrophe.
	e.postMutation(s)
	if s.Status != StatusActive {
		return
	}

	e.notify(newNotice(NoticeTurnStarted, s.ID, s.Turn, s.Phase, fmt.Sprintf("turn %d started", s.Turn)))

	if e.roller.Float64() < e.settings.CatastropheChance {
		e.triggerCatastrophe(s)
	}

	e.drawStep(s)
}

// triggerCatastrophe draws from the catastrophe catalog and commits its
// outcome.
func (e *Engine) triggerCatastrophe(s *State) {
	cat, ok := catastrophe.Draw(s.Turn, e.catastrophes, e.roller)
	if !ok {
		return
	}
	out := catastrophe.Resolve(cat, s.Board, e.roller)

	s.Resources = s.Resources.Apply(out.Delta)
	if out.ProductionMultiplier > 0 {
		s.Penalty = &ProductionPenalty{
			Multiplier: out.ProductionMultiplier,
			TurnsLeft:  out.DurationTurns,
		}
	}
	for _, ref := range out.Destroyed {
		removed, err := s.Board.RemoveAt(ref.Grid, ref.X, ref.Y)
		if err != nil {
			continue
		}
		s.Stats.Buildings -= len(removed)
		s.DiscardPile = append(s.DiscardPile, removed...)
	}

	s.Catastrophes = append(s.Catastrophes, catastrophe.Instance{
		CatastropheID: cat.ID,
		Turn:          s.Turn,
		Resolved:      true,
	})

	notice := newNotice(NoticeCatastrophe, s.ID, s.Turn, s.Phase, cat.Name+" struck")
	notice.Delta = out.Delta
	e.notify(notice)

	e.logger.Info("catastrophe triggered",
		zap.String("game_id", s.ID),
		zap.String("catastrophe_id", cat.ID),
		zap.Int("turn", s.Turn),
	)
}

// applyOps commits instant and conversion ops against the ledger and
// reputation. Returns the net resource delta and reputation change.
func (e *Engine) applyOps(s *State, ops []effect.Op) (resources.Delta, int) {
	delta := resources.Delta{}
	rep := 0
	for _, op := range ops {
		switch op.Kind {
		case effect.OpInstant:
			if op.Resource == resources.Reputation {
				rep += op.Amount
				continue
			}
			delta = delta.Add(op.Resource, op.Amount)
		case effect.OpConversion:
			delta = delta.Merge(op.Conversion.Delta())
		}
	}
	if !delta.IsZero() {
		if delta.Food < 0 && s.Resources.Food+delta.Food < 0 {
			s.Flags.FoodShortage = true
		}
		s.Resources = s.Resources.Apply(delta)
	}
	if rep != 0 {
		s.Stats.Reputation = resources.ClampReputation(s.Stats.Reputation, rep)
	}
	return delta, rep
}

// postMutation is the fixed pipeline run after every state change:
// defeat first, then victory. A state that trips a defeat trigger must
// not also report victory in the same mutation.
func (e *Engine) postMutation(s *State) {
	if s.Status != StatusActive {
		return
	}

	reason := victory.CheckDefeat(s.Resources.Population, s.Stats.Reputation, s.Turn, e.settings.TurnLimit)
	if reason != victory.DefeatNone {
		s.Status = StatusDefeat
		s.DefeatReason = reason
		n := newNotice(NoticeDefeat, s.ID, s.Turn, s.Phase, "defeat: "+string(reason))
		e.notify(n)
		e.logger.Info("game lost",
			zap.String("game_id", s.ID),
			zap.String("reason", string(reason)),
			zap.Int("turn", s.Turn),
		)
		return
	}

	if s.Victory.Evaluate(s.progress()) {
		s.Status = StatusVictory
		e.notify(newNotice(NoticeVictory, s.ID, s.Turn, s.Phase, "victory achieved"))
		e.logger.Info("game won",
			zap.String("game_id", s.ID),
			zap.Int("turn", s.Turn),
		)
	}
}

// lookup requires the caller to hold the engine mutex.
func (e *Engine) lookup(gameID string) (*State, error) {
	s, ok := e.games[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	return s, nil
}

func (e *Engine) notify(n Notice) {
	e.sink.Notify(n)
}

func positiveSum(d resources.Delta) int {
	sum := 0
	for _, v := range []int{d.Coins, d.Food, d.Materials, d.Population} {
		if v > 0 {
			sum += v
		}
	}
	return sum
}

func scaleDelta(d resources.Delta, factor float64) resources.Delta {
	scale := func(v int) int {
		if v <= 0 {
			return v // penalties never soften upkeep
		}
		scaled := float64(v)*factor + 0.5
		return int(scaled)
	}
	return resources.Delta{
		Coins:      scale(d.Coins),
		Food:       scale(d.Food),
		Materials:  scale(d.Materials),
		Population: scale(d.Population),
	}
}
