package game

import (
	"errors"
	"sync"
	"testing"

	"github.com/dmklda/farmandcity-sub002/internal/catalog"
	"github.com/dmklda/farmandcity-sub002/internal/game/board"
	"github.com/dmklda/farmandcity-sub002/internal/game/dice"
	"github.com/dmklda/farmandcity-sub002/internal/game/resources"
	"github.com/dmklda/farmandcity-sub002/internal/game/victory"
)

type noticeCollector struct {
	notices []Notice
}

func (c *noticeCollector) Notify(n Notice) {
	c.notices = append(c.notices, n)
}

func (c *noticeCollector) ofType(noticeType NoticeType) []Notice {
	var out []Notice
	for _, n := range c.notices {
		if n.Type == noticeType {
			out = append(out, n)
		}
	}
	return out
}

func testEngine(settings Settings) (*Engine, *noticeCollector) {
	sink := &noticeCollector{}
	return NewEngine(settings, sink, dice.NewSeededRoller(42), nil), sink
}

func testDeck(n int) []catalog.Card {
	deck := make([]catalog.Card, 0, n)
	for i := 0; i < n; i++ {
		deck = append(deck, catalog.Card{
			ID:     "filler",
			Name:   "Wheat Field",
			Type:   catalog.TypeFarm,
			Rarity: catalog.RarityCommon,
		})
	}
	return deck
}

func mustNewGame(t *testing.T, e *Engine, deck []catalog.Card) string {
	t.Helper()
	id, err := e.NewGame(deck)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return id
}

// session fetches the live state for direct setup in tests.
func session(t *testing.T, e *Engine, id string) *State {
	t.Helper()
	s, ok := e.games[id]
	if !ok {
		t.Fatalf("game %s not found", id)
	}
	return s
}

func advanceTo(t *testing.T, e *Engine, id string, target Phase) {
	t.Helper()
	s := session(t, e, id)
	for s.Phase != target {
		if s.Phase == PhaseBuild && !s.Flags.DiceUsed {
			if _, err := e.RollDice(id); err != nil {
				t.Fatalf("RollDice: %v", err)
			}
		}
		if _, err := e.AdvancePhase(id); err != nil {
			t.Fatalf("AdvancePhase from %s: %v", s.Phase, err)
		}
	}
}

func TestNewGame_DealsOpeningHandAndDraws(t *testing.T) {
	e, _ := testEngine(DefaultSettings())
	id := mustNewGame(t, e, testDeck(10))

	s := session(t, e, id)
	if s.Turn != 1 {
		t.Errorf("turn = %d, want 1", s.Turn)
	}
	if s.Phase != PhaseDraw {
		t.Errorf("phase = %s, want %s", s.Phase, PhaseDraw)
	}
	if s.Status != StatusActive {
		t.Errorf("status = %s, want active", s.Status)
	}
	// 5 dealt plus the first draw step.
	if len(s.Hand) != 6 {
		t.Errorf("hand size = %d, want 6", len(s.Hand))
	}
	if len(s.Deck) != 4 {
		t.Errorf("deck size = %d, want 4", len(s.Deck))
	}
}

func TestAdvancePhase_FullCycle(t *testing.T) {
	settings := DefaultSettings()
	settings.CatastropheChance = 0
	e, _ := testEngine(settings)
	id := mustNewGame(t, e, testDeck(20))

	want := []Phase{PhaseAction, PhaseBuild}
	for _, phase := range want {
		got, err := e.AdvancePhase(id)
		if err != nil {
			t.Fatalf("AdvancePhase: %v", err)
		}
		if got != phase {
			t.Fatalf("phase = %s, want %s", got, phase)
		}
	}

	if _, err := e.RollDice(id); err != nil {
		t.Fatalf("RollDice: %v", err)
	}
	for _, phase := range []Phase{PhaseProduction, PhaseEnd, PhaseDraw} {
		got, err := e.AdvancePhase(id)
		if err != nil {
			t.Fatalf("AdvancePhase: %v", err)
		}
		if got != phase {
			t.Fatalf("phase = %s, want %s", got, phase)
		}
	}

	s := session(t, e, id)
	if s.Turn != 2 {
		t.Errorf("turn after wrap = %d, want 2", s.Turn)
	}
	if s.Flags.DiceUsed {
		t.Error("dice flag not reset on new turn")
	}
}

func TestAdvancePhase_BuildRequiresDiceRoll(t *testing.T) {
	e, _ := testEngine(DefaultSettings())
	id := mustNewGame(t, e, testDeck(10))
	advanceTo(t, e, id, PhaseAction)
	if _, err := e.AdvancePhase(id); err != nil {
		t.Fatalf("AdvancePhase to build: %v", err)
	}

	if _, err := e.AdvancePhase(id); !errors.Is(err, ErrDiceNotRolled) {
		t.Fatalf("err = %v, want ErrDiceNotRolled", err)
	}
	if got := session(t, e, id).Phase; got != PhaseBuild {
		t.Errorf("phase after rejection = %s, want build", got)
	}
}

func TestRollDice_OncePerBuildPhase(t *testing.T) {
	e, _ := testEngine(DefaultSettings())
	id := mustNewGame(t, e, testDeck(10))

	if _, err := e.RollDice(id); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("roll in draw phase: err = %v, want ErrWrongPhase", err)
	}

	advanceTo(t, e, id, PhaseAction)
	if _, err := e.AdvancePhase(id); err != nil {
		t.Fatal(err)
	}

	value, err := e.RollDice(id)
	if err != nil {
		t.Fatalf("RollDice: %v", err)
	}
	if value < 1 || value > dice.Sides {
		t.Errorf("roll = %d, out of range", value)
	}
	if _, err := e.RollDice(id); !errors.Is(err, ErrDiceAlreadyRolled) {
		t.Fatalf("second roll: err = %v, want ErrDiceAlreadyRolled", err)
	}
}

func TestPlaceCard_FarmWithInstantGain(t *testing.T) {
	settings := DefaultSettings()
	settings.CatastropheChance = 0
	e, _ := testEngine(settings)
	id := mustNewGame(t, e, testDeck(10))

	s := session(t, e, id)
	s.Phase = PhaseBuild
	s.Flags.DiceUsed = true
	s.Hand = []catalog.Card{{
		ID:         "farm-1",
		Name:       "Small Farm",
		Type:       catalog.TypeFarm,
		Cost:       resources.Resources{Materials: 2},
		EffectText: "Gain 2 food.",
		Rarity:     catalog.RarityCommon,
	}}

	if err := e.PlaceCard(id, 0, board.GridFarm, 0, 0); err != nil {
		t.Fatalf("PlaceCard: %v", err)
	}

	want := resources.Resources{Coins: 5, Food: 7, Materials: 3, Population: 3}
	if s.Resources != want {
		t.Errorf("resources = %+v, want %+v", s.Resources, want)
	}
	if s.Flags.BuiltCount != 1 {
		t.Errorf("built count = %d, want 1", s.Flags.BuiltCount)
	}
	if len(s.Hand) != 0 {
		t.Errorf("hand size = %d, want 0", len(s.Hand))
	}
	if s.Stats.Buildings != 1 {
		t.Errorf("buildings = %d, want 1", s.Stats.Buildings)
	}
}

func TestPlaceCard_Rejections(t *testing.T) {
	e, _ := testEngine(DefaultSettings())
	id := mustNewGame(t, e, testDeck(10))
	s := session(t, e, id)

	card := catalog.Card{
		ID:   "farm-1",
		Name: "Small Farm",
		Type: catalog.TypeFarm,
		Cost: resources.Resources{Materials: 2},
	}
	s.Hand = []catalog.Card{card}

	if err := e.PlaceCard(id, 0, board.GridFarm, 0, 0); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("draw phase: err = %v, want ErrWrongPhase", err)
	}

	s.Phase = PhaseBuild
	if err := e.PlaceCard(id, 5, board.GridFarm, 0, 0); !errors.Is(err, ErrHandIndexOutOfRange) {
		t.Errorf("bad index: err = %v, want ErrHandIndexOutOfRange", err)
	}
	if err := e.PlaceCard(id, 0, board.GridCity, 0, 0); !errors.Is(err, board.ErrWrongGrid) {
		t.Errorf("wrong grid: err = %v, want ErrWrongGrid", err)
	}

	s.Resources = resources.Resources{Materials: 1}
	before := s.Resources
	if err := e.PlaceCard(id, 0, board.GridFarm, 0, 0); !errors.Is(err, ErrInsufficientResources) {
		t.Errorf("unaffordable: err = %v, want ErrInsufficientResources", err)
	}
	if s.Resources != before {
		t.Error("rejected placement mutated resources")
	}
	if len(s.Hand) != 1 {
		t.Error("rejected placement mutated hand")
	}
}

func TestPlaceCard_BuildLimit(t *testing.T) {
	e, _ := testEngine(DefaultSettings())
	id := mustNewGame(t, e, testDeck(10))
	s := session(t, e, id)
	s.Phase = PhaseBuild
	s.Resources = resources.Resources{Coins: 50, Food: 50, Materials: 50, Population: 5}

	farm := func(n string) catalog.Card {
		return catalog.Card{ID: n, Name: n, Type: catalog.TypeFarm, Rarity: catalog.RarityCommon}
	}
	s.Hand = []catalog.Card{farm("a"), farm("b"), farm("c")}

	if err := e.PlaceCard(id, 0, board.GridFarm, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := e.PlaceCard(id, 0, board.GridFarm, 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := e.PlaceCard(id, 0, board.GridFarm, 2, 0); !errors.Is(err, ErrBuildLimitReached) {
		t.Fatalf("third build: err = %v, want ErrBuildLimitReached", err)
	}
}

func TestPlaceCard_LandmarkOncePerTurn(t *testing.T) {
	e, _ := testEngine(DefaultSettings())
	id := mustNewGame(t, e, testDeck(10))
	s := session(t, e, id)
	s.Phase = PhaseBuild
	s.Resources = resources.Resources{Coins: 50, Food: 50, Materials: 50, Population: 5}

	landmark := catalog.Card{ID: "lm", Name: "Grand Tower", Type: catalog.TypeLandmark, Rarity: catalog.RarityRare}
	s.Hand = []catalog.Card{landmark, landmark}

	if err := e.PlaceCard(id, 0, board.GridLandmark, 0, 0); err != nil {
		t.Fatal(err)
	}
	if s.Stats.Landmarks != 1 {
		t.Errorf("landmarks = %d, want 1", s.Stats.Landmarks)
	}
	if err := e.PlaceCard(id, 0, board.GridLandmark, 1, 0); !errors.Is(err, ErrLandmarkLimitReached) {
		t.Fatalf("second landmark: err = %v, want ErrLandmarkLimitReached", err)
	}
}

func TestPlaceCard_StackingEmitsCombo(t *testing.T) {
	e, sink := testEngine(DefaultSettings())
	id := mustNewGame(t, e, testDeck(10))
	s := session(t, e, id)
	s.Phase = PhaseBuild
	s.Resources = resources.Resources{Coins: 50, Food: 50, Materials: 50, Population: 5}

	card := catalog.Card{ID: "w", Name: "Wheat Field", Type: catalog.TypeFarm, Rarity: catalog.RarityCommon}
	s.Hand = []catalog.Card{card, card}

	if err := e.PlaceCard(id, 0, board.GridFarm, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := e.PlaceCard(id, 0, board.GridFarm, 0, 0); err != nil {
		t.Fatal(err)
	}

	cell, _ := s.Board.Grid(board.GridFarm).Cell(0, 0)
	if cell.Level() != 2 {
		t.Errorf("stack level = %d, want 2", cell.Level())
	}
	if got := sink.ofType(NoticeComboStacked); len(got) != 1 {
		t.Errorf("combo notices = %d, want 1", len(got))
	}
}

func TestPlayCard_ActionOncePerTurn(t *testing.T) {
	e, _ := testEngine(DefaultSettings())
	id := mustNewGame(t, e, testDeck(10))
	s := session(t, e, id)
	s.Phase = PhaseAction

	action := catalog.Card{ID: "act", Name: "Harvest Rush", Type: catalog.TypeAction, EffectText: "Gain 2 coins."}
	s.Hand = []catalog.Card{action, action}

	if err := e.PlayCard(id, 0); err != nil {
		t.Fatalf("PlayCard: %v", err)
	}
	if s.Resources.Coins != 7 {
		t.Errorf("coins = %d, want 7", s.Resources.Coins)
	}
	if err := e.PlayCard(id, 0); !errors.Is(err, ErrActionAlreadyUsed) {
		t.Fatalf("second action: err = %v, want ErrActionAlreadyUsed", err)
	}
	if len(s.DiscardPile) != 1 {
		t.Errorf("discard pile = %d, want 1", len(s.DiscardPile))
	}
}

func TestPlayCard_MagicInActionOrBuild(t *testing.T) {
	e, _ := testEngine(DefaultSettings())
	id := mustNewGame(t, e, testDeck(10))
	s := session(t, e, id)

	magic := catalog.Card{ID: "m", Name: "Transmute", Type: catalog.TypeMagic, EffectText: "Gain 1 material."}
	s.Hand = []catalog.Card{magic, magic, magic}

	if err := e.PlayCard(id, 0); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("magic in draw: err = %v, want ErrWrongPhase", err)
	}
	s.Phase = PhaseAction
	if err := e.PlayCard(id, 0); err != nil {
		t.Fatalf("magic in action: %v", err)
	}
	s.Phase = PhaseBuild
	if err := e.PlayCard(id, 0); err != nil {
		t.Fatalf("magic in build: %v", err)
	}
	if s.Stats.MagicPlayed != 2 {
		t.Errorf("magic played = %d, want 2", s.Stats.MagicPlayed)
	}
}

func TestPlayCard_DefenseRequiresActiveCrisis(t *testing.T) {
	e, _ := testEngine(DefaultSettings())
	id := mustNewGame(t, e, testDeck(10))
	s := session(t, e, id)
	s.Phase = PhaseAction

	defense := catalog.Card{ID: "d", Name: "City Walls", Type: catalog.TypeDefense, EffectText: "Gain 1 material."}
	s.Hand = []catalog.Card{defense}

	if err := e.PlayCard(id, 0); !errors.Is(err, ErrNoCrisisActive) {
		t.Fatalf("no crisis: err = %v, want ErrNoCrisisActive", err)
	}

	crisis := catalog.Card{ID: "c", Name: "Plague", Type: catalog.TypeEvent, Rarity: catalog.RarityCrisis}
	if _, err := s.Board.Place(board.GridEvent, 0, 0, crisis); err != nil {
		t.Fatal(err)
	}
	if err := e.PlayCard(id, 0); err != nil {
		t.Fatalf("defense with crisis: %v", err)
	}
}

func TestPlayCard_TrapRejected(t *testing.T) {
	e, _ := testEngine(DefaultSettings())
	id := mustNewGame(t, e, testDeck(10))
	s := session(t, e, id)
	s.Phase = PhaseAction
	s.Hand = []catalog.Card{{ID: "t", Name: "Pit Trap", Type: catalog.TypeTrap}}

	if err := e.PlayCard(id, 0); !errors.Is(err, ErrCardNotPlayable) {
		t.Fatalf("trap: err = %v, want ErrCardNotPlayable", err)
	}
}

func TestProductionPhase_SumsPlacedCards(t *testing.T) {
	settings := DefaultSettings()
	settings.CatastropheChance = 0
	e, sink := testEngine(settings)
	id := mustNewGame(t, e, testDeck(10))
	s := session(t, e, id)

	farm := catalog.Card{ID: "f", Name: "Wheat Field", Type: catalog.TypeFarm, EffectText: "Produces 2 food per turn.", Rarity: catalog.RarityCommon}
	city := catalog.Card{ID: "c", Name: "Market", Type: catalog.TypeCity, EffectText: "Produces 1 coin per turn.", Rarity: catalog.RarityCommon}
	if _, err := s.Board.Place(board.GridFarm, 0, 0, farm); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Board.Place(board.GridCity, 0, 0, city); err != nil {
		t.Fatal(err)
	}

	advanceTo(t, e, id, PhaseProduction)

	if s.Resources.Food != 7 {
		t.Errorf("food = %d, want 7", s.Resources.Food)
	}
	if s.Resources.Coins != 6 {
		t.Errorf("coins = %d, want 6", s.Resources.Coins)
	}
	if got := sink.ofType(NoticeProduction); len(got) != 1 {
		t.Fatalf("production notices = %d, want 1", len(got))
	}
}

func TestFoodShortage_EndPhasePenalty(t *testing.T) {
	settings := DefaultSettings()
	settings.CatastropheChance = 0
	e, sink := testEngine(settings)
	id := mustNewGame(t, e, testDeck(10))
	s := session(t, e, id)

	upkeep := catalog.Card{ID: "u", Name: "Barracks", Type: catalog.TypeCity, EffectText: "Costs 3 food per turn.", Rarity: catalog.RarityCommon}
	if _, err := s.Board.Place(board.GridCity, 0, 0, upkeep); err != nil {
		t.Fatal(err)
	}
	s.Resources = s.Resources.With(resources.Food, 1)
	s.Stats.Reputation = 2

	advanceTo(t, e, id, PhaseEnd)

	if s.Resources.Food != 0 {
		t.Errorf("food = %d, want 0 (clamped)", s.Resources.Food)
	}
	if s.Resources.Population != 2 {
		t.Errorf("population = %d, want 2", s.Resources.Population)
	}
	if s.Stats.Reputation != 1 {
		t.Errorf("reputation = %d, want 1", s.Stats.Reputation)
	}
	if len(sink.ofType(NoticePenalty)) == 0 {
		t.Error("no penalty notice emitted")
	}
}

func TestDiscard_MandatoryThenManual(t *testing.T) {
	settings := DefaultSettings()
	settings.CatastropheChance = 0
	e, _ := testEngine(settings)
	id := mustNewGame(t, e, testDeck(30))
	s := session(t, e, id)

	s.Hand = testDeck(9)
	advanceTo(t, e, id, PhaseEnd)

	if _, err := e.AdvancePhase(id); !errors.Is(err, ErrMustDiscard) {
		t.Fatalf("over limit: err = %v, want ErrMustDiscard", err)
	}

	if err := e.Discard(id, 0); err != nil {
		t.Fatal(err)
	}
	if err := e.Discard(id, 0); err != nil {
		t.Fatal(err)
	}
	if s.Flags.ManualDiscardUsed {
		t.Error("mandatory discards consumed the manual discard")
	}

	// Hand now at the limit; one voluntary discard remains.
	if err := e.Discard(id, 0); err != nil {
		t.Fatalf("manual discard: %v", err)
	}
	if err := e.Discard(id, 0); !errors.Is(err, ErrManualDiscardUsed) {
		t.Fatalf("second manual discard: err = %v, want ErrManualDiscardUsed", err)
	}

	if _, err := e.AdvancePhase(id); err != nil {
		t.Fatalf("advance after discards: %v", err)
	}
}

func TestDefeat_PopulationZero(t *testing.T) {
	e, sink := testEngine(DefaultSettings())
	id := mustNewGame(t, e, testDeck(10))
	s := session(t, e, id)
	s.Phase = PhaseAction
	s.Resources = s.Resources.With(resources.Population, 0)
	s.Hand = []catalog.Card{{ID: "a", Name: "Noop", Type: catalog.TypeAction}}

	if err := e.PlayCard(id, 0); err != nil {
		t.Fatal(err)
	}
	if s.Status != StatusDefeat {
		t.Fatalf("status = %s, want defeat", s.Status)
	}
	if s.DefeatReason != victory.DefeatPopulation {
		t.Errorf("reason = %s, want population", s.DefeatReason)
	}
	if len(sink.ofType(NoticeDefeat)) != 1 {
		t.Error("defeat notice missing")
	}

	if _, err := e.AdvancePhase(id); !errors.Is(err, ErrGameOver) {
		t.Errorf("mutation after defeat: err = %v, want ErrGameOver", err)
	}
	if err := e.Discard(id, 0); !errors.Is(err, ErrGameOver) {
		t.Errorf("discard after defeat: err = %v, want ErrGameOver", err)
	}
}

func TestDefeat_TurnLimit(t *testing.T) {
	settings := DefaultSettings()
	settings.CatastropheChance = 0
	settings.TurnLimit = 1
	e, _ := testEngine(settings)
	id := mustNewGame(t, e, testDeck(10))
	s := session(t, e, id)

	advanceTo(t, e, id, PhaseEnd)
	if _, err := e.AdvancePhase(id); err != nil {
		t.Fatal(err)
	}
	if s.Status != StatusDefeat {
		t.Fatalf("status = %s, want defeat", s.Status)
	}
	if s.DefeatReason != victory.DefeatTurnLimit {
		t.Errorf("reason = %s, want turn_limit", s.DefeatReason)
	}
}

func TestVictory_ReputationGoal(t *testing.T) {
	e, sink := testEngine(DefaultSettings())
	id := mustNewGame(t, e, testDeck(10))
	s := session(t, e, id)
	s.Phase = PhaseAction
	s.Stats.Reputation = 9
	s.Hand = []catalog.Card{{ID: "a", Name: "Parade", Type: catalog.TypeAction, EffectText: "Gain 1 reputation."}}

	if err := e.PlayCard(id, 0); err != nil {
		t.Fatal(err)
	}
	if s.Status != StatusVictory {
		t.Fatalf("status = %s, want victory", s.Status)
	}
	if len(sink.ofType(NoticeVictory)) != 1 {
		t.Error("victory notice missing")
	}
}

func TestDefeat_TakesPriorityOverVictory(t *testing.T) {
	e, sink := testEngine(DefaultSettings())
	id := mustNewGame(t, e, testDeck(10))
	s := session(t, e, id)
	s.Phase = PhaseAction
	s.Stats.Reputation = 10
	s.Resources = s.Resources.With(resources.Population, 0)
	s.Hand = []catalog.Card{{ID: "a", Name: "Noop", Type: catalog.TypeAction}}

	if err := e.PlayCard(id, 0); err != nil {
		t.Fatal(err)
	}
	if s.Status != StatusDefeat {
		t.Fatalf("status = %s, want defeat", s.Status)
	}
	if len(sink.ofType(NoticeVictory)) != 0 {
		t.Error("victory notice emitted alongside defeat")
	}
}

func TestCatastrophe_TriggeredOnTurnWrap(t *testing.T) {
	settings := DefaultSettings()
	settings.CatastropheChance = 1.0
	e, sink := testEngine(settings)
	id := mustNewGame(t, e, testDeck(20))
	s := session(t, e, id)
	s.Resources = resources.Resources{Coins: 50, Food: 50, Materials: 50, Population: 20}
	s.Stats.Reputation = 5

	advanceTo(t, e, id, PhaseEnd)
	if _, err := e.AdvancePhase(id); err != nil {
		t.Fatal(err)
	}

	if len(s.Catastrophes) != 1 {
		t.Fatalf("catastrophe instances = %d, want 1", len(s.Catastrophes))
	}
	if s.Catastrophes[0].Turn != 2 {
		t.Errorf("instance turn = %d, want 2", s.Catastrophes[0].Turn)
	}
	if !s.Catastrophes[0].Resolved {
		t.Error("instance not marked resolved")
	}
	if len(sink.ofType(NoticeCatastrophe)) != 1 {
		t.Error("catastrophe notice missing")
	}
}

func TestState_ReturnsDetachedCopy(t *testing.T) {
	e, _ := testEngine(DefaultSettings())
	id := mustNewGame(t, e, testDeck(10))

	view, err := e.State(id)
	if err != nil {
		t.Fatal(err)
	}
	view.Hand = view.Hand[:0]
	view.Resources = resources.Resources{}
	view.Victory.Conditions[0].Target = 1
	view.Victory.Evaluate(victory.Progress{Reputation: 1})

	s := session(t, e, id)
	if len(s.Hand) == 0 {
		t.Error("view mutation leaked into live hand")
	}
	if s.Resources.Coins != 5 {
		t.Error("view mutation leaked into live resources")
	}
	if s.Victory.Conditions[0].Target != 10 {
		t.Errorf("view mutation leaked into live victory target: %d", s.Victory.Conditions[0].Target)
	}
	if s.Victory.VictoryAchieved || s.Victory.Conditions[0].Completed {
		t.Error("view evaluation leaked into live victory state")
	}
}

func TestEngine_UnknownGame(t *testing.T) {
	e, _ := testEngine(DefaultSettings())
	if _, err := e.AdvancePhase("nope"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("err = %v, want ErrGameNotFound", err)
	}
	if _, err := e.State("nope"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("State err = %v, want ErrGameNotFound", err)
	}
}

func TestSetVictorySystem_Composite(t *testing.T) {
	e, _ := testEngine(DefaultSettings())
	id := mustNewGame(t, e, testDeck(10))
	s := session(t, e, id)

	conditions := []victory.Condition{
		{ID: "rep", Type: victory.Major, Category: victory.CategoryReputation, Target: 3},
		{ID: "marks", Type: victory.Major, Category: victory.CategoryLandmarks, Target: 1},
	}
	if err := e.SetVictorySystem(id, victory.NewComposite(conditions, 2, 0)); err != nil {
		t.Fatal(err)
	}

	s.Phase = PhaseAction
	s.Stats.Reputation = 5
	s.Hand = []catalog.Card{{ID: "a", Name: "Noop", Type: catalog.TypeAction}}
	if err := e.PlayCard(id, 0); err != nil {
		t.Fatal(err)
	}
	if s.Status != StatusActive {
		t.Fatalf("one of two majors met, status = %s, want active", s.Status)
	}

	s.Stats.Landmarks = 1
	s.Phase = PhaseAction
	s.Flags.ActionUsed = false
	s.Hand = []catalog.Card{{ID: "b", Name: "Noop", Type: catalog.TypeAction}}
	if err := e.PlayCard(id, 0); err != nil {
		t.Fatal(err)
	}
	if s.Status != StatusVictory {
		t.Fatalf("both majors met, status = %s, want victory", s.Status)
	}
}

func TestNewGame_CompositeVictoryMode(t *testing.T) {
	settings := DefaultSettings()
	settings.VictoryMode = victory.ModeComposite
	e, _ := testEngine(settings)
	id := mustNewGame(t, e, testDeck(10))
	s := session(t, e, id)

	if s.Victory.Mode != victory.ModeComposite {
		t.Fatalf("victory mode = %s, want composite", s.Victory.Mode)
	}
	if s.Victory.RequiredMajor != 1 || s.Victory.RequiredMinor != 1 {
		t.Errorf("required = %d major / %d minor, want 1 / 1",
			s.Victory.RequiredMajor, s.Victory.RequiredMinor)
	}
	majors, minors := 0, 0
	for _, c := range s.Victory.Conditions {
		if c.Type == victory.Major {
			majors++
		} else {
			minors++
		}
	}
	if majors < 2 || minors < 2 {
		t.Errorf("conditions = %d major / %d minor, want at least 2 of each", majors, minors)
	}
}

func TestDefeat_TurnLimitSkipsNewTurnEvents(t *testing.T) {
	settings := DefaultSettings()
	settings.CatastropheChance = 1.0
	settings.TurnLimit = 1
	e, sink := testEngine(settings)
	id := mustNewGame(t, e, testDeck(20))
	s := session(t, e, id)
	s.Hand = testDeck(3)
	deckBefore := len(s.Deck)

	advanceTo(t, e, id, PhaseEnd)
	if _, err := e.AdvancePhase(id); err != nil {
		t.Fatal(err)
	}

	if s.Status != StatusDefeat {
		t.Fatalf("status = %s, want defeat", s.Status)
	}
	if s.DefeatReason != victory.DefeatTurnLimit {
		t.Errorf("reason = %s, want turn_limit", s.DefeatReason)
	}
	// The defeated turn never starts: no catastrophe, no draw.
	if len(s.Catastrophes) != 0 {
		t.Errorf("catastrophe instances = %d, want 0", len(s.Catastrophes))
	}
	if len(s.Deck) != deckBefore {
		t.Errorf("deck size = %d, want %d (no draw after defeat)", len(s.Deck), deckBefore)
	}
	if got := sink.ofType(NoticeTurnStarted); len(got) != 1 {
		t.Errorf("turn started notices = %d, want 1", len(got))
	}
}

func TestPlayCard_InstantLossFlagsFoodShortage(t *testing.T) {
	settings := DefaultSettings()
	settings.CatastropheChance = 0
	e, sink := testEngine(settings)
	id := mustNewGame(t, e, testDeck(10))
	s := session(t, e, id)
	s.Phase = PhaseAction
	s.Resources = s.Resources.With(resources.Food, 1)
	s.Stats.Reputation = 2
	s.Hand = []catalog.Card{{ID: "a", Name: "Forced March", Type: catalog.TypeAction, EffectText: "Lose 3 food."}}

	if err := e.PlayCard(id, 0); err != nil {
		t.Fatal(err)
	}
	if s.Resources.Food != 0 {
		t.Errorf("food = %d, want 0 (clamped)", s.Resources.Food)
	}
	if !s.Flags.FoodShortage {
		t.Fatal("instant loss below zero did not flag the shortage")
	}

	advanceTo(t, e, id, PhaseEnd)
	if s.Resources.Population != 2 {
		t.Errorf("population = %d, want 2", s.Resources.Population)
	}
	if s.Stats.Reputation != 1 {
		t.Errorf("reputation = %d, want 1", s.Stats.Reputation)
	}
	if len(sink.ofType(NoticePenalty)) == 0 {
		t.Error("no penalty notice emitted")
	}
}

func TestEngine_ConcurrentAccess(t *testing.T) {
	settings := DefaultSettings()
	settings.CatastropheChance = 0
	e, _ := testEngine(settings)
	id := mustNewGame(t, e, testDeck(40))

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if _, err := e.State(id); err != nil {
					t.Errorf("State: %v", err)
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 60; i++ {
			view, err := e.State(id)
			if err != nil {
				t.Errorf("State: %v", err)
				return
			}
			// Rejections are expected when the view is stale; only the
			// final accounting matters.
			switch view.Phase {
			case PhaseBuild:
				if !view.Flags.DiceUsed {
					e.RollDice(id)
				}
				e.AdvancePhase(id)
			case PhaseEnd:
				if len(view.Hand) > settings.HandLimit {
					e.Discard(id, 0)
					continue
				}
				e.AdvancePhase(id)
			default:
				e.AdvancePhase(id)
			}
		}
	}()
	wg.Wait()

	s := session(t, e, id)
	if total := len(s.Hand) + len(s.Deck) + len(s.DiscardPile); total != 40 {
		t.Errorf("cards in circulation = %d, want 40", total)
	}
}
