// Package victory tracks named win conditions and terminal defeat
// triggers. Evaluation is pure: it recomputes completion from a progress
// snapshot and has no side effects beyond flagging.
package victory

// Mode selects how conditions combine into a win.
type Mode string

const (
	// ModeSimple wins as soon as any single condition completes.
	ModeSimple Mode = "simple"
	// ModeComposite wins when enough major and minor conditions complete.
	ModeComposite Mode = "composite"
)

// ConditionType weights a condition in composite mode.
type ConditionType string

const (
	Major ConditionType = "major"
	Minor ConditionType = "minor"
)

// Category names the game stat a condition measures.
type Category string

const (
	CategoryReputation Category = "reputation"
	CategoryLandmarks  Category = "landmarks"
	CategoryTurns      Category = "turns"
	CategoryResources  Category = "resources"
	CategoryDiversity  Category = "diversity"
	CategoryMagic      Category = "magic"
	CategoryEvents     Category = "events"
)

// Condition is one named victory requirement.
type Condition struct {
	ID        string        `json:"id"`
	Category  Category      `json:"category"`
	Target    int           `json:"target"`
	Type      ConditionType `json:"type"`
	Completed bool          `json:"completed"`
}

// Progress is the per-evaluation snapshot of everything conditions can
// measure.
type Progress struct {
	Reputation     int
	Landmarks      int
	Turn           int
	TotalResources int
	Diversity      int
	MagicPlayed    int
	EventsResolved int
}

func (p Progress) value(category Category) int {
	switch category {
	case CategoryReputation:
		return p.Reputation
	case CategoryLandmarks:
		return p.Landmarks
	case CategoryTurns:
		return p.Turn
	case CategoryResources:
		return p.TotalResources
	case CategoryDiversity:
		return p.Diversity
	case CategoryMagic:
		return p.MagicPlayed
	case CategoryEvents:
		return p.EventsResolved
	default:
		return 0
	}
}

// System is the victory state for one game session.
type System struct {
	Mode            Mode        `json:"mode"`
	Conditions      []Condition `json:"conditions"`
	RequiredMajor   int         `json:"requiredMajor,omitempty"`
	RequiredMinor   int         `json:"requiredMinor,omitempty"`
	VictoryAchieved bool        `json:"victoryAchieved"`
}

// NewSimple builds a single-condition simple system.
func NewSimple(id string, category Category, target int) *System {
	return &System{
		Mode:       ModeSimple,
		Conditions: []Condition{{ID: id, Category: category, Target: target, Type: Major}},
	}
}

// NewComposite builds a composite system requiring the given number of
// completed major and minor conditions.
func NewComposite(conditions []Condition, requiredMajor, requiredMinor int) *System {
	return &System{
		Mode:          ModeComposite,
		Conditions:    conditions,
		RequiredMajor: requiredMajor,
		RequiredMinor: requiredMinor,
	}
}

// Clone returns a deep copy of the system. Evaluate mutates conditions
// in place, so shared snapshots must hold their own copy.
func (s *System) Clone() *System {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Conditions = append([]Condition(nil), s.Conditions...)
	return &clone
}

// Evaluate recomputes every condition against the progress snapshot and
// returns whether victory is achieved. Once achieved the flag latches.
func (s *System) Evaluate(p Progress) bool {
	if s == nil || len(s.Conditions) == 0 {
		return false
	}
	for i := range s.Conditions {
		s.Conditions[i].Completed = p.value(s.Conditions[i].Category) >= s.Conditions[i].Target
	}

	switch s.Mode {
	case ModeComposite:
		majors, minors := 0, 0
		for _, c := range s.Conditions {
			if !c.Completed {
				continue
			}
			if c.Type == Major {
				majors++
			} else {
				minors++
			}
		}
		if majors >= s.RequiredMajor && minors >= s.RequiredMinor {
			s.VictoryAchieved = true
		}
	default:
		for _, c := range s.Conditions {
			if c.Completed {
				s.VictoryAchieved = true
				break
			}
		}
	}
	return s.VictoryAchieved
}

// DefeatReason names the trigger that ended the game in defeat.
type DefeatReason string

const (
	DefeatNone       DefeatReason = ""
	DefeatPopulation DefeatReason = "population"
	DefeatReputation DefeatReason = "reputation"
	DefeatTurnLimit  DefeatReason = "turn_limit"
)

// CheckDefeat evaluates the terminal defeat conditions, in a fixed
// order so a state violating several reports deterministically.
// A turnLimit of zero disables the turn-limit check.
func CheckDefeat(population, reputation, turn, turnLimit int) DefeatReason {
	if population <= 0 {
		return DefeatPopulation
	}
	if reputation <= -1 {
		return DefeatReputation
	}
	if turnLimit > 0 && turn > turnLimit {
		return DefeatTurnLimit
	}
	return DefeatNone
}
