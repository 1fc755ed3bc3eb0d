package game

import (
	"encoding/json"
	"fmt"
)

// Phase represents the five ordered steps within a turn.
type Phase int

const (
	PhaseDraw Phase = iota
	PhaseAction
	PhaseBuild
	PhaseProduction
	PhaseEnd
)

var phaseNames = map[Phase]string{
	PhaseDraw:       "DRAW",
	PhaseAction:     "ACTION",
	PhaseBuild:      "BUILD",
	PhaseProduction: "PRODUCTION",
	PhaseEnd:        "END",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// phaseSequence is the fixed turn structure. Transitions are strictly
// forward; leaving PhaseEnd wraps to PhaseDraw of the next turn.
var phaseSequence = []Phase{PhaseDraw, PhaseAction, PhaseBuild, PhaseProduction, PhaseEnd}

// next returns the following phase and whether the turn wraps.
func (p Phase) next() (Phase, bool) {
	for i, phase := range phaseSequence {
		if phase == p {
			if i == len(phaseSequence)-1 {
				return phaseSequence[0], true
			}
			return phaseSequence[i+1], false
		}
	}
	return PhaseDraw, false
}

// MarshalJSON writes the phase by name.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON parses a phase name.
func (p *Phase) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParsePhase(name)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePhase converts a phase name back into a Phase, for snapshots.
func ParsePhase(name string) (Phase, error) {
	for p, n := range phaseNames {
		if n == name {
			return p, nil
		}
	}
	return PhaseDraw, fmt.Errorf("unknown phase %q", name)
}
