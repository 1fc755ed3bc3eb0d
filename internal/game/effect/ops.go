package effect

import (
	"github.com/dmklda/farmandcity-sub002/internal/game/resources"
)

// OpKind categorizes a parsed card effect.
type OpKind string

const (
	// OpProduction is a repeatable per-turn effect. Amount may be negative
	// for upkeep costs.
	OpProduction OpKind = "PRODUCTION"
	// OpInstant is a one-shot effect applied at play or activation time.
	OpInstant OpKind = "INSTANT"
	// OpDiceConditioned is a production effect that only fires when the
	// turn's die roll equals DiceValue.
	OpDiceConditioned OpKind = "DICE_CONDITIONED"
	// OpConversion is a bidirectional resource trade.
	OpConversion OpKind = "CONVERSION"
)

// Conversion holds both branches of a bidirectional trade phrase
// ("convert X into Y or Z into W"). Both branches are applied as
// simultaneous net deltas, preserving the original game's behavior of
// collapsing the "or" into an "and".
type Conversion struct {
	FromResource    resources.ResourceType `json:"fromResource"`
	FromAmount      int                    `json:"fromAmount"`
	ToResource      resources.ResourceType `json:"toResource"`
	ToAmount        int                    `json:"toAmount"`
	AltFromResource resources.ResourceType `json:"altFromResource"`
	AltFromAmount   int                    `json:"altFromAmount"`
	AltToResource   resources.ResourceType `json:"altToResource"`
	AltToAmount     int                    `json:"altToAmount"`
}

// Delta returns the net resource change of applying both branches.
func (c Conversion) Delta() resources.Delta {
	d := resources.Delta{}
	d = d.Add(c.FromResource, -c.FromAmount)
	d = d.Add(c.ToResource, c.ToAmount)
	d = d.Add(c.AltFromResource, -c.AltFromAmount)
	d = d.Add(c.AltToResource, c.AltToAmount)
	return d
}

// Op is a single typed effect extracted from card text.
type Op struct {
	Kind       OpKind                 `json:"kind"`
	Resource   resources.ResourceType `json:"resource,omitempty"`
	Amount     int                    `json:"amount,omitempty"`
	DiceValue  int                    `json:"diceValue,omitempty"`
	Conversion *Conversion            `json:"conversion,omitempty"`
}

// Scale returns a copy of the op with every numeric amount multiplied by
// the given factor, rounding to the nearest integer. Used by stack
// leveling.
func (op Op) Scale(factor float64) Op {
	scaled := op
	scaled.Amount = roundScale(op.Amount, factor)
	if op.Conversion != nil {
		c := *op.Conversion
		c.FromAmount = roundScale(c.FromAmount, factor)
		c.ToAmount = roundScale(c.ToAmount, factor)
		c.AltFromAmount = roundScale(c.AltFromAmount, factor)
		c.AltToAmount = roundScale(c.AltToAmount, factor)
		scaled.Conversion = &c
	}
	return scaled
}

func roundScale(amount int, factor float64) int {
	scaled := float64(amount) * factor
	if scaled < 0 {
		return -int(-scaled + 0.5)
	}
	return int(scaled + 0.5)
}
