package resources

// ResourceType identifies one of the tracked resource kinds.
type ResourceType string

const (
	Coins      ResourceType = "COINS"
	Food       ResourceType = "FOOD"
	Materials  ResourceType = "MATERIALS"
	Population ResourceType = "POPULATION"
	Reputation ResourceType = "REPUTATION"
)

// Spendable lists the resources that are held in the pool and clamped at
// zero. Reputation is tracked separately on player stats because it may go
// negative and is never a cost.
var Spendable = []ResourceType{Coins, Food, Materials, Population}

// ReputationSoftCap is the ceiling applied to reputation bonus gains.
const ReputationSoftCap = 10

// Resources is a fixed vector of the four spendable resource quantities.
// It is a value type; all operations return a new vector.
type Resources struct {
	Coins      int `json:"coins"`
	Food       int `json:"food"`
	Materials  int `json:"materials"`
	Population int `json:"population"`
}

// Get returns the amount of the given resource type.
func (r Resources) Get(resourceType ResourceType) int {
	switch resourceType {
	case Coins:
		return r.Coins
	case Food:
		return r.Food
	case Materials:
		return r.Materials
	case Population:
		return r.Population
	default:
		return 0
	}
}

// With returns a copy of the vector with the given resource set to amount.
func (r Resources) With(resourceType ResourceType, amount int) Resources {
	switch resourceType {
	case Coins:
		r.Coins = amount
	case Food:
		r.Food = amount
	case Materials:
		r.Materials = amount
	case Population:
		r.Population = amount
	}
	return r
}

// CanAfford reports whether every component of cost is covered.
func (r Resources) CanAfford(cost Resources) bool {
	return r.Coins >= cost.Coins &&
		r.Food >= cost.Food &&
		r.Materials >= cost.Materials &&
		r.Population >= cost.Population
}

// Subtract deducts cost from the vector. Callers must check CanAfford
// first; the result is clamped at zero either way.
func (r Resources) Subtract(cost Resources) Resources {
	return r.Apply(Delta{
		Coins:      -cost.Coins,
		Food:       -cost.Food,
		Materials:  -cost.Materials,
		Population: -cost.Population,
	})
}

// Delta is a signed change to the resource vector. Negative components
// model upkeep costs and penalties.
type Delta struct {
	Coins      int `json:"coins"`
	Food       int `json:"food"`
	Materials  int `json:"materials"`
	Population int `json:"population"`
}

// Get returns the delta component for the given resource type.
func (d Delta) Get(resourceType ResourceType) int {
	switch resourceType {
	case Coins:
		return d.Coins
	case Food:
		return d.Food
	case Materials:
		return d.Materials
	case Population:
		return d.Population
	default:
		return 0
	}
}

// Add returns the delta with amount added to the given resource component.
func (d Delta) Add(resourceType ResourceType, amount int) Delta {
	switch resourceType {
	case Coins:
		d.Coins += amount
	case Food:
		d.Food += amount
	case Materials:
		d.Materials += amount
	case Population:
		d.Population += amount
	}
	return d
}

// Merge returns the component-wise sum of two deltas.
func (d Delta) Merge(other Delta) Delta {
	return Delta{
		Coins:      d.Coins + other.Coins,
		Food:       d.Food + other.Food,
		Materials:  d.Materials + other.Materials,
		Population: d.Population + other.Population,
	}
}

// IsZero reports whether every component is zero.
func (d Delta) IsZero() bool {
	return d == Delta{}
}

// Apply adds the delta component-wise and clamps every component at zero.
func (r Resources) Apply(delta Delta) Resources {
	return Resources{
		Coins:      clampFloor(r.Coins + delta.Coins),
		Food:       clampFloor(r.Food + delta.Food),
		Materials:  clampFloor(r.Materials + delta.Materials),
		Population: clampFloor(r.Population + delta.Population),
	}
}

func clampFloor(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// ClampReputation applies the soft cap to a reputation gain. Losses pass
// through unmodified; reputation may go negative (that is a defeat
// trigger, checked by the engine).
func ClampReputation(current, gain int) int {
	next := current + gain
	if gain > 0 && next > ReputationSoftCap {
		return ReputationSoftCap
	}
	return next
}
