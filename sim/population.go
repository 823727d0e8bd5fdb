// Dense 5-dimensional population counter keyed by (variable, time, node,
// age, risk, vax), stored as one flat array per time step with computed
// strides (spec §9 design note: "use a dense 5-D counter... store as a
// contiguous array with computed strides").

package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// PopulationStore holds V[var, t, node, age, risk, vax] for every time step
// simulated so far. Time grows by CopyForward; every other write targets the
// current frontier.
type PopulationStore struct {
	numNodes int
	data     [][]float64 // data[t] is a flat array of length sliceSize
}

func sliceSize(numNodes int) int {
	return int(numVariables) * numNodes * NumAgeGroups * NumRiskGroups * NumVaxGroups
}

// NewPopulationStore allocates a store for numNodes nodes with a single,
// zeroed time step (t=0).
func NewPopulationStore(numNodes int) *PopulationStore {
	p := &PopulationStore{numNodes: numNodes}
	p.data = append(p.data, make([]float64, sliceSize(numNodes)))
	return p
}

// NumTimes returns the number of time steps currently stored.
func (p *PopulationStore) NumTimes() int {
	return len(p.data)
}

func (p *PopulationStore) index(v Variable, node, age, risk, vax int) int {
	idx := int(v)
	idx = idx*p.numNodes + node
	idx = idx*NumAgeGroups + age
	idx = idx*NumRiskGroups + risk
	idx = idx*NumVaxGroups + vax
	return idx
}

func (p *PopulationStore) validate(v Variable, t, node int) error {
	if v < 0 || int(v) >= int(numVariables) {
		return fmt.Errorf("population: unknown variable %d", int(v))
	}
	if t < 0 || t >= len(p.data) {
		return fmt.Errorf("population: time %d out of range [0,%d)", t, len(p.data))
	}
	if node < 0 || node >= p.numNodes {
		return fmt.Errorf("population: node index %d out of range [0,%d)", node, p.numNodes)
	}
	return nil
}

// Get sums V[var, t, node, stratum] across any wildcard dimensions of s.
func (p *PopulationStore) Get(v Variable, t int, node int, s Stratum) (float64, error) {
	if err := p.validate(v, t, node); err != nil {
		return 0, err
	}
	ages := dimRange(s.Age, NumAgeGroups)
	risks := dimRange(s.Risk, NumRiskGroups)
	vaxes := dimRange(s.Vax, NumVaxGroups)

	slice := p.data[t]
	total := 0.0
	for _, a := range ages {
		for _, r := range risks {
			for _, vx := range vaxes {
				total += slice[p.index(v, node, a, r, vx)]
			}
		}
	}
	return total, nil
}

func dimRange(v, card int) []int {
	if v == StratAll {
		r := make([]int, card)
		for i := range r {
			r[i] = i
		}
		return r
	}
	return []int{v}
}

// Transition moves n units from fromVar to toVar at (t, node, stratum).
// Precondition: stratum must name a concrete (age, risk, vax) triple -- no
// wildcards -- since a transition targets one population bucket. If fromVar
// holds fewer than n units, the move clamps to what's available and logs a
// warning rather than aborting (spec §7: resource exhaustion clamps,
// small drift is expected from rounding). Returns the number actually moved.
func (p *PopulationStore) Transition(n float64, fromVar, toVar Variable, t int, node int, s Stratum) (float64, error) {
	if !s.Full() {
		return 0, fmt.Errorf("population: transition requires a concrete stratum, got %s", s)
	}
	if err := p.validate(fromVar, t, node); err != nil {
		return 0, err
	}
	if err := p.validate(toVar, t, node); err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("population: transition count must be non-negative, got %v", n)
	}

	slice := p.data[t]
	fromIdx := p.index(fromVar, node, s.Age, s.Risk, s.Vax)
	toIdx := p.index(toVar, node, s.Age, s.Risk, s.Vax)

	actual := n
	if slice[fromIdx] < actual {
		logrus.Warnf("population: transition %s->%s at t=%d node=%d %s clamped %v to available %v",
			fromVar, toVar, t, node, s, actual, slice[fromIdx])
		actual = slice[fromIdx]
	}
	slice[fromIdx] -= actual
	slice[toIdx] += actual
	return actual, nil
}

// MoveStratum moves n units of the same variable v from one stratum to
// another at (t, node) -- e.g. vaccination moving a compartment's headcount
// from (age, risk, vax=0) to (age, risk, vax=1). Unlike Transition, the
// "from" and "to" addresses may differ in any dimension, not just variable.
// Clamps to the available balance, per the same resource-exhaustion rule as
// Transition.
func (p *PopulationStore) MoveStratum(n float64, v Variable, t int, node int, from, to Stratum) (float64, error) {
	if !from.Full() || !to.Full() {
		return 0, fmt.Errorf("population: MoveStratum requires concrete strata, got %s -> %s", from, to)
	}
	if err := p.validate(v, t, node); err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("population: MoveStratum count must be non-negative, got %v", n)
	}

	slice := p.data[t]
	fromIdx := p.index(v, node, from.Age, from.Risk, from.Vax)
	toIdx := p.index(v, node, to.Age, to.Risk, to.Vax)

	actual := n
	if slice[fromIdx] < actual {
		logrus.Warnf("population: MoveStratum %s at t=%d node=%d %s->%s clamped %v to available %v",
			v, t, node, from, to, actual, slice[fromIdx])
		actual = slice[fromIdx]
	}
	slice[fromIdx] -= actual
	slice[toIdx] += actual
	return actual, nil
}

// Add increments v by n at (t, node, stratum) without drawing the amount
// from another variable. Used for accounting counters that aren't moved from
// a compartment -- "treated (daily)", "vaccinated (daily)" -- rather than
// disease-state transitions. n may be negative. Requires a concrete stratum.
func (p *PopulationStore) Add(n float64, v Variable, t int, node int, s Stratum) (float64, error) {
	if !s.Full() {
		return 0, fmt.Errorf("population: add requires a concrete stratum, got %s", s)
	}
	if err := p.validate(v, t, node); err != nil {
		return 0, err
	}
	idx := p.index(v, node, s.Age, s.Risk, s.Vax)
	p.data[t][idx] += n
	return p.data[t][idx], nil
}

// ResetDaily zeroes v across every stratum at (t, node). Used at the start of
// each simulated day to clear daily accounting counters after CopyForward
// (original_source resets "treated (daily)" and "vaccinated (daily)" this
// way before applying that day's interventions).
func (p *PopulationStore) ResetDaily(v Variable, t int, node int) error {
	if err := p.validate(v, t, node); err != nil {
		return err
	}
	for a := 0; a < NumAgeGroups; a++ {
		for r := 0; r < NumRiskGroups; r++ {
			for vx := 0; vx < NumVaxGroups; vx++ {
				p.data[t][p.index(v, node, a, r, vx)] = 0
			}
		}
	}
	return nil
}

// CopyForward appends a new time step t+1 (where t is the current last
// index) that is a full copy of t, and returns the new time index. Only the
// frontier t+1 is ever mutated afterward (spec §4.2 invariant).
func (p *PopulationStore) CopyForward(t int) (int, error) {
	if t != len(p.data)-1 {
		return 0, fmt.Errorf("population: CopyForward(%d) must target the current frontier (%d)", t, len(p.data)-1)
	}
	next := make([]float64, len(p.data[t]))
	copy(next, p.data[t])
	p.data = append(p.data, next)
	return t + 1, nil
}
