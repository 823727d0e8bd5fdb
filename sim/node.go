// Defines the geographic node graph: a fixed set of NodeIds, each with an
// initial (age, risk) population, connected by a fractional travel matrix.

package sim

import "fmt"

// NodeId is an opaque node identifier (a county, in the original model).
type NodeId int

// Node holds static, load-time data for one geographic node: its name and
// its initial population broken down by (age, risk). The vaccinated stratum
// always starts empty, per spec.md §3.
type Node struct {
	Id   NodeId
	Name string

	// InitialPopulation[age][risk] is the starting unvaccinated headcount.
	InitialPopulation [NumAgeGroups][NumRiskGroups]int
}

// String returns a human-readable label for the node.
func (n Node) String() string {
	return fmt.Sprintf("Node(%d:%s)", n.Id, n.Name)
}

// Total returns the node's total initial population across all strata.
func (n Node) Total() int {
	total := 0
	for a := 0; a < NumAgeGroups; a++ {
		for r := 0; r < NumRiskGroups; r++ {
			total += n.InitialPopulation[a][r]
		}
	}
	return total
}

// TravelMatrix holds the bilateral travel fractions between every pair of
// nodes. Nodes form a complete directed graph (spec.md §3); a zero entry
// simply means no travel is modeled between that ordered pair.
type TravelMatrix struct {
	index map[NodeId]int
	frac  [][]float64 // frac[from][to] ∈ [0,1]
}

// NewTravelMatrix builds a TravelMatrix sized for the given node list. All
// fractions start at zero.
func NewTravelMatrix(nodeIds []NodeId) *TravelMatrix {
	n := len(nodeIds)
	index := make(map[NodeId]int, n)
	for i, id := range nodeIds {
		index[id] = i
	}
	frac := make([][]float64, n)
	for i := range frac {
		frac[i] = make([]float64, n)
	}
	return &TravelMatrix{index: index, frac: frac}
}

// Set records the fraction of `from`'s population that travels to `to` on a
// given day. Precondition: frac ∈ [0,1] and both ids were passed to
// NewTravelMatrix; out-of-range ids are silently ignored (load-time data is
// expected to be pre-validated by the dataset store).
func (t *TravelMatrix) Set(from, to NodeId, frac float64) {
	fi, ok1 := t.index[from]
	ti, ok2 := t.index[to]
	if !ok1 || !ok2 {
		return
	}
	t.frac[fi][ti] = frac
}

// Get returns the fraction of `from`'s population traveling to `to`.
// Returns 0 for unknown node ids. The diagonal (self-travel) entry is 0
// unless it was explicitly Set.
func (t *TravelMatrix) Get(from, to NodeId) float64 {
	fi, ok1 := t.index[from]
	ti, ok2 := t.index[to]
	if !ok1 || !ok2 {
		return 0
	}
	return t.frac[fi][ti]
}
