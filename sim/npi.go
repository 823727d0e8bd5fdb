// Non-pharmaceutical interventions: contact blockers active over a node, a
// day range, and an (age, age) pair, grounded on original_source's Npi class.

package sim

// Npi describes one non-pharmaceutical intervention: while active, it blocks
// (or partially blocks) contacts between the given source/target age groups
// at the given node.
type Npi struct {
	Node          NodeId
	StartDay      int
	EndDay        int // inclusive
	Effectiveness float64 // ∈ [0,1]; 1.0 == fully blocks matching contacts

	// AgePairMask reports whether this Npi applies to a given (fromAge, toAge)
	// pair. A nil mask applies to every age pair.
	AgePairMask func(fromAge, toAge int) bool
}

func (n Npi) active(node NodeId, day int, fromAge, toAge int) bool {
	if n.Node != node || day < n.StartDay || day > n.EndDay {
		return false
	}
	if n.AgePairMask != nil && !n.AgePairMask(fromAge, toAge) {
		return false
	}
	return true
}

// NpiBlocks reports whether any Npi in the list blocks a contact via a fresh
// Bernoulli draw against its effectiveness -- "blocks" means the contact event
// must be dropped. Matches original_source's Npi::isNpiEffective.
func NpiBlocks(npis []Npi, node NodeId, day int, fromAge, toAge int, rng RNG) bool {
	for _, n := range npis {
		if n.active(node, day, fromAge, toAge) {
			if rng.Uniform() <= n.Effectiveness {
				return true
			}
		}
	}
	return false
}

// NpiEffectiveness returns the combined blocking probability of all active
// NPIs for (node, day, fromAge, toAge) -- used by travel()'s expected-value
// formula (§4.8), which needs a deterministic effectiveness rather than a
// per-contact coin flip. Matches original_source's Npi::getNpiEffectiveness:
// independent blockers combine as 1 - Π(1 - effectiveness_i).
func NpiEffectiveness(npis []Npi, node NodeId, day int, fromAge, toAge int) float64 {
	survival := 1.0
	for _, n := range npis {
		if n.active(node, day, fromAge, toAge) {
			survival *= 1.0 - n.Effectiveness
		}
	}
	return 1.0 - survival
}
