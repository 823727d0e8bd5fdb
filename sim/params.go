// Process-wide, read-mostly epidemiological parameters and the priority-group
// selectors that intervention passes consult. Grounded on original_source's
// Parameters class (rates, effectiveness, adherence, capacity) and its
// PriorityGroup/PriorityGroupSelections pair (per-dimension stratum selectors
// consulted by the antiviral/vaccine passes).

package sim

// Parameters holds the numeric and policy values that drive disease
// dynamics and interventions for one simulation run. Unlike the source's
// process-wide mutable singleton, this is an immutable value passed into
// the simulator at construction (spec §9: "re-express as an immutable
// Parameters value... interventions consult this value, not a global").
type Parameters struct {
	R0        float64
	BetaScale float64

	Tau   float64 // exposed -> asymptomatic rate
	Kappa float64 // asymptomatic -> treatable rate
	Chi   float64 // treatable -> infectious rate
	Gamma float64 // *->recovered rate
	Nu    float64 // *->deceased rate

	AntiviralEffectiveness float64
	AntiviralAdherence     float64
	AntiviralCapacity      float64 // fraction of node population per day

	VaccineEffectiveness float64
	VaccineAdherence     float64
	VaccineCapacity      float64 // fraction of node population per day
	VaccineLatencyPeriod int     // days before a vaccinated individual is counted effective

	NPIs []Npi

	AntiviralPriorityGroups []PriorityGroup
	VaccinePriorityGroups   []PriorityGroup

	// ILIReportingRate scales infectious headcount into a synthetic
	// influenza-like-illness report count (derived variable only).
	ILIReportingRate float64
}

// Beta is the per-contact transmission rate, R0 scaled down to a
// per-contact probability.
func (p Parameters) Beta() float64 {
	if p.BetaScale == 0 {
		return 0
	}
	return p.R0 / p.BetaScale
}

// PriorityGroup names a set of strata eligible for an intervention ahead of
// the remaining population. Each dimension's selector list is the set of
// values that dimension may take; an empty list means "every value"
// (spec.md's wildcard ALL for that dimension).
type PriorityGroup struct {
	Name  string
	Ages  []int
	Risks []int
	Vaxes []int
}

func selectorOrAll(sel []int, card int) []int {
	if len(sel) == 0 {
		out := make([]int, card)
		for i := range out {
			out[i] = i
		}
		return out
	}
	return sel
}

// Strata expands the group's per-dimension selectors into the concrete
// (age, risk, vax) triples it covers.
func (g PriorityGroup) Strata() []Stratum {
	ages := selectorOrAll(g.Ages, NumAgeGroups)
	risks := selectorOrAll(g.Risks, NumRiskGroups)
	vaxes := selectorOrAll(g.Vaxes, NumVaxGroups)

	strata := make([]Stratum, 0, len(ages)*len(risks)*len(vaxes))
	for _, a := range ages {
		for _, r := range risks {
			for _, v := range vaxes {
				strata = append(strata, Stratum{Age: a, Risk: r, Vax: v})
			}
		}
	}
	return strata
}

// PriorityGroupSelection is an ordered list of priority groups consulted in
// order by an intervention pass; the union of their strata (deduplicated) is
// the effective selection for that pass.
type PriorityGroupSelection []PriorityGroup

// AllSelection is the fallback selection applied to any residual stockpile
// after named priority groups have been served (spec.md §4.5 step 2: "apply
// antivirals to user-defined priority group selections, then again to an
// 'all' selection for any residual stockpile").
var AllSelection = PriorityGroupSelection{{Name: "_ALL_"}}

// Strata returns the deduplicated union of every member group's strata.
func (sel PriorityGroupSelection) Strata() []Stratum {
	seen := make(map[Stratum]bool)
	var out []Stratum
	for _, g := range sel {
		for _, s := range g.Strata() {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// Empty reports whether the selection names no priority groups at all
// (spec §7: "stockpile empty / no priority groups: silently no-op").
func (sel PriorityGroupSelection) Empty() bool {
	return len(sel) == 0
}
