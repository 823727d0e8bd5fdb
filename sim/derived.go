// Derived population variables: quantities computed from the raw population
// store rather than stored directly. Grounded on
// StochasticSEATIRD::getDerivedVarInfected,
// getDerivedVarPopulationInVaccineLatencyPeriod,
// getDerivedVarPopulationEffectiveVaccines, and getDerivedVarILI.

package sim

import "fmt"

// DerivedVariable identifies one computed (as opposed to stored) quantity.
type DerivedVariable int

const (
	// DerivedInfected is the sum of asymptomatic, treatable, and infectious
	// -- everyone currently capable of transmitting.
	DerivedInfected DerivedVariable = iota
	// DerivedVaccinatedInLatency is the population still within the vaccine
	// latency window (vaccinated too recently to count as protected).
	DerivedVaccinatedInLatency
	// DerivedEffectivelyVaccinated is the vaccinated population minus those
	// still in their latency window.
	DerivedEffectivelyVaccinated
	// DerivedILI is a synthetic influenza-like-illness report count:
	// infectious headcount scaled by the configured reporting rate.
	DerivedILI
)

// vaccinatedInLatency sums "vaccinated (daily)" over the trailing latency
// window ending at t, restricted to (age, risk, vax=1). Matches
// StochasticSEATIRD::getDerivedVarPopulationInVaccineLatencyPeriod, which
// sums daily vaccination counts for every day still within the latency
// period as of t.
func (sim *Simulator) vaccinatedInLatency(t, nodeIdx, age, risk int) float64 {
	latency := sim.params.VaccineLatencyPeriod
	if latency <= 0 {
		return 0
	}
	s := Stratum{Age: age, Risk: risk, Vax: 1}
	total := 0.0
	for tau := t; tau > t-latency && tau >= 0; tau-- {
		v, err := sim.population.Get(VarVaccinatedDaily, tau, nodeIdx, s)
		if err != nil {
			continue
		}
		total += v
	}
	return total
}

// GetDerived evaluates a derived variable at (t, node, stratum).
func (sim *Simulator) GetDerived(d DerivedVariable, t int, node NodeId, s Stratum) (float64, error) {
	idx := sim.nodeIndex(node)
	if idx < 0 {
		return 0, fmt.Errorf("simulator: unknown node %d", node)
	}

	switch d {
	case DerivedInfected:
		asym, err := sim.population.Get(VarAsymptomatic, t, idx, s)
		if err != nil {
			return 0, err
		}
		treat, err := sim.population.Get(VarTreatable, t, idx, s)
		if err != nil {
			return 0, err
		}
		inf, err := sim.population.Get(VarInfectious, t, idx, s)
		if err != nil {
			return 0, err
		}
		return asym + treat + inf, nil

	case DerivedVaccinatedInLatency:
		if s.Vax == 0 {
			return 0, nil
		}
		return sim.sumOverAgeRisk(s, func(a, r int) float64 {
			return sim.vaccinatedInLatency(t, idx, a, r)
		}), nil

	case DerivedEffectivelyVaccinated:
		if s.Vax == 0 {
			// Unvaccinated callers asking for "effectively vaccinated" get 0,
			// matching original_source's explicit check for that case.
			return 0, nil
		}
		vaccinatedStratum := s
		vaccinatedStratum.Vax = 1
		vaccinated, err := sim.population.Get(VarPopulation, t, idx, vaccinatedStratum)
		if err != nil {
			return 0, err
		}
		latency := sim.sumOverAgeRisk(s, func(a, r int) float64 {
			return sim.vaccinatedInLatency(t, idx, a, r)
		})
		effective := vaccinated - latency
		if effective < 0 {
			effective = 0
		}
		return effective, nil

	case DerivedILI:
		inf, err := sim.population.Get(VarInfectious, t, idx, s)
		if err != nil {
			return 0, err
		}
		return inf * sim.params.ILIReportingRate, nil
	}

	return 0, fmt.Errorf("simulator: unknown derived variable %d", int(d))
}

func (sim *Simulator) sumOverAgeRisk(s Stratum, f func(age, risk int) float64) float64 {
	total := 0.0
	for _, a := range dimRange(s.Age, NumAgeGroups) {
		for _, r := range dimRange(s.Risk, NumRiskGroups) {
			total += f(a, r)
		}
	}
	return total
}
