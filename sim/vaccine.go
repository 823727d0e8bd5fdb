// Daily vaccine distribution: a pro-rata move of each node's stockpile from
// the unvaccinated to the vaccinated stratum, across six compartments
// (everyone but deceased), applied first to priority groups then to any
// residual stockpile for everyone; with no priority groups configured, no
// vaccine is distributed. Unlike antivirals, a successful
// vaccination doesn't cancel a schedule -- it rewrites the schedule's live
// stratum in place, since the individual's disease course is unaffected by
// vaccination, only their reported stratum. Grounded line-for-line on
// StochasticSEATIRD::applyVaccinesToPriorityGroupSelections.

package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

// vaccineCompartments are the population variables eligible for
// vaccination -- every SEATIRD compartment except deceased.
var vaccineCompartments = []Variable{
	VarSusceptible, VarExposed, VarAsymptomatic, VarTreatable, VarInfectious, VarRecovered,
}

// scheduleStateForCompartment maps a vaccinatable compartment to the
// DiseaseState a live Schedule carries in that compartment. Susceptible
// individuals have no schedule (schedules begin at exposure), so it has no
// entry.
var scheduleStateForCompartment = map[Variable]DiseaseState{
	VarExposed:      StateE,
	VarAsymptomatic: StateA,
	VarTreatable:    StateT,
	VarInfectious:   StateI,
	VarRecovered:    StateR,
}

type vaxAllocation struct {
	compartment  Variable
	stratum      Stratum // vax=0 stratum
	vaccinated   float64
	vaccinatable float64
}

// applyVaccines runs the vaccination pass for every node at time t. A no-op
// when no priority groups are configured.
func (sim *Simulator) applyVaccines(t int) error {
	groups := PriorityGroupSelection(sim.params.VaccinePriorityGroups)
	if groups.Empty() {
		return nil
	}
	for i := range sim.nodes {
		used := 0.0
		if err := sim.applyVaccinesSelection(t, i, groups, &used); err != nil {
			return err
		}
		if err := sim.applyVaccinesSelection(t, i, AllSelection, &used); err != nil {
			return err
		}
	}
	return nil
}

func (sim *Simulator) applyVaccinesSelection(t, i int, sel PriorityGroupSelection, used *float64) error {
	if sel.Empty() {
		return nil
	}
	stockpile := sim.vaccineStockpile[i]
	if stockpile <= 0 {
		return nil
	}

	pairs := ageRiskPairs(sel)
	if len(pairs) == 0 {
		return nil
	}

	totalPopulation := 0.0
	totalVaccinated := 0.0
	for _, pr := range pairs {
		pop, err := sim.population.Get(VarPopulation, t, i, Stratum{Age: pr[0], Risk: pr[1], Vax: StratAll})
		if err != nil {
			return err
		}
		vac, err := sim.population.Get(VarPopulation, t, i, Stratum{Age: pr[0], Risk: pr[1], Vax: 1})
		if err != nil {
			return err
		}
		totalPopulation += pop
		totalVaccinated += vac
	}
	totalAdherentUnvaccinated := sim.params.VaccineAdherence*totalPopulation - totalVaccinated
	if totalAdherentUnvaccinated <= 0 {
		return nil
	}

	nodeTotal, err := sim.population.Get(VarPopulation, t, i, AllStratum)
	if err != nil {
		return err
	}
	remainingCapacity := sim.params.VaccineCapacity*nodeTotal - *used

	stockpileUsed := math.Min(stockpile, math.Floor(totalAdherentUnvaccinated))
	stockpileUsed = math.Min(stockpileUsed, math.Floor(remainingCapacity))
	if stockpileUsed <= 0 {
		return nil
	}

	sim.vaccineStockpile[i] -= stockpileUsed
	*used += stockpileUsed

	var allocations []vaxAllocation
	sumVaccinated := 0.0

	for _, pr := range pairs {
		from := Stratum{Age: pr[0], Risk: pr[1], Vax: 0}
		to := Stratum{Age: pr[0], Risk: pr[1], Vax: 1}

		// Per-(age,risk) correction term, matching
		// StochasticSEATIRD.cpp:797's adherentCompartmentUnvaccinated: the
		// pair's adherent-unvaccinated headcount is distributed across its
		// compartments in proportion to each compartment's unvaccinated
		// share, not by a single selection-wide ratio.
		pairPop, err := sim.population.Get(VarPopulation, t, i, Stratum{Age: pr[0], Risk: pr[1], Vax: StratAll})
		if err != nil {
			return err
		}
		pairVac, err := sim.population.Get(VarPopulation, t, i, Stratum{Age: pr[0], Risk: pr[1], Vax: 1})
		if err != nil {
			return err
		}
		pairUnvaccinated, err := sim.population.Get(VarPopulation, t, i, from)
		if err != nil {
			return err
		}
		adherentUnvaccinatedPair := sim.params.VaccineAdherence*pairPop - pairVac
		if adherentUnvaccinatedPair <= 0 || pairUnvaccinated <= 0 {
			continue
		}

		pairVaccinated := 0.0

		for _, c := range vaccineCompartments {
			eligible, err := sim.population.Get(c, t, i, from)
			if err != nil {
				return err
			}
			if eligible <= 0 {
				continue
			}
			adherentCompartmentUnvaccinated := adherentUnvaccinatedPair * eligible / pairUnvaccinated
			numberVaccinated := math.Floor(adherentCompartmentUnvaccinated / totalAdherentUnvaccinated * stockpileUsed)
			if numberVaccinated <= 0 {
				continue
			}
			actual, err := sim.population.MoveStratum(numberVaccinated, c, t, i, from, to)
			if err != nil {
				return err
			}
			pairVaccinated += actual
			allocations = append(allocations, vaxAllocation{compartment: c, stratum: from, vaccinated: actual, vaccinatable: eligible})
		}

		if pairVaccinated > 0 {
			if _, err := sim.population.Add(pairVaccinated, VarVaccinatedDaily, t, i, to); err != nil {
				return err
			}
			sumVaccinated += pairVaccinated
		}
	}

	if math.Abs(sumVaccinated-stockpileUsed) > 1e-6 {
		logrus.Warnf("vaccine: node %d allocated %v of %v stockpile units (rounding residual)",
			sim.nodes[i].Id, sumVaccinated, stockpileUsed)
	}

	sim.rewriteVaccinatedSchedules(i, allocations)
	return nil
}

// ageRiskPairs returns the distinct (age, risk) pairs named by a selection,
// ignoring its vax dimension -- vaccination always draws from vax=0 and
// moves to vax=1 regardless of what the selection's vax selector says.
func ageRiskPairs(sel PriorityGroupSelection) [][2]int {
	seen := make(map[[2]int]bool)
	var out [][2]int
	for _, s := range sel.Strata() {
		key := [2]int{s.Age, s.Risk}
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}

// rewriteVaccinatedSchedules performs the Bernoulli walk that converts
// aggregate per-(compartment,age,risk) vaccination counts into in-place
// stratum rewrites of individual schedules. A vaccinated schedule keeps its
// disease course; only its reported vax stratum changes, live, for every
// event still pending on it.
func (sim *Simulator) rewriteVaccinatedSchedules(i int, allocations []vaxAllocation) {
	if len(allocations) == 0 {
		return
	}
	type key struct {
		state   DiseaseState
		stratum Stratum
	}
	remaining := make(map[key]float64, len(allocations))
	vaccinatable := make(map[key]float64, len(allocations))
	for _, a := range allocations {
		state, ok := scheduleStateForCompartment[a.compartment]
		if !ok {
			continue // susceptible: no schedule exists to rewrite
		}
		k := key{state, a.stratum}
		remaining[k] = a.vaccinated
		vaccinatable[k] = a.vaccinatable
	}
	if len(remaining) == 0 {
		return
	}

	anyRemaining := func() bool {
		for _, v := range remaining {
			if v > 0 {
				return true
			}
		}
		return false
	}

	rng := sim.rng.ForSubsystem(SubsystemVaccination)
	for _, sched := range *sim.queues[i] {
		if !anyRemaining() {
			break
		}
		if sched.Stratum.Vax != 0 {
			continue
		}
		k := key{sched.State, sched.Stratum}
		eff, ok := remaining[k]
		if !ok || eff <= 0 {
			continue
		}
		tot := vaccinatable[k]
		if tot <= 0 {
			continue
		}
		if !sched.Canceled() && rng.Uniform() <= eff/tot {
			sched.Stratum.Vax = 1
			remaining[k]--
		}
		vaccinatable[k]--
	}

	for k, v := range remaining {
		if math.Abs(v) > 1e-6 {
			logrus.Warnf("vaccine: node %d state %s stratum %s left %v vaccinated schedules unrewritten",
				sim.nodes[i].Id, k.state, k.stratum, v)
		}
	}
}
