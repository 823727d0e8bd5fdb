// Daily antiviral distribution: a pro-rata allocation of each node's
// stockpile across its treatable population, applied first to user-defined
// priority groups and then to any residual stockpile across everyone. With
// no priority groups configured, no antivirals are distributed.
// Grounded line-for-line on
// StochasticSEATIRD::applyAntiviralsToPriorityGroupSelections.

package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

// applyAntivirals runs the antiviral pass for every node at time t: first
// against the configured priority groups, then against the residual
// stockpile for everyone else. A no-op when no priority groups are
// configured.
func (sim *Simulator) applyAntivirals(t int) error {
	groups := PriorityGroupSelection(sim.params.AntiviralPriorityGroups)
	if groups.Empty() {
		return nil
	}
	for i := range sim.nodes {
		used := 0.0
		if err := sim.applyAntiviralsSelection(t, i, groups, &used); err != nil {
			return err
		}
		if err := sim.applyAntiviralsSelection(t, i, AllSelection, &used); err != nil {
			return err
		}
	}
	return nil
}

type strataAllocation struct {
	stratum            Stratum
	treatable          float64
	effectivelyTreated float64
}

// applyAntiviralsSelection performs one pass (either the named priority
// groups or the ALL fallback) against node i's stockpile, tracking
// cumulative capacity usage in *used across both passes of the day.
func (sim *Simulator) applyAntiviralsSelection(t, i int, sel PriorityGroupSelection, used *float64) error {
	if sel.Empty() {
		return nil
	}
	stockpile := sim.antiviralStockpile[i]
	if stockpile <= 0 {
		return nil
	}

	strata := sel.Strata()

	totalTreatable := 0.0
	for _, s := range strata {
		v, err := sim.treatableLoad(t, i, s)
		if err != nil {
			return err
		}
		if v > 0 {
			totalTreatable += v
		}
	}
	if totalTreatable <= 0 {
		return nil
	}

	totalAdherentTreatable := sim.params.AntiviralAdherence * totalTreatable

	popTotal, err := sim.population.Get(VarPopulation, t, i, AllStratum)
	if err != nil {
		return err
	}
	remainingCapacity := sim.params.AntiviralCapacity*popTotal - *used

	stockpileUsed := math.Min(stockpile, math.Floor(totalAdherentTreatable))
	stockpileUsed = math.Min(stockpileUsed, math.Floor(remainingCapacity))
	if stockpileUsed <= 0 {
		return nil
	}

	sim.antiviralStockpile[i] -= stockpileUsed
	*used += stockpileUsed

	allocations := make([]strataAllocation, 0, len(strata))
	sumTreated := 0.0

	for _, s := range strata {
		treatable, err := sim.treatableLoad(t, i, s)
		if err != nil {
			return err
		}
		if treatable <= 0 {
			continue
		}
		adherentTreatable := sim.params.AntiviralAdherence * treatable
		numberTreated := math.Floor(adherentTreatable / totalAdherentTreatable * stockpileUsed)
		numberEffective := math.Floor(sim.params.AntiviralEffectiveness * numberTreated)
		allocations = append(allocations, strataAllocation{stratum: s, treatable: treatable, effectivelyTreated: numberEffective})
		if numberTreated <= 0 {
			continue
		}
		sumTreated += numberTreated

		if _, err := sim.population.Transition(numberEffective, VarTreatable, VarRecovered, t, i, s); err != nil {
			return err
		}
		if _, err := sim.population.Add(numberTreated, VarTreatedDaily, t, i, s); err != nil {
			return err
		}
		if _, err := sim.population.Add(numberTreated-numberEffective, VarTreatedIneffectiveDaily, t, i, s); err != nil {
			return err
		}
		if _, err := sim.population.Add(numberTreated, VarTreated, t, i, s); err != nil {
			return err
		}
	}

	if math.Abs(sumTreated-stockpileUsed) > 1e-6 {
		logrus.Warnf("antiviral: node %d allocated %v of %v stockpile units to named strata (rounding residual)",
			sim.nodes[i].Id, sumTreated, stockpileUsed)
	}

	sim.cancelTreatableSchedules(i, allocations)
	return nil
}

// treatableLoad is the node's treatable headcount eligible for antiviral
// allocation at stratum s: today's treatable population minus those already
// found ineffectively treated today (so two passes in one day don't
// double-count a stratum).
func (sim *Simulator) treatableLoad(t, i int, s Stratum) (float64, error) {
	treatable, err := sim.population.Get(VarTreatable, t, i, s)
	if err != nil {
		return 0, err
	}
	ineffective, err := sim.population.Get(VarTreatedIneffectiveDaily, t, i, s)
	if err != nil {
		return 0, err
	}
	return treatable - ineffective, nil
}

// cancelTreatableSchedules performs the Bernoulli walk that converts the
// aggregate "effectively treated" counts per stratum into cancellations of
// individual schedules -- original_source cannot address individual
// schedules directly from an aggregate count, so it walks the queue once
// and flips a coin per matching schedule with probability
// remaining/treatable, decrementing both denominators as it goes.
func (sim *Simulator) cancelTreatableSchedules(i int, allocations []strataAllocation) {
	if len(allocations) == 0 {
		return
	}
	remaining := make(map[Stratum]float64, len(allocations))
	treatableRemaining := make(map[Stratum]float64, len(allocations))
	for _, a := range allocations {
		remaining[a.stratum] = a.effectivelyTreated
		treatableRemaining[a.stratum] = a.treatable
	}

	anyRemaining := func() bool {
		for _, v := range remaining {
			if v > 0 {
				return true
			}
		}
		return false
	}

	rng := sim.rng.ForSubsystem(SubsystemTreatment)
	for _, sched := range *sim.queues[i] {
		if !anyRemaining() {
			break
		}
		if sched.State != StateT {
			continue
		}
		eff, ok := remaining[sched.Stratum]
		if !ok || eff <= 0 {
			continue
		}
		tot := treatableRemaining[sched.Stratum]
		if tot <= 0 {
			continue
		}
		if !sched.Canceled() && rng.Uniform() <= eff/tot {
			sched.Cancel()
			remaining[sched.Stratum]--
		}
		treatableRemaining[sched.Stratum]--
	}

	for s, v := range remaining {
		if math.Abs(v) > 1e-6 {
			logrus.Warnf("antiviral: node %d stratum %s left %v effectively-treated schedules uncanceled",
				sim.nodes[i].Id, s, v)
		}
	}
}
