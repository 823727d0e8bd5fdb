// Orchestrates one epidemic run: the geographic node graph, the population
// store, per-node schedule queues, and the daily step loop that ties
// interventions, event dispatch, and travel together. Grounded on the
// teacher's Simulator (construction, Run/Step split over an event queue) and
// original_source's StochasticSEATIRD::simulate()/processEvent().

package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Simulator holds everything needed to advance an epidemic run one day at a
// time: static node/travel data, the population store, live schedules, and
// the per-subsystem RNG.
type Simulator struct {
	params Parameters

	nodes   []Node
	nodeIdx map[NodeId]int
	travel  *TravelMatrix

	population *PopulationStore
	queues     []*ScheduleQueue

	rng  *PartitionedRNG
	time int

	antiviralStockpile []float64
	vaccineStockpile   []float64

	precomputedAt int
	popTotal      []float64
	popFraction   [][NumAgeGroups][NumRiskGroups]float64
}

// NewSimulator builds a simulator over the given nodes and travel matrix,
// seeding each node's initial (unvaccinated) population into the
// susceptible compartment.
func NewSimulator(nodes []Node, travel *TravelMatrix, params Parameters, seed int64, antiviralStockpile, vaccineStockpile []float64) (*Simulator, error) {
	if len(antiviralStockpile) != len(nodes) || len(vaccineStockpile) != len(nodes) {
		return nil, fmt.Errorf("simulator: stockpile slices must have one entry per node")
	}

	sim := &Simulator{
		params:             params,
		nodes:              nodes,
		nodeIdx:            make(map[NodeId]int, len(nodes)),
		travel:             travel,
		population:         NewPopulationStore(len(nodes)),
		queues:             make([]*ScheduleQueue, len(nodes)),
		rng:                NewPartitionedRNG(NewSimulationKey(seed)),
		antiviralStockpile: append([]float64(nil), antiviralStockpile...),
		vaccineStockpile:   append([]float64(nil), vaccineStockpile...),
		precomputedAt:      -1,
		popTotal:           make([]float64, len(nodes)),
		popFraction:        make([][NumAgeGroups][NumRiskGroups]float64, len(nodes)),
	}

	for i, n := range nodes {
		sim.nodeIdx[n.Id] = i
		sim.queues[i] = NewScheduleQueue()
		for a := 0; a < NumAgeGroups; a++ {
			for r := 0; r < NumRiskGroups; r++ {
				count := float64(n.InitialPopulation[a][r])
				s := Stratum{Age: a, Risk: r, Vax: 0}
				if _, err := sim.population.Add(count, VarPopulation, 0, i, s); err != nil {
					return nil, err
				}
				if _, err := sim.population.Add(count, VarSusceptible, 0, i, s); err != nil {
					return nil, err
				}
			}
		}
	}

	sim.precompute(0)
	return sim, nil
}

func (sim *Simulator) nodeIndex(node NodeId) int {
	idx, ok := sim.nodeIdx[node]
	if !ok {
		return -1
	}
	return idx
}

// NodeIds returns every node id in the simulator, in construction order.
func (sim *Simulator) NodeIds() []NodeId {
	ids := make([]NodeId, len(sim.nodes))
	for i, n := range sim.nodes {
		ids[i] = n.Id
	}
	return ids
}

// Time returns the current simulated day.
func (sim *Simulator) Time() int { return sim.time }

// NumTimes returns the number of time steps recorded in the population
// store so far (including t=0).
func (sim *Simulator) NumTimes() int { return sim.population.NumTimes() }

// GetValue returns a population variable's value at (t, node, stratum).
func (sim *Simulator) GetValue(v Variable, t int, node NodeId, s Stratum) (float64, error) {
	idx := sim.nodeIndex(node)
	if idx < 0 {
		return 0, fmt.Errorf("simulator: unknown node %d", node)
	}
	return sim.population.Get(v, t, idx, s)
}

// precompute rebuilds the per-node population-total and (age,risk) fraction
// caches used by contact-rate formulas, mirroring
// StochasticSEATIRD::precompute. A no-op if already current.
func (sim *Simulator) precompute(t int) {
	if sim.precomputedAt == t {
		return
	}
	for i := range sim.nodes {
		total, err := sim.population.Get(VarPopulation, t, i, AllStratum)
		if err != nil {
			continue
		}
		sim.popTotal[i] = total
		for a := 0; a < NumAgeGroups; a++ {
			for r := 0; r < NumRiskGroups; r++ {
				count, _ := sim.population.Get(VarPopulation, t, i, Stratum{Age: a, Risk: r, Vax: StratAll})
				if total > 0 {
					sim.popFraction[i][a][r] = count / total
				} else {
					sim.popFraction[i][a][r] = 0
				}
			}
		}
	}
	sim.precomputedAt = t
}

// Expose moves n individuals from susceptible to exposed at (node, stratum,
// frontier time), creating and enqueueing one freshly materialized Schedule
// per individual actually moved. now is the continuous simulated time the
// exposures occur at (the triggering contact/travel event's time), used as
// the origin of each new schedule's transition chain. Returns the number
// actually exposed.
func (sim *Simulator) Expose(n int, node NodeId, s Stratum, now float64) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	if !s.Full() {
		return 0, fmt.Errorf("simulator: Expose requires a concrete stratum, got %s", s)
	}
	idx := sim.nodeIndex(node)
	if idx < 0 {
		return 0, fmt.Errorf("simulator: unknown node %d", node)
	}

	t := sim.population.NumTimes() - 1
	if sim.precomputedAt != t {
		sim.precompute(t)
	}

	actualF, err := sim.population.Transition(float64(n), VarSusceptible, VarExposed, t, idx, s)
	if err != nil {
		return 0, err
	}
	actual := int(actualF)

	rng := sim.rng.ForSubsystem(SubsystemTransitions)
	for i := 0; i < actual; i++ {
		sched := NewSchedule(now, s, sim.params, sim.popFraction[idx], rng)
		sim.queues[idx].Insert(sched)
	}
	return actual, nil
}

// InitialCases exposes an initial cohort of cases at simulation start,
// before any days have been simulated (spec.md §6).
func (sim *Simulator) InitialCases(node NodeId, s Stratum, n int) (int, error) {
	return sim.Expose(n, node, s, float64(sim.time))
}

// Simulate advances the simulation by `days` full daily cycles.
func (sim *Simulator) Simulate(days int) error {
	for d := 0; d < days; d++ {
		if err := sim.step(); err != nil {
			return fmt.Errorf("simulate: day %d: %w", sim.time, err)
		}
	}
	return nil
}

// step runs one full day: copy-forward, reset daily counters, apply
// interventions, drain this day's pending events, travel, then advance time.
// Matches original_source's simulate() body.
func (sim *Simulator) step() error {
	t := sim.time
	next, err := sim.population.CopyForward(t)
	if err != nil {
		return err
	}

	for i := range sim.nodes {
		_ = sim.population.ResetDaily(VarTreatedDaily, next, i)
		_ = sim.population.ResetDaily(VarTreatedIneffectiveDaily, next, i)
		_ = sim.population.ResetDaily(VarVaccinatedDaily, next, i)
	}

	if err := sim.applyAntivirals(next); err != nil {
		return err
	}
	if err := sim.applyVaccines(next); err != nil {
		return err
	}

	sim.precompute(next)

	for i, node := range sim.nodes {
		sim.drainNode(i, node.Id, next)
	}

	if err := sim.travelStep(next); err != nil {
		return err
	}

	logrus.Debugf("simulate: completed day %d", sim.time)
	sim.time++
	return nil
}

// drainNode processes every pending event at node whose time falls before
// `next` (the day boundary being crossed), in time order, reinserting
// schedules that still have pending events.
func (sim *Simulator) drainNode(nodeIdx int, nodeId NodeId, next int) {
	q := sim.queues[nodeIdx]
	boundary := float64(next)
	for {
		top, ok := q.PeekTop()
		if !ok {
			break
		}
		nextTime, ok2 := top.PeekNextTime()
		if !ok2 || nextTime >= boundary {
			break
		}
		sched, _ := q.PopTop()
		e, ok3 := q.Requeue(sched)
		if !ok3 {
			continue
		}
		if sched.Canceled() {
			continue
		}
		e.Execute(sim, nodeId, sched)
	}
}

// dispatchContact resolves one CONTACT event: NPI blocking, the contactor's
// vaccination status, vaccine effectiveness, and finally a susceptibility
// draw against the target stratum. Grounded on
// StochasticSEATIRD::processEvent's CONTACT case.
func (sim *Simulator) dispatchContact(node NodeId, sched *Schedule, e Event) {
	idx := sim.nodeIndex(node)
	if idx < 0 {
		return
	}
	t := sim.population.NumTimes() - 1
	rng := sim.rng.ForSubsystem(SubsystemContact)

	if NpiBlocks(sim.params.NPIs, node, sim.time, sched.Stratum.Age, e.ToAge, rng) {
		return
	}

	ageRiskPop, err := sim.population.Get(VarPopulation, t, idx, Stratum{Age: e.ToAge, Risk: e.ToRisk, Vax: StratAll})
	if err != nil || ageRiskPop <= 0 {
		return
	}
	vaccinated, _ := sim.population.Get(VarPopulation, t, idx, Stratum{Age: e.ToAge, Risk: e.ToRisk, Vax: 1})

	contactor := rng.UniformInt(int(ageRiskPop))
	v := 0
	if float64(contactor) <= vaccinated {
		v = 1
	}

	if v == 1 {
		latency := sim.vaccinatedInLatency(t, idx, e.ToAge, e.ToRisk)
		if float64(contactor) > latency {
			if rng.Uniform() <= sim.params.VaccineEffectiveness {
				return
			}
		}
	}

	target := Stratum{Age: e.ToAge, Risk: e.ToRisk, Vax: v}
	targetPop, err := sim.population.Get(VarPopulation, t, idx, target)
	if err != nil {
		return
	}
	if target == sched.Stratum {
		targetPop--
	}
	if targetPop <= 0 {
		return
	}

	susceptible, _ := sim.population.Get(VarSusceptible, t, idx, target)
	contact := rng.UniformInt(int(targetPop))
	if float64(contact) > susceptible {
		return
	}

	if _, err := sim.Expose(1, node, target, e.Time); err != nil {
		logrus.Warnf("dispatchContact: node %d %s: %v", node, target, err)
	}
}
