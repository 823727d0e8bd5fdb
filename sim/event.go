// Event types fired off a Schedule's internal heap, and their dispatch logic
// (disease-state transitions and contact resolution). Grounded on the
// teacher's Event interface (Timestamp()/Execute()) and original_source's
// processEvent() switch over StochasticSEATIRDEvent::Type.

package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// EventType identifies one kind of schedule event.
type EventType int

const (
	EventEtoA EventType = iota
	EventAtoT
	EventAtoR
	EventAtoD
	EventTtoI
	EventTtoR
	EventTtoD
	EventItoR
	EventItoD
	EventContact

	numEventTypes
)

var eventTypeNames = [numEventTypes]string{
	EventEtoA:    "EtoA",
	EventAtoT:    "AtoT",
	EventAtoR:    "AtoR",
	EventAtoD:    "AtoD",
	EventTtoI:    "TtoI",
	EventTtoR:    "TtoR",
	EventTtoD:    "TtoD",
	EventItoR:    "ItoR",
	EventItoD:    "ItoD",
	EventContact: "CONTACT",
}

func (e EventType) String() string {
	if e < 0 || int(e) >= len(eventTypeNames) {
		return fmt.Sprintf("EventType(%d)", int(e))
	}
	return eventTypeNames[e]
}

// transition describes the population-store move and destination disease
// state a disease-transition event type causes. CONTACT has no entry; it is
// handled separately since it may or may not produce a new exposure.
type transition struct {
	from, to Variable
	dest     DiseaseState
}

var transitionTable = map[EventType]transition{
	EventEtoA: {VarExposed, VarAsymptomatic, StateA},
	EventAtoT: {VarAsymptomatic, VarTreatable, StateT},
	EventAtoR: {VarAsymptomatic, VarRecovered, StateR},
	EventAtoD: {VarAsymptomatic, VarDeceased, StateD},
	EventTtoI: {VarTreatable, VarInfectious, StateI},
	EventTtoR: {VarTreatable, VarRecovered, StateR},
	EventTtoD: {VarTreatable, VarDeceased, StateD},
	EventItoR: {VarInfectious, VarRecovered, StateR},
	EventItoD: {VarInfectious, VarDeceased, StateD},
}

// Event is one entry in a Schedule's pending-event heap: {type, scheduled
// time, contact window start, target age/risk} per spec.md §3. The "from"
// stratum is not carried on the event -- it is read from the owning
// Schedule's current stratum at dispatch time, since vaccination may have
// rewritten it between construction and firing (original_source rewrites a
// schedule's live stratification in place rather than per-event snapshots).
type Event struct {
	Type               EventType
	Time               float64
	ContactWindowStart float64 // only meaningful for EventContact
	ToAge              int     // only meaningful for EventContact
	ToRisk             int     // only meaningful for EventContact
}

// Execute applies this event's effect: a disease-state transition updates
// the population store and the schedule's state, while a CONTACT event may
// resolve into a new exposure via the simulator's dispatch rules (§4.5
// process_event).
func (e Event) Execute(sim *Simulator, node NodeId, sched *Schedule) {
	if e.Type == EventContact {
		sim.dispatchContact(node, sched, e)
		return
	}

	tr, ok := transitionTable[e.Type]
	if !ok {
		logrus.Warnf("event: unknown transition type %s, skipping", e.Type)
		return
	}

	nodeIdx := sim.nodeIndex(node)
	t := sim.population.NumTimes() - 1
	if _, err := sim.population.Transition(1, tr.from, tr.to, t, nodeIdx, sched.Stratum); err != nil {
		logrus.Warnf("event %s at node %s: %v", e.Type, node, err)
	}
	sched.State = tr.dest
}
