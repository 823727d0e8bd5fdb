// Per-individual schedule: the materialized future of one exposed
// individual, built eagerly at exposure time via a competing-exponential
// chain plus a train of contact events. Grounded on original_source's
// StochasticSEATIRDSchedule constructor and
// StochasticSEATIRD::initializeContactEvents, restructured around a plain
// container/heap (mirroring the teacher's own EventQueue pattern) instead of
// a boost::heap.

package sim

import (
	"container/heap"
	"fmt"
)

// DiseaseState is a schedule's current abstract disease state.
type DiseaseState int

const (
	StateE DiseaseState = iota
	StateA
	StateT
	StateI
	StateR
	StateD
)

var diseaseStateNames = [...]string{"E", "A", "T", "I", "R", "D"}

func (s DiseaseState) String() string {
	if s < 0 || int(s) >= len(diseaseStateNames) {
		return fmt.Sprintf("DiseaseState(%d)", int(s))
	}
	return diseaseStateNames[s]
}

// contactMatrix and susceptibility are reproduced verbatim from
// original_source; spec.md leaves them as "a supplied constant" and the
// original is authoritative for the concrete values.
var contactMatrix = [NumAgeGroups][NumAgeGroups]float64{
	{45.1228487783, 8.7808312353, 11.7757947836, 6.10114751268, 4.02227175596},
	{8.7808312353, 41.2889143668, 13.3332813497, 7.847051289, 4.22656343551},
	{11.7757947836, 13.3332813497, 21.4270155984, 13.7392636644, 6.92483172729},
	{6.10114751268, 7.847051289, 13.7392636644, 18.0482119252, 9.45371062356},
	{4.02227175596, 4.22656343551, 6.92483172729, 9.45371062356, 14.0529294262},
}

var susceptibility = [NumAgeGroups]float64{1.00, 0.98, 0.94, 0.91, 0.66}

// eventHeap is a container/heap of pending Events ordered by Time.
type eventHeap []Event

func (h eventHeap) Len() int           { return len(h) }
func (h eventHeap) Less(i, j int) bool { return h[i].Time < h[j].Time }
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)        { *h = append(*h, x.(Event)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Schedule holds one exposed individual's current state, current stratum,
// pending events, and cancellation flag. Dies when its event heap empties,
// when canceled by antiviral treatment, or when the simulation ends.
type Schedule struct {
	State   DiseaseState
	Stratum Stratum

	events   eventHeap
	canceled bool

	infectedTMin float64
	infectedTMax float64

	// queueIndex is maintained by the owning node's ScheduleQueue
	// (container/heap index), not by Schedule itself.
	queueIndex int
}

// NewSchedule builds the full competing-exponential transition chain plus
// contact event train for an individual exposed at `now` in `stratum`,
// eagerly, per spec.md §4.3. popFraction[a][r] is the precomputed fraction
// of the node's total population in (age a, risk r) across both vax strata.
func NewSchedule(now float64, stratum Stratum, params Parameters, popFraction [NumAgeGroups][NumRiskGroups]float64, rng RNG) *Schedule {
	sched := &Schedule{State: StateE, Stratum: stratum}

	tEA := now + rng.Exponential(params.Tau)
	sched.push(Event{Type: EventEtoA, Time: tEA})

	terminal := sched.buildFromAsymptomatic(tEA, params, rng)

	sched.infectedTMin = tEA
	sched.infectedTMax = terminal

	sched.buildContactTrain(stratum.Age, params, popFraction, rng)

	sched.heapify()
	return sched
}

// buildFromAsymptomatic draws the competing A->{T,R,D} transition, and if
// A->T wins, recurses into the T and I stages. Returns the terminal
// (recovered or deceased) event time.
func (s *Schedule) buildFromAsymptomatic(at float64, params Parameters, rng RNG) float64 {
	dtT := rng.Exponential(params.Kappa)
	dtR := rng.Exponential(params.Gamma / 3)
	dtD := rng.Exponential(params.Nu / 3)

	switch {
	case dtT <= dtR && dtT <= dtD:
		t := at + dtT
		s.push(Event{Type: EventAtoT, Time: t})
		return s.buildFromTreatable(t, params, rng)
	case dtR <= dtD:
		t := at + dtR
		s.push(Event{Type: EventAtoR, Time: t})
		return t
	default:
		t := at + dtD
		s.push(Event{Type: EventAtoD, Time: t})
		return t
	}
}

func (s *Schedule) buildFromTreatable(at float64, params Parameters, rng RNG) float64 {
	dtI := rng.Exponential(params.Chi)
	dtR := rng.Exponential(params.Gamma / 3)
	dtD := rng.Exponential(params.Nu / 3)

	switch {
	case dtI <= dtR && dtI <= dtD:
		t := at + dtI
		s.push(Event{Type: EventTtoI, Time: t})
		return s.buildFromInfectious(t, params, rng)
	case dtR <= dtD:
		t := at + dtR
		s.push(Event{Type: EventTtoR, Time: t})
		return t
	default:
		t := at + dtD
		s.push(Event{Type: EventTtoD, Time: t})
		return t
	}
}

func (s *Schedule) buildFromInfectious(at float64, params Parameters, rng RNG) float64 {
	dtR := rng.Exponential(params.Gamma / 3)
	dtD := rng.Exponential(params.Nu / 3)

	if dtR <= dtD {
		t := at + dtR
		s.push(Event{Type: EventItoR, Time: t})
		return t
	}
	t := at + dtD
	s.push(Event{Type: EventItoD, Time: t})
	return t
}

// buildContactTrain emits CONTACT events from infectedTMin to infectedTMax,
// one target (age, risk) pair at a time, with exponentially-distributed
// inter-arrival times at the pair's transmission rate (spec.md §4.3).
func (s *Schedule) buildContactTrain(fromAge int, params Parameters, popFraction [NumAgeGroups][NumRiskGroups]float64, rng RNG) {
	beta := params.Beta()

	for a := 0; a < NumAgeGroups; a++ {
		for r := 0; r < NumRiskGroups; r++ {
			rate := beta * contactMatrix[fromAge][a] * susceptibility[a] * popFraction[a][r]
			if rate <= 0 {
				continue
			}

			tcInit := s.infectedTMin
			tc := tcInit + rng.Exponential(rate)
			for tc < s.infectedTMax {
				s.push(Event{
					Type:               EventContact,
					Time:               tc,
					ContactWindowStart: tcInit,
					ToAge:              a,
					ToRisk:             r,
				})
				tcInit = tc
				tc = tcInit + rng.Exponential(rate)
			}
		}
	}
}

func (s *Schedule) push(e Event) {
	s.events = append(s.events, e)
}

// heapify finalizes the heap invariant after all events are pushed. Must be
// called once after construction, before the schedule is queried.
func (s *Schedule) heapify() {
	heap.Init(&s.events)
}

// PeekNextTime returns the time of the next pending event, or false if the
// schedule is empty.
func (s *Schedule) PeekNextTime() (float64, bool) {
	if len(s.events) == 0 {
		return 0, false
	}
	return s.events[0].Time, true
}

// PopNext removes and returns the next pending event.
func (s *Schedule) PopNext() (Event, bool) {
	if len(s.events) == 0 {
		return Event{}, false
	}
	return heap.Pop(&s.events).(Event), true
}

// Empty reports whether the schedule's event heap is exhausted.
func (s *Schedule) Empty() bool {
	return len(s.events) == 0
}

// Cancel marks the schedule canceled. Canceled schedules are not removed
// from their node's queue; the processing loop skips them on pop (spec.md
// §5: "cancellation & mutation").
func (s *Schedule) Cancel() {
	s.canceled = true
}

// Canceled reports whether the schedule has been canceled.
func (s *Schedule) Canceled() bool {
	return s.canceled
}

// InfectedTMin and InfectedTMax bound the window during which this
// individual may generate contacts (asymptomatic onset to removal).
func (s *Schedule) InfectedTMin() float64 { return s.infectedTMin }
func (s *Schedule) InfectedTMax() float64 { return s.infectedTMax }
