package sim

import "testing"

func oneNodeSimulator(t *testing.T, initialSusceptible int) *Simulator {
	t.Helper()
	nodes := []Node{{Id: 1, Name: "county-a"}}
	nodes[0].InitialPopulation[0][0] = initialSusceptible
	tm := NewTravelMatrix([]NodeId{1})
	params := testParams()
	sim, err := NewSimulator(nodes, tm, params, 42, []float64{0}, []float64{0})
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return sim
}

func TestEvent_ExecuteDiseaseTransitionMovesPopulation(t *testing.T) {
	sim := oneNodeSimulator(t, 100)
	s := Stratum{Age: 0, Risk: 0, Vax: 0}
	if _, err := sim.Expose(10, 1, s, 0); err != nil {
		t.Fatalf("Expose: %v", err)
	}

	sched := &Schedule{State: StateE, Stratum: s}
	e := Event{Type: EventEtoA, Time: 0.5}
	e.Execute(sim, 1, sched)

	if sched.State != StateA {
		t.Errorf("schedule State = %v, want StateA", sched.State)
	}
	asym, _ := sim.GetValue(VarAsymptomatic, 0, 1, s)
	if asym != 1 {
		t.Errorf("asymptomatic count = %v, want 1", asym)
	}
	exposed, _ := sim.GetValue(VarExposed, 0, 1, s)
	if exposed != 9 {
		t.Errorf("remaining exposed = %v, want 9", exposed)
	}
}

func TestEvent_ExecuteUnknownTypeDoesNotPanic(t *testing.T) {
	sim := oneNodeSimulator(t, 10)
	sched := &Schedule{State: StateA, Stratum: Stratum{Age: 0, Risk: 0, Vax: 0}}
	e := Event{Type: EventType(999), Time: 0.1}
	e.Execute(sim, 1, sched) // must not panic
}

func TestEventType_StringUnknown(t *testing.T) {
	if got := EventType(999).String(); got == "" {
		t.Error("String() on unknown EventType returned empty string")
	}
}

func TestDiseaseState_StringKnownAndUnknown(t *testing.T) {
	if StateE.String() != "E" {
		t.Errorf("StateE.String() = %q, want E", StateE.String())
	}
	if DiseaseState(99).String() == "" {
		t.Error("String() on unknown DiseaseState returned empty string")
	}
}
