package sim

import "testing"

func vaccineTestSimulator(t *testing.T, pop int, stockpile float64, groups []PriorityGroup) *Simulator {
	t.Helper()
	nodes := []Node{{Id: 1, Name: "county-a"}}
	nodes[0].InitialPopulation[0][0] = pop
	tm := NewTravelMatrix([]NodeId{1})
	params := testParams()
	params.VaccineEffectiveness = 0.8
	params.VaccineAdherence = 1.0
	params.VaccineCapacity = 1.0
	params.VaccineLatencyPeriod = 7
	params.VaccinePriorityGroups = groups
	sim, err := NewSimulator(nodes, tm, params, 21, []float64{0}, []float64{stockpile})
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return sim
}

func TestApplyVaccines_NoPriorityGroupsIsNoop(t *testing.T) {
	sim := vaccineTestSimulator(t, 1000, 500, nil)
	if err := sim.applyVaccines(0); err != nil {
		t.Fatalf("applyVaccines: %v", err)
	}
	if sim.vaccineStockpile[0] != 500 {
		t.Errorf("stockpile = %v, want untouched 500", sim.vaccineStockpile[0])
	}
}

func TestApplyVaccines_ZeroStockpileIsNoop(t *testing.T) {
	sim := vaccineTestSimulator(t, 1000, 0, []PriorityGroup{{Name: "everyone"}})
	if err := sim.applyVaccines(0); err != nil {
		t.Fatalf("applyVaccines: %v", err)
	}
	vac, _ := sim.GetValue(VarVaccinatedDaily, 0, 1, AllStratum)
	if vac != 0 {
		t.Errorf("vaccinated (daily) = %v, want 0 with zero stockpile", vac)
	}
}

func TestApplyVaccines_MovesSusceptiblesToVaccinatedStratum(t *testing.T) {
	sim := vaccineTestSimulator(t, 1000, 300, []PriorityGroup{{Name: "everyone"}})
	s := Stratum{Age: 0, Risk: 0, Vax: 0}
	sv := Stratum{Age: 0, Risk: 0, Vax: 1}

	if err := sim.applyVaccines(0); err != nil {
		t.Fatalf("applyVaccines: %v", err)
	}

	vaccinated, _ := sim.GetValue(VarSusceptible, 0, 1, sv)
	if vaccinated <= 0 {
		t.Error("vaccinated-susceptible = 0, want some individuals moved to vax=1")
	}
	remainingUnvax, _ := sim.GetValue(VarSusceptible, 0, 1, s)
	if remainingUnvax+vaccinated != 1000 {
		t.Errorf("unvax+vax susceptible = %v, want 1000 (conservation)", remainingUnvax+vaccinated)
	}
	if sim.vaccineStockpile[0] >= 300 {
		t.Error("stockpile not decremented")
	}
}

func TestApplyVaccines_RewritesLiveScheduleStratumInPlace(t *testing.T) {
	sim := vaccineTestSimulator(t, 1000, 1000, []PriorityGroup{{Name: "everyone"}})
	s := Stratum{Age: 0, Risk: 0, Vax: 0}
	if _, err := sim.Expose(5, 1, s, 0); err != nil {
		t.Fatalf("Expose: %v", err)
	}

	if err := sim.applyVaccines(0); err != nil {
		t.Fatalf("applyVaccines: %v", err)
	}

	var sawVax1 bool
	for _, sched := range *sim.queues[0] {
		if sched.State == StateE && sched.Stratum.Vax == 1 {
			sawVax1 = true
		}
	}
	if !sawVax1 {
		t.Error("expected at least one exposed schedule rewritten to vax=1")
	}
}

func TestApplyVaccines_NamedGroupThenAllSharesCapacity(t *testing.T) {
	sim := vaccineTestSimulator(t, 1000, 1000, []PriorityGroup{{Name: "young", Ages: []int{0}}})
	sim.params.VaccineCapacity = 0.01
	if err := sim.applyVaccines(0); err != nil {
		t.Fatalf("applyVaccines: %v", err)
	}
	vac, _ := sim.GetValue(VarVaccinatedDaily, 0, 1, AllStratum)
	capacity := sim.params.VaccineCapacity * 1000
	if vac > capacity+1e-6 {
		t.Errorf("vaccinated (daily) %v exceeds daily capacity %v", vac, capacity)
	}
}
