package sim

import "testing"

func metricsTestSimulator(t *testing.T) (*Simulator, []float64, []float64) {
	t.Helper()
	nodes := []Node{{Id: 1, Name: "a"}, {Id: 2, Name: "b"}}
	nodes[0].InitialPopulation[0][0] = 500
	nodes[1].InitialPopulation[0][0] = 500
	tm := NewTravelMatrix([]NodeId{1, 2})
	params := testParams()
	params.ILIReportingRate = 0.1
	antiviral := []float64{50, 50}
	vaccine := []float64{20, 20}
	sim, err := NewSimulator(nodes, tm, params, 51, antiviral, vaccine)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return sim, append([]float64(nil), antiviral...), append([]float64(nil), vaccine...)
}

func TestSummarize_NoDiseaseHasZeroInfectionsAndDeaths(t *testing.T) {
	sim, antiviral, vaccine := metricsTestSimulator(t)
	if err := sim.Simulate(10); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	m, err := Summarize(sim, antiviral, vaccine)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if m.CumulativeInfections != 0 {
		t.Errorf("CumulativeInfections = %v, want 0", m.CumulativeInfections)
	}
	if m.CumulativeDeaths != 0 {
		t.Errorf("CumulativeDeaths = %v, want 0", m.CumulativeDeaths)
	}
	if m.AntiviralStockpileUsed != 0 || m.VaccineStockpileUsed != 0 {
		t.Error("stockpiles consumed with no priority groups configured, want 0")
	}
}

func TestSummarize_TracksSeededCohortThroughResolution(t *testing.T) {
	sim, antiviral, vaccine := metricsTestSimulator(t)
	sim.params.R0 = 0
	if _, err := sim.InitialCases(1, Stratum{Age: 0, Risk: 0, Vax: 0}, 20); err != nil {
		t.Fatalf("InitialCases: %v", err)
	}
	if err := sim.Simulate(90); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	m, err := Summarize(sim, antiviral, vaccine)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if m.CumulativeInfections != 20 {
		t.Errorf("CumulativeInfections = %v, want 20", m.CumulativeInfections)
	}
	if m.CumulativeDeaths+m.CumulativeRecovered != 20 {
		t.Errorf("deaths+recovered = %v, want 20", m.CumulativeDeaths+m.CumulativeRecovered)
	}
}

func TestSummarize_NodePeakInfectiousSummarizesAcrossNodes(t *testing.T) {
	sim, antiviral, vaccine := metricsTestSimulator(t)
	sim.params.R0 = 0
	if _, err := sim.InitialCases(1, Stratum{Age: 0, Risk: 0, Vax: 0}, 50); err != nil {
		t.Fatalf("InitialCases: %v", err)
	}
	if err := sim.Simulate(30); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	m, err := Summarize(sim, antiviral, vaccine)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if m.MeanNodePeakInfectious <= 0 {
		t.Error("MeanNodePeakInfectious = 0, want a positive peak from the seeded node")
	}
	if m.MedianNodePeakInfectious != m.MeanNodePeakInfectious {
		t.Errorf("with only two nodes, median %v and mean %v of their peaks should match",
			m.MedianNodePeakInfectious, m.MeanNodePeakInfectious)
	}
	// Only one of the two nodes was seeded, so the aggregate PeakInfectious
	// (summed across both nodes) can't be less than either node's own peak.
	if m.PeakInfectious < m.MeanNodePeakInfectious {
		t.Errorf("PeakInfectious %v should be at least as large as the per-node mean %v",
			m.PeakInfectious, m.MeanNodePeakInfectious)
	}
}

func TestSummarize_StockpileConsumptionReflectsUsage(t *testing.T) {
	sim, antiviral, vaccine := metricsTestSimulator(t)
	sim.params.VaccinePriorityGroups = []PriorityGroup{{Name: "everyone"}}
	sim.params.VaccineCapacity = 1.0
	sim.params.VaccineAdherence = 1.0
	if err := sim.Simulate(5); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	m, err := Summarize(sim, antiviral, vaccine)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if m.VaccineStockpileUsed <= 0 {
		t.Error("VaccineStockpileUsed = 0, want some doses consumed with an active priority group")
	}
}
