package sim

import (
	"os"
	"path/filepath"
	"testing"
)

const testScenarioYAML = `
seed: 7
days: 30
nodes:
  - id: 1
    name: county-a
    population:
      - [1000, 0]
    antiviral_stockpile: 100
    vaccine_stockpile: 50
  - id: 2
    name: county-b
    population:
      - [1000, 0]
travel:
  - from: 1
    to: 2
    frac: 0.05
  - from: 2
    to: 1
    frac: 0.05
params:
  r0: 2.0
  beta_scale: 10.0
  tau: 2.0
  kappa: 1.0
  chi: 1.0
  gamma: 0.3
  nu: 0.05
  antiviral_effectiveness: 0.5
  antiviral_adherence: 0.8
  antiviral_capacity: 0.1
  vaccine_effectiveness: 0.7
  vaccine_adherence: 0.5
  vaccine_capacity: 0.1
  vaccine_latency_period: 7
  antiviral_priority_groups:
    - name: everyone
  npis:
    - node: 1
      start_day: 5
      end_day: 10
      effectiveness: 0.5
initial_cases:
  - node: 1
    age: 0
    risk: 0
    count: 10
`

func writeScenarioFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadScenarioBundle_ParsesAllSections(t *testing.T) {
	path := writeScenarioFile(t, testScenarioYAML)
	b, err := LoadScenarioBundle(path)
	if err != nil {
		t.Fatalf("LoadScenarioBundle: %v", err)
	}
	if len(b.Nodes) != 2 {
		t.Fatalf("len(Nodes) = %d, want 2", len(b.Nodes))
	}
	if len(b.Travel) != 2 {
		t.Fatalf("len(Travel) = %d, want 2", len(b.Travel))
	}
	if b.Params.R0 != 2.0 {
		t.Errorf("R0 = %v, want 2.0", b.Params.R0)
	}
	if len(b.Params.NPIs) != 1 {
		t.Fatalf("len(NPIs) = %d, want 1", len(b.Params.NPIs))
	}
	if len(b.InitialCases) != 1 {
		t.Fatalf("len(InitialCases) = %d, want 1", len(b.InitialCases))
	}
}

func TestLoadScenarioBundle_UnknownFieldIsError(t *testing.T) {
	path := writeScenarioFile(t, testScenarioYAML+"\nbogus_field: true\n")
	if _, err := LoadScenarioBundle(path); err == nil {
		t.Error("LoadScenarioBundle with unknown top-level field: want error, got nil")
	}
}

func TestScenarioBundle_ValidateRejectsUnknownNodeInTravel(t *testing.T) {
	b := &ScenarioBundle{
		Nodes:  []NodeSpec{{Id: 1}},
		Travel: []TravelSpec{{From: 1, To: 99, Frac: 0.1}},
	}
	if err := b.Validate(); err == nil {
		t.Error("Validate with travel edge to unknown node: want error, got nil")
	}
}

func TestScenarioBundle_ValidateRejectsDuplicateNodeIds(t *testing.T) {
	b := &ScenarioBundle{Nodes: []NodeSpec{{Id: 1}, {Id: 1}}}
	if err := b.Validate(); err == nil {
		t.Error("Validate with duplicate node ids: want error, got nil")
	}
}

func TestScenarioBundle_ValidateRejectsOutOfRangeTravelFraction(t *testing.T) {
	b := &ScenarioBundle{
		Nodes:  []NodeSpec{{Id: 1}, {Id: 2}},
		Travel: []TravelSpec{{From: 1, To: 2, Frac: 1.5}},
	}
	if err := b.Validate(); err == nil {
		t.Error("Validate with out-of-range travel fraction: want error, got nil")
	}
}

func TestScenarioBundle_BuildProducesRunnableSimulator(t *testing.T) {
	path := writeScenarioFile(t, testScenarioYAML)
	b, err := LoadScenarioBundle(path)
	if err != nil {
		t.Fatalf("LoadScenarioBundle: %v", err)
	}
	sim, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := sim.Simulate(b.Days); err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	exposedAtStart, _ := sim.GetValue(VarExposed, 0, 1, AllStratum)
	if exposedAtStart != 10 {
		t.Errorf("exposed at node 1, t=0 = %v, want 10 from initial_cases", exposedAtStart)
	}
}

func TestScenarioBundle_BuildRejectsEmptyNodeList(t *testing.T) {
	b := &ScenarioBundle{}
	if _, err := b.Build(); err == nil {
		t.Error("Build with no nodes: want error, got nil")
	}
}

func TestBuildSimulator_AssemblesFromExternalNodeSource(t *testing.T) {
	nodes := []Node{{Id: 1, Name: "external-a"}, {Id: 2, Name: "external-b"}}
	nodes[0].InitialPopulation[0][0] = 1000
	nodes[1].InitialPopulation[0][0] = 1000

	travel := NewTravelMatrix([]NodeId{1, 2})
	travel.Set(1, 2, 0.05)

	params := ParametersSpec{R0: 2.0, BetaScale: 10, Tau: 2, Kappa: 1, Chi: 1, Gamma: 0.3, Nu: 0.05}.ToParameters()

	s, err := BuildSimulator(nodes, travel, params, 7, []float64{0, 0}, []float64{0, 0},
		[]InitialCaseSpec{{Node: 1, Age: 0, Risk: 0, Count: 5}})
	if err != nil {
		t.Fatalf("BuildSimulator: %v", err)
	}

	exposed, err := s.GetValue(VarExposed, 0, 1, AllStratum)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if exposed != 5 {
		t.Errorf("exposed at node 1, t=0 = %v, want 5 from initial cases", exposed)
	}
}

func TestBuildSimulator_RejectsEmptyNodeList(t *testing.T) {
	if _, err := BuildSimulator(nil, NewTravelMatrix(nil), Parameters{}, 1, nil, nil, nil); err == nil {
		t.Error("BuildSimulator with no nodes: want error, got nil")
	}
}
