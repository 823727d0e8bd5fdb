package sim

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCalculatePercentile_EmptyInput_IndexPanicsAvoided(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Skip("CalculatePercentile on empty input is undefined; guarded by callers")
		}
	}()
	CalculatePercentile([]float64{}, 50)
}

func TestCalculatePercentile_SingleElement(t *testing.T) {
	got := CalculatePercentile([]float64{42.0}, 99)
	if got != 42.0 {
		t.Errorf("CalculatePercentile single element = %v, want 42.0", got)
	}
}

func TestCalculatePercentile_Median(t *testing.T) {
	got := CalculatePercentile([]float64{1, 2, 3, 4, 5}, 50)
	if got != 3 {
		t.Errorf("median = %v, want 3", got)
	}
}

func TestCalculateMean(t *testing.T) {
	got := CalculateMean([]float64{1, 2, 3, 4})
	if got != 2.5 {
		t.Errorf("mean = %v, want 2.5", got)
	}
}

func TestCalculateMean_EmptyReturnsZero(t *testing.T) {
	if got := CalculateMean([]int{}); got != 0 {
		t.Errorf("mean of empty = %v, want 0", got)
	}
}

func TestILISeries_TracksInfectiousOverTime(t *testing.T) {
	nodes := []Node{{Id: 1, Name: "a"}}
	nodes[0].InitialPopulation[0][0] = 1000
	tm := NewTravelMatrix([]NodeId{1})
	params := testParams()
	params.ILIReportingRate = 0.5
	sim, err := NewSimulator(nodes, tm, params, 61, []float64{0}, []float64{0})
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	s := Stratum{Age: 0, Risk: 0, Vax: 0}
	if _, err := sim.population.Add(10, VarInfectious, 0, 0, s); err != nil {
		t.Fatalf("seed infectious: %v", err)
	}

	series, err := ILISeries(sim, 1)
	if err != nil {
		t.Fatalf("ILISeries: %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("len(series) = %d, want 1", len(series))
	}
	if series[0] != 5 {
		t.Errorf("series[0] = %v, want 10*0.5=5", series[0])
	}
}

func TestWriteILISeries_WritesOneLinePerDay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ili.csv")
	series := []float64{1.5, 2.5, 0}
	if err := WriteILISeries(series, path); err != nil {
		t.Fatalf("WriteILISeries: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Errorf("wrote %d lines, want 3", len(lines))
	}
}
