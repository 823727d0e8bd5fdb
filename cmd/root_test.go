package cmd

import (
	"path/filepath"
	"testing"

	sim "github.com/epidemic-sim/epidemic-sim/sim"
	"github.com/epidemic-sim/epidemic-sim/sim/dataset"
)

func TestNodeSuffixedPath_InsertsBeforeExtension(t *testing.T) {
	got := nodeSuffixedPath("ili.csv", 3)
	if got != "ili-3.csv" {
		t.Errorf("nodeSuffixedPath = %q, want %q", got, "ili-3.csv")
	}
}

func TestNodeSuffixedPath_NoExtensionAppendsSuffix(t *testing.T) {
	got := nodeSuffixedPath("ili-series", 7)
	if got != "ili-series-7" {
		t.Errorf("nodeSuffixedPath = %q, want %q", got, "ili-series-7")
	}
}

func TestNodeSuffixedPath_PreservesDirectoryComponent(t *testing.T) {
	got := nodeSuffixedPath("out/ili.csv", 2)
	if got != "out/ili-2.csv" {
		t.Errorf("nodeSuffixedPath = %q, want %q", got, "out/ili-2.csv")
	}
}

func TestBuildSimulator_UsesBundleInlineNodesWhenNoDatasetFlagSet(t *testing.T) {
	datasetPath = ""
	bundle := &sim.ScenarioBundle{
		Seed: 1,
		Days: 5,
		Nodes: []sim.NodeSpec{
			{Id: 1, Name: "a", Population: [][]int{{1000, 0}}, AntiviralStockpile: 10},
		},
	}

	s, antiviral, _, numNodes, err := buildSimulator(bundle)
	if err != nil {
		t.Fatalf("buildSimulator: %v", err)
	}
	if numNodes != 1 {
		t.Errorf("numNodes = %d, want 1", numNodes)
	}
	if len(antiviral) != 1 || antiviral[0] != 10 {
		t.Errorf("antiviralStockpile = %v, want [10]", antiviral)
	}
	if got := s.NodeIds(); len(got) != 1 || got[0] != 1 {
		t.Errorf("NodeIds() = %v, want [1]", got)
	}
}

func TestBuildSimulator_PrefersDatasetNodesWhenDatasetFlagSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.db")
	ds, err := dataset.Open(path)
	if err != nil {
		t.Fatalf("dataset.Open: %v", err)
	}
	n := sim.Node{Id: 42, Name: "from-dataset"}
	n.InitialPopulation[0][0] = 500
	if err := ds.PutNode(n, 20, 15); err != nil {
		t.Fatalf("PutNode: %v", err)
	}
	if err := ds.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	datasetPath = path
	defer func() { datasetPath = "" }()

	bundle := &sim.ScenarioBundle{Seed: 1, Days: 5}

	s, antiviral, vaccine, numNodes, err := buildSimulator(bundle)
	if err != nil {
		t.Fatalf("buildSimulator: %v", err)
	}
	if numNodes != 1 {
		t.Fatalf("numNodes = %d, want 1", numNodes)
	}
	if got := s.NodeIds(); len(got) != 1 || got[0] != 42 {
		t.Errorf("NodeIds() = %v, want [42] (from dataset, not bundle)", got)
	}
	if len(antiviral) != 1 || antiviral[0] != 20 {
		t.Errorf("antiviralStockpile = %v, want [20]", antiviral)
	}
	if len(vaccine) != 1 || vaccine[0] != 15 {
		t.Errorf("vaccineStockpile = %v, want [15]", vaccine)
	}
}
