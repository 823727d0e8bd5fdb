package cmd

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/epidemic-sim/epidemic-sim/sim"
	"github.com/epidemic-sim/epidemic-sim/sim/dataset"
)

var (
	scenarioPath string
	datasetPath  string
	logLevel     string
	iliOutPath   string
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "epidemic-sim",
	Short: "Discrete-event stochastic epidemic simulator",
}

// runCmd loads a scenario bundle, runs it to completion, and prints a
// summary of the resulting epidemic.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation scenario",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if scenarioPath == "" {
			logrus.Fatal("--scenario is required")
		}

		bundle, err := sim.LoadScenarioBundle(scenarioPath)
		if err != nil {
			logrus.Fatalf("loading scenario: %v", err)
		}

		s, antiviralStockpile, vaccineStockpile, numNodes, err := buildSimulator(bundle)
		if err != nil {
			logrus.Fatalf("building simulator: %v", err)
		}

		logrus.Infof("starting simulation: %d nodes, %d days, seed=%d", numNodes, bundle.Days, bundle.Seed)

		if err := s.Simulate(bundle.Days); err != nil {
			logrus.Fatalf("simulate: %v", err)
		}

		metrics, err := sim.Summarize(s, antiviralStockpile, vaccineStockpile)
		if err != nil {
			logrus.Fatalf("summarizing run: %v", err)
		}
		metrics.Print(bundle.Days)

		if iliOutPath != "" {
			nodeIds := s.NodeIds()
			for _, id := range nodeIds {
				series, err := sim.ILISeries(s, id)
				if err != nil {
					logrus.Fatalf("computing ILI series for node %d: %v", id, err)
				}
				path := iliOutPath
				if len(nodeIds) > 1 {
					path = nodeSuffixedPath(iliOutPath, int(id))
				}
				if err := sim.WriteILISeries(series, path); err != nil {
					logrus.Fatalf("writing ILI series for node %d: %v", id, err)
				}
			}
		}

		logrus.Info("simulation complete.")
	},
}

// buildSimulator assembles a runnable Simulator from a loaded ScenarioBundle.
// When --dataset names a SQLite dataset file, node/population/travel/stockpile
// data is read from there instead of the bundle's inline YAML, while
// parameters, NPIs, priority groups, and initial cases still come from the
// bundle -- the "Dataset + YAML-loaded Parameters" seam sim.BuildSimulator
// provides.
func buildSimulator(bundle *sim.ScenarioBundle) (s *sim.Simulator, antiviralStockpile, vaccineStockpile []float64, numNodes int, err error) {
	if datasetPath == "" {
		s, err = bundle.Build()
		if err != nil {
			return nil, nil, nil, 0, err
		}
		antiviralStockpile = make([]float64, len(bundle.Nodes))
		vaccineStockpile = make([]float64, len(bundle.Nodes))
		for i, n := range bundle.Nodes {
			antiviralStockpile[i] = n.AntiviralStockpile
			vaccineStockpile[i] = n.VaccineStockpile
		}
		return s, antiviralStockpile, vaccineStockpile, len(bundle.Nodes), nil
	}

	ds, err := dataset.Open(datasetPath)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	defer ds.Close()

	nodes, err := ds.Nodes()
	if err != nil {
		return nil, nil, nil, 0, err
	}
	antiviralStockpile, vaccineStockpile, err = ds.Stockpiles()
	if err != nil {
		return nil, nil, nil, 0, err
	}
	ids := make([]sim.NodeId, len(nodes))
	for i, n := range nodes {
		ids[i] = n.Id
	}
	travel, err := ds.Travel(ids)
	if err != nil {
		return nil, nil, nil, 0, err
	}

	s, err = sim.BuildSimulator(nodes, travel, bundle.Params.ToParameters(), bundle.Seed, antiviralStockpile, vaccineStockpile, bundle.InitialCases)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	return s, antiviralStockpile, vaccineStockpile, len(nodes), nil
}

// nodeSuffixedPath inserts "-<nodeId>" before a file path's extension, e.g.
// "ili.csv" -> "ili-3.csv", so multi-node runs don't overwrite each other's
// series file.
func nodeSuffixedPath(path string, nodeID int) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[:i] + "-" + strconv.Itoa(nodeID) + path[i:]
		}
		if path[i] == '/' {
			break
		}
	}
	return path + "-" + strconv.Itoa(nodeID)
}

// Execute runs the CLI root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "path to a scenario YAML file (required)")
	runCmd.Flags().StringVar(&datasetPath, "dataset", "", "optional SQLite dataset file supplying node/travel data instead of the scenario YAML's inline nodes")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&iliOutPath, "ili-out", "", "optional path to write a daily ILI report CSV")

	rootCmd.AddCommand(runCmd)
}
