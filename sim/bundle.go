// ScenarioBundle: a strict, fully-validated YAML description of one
// simulation run -- nodes, travel fractions, epidemiological parameters,
// NPIs, and priority groups. Grounded on the teacher's PolicyBundle
// (strict KnownFields YAML unmarshal + Validate()).

package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NodeSpec is one node's YAML description: its id, name, and initial
// unvaccinated population broken down by (age, risk).
type NodeSpec struct {
	Id         int   `yaml:"id"`
	Name       string `yaml:"name"`
	Population [][]int `yaml:"population"` // population[age][risk]

	AntiviralStockpile float64 `yaml:"antiviral_stockpile"`
	VaccineStockpile   float64 `yaml:"vaccine_stockpile"`
}

// TravelSpec is one directed travel-fraction edge between two nodes.
type TravelSpec struct {
	From int     `yaml:"from"`
	To   int     `yaml:"to"`
	Frac float64 `yaml:"frac"`
}

// NpiSpec is one YAML-describable non-pharmaceutical intervention.
type NpiSpec struct {
	Node          int     `yaml:"node"`
	StartDay      int     `yaml:"start_day"`
	EndDay        int     `yaml:"end_day"`
	Effectiveness float64 `yaml:"effectiveness"`

	// FromAges/ToAges restrict the NPI to contacts between these age
	// groups; empty means "every age".
	FromAges []int `yaml:"from_ages"`
	ToAges   []int `yaml:"to_ages"`
}

func intSetMask(values []int) func(int) bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[int]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return func(x int) bool { return set[x] }
}

func (spec NpiSpec) toNpi() Npi {
	fromMask := intSetMask(spec.FromAges)
	toMask := intSetMask(spec.ToAges)
	var mask func(fromAge, toAge int) bool
	if fromMask != nil || toMask != nil {
		mask = func(fromAge, toAge int) bool {
			if fromMask != nil && !fromMask(fromAge) {
				return false
			}
			if toMask != nil && !toMask(toAge) {
				return false
			}
			return true
		}
	}
	return Npi{
		Node:          NodeId(spec.Node),
		StartDay:      spec.StartDay,
		EndDay:        spec.EndDay,
		Effectiveness: spec.Effectiveness,
		AgePairMask:   mask,
	}
}

// PriorityGroupSpec is the YAML form of PriorityGroup.
type PriorityGroupSpec struct {
	Name  string `yaml:"name"`
	Ages  []int  `yaml:"ages"`
	Risks []int  `yaml:"risks"`
	Vaxes []int  `yaml:"vaxes"`
}

func (spec PriorityGroupSpec) toPriorityGroup() PriorityGroup {
	return PriorityGroup{Name: spec.Name, Ages: spec.Ages, Risks: spec.Risks, Vaxes: spec.Vaxes}
}

// ParametersSpec is the YAML form of Parameters.
type ParametersSpec struct {
	R0        float64 `yaml:"r0"`
	BetaScale float64 `yaml:"beta_scale"`

	Tau   float64 `yaml:"tau"`
	Kappa float64 `yaml:"kappa"`
	Chi   float64 `yaml:"chi"`
	Gamma float64 `yaml:"gamma"`
	Nu    float64 `yaml:"nu"`

	AntiviralEffectiveness float64 `yaml:"antiviral_effectiveness"`
	AntiviralAdherence     float64 `yaml:"antiviral_adherence"`
	AntiviralCapacity      float64 `yaml:"antiviral_capacity"`

	VaccineEffectiveness float64 `yaml:"vaccine_effectiveness"`
	VaccineAdherence     float64 `yaml:"vaccine_adherence"`
	VaccineCapacity      float64 `yaml:"vaccine_capacity"`
	VaccineLatencyPeriod int     `yaml:"vaccine_latency_period"`

	ILIReportingRate float64 `yaml:"ili_reporting_rate"`

	AntiviralPriorityGroups []PriorityGroupSpec `yaml:"antiviral_priority_groups"`
	VaccinePriorityGroups   []PriorityGroupSpec `yaml:"vaccine_priority_groups"`

	NPIs []NpiSpec `yaml:"npis"`
}

// ToParameters converts the YAML-parsed spec into the immutable Parameters
// the engine consumes. Exported so callers that source node/travel data from
// somewhere other than this bundle (e.g. sim/dataset) can still reuse the
// bundle's parameter/NPI/priority-group parsing.
func (spec ParametersSpec) ToParameters() Parameters {
	antiviralGroups := make([]PriorityGroup, len(spec.AntiviralPriorityGroups))
	for i, g := range spec.AntiviralPriorityGroups {
		antiviralGroups[i] = g.toPriorityGroup()
	}
	vaccineGroups := make([]PriorityGroup, len(spec.VaccinePriorityGroups))
	for i, g := range spec.VaccinePriorityGroups {
		vaccineGroups[i] = g.toPriorityGroup()
	}
	npis := make([]Npi, len(spec.NPIs))
	for i, n := range spec.NPIs {
		npis[i] = n.toNpi()
	}

	return Parameters{
		R0: spec.R0, BetaScale: spec.BetaScale,
		Tau: spec.Tau, Kappa: spec.Kappa, Chi: spec.Chi, Gamma: spec.Gamma, Nu: spec.Nu,
		AntiviralEffectiveness: spec.AntiviralEffectiveness,
		AntiviralAdherence:     spec.AntiviralAdherence,
		AntiviralCapacity:      spec.AntiviralCapacity,
		VaccineEffectiveness:   spec.VaccineEffectiveness,
		VaccineAdherence:       spec.VaccineAdherence,
		VaccineCapacity:        spec.VaccineCapacity,
		VaccineLatencyPeriod:   spec.VaccineLatencyPeriod,
		ILIReportingRate:       spec.ILIReportingRate,
		AntiviralPriorityGroups: antiviralGroups,
		VaccinePriorityGroups:   vaccineGroups,
		NPIs:                    npis,
	}
}

// ScenarioBundle is the full YAML description of one simulation run: its
// node population, travel graph, and epidemiological parameters.
type ScenarioBundle struct {
	Seed    int64          `yaml:"seed"`
	Days    int            `yaml:"days"`
	Nodes   []NodeSpec     `yaml:"nodes"`
	Travel  []TravelSpec   `yaml:"travel"`
	Params  ParametersSpec `yaml:"params"`

	InitialCases []InitialCaseSpec `yaml:"initial_cases"`
}

// InitialCaseSpec seeds a concrete (node, stratum) cohort into the exposed
// compartment before day 0 (spec.md §6 InitialCases).
type InitialCaseSpec struct {
	Node  int `yaml:"node"`
	Age   int `yaml:"age"`
	Risk  int `yaml:"risk"`
	Count int `yaml:"count"`
}

// LoadScenarioBundle reads and strictly parses a YAML scenario file: unknown
// fields are a hard error (typos must not silently no-op an intervention).
func LoadScenarioBundle(path string) (*ScenarioBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario config: %w", err)
	}
	var bundle ScenarioBundle
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("parsing scenario config: %w", err)
	}
	return &bundle, nil
}

// Validate checks structural consistency: every travel/NPI/initial-case
// reference must name a node declared in Nodes.
func (b *ScenarioBundle) Validate() error {
	if len(b.Nodes) == 0 {
		return fmt.Errorf("scenario: at least one node is required")
	}
	known := make(map[int]bool, len(b.Nodes))
	for _, n := range b.Nodes {
		if known[n.Id] {
			return fmt.Errorf("scenario: duplicate node id %d", n.Id)
		}
		known[n.Id] = true
	}
	for _, e := range b.Travel {
		if !known[e.From] || !known[e.To] {
			return fmt.Errorf("scenario: travel edge references unknown node (%d -> %d)", e.From, e.To)
		}
		if e.Frac < 0 || e.Frac > 1 {
			return fmt.Errorf("scenario: travel fraction %v out of [0,1]", e.Frac)
		}
	}
	for _, n := range b.Params.NPIs {
		if !known[n.Node] {
			return fmt.Errorf("scenario: NPI references unknown node %d", n.Node)
		}
	}
	for _, c := range b.InitialCases {
		if !known[c.Node] {
			return fmt.Errorf("scenario: initial case references unknown node %d", c.Node)
		}
	}
	return nil
}

// Build constructs a ready-to-run Simulator from the bundle's own inline
// node/travel data.
func (b *ScenarioBundle) Build() (*Simulator, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	nodes := make([]Node, len(b.Nodes))
	antiviralStockpile := make([]float64, len(b.Nodes))
	vaccineStockpile := make([]float64, len(b.Nodes))

	for i, spec := range b.Nodes {
		var n Node
		n.Id = NodeId(spec.Id)
		n.Name = spec.Name
		for a, row := range spec.Population {
			if a >= NumAgeGroups {
				break
			}
			for r, count := range row {
				if r >= NumRiskGroups {
					break
				}
				n.InitialPopulation[a][r] = count
			}
		}
		nodes[i] = n
		antiviralStockpile[i] = spec.AntiviralStockpile
		vaccineStockpile[i] = spec.VaccineStockpile
	}

	ids := make([]NodeId, len(nodes))
	for i, n := range nodes {
		ids[i] = n.Id
	}
	travel := NewTravelMatrix(ids)
	for _, e := range b.Travel {
		travel.Set(NodeId(e.From), NodeId(e.To), e.Frac)
	}

	return BuildSimulator(nodes, travel, b.Params.ToParameters(), b.Seed, antiviralStockpile, vaccineStockpile, b.InitialCases)
}

// BuildSimulator assembles a ready-to-run Simulator from node/travel data
// gathered from any source -- a ScenarioBundle's own inline YAML, or an
// external sim/dataset.Dataset -- plus YAML-loaded Parameters and initial
// case seeding. This is the seam §6 describes as "the core takes a value
// assembled by the caller from Dataset + YAML-loaded Parameters"; the core
// itself never touches SQL or YAML.
func BuildSimulator(nodes []Node, travel *TravelMatrix, params Parameters, seed int64, antiviralStockpile, vaccineStockpile []float64, initialCases []InitialCaseSpec) (*Simulator, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("scenario: at least one node is required")
	}

	sim, err := NewSimulator(nodes, travel, params, seed, antiviralStockpile, vaccineStockpile)
	if err != nil {
		return nil, err
	}

	for _, c := range initialCases {
		s := Stratum{Age: c.Age, Risk: c.Risk, Vax: 0}
		if _, err := sim.InitialCases(NodeId(c.Node), s, c.Count); err != nil {
			return nil, fmt.Errorf("scenario: seeding initial cases at node %d: %w", c.Node, err)
		}
	}

	return sim, nil
}
