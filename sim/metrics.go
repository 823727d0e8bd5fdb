// Tracks simulation-wide summary metrics for final reporting: cumulative
// infections, deaths, peak infectious load, and stockpile consumption.

package sim

import (
	"fmt"
	"sort"
)

// Metrics aggregates end-of-run summary statistics across every node,
// computed from the population store rather than maintained incrementally.
type Metrics struct {
	Nodes int

	CumulativeInfections float64 // everyone who was ever exposed
	CumulativeDeaths     float64
	CumulativeRecovered  float64
	PeakInfectious       float64
	PeakDay              int

	// MedianNodePeakInfectious/MeanNodePeakInfectious summarize the spread
	// of each node's own peak infectious load across the node population --
	// a multi-node run where one node drives most of PeakInfectious looks
	// different from one where every node peaks evenly, and the aggregate
	// PeakInfectious/PeakDay alone can't distinguish them.
	MedianNodePeakInfectious float64
	MeanNodePeakInfectious   float64

	AntiviralStockpileUsed float64
	VaccineStockpileUsed   float64
}

// Summarize walks the full run history in sim and computes end-of-run
// metrics. initialAntiviralStockpile/initialVaccineStockpile are the
// per-node totals the simulator was constructed with, used to compute
// consumption against sim's current (depleted) stockpiles.
func Summarize(sim *Simulator, initialAntiviralStockpile, initialVaccineStockpile []float64) (*Metrics, error) {
	m := &Metrics{Nodes: len(sim.nodes)}

	last := sim.NumTimes() - 1
	for i, node := range sim.nodes {
		deaths, err := sim.GetValue(VarDeceased, last, node.Id, AllStratum)
		if err != nil {
			return nil, err
		}
		recovered, err := sim.GetValue(VarRecovered, last, node.Id, AllStratum)
		if err != nil {
			return nil, err
		}
		m.CumulativeDeaths += deaths
		m.CumulativeRecovered += recovered
		m.CumulativeInfections += deaths + recovered

		if i < len(initialAntiviralStockpile) {
			m.AntiviralStockpileUsed += initialAntiviralStockpile[i] - sim.antiviralStockpile[i]
		}
		if i < len(initialVaccineStockpile) {
			m.VaccineStockpileUsed += initialVaccineStockpile[i] - sim.vaccineStockpile[i]
		}
	}

	nodePeakInfectious := make([]float64, len(sim.nodes))
	for t := 0; t <= last; t++ {
		var infectious float64
		for ni, node := range sim.nodes {
			asym, _ := sim.GetDerived(DerivedInfected, t, node.Id, AllStratum)
			infectious += asym
			if asym > nodePeakInfectious[ni] {
				nodePeakInfectious[ni] = asym
			}
		}
		if infectious > m.PeakInfectious {
			m.PeakInfectious = infectious
			m.PeakDay = t
		}
	}
	if len(nodePeakInfectious) > 0 {
		sorted := append([]float64(nil), nodePeakInfectious...)
		sort.Float64s(sorted)
		m.MedianNodePeakInfectious = CalculatePercentile(sorted, 50)
		m.MeanNodePeakInfectious = CalculateMean(nodePeakInfectious)
	}

	// Active cases at the end of the run (exposed/asymptomatic/treatable/
	// infectious) still haven't resolved to recovered or deceased, so they
	// are part of cumulative infections too.
	for _, node := range sim.nodes {
		for _, v := range []Variable{VarExposed, VarAsymptomatic, VarTreatable, VarInfectious} {
			got, err := sim.GetValue(v, last, node.Id, AllStratum)
			if err != nil {
				return nil, err
			}
			m.CumulativeInfections += got
		}
	}

	return m, nil
}

// Print displays the end-of-run summary.
func (m *Metrics) Print(days int) {
	fmt.Println("=== Simulation Summary ===")
	fmt.Printf("Nodes                 : %d\n", m.Nodes)
	fmt.Printf("Days simulated        : %d\n", days)
	fmt.Printf("Cumulative infections : %.0f\n", m.CumulativeInfections)
	fmt.Printf("Cumulative recovered  : %.0f\n", m.CumulativeRecovered)
	fmt.Printf("Cumulative deaths     : %.0f\n", m.CumulativeDeaths)
	fmt.Printf("Peak infectious load  : %.0f (day %d)\n", m.PeakInfectious, m.PeakDay)
	fmt.Printf("Median node peak load : %.1f\n", m.MedianNodePeakInfectious)
	fmt.Printf("Mean node peak load   : %.1f\n", m.MeanNodePeakInfectious)
	fmt.Printf("Antiviral doses used  : %.0f\n", m.AntiviralStockpileUsed)
	fmt.Printf("Vaccine doses used    : %.0f\n", m.VaccineStockpileUsed)
}
