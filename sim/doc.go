// Package sim provides the core discrete-event simulation engine for a
// stochastic agent-count epidemic model (SEATIRD: Susceptible, Exposed,
// Asymptomatic, Treatable, Infectious, Recovered, Deceased).
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - variable.go: Compartment/stratum vocabulary (Variable, Stratum, age/risk/vax cardinalities)
//   - schedule.go: Per-individual event schedule: the competing-exponential transition
//     chain and contact train materialized eagerly at exposure
//   - schedulequeue.go: Per-node priority queue of schedules ordered by next-event time
//   - event.go: Event types (disease transitions, contacts) and their effect on population
//   - simulator.go: The daily event loop: apply interventions, drain each
//     node's due events, run inter-node travel
//
// # Architecture
//
// population.go holds the dense (variable, time, node, age, risk, vax) counter
// that every event, intervention, and derived-variable query reads and writes.
// antiviral.go, vaccine.go, and travel.go are the daily interventions layered
// on top of the event loop; npi.go gates which contacts those interventions
// and the event loop itself allow through. derived.go computes read-only
// aggregates (total infected, vaccinated-in-lag, ILI) from the counter without
// mutating it.
//
// bundle.go is the scenario-configuration entry point: a strict YAML
// description of nodes, travel, parameters, and initial cases that Build()s
// into a ready-to-run Simulator. sim/dataset provides a SQLite-backed
// alternative for scenarios too large to hand-author as one YAML file.
//
// metrics.go and metrics_utils.go summarize a completed run (cumulative
// infections/deaths, peak infectious day, stockpile consumption, ILI series)
// for the CLI in cmd/.
package sim
