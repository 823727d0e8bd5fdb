// Package dataset provides a durable, queryable store for node demographics
// and travel fractions, standing in for the original model's on-disk
// population/travel data files. Grounded on the teacher pack's db.go
// (pure-Go SQLite driver, migration-on-open) and loader.go (load-then-parse
// into in-memory domain structs) pattern.
package dataset

import (
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	sim "github.com/epidemic-sim/epidemic-sim/sim"
)

// Dataset is a read/write store of node demographics, travel fractions, and
// stockpiles that can be assembled into a runnable Simulator. ScenarioBundle
// covers the common case of a single inline YAML file; Dataset exists for
// larger scenarios (many nodes, travel edges curated separately from the
// epidemiological parameters) that are more naturally kept in a database.
type Dataset interface {
	// Nodes returns every node's static population data, ordered by id.
	Nodes() ([]sim.Node, error)
	// Stockpiles returns the antiviral and vaccine stockpile for each node
	// returned by Nodes, in the same order.
	Stockpiles() (antiviral, vaccine []float64, err error)
	// Travel builds a TravelMatrix covering the given node ids from the
	// store's travel_edges table.
	Travel(nodeIds []sim.NodeId) (*sim.TravelMatrix, error)
	// PutNode upserts one node's static data and stockpile.
	PutNode(n sim.Node, antiviralStockpile, vaccineStockpile float64) error
	// PutTravel upserts one directed travel fraction.
	PutTravel(from, to sim.NodeId, frac float64) error
	Close() error
}

// SQLiteDataset is a Dataset backed by a modernc.org/sqlite file.
type SQLiteDataset struct {
	db *sql.DB
}

// Open opens (creating if necessary) a SQLite-backed Dataset at path and
// runs any pending migrations.
func Open(path string) (*SQLiteDataset, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping dataset: %w", err)
	}
	d := &SQLiteDataset{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate dataset: %w", err)
	}
	logrus.Infof("dataset: opened %s", path)
	return d, nil
}

func (d *SQLiteDataset) migrate() error {
	version := 0
	d.db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.db.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS nodes (
				id                  INTEGER PRIMARY KEY,
				name                TEXT NOT NULL,
				antiviral_stockpile REAL NOT NULL DEFAULT 0,
				vaccine_stockpile   REAL NOT NULL DEFAULT 0
			);

			CREATE TABLE IF NOT EXISTS node_population (
				node_id INTEGER NOT NULL REFERENCES nodes(id),
				age     INTEGER NOT NULL,
				risk    INTEGER NOT NULL,
				count   INTEGER NOT NULL,
				PRIMARY KEY (node_id, age, risk)
			);

			CREATE TABLE IF NOT EXISTS travel_edges (
				from_node INTEGER NOT NULL REFERENCES nodes(id),
				to_node   INTEGER NOT NULL REFERENCES nodes(id),
				frac      REAL NOT NULL,
				PRIMARY KEY (from_node, to_node)
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logrus.Info("dataset: applied migration v1")
	}

	return nil
}

// Close closes the underlying database connection.
func (d *SQLiteDataset) Close() error {
	return d.db.Close()
}

// Nodes loads every node and its (age, risk) population breakdown, ordered
// by id.
func (d *SQLiteDataset) Nodes() ([]sim.Node, error) {
	rows, err := d.db.Query(`SELECT id, name FROM nodes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []sim.Node
	for rows.Next() {
		var id int
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, sim.Node{Id: sim.NodeId(id), Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range nodes {
		if err := d.fillPopulation(&nodes[i]); err != nil {
			return nil, err
		}
	}
	return nodes, nil
}

func (d *SQLiteDataset) fillPopulation(n *sim.Node) error {
	rows, err := d.db.Query(`SELECT age, risk, count FROM node_population WHERE node_id = ?`, int(n.Id))
	if err != nil {
		return fmt.Errorf("query population for node %d: %w", n.Id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var age, risk, count int
		if err := rows.Scan(&age, &risk, &count); err != nil {
			return fmt.Errorf("scan population row for node %d: %w", n.Id, err)
		}
		if age < 0 || age >= sim.NumAgeGroups || risk < 0 || risk >= sim.NumRiskGroups {
			return fmt.Errorf("node %d: population row (age=%d, risk=%d) out of range", n.Id, age, risk)
		}
		n.InitialPopulation[age][risk] = count
	}
	return rows.Err()
}

// Stockpiles returns the antiviral and vaccine stockpile for each node, in
// id order.
func (d *SQLiteDataset) Stockpiles() (antiviral, vaccine []float64, err error) {
	rows, err := d.db.Query(`SELECT antiviral_stockpile, vaccine_stockpile FROM nodes ORDER BY id`)
	if err != nil {
		return nil, nil, fmt.Errorf("query stockpiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a, v float64
		if err := rows.Scan(&a, &v); err != nil {
			return nil, nil, fmt.Errorf("scan stockpile row: %w", err)
		}
		antiviral = append(antiviral, a)
		vaccine = append(vaccine, v)
	}
	return antiviral, vaccine, rows.Err()
}

// Travel builds a TravelMatrix sized for nodeIds, populated from the
// travel_edges table. Edges referencing ids outside nodeIds are ignored.
func (d *SQLiteDataset) Travel(nodeIds []sim.NodeId) (*sim.TravelMatrix, error) {
	tm := sim.NewTravelMatrix(nodeIds)

	rows, err := d.db.Query(`SELECT from_node, to_node, frac FROM travel_edges`)
	if err != nil {
		return nil, fmt.Errorf("query travel edges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var from, to int
		var frac float64
		if err := rows.Scan(&from, &to, &frac); err != nil {
			return nil, fmt.Errorf("scan travel edge: %w", err)
		}
		tm.Set(sim.NodeId(from), sim.NodeId(to), frac)
	}
	return tm, rows.Err()
}

// PutNode upserts one node's static data and stockpile, including its
// (age, risk) population breakdown.
func (d *SQLiteDataset) PutNode(n sim.Node, antiviralStockpile, vaccineStockpile float64) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin putnode: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO nodes (id, name, antiviral_stockpile, vaccine_stockpile)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			antiviral_stockpile = excluded.antiviral_stockpile,
			vaccine_stockpile = excluded.vaccine_stockpile
	`, int(n.Id), n.Name, antiviralStockpile, vaccineStockpile)
	if err != nil {
		return fmt.Errorf("upsert node %d: %w", n.Id, err)
	}

	for age := 0; age < sim.NumAgeGroups; age++ {
		for risk := 0; risk < sim.NumRiskGroups; risk++ {
			_, err := tx.Exec(`
				INSERT INTO node_population (node_id, age, risk, count)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(node_id, age, risk) DO UPDATE SET count = excluded.count
			`, int(n.Id), age, risk, n.InitialPopulation[age][risk])
			if err != nil {
				return fmt.Errorf("upsert population node %d (age=%d, risk=%d): %w", n.Id, age, risk, err)
			}
		}
	}

	return tx.Commit()
}

// PutTravel upserts one directed travel fraction.
func (d *SQLiteDataset) PutTravel(from, to sim.NodeId, frac float64) error {
	_, err := d.db.Exec(`
		INSERT INTO travel_edges (from_node, to_node, frac)
		VALUES (?, ?, ?)
		ON CONFLICT(from_node, to_node) DO UPDATE SET frac = excluded.frac
	`, int(from), int(to), frac)
	if err != nil {
		return fmt.Errorf("upsert travel edge (%d -> %d): %w", from, to, err)
	}
	return nil
}

var _ Dataset = (*SQLiteDataset)(nil)
