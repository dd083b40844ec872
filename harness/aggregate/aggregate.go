// Package aggregate collects spec.md §6's per-run counters (and per-name
// stretch-ratio samples) across a set of seeded replicates and computes
// mean + 95% confidence interval with SQL aggregate queries, grounded on
// the teacher's std/security/pib.SqlitePib: a database/sql handle opened
// with github.com/mattn/go-sqlite3's "sqlite3" driver, here against
// ":memory:" since these rows are scratch aggregation state for one
// harness invocation, not anything meant to outlive it.
package aggregate

import (
	"database/sql"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"

	"github.com/antswarm/antndn/harness"
)

const schema = `
CREATE TABLE replicates (
	seed                         INTEGER PRIMARY KEY,
	retrieved                    INTEGER NOT NULL,
	wasted                       INTEGER NOT NULL,
	timeout                      INTEGER NOT NULL,
	interest_drop                INTEGER NOT NULL,
	producer_unique_names_served INTEGER NOT NULL,
	consumer_sent_count          INTEGER NOT NULL
);
CREATE TABLE stretch_samples (
	seed     INTEGER NOT NULL,
	consumer TEXT NOT NULL,
	name     TEXT NOT NULL,
	ratio    REAL NOT NULL
);
`

// Store aggregates counters and stretch samples from one or more replicate
// runs in an in-memory SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens a fresh in-memory aggregation database.
func NewStore() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("aggregate: open: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("aggregate: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// RecordRun inserts one replicate's counters, keyed by the seed it ran
// with.
func (s *Store) RecordRun(seed int64, c harness.Counters) error {
	_, err := s.db.Exec(
		`INSERT INTO replicates
			(seed, retrieved, wasted, timeout, interest_drop, producer_unique_names_served, consumer_sent_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		seed, c.Retrieved, c.Wasted, c.Timeout, c.InterestDrop, c.ProducerUniqueNamesServed, c.ConsumerSentCount,
	)
	if err != nil {
		return fmt.Errorf("aggregate: record run %d: %w", seed, err)
	}
	return nil
}

// RecordStretch inserts one received content's stretch-ratio sample for a
// replicate.
func (s *Store) RecordStretch(seed int64, consumerName, contentName string, ratio float64) error {
	_, err := s.db.Exec(
		`INSERT INTO stretch_samples (seed, consumer, name, ratio) VALUES (?, ?, ?, ?)`,
		seed, consumerName, contentName, ratio,
	)
	if err != nil {
		return fmt.Errorf("aggregate: record stretch sample: %w", err)
	}
	return nil
}

// Stat is a sample mean with its 95% confidence interval half-width, the
// collaborator-contract shape spec.md §6 asks for ("per-name latency with
// confidence intervals"), generalized here to any aggregated counter.
type Stat struct {
	N    int
	Mean float64
	// CI95 is the half-width of the 95% confidence interval around Mean,
	// computed from the normal approximation 1.96*stddev/sqrt(n); undefined
	// (zero) when N < 2.
	CI95 float64
}

func (s *Store) statOf(column string) (Stat, error) {
	row := s.db.QueryRow(fmt.Sprintf(
		`SELECT COUNT(*), AVG(%s), AVG(%s * %s) FROM replicates`, column, column, column))
	var n int
	var mean, meanSq sql.NullFloat64
	if err := row.Scan(&n, &mean, &meanSq); err != nil {
		return Stat{}, fmt.Errorf("aggregate: stat %s: %w", column, err)
	}
	return newStat(n, mean.Float64, meanSq.Float64), nil
}

func newStat(n int, mean, meanSq float64) Stat {
	st := Stat{N: n, Mean: mean}
	if n < 2 {
		return st
	}
	variance := (meanSq - mean*mean) * float64(n) / float64(n-1)
	if variance < 0 {
		variance = 0
	}
	st.CI95 = 1.96 * math.Sqrt(variance) / math.Sqrt(float64(n))
	return st
}

// Summary is the mean+CI95 of every replicate counter across all recorded
// runs.
type Summary struct {
	Retrieved                 Stat
	Wasted                    Stat
	Timeout                   Stat
	InterestDrop              Stat
	ProducerUniqueNamesServed Stat
	ConsumerSentCount         Stat
}

// Summarize computes Summary across every RecordRun call so far.
func (s *Store) Summarize() (Summary, error) {
	var sum Summary
	for col, dst := range map[string]*Stat{
		"retrieved":                    &sum.Retrieved,
		"wasted":                       &sum.Wasted,
		"timeout":                      &sum.Timeout,
		"interest_drop":                &sum.InterestDrop,
		"producer_unique_names_served": &sum.ProducerUniqueNamesServed,
		"consumer_sent_count":          &sum.ConsumerSentCount,
	} {
		st, err := s.statOf(col)
		if err != nil {
			return Summary{}, err
		}
		*dst = st
	}
	return sum, nil
}

// StretchStat computes the mean+CI95 stretch ratio across every recorded
// sample for the given content name, across all replicates and consumers
// that requested it.
func (s *Store) StretchStat(contentName string) (Stat, error) {
	row := s.db.QueryRow(
		`SELECT COUNT(*), AVG(ratio), AVG(ratio * ratio) FROM stretch_samples WHERE name = ?`,
		contentName)
	var n int
	var mean, meanSq sql.NullFloat64
	if err := row.Scan(&n, &mean, &meanSq); err != nil {
		return Stat{}, fmt.Errorf("aggregate: stretch stat %s: %w", contentName, err)
	}
	return newStat(n, mean.Float64, meanSq.Float64), nil
}
