// Package persistence provides SQLite-based storage for simulation runs:
// per-tick market rows and serialized snapshots for save/resume.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/agentmarket/internal/engine"
)

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path. The special
// path ":memory:" opens an in-memory database.
func Open(path string) (*DB, error) {
	dsn := path
	if path != ":memory:" && !strings.Contains(path, "?") {
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		topology TEXT NOT NULL,
		investors INTEGER NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ticks (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		price REAL NOT NULL,
		return REAL NOT NULL,
		advisory_action TEXT NOT NULL,
		advisory_confidence REAL NOT NULL,
		advisory_source TEXT NOT NULL,
		buy_count INTEGER NOT NULL,
		sell_count INTEGER NOT NULL,
		PRIMARY KEY (run_id, tick)
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		state_json TEXT NOT NULL,
		PRIMARY KEY (run_id, tick)
	);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return err
	}
	return nil
}

// StartRun registers a new run and returns its identifier.
func (db *DB) StartRun(seed int64, topology string, investors int) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, seed, topology, investors, started_at) VALUES (?, ?, ?, ?, ?)",
		id, seed, topology, investors, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	slog.Info("run registered", "run_id", id, "seed", seed, "topology", topology)
	return id, nil
}

// TickRow is one recorded tick of a run.
type TickRow struct {
	RunID              string  `db:"run_id"`
	Tick               int     `db:"tick"`
	Price              float64 `db:"price"`
	Return             float64 `db:"return"`
	AdvisoryAction     string  `db:"advisory_action"`
	AdvisoryConfidence float64 `db:"advisory_confidence"`
	AdvisorySource     string  `db:"advisory_source"`
	BuyCount           int     `db:"buy_count"`
	SellCount          int     `db:"sell_count"`
}

// SaveTick appends one tick row to a run.
func (db *DB) SaveTick(row TickRow) error {
	_, err := db.conn.Exec(`INSERT INTO ticks
		(run_id, tick, price, return, advisory_action, advisory_confidence, advisory_source, buy_count, sell_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.RunID, row.Tick, row.Price, row.Return,
		row.AdvisoryAction, row.AdvisoryConfidence, row.AdvisorySource,
		row.BuyCount, row.SellCount,
	)
	if err != nil {
		return fmt.Errorf("save tick %d: %w", row.Tick, err)
	}
	return nil
}

// Ticks returns all recorded rows of a run in tick order.
func (db *DB) Ticks(runID string) ([]TickRow, error) {
	var rows []TickRow
	err := db.conn.Select(&rows,
		"SELECT * FROM ticks WHERE run_id = ? ORDER BY tick", runID)
	if err != nil {
		return nil, fmt.Errorf("load ticks: %w", err)
	}
	return rows, nil
}

// SaveSnapshot stores a model snapshot as JSON, replacing any existing
// snapshot of the run at the same tick.
func (db *DB) SaveSnapshot(runID string, s engine.Snapshot) error {
	blob, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = db.conn.Exec(
		"INSERT OR REPLACE INTO snapshots (run_id, tick, state_json) VALUES (?, ?, ?)",
		runID, s.Tick, string(blob),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot retrieves the snapshot of a run at the given tick.
func (db *DB) LoadSnapshot(runID string, tick int) (engine.Snapshot, error) {
	var blob string
	err := db.conn.Get(&blob,
		"SELECT state_json FROM snapshots WHERE run_id = ? AND tick = ?", runID, tick)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	var s engine.Snapshot
	if err := json.Unmarshal([]byte(blob), &s); err != nil {
		return engine.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return s, nil
}

// LatestSnapshotTick returns the tick of the most recent snapshot of a run,
// or false if the run has no snapshots.
func (db *DB) LatestSnapshotTick(runID string) (int, bool, error) {
	var tick int
	err := db.conn.Get(&tick,
		"SELECT tick FROM snapshots WHERE run_id = ? ORDER BY tick DESC LIMIT 1", runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("latest snapshot: %w", err)
	}
	return tick, true, nil
}
