package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const retentionSchema = `
CREATE TABLE IF NOT EXISTS retention (
  id             INTEGER PRIMARY KEY CHECK (id = 1),
  duty_cycle     INTEGER NOT NULL,
  last_activity  INTEGER NOT NULL,
  last_sensor    INTEGER NOT NULL
);
`

// SQLite keeps the retention region in a single-row table, so it survives the
// process re-exec that stands in for a deep sleep on a Linux host.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the retention database at path.
func OpenSQLite(path string) (*SQLite, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return NewSQLite(db)
}

// NewSQLite uses an already opened database, creating the table if missing.
func NewSQLite(db *sql.DB) (*SQLite, error) {
	if _, err := db.Exec(retentionSchema); err != nil {
		return nil, fmt.Errorf("create retention table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Read() (Snapshot, bool, error) {
	var (
		snap   Snapshot
		duty   int
		sensor int
	)
	err := s.db.QueryRow(
		`SELECT duty_cycle, last_activity, last_sensor FROM retention WHERE id = 1`,
	).Scan(&duty, &snap.LastActivityTime, &sensor)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("select retention: %w", err)
	}
	if sensor < 0 || sensor > 0xFF {
		return Snapshot{}, false, fmt.Errorf("retained sensor value %d out of range", sensor)
	}
	snap.DutyCycleEnabled = duty != 0
	snap.LastSensorValue = uint8(sensor)
	return snap, true, nil
}

func (s *SQLite) Write(snap Snapshot) error {
	duty := 0
	if snap.DutyCycleEnabled {
		duty = 1
	}
	_, err := s.db.Exec(`
INSERT INTO retention (id, duty_cycle, last_activity, last_sensor)
VALUES (1, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  duty_cycle = excluded.duty_cycle,
  last_activity = excluded.last_activity,
  last_sensor = excluded.last_sensor`,
		duty, snap.LastActivityTime, int(snap.LastSensorValue))
	if err != nil {
		return fmt.Errorf("upsert retention: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func buildDSN(path string) (string, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	// synchronous=full: the row must be on disk before the process is replaced.
	params := []string{
		"_busy_timeout=5000",
		"_journal_mode=WAL",
		"_synchronous=FULL",
	}

	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
