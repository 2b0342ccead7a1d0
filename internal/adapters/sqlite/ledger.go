package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"histbeat/internal/domain"
	"histbeat/internal/ports"
)

const schemaVersion = "1"

// DefaultLedgerName selects DefaultLedgerPath when passed as a ledger path
const DefaultLedgerName = "default"

// Ledger implements ports.SentLedger using SQLite
type Ledger struct {
	db     *sql.DB
	path   string
	plugin string
}

// Ensure Ledger implements SentLedger
var _ ports.SentLedger = (*Ledger)(nil)

// OpenLedger opens (creating if needed) the ledger at path. Heartbeats are
// keyed by entity, time and plugin so different plugins never shadow each other.
func OpenLedger(path, plugin string) (*Ledger, error) {
	if path == DefaultLedgerName {
		path = DefaultLedgerPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;

		CREATE TABLE IF NOT EXISTS sent (
			entity TEXT NOT NULL,
			time TEXT NOT NULL,
			plugin TEXT NOT NULL,
			run_id TEXT NOT NULL,
			sent_at INTEGER NOT NULL,
			PRIMARY KEY (entity, time, plugin)
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sent_run ON sent(run_id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup ledger: %w", err)
	}

	if _, err := db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to update metadata: %w", err)
	}

	return &Ledger{db: db, path: path, plugin: plugin}, nil
}

// DefaultLedgerPath returns the ledger location under the XDG data directory
func DefaultLedgerPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "histbeat", "ledger.db")
}

// Path returns the database file backing the ledger
func (l *Ledger) Path() string {
	return l.path
}

// HasSent reports whether hb was recorded by an earlier send
func (l *Ledger) HasSent(hb domain.Heartbeat) (bool, error) {
	var n int
	err := l.db.QueryRow(`
		SELECT COUNT(*) FROM sent
		WHERE entity = ? AND time = ? AND plugin = ?
	`, hb.Entity, hb.TimeString(), l.plugin).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query ledger: %w", err)
	}
	return n > 0, nil
}

// MarkSent records a delivered heartbeat
func (l *Ledger) MarkSent(hb domain.Heartbeat, runID string) error {
	_, err := l.db.Exec(`
		INSERT OR REPLACE INTO sent (entity, time, plugin, run_id, sent_at)
		VALUES (?, ?, ?, ?, ?)
	`, hb.Entity, hb.TimeString(), l.plugin, runID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to record heartbeat: %w", err)
	}
	return nil
}

// Close closes the database connection
func (l *Ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}
