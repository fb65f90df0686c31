package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zhouzirui/midas-viewer/internal/model/viewer"
)

const defaultHistoryLimit = 100

// SQLiteRecorder persists treasury snapshots to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS treasury_snapshots (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at   INTEGER NOT NULL,
			current_value REAL,
			balance_usd   REAL,
			balance_sol   REAL,
			balance_error INTEGER NOT NULL DEFAULT 0,
			progress      REAL,
			net_change    REAL,
			payload       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_treasury_recorded_at ON treasury_snapshots(recorded_at)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordTreasury stores one snapshot.
func (r *SQLiteRecorder) RecordTreasury(ctx context.Context, at time.Time, snapshot *viewer.TreasurySnapshot) error {
	if snapshot == nil {
		return nil
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	var usd, sol, netChange sql.NullFloat64
	balanceError := 0
	if b := snapshot.Balance; b != nil {
		usd = sql.NullFloat64{Float64: b.USD, Valid: true}
		sol = sql.NullFloat64{Float64: b.SOL, Valid: true}
		if b.Error {
			balanceError = 1
		}
	}
	if l := snapshot.Ledger; l != nil {
		netChange = sql.NullFloat64{Float64: l.NetChange, Valid: true}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO treasury_snapshots
			(recorded_at, current_value, balance_usd, balance_sol, balance_error, progress, net_change, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		at.UTC().UnixMilli(), nullFloat(snapshot.CurrentValue), usd, sol, balanceError,
		nullFloat(snapshot.Progress), netChange, string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert treasury snapshot: %w", err)
	}
	return nil
}

// History returns up to limit snapshots, newest first.
func (r *SQLiteRecorder) History(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, recorded_at, payload FROM treasury_snapshots ORDER BY recorded_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query treasury history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			entry   Entry
			millis  int64
			payload string
		)
		if err := rows.Scan(&entry.ID, &millis, &payload); err != nil {
			return nil, fmt.Errorf("scan treasury history: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &entry.Snapshot); err != nil {
			return nil, fmt.Errorf("decode snapshot %d: %w", entry.ID, err)
		}
		entry.RecordedAt = time.UnixMilli(millis).UTC()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
