package adapters

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	ports "github.com/ZanzyTHEbar/apimemo/apimemo/client/ports"
)

// LibSQLLedger implements Ledger on the dispatches table created by the db
// package migrations.
type LibSQLLedger struct {
	db *sql.DB
}

// NewLibSQLLedger creates a ledger on an already migrated database.
func NewLibSQLLedger(db *sql.DB) *LibSQLLedger {
	return &LibSQLLedger{db: db}
}

// Record appends one dispatch.
func (l *LibSQLLedger) Record(ctx context.Context, d ports.Dispatch) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO dispatches (id, cache_key, url, status_code, error, duration_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := l.db.ExecContext(ctx, query,
		d.ID, d.Key, d.URL, d.StatusCode, d.Error, d.Duration.Nanoseconds(), d.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record dispatch: %w", err)
	}
	return nil
}

// Recent returns the last limit dispatches, newest first.
func (l *LibSQLLedger) Recent(ctx context.Context, limit int) ([]ports.Dispatch, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `
		SELECT id, cache_key, url, status_code, error, duration_ns, created_at
		FROM dispatches
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query dispatches: %w", err)
	}
	defer rows.Close()

	var out []ports.Dispatch
	for rows.Next() {
		var (
			d          ports.Dispatch
			durationNs int64
			createdNs  int64
		)
		if err := rows.Scan(&d.ID, &d.Key, &d.URL, &d.StatusCode, &d.Error, &durationNs, &createdNs); err != nil {
			return nil, fmt.Errorf("failed to scan dispatch: %w", err)
		}
		d.Duration = time.Duration(durationNs)
		d.CreatedAt = time.Unix(0, createdNs)
		out = append(out, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dispatches: %w", err)
	}
	return out, nil
}

// Ensure LibSQLLedger implements the Ledger interface.
var _ ports.Ledger = (*LibSQLLedger)(nil)
