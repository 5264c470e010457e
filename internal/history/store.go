package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const recordColumns = "id, operation_id, kind, section, entry, outcome, roster_path, backup_path, detail, created_at"

// Store is the SQLite-backed operation ledger.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the ledger at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends records in one transaction. CreatedAt defaults to now.
func (s *Store) Record(ctx context.Context, records ...Record) error {
	if len(records) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin history tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		for _, rec := range records {
			if rec.OperationID == "" || rec.Kind == "" || rec.Outcome == "" {
				return errors.New("history record requires operation id, kind, and outcome")
			}
			created := rec.CreatedAt
			if created.IsZero() {
				created = time.Now()
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO operations (
                    operation_id, kind, section, entry, outcome,
                    roster_path, backup_path, detail, created_at
                ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				rec.OperationID,
				string(rec.Kind),
				nullableString(rec.Section),
				nullableString(rec.Entry),
				string(rec.Outcome),
				nullableString(rec.RosterPath),
				nullableString(rec.BackupPath),
				nullableString(rec.Detail),
				created.UTC().Format(time.RFC3339Nano),
			); err != nil {
				return fmt.Errorf("insert history record: %w", err)
			}
		}
		return tx.Commit()
	})
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+recordColumns+` FROM operations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return scanRecords(rows)
}

// ByOperation returns the records of one operation in insertion order.
func (s *Store) ByOperation(ctx context.Context, operationID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+recordColumns+` FROM operations WHERE operation_id = ? ORDER BY id`, operationID)
	if err != nil {
		return nil, fmt.Errorf("query operation: %w", err)
	}
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	var records []Record
	for rows.Next() {
		var (
			rec        Record
			kind       string
			outcome    string
			section    sql.NullString
			entry      sql.NullString
			rosterPath sql.NullString
			backupPath sql.NullString
			detail     sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&rec.ID, &rec.OperationID, &kind, &section, &entry, &outcome,
			&rosterPath, &backupPath, &detail, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		rec.Kind = Kind(kind)
		rec.Outcome = Outcome(outcome)
		rec.Section = section.String
		rec.Entry = entry.String
		rec.RosterPath = rosterPath.String
		rec.BackupPath = backupPath.String
		rec.Detail = detail.String
		if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
			rec.CreatedAt = created
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return records, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
