package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/epaper/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// An in-memory database exists per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// RecordDispatch inserts a send attempt. A UUID is generated if ID is
// empty and CreatedAt defaults to now.
func (s *SQLiteStore) RecordDispatch(ctx context.Context, d model.Dispatch) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	if d.Outcome != model.OutcomeSuccess && d.Outcome != model.OutcomeFailure {
		return fmt.Errorf("invalid dispatch outcome %q", d.Outcome)
	}
	d.CreatedAt = d.CreatedAt.UTC()

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO dispatches (
			id, file_id, file_name, to_address, outcome, message, created_at
		) VALUES (
			:id, :file_id, :file_name, :to_address, :outcome, :message, :created_at
		)`, d)
	if err != nil {
		return fmt.Errorf("recording dispatch %s: %w", d.ID, err)
	}
	return nil
}

// GetDispatches retrieves send attempts matching filter, newest first.
func (s *SQLiteStore) GetDispatches(
	ctx context.Context,
	filter DispatchFilter,
) ([]model.Dispatch, error) {
	var conditions []string
	var args []interface{}

	if filter.FileID != nil {
		conditions = append(conditions, "file_id = ?")
		args = append(args, *filter.FileID)
	}
	if filter.Outcome != nil {
		conditions = append(conditions, "outcome = ?")
		args = append(args, *filter.Outcome)
	}

	query := "SELECT id, file_id, file_name, to_address, outcome, message, created_at FROM dispatches"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	var dispatches []model.Dispatch
	if err := s.db.SelectContext(ctx, &dispatches, query, args...); err != nil {
		return nil, fmt.Errorf("querying dispatches: %w", err)
	}
	return dispatches, nil
}

// GetDispatchByID retrieves a single send attempt.
func (s *SQLiteStore) GetDispatchByID(ctx context.Context, id string) (*model.Dispatch, error) {
	var d model.Dispatch
	err := s.db.GetContext(ctx, &d,
		"SELECT id, file_id, file_name, to_address, outcome, message, created_at FROM dispatches WHERE id = ?",
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting dispatch %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting dispatch %s: %w", id, err)
	}
	return &d, nil
}

// PruneDispatches deletes all but the newest keep attempts and returns the
// number of rows removed.
func (s *SQLiteStore) PruneDispatches(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM dispatches WHERE id NOT IN (
			SELECT id FROM dispatches ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning dispatches: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned dispatches: %w", err)
	}
	return n, nil
}
