// Package sqldb implements the record store on SQL databases, with
// per-dialect SQL for SQLite, PostgreSQL, and MySQL.
package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/tjfontaine/plume/internal/storage"
	"github.com/tjfontaine/plume/internal/storage/dialect"
)

// Store is a SQL implementation of storage.Store. Each store owns a single
// table, so several services can share one database. Records are kept as
// JSON documents in a text column; filters compare extracted fields.
type Store struct {
	db      *sqlx.DB
	dialect dialect.Dialect
	table   string
}

// Ensure Store implements the interface
var _ storage.Store = (*Store)(nil)

var validTable = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Config holds database connection configuration.
type Config struct {
	Driver string // Driver name: sqlite, postgres, mysql
	DSN    string // Data source name / connection string
	Table  string // Table holding this store's records
}

// New creates a record store with the specified configuration. The table
// name is interpolated into SQL, so it is restricted to a safe identifier
// form. Only the sqlite driver ships with this module; postgres and mysql
// require the importing program to register a driver.
func New(cfg Config) (*Store, error) {
	if !validTable.MatchString(cfg.Table) {
		return nil, fmt.Errorf("invalid table name %q", cfg.Table)
	}

	d, err := dialect.FromDriverName(cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("unsupported database driver: %w", err)
	}

	db, err := sqlx.Open(d.DriverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Run dialect-specific initialization (e.g., PRAGMA for SQLite)
	for _, stmt := range d.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute init statement: %w", err)
		}
	}

	store := &Store{db: db, dialect: d, table: cfg.Table}

	// Initialize schema
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Dialect returns the dialect being used
func (s *Store) Dialect() dialect.Dialect {
	return s.dialect
}

func (s *Store) initSchema() error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			data %s NOT NULL,
			created_at %s NOT NULL,
			updated_at %s NOT NULL
		)`, s.table, s.dialect.TextType(), s.dialect.TimestampType(), s.dialect.TimestampType()),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_created ON %s(created_at)`, s.table, s.table),
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

type recordRow struct {
	ID        string    `db:"id"`
	Data      string    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *recordRow) toRecord() (*storage.Record, error) {
	rec := &storage.Record{
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(r.Data), &rec.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record data: %w", err)
	}
	return rec, nil
}

func marshalData(data map[string]any) (string, error) {
	if data == nil {
		data = map[string]any{}
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record data: %w", err)
	}
	return string(encoded), nil
}

func (s *Store) List(ctx context.Context, opts storage.ListOptions) ([]*storage.Record, error) {
	query := fmt.Sprintf(`SELECT id, data, created_at, updated_at FROM %s`, s.table)
	var args []any

	// Filter values are strings; extracting a JSON string field yields
	// text, so the comparison below matches the memory store's equality
	// semantics.
	var clauses []string
	for field, want := range opts.Filter {
		expr, arg := s.dialect.JSONField("data", field)
		clauses = append(clauses, expr+" = ?")
		args = append(args, arg, want)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY created_at ASC, id ASC"
	switch {
	case opts.Limit > 0:
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	case opts.Offset > 0:
		query += " " + s.dialect.OffsetOnlyClause()
		args = append(args, opts.Offset)
	}

	var rows []recordRow
	if err := s.db.SelectContext(ctx, &rows, s.dialect.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	records := make([]*storage.Record, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func (s *Store) Get(ctx context.Context, id string) (*storage.Record, error) {
	query := fmt.Sprintf(`SELECT id, data, created_at, updated_at FROM %s WHERE id = ?`, s.table)

	var row recordRow
	err := s.db.GetContext(ctx, &row, s.dialect.Rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return row.toRecord()
}

func (s *Store) Create(ctx context.Context, rec *storage.Record) (*storage.Record, error) {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}

	data, err := marshalData(rec.Data)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	query := fmt.Sprintf(`INSERT INTO %s (id, data, created_at, updated_at) VALUES (?, ?, ?, ?)`, s.table)

	if _, err := s.db.ExecContext(ctx, s.dialect.Rebind(query), id, data, now, now); err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return nil, fmt.Errorf("record %s: %w", id, storage.ErrExists)
		}
		return nil, fmt.Errorf("failed to create record: %w", err)
	}

	return s.Get(ctx, id)
}

func (s *Store) Update(ctx context.Context, rec *storage.Record) (*storage.Record, error) {
	data, err := marshalData(rec.Data)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`UPDATE %s SET data = ?, updated_at = ? WHERE id = ?`, s.table)
	result, err := s.db.ExecContext(ctx, s.dialect.Rebind(query), data, time.Now().UTC(), rec.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("record %s: %w", rec.ID, storage.ErrNotFound)
	}

	return s.Get(ctx, rec.ID)
}

func (s *Store) Patch(ctx context.Context, id string, changes map[string]any) (*storage.Record, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`SELECT id, data, created_at, updated_at FROM %s WHERE id = ?`, s.table)

	var row recordRow
	err = tx.GetContext(ctx, &row, s.dialect.Rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	rec, err := row.toRecord()
	if err != nil {
		return nil, err
	}
	if rec.Data == nil {
		rec.Data = make(map[string]any)
	}
	for field, value := range changes {
		rec.Data[field] = value
	}

	data, err := marshalData(rec.Data)
	if err != nil {
		return nil, err
	}

	update := fmt.Sprintf(`UPDATE %s SET data = ?, updated_at = ? WHERE id = ?`, s.table)
	if _, err := tx.ExecContext(ctx, s.dialect.Rebind(update), data, time.Now().UTC(), id); err != nil {
		return nil, fmt.Errorf("failed to patch record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.Get(ctx, id)
}

func (s *Store) Delete(ctx context.Context, id string) (*storage.Record, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`SELECT id, data, created_at, updated_at FROM %s WHERE id = ?`, s.table)

	var row recordRow
	err = tx.GetContext(ctx, &row, s.dialect.Rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	del := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.table)
	if _, err := tx.ExecContext(ctx, s.dialect.Rebind(del), id); err != nil {
		return nil, fmt.Errorf("failed to delete record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return row.toRecord()
}

func (s *Store) Close() error {
	return s.db.Close()
}
