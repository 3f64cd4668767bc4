/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/suparena/widerow/consistency"
	"github.com/suparena/widerow/storagemodels"
)

//go:embed schema.sql
var schemaSQL string

// currentSchemaVersion is stored in PRAGMA user_version.
const currentSchemaVersion = 1

// Options tunes the driver.
type Options struct {
	// Logger receives driver diagnostics (default: slog.Default())
	Logger *slog.Logger
	// Now is the clock used for TTL computation and filtering (default: time.Now)
	Now func() time.Time
}

// Option is a functional option for configuring the driver
type Option func(*Options)

// WithLogger sets the driver logger
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		if logger != nil {
			opts.Logger = logger
		}
	}
}

// WithClock sets the clock used for TTLs
func WithClock(now func() time.Time) Option {
	return func(opts *Options) {
		opts.Now = now
	}
}

// Driver implements datastore.Driver on a SQLite database. Each column is one
// table row keyed by (column family, row key, name).
type Driver struct {
	db     *sql.DB
	now    func() time.Time
	logger *slog.Logger
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Open creates or opens a SQLite database at path and applies the schema.
// Use ":memory:" for a throwaway database.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
func Open(path string, opts ...Option) (*Driver, error) {
	options := Options{Logger: slog.Default(), Now: time.Now}
	for _, opt := range opts {
		opt(&options)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite has a single writer, and every ":memory:" connection is its own
	// database, so keep exactly one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	d := &Driver{
		db:     db,
		now:    options.Now,
		logger: options.Logger.With("component", "sqlite", "path", path),
	}
	d.logger.Info("sqlite driver initialized")
	return d, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// DB returns the underlying sql.DB.
func (d *Driver) DB() *sql.DB {
	return d.db
}

func (d *Driver) expiresAt(ttl int32) any {
	if ttl <= 0 {
		return nil
	}
	return d.now().Add(time.Duration(ttl) * time.Second).Unix()
}

// trace logs the level an operation runs under. SQLite is a single replica,
// so every level is satisfied locally.
func (d *Driver) trace(ctx context.Context, op, columnFamily string) {
	d.logger.Debug("sqlite op", "op", op, "column_family", columnFamily, "level", consistency.FromContext(ctx).String())
}

// Get retrieves a single column.
func (d *Driver) Get(ctx context.Context, columnFamily string, rowKey, name []byte) (storagemodels.Column, bool, error) {
	d.trace(ctx, "get", columnFamily)
	now := d.now().Unix()

	var (
		value     []byte
		expiresAt sql.NullInt64
	)
	err := d.db.QueryRowContext(ctx, `
		SELECT value, expires_at FROM columns
		WHERE cf = ? AND row_key = ? AND name = ?
		  AND (expires_at IS NULL OR expires_at > ?)
	`, columnFamily, rowKey, name, now).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return storagemodels.Column{}, false, nil
	}
	if err != nil {
		return storagemodels.Column{}, false, fmt.Errorf("get column: %w", err)
	}
	return storagemodels.Column{Name: name, Value: value, TTL: remaining(expiresAt, now)}, true, nil
}

func remaining(expiresAt sql.NullInt64, now int64) int32 {
	if !expiresAt.Valid {
		return 0
	}
	return int32(expiresAt.Int64 - now)
}

// Set writes a single column.
func (d *Driver) Set(ctx context.Context, columnFamily string, rowKey []byte, col storagemodels.Column) error {
	d.trace(ctx, "set", columnFamily)
	if err := d.set(ctx, d.db, columnFamily, rowKey, col); err != nil {
		return fmt.Errorf("set column: %w", err)
	}
	return nil
}

func (d *Driver) set(ctx context.Context, ex execer, columnFamily string, rowKey []byte, col storagemodels.Column) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO columns (cf, row_key, name, value, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(cf, row_key, name) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at
	`, columnFamily, rowKey, col.Name, col.Value, d.expiresAt(col.TTL))
	return err
}

// Delete removes a column or a counter.
func (d *Driver) Delete(ctx context.Context, columnFamily string, rowKey, name []byte) error {
	d.trace(ctx, "delete", columnFamily)
	if err := deleteColumn(ctx, d.db, columnFamily, rowKey, name); err != nil {
		return fmt.Errorf("delete column: %w", err)
	}
	return nil
}

func deleteColumn(ctx context.Context, ex execer, columnFamily string, rowKey, name []byte) error {
	for _, table := range []string{"columns", "counters"} {
		_, err := ex.ExecContext(ctx,
			"DELETE FROM "+table+" WHERE cf = ? AND row_key = ? AND name = ?",
			columnFamily, rowKey, name)
		if err != nil {
			return err
		}
	}
	return nil
}

// Slice returns the columns admitted by q in name order.
func (d *Driver) Slice(ctx context.Context, q storagemodels.SliceQuery) ([]storagemodels.Column, error) {
	d.trace(ctx, "slice", q.ColumnFamily)
	now := d.now().Unix()

	var (
		where = []string{"cf = ?", "row_key = ?", "(expires_at IS NULL OR expires_at > ?)"}
		args  = []any{q.ColumnFamily, q.RowKey, now}
	)
	if lo := q.Bounds.Lower(); len(lo) > 0 {
		where = append(where, "name >= ?")
		args = append(args, lo)
	}
	if hi := q.Bounds.Upper(); len(hi) > 0 {
		where = append(where, "name <= ?")
		args = append(args, hi)
	}
	order := "ASC"
	if len(q.After) > 0 {
		if q.Reversed() {
			where = append(where, "name < ?")
		} else {
			where = append(where, "name > ?")
		}
		args = append(args, q.After)
	}
	if q.Reversed() {
		order = "DESC"
	}
	limit := -1
	if q.Limit > 0 {
		limit = q.Limit
	}
	args = append(args, limit)

	query := "SELECT name, value, expires_at FROM columns WHERE " +
		strings.Join(where, " AND ") +
		" ORDER BY name " + order + " LIMIT ?"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("slice columns: %w", err)
	}
	defer rows.Close()

	results := make([]storagemodels.Column, 0)
	for rows.Next() {
		var (
			col       storagemodels.Column
			expiresAt sql.NullInt64
		)
		if err := rows.Scan(&col.Name, &col.Value, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		col.TTL = remaining(expiresAt, now)
		results = append(results, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return results, nil
}

// Mutate applies a batch of mutations in one transaction.
func (d *Driver) Mutate(ctx context.Context, mutations []storagemodels.Mutation) error {
	if len(mutations) == 0 {
		return nil
	}
	d.trace(ctx, "mutate", mutations[0].ColumnFamily)

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range mutations {
		switch m.Kind {
		case storagemodels.MutationSet:
			err = d.set(ctx, tx, m.ColumnFamily, m.RowKey, m.Column)
		case storagemodels.MutationDelete:
			err = deleteColumn(ctx, tx, m.ColumnFamily, m.RowKey, m.Column.Name)
		case storagemodels.MutationCounterAdd:
			err = counterAdd(ctx, tx, m.ColumnFamily, m.RowKey, m.Column.Name, m.Delta)
		default:
			err = fmt.Errorf("unsupported mutation kind %v", m.Kind)
		}
		if err != nil {
			return fmt.Errorf("mutate %s: %w", m.Kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// CounterAdd atomically adds delta to a counter column.
func (d *Driver) CounterAdd(ctx context.Context, columnFamily string, rowKey, name []byte, delta int64) error {
	d.trace(ctx, "counter_add", columnFamily)
	if err := counterAdd(ctx, d.db, columnFamily, rowKey, name, delta); err != nil {
		return fmt.Errorf("counter add: %w", err)
	}
	return nil
}

func counterAdd(ctx context.Context, ex execer, columnFamily string, rowKey, name []byte, delta int64) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO counters (cf, row_key, name, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(cf, row_key, name) DO UPDATE SET value = value + excluded.value
	`, columnFamily, rowKey, name, delta)
	return err
}

// CounterGet returns the value of a counter column, zero when absent.
func (d *Driver) CounterGet(ctx context.Context, columnFamily string, rowKey, name []byte) (int64, error) {
	d.trace(ctx, "counter_get", columnFamily)
	var v int64
	err := d.db.QueryRowContext(ctx,
		"SELECT value FROM counters WHERE cf = ? AND row_key = ? AND name = ?",
		columnFamily, rowKey, name).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("counter get: %w", err)
	}
	return v, nil
}

// PurgeExpired deletes every column whose TTL has passed and returns how many
// were removed. Reads already hide expired columns.
func (d *Driver) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := d.db.ExecContext(ctx,
		"DELETE FROM columns WHERE expires_at IS NOT NULL AND expires_at <= ?", d.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge expired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge expired: %w", err)
	}
	if n > 0 {
		d.logger.Debug("purged expired columns", "count", n)
	}
	return n, nil
}

// Close closes the database connection.
func (d *Driver) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}
