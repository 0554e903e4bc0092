// Package adbcstore implements integrations.Store on the Arrow ADBC driver
// manager. Parameters are bound as a one-row Arrow record, so the same code
// drives the PostgreSQL and DuckDB drivers.
package adbcstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-adbc/go/adbc/drivermgr"
	"github.com/apache/arrow-go/v18/arrow"
	"go.uber.org/zap"

	integrations "github.com/TFMV/attemptgen/integrations"
	"github.com/TFMV/attemptgen/pkg/params"
	"github.com/TFMV/attemptgen/pkg/schema"
)

var errClosed = errors.New("adbc: store is closed")

// Ensure Store implements integrations.Store.
var _ integrations.Store = (*Store)(nil)

func init() {
	for _, d := range []schema.Dialect{schema.Postgres, schema.DuckDB} {
		integrations.Register("adbc-"+string(d), func(ctx context.Context, opts ...integrations.Option) (integrations.Store, error) {
			return Open(ctx, d, opts...)
		})
	}
}

// handle owns the database and its connection. It is kept apart from Store so
// a cleanup can close it once the Store is unreachable.
type handle struct {
	mu   sync.Mutex
	db   adbc.Database
	conn adbc.Connection
}

func (h *handle) close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conn == nil {
		return nil
	}
	cerr := h.conn.Close()
	derr := h.db.Close()
	h.conn, h.db = nil, nil
	if cerr != nil {
		return cerr
	}
	return derr
}

// Store runs attempt statements over one ADBC connection.
type Store struct {
	h       *handle
	dialect schema.Dialect
	opts    integrations.Options
	stmts   integrations.Statements
	keys    *arrow.Schema
	log     *zap.Logger
}

// DefaultDriverPath guesses where the driver library for d is installed.
func DefaultDriverPath(d schema.Dialect) string {
	lib := map[schema.Dialect][3]string{
		schema.Postgres: {"/usr/local/lib/libadbc_driver_postgresql.dylib", "/usr/local/lib/libadbc_driver_postgresql.so", "/Downloads/postgresql-windows-amd64/postgresql.dll"},
		schema.DuckDB:   {"/usr/local/lib/libduckdb.dylib", "/usr/local/lib/libduckdb.so", "/Downloads/duckdb-windows-amd64/duckdb.dll"},
	}[d]
	switch runtime.GOOS {
	case "darwin":
		return lib[0]
	case "linux":
		return lib[1]
	case "windows":
		if home, err := os.UserHomeDir(); err == nil {
			return home + lib[2]
		}
	}
	return ""
}

func databaseOptions(d schema.Dialect, opts integrations.Options) (map[string]string, error) {
	dPath := opts.DriverPath
	if dPath == "" {
		dPath = DefaultDriverPath(d)
	}
	switch d {
	case schema.Postgres:
		return map[string]string{
			"driver":          dPath,
			adbc.OptionKeyURI: opts.Path,
		}, nil
	case schema.DuckDB:
		dbOpts := map[string]string{
			"driver":     dPath,
			"entrypoint": "duckdb_adbc_init",
		}
		if opts.Path != "" {
			dbOpts["path"] = opts.Path
		}
		return dbOpts, nil
	default:
		return nil, fmt.Errorf("adbc: unsupported dialect %s", d)
	}
}

// Open loads the driver for d and opens a connection.
func Open(ctx context.Context, d schema.Dialect, options ...integrations.Option) (*Store, error) {
	opts := integrations.Resolve(options...)
	dbOpts, err := databaseOptions(d, opts)
	if err != nil {
		return nil, err
	}
	stmts, err := opts.Render(d)
	if err != nil {
		return nil, err
	}
	keys, err := keySchema(opts)
	if err != nil {
		return nil, err
	}

	driver := drivermgr.Driver{}
	db, err := driver.NewDatabase(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("error creating new %s database: %w", d, err)
	}
	conn, err := db.Open(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	s := &Store{
		h:       &handle{db: db, conn: conn},
		dialect: d,
		opts:    opts,
		stmts:   stmts,
		keys:    keys,
		log:     opts.Logger,
	}
	runtime.AddCleanup(s, func(h *handle) { h.close() }, s.h)

	opts.Logger.Debug("store opened",
		zap.String("dialect", string(d)),
		zap.String("driver", dbOpts["driver"]),
		zap.String("table", opts.Table))
	return s, nil
}

func keySchema(opts integrations.Options) (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(integrations.PrimaryKey))
	for i, k := range integrations.PrimaryKey {
		idx := opts.Schema.FieldIndices(k)
		if len(idx) != 1 {
			return nil, fmt.Errorf("adbc: key column %s not in schema", k)
		}
		fields[i] = opts.Schema.Field(idx[0])
	}
	return arrow.NewSchema(fields, nil), nil
}

func (s *Store) Dialect() schema.Dialect { return s.dialect }

// exec runs sql, binding rec when it is not nil.
func (s *Store) exec(ctx context.Context, sql string, rec arrow.Record) (int64, error) {
	s.h.mu.Lock()
	defer s.h.mu.Unlock()
	if s.h.conn == nil {
		return -1, errClosed
	}

	stmt, err := s.h.conn.NewStatement()
	if err != nil {
		return -1, fmt.Errorf("failed to create statement: %w", err)
	}
	defer stmt.Close()

	if err := stmt.SetSqlQuery(sql); err != nil {
		return -1, fmt.Errorf("failed to set SQL query: %w", err)
	}
	if rec != nil {
		if err := stmt.Bind(ctx, rec); err != nil {
			return -1, fmt.Errorf("failed to bind parameters: %w", err)
		}
	}
	return stmt.ExecuteUpdate(ctx)
}

func (s *Store) CreateTable(ctx context.Context) error {
	if _, err := s.exec(ctx, s.stmts.Create, nil); err != nil {
		return fmt.Errorf("%s: create table %s: %w", s.dialect, s.opts.Table, err)
	}
	return nil
}

// Insert binds the list as a one-row record, column i to parameter i+1.
func (s *Store) Insert(ctx context.Context, list params.List) error {
	if err := integrations.CheckList(s.opts.Schema, list); err != nil {
		return err
	}
	rec, err := params.ToRecord(s.opts.Allocator, s.opts.Schema, list)
	if err != nil {
		return err
	}
	defer rec.Release()

	affected, err := s.exec(ctx, s.stmts.Insert, rec)
	if err != nil {
		return fmt.Errorf("%s: insert: %w", s.dialect, err)
	}
	s.log.Debug("attempt inserted", zap.String("table", s.opts.Table), zap.Int64("rows", affected))
	return nil
}

func (s *Store) Fetch(ctx context.Context, paymentID, attemptID string) (arrow.Record, error) {
	keys, err := params.RowsToRecord(s.opts.Allocator, s.keys, [][]any{{paymentID, attemptID}})
	if err != nil {
		return nil, err
	}
	defer keys.Release()

	rows, err := s.query(ctx, s.stmts.Select, keys)
	if err != nil {
		return nil, fmt.Errorf("%s: select: %w", s.dialect, err)
	}
	if len(rows) == 0 {
		return nil, integrations.ErrNotFound
	}
	return params.RowsToRecord(s.opts.Allocator, s.opts.Schema, rows)
}

// query runs sql and flattens the result into rows of Go values so that
// driver-specific column types are normalised by params.RowsToRecord.
func (s *Store) query(ctx context.Context, sql string, bind arrow.Record) ([][]any, error) {
	s.h.mu.Lock()
	defer s.h.mu.Unlock()
	if s.h.conn == nil {
		return nil, errClosed
	}

	stmt, err := s.h.conn.NewStatement()
	if err != nil {
		return nil, fmt.Errorf("failed to create statement: %w", err)
	}
	defer stmt.Close()

	if err := stmt.SetSqlQuery(sql); err != nil {
		return nil, fmt.Errorf("failed to set SQL query: %w", err)
	}
	if err := stmt.Bind(ctx, bind); err != nil {
		return nil, fmt.Errorf("failed to bind parameters: %w", err)
	}
	rr, _, err := stmt.ExecuteQuery(ctx)
	if err != nil {
		return nil, err
	}
	defer rr.Release()

	var rows [][]any
	for rr.Next() {
		rows = append(rows, flatten(rr.Record())...)
	}
	return rows, rr.Err()
}

func flatten(rec arrow.Record) [][]any {
	rows := make([][]any, rec.NumRows())
	for r := range rows {
		row := make([]any, rec.NumCols())
		for c, col := range rec.Columns() {
			if col.IsNull(r) {
				continue
			}
			row[c] = col.GetOneForMarshal(r)
		}
		rows[r] = row
	}
	return rows
}

// Close closes the connection and the database.
func (s *Store) Close() error {
	return s.h.close()
}
