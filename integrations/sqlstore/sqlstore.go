// Package sqlstore implements integrations.Store over database/sql for
// SQLite, MySQL and SQL Server.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/microsoft/go-mssqldb/msdsn"
	"go.uber.org/zap"

	// SQL Server driver, registered as "sqlserver".
	_ "github.com/microsoft/go-mssqldb"
	// SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/TFMV/attemptgen/integrations"
	"github.com/TFMV/attemptgen/pkg/params"
	"github.com/TFMV/attemptgen/pkg/schema"
)

var _ integrations.Store = (*Store)(nil)

func init() {
	for _, d := range []schema.Dialect{schema.SQLite, schema.MySQL, schema.MSSQL} {
		integrations.Register(string(d), func(ctx context.Context, opts ...integrations.Option) (integrations.Store, error) {
			return Open(ctx, d, opts...)
		})
	}
}

// Store is a database/sql backed attempt store.
type Store struct {
	db      *sql.DB
	dialect schema.Dialect
	opts    integrations.Options
	stmts   integrations.Statements
	log     *zap.Logger
}

func driverName(d schema.Dialect) (string, error) {
	switch d {
	case schema.SQLite:
		return "sqlite", nil
	case schema.MySQL:
		return "mysql", nil
	case schema.MSSQL:
		return "sqlserver", nil
	default:
		return "", fmt.Errorf("sqlstore: unsupported dialect %s", d)
	}
}

// checkDSN fails fast on malformed DSNs before any network I/O.
func checkDSN(d schema.Dialect, dsn string) (string, error) {
	switch d {
	case schema.SQLite:
		if strings.TrimSpace(dsn) == "" {
			return ":memory:", nil
		}
	case schema.MySQL:
		if _, err := mysql.ParseDSN(dsn); err != nil {
			return "", fmt.Errorf("mysql dsn: %w", err)
		}
	case schema.MSSQL:
		if _, err := msdsn.Parse(dsn); err != nil {
			return "", fmt.Errorf("mssql dsn: %w", err)
		}
	}
	return dsn, nil
}

// Open connects to the database named by the Path option and pings it.
func Open(ctx context.Context, d schema.Dialect, options ...integrations.Option) (*Store, error) {
	opts := integrations.Resolve(options...)
	name, err := driverName(d)
	if err != nil {
		return nil, err
	}
	dsn, err := checkDSN(d, opts.Path)
	if err != nil {
		return nil, err
	}
	stmts, err := opts.Render(d)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", d, err)
	}
	if d == schema.SQLite {
		// Every pooled connection to :memory: would see its own empty database.
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: ping: %w", d, err)
	}

	opts.Logger.Debug("store opened", zap.String("dialect", string(d)), zap.String("table", opts.Table))
	return &Store{db: db, dialect: d, opts: opts, stmts: stmts, log: opts.Logger}, nil
}

func (s *Store) Dialect() schema.Dialect { return s.dialect }

func (s *Store) CreateTable(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.stmts.Create); err != nil {
		return fmt.Errorf("%s: create table %s: %w", s.dialect, s.opts.Table, err)
	}
	return nil
}

// Insert executes the prepared INSERT with the list's values as positional
// arguments. Null parameters are sent as SQL NULL.
func (s *Store) Insert(ctx context.Context, list params.List) error {
	if err := integrations.CheckList(s.opts.Schema, list); err != nil {
		return err
	}
	args := list.Values()
	stmt, err := s.db.PrepareContext(ctx, s.stmts.Insert)
	if err != nil {
		return fmt.Errorf("%s: prepare insert: %w", s.dialect, err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, args...); err != nil {
		return fmt.Errorf("%s: insert: %w", s.dialect, err)
	}
	s.log.Debug("attempt inserted", zap.String("table", s.opts.Table), zap.Int("nulls", list.NullCount()))
	return nil
}

func (s *Store) Fetch(ctx context.Context, paymentID, attemptID string) (arrow.Record, error) {
	rows, err := s.db.QueryContext(ctx, s.stmts.Select, paymentID, attemptID)
	if err != nil {
		return nil, fmt.Errorf("%s: select: %w", s.dialect, err)
	}
	defer rows.Close()

	n := s.opts.Schema.NumFields()
	var out [][]any
	for rows.Next() {
		row := make([]any, n)
		ptrs := make([]any, n)
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", s.dialect, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", s.dialect, err)
	}
	if len(out) == 0 {
		return nil, integrations.ErrNotFound
	}
	return params.RowsToRecord(s.opts.Allocator, s.opts.Schema, out)
}

func (s *Store) Close() error {
	if s.db == nil {
		return errors.New("sqlstore: already closed")
	}
	err := s.db.Close()
	s.db = nil
	return err
}
