// postgres.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	integrations "github.com/TFMV/attemptgen/integrations"
	"github.com/TFMV/attemptgen/pkg/params"
	"github.com/TFMV/attemptgen/pkg/schema"
)

// Ensure Postgres implements Store.
var _ integrations.Store = (*Postgres)(nil)

func init() {
	integrations.Register("postgres", func(ctx context.Context, opts ...integrations.Option) (integrations.Store, error) {
		return NewPostgres(ctx, opts...)
	})
}

// Postgres stores payment attempts through a pgx connection pool.
type Postgres struct {
	pool  *pgxpool.Pool
	opts  integrations.Options
	stmts integrations.Statements
	log   *zap.Logger
}

// NewPostgres creates a pool for the URL in the Path option and pings it.
func NewPostgres(ctx context.Context, options ...integrations.Option) (*Postgres, error) {
	opts := integrations.Resolve(options...)
	stmts, err := opts.Render(schema.Postgres)
	if err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	opts.Logger.Debug("store opened",
		zap.String("dialect", string(schema.Postgres)),
		zap.String("host", cfg.ConnConfig.Host),
		zap.String("table", opts.Table))
	return &Postgres{pool: pool, opts: opts, stmts: stmts, log: opts.Logger}, nil
}

func (p *Postgres) Dialect() schema.Dialect { return schema.Postgres }

func (p *Postgres) CreateTable(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, p.stmts.Create); err != nil {
		return fmt.Errorf("postgres: create table %s: %w", p.opts.Table, describe(err))
	}
	return nil
}

// Insert binds the list to $1..$n. Null parameters are sent as SQL NULL.
func (p *Postgres) Insert(ctx context.Context, list params.List) error {
	if err := integrations.CheckList(p.opts.Schema, list); err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx, p.stmts.Insert, list.Values()...)
	if err != nil {
		return fmt.Errorf("postgres: insert: %w", describe(err))
	}
	p.log.Debug("attempt inserted", zap.String("table", p.opts.Table), zap.Int64("rows", tag.RowsAffected()))
	return nil
}

func (p *Postgres) Fetch(ctx context.Context, paymentID, attemptID string) (arrow.Record, error) {
	rows, err := p.pool.Query(ctx, p.stmts.Select, paymentID, attemptID)
	if err != nil {
		return nil, fmt.Errorf("postgres: select: %w", describe(err))
	}
	values, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) ([]any, error) {
		return row.Values()
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: read rows: %w", describe(err))
	}
	if len(values) == 0 {
		return nil, integrations.ErrNotFound
	}
	return params.RowsToRecord(p.opts.Allocator, p.opts.Schema, values)
}

// Close closes every pooled connection.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// describe adds the server's SQLSTATE to errors raised by Postgres.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w (sqlstate %s)", err, pgErr.Code)
	}
	return err
}
