package integrations

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/TFMV/attemptgen/pkg/attempt"
	"github.com/TFMV/attemptgen/pkg/params"
	"github.com/TFMV/attemptgen/pkg/schema"
)

// DefaultTable is the table payment attempts are written to.
const DefaultTable = "payment_attempt"

// PrimaryKey identifies one stored attempt.
var PrimaryKey = []string{"payment_id", "attempt_id"}

// ErrNotFound is returned by Fetch when no row has the requested key.
var ErrNotFound = errors.New("payment attempt not found")

// Store persists encoded payment attempts and reads them back by key.
type Store interface {
	// CreateTable creates the attempt table if it does not exist.
	CreateTable(ctx context.Context) error
	// Insert writes one encoded record, binding each parameter by position.
	Insert(ctx context.Context, list params.List) error
	// Fetch returns the single row keyed by (payment_id, attempt_id) as a
	// one-row record in the store's column schema. The caller releases it.
	Fetch(ctx context.Context, paymentID, attemptID string) (arrow.Record, error)
	// Dialect names the SQL flavour the store speaks.
	Dialect() schema.Dialect
	Close() error
}

// Options configure a Store.
type Options struct {
	// Path is the connection URI or DSN; "" means in-memory where supported.
	Path string

	// DriverPath is the location of an ADBC driver library, if empty => auto-detect
	DriverPath string

	// Table is the target table, DefaultTable when empty.
	Table string

	// Schema is the column schema, attempt.Schema() when nil.
	Schema *arrow.Schema

	// Context for opening the database and its connections
	Context context.Context

	Logger    *zap.Logger
	Allocator memory.Allocator
}

// Option is a functional config approach.
type Option func(*Options)

// WithPath sets the connection URI or DSN.
func WithPath(p string) Option {
	return func(o *Options) {
		o.Path = p
	}
}

// WithDriverPath sets the path to an ADBC driver library.
func WithDriverPath(p string) Option {
	return func(o *Options) {
		o.DriverPath = p
	}
}

// WithTable sets the target table name.
func WithTable(name string) Option {
	return func(o *Options) {
		o.Table = name
	}
}

// WithSchema replaces the default column schema.
func WithSchema(s *arrow.Schema) Option {
	return func(o *Options) {
		o.Schema = s
	}
}

// WithContext sets a custom Context for DB usage.
func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		o.Context = ctx
	}
}

// WithLogger sets the logger stores report to.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithAllocator sets the allocator fetched records are built with.
func WithAllocator(mem memory.Allocator) Option {
	return func(o *Options) {
		o.Allocator = mem
	}
}

// Resolve applies opts over the defaults.
func Resolve(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.Context == nil {
		o.Context = context.Background()
	}
	if o.Table == "" {
		o.Table = DefaultTable
	}
	if o.Schema == nil {
		o.Schema = attempt.Schema()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Allocator == nil {
		o.Allocator = memory.DefaultAllocator
	}
	return o
}

// TableDef is the DDL description of the configured table.
func (o Options) TableDef() schema.Table {
	return schema.Table{Name: o.Table, Schema: o.Schema, PrimaryKey: PrimaryKey}
}

// Statements renders the three statements every SQL store runs.
type Statements struct {
	Create string
	Insert string
	Select string
}

// Render builds the statements for the configured table in dialect d.
func (o Options) Render(d schema.Dialect) (Statements, error) {
	t := o.TableDef()
	var st Statements
	var err error
	if st.Create, err = schema.CreateTableSQL(t, d); err != nil {
		return st, err
	}
	if st.Insert, err = schema.InsertSQL(t, d); err != nil {
		return st, err
	}
	if st.Select, err = schema.SelectSQL(t, d); err != nil {
		return st, err
	}
	return st, nil
}

// CheckList verifies that list has one entry per column of s, in order.
func CheckList(s *arrow.Schema, list params.List) error {
	if len(list) != s.NumFields() {
		return fmt.Errorf("%w: %d parameters for %d columns", params.ErrSchemaMismatch, len(list), s.NumFields())
	}
	for i, p := range list {
		if p.Index != i || p.Column != s.Field(i).Name {
			return fmt.Errorf("%w: parameter %d is %s, column is %s", params.ErrSchemaMismatch, i, p.Column, s.Field(i).Name)
		}
	}
	return nil
}

// OpenFunc opens a Store of one kind.
type OpenFunc func(ctx context.Context, opts ...Option) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]OpenFunc{}
)

// Register makes a store kind available to Open. Backends call it from init.
func Register(kind string, fn OpenFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[kind]; dup {
		panic("integrations: store kind registered twice: " + kind)
	}
	registry[kind] = fn
}

// Open opens a registered store kind.
func Open(ctx context.Context, kind string, opts ...Option) (Store, error) {
	registryMu.RLock()
	fn, ok := registry[kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown store kind %q (have %v)", kind, Kinds())
	}
	return fn(ctx, opts...)
}

// Kinds lists the registered store kinds.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
