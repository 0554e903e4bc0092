package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// Dialect selects SQL types, placeholders and CREATE syntax.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
	MySQL    Dialect = "mysql"
	MSSQL    Dialect = "mssql"
	DuckDB   Dialect = "duckdb"
)

// ParseDialect accepts the dialect names above plus a few driver aliases.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	case "mssql", "sqlserver":
		return MSSQL, nil
	case "duckdb":
		return DuckDB, nil
	default:
		return "", fmt.Errorf("unknown SQL dialect %q", s)
	}
}

// Placeholder renders the positional parameter marker for 1-based index n.
func (d Dialect) Placeholder(n int) string {
	switch d {
	case Postgres, DuckDB:
		return fmt.Sprintf("$%d", n)
	case MSSQL:
		return fmt.Sprintf("@p%d", n)
	default:
		return "?"
	}
}

// SQLType maps an Arrow column type onto the dialect. Key columns need a
// bounded string type on MySQL and SQL Server.
func (d Dialect) SQLType(t arrow.DataType, key bool) (string, error) {
	switch t.ID() {
	case arrow.STRING:
		switch d {
		case MySQL:
			if key {
				return "VARCHAR(64)", nil
			}
			return "TEXT", nil
		case MSSQL:
			if key {
				return "NVARCHAR(64)", nil
			}
			return "NVARCHAR(MAX)", nil
		case DuckDB:
			return "VARCHAR", nil
		default:
			return "TEXT", nil
		}
	case arrow.INT64:
		if d == SQLite {
			return "INTEGER", nil
		}
		return "BIGINT", nil
	case arrow.INT16:
		if d == SQLite {
			return "INTEGER", nil
		}
		return "SMALLINT", nil
	case arrow.BOOL:
		if d == MSSQL {
			return "BIT", nil
		}
		return "BOOLEAN", nil
	default:
		return "", fmt.Errorf("no %s type for arrow type %s", d, t)
	}
}

// Table is a named column schema with a primary key.
type Table struct {
	Name       string
	Schema     *arrow.Schema
	PrimaryKey []string
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

func (t Table) check() error {
	if !identRe.MatchString(t.Name) {
		return fmt.Errorf("ddl: invalid table name %q", t.Name)
	}
	if t.Schema == nil || t.Schema.NumFields() == 0 {
		return fmt.Errorf("ddl: table %s has no columns", t.Name)
	}
	for _, f := range t.Schema.Fields() {
		if !identRe.MatchString(f.Name) || strings.Contains(f.Name, ".") {
			return fmt.Errorf("ddl: invalid column name %q", f.Name)
		}
	}
	for _, k := range t.PrimaryKey {
		idx := t.Schema.FieldIndices(k)
		if len(idx) == 0 {
			return fmt.Errorf("ddl: primary key column %s not in table %s", k, t.Name)
		}
		if t.Schema.Field(idx[0]).Nullable {
			return fmt.Errorf("ddl: primary key column %s is nullable", k)
		}
	}
	return nil
}

func (t Table) isKey(name string) bool {
	for _, k := range t.PrimaryKey {
		if k == name {
			return true
		}
	}
	return false
}

// CreateTableSQL renders an idempotent CREATE TABLE for t:
//
//	CREATE TABLE IF NOT EXISTS <name> (
//	  <col> <type> [NOT NULL],
//	  ...,
//	  PRIMARY KEY (<keys>)
//	)
//
// SQL Server has no IF NOT EXISTS and gets an OBJECT_ID guard instead.
func CreateTableSQL(t Table, d Dialect) (string, error) {
	if err := t.check(); err != nil {
		return "", err
	}

	cols := make([]string, 0, t.Schema.NumFields()+1)
	for _, f := range t.Schema.Fields() {
		typ, err := d.SQLType(f.Type, t.isKey(f.Name))
		if err != nil {
			return "", fmt.Errorf("ddl: column %s: %w", f.Name, err)
		}
		col := f.Name + " " + typ
		if !f.Nullable {
			col += " NOT NULL"
		}
		cols = append(cols, col)
	}
	if len(t.PrimaryKey) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(t.PrimaryKey, ", ")))
	}
	body := strings.Join(cols, ",\n  ")

	if d == MSSQL {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nCREATE TABLE %s (\n  %s\n)", t.Name, t.Name, body), nil
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", t.Name, body), nil
}

// InsertSQL renders a single-row INSERT with one placeholder per column, in
// schema order.
func InsertSQL(t Table, d Dialect) (string, error) {
	if err := t.check(); err != nil {
		return "", err
	}
	names := make([]string, t.Schema.NumFields())
	marks := make([]string, t.Schema.NumFields())
	for i, f := range t.Schema.Fields() {
		names[i] = f.Name
		marks[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.Name, strings.Join(names, ", "), strings.Join(marks, ", ")), nil
}

// SelectSQL renders a SELECT of every column filtered by the primary key, with
// one placeholder per key column.
func SelectSQL(t Table, d Dialect) (string, error) {
	if err := t.check(); err != nil {
		return "", err
	}
	if len(t.PrimaryKey) == 0 {
		return "", fmt.Errorf("ddl: table %s has no primary key to select by", t.Name)
	}
	names := make([]string, t.Schema.NumFields())
	for i, f := range t.Schema.Fields() {
		names[i] = f.Name
	}
	conds := make([]string, len(t.PrimaryKey))
	for i, k := range t.PrimaryKey {
		conds[i] = fmt.Sprintf("%s = %s", k, d.Placeholder(i+1))
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(names, ", "), t.Name, strings.Join(conds, " AND ")), nil
}
