package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "payment_id", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "attempt_id", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "amount", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
		{Name: "count", Type: arrow.PrimitiveTypes.Int16, Nullable: true},
		{Name: "confirm", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
	}, nil)
}

func TestRequiredColumnsRule(t *testing.T) {
	s := testSchema()

	// Test valid case
	rule := &RequiredColumnsRule{Columns: []string{"payment_id", "amount"}}
	ok, err := rule.Validate(s)
	assert.True(t, ok)
	assert.NoError(t, err)

	// Test invalid case
	rule = &RequiredColumnsRule{Columns: []string{"payment_id", "currency"}}
	ok, err = rule.Validate(s)
	assert.False(t, ok)
	assert.ErrorContains(t, err, "currency")
}

func TestNotNullRule(t *testing.T) {
	s := testSchema()

	ok, err := (&NotNullRule{Columns: []string{"payment_id", "missing"}}).Validate(s)
	assert.True(t, ok)
	assert.NoError(t, err)

	ok, err = (&NotNullRule{Columns: []string{"count"}}).Validate(s)
	assert.False(t, ok)
	assert.ErrorContains(t, err, "count")
}

func TestColumnTypeRule(t *testing.T) {
	rule := &ColumnTypeRule{Allowed: StorableTypes}

	ok, err := rule.Validate(testSchema())
	assert.True(t, ok)
	assert.NoError(t, err)

	withFloat := arrow.NewSchema([]arrow.Field{{Name: "rate", Type: arrow.PrimitiveTypes.Float64}}, nil)
	ok, err = rule.Validate(withFloat)
	assert.False(t, ok)
	assert.ErrorContains(t, err, "rate")
}

func TestStrictValidation(t *testing.T) {
	v := NewStrictValidator()
	s := testSchema()

	// Test identical schemas
	result := v.ValidateAgainstTarget(s, s)
	assert.True(t, result.Valid)
	assert.NoError(t, result.Err())

	// Test reordered columns
	fields := s.Fields()
	fields[0], fields[1] = fields[1], fields[0]
	result = v.ValidateAgainstTarget(arrow.NewSchema(fields, nil), s)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "ColumnOrder")

	// Test nullability drift
	fields = s.Fields()
	fields[2].Nullable = true
	result = v.ValidateAgainstTarget(arrow.NewSchema(fields, nil), s)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "Nullability")

	// Test missing column
	result = v.ValidateAgainstTarget(arrow.NewSchema(s.Fields()[:4], nil), s)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "ColumnCount")
	assert.ErrorContains(t, result.Err(), "got 4 columns, expected 5")
}

func TestCompatibleValidation(t *testing.T) {
	v := NewValidator()
	s := testSchema()

	// Extra and reordered columns are warnings only
	fields := append(s.Fields(), arrow.Field{Name: "note", Type: arrow.BinaryTypes.String, Nullable: true})
	fields[0], fields[1] = fields[1], fields[0]
	result := v.ValidateAgainstTarget(arrow.NewSchema(fields, nil), s)
	assert.True(t, result.Valid)
	assert.Contains(t, result.Warnings, "ExtraColumn")

	// A type change is an error
	fields = s.Fields()
	fields[2].Type = arrow.BinaryTypes.String
	result = v.ValidateAgainstTarget(arrow.NewSchema(fields, nil), s)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "ColumnType")
}

func TestValidatorRulesAndNil(t *testing.T) {
	v := NewValidator(&RequiredColumnsRule{Columns: []string{"missing"}})
	result := v.ValidateSchema(testSchema())
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "RequiredColumns")
	assert.Contains(t, PrintValidationResult(result), "Schema validation failed!")

	result = NewStrictValidator().ValidateAgainstTarget(nil, testSchema())
	assert.False(t, result.Valid)
	result = NewStrictValidator().ValidateAgainstTarget(testSchema(), nil)
	assert.False(t, result.Valid)
}

func TestCreateTableSQL(t *testing.T) {
	table := Table{Name: "payment_attempt", Schema: testSchema(), PrimaryKey: []string{"payment_id", "attempt_id"}}

	tests := []struct {
		dialect  Dialect
		contains []string
	}{
		{Postgres, []string{"CREATE TABLE IF NOT EXISTS payment_attempt (", "payment_id TEXT NOT NULL", "count SMALLINT,", "confirm BOOLEAN,", "PRIMARY KEY (payment_id, attempt_id)"}},
		{SQLite, []string{"amount INTEGER NOT NULL", "count INTEGER"}},
		{MySQL, []string{"payment_id VARCHAR(64) NOT NULL", "amount BIGINT NOT NULL"}},
		{MSSQL, []string{"IF OBJECT_ID(N'payment_attempt', N'U') IS NULL", "payment_id NVARCHAR(64) NOT NULL", "confirm BIT"}},
		{DuckDB, []string{"payment_id VARCHAR NOT NULL"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			sql, err := CreateTableSQL(table, tt.dialect)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, sql, want)
			}
		})
	}
}

func TestCreateTableSQLErrors(t *testing.T) {
	_, err := CreateTableSQL(Table{Name: "bad name", Schema: testSchema()}, Postgres)
	assert.ErrorContains(t, err, "invalid table name")

	_, err = CreateTableSQL(Table{Name: "t", Schema: testSchema(), PrimaryKey: []string{"nope"}}, Postgres)
	assert.ErrorContains(t, err, "not in table")

	_, err = CreateTableSQL(Table{Name: "t", Schema: testSchema(), PrimaryKey: []string{"count"}}, Postgres)
	assert.ErrorContains(t, err, "nullable")

	floats := arrow.NewSchema([]arrow.Field{{Name: "rate", Type: arrow.PrimitiveTypes.Float64}}, nil)
	_, err = CreateTableSQL(Table{Name: "t", Schema: floats}, Postgres)
	assert.ErrorContains(t, err, "rate")
}

func TestInsertAndSelectSQL(t *testing.T) {
	table := Table{Name: "app.payment_attempt", Schema: testSchema(), PrimaryKey: []string{"payment_id", "attempt_id"}}

	sql, err := InsertSQL(table, Postgres)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO app.payment_attempt (payment_id, attempt_id, amount, count, confirm) VALUES ($1, $2, $3, $4, $5)", sql)

	sql, err = InsertSQL(table, MSSQL)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, "VALUES (@p1, @p2, @p3, @p4, @p5)"))

	sql, err = SelectSQL(table, SQLite)
	require.NoError(t, err)
	assert.Equal(t, "SELECT payment_id, attempt_id, amount, count, confirm FROM app.payment_attempt WHERE payment_id = ? AND attempt_id = ?", sql)

	_, err = SelectSQL(Table{Name: "t", Schema: testSchema()}, SQLite)
	assert.Error(t, err)
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("PostgreSQL")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)

	d, err = ParseDialect("sqlserver")
	require.NoError(t, err)
	assert.Equal(t, MSSQL, d)

	_, err = ParseDialect("oracle")
	assert.Error(t, err)
}

func TestColumnFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := testSchema()

	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			data, err := MarshalColumns(s, format)
			require.NoError(t, err)

			path := filepath.Join(dir, "columns."+format)
			require.NoError(t, os.WriteFile(path, data, 0o644))

			loaded, err := LoadColumnFile(path)
			require.NoError(t, err)
			assert.True(t, loaded.Equal(s), "loaded:\n%s", Describe(loaded))
		})
	}
}

func TestLoadColumnFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadColumnFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	txt := filepath.Join(dir, "columns.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))
	_, err = LoadColumnFile(txt)
	assert.ErrorContains(t, err, "unsupported column file format")

	bad := filepath.Join(dir, "columns.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("columns:\n  - name: a\n    type: float64\n"), 0o644))
	_, err = LoadColumnFile(bad)
	assert.ErrorContains(t, err, "unsupported column type")

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("columns:\n  - {name: a, type: string}\n  - {name: a, type: string}\n"), 0o644))
	_, err = LoadColumnFile(dup)
	assert.ErrorContains(t, err, "duplicate")
}

func TestDescribe(t *testing.T) {
	out := Describe(testSchema())
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "payment_id")
	assert.Contains(t, lines[0], "NOT NULL")
	assert.Contains(t, lines[3], "int16")
}
