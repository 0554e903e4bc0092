// Package schema checks column schemas against each other and renders them as
// DDL, column files and text.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// ValidationLevel defines how strict a comparison against a target is.
type ValidationLevel int

const (
	// Strict requires the same columns in the same order with the same types
	// and nullability.
	ValidationLevelStrict ValidationLevel = iota

	// Compatible allows extra or reordered columns as long as every target
	// column exists with the same type, and a NOT NULL target column is not
	// made nullable.
	ValidationLevelCompatible
)

func (l ValidationLevel) String() string {
	switch l {
	case ValidationLevelStrict:
		return "strict"
	case ValidationLevelCompatible:
		return "compatible"
	default:
		return fmt.Sprintf("ValidationLevel(%d)", int(l))
	}
}

// ValidationRule is a single check over a schema.
type ValidationRule interface {
	Validate(schema *arrow.Schema) (bool, error)
	Name() string
}

// ValidationResult collects rule failures and warnings by rule name.
type ValidationResult struct {
	Valid    bool
	Errors   map[string][]string
	Warnings map[string][]string
}

func newResult() ValidationResult {
	return ValidationResult{
		Valid:    true,
		Errors:   make(map[string][]string),
		Warnings: make(map[string][]string),
	}
}

func (r *ValidationResult) fail(rule, msg string) {
	r.Valid = false
	r.Errors[rule] = append(r.Errors[rule], msg)
}

// Err folds the errors into one error, or returns nil when the result is valid.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	rules := make([]string, 0, len(r.Errors))
	for name := range r.Errors {
		rules = append(rules, name)
	}
	sort.Strings(rules)

	var parts []string
	for _, name := range rules {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(r.Errors[name], "; ")))
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(parts, " | "))
}

// RequiredColumnsRule fails when any listed column is missing.
type RequiredColumnsRule struct {
	Columns []string
}

func (r *RequiredColumnsRule) Validate(schema *arrow.Schema) (bool, error) {
	var missing []string
	for _, name := range r.Columns {
		if len(schema.FieldIndices(name)) == 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return false, fmt.Errorf("required columns missing: %s", strings.Join(missing, ", "))
	}
	return true, nil
}

func (r *RequiredColumnsRule) Name() string { return "RequiredColumns" }

// NotNullRule fails when any listed column is nullable. Missing columns are
// left to RequiredColumnsRule.
type NotNullRule struct {
	Columns []string
}

func (r *NotNullRule) Validate(schema *arrow.Schema) (bool, error) {
	var nullable []string
	for _, name := range r.Columns {
		idx := schema.FieldIndices(name)
		if len(idx) == 0 {
			continue
		}
		if schema.Field(idx[0]).Nullable {
			nullable = append(nullable, name)
		}
	}
	if len(nullable) > 0 {
		return false, fmt.Errorf("columns must not be nullable: %s", strings.Join(nullable, ", "))
	}
	return true, nil
}

func (r *NotNullRule) Name() string { return "NotNull" }

// ColumnTypeRule restricts every column to a set of storable types.
type ColumnTypeRule struct {
	Allowed []arrow.DataType
}

func (r *ColumnTypeRule) Validate(schema *arrow.Schema) (bool, error) {
	var bad []string
	for _, f := range schema.Fields() {
		ok := false
		for _, t := range r.Allowed {
			if arrow.TypeEqual(f.Type, t) {
				ok = true
				break
			}
		}
		if !ok {
			bad = append(bad, fmt.Sprintf("%s (%s)", f.Name, f.Type))
		}
	}
	if len(bad) > 0 {
		return false, fmt.Errorf("unsupported column types: %s", strings.Join(bad, ", "))
	}
	return true, nil
}

func (r *ColumnTypeRule) Name() string { return "ColumnType" }

// StorableTypes are the column types every store and dialect supports.
var StorableTypes = []arrow.DataType{
	arrow.BinaryTypes.String,
	arrow.PrimitiveTypes.Int64,
	arrow.PrimitiveTypes.Int16,
	arrow.FixedWidthTypes.Boolean,
}
