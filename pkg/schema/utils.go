package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ColumnSpec is one column of a column file.
type ColumnSpec struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Nullable bool   `json:"nullable" yaml:"nullable"`
}

// ColumnFile is the on-disk form of a column schema.
type ColumnFile struct {
	Columns []ColumnSpec `json:"columns" yaml:"columns"`
}

// ToSpecs lists a schema's columns in order.
func ToSpecs(s *arrow.Schema) []ColumnSpec {
	specs := make([]ColumnSpec, s.NumFields())
	for i, f := range s.Fields() {
		specs[i] = ColumnSpec{Name: f.Name, Type: typeName(f.Type), Nullable: f.Nullable}
	}
	return specs
}

// FromSpecs builds an Arrow schema from column specs.
func FromSpecs(specs []ColumnSpec) (*arrow.Schema, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("column list is empty")
	}
	seen := make(map[string]bool, len(specs))
	fields := make([]arrow.Field, len(specs))
	for i, c := range specs {
		if c.Name == "" {
			return nil, fmt.Errorf("column %d has no name", i)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = true
		t, err := parseArrowType(c.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Name, err)
		}
		fields[i] = arrow.Field{Name: c.Name, Type: t, Nullable: c.Nullable}
	}
	return arrow.NewSchema(fields, nil), nil
}

// LoadColumnFile reads a JSON or YAML column file, chosen by extension.
func LoadColumnFile(path string) (*arrow.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read column file: %w", err)
	}

	var file ColumnFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse JSON column file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse YAML column file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported column file format: %s (supported: .json, .yaml, .yml)", ext)
	}
	return FromSpecs(file.Columns)
}

// MarshalColumns renders a schema as a column file in format "json" or "yaml".
func MarshalColumns(s *arrow.Schema, format string) ([]byte, error) {
	file := ColumnFile{Columns: ToSpecs(s)}
	switch strings.ToLower(format) {
	case "json":
		return json.MarshalIndent(file, "", "  ")
	case "yaml", "yml":
		return yaml.Marshal(file)
	default:
		return nil, fmt.Errorf("unsupported column format: %s", format)
	}
}

func typeName(t arrow.DataType) string {
	switch t.ID() {
	case arrow.STRING:
		return "string"
	case arrow.BOOL:
		return "bool"
	default:
		return t.Name()
	}
}

// parseArrowType converts a column file type name to an Arrow type.
func parseArrowType(typeStr string) (arrow.DataType, error) {
	switch strings.ToLower(strings.TrimSpace(typeStr)) {
	case "bool", "boolean":
		return arrow.FixedWidthTypes.Boolean, nil
	case "int16", "smallint":
		return arrow.PrimitiveTypes.Int16, nil
	case "int64", "bigint", "long":
		return arrow.PrimitiveTypes.Int64, nil
	case "string", "utf8", "text":
		return arrow.BinaryTypes.String, nil
	default:
		return nil, fmt.Errorf("unsupported column type: %s", typeStr)
	}
}

// Describe renders one line per column.
func Describe(s *arrow.Schema) string {
	var b strings.Builder
	for i, f := range s.Fields() {
		null := "NOT NULL"
		if f.Nullable {
			null = "NULL"
		}
		fmt.Fprintf(&b, "%2d  %-45s %-7s %s\n", i, f.Name, typeName(f.Type), null)
	}
	return b.String()
}

// PrintValidationResult renders a validation result for humans.
func PrintValidationResult(result ValidationResult) string {
	var b strings.Builder
	if result.Valid {
		b.WriteString("Schema validation passed.\n")
	} else {
		b.WriteString("Schema validation failed!\n")
	}
	section := func(title string, m map[string][]string) {
		if len(m) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		for rule, msgs := range m {
			fmt.Fprintf(&b, "  %s:\n", rule)
			for _, msg := range msgs {
				fmt.Fprintf(&b, "    - %s\n", msg)
			}
		}
	}
	section("Errors", result.Errors)
	section("Warnings", result.Warnings)
	return b.String()
}
