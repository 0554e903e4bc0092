package schema

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// Validator runs rules over one schema and compares a schema with a target.
type Validator struct {
	rules []ValidationRule
	level ValidationLevel
}

// NewValidator returns a compatible-level validator with no rules.
func NewValidator(rules ...ValidationRule) *Validator {
	return &Validator{rules: rules, level: ValidationLevelCompatible}
}

// NewStrictValidator returns a validator that requires exact agreement.
func NewStrictValidator(rules ...ValidationRule) *Validator {
	v := NewValidator(rules...)
	v.SetValidationLevel(ValidationLevelStrict)
	return v
}

func (v *Validator) AddRule(rule ValidationRule) {
	v.rules = append(v.rules, rule)
}

func (v *Validator) SetValidationLevel(level ValidationLevel) {
	v.level = level
}

func (v *Validator) Level() ValidationLevel {
	return v.level
}

// ValidateSchema applies every rule to schema.
func (v *Validator) ValidateSchema(schema *arrow.Schema) ValidationResult {
	result := newResult()
	if schema == nil {
		result.fail("Schema", "schema is nil")
		return result
	}
	for _, rule := range v.rules {
		if ok, err := rule.Validate(schema); !ok {
			msg := "rule failed"
			if err != nil {
				msg = err.Error()
			}
			result.fail(rule.Name(), msg)
		}
	}
	return result
}

// ValidateAgainstTarget applies the rules to schema and then compares it with
// target at the validator's level.
func (v *Validator) ValidateAgainstTarget(schema, target *arrow.Schema) ValidationResult {
	result := v.ValidateSchema(schema)
	if schema == nil || target == nil {
		if target == nil {
			result.fail("Schema", "target schema is nil")
		}
		return result
	}

	switch v.level {
	case ValidationLevelStrict:
		validateStrict(schema, target, &result)
	default:
		validateCompatible(schema, target, &result)
	}
	return result
}

func validateStrict(schema, target *arrow.Schema, result *ValidationResult) {
	if schema.NumFields() != target.NumFields() {
		result.fail("ColumnCount", fmt.Sprintf("got %d columns, expected %d", schema.NumFields(), target.NumFields()))
		return
	}
	for i := 0; i < schema.NumFields(); i++ {
		got, want := schema.Field(i), target.Field(i)
		if got.Name != want.Name {
			result.fail("ColumnOrder", fmt.Sprintf("column %d is %q, expected %q", i, got.Name, want.Name))
			continue
		}
		if !arrow.TypeEqual(got.Type, want.Type) {
			result.fail("ColumnType", fmt.Sprintf("column %q has type %s, expected %s", got.Name, got.Type, want.Type))
		}
		if got.Nullable != want.Nullable {
			result.fail("Nullability", fmt.Sprintf("column %q nullable=%v, expected %v", got.Name, got.Nullable, want.Nullable))
		}
	}
}

func validateCompatible(schema, target *arrow.Schema, result *ValidationResult) {
	for _, want := range target.Fields() {
		idx := schema.FieldIndices(want.Name)
		if len(idx) == 0 {
			result.fail("MissingColumn", fmt.Sprintf("column %q not found", want.Name))
			continue
		}
		got := schema.Field(idx[0])
		if !arrow.TypeEqual(got.Type, want.Type) {
			result.fail("ColumnType", fmt.Sprintf("column %q has type %s, expected %s", want.Name, got.Type, want.Type))
		}
		switch {
		case got.Nullable && !want.Nullable:
			result.fail("Nullability", fmt.Sprintf("column %q is nullable but must be NOT NULL", want.Name))
		case !got.Nullable && want.Nullable:
			result.Warnings["Nullability"] = append(result.Warnings["Nullability"],
				fmt.Sprintf("column %q is NOT NULL; absent values will be rejected", want.Name))
		}
	}
	for _, got := range schema.Fields() {
		if len(target.FieldIndices(got.Name)) == 0 {
			result.Warnings["ExtraColumn"] = append(result.Warnings["ExtraColumn"],
				fmt.Sprintf("column %q is not in the target", got.Name))
		}
	}
}
