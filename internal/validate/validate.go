// Package validate implements runtime schema validation of entity payloads
// against an EntityType's field schema. Validation is strictly opt-in per
// call and a no-op for types without a schema; fields not declared in the
// schema always pass, keeping payloads open.
package validate

import (
	"fmt"

	"github.com/mesh-intelligence/loom/pkg/types"
)

// Check compares payload against schema and returns every violation found.
// A nil or empty schema yields no errors. Violations are collected across
// all fields rather than short-circuiting on the first failure.
func Check(schema map[string]types.FieldDef, payload map[string]any) []types.FieldError {
	if len(schema) == 0 {
		return nil
	}
	var errs []types.FieldError
	for name, def := range schema {
		val, present := payload[name]
		if !present || val == nil {
			if def.Required {
				errs = append(errs, types.FieldError{
					Field:      name,
					Code:       types.CodeRequiredField,
					Expected:   expectedLabel(def),
					Received:   "nothing",
					Suggestion: fmt.Sprintf("add the %q field", name),
				})
			}
			continue
		}
		errs = append(errs, checkValue(name, def, val)...)
	}
	return errs
}

// Error wraps the violations for typeName in a *types.ValidationError, or
// returns nil when the payload passes.
func Error(typeName string, schema map[string]types.FieldDef, payload map[string]any) error {
	errs := Check(schema, payload)
	if len(errs) == 0 {
		return nil
	}
	return &types.ValidationError{Type: typeName, Errors: errs}
}

func checkValue(path string, def types.FieldDef, val any) []types.FieldError {
	if def.Array {
		items, ok := val.([]any)
		if !ok {
			return []types.FieldError{{
				Field:      path,
				Code:       types.CodeTypeMismatch,
				Expected:   expectedLabel(def),
				Received:   runtimeLabel(val),
				Suggestion: fmt.Sprintf("wrap the value in an array: [%v]", val),
			}}
		}
		elemDef := def
		elemDef.Array = false
		var errs []types.FieldError
		for i, item := range items {
			if item == nil {
				continue
			}
			errs = append(errs, checkValue(fmt.Sprintf("%s.%d", path, i), elemDef, item)...)
		}
		return errs
	}
	if matchesType(def.Type, val) {
		return nil
	}
	return []types.FieldError{{
		Field:      path,
		Code:       types.CodeTypeMismatch,
		Expected:   def.Type,
		Received:   runtimeLabel(val),
		Suggestion: suggestion(def.Type, val),
	}}
}

// matchesType compares a payload value's runtime type against a declared
// field type. Date, datetime, url, markdown, and json are checked as
// textual values.
func matchesType(fieldType string, val any) bool {
	switch fieldType {
	case types.FieldString, types.FieldDate, types.FieldDatetime,
		types.FieldURL, types.FieldMarkdown, types.FieldJSON:
		_, ok := val.(string)
		return ok
	case types.FieldNumber:
		switch val.(type) {
		case float64, float32, int, int32, int64, uint, uint32, uint64:
			return true
		}
		return false
	case types.FieldBoolean:
		_, ok := val.(bool)
		return ok
	case types.FieldObject:
		_, ok := val.(map[string]any)
		return ok
	default:
		// Unknown declared types never fail the payload.
		return true
	}
}

func runtimeLabel(val any) string {
	switch val.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int32, int64, uint, uint32, uint64:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", val)
	}
}

func expectedLabel(def types.FieldDef) string {
	if def.Array {
		return "array of " + def.Type
	}
	return def.Type
}

func suggestion(fieldType string, val any) string {
	switch fieldType {
	case types.FieldNumber:
		return fmt.Sprintf("convert to number: %v", val)
	case types.FieldString, types.FieldDate, types.FieldDatetime,
		types.FieldURL, types.FieldMarkdown, types.FieldJSON:
		return fmt.Sprintf("convert to string: %q", fmt.Sprintf("%v", val))
	case types.FieldBoolean:
		return fmt.Sprintf("convert to boolean: %v", val)
	default:
		return ""
	}
}
