package types

import "time"

// Field value types accepted in an EntityType schema.
// Date, datetime, url, markdown, and json values travel as strings;
// the validator checks them as textual.
const (
	FieldString   = "string"
	FieldNumber   = "number"
	FieldBoolean  = "boolean"
	FieldObject   = "object"
	FieldDate     = "date"
	FieldDatetime = "datetime"
	FieldURL      = "url"
	FieldMarkdown = "markdown"
	FieldJSON     = "json"
)

// validFieldTypes is the set of recognized schema field types.
var validFieldTypes = map[string]bool{
	FieldString:   true,
	FieldNumber:   true,
	FieldBoolean:  true,
	FieldObject:   true,
	FieldDate:     true,
	FieldDatetime: true,
	FieldURL:      true,
	FieldMarkdown: true,
	FieldJSON:     true,
}

// IsValidFieldType reports whether t is a recognized schema field type.
func IsValidFieldType(t string) bool {
	return validFieldTypes[t]
}

// FieldDef declares one field of an EntityType schema.
type FieldDef struct {
	Type     string `json:"type"`
	Required bool   `json:"required,omitempty"`
	Array    bool   `json:"array,omitempty"`
}

// EntityType registers a type name with display-form metadata and an
// optional field schema. Defining the same name again overwrites the
// previous definition; entity types are never implicitly deleted.
type EntityType struct {
	Name        string              `json:"name"`
	Singular    string              `json:"singular"`
	Plural      string              `json:"plural"`
	Slug        string              `json:"slug"`
	Description string              `json:"description,omitempty"`
	Schema      map[string]FieldDef `json:"schema,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// EntityTypeDef is the caller-supplied definition for DefineEntityType.
// Display forms left empty are filled from the deterministic deriver;
// caller-supplied forms always win.
type EntityTypeDef struct {
	Name        string              `json:"name"`
	Singular    string              `json:"singular,omitempty"`
	Plural      string              `json:"plural,omitempty"`
	Slug        string              `json:"slug,omitempty"`
	Description string              `json:"description,omitempty"`
	Schema      map[string]FieldDef `json:"schema,omitempty"`
}

// Entity is one instance of an EntityType holding an arbitrary payload.
// UpdatedAt is strictly greater than CreatedAt after any update; providers
// bump it by at least one time unit rather than allow equal values.
type Entity struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Clone returns a deep copy of the entity so callers cannot alias the
// provider's internal state through the payload map.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Data = CloneData(e.Data)
	return &cp
}

// CloneData deep-copies a payload map. Values are limited to the JSON
// value domain (nil, bool, float64, string, []any, map[string]any) plus
// whatever scalars the caller put in; scalars are copied by value.
func CloneData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneData(val)
	case []any:
		cp := make([]any, len(val))
		for i, item := range val {
			cp[i] = cloneValue(item)
		}
		return cp
	default:
		return val
	}
}
