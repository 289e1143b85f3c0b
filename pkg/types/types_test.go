package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestClampLimit(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, DefaultPageSize},
		{-5, DefaultPageSize},
		{1, 1},
		{DefaultPageSize, DefaultPageSize},
		{MaxPageSize, MaxPageSize},
		{MaxPageSize + 1, MaxPageSize},
		{1 << 30, MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.limit), func(t *testing.T) {
			assert.Equal(t, tt.want, ClampLimit(tt.limit))
		})
	}
}

func TestClampLimitAlwaysInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.Int().Draw(t, "limit")
		got := ClampLimit(limit)
		assert.GreaterOrEqual(t, got, 1)
		assert.LessOrEqual(t, got, MaxPageSize)
	})
}

func TestDirectionValid(t *testing.T) {
	assert.True(t, DirectionOut.Valid())
	assert.True(t, DirectionIn.Valid())
	assert.True(t, DirectionBoth.Valid())
	assert.False(t, Direction("").Valid())
	assert.False(t, Direction("sideways").Valid())
}

func TestEntityClone(t *testing.T) {
	e := &Entity{
		ID:   "e1",
		Type: "note",
		Data: map[string]any{
			"tags": []any{"a", "b"},
			"meta": map[string]any{"depth": float64(1)},
		},
	}
	cp := e.Clone()
	cp.Data["tags"].([]any)[0] = "mutated"
	cp.Data["meta"].(map[string]any)["depth"] = float64(9)
	cp.Data["new"] = true

	assert.Equal(t, "a", e.Data["tags"].([]any)[0])
	assert.Equal(t, float64(1), e.Data["meta"].(map[string]any)["depth"])
	assert.NotContains(t, e.Data, "new")
}

func TestRelationshipClone(t *testing.T) {
	r := &Relationship{ID: "r1", Relation: "assign", Data: map[string]any{"k": "v"}}
	cp := r.Clone()
	cp.Data["k"] = "changed"
	assert.Equal(t, "v", r.Data["k"])
}

func TestNewEntityTypeDerivation(t *testing.T) {
	et := NewEntityType(EntityTypeDef{Name: "BlogPost"})
	assert.Equal(t, "BlogPost", et.Singular)
	assert.Equal(t, "BlogPosts", et.Plural)
	assert.Equal(t, "blog-post", et.Slug)
	assert.False(t, et.CreatedAt.IsZero())

	// Explicit forms win.
	custom := NewEntityType(EntityTypeDef{Name: "person", Plural: "folks", Slug: "human"})
	assert.Equal(t, "folks", custom.Plural)
	assert.Equal(t, "human", custom.Slug)
}

func TestNewRelationTypeDerivation(t *testing.T) {
	rt := NewRelationType(RelationTypeDef{Name: "assign"})
	assert.Equal(t, "assigns", rt.Present)
	assert.Equal(t, "assigning", rt.Gerund)
	assert.Equal(t, "assigned", rt.Past)
	assert.Equal(t, "assigned", rt.PastParticiple)
	assert.Equal(t, "assignedBy", rt.ByField)
	assert.Equal(t, "assignedAt", rt.AtField)

	// Overriding the past form rebuilds the reference fields from it.
	custom := NewRelationType(RelationTypeDef{Name: "write", Past: "authored"})
	assert.Equal(t, "authored", custom.Past)
	assert.Equal(t, "authoredBy", custom.ByField)
	assert.Equal(t, "authoredAt", custom.AtField)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"memory ok", Config{Backend: BackendMemory}, nil},
		{"sqlite ok", Config{Backend: BackendSQLite, DataDir: "/tmp/x"}, nil},
		{"empty backend", Config{}, ErrBackendEmpty},
		{"unknown backend", Config{Backend: "redis"}, ErrBackendUnknown},
		{"sqlite without data dir", Config{Backend: BackendSQLite}, ErrDataDirEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, DefaultNamespace, cfg.Namespace)
	assert.NotEmpty(t, cfg.Listen)

	// Explicit values survive.
	set := Config{Backend: BackendSQLite, Namespace: "team", Listen: ":9000"}.WithDefaults()
	assert.Equal(t, BackendSQLite, set.Backend)
	assert.Equal(t, "team", set.Namespace)
	assert.Equal(t, ":9000", set.Listen)
}

func TestValidationErrorMessage(t *testing.T) {
	verr := &ValidationError{
		Type: "task",
		Errors: []FieldError{
			{Field: "title", Code: CodeRequiredField, Expected: "string", Received: "nothing"},
			{Field: "count", Code: CodeTypeMismatch, Expected: "number", Received: "string"},
		},
	}
	msg := verr.Error()
	assert.Contains(t, msg, "title")
	assert.Contains(t, msg, "count")

	wrapped := fmt.Errorf("creating entity: %w", verr)
	got, ok := AsValidationError(wrapped)
	require.True(t, ok)
	assert.Len(t, got.Errors, 2)

	_, ok = AsValidationError(errors.New("plain"))
	assert.False(t, ok)
}

func TestIsValidFieldType(t *testing.T) {
	for _, ft := range []string{
		FieldString, FieldNumber, FieldBoolean, FieldObject,
		FieldDate, FieldDatetime, FieldURL, FieldMarkdown, FieldJSON,
	} {
		assert.True(t, IsValidFieldType(ft), ft)
	}
	assert.False(t, IsValidFieldType("vector"))
	assert.False(t, IsValidFieldType(""))
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range []string{
		StatusPending, StatusActive, StatusCompleted, StatusFailed, StatusCancelled,
	} {
		assert.True(t, IsValidStatus(s), s)
	}
	assert.False(t, IsValidStatus("done"))
}
