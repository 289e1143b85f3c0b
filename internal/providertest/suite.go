// Package providertest holds the conformance suite every Provider
// implementation must pass. Running one suite against all backends keeps
// their observable behavior from drifting apart.
package providertest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/loom/pkg/types"
)

// Factory returns a fresh, empty provider for one subtest.
type Factory func(t *testing.T) types.Provider

// Run executes the conformance suite against the factory's providers.
func Run(t *testing.T, factory Factory) {
	tests := []struct {
		name  string
		check func(t *testing.T, p types.Provider)
	}{
		{"entity type registry", checkEntityTypeRegistry},
		{"relation type registry", checkRelationTypeRegistry},
		{"entity lifecycle", checkEntityLifecycle},
		{"create over existing id", checkCreateUpsert},
		{"schema validation", checkValidation},
		{"list pagination", checkListPagination},
		{"page size ceiling", checkPageSizeCeiling},
		{"list ordering", checkListOrdering},
		{"search", checkSearch},
		{"relationships", checkRelationships},
		{"edges", checkEdges},
		{"related", checkRelated},
		{"restore round trip", checkRestoreRoundTrip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, factory(t))
		})
	}
}

func checkEntityTypeRegistry(t *testing.T, p types.Provider) {
	_, err := p.DefineEntityType(types.EntityTypeDef{})
	require.ErrorIs(t, err, types.ErrInvalidName)

	et, err := p.DefineEntityType(types.EntityTypeDef{Name: "project"})
	require.NoError(t, err)
	assert.Equal(t, "project", et.Singular)
	assert.Equal(t, "projects", et.Plural)
	assert.Equal(t, "project", et.Slug)
	assert.False(t, et.CreatedAt.IsZero())

	// Caller-supplied forms win over derivation.
	custom, err := p.DefineEntityType(types.EntityTypeDef{
		Name:   "person",
		Plural: "people",
		Schema: map[string]types.FieldDef{"name": {Type: types.FieldString, Required: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, "people", custom.Plural)

	got, err := p.GetEntityType("person")
	require.NoError(t, err)
	assert.Equal(t, "people", got.Plural)
	require.Contains(t, got.Schema, "name")
	assert.True(t, got.Schema["name"].Required)

	_, err = p.GetEntityType("ghost")
	require.ErrorIs(t, err, types.ErrNotFound)

	// Redefining keeps the original creation timestamp.
	redefined, err := p.DefineEntityType(types.EntityTypeDef{Name: "project", Description: "work unit"})
	require.NoError(t, err)
	assert.Equal(t, "work unit", redefined.Description)
	assert.WithinDuration(t, et.CreatedAt, redefined.CreatedAt, time.Millisecond)

	all, err := p.ListEntityTypes()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "person", all[0].Name)
	assert.Equal(t, "project", all[1].Name)
}

func checkRelationTypeRegistry(t *testing.T, p types.Provider) {
	_, err := p.DefineRelationType(types.RelationTypeDef{})
	require.ErrorIs(t, err, types.ErrInvalidName)

	rt, err := p.DefineRelationType(types.RelationTypeDef{Name: "assign"})
	require.NoError(t, err)
	assert.Equal(t, "assign", rt.Imperative)
	assert.Equal(t, "assigns", rt.Present)
	assert.Equal(t, "assigning", rt.Gerund)
	assert.Equal(t, "assigned", rt.Past)
	assert.Equal(t, "assigned", rt.PastParticiple)
	assert.Equal(t, "assignedBy", rt.ByField)
	assert.Equal(t, "assignedAt", rt.AtField)

	inv, err := p.DefineRelationType(types.RelationTypeDef{Name: "own", Inverse: "ownedBy"})
	require.NoError(t, err)
	assert.Equal(t, "ownedBy", inv.Inverse)

	got, err := p.GetRelationType("own")
	require.NoError(t, err)
	assert.Equal(t, "ownedBy", got.Inverse)

	_, err = p.GetRelationType("ghost")
	require.ErrorIs(t, err, types.ErrNotFound)

	all, err := p.ListRelationTypes()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "assign", all[0].Name)
}

func checkEntityLifecycle(t *testing.T, p types.Provider) {
	_, err := p.Create("", nil, types.CreateOptions{})
	require.ErrorIs(t, err, types.ErrInvalidName)

	e, err := p.Create("note", map[string]any{"title": "first", "tags": []any{"a", "b"}}, types.CreateOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "note", e.Type)
	assert.WithinDuration(t, e.CreatedAt, e.UpdatedAt, time.Millisecond)

	got, err := p.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Data["title"])
	assert.Equal(t, []any{"a", "b"}, got.Data["tags"])

	_, err = p.Get("missing")
	require.ErrorIs(t, err, types.ErrNotFound)

	// Explicit ids are honored.
	pinned, err := p.Create("note", map[string]any{"title": "pinned"}, types.CreateOptions{ID: "note-1"})
	require.NoError(t, err)
	assert.Equal(t, "note-1", pinned.ID)

	// Update merges shallowly and touches only updatedAt.
	updated, err := p.Update(e.ID, map[string]any{"title": "second", "extra": float64(7)})
	require.NoError(t, err)
	assert.Equal(t, "second", updated.Data["title"])
	assert.Equal(t, []any{"a", "b"}, updated.Data["tags"])
	assert.Equal(t, float64(7), updated.Data["extra"])
	assert.WithinDuration(t, e.CreatedAt, updated.CreatedAt, time.Millisecond)
	assert.True(t, updated.UpdatedAt.After(e.UpdatedAt), "updatedAt must advance on every update")

	_, err = p.Update("missing", map[string]any{"x": 1})
	require.ErrorIs(t, err, types.ErrNotFound)

	deleted, err := p.Delete(e.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	// Deleting again reports false without an error.
	deleted, err = p.Delete(e.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = p.Get(e.ID)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func checkCreateUpsert(t *testing.T, p types.Provider) {
	first, err := p.Create("note", map[string]any{"title": "one", "old": true}, types.CreateOptions{ID: "fixed"})
	require.NoError(t, err)

	second, err := p.Create("note", map[string]any{"title": "two"}, types.CreateOptions{ID: "fixed"})
	require.NoError(t, err)

	// The payload is replaced, not merged, and creation time survives.
	assert.Equal(t, "two", second.Data["title"])
	assert.NotContains(t, second.Data, "old")
	assert.WithinDuration(t, first.CreatedAt, second.CreatedAt, time.Millisecond)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	got, err := p.Get("fixed")
	require.NoError(t, err)
	assert.Equal(t, "two", got.Data["title"])
	assert.NotContains(t, got.Data, "old")
}

func checkValidation(t *testing.T, p types.Provider) {
	_, err := p.DefineEntityType(types.EntityTypeDef{
		Name: "task",
		Schema: map[string]types.FieldDef{
			"title": {Type: types.FieldString, Required: true},
			"count": {Type: types.FieldNumber},
		},
	})
	require.NoError(t, err)

	_, err = p.Create("task", map[string]any{"count": "three"}, types.CreateOptions{Validate: true})
	require.Error(t, err)
	verr, ok := types.AsValidationError(err)
	require.True(t, ok, "expected a validation error, got %v", err)
	require.Len(t, verr.Errors, 2)

	byField := map[string]types.FieldError{}
	for _, fe := range verr.Errors {
		byField[fe.Field] = fe
	}
	require.Contains(t, byField, "title")
	assert.Equal(t, types.CodeRequiredField, byField["title"].Code)
	require.Contains(t, byField, "count")
	assert.Equal(t, types.CodeTypeMismatch, byField["count"].Code)

	// Without the flag the same payload passes.
	_, err = p.Create("task", map[string]any{"count": "three"}, types.CreateOptions{})
	require.NoError(t, err)

	// Types without a registered schema accept anything even when asked
	// to validate.
	_, err = p.Create("freeform", map[string]any{"whatever": 1}, types.CreateOptions{Validate: true})
	require.NoError(t, err)
}

func checkListPagination(t *testing.T, p types.Provider) {
	for i := 0; i < 7; i++ {
		_, err := p.Create("note", map[string]any{"n": float64(i)}, types.CreateOptions{})
		require.NoError(t, err)
	}
	_, err := p.Create("other", map[string]any{"n": float64(99)}, types.CreateOptions{})
	require.NoError(t, err)

	// Zero limit falls back to the default page size.
	all, err := p.List("note", types.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 7)

	// A limit above the ceiling is clamped, not rejected.
	all, err = p.List("note", types.ListOptions{Limit: types.MaxPageSize * 5})
	require.NoError(t, err)
	assert.Len(t, all, 7)

	page, err := p.List("note", types.ListOptions{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, page, 3)

	tail, err := p.List("note", types.ListOptions{Limit: 3, Offset: 6})
	require.NoError(t, err)
	assert.Len(t, tail, 1)

	empty, err := p.List("note", types.ListOptions{Offset: 50})
	require.NoError(t, err)
	assert.Empty(t, empty)

	// Empty type lists every entity.
	everything, err := p.List("", types.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, everything, 8)

	none, err := p.List("ghost", types.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

// checkPageSizeCeiling seeds more entities than the hard maximum so the
// default and the clamp are observable above the boundary, not just on
// small sets.
func checkPageSizeCeiling(t *testing.T, p types.Provider) {
	total := types.MaxPageSize + 50
	for i := 0; i < total; i++ {
		_, err := p.Create("row", map[string]any{"n": float64(i)}, types.CreateOptions{})
		require.NoError(t, err)
	}

	// No limit returns exactly one default page, never the full set.
	page, err := p.List("row", types.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, page, types.DefaultPageSize)

	// A limit beyond the ceiling is clamped to the ceiling.
	capped, err := p.List("row", types.ListOptions{Limit: types.MaxPageSize + 500})
	require.NoError(t, err)
	assert.Len(t, capped, types.MaxPageSize)

	// Paging past the ceiling still reaches the tail.
	tail, err := p.List("row", types.ListOptions{Limit: types.MaxPageSize, Offset: types.MaxPageSize})
	require.NoError(t, err)
	assert.Len(t, tail, 50)
}

func checkListOrdering(t *testing.T, p types.Provider) {
	ranks := []float64{3, 1, 2}
	for _, r := range ranks {
		_, err := p.Create("note", map[string]any{"rank": r}, types.CreateOptions{})
		require.NoError(t, err)
	}

	asc, err := p.List("note", types.ListOptions{OrderBy: "rank"})
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, float64(1), asc[0].Data["rank"])
	assert.Equal(t, float64(3), asc[2].Data["rank"])

	desc, err := p.List("note", types.ListOptions{OrderBy: "rank", Order: types.OrderDesc})
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, float64(3), desc[0].Data["rank"])
	assert.Equal(t, float64(1), desc[2].Data["rank"])
}

func checkSearch(t *testing.T, p types.Provider) {
	_, err := p.Create("note", map[string]any{"title": "Weekly Report"}, types.CreateOptions{})
	require.NoError(t, err)
	_, err = p.Create("note", map[string]any{"title": "shopping list"}, types.CreateOptions{})
	require.NoError(t, err)
	_, err = p.Create("doc", map[string]any{"title": "annual report"}, types.CreateOptions{})
	require.NoError(t, err)

	// Matching is case-insensitive over the serialized payload.
	hits, err := p.Search("REPORT", types.SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	scoped, err := p.Search("report", types.SearchOptions{Type: "doc"})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "annual report", scoped[0].Data["title"])

	none, err := p.Search("nonexistent needle", types.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func checkRelationships(t *testing.T, p types.Provider) {
	_, err := p.Relate("", "a", "b", nil)
	require.ErrorIs(t, err, types.ErrInvalidName)

	rel, err := p.Relate("assign", "alice", "task-1", map[string]any{"note": "urgent"})
	require.NoError(t, err)
	assert.NotEmpty(t, rel.ID)
	assert.Equal(t, "assign", rel.Relation)
	assert.Equal(t, "alice", rel.SubjectID)
	assert.Equal(t, "task-1", rel.ObjectID)
	assert.Equal(t, types.StatusCompleted, rel.Status)
	require.NotNil(t, rel.CompletedAt)

	got, err := p.GetRelationship(rel.ID)
	require.NoError(t, err)
	assert.Equal(t, "urgent", got.Data["note"])

	_, err = p.GetRelationship("missing")
	require.ErrorIs(t, err, types.ErrNotFound)

	// The same triple can be related twice, and each edge dies alone.
	dup, err := p.Relate("assign", "alice", "task-1", nil)
	require.NoError(t, err)
	assert.NotEqual(t, rel.ID, dup.ID)

	both, err := p.ListRelationships(types.RelationshipFilter{
		Relation: "assign", SubjectID: "alice", ObjectID: "task-1",
	})
	require.NoError(t, err)
	assert.Len(t, both, 2)

	deleted, err := p.DeleteRelationship(dup.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = p.DeleteRelationship(dup.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	remaining, err := p.ListRelationships(types.RelationshipFilter{Relation: "assign"})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, rel.ID, remaining[0].ID)

	// Filters narrow independently.
	_, err = p.Relate("own", "bob", "task-1", nil)
	require.NoError(t, err)
	bySubject, err := p.ListRelationships(types.RelationshipFilter{SubjectID: "bob"})
	require.NoError(t, err)
	assert.Len(t, bySubject, 1)
	byObject, err := p.ListRelationships(types.RelationshipFilter{ObjectID: "task-1"})
	require.NoError(t, err)
	assert.Len(t, byObject, 2)
}

func checkEdges(t *testing.T, p types.Provider) {
	_, err := p.Relate("assign", "alice", "task-1", nil)
	require.NoError(t, err)
	_, err = p.Relate("assign", "task-2", "alice", nil)
	require.NoError(t, err)
	_, err = p.Relate("own", "alice", "task-3", nil)
	require.NoError(t, err)

	out, err := p.Edges("alice", "assign", types.DirectionOut)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "task-1", out[0].ObjectID)

	in, err := p.Edges("alice", "assign", types.DirectionIn)
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, "task-2", in[0].SubjectID)

	both, err := p.Edges("alice", "assign", types.DirectionBoth)
	require.NoError(t, err)
	assert.Len(t, both, 2)

	// Empty relation follows every edge.
	all, err := p.Edges("alice", "", types.DirectionBoth)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = p.Edges("alice", "assign", types.Direction("sideways"))
	require.ErrorIs(t, err, types.ErrInvalidDirection)
}

func checkRelated(t *testing.T, p types.Provider) {
	_, err := p.Create("person", map[string]any{"name": "alice"}, types.CreateOptions{ID: "alice"})
	require.NoError(t, err)
	_, err = p.Create("task", map[string]any{"title": "ship"}, types.CreateOptions{ID: "task-1"})
	require.NoError(t, err)

	_, err = p.Relate("assign", "alice", "task-1", nil)
	require.NoError(t, err)
	// A second edge to the same peer produces one entity, not two.
	_, err = p.Relate("assign", "alice", "task-1", nil)
	require.NoError(t, err)
	// An edge to an id that was never created is dropped in traversal.
	_, err = p.Relate("assign", "alice", "ghost", nil)
	require.NoError(t, err)

	peers, err := p.Related("alice", "assign", types.DirectionOut)
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.Equal(t, "task-1", peers[0].ID)

	reverse, err := p.Related("task-1", "assign", types.DirectionIn)
	require.NoError(t, err)
	require.Len(t, reverse, 1)
	assert.Equal(t, "alice", reverse[0].ID)

	_, err = p.Related("alice", "", types.Direction("bad"))
	require.ErrorIs(t, err, types.ErrInvalidDirection)
}

func checkRestoreRoundTrip(t *testing.T, p types.Provider) {
	rest, ok := p.(types.Restorer)
	if !ok {
		t.Skip("provider does not support restore")
	}

	et, err := p.DefineEntityType(types.EntityTypeDef{Name: "note"})
	require.NoError(t, err)
	e, err := p.Create("note", map[string]any{"title": "keep"}, types.CreateOptions{})
	require.NoError(t, err)
	rel, err := p.Relate("assign", e.ID, "task-1", nil)
	require.NoError(t, err)

	require.NoError(t, rest.Wipe())
	_, err = p.Get(e.ID)
	require.ErrorIs(t, err, types.ErrNotFound)
	_, err = p.GetEntityType("note")
	require.ErrorIs(t, err, types.ErrNotFound)

	// Puts restore records verbatim, ids and timestamps included.
	require.NoError(t, rest.PutEntityType(et))
	require.NoError(t, rest.PutEntity(e))
	require.NoError(t, rest.PutRelationship(rel))

	got, err := p.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep", got.Data["title"])
	assert.WithinDuration(t, e.CreatedAt, got.CreatedAt, time.Millisecond)
	assert.WithinDuration(t, e.UpdatedAt, got.UpdatedAt, time.Millisecond)

	gotRel, err := p.GetRelationship(rel.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, gotRel.SubjectID)
}
