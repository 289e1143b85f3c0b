package interop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/loom/internal/memory"
	"github.com/mesh-intelligence/loom/pkg/types"
)

func newAdapter() (*Adapter, types.Provider) {
	p := memory.NewProvider()
	return New(p), p
}

func TestCreateAutoDefinesType(t *testing.T) {
	a, p := newAdapter()

	record, err := a.Create("note", map[string]any{"title": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "note", record["type"])
	assert.NotEmpty(t, record["id"])
	assert.Equal(t, "hello", record["title"])

	// The type registry got a derived definition.
	et, err := p.GetEntityType("note")
	require.NoError(t, err)
	assert.Equal(t, "notes", et.Plural)
}

func TestCreateReservedFields(t *testing.T) {
	a, p := newAdapter()

	// "type" and "id" in the record steer creation and never enter the
	// stored payload.
	record, err := a.Create("", map[string]any{
		"type":  "task",
		"id":    "t1",
		"title": "ship it",
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", record["id"])
	assert.Equal(t, "task", record["type"])

	stored, err := p.Get("t1")
	require.NoError(t, err)
	assert.NotContains(t, stored.Data, "type")
	assert.NotContains(t, stored.Data, "id")
	assert.Equal(t, "ship it", stored.Data["title"])

	// No type anywhere is an error.
	_, err = a.Create("", map[string]any{"title": "lost"})
	require.ErrorIs(t, err, types.ErrInvalidName)
}

func TestGetListSearch(t *testing.T) {
	a, _ := newAdapter()

	_, err := a.Create("note", map[string]any{"id": "n1", "title": "alpha report"})
	require.NoError(t, err)
	_, err = a.Create("note", map[string]any{"id": "n2", "title": "beta"})
	require.NoError(t, err)
	_, err = a.Create("doc", map[string]any{"id": "d1", "title": "gamma report"})
	require.NoError(t, err)

	got, err := a.Get("n1")
	require.NoError(t, err)
	assert.Equal(t, "alpha report", got["title"])
	assert.Equal(t, "note", got["type"])

	notes, err := a.List("note", 0, 0)
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	all, err := a.List("", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	hits, err := a.Search("report", "note", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "n1", hits[0]["id"])
}

func TestUpdateStripsReserved(t *testing.T) {
	a, p := newAdapter()
	_, err := a.Create("note", map[string]any{"id": "n1", "title": "old"})
	require.NoError(t, err)

	record, err := a.Update("n1", map[string]any{
		"id":    "hijack",
		"type":  "hijack",
		"title": "new",
	})
	require.NoError(t, err)
	assert.Equal(t, "n1", record["id"])
	assert.Equal(t, "note", record["type"])
	assert.Equal(t, "new", record["title"])

	stored, err := p.Get("n1")
	require.NoError(t, err)
	assert.NotContains(t, stored.Data, "id")
	assert.NotContains(t, stored.Data, "type")
}

func TestRelateAndUnrelate(t *testing.T) {
	a, p := newAdapter()

	_, err := a.Create("person", map[string]any{"id": "alice"})
	require.NoError(t, err)
	_, err = a.Create("task", map[string]any{"id": "t1"})
	require.NoError(t, err)

	record, err := a.Relate("assign", "alice", "t1", map[string]any{"note": "urgent"})
	require.NoError(t, err)
	assert.Equal(t, "assign", record["type"])
	assert.Equal(t, "alice", record["subject"])
	assert.Equal(t, "t1", record["object"])
	assert.Equal(t, "urgent", record["note"])

	// The relation type was auto-defined with conjugations.
	rt, err := p.GetRelationType("assign")
	require.NoError(t, err)
	assert.Equal(t, "assignedBy", rt.ByField)

	related, err := a.Related("alice", "assign")
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "t1", related[0]["id"])

	// Unrelate removes exactly one matching edge per call.
	_, err = a.Relate("assign", "alice", "t1", nil)
	require.NoError(t, err)

	removed, err := a.Unrelate("assign", "alice", "t1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = a.Unrelate("assign", "alice", "t1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = a.Unrelate("assign", "alice", "t1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestDelete(t *testing.T) {
	a, _ := newAdapter()
	_, err := a.Create("note", map[string]any{"id": "n1"})
	require.NoError(t, err)

	removed, err := a.Delete("n1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = a.Delete("n1")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = a.Get("n1")
	require.ErrorIs(t, err, types.ErrNotFound)
}
