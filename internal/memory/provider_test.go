package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mesh-intelligence/loom/internal/providertest"
	"github.com/mesh-intelligence/loom/pkg/types"
)

func TestProviderConformance(t *testing.T) {
	providertest.Run(t, func(t *testing.T) types.Provider {
		return NewProvider()
	})
}

func TestStoreNamespaces(t *testing.T) {
	s := NewStore()

	a, err := s.Namespace("alpha")
	require.NoError(t, err)
	b, err := s.Namespace("beta")
	require.NoError(t, err)

	_, err = a.Create("note", map[string]any{"title": "only in alpha"}, types.CreateOptions{ID: "n1"})
	require.NoError(t, err)

	// Namespaces are isolated.
	_, err = b.Get("n1")
	require.ErrorIs(t, err, types.ErrNotFound)

	// The same name resolves to the same provider.
	again, err := s.Namespace("alpha")
	require.NoError(t, err)
	got, err := again.Get("n1")
	require.NoError(t, err)
	assert.Equal(t, "only in alpha", got.Data["title"])
}

func TestStoreDefaultNamespace(t *testing.T) {
	s := NewStore()

	unnamed, err := s.Namespace("")
	require.NoError(t, err)
	named, err := s.Namespace(types.DefaultNamespace)
	require.NoError(t, err)

	_, err = unnamed.Create("note", nil, types.CreateOptions{ID: "shared"})
	require.NoError(t, err)
	_, err = named.Get("shared")
	require.NoError(t, err)
}

// Updates applied one field at a time must land on the same payload as a
// plain map merge.
func TestUpdateMergeMatchesMapSemantics(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := NewProvider()
		e, err := p.Create("note", nil, types.CreateOptions{})
		require.NoError(t, err)

		expected := map[string]any{}
		steps := rapid.IntRange(1, 20).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			key := rapid.StringMatching(`[a-c]`).Draw(t, "key")
			val := rapid.Float64Range(-100, 100).Draw(t, "val")
			expected[key] = val
			_, err := p.Update(e.ID, map[string]any{key: val})
			require.NoError(t, err)
		}

		got, err := p.Get(e.ID)
		require.NoError(t, err)
		assert.Equal(t, expected, got.Data)
	})
}

// updatedAt must strictly advance across any sequence of writes to one
// entity, even when the clock does not move between them.
func TestUpdatedAtMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := NewProvider()
		e, err := p.Create("note", nil, types.CreateOptions{ID: "m"})
		require.NoError(t, err)

		last := e.UpdatedAt
		writes := rapid.IntRange(1, 30).Draw(t, "writes")
		for i := 0; i < writes; i++ {
			var updated *types.Entity
			if rapid.Bool().Draw(t, "recreate") {
				updated, err = p.Create("note", map[string]any{"i": i}, types.CreateOptions{ID: "m"})
			} else {
				updated, err = p.Update("m", map[string]any{"i": i})
			}
			require.NoError(t, err)
			require.True(t, updated.UpdatedAt.After(last),
				"write %d: %v is not after %v", i, updated.UpdatedAt, last)
			last = updated.UpdatedAt
		}
	})
}

// Returned entities are detached copies; mutating them must not reach
// the stored record.
func TestCloneIsolation(t *testing.T) {
	p := NewProvider()
	e, err := p.Create("note", map[string]any{"tags": []any{"a"}}, types.CreateOptions{})
	require.NoError(t, err)

	e.Data["tags"].([]any)[0] = "mutated"
	e.Data["new"] = true

	got, err := p.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, []any{"a"}, got.Data["tags"])
	assert.NotContains(t, got.Data, "new")
}
