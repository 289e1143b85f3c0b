package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/loom/pkg/types"
)

// stubSource serves a fixed edge set and entity map.
type stubSource struct {
	edges    []*types.Relationship
	entities map[string]*types.Entity
	edgesErr error
	getErr   error
}

func (s *stubSource) Edges(id, relation string, dir types.Direction) ([]*types.Relationship, error) {
	if s.edgesErr != nil {
		return nil, s.edgesErr
	}
	var out []*types.Relationship
	for _, e := range s.edges {
		if relation != "" && e.Relation != relation {
			continue
		}
		matchOut := e.SubjectID == id && (dir == types.DirectionOut || dir == types.DirectionBoth)
		matchIn := e.ObjectID == id && (dir == types.DirectionIn || dir == types.DirectionBoth)
		if matchOut || matchIn {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubSource) Get(id string) (*types.Entity, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	e, ok := s.entities[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return e, nil
}

func edge(relation, subject, object string) *types.Relationship {
	return &types.Relationship{ID: relation + ":" + subject + ":" + object,
		Relation: relation, SubjectID: subject, ObjectID: object}
}

func entity(id string) *types.Entity {
	return &types.Entity{ID: id, Type: "node"}
}

func TestRelated(t *testing.T) {
	src := &stubSource{
		edges: []*types.Relationship{
			edge("assign", "alice", "t1"),
			edge("assign", "alice", "t1"), // duplicate edge, one peer
			edge("assign", "alice", "t2"),
			edge("assign", "t3", "alice"),
			edge("own", "alice", "t4"),
			edge("assign", "alice", "ghost"), // dangling object
		},
		entities: map[string]*types.Entity{
			"alice": entity("alice"),
			"t1":    entity("t1"),
			"t2":    entity("t2"),
			"t3":    entity("t3"),
			"t4":    entity("t4"),
		},
	}

	ids := func(es []*types.Entity) []string {
		out := make([]string, len(es))
		for i, e := range es {
			out[i] = e.ID
		}
		return out
	}

	out, err := Related(src, "alice", "assign", types.DirectionOut)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, ids(out))

	in, err := Related(src, "alice", "assign", types.DirectionIn)
	require.NoError(t, err)
	assert.Equal(t, []string{"t3"}, ids(in))

	both, err := Related(src, "alice", "assign", types.DirectionBoth)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "t3"}, ids(both))

	all, err := Related(src, "alice", "", types.DirectionBoth)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "t3", "t4"}, ids(all))
}

func TestRelatedSelfLoop(t *testing.T) {
	src := &stubSource{
		edges:    []*types.Relationship{edge("ref", "a", "a")},
		entities: map[string]*types.Entity{"a": entity("a")},
	}
	out, err := Related(src, "a", "ref", types.DirectionBoth)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)
}

func TestRelatedInvalidDirection(t *testing.T) {
	src := &stubSource{}
	_, err := Related(src, "a", "", types.Direction("sideways"))
	require.ErrorIs(t, err, types.ErrInvalidDirection)
}

func TestRelatedPropagatesErrors(t *testing.T) {
	boom := errors.New("backend down")

	_, err := Related(&stubSource{edgesErr: boom}, "a", "", types.DirectionBoth)
	require.ErrorIs(t, err, boom)

	src := &stubSource{
		edges:  []*types.Relationship{edge("ref", "a", "b")},
		getErr: boom,
	}
	_, err = Related(src, "a", "", types.DirectionBoth)
	require.ErrorIs(t, err, boom)
}
