// Package graph implements relationship traversal once, backend-agnostically,
// on top of the Edges primitive. Providers delegate their Related method
// here so traversal semantics cannot diverge between backends: correctness
// reduces to edge-query correctness.
package graph

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/loom/pkg/types"
)

// EdgeSource is the slice of the Provider contract traversal needs.
type EdgeSource interface {
	Edges(id, relation string, dir types.Direction) ([]*types.Relationship, error)
	Get(id string) (*types.Entity, error)
}

// Related resolves the edge set for the requested direction, collects the
// peer ids (subject side for in, object side for out, both sides for both),
// deduplicates them, and batch-fetches the corresponding entities. Peers
// whose target was deleted are silently dropped: subject/object pointers
// are weak references and dangling ids are tolerated.
func Related(src EdgeSource, id, relation string, dir types.Direction) ([]*types.Entity, error) {
	if !dir.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidDirection, dir)
	}
	edges, err := src.Edges(id, relation, dir)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var peers []string
	addPeer := func(peer string) {
		if peer == "" || seen[peer] {
			return
		}
		seen[peer] = true
		peers = append(peers, peer)
	}
	for _, edge := range edges {
		if edge.SubjectID == id && (dir == types.DirectionOut || dir == types.DirectionBoth) {
			addPeer(edge.ObjectID)
		}
		if edge.ObjectID == id && (dir == types.DirectionIn || dir == types.DirectionBoth) {
			addPeer(edge.SubjectID)
		}
	}

	entities := make([]*types.Entity, 0, len(peers))
	for _, peer := range peers {
		e, err := src.Get(peer)
		if errors.Is(err, types.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}
