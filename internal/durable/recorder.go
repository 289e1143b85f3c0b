package durable

import (
	"github.com/mesh-intelligence/loom/pkg/types"
)

// Recorder wraps a provider and appends a WAL record after every
// successful mutation. Reads pass straight through. The logged record
// holds the state the mutation produced, keeping replay idempotent.
type Recorder struct {
	inner types.Provider
	wal   *WAL
}

// NewRecorder wraps the provider. The caller owns WAL compaction.
func NewRecorder(inner types.Provider, wal *WAL) *Recorder {
	return &Recorder{inner: inner, wal: wal}
}

// Unwrap exposes the underlying provider, mainly for snapshot restores.
func (r *Recorder) Unwrap() types.Provider { return r.inner }

func (r *Recorder) DefineEntityType(def types.EntityTypeDef) (*types.EntityType, error) {
	et, err := r.inner.DefineEntityType(def)
	if err != nil {
		return nil, err
	}
	if err := r.wal.Append(Record{Op: opPutEntityType, EntityType: et}); err != nil {
		return nil, err
	}
	return et, nil
}

func (r *Recorder) GetEntityType(name string) (*types.EntityType, error) {
	return r.inner.GetEntityType(name)
}

func (r *Recorder) ListEntityTypes() ([]*types.EntityType, error) {
	return r.inner.ListEntityTypes()
}

func (r *Recorder) DefineRelationType(def types.RelationTypeDef) (*types.RelationType, error) {
	rt, err := r.inner.DefineRelationType(def)
	if err != nil {
		return nil, err
	}
	if err := r.wal.Append(Record{Op: opPutRelationType, RelationType: rt}); err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *Recorder) GetRelationType(name string) (*types.RelationType, error) {
	return r.inner.GetRelationType(name)
}

func (r *Recorder) ListRelationTypes() ([]*types.RelationType, error) {
	return r.inner.ListRelationTypes()
}

func (r *Recorder) Create(typeName string, data map[string]any, opts types.CreateOptions) (*types.Entity, error) {
	e, err := r.inner.Create(typeName, data, opts)
	if err != nil {
		return nil, err
	}
	if err := r.wal.Append(Record{Op: opPutEntity, Entity: e}); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *Recorder) Get(id string) (*types.Entity, error) {
	return r.inner.Get(id)
}

func (r *Recorder) List(typeName string, opts types.ListOptions) ([]*types.Entity, error) {
	return r.inner.List(typeName, opts)
}

func (r *Recorder) Find(typeName string, match map[string]any) ([]*types.Entity, error) {
	return r.inner.Find(typeName, match)
}

func (r *Recorder) Update(id string, partial map[string]any) (*types.Entity, error) {
	e, err := r.inner.Update(id, partial)
	if err != nil {
		return nil, err
	}
	if err := r.wal.Append(Record{Op: opPutEntity, Entity: e}); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *Recorder) Delete(id string) (bool, error) {
	deleted, err := r.inner.Delete(id)
	if err != nil || !deleted {
		return deleted, err
	}
	if err := r.wal.Append(Record{Op: opDeleteEntity, ID: id}); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Recorder) Search(query string, opts types.SearchOptions) ([]*types.Entity, error) {
	return r.inner.Search(query, opts)
}

func (r *Recorder) Relate(relation, subjectID, objectID string, payload map[string]any) (*types.Relationship, error) {
	rel, err := r.inner.Relate(relation, subjectID, objectID, payload)
	if err != nil {
		return nil, err
	}
	if err := r.wal.Append(Record{Op: opPutRelationship, Relationship: rel}); err != nil {
		return nil, err
	}
	return rel, nil
}

func (r *Recorder) GetRelationship(id string) (*types.Relationship, error) {
	return r.inner.GetRelationship(id)
}

func (r *Recorder) ListRelationships(filter types.RelationshipFilter) ([]*types.Relationship, error) {
	return r.inner.ListRelationships(filter)
}

func (r *Recorder) DeleteRelationship(id string) (bool, error) {
	deleted, err := r.inner.DeleteRelationship(id)
	if err != nil || !deleted {
		return deleted, err
	}
	if err := r.wal.Append(Record{Op: opDeleteRelationship, ID: id}); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Recorder) Edges(id, relation string, dir types.Direction) ([]*types.Relationship, error) {
	return r.inner.Edges(id, relation, dir)
}

func (r *Recorder) Related(id, relation string, dir types.Direction) ([]*types.Entity, error) {
	return r.inner.Related(id, relation, dir)
}
