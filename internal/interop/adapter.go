// Package interop adapts the provider contract for external callers that
// speak in plain maps: agent frameworks, script bindings, anything that
// wants records without Go types. Records crossing the boundary carry
// reserved "type" and "id" fields alongside the payload.
package interop

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/loom/pkg/types"
)

// Adapter wraps a provider with a map-in, map-out surface. Types are
// defined on first use with deriver defaults, so callers never touch the
// registries unless they want schemas.
type Adapter struct {
	provider types.Provider
}

func New(provider types.Provider) *Adapter {
	return &Adapter{provider: provider}
}

// toRecord flattens an entity into one map with the reserved fields.
func toRecord(e *types.Entity) map[string]any {
	record := make(map[string]any, len(e.Data)+2)
	for k, v := range e.Data {
		record[k] = v
	}
	record["id"] = e.ID
	record["type"] = e.Type
	return record
}

func toRecords(entities []*types.Entity) []map[string]any {
	out := make([]map[string]any, len(entities))
	for i, e := range entities {
		out[i] = toRecord(e)
	}
	return out
}

// stripReserved removes the boundary fields so they never leak into the
// stored payload.
func stripReserved(record map[string]any) map[string]any {
	data := make(map[string]any, len(record))
	for k, v := range record {
		if k == "id" || k == "type" {
			continue
		}
		data[k] = v
	}
	return data
}

// ensureEntityType defines the type with deriver defaults when it is not
// registered yet.
func (a *Adapter) ensureEntityType(name string) error {
	_, err := a.provider.GetEntityType(name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return err
	}
	_, err = a.provider.DefineEntityType(types.EntityTypeDef{Name: name})
	return err
}

func (a *Adapter) ensureRelationType(name string) error {
	_, err := a.provider.GetRelationType(name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return err
	}
	_, err = a.provider.DefineRelationType(types.RelationTypeDef{Name: name})
	return err
}

// Get returns one record by id.
func (a *Adapter) Get(id string) (map[string]any, error) {
	e, err := a.provider.Get(id)
	if err != nil {
		return nil, err
	}
	return toRecord(e), nil
}

// List returns records of one type, or of every type when typeName is
// empty.
func (a *Adapter) List(typeName string, limit, offset int) ([]map[string]any, error) {
	entities, err := a.provider.List(typeName, types.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return toRecords(entities), nil
}

// Search matches the query against serialized payloads.
func (a *Adapter) Search(query, typeName string, limit int) ([]map[string]any, error) {
	entities, err := a.provider.Search(query, types.SearchOptions{Type: typeName, Limit: limit})
	if err != nil {
		return nil, err
	}
	return toRecords(entities), nil
}

// Create stores a record. The reserved "type" field names the entity
// type, taking precedence over the typeName argument; an "id" field pins
// the identifier. The type is auto-defined when unknown.
func (a *Adapter) Create(typeName string, record map[string]any) (map[string]any, error) {
	if t, ok := record["type"].(string); ok && t != "" {
		typeName = t
	}
	if typeName == "" {
		return nil, fmt.Errorf("%w: record has no type", types.ErrInvalidName)
	}
	if err := a.ensureEntityType(typeName); err != nil {
		return nil, err
	}
	opts := types.CreateOptions{}
	if id, ok := record["id"].(string); ok {
		opts.ID = id
	}
	e, err := a.provider.Create(typeName, stripReserved(record), opts)
	if err != nil {
		return nil, err
	}
	return toRecord(e), nil
}

// Update shallow-merges the record's payload fields into the entity.
func (a *Adapter) Update(id string, record map[string]any) (map[string]any, error) {
	e, err := a.provider.Update(id, stripReserved(record))
	if err != nil {
		return nil, err
	}
	return toRecord(e), nil
}

// Delete reports whether anything was removed.
func (a *Adapter) Delete(id string) (bool, error) {
	return a.provider.Delete(id)
}

// Related returns records reachable from id over the named relation in
// both directions; relation may be empty to follow every edge.
func (a *Adapter) Related(id, relation string) ([]map[string]any, error) {
	entities, err := a.provider.Related(id, relation, types.DirectionBoth)
	if err != nil {
		return nil, err
	}
	return toRecords(entities), nil
}

// Relate links subject to object, auto-defining the relation type.
func (a *Adapter) Relate(relation, subjectID, objectID string, payload map[string]any) (map[string]any, error) {
	if err := a.ensureRelationType(relation); err != nil {
		return nil, err
	}
	rel, err := a.provider.Relate(relation, subjectID, objectID, payload)
	if err != nil {
		return nil, err
	}
	return relationshipRecord(rel), nil
}

// Unrelate removes the first relationship matching the triple and
// reports whether one was removed.
func (a *Adapter) Unrelate(relation, subjectID, objectID string) (bool, error) {
	rels, err := a.provider.ListRelationships(types.RelationshipFilter{
		Relation:  relation,
		SubjectID: subjectID,
		ObjectID:  objectID,
		Limit:     1,
	})
	if err != nil {
		return false, err
	}
	if len(rels) == 0 {
		return false, nil
	}
	return a.provider.DeleteRelationship(rels[0].ID)
}

func relationshipRecord(rel *types.Relationship) map[string]any {
	record := make(map[string]any, len(rel.Data)+5)
	for k, v := range rel.Data {
		record[k] = v
	}
	record["id"] = rel.ID
	record["type"] = rel.Relation
	record["subject"] = rel.SubjectID
	record["object"] = rel.ObjectID
	record["status"] = rel.Status
	return record
}
