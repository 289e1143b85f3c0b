package memory

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/loom/internal/graph"
	"github.com/mesh-intelligence/loom/internal/validate"
	"github.com/mesh-intelligence/loom/pkg/types"
)

// Provider implements types.Provider and types.Restorer for one namespace
// using maps. A single mutex serializes all operations, matching the
// single-writer-per-namespace model.
type Provider struct {
	mu            sync.Mutex
	entityTypes   map[string]*types.EntityType
	relationTypes map[string]*types.RelationType
	entities      map[string]*types.Entity
	relationships map[string]*types.Relationship
}

// NewProvider creates an empty single-namespace memory provider.
func NewProvider() *Provider {
	return &Provider{
		entityTypes:   make(map[string]*types.EntityType),
		relationTypes: make(map[string]*types.RelationType),
		entities:      make(map[string]*types.Entity),
		relationships: make(map[string]*types.Relationship),
	}
}

// newID generates a UUID v7 string, falling back to v4 if v7 generation
// fails.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// bumpTime returns the current time, advanced past prev by at least one
// nanosecond so updatedAt stays strictly monotonic even when the clock
// has not moved between operations.
func bumpTime(prev time.Time) time.Time {
	now := time.Now()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}

// Entity-type registry.

func (p *Provider) DefineEntityType(def types.EntityTypeDef) (*types.EntityType, error) {
	if def.Name == "" {
		return nil, types.ErrInvalidName
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	et := types.NewEntityType(def)
	if prev, ok := p.entityTypes[def.Name]; ok {
		et.CreatedAt = prev.CreatedAt
	}
	p.entityTypes[def.Name] = et
	cp := *et
	return &cp, nil
}

func (p *Provider) GetEntityType(name string) (*types.EntityType, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	et, ok := p.entityTypes[name]
	if !ok {
		return nil, types.ErrNotFound
	}
	cp := *et
	return &cp, nil
}

func (p *Provider) ListEntityTypes() ([]*types.EntityType, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*types.EntityType, 0, len(p.entityTypes))
	for _, et := range p.entityTypes {
		cp := *et
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Relation-type registry.

func (p *Provider) DefineRelationType(def types.RelationTypeDef) (*types.RelationType, error) {
	if def.Name == "" {
		return nil, types.ErrInvalidName
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	rt := types.NewRelationType(def)
	if prev, ok := p.relationTypes[def.Name]; ok {
		rt.CreatedAt = prev.CreatedAt
	}
	p.relationTypes[def.Name] = rt
	cp := *rt
	return &cp, nil
}

func (p *Provider) GetRelationType(name string) (*types.RelationType, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rt, ok := p.relationTypes[name]
	if !ok {
		return nil, types.ErrNotFound
	}
	cp := *rt
	return &cp, nil
}

func (p *Provider) ListRelationTypes() ([]*types.RelationType, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*types.RelationType, 0, len(p.relationTypes))
	for _, rt := range p.relationTypes {
		cp := *rt
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Entity CRUD.

func (p *Provider) Create(typeName string, data map[string]any, opts types.CreateOptions) (*types.Entity, error) {
	if typeName == "" {
		return nil, types.ErrInvalidName
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if opts.Validate {
		if et, ok := p.entityTypes[typeName]; ok {
			if err := validate.Error(typeName, et.Schema, data); err != nil {
				return nil, err
			}
		}
	}

	id := opts.ID
	if id == "" {
		id = newID()
	}
	now := time.Now()
	e := &types.Entity{
		ID:        id,
		Type:      typeName,
		Data:      types.CloneData(data),
		CreatedAt: now,
		UpdatedAt: now,
	}
	// Creating over an existing id replaces the payload but keeps the
	// original creation timestamp, which also makes log replay idempotent.
	if prev, ok := p.entities[id]; ok {
		e.CreatedAt = prev.CreatedAt
		e.UpdatedAt = bumpTime(prev.UpdatedAt)
	}
	p.entities[id] = e
	return e.Clone(), nil
}

func (p *Provider) Get(id string) (*types.Entity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entities[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return e.Clone(), nil
}

func (p *Provider) List(typeName string, opts types.ListOptions) ([]*types.Entity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var matched []*types.Entity
	for _, e := range p.entities {
		if typeName != "" && e.Type != typeName {
			continue
		}
		matched = append(matched, e)
	}
	sortEntities(matched, opts.OrderBy, opts.Order)
	return pageEntities(matched, opts.Offset, opts.Limit), nil
}

func (p *Provider) Find(typeName string, match map[string]any) ([]*types.Entity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var matched []*types.Entity
	for _, e := range p.entities {
		if typeName != "" && e.Type != typeName {
			continue
		}
		if !payloadMatches(e.Data, match) {
			continue
		}
		matched = append(matched, e)
	}
	sortEntities(matched, "", "")
	return pageEntities(matched, 0, 0), nil
}

func payloadMatches(data, match map[string]any) bool {
	for k, want := range match {
		got, ok := data[k]
		if !ok || fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

func (p *Provider) Update(id string, partial map[string]any) (*types.Entity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entities[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	if e.Data == nil {
		e.Data = make(map[string]any)
	}
	for k, v := range types.CloneData(partial) {
		e.Data[k] = v
	}
	e.UpdatedAt = bumpTime(e.UpdatedAt)
	return e.Clone(), nil
}

func (p *Provider) Delete(id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.entities[id]; !ok {
		return false, nil
	}
	delete(p.entities, id)
	return true, nil
}

func (p *Provider) Search(query string, opts types.SearchOptions) ([]*types.Entity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	needle := strings.ToLower(query)
	var matched []*types.Entity
	for _, e := range p.entities {
		if opts.Type != "" && e.Type != opts.Type {
			continue
		}
		raw, err := json.Marshal(e.Data)
		if err != nil {
			return nil, fmt.Errorf("serializing entity %s: %w", e.ID, err)
		}
		if strings.Contains(strings.ToLower(string(raw)), needle) {
			matched = append(matched, e)
		}
	}
	sortEntities(matched, "", "")
	return pageEntities(matched, 0, opts.Limit), nil
}

// Relationship CRUD.

func (p *Provider) Relate(relation, subjectID, objectID string, payload map[string]any) (*types.Relationship, error) {
	if relation == "" {
		return nil, types.ErrInvalidName
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	completed := now
	r := &types.Relationship{
		ID:          newID(),
		Relation:    relation,
		SubjectID:   subjectID,
		ObjectID:    objectID,
		Data:        types.CloneData(payload),
		Status:      types.StatusCompleted,
		CreatedAt:   now,
		CompletedAt: &completed,
	}
	p.relationships[r.ID] = r
	return r.Clone(), nil
}

func (p *Provider) GetRelationship(id string) (*types.Relationship, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.relationships[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return r.Clone(), nil
}

func (p *Provider) ListRelationships(filter types.RelationshipFilter) ([]*types.Relationship, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var matched []*types.Relationship
	for _, r := range p.relationships {
		if filter.Relation != "" && r.Relation != filter.Relation {
			continue
		}
		if filter.SubjectID != "" && r.SubjectID != filter.SubjectID {
			continue
		}
		if filter.ObjectID != "" && r.ObjectID != filter.ObjectID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		matched = append(matched, r)
	}
	sortRelationships(matched)
	return pageRelationships(matched, filter.Offset, filter.Limit), nil
}

func (p *Provider) DeleteRelationship(id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.relationships[id]; !ok {
		return false, nil
	}
	delete(p.relationships, id)
	return true, nil
}

// Graph traversal.

func (p *Provider) Edges(id, relation string, dir types.Direction) ([]*types.Relationship, error) {
	if !dir.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidDirection, dir)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	var matched []*types.Relationship
	for _, r := range p.relationships {
		if relation != "" && r.Relation != relation {
			continue
		}
		out := r.SubjectID == id && (dir == types.DirectionOut || dir == types.DirectionBoth)
		in := r.ObjectID == id && (dir == types.DirectionIn || dir == types.DirectionBoth)
		if out || in {
			matched = append(matched, r)
		}
	}
	sortRelationships(matched)
	return pageRelationships(matched, 0, 0), nil
}

func (p *Provider) Related(id, relation string, dir types.Direction) ([]*types.Entity, error) {
	return graph.Related(p, id, relation, dir)
}

// Restorer.

func (p *Provider) PutEntityType(et *types.EntityType) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := *et
	p.entityTypes[et.Name] = &cp
	return nil
}

func (p *Provider) PutRelationType(rt *types.RelationType) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := *rt
	p.relationTypes[rt.Name] = &cp
	return nil
}

func (p *Provider) PutEntity(e *types.Entity) error {
	if e.ID == "" {
		return types.ErrInvalidID
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entities[e.ID] = e.Clone()
	return nil
}

func (p *Provider) PutRelationship(r *types.Relationship) error {
	if r.ID == "" {
		return types.ErrInvalidID
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.relationships[r.ID] = r.Clone()
	return nil
}

func (p *Provider) Wipe() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entityTypes = make(map[string]*types.EntityType)
	p.relationTypes = make(map[string]*types.RelationType)
	p.entities = make(map[string]*types.Entity)
	p.relationships = make(map[string]*types.Relationship)
	return nil
}

// Sorting and paging helpers.

// sortEntities orders by the named payload field (creation time when none
// is given), ties broken by id for determinism.
func sortEntities(entities []*types.Entity, orderBy, order string) {
	desc := order == types.OrderDesc
	sort.SliceStable(entities, func(i, j int) bool {
		var cmp int
		if orderBy == "" {
			cmp = entities[i].CreatedAt.Compare(entities[j].CreatedAt)
		} else {
			cmp = compareValues(entities[i].Data[orderBy], entities[j].Data[orderBy])
		}
		if cmp == 0 {
			return entities[i].ID < entities[j].ID
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

// compareValues orders two payload values: numbers numerically, strings
// lexically, booleans false<true, and mixed or missing values by their
// printed form with nil first.
func compareValues(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	an, aok := toFloat(a)
	bn, bok := toFloat(b)
	if aok && bok {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs)
	}
	ab, aok := a.(bool)
	bb, bok := b.(bool)
	if aok && bok {
		switch {
		case !ab && bb:
			return -1
		case ab && !bb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func pageEntities(entities []*types.Entity, offset, limit int) []*types.Entity {
	limit = types.ClampLimit(limit)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(entities) {
		return []*types.Entity{}
	}
	entities = entities[offset:]
	if len(entities) > limit {
		entities = entities[:limit]
	}
	out := make([]*types.Entity, len(entities))
	for i, e := range entities {
		out[i] = e.Clone()
	}
	return out
}

func sortRelationships(rels []*types.Relationship) {
	sort.SliceStable(rels, func(i, j int) bool {
		if rels[i].CreatedAt.Equal(rels[j].CreatedAt) {
			return rels[i].ID < rels[j].ID
		}
		return rels[i].CreatedAt.Before(rels[j].CreatedAt)
	})
}

func pageRelationships(rels []*types.Relationship, offset, limit int) []*types.Relationship {
	limit = types.ClampLimit(limit)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rels) {
		return []*types.Relationship{}
	}
	rels = rels[offset:]
	if len(rels) > limit {
		rels = rels[:limit]
	}
	out := make([]*types.Relationship, len(rels))
	for i, r := range rels {
		out[i] = r.Clone()
	}
	return out
}
