package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/loom/internal/graph"
	"github.com/mesh-intelligence/loom/internal/validate"
	"github.com/mesh-intelligence/loom/pkg/types"
)

// Provider implements types.Provider and types.Restorer for one namespace
// over its SQLite database. A single mutex serializes all operations,
// matching the single-writer-per-namespace model.
type Provider struct {
	mu sync.Mutex
	db *sql.DB
}

// timeFormat keeps nanosecond precision so the updatedAt monotonicity
// bump survives the round-trip through the text column. The fraction is
// fixed-width: trailing zeros stay, so lexicographic order on the column
// equals time order even when a timestamp lands on a whole second.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func bumpTime(prev time.Time) time.Time {
	now := time.Now()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}

// Entity-type registry.

func (p *Provider) DefineEntityType(def types.EntityTypeDef) (*types.EntityType, error) {
	if def.Name == "" {
		return nil, types.ErrInvalidName
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	et := types.NewEntityType(def)
	var schemaJSON sql.NullString
	if len(et.Schema) > 0 {
		raw, err := json.Marshal(et.Schema)
		if err != nil {
			return nil, fmt.Errorf("marshaling schema: %w", err)
		}
		schemaJSON = sql.NullString{String: string(raw), Valid: true}
	}
	_, err := p.db.Exec(`
		INSERT INTO entity_types (name, singular, plural, slug, description, schema, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			singular = excluded.singular,
			plural = excluded.plural,
			slug = excluded.slug,
			description = excluded.description,
			schema = excluded.schema`,
		et.Name, et.Singular, et.Plural, et.Slug, nullString(et.Description),
		schemaJSON, et.CreatedAt.Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("upserting entity type: %w", err)
	}
	// Read back so a redefine keeps the original creation timestamp.
	return p.getEntityType(et.Name)
}

func (p *Provider) GetEntityType(name string) (*types.EntityType, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.getEntityType(name)
}

func (p *Provider) getEntityType(name string) (*types.EntityType, error) {
	row := p.db.QueryRow(`
		SELECT name, singular, plural, slug, description, schema, created_at
		FROM entity_types WHERE name = ?`, name)
	return scanEntityType(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntityType(row rowScanner) (*types.EntityType, error) {
	var et types.EntityType
	var desc, schemaJSON sql.NullString
	var createdAt string
	err := row.Scan(&et.Name, &et.Singular, &et.Plural, &et.Slug, &desc, &schemaJSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning entity type: %w", err)
	}
	if desc.Valid {
		et.Description = desc.String
	}
	if schemaJSON.Valid && schemaJSON.String != "" {
		if err := json.Unmarshal([]byte(schemaJSON.String), &et.Schema); err != nil {
			return nil, fmt.Errorf("parsing entity type schema: %w", err)
		}
	}
	et.CreatedAt = parseTime(createdAt)
	return &et, nil
}

func (p *Provider) ListEntityTypes() ([]*types.EntityType, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rows, err := p.db.Query(`
		SELECT name, singular, plural, slug, description, schema, created_at
		FROM entity_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing entity types: %w", err)
	}
	defer rows.Close()

	out := []*types.EntityType{}
	for rows.Next() {
		et, err := scanEntityType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, et)
	}
	return out, rows.Err()
}

// Relation-type registry.

func (p *Provider) DefineRelationType(def types.RelationTypeDef) (*types.RelationType, error) {
	if def.Name == "" {
		return nil, types.ErrInvalidName
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	rt := types.NewRelationType(def)
	_, err := p.db.Exec(`
		INSERT INTO relation_types (name, imperative, present, gerund, past, past_participle,
			by_field, at_field, inverse, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			imperative = excluded.imperative,
			present = excluded.present,
			gerund = excluded.gerund,
			past = excluded.past,
			past_participle = excluded.past_participle,
			by_field = excluded.by_field,
			at_field = excluded.at_field,
			inverse = excluded.inverse,
			description = excluded.description`,
		rt.Name, rt.Imperative, rt.Present, rt.Gerund, rt.Past, rt.PastParticiple,
		rt.ByField, rt.AtField, nullString(rt.Inverse), nullString(rt.Description),
		rt.CreatedAt.Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("upserting relation type: %w", err)
	}
	return p.getRelationType(rt.Name)
}

func (p *Provider) GetRelationType(name string) (*types.RelationType, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.getRelationType(name)
}

func (p *Provider) getRelationType(name string) (*types.RelationType, error) {
	row := p.db.QueryRow(`
		SELECT name, imperative, present, gerund, past, past_participle,
			by_field, at_field, inverse, description, created_at
		FROM relation_types WHERE name = ?`, name)
	return scanRelationType(row)
}

func scanRelationType(row rowScanner) (*types.RelationType, error) {
	var rt types.RelationType
	var inverse, desc sql.NullString
	var createdAt string
	err := row.Scan(&rt.Name, &rt.Imperative, &rt.Present, &rt.Gerund, &rt.Past,
		&rt.PastParticiple, &rt.ByField, &rt.AtField, &inverse, &desc, &createdAt)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning relation type: %w", err)
	}
	if inverse.Valid {
		rt.Inverse = inverse.String
	}
	if desc.Valid {
		rt.Description = desc.String
	}
	rt.CreatedAt = parseTime(createdAt)
	return &rt, nil
}

func (p *Provider) ListRelationTypes() ([]*types.RelationType, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rows, err := p.db.Query(`
		SELECT name, imperative, present, gerund, past, past_participle,
			by_field, at_field, inverse, description, created_at
		FROM relation_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing relation types: %w", err)
	}
	defer rows.Close()

	out := []*types.RelationType{}
	for rows.Next() {
		rt, err := scanRelationType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// Entity CRUD.

func (p *Provider) Create(typeName string, data map[string]any, opts types.CreateOptions) (*types.Entity, error) {
	if typeName == "" {
		return nil, types.ErrInvalidName
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if opts.Validate {
		et, err := p.getEntityType(typeName)
		if err == nil {
			if verr := validate.Error(typeName, et.Schema, data); verr != nil {
				return nil, verr
			}
		} else if err != types.ErrNotFound {
			return nil, err
		}
	}

	id := opts.ID
	if id == "" {
		id = newID()
	}
	now := time.Now()
	createdAt, updatedAt := now, now
	// Creating over an existing id replaces the payload but keeps the
	// original creation timestamp, which also makes log replay idempotent.
	var prevCreated, prevUpdated string
	err := p.db.QueryRow(`SELECT created_at, updated_at FROM entities WHERE id = ?`, id).
		Scan(&prevCreated, &prevUpdated)
	switch {
	case err == nil:
		createdAt = parseTime(prevCreated)
		updatedAt = bumpTime(parseTime(prevUpdated))
	case err != sql.ErrNoRows:
		return nil, fmt.Errorf("checking entity: %w", err)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshaling entity data: %w", err)
	}
	_, err = p.db.Exec(`
		INSERT INTO entities (id, type, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		id, typeName, string(raw), createdAt.Format(timeFormat), updatedAt.Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("upserting entity: %w", err)
	}
	return &types.Entity{
		ID:        id,
		Type:      typeName,
		Data:      types.CloneData(data),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func (p *Provider) Get(id string) (*types.Entity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.getEntity(id)
}

func (p *Provider) getEntity(id string) (*types.Entity, error) {
	row := p.db.QueryRow(`SELECT id, type, data, created_at, updated_at FROM entities WHERE id = ?`, id)
	return scanEntity(row)
}

func scanEntity(row rowScanner) (*types.Entity, error) {
	var e types.Entity
	var data, createdAt, updatedAt string
	err := row.Scan(&e.ID, &e.Type, &data, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning entity: %w", err)
	}
	if data != "" && data != "null" {
		if err := json.Unmarshal([]byte(data), &e.Data); err != nil {
			return nil, fmt.Errorf("parsing entity data: %w", err)
		}
	}
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	return &e, nil
}

func (p *Provider) List(typeName string, opts types.ListOptions) ([]*types.Entity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	query := "SELECT id, type, data, created_at, updated_at FROM entities"
	var args []any
	if typeName != "" {
		query += " WHERE type = ?"
		args = append(args, typeName)
	}

	// The sort key travels as a bound json_extract path, never query
	// text, so arbitrary caller field names carry no injection risk.
	if opts.OrderBy != "" {
		query += " ORDER BY json_extract(data, ?) " + sortDirection(opts.Order) + ", id ASC"
		args = append(args, "$."+opts.OrderBy)
	} else {
		query += " ORDER BY created_at " + sortDirection(opts.Order) + ", id ASC"
	}

	query += " LIMIT ? OFFSET ?"
	args = append(args, types.ClampLimit(opts.Limit), maxInt(opts.Offset, 0))

	return p.queryEntities(query, args...)
}

// sortDirection maps the caller's order token onto SQL text through an
// allow-list; anything unrecognized sorts ascending.
func sortDirection(order string) string {
	if order == types.OrderDesc {
		return "DESC"
	}
	return "ASC"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (p *Provider) queryEntities(query string, args ...any) ([]*types.Entity, error) {
	rows, err := p.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	out := []*types.Entity{}
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Provider) Find(typeName string, match map[string]any) ([]*types.Entity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	query := "SELECT id, type, data, created_at, updated_at FROM entities"
	var conditions []string
	var args []any
	if typeName != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, typeName)
	}
	for field, want := range match {
		conditions = append(conditions, "json_extract(data, ?) = ?")
		args = append(args, "$."+field, scalarArg(want))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC LIMIT ?"
	args = append(args, types.ClampLimit(0))

	return p.queryEntities(query, args...)
}

// scalarArg converts a match value for comparison against json_extract
// output: booleans become 0/1 the way SQLite's JSON functions report
// them, everything else binds as-is.
func scalarArg(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

func (p *Provider) Update(id string, partial map[string]any) (*types.Entity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, err := p.getEntity(id)
	if err != nil {
		return nil, err
	}
	if e.Data == nil {
		e.Data = make(map[string]any)
	}
	for k, v := range partial {
		e.Data[k] = v
	}
	e.UpdatedAt = bumpTime(e.UpdatedAt)

	raw, err := json.Marshal(e.Data)
	if err != nil {
		return nil, fmt.Errorf("marshaling entity data: %w", err)
	}
	_, err = p.db.Exec(`UPDATE entities SET data = ?, updated_at = ? WHERE id = ?`,
		string(raw), e.UpdatedAt.Format(timeFormat), id)
	if err != nil {
		return nil, fmt.Errorf("updating entity: %w", err)
	}
	return e, nil
}

func (p *Provider) Delete(id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	res, err := p.db.Exec(`DELETE FROM entities WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting entity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting entity: %w", err)
	}
	return n > 0, nil
}

func (p *Provider) Search(query string, opts types.SearchOptions) ([]*types.Entity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sqlQuery := "SELECT id, type, data, created_at, updated_at FROM entities WHERE instr(lower(data), lower(?)) > 0"
	args := []any{query}
	if opts.Type != "" {
		sqlQuery += " AND type = ?"
		args = append(args, opts.Type)
	}
	sqlQuery += " ORDER BY created_at ASC, id ASC LIMIT ?"
	args = append(args, types.ClampLimit(opts.Limit))

	return p.queryEntities(sqlQuery, args...)
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
	if err := p.insertRelationship(r); err != nil {
		return nil, err
	}
	return r, nil
}

func (p *Provider) insertRelationship(r *types.Relationship) error {
	var data sql.NullString
	if r.Data != nil {
		raw, err := json.Marshal(r.Data)
		if err != nil {
			return fmt.Errorf("marshaling relationship data: %w", err)
		}
		data = sql.NullString{String: string(raw), Valid: true}
	}
	var completedAt sql.NullString
	if r.CompletedAt != nil {
		completedAt = sql.NullString{String: r.CompletedAt.Format(timeFormat), Valid: true}
	}
	_, err := p.db.Exec(`
		INSERT INTO relationships (id, relation, subject_id, object_id, data, status, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			relation = excluded.relation,
			subject_id = excluded.subject_id,
			object_id = excluded.object_id,
			data = excluded.data,
			status = excluded.status,
			completed_at = excluded.completed_at`,
		r.ID, r.Relation, nullString(r.SubjectID), nullString(r.ObjectID),
		data, r.Status, r.CreatedAt.Format(timeFormat), completedAt)
	if err != nil {
		return fmt.Errorf("upserting relationship: %w", err)
	}
	return nil
}

func (p *Provider) GetRelationship(id string) (*types.Relationship, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	row := p.db.QueryRow(`
		SELECT id, relation, subject_id, object_id, data, status, created_at, completed_at
		FROM relationships WHERE id = ?`, id)
	return scanRelationship(row)
}

func scanRelationship(row rowScanner) (*types.Relationship, error) {
	var r types.Relationship
	var subject, object, data, completedAt sql.NullString
	var createdAt string
	err := row.Scan(&r.ID, &r.Relation, &subject, &object, &data, &r.Status, &createdAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning relationship: %w", err)
	}
	r.SubjectID = subject.String
	r.ObjectID = object.String
	if data.Valid && data.String != "" && data.String != "null" {
		if err := json.Unmarshal([]byte(data.String), &r.Data); err != nil {
			return nil, fmt.Errorf("parsing relationship data: %w", err)
		}
	}
	r.CreatedAt = parseTime(createdAt)
	if completedAt.Valid {
		t := parseTime(completedAt.String)
		r.CompletedAt = &t
	}
	return &r, nil
}

func (p *Provider) ListRelationships(filter types.RelationshipFilter) ([]*types.Relationship, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	query := "SELECT id, relation, subject_id, object_id, data, status, created_at, completed_at FROM relationships"
	var conditions []string
	var args []any
	if filter.Relation != "" {
		conditions = append(conditions, "relation = ?")
		args = append(args, filter.Relation)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, "subject_id = ?")
		args = append(args, filter.SubjectID)
	}
	if filter.ObjectID != "" {
		conditions = append(conditions, "object_id = ?")
		args = append(args, filter.ObjectID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?"
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, types.ClampLimit(filter.Limit), offset)

	return p.queryRelationships(query, args...)
}

func (p *Provider) queryRelationships(query string, args ...any) ([]*types.Relationship, error) {
	rows, err := p.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	out := []*types.Relationship{}
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Provider) DeleteRelationship(id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	res, err := p.db.Exec(`DELETE FROM relationships WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting relationship: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting relationship: %w", err)
	}
	return n > 0, nil
}

// Graph traversal.

func (p *Provider) Edges(id, relation string, dir types.Direction) ([]*types.Relationship, error) {
	if !dir.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidDirection, dir)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	query := "SELECT id, relation, subject_id, object_id, data, status, created_at, completed_at FROM relationships WHERE "
	var args []any
	switch dir {
	case types.DirectionOut:
		query += "subject_id = ?"
		args = append(args, id)
	case types.DirectionIn:
		query += "object_id = ?"
		args = append(args, id)
	case types.DirectionBoth:
		query += "(subject_id = ? OR object_id = ?)"
		args = append(args, id, id)
	}
	if relation != "" {
		query += " AND relation = ?"
		args = append(args, relation)
	}
	query += " ORDER BY created_at ASC, id ASC LIMIT ?"
	args = append(args, types.ClampLimit(0))

	return p.queryRelationships(query, args...)
}

func (p *Provider) Related(id, relation string, dir types.Direction) ([]*types.Entity, error) {
	return graph.Related(p, id, relation, dir)
}

// Restorer.

func (p *Provider) PutEntityType(et *types.EntityType) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var schemaJSON sql.NullString
	if len(et.Schema) > 0 {
		raw, err := json.Marshal(et.Schema)
		if err != nil {
			return fmt.Errorf("marshaling schema: %w", err)
		}
		schemaJSON = sql.NullString{String: string(raw), Valid: true}
	}
	_, err := p.db.Exec(`
		INSERT INTO entity_types (name, singular, plural, slug, description, schema, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			singular = excluded.singular,
			plural = excluded.plural,
			slug = excluded.slug,
			description = excluded.description,
			schema = excluded.schema,
			created_at = excluded.created_at`,
		et.Name, et.Singular, et.Plural, et.Slug, nullString(et.Description),
		schemaJSON, et.CreatedAt.Format(timeFormat))
	if err != nil {
		return fmt.Errorf("restoring entity type: %w", err)
	}
	return nil
}

func (p *Provider) PutRelationType(rt *types.RelationType) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, err := p.db.Exec(`
		INSERT INTO relation_types (name, imperative, present, gerund, past, past_participle,
			by_field, at_field, inverse, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			imperative = excluded.imperative,
			present = excluded.present,
			gerund = excluded.gerund,
			past = excluded.past,
			past_participle = excluded.past_participle,
			by_field = excluded.by_field,
			at_field = excluded.at_field,
			inverse = excluded.inverse,
			description = excluded.description,
			created_at = excluded.created_at`,
		rt.Name, rt.Imperative, rt.Present, rt.Gerund, rt.Past, rt.PastParticiple,
		rt.ByField, rt.AtField, nullString(rt.Inverse), nullString(rt.Description),
		rt.CreatedAt.Format(timeFormat))
	if err != nil {
		return fmt.Errorf("restoring relation type: %w", err)
	}
	return nil
}

func (p *Provider) PutEntity(e *types.Entity) error {
	if e.ID == "" {
		return types.ErrInvalidID
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("marshaling entity data: %w", err)
	}
	_, err = p.db.Exec(`
		INSERT INTO entities (id, type, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			data = excluded.data,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		e.ID, e.Type, string(raw), e.CreatedAt.Format(timeFormat), e.UpdatedAt.Format(timeFormat))
	if err != nil {
		return fmt.Errorf("restoring entity: %w", err)
	}
	return nil
}

func (p *Provider) PutRelationship(r *types.Relationship) error {
	if r.ID == "" {
		return types.ErrInvalidID
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.insertRelationship(r)
}

func (p *Provider) Wipe() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, table := range []string{"relationships", "entities", "relation_types", "entity_types"} {
		if _, err := p.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("wiping %s: %w", table, err)
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
