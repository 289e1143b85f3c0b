package types

// Direction selects which side of a relationship a traversal follows.
type Direction string

// Traversal directions. For an id X: DirectionOut matches relationships
// where X is the subject and returns the object side; DirectionIn matches
// relationships where X is the object and returns the subject side;
// DirectionBoth is the union of the two, deduplicated by entity id.
const (
	DirectionOut  Direction = "out"
	DirectionIn   Direction = "in"
	DirectionBoth Direction = "both"
)

// Valid reports whether d is a recognized direction token. Any other
// token is a programming error and operations fail fast with
// ErrInvalidDirection rather than silently defaulting.
func (d Direction) Valid() bool {
	return d == DirectionOut || d == DirectionIn || d == DirectionBoth
}

// Page-size policy applied by every backend to list, search, relationship,
// and traversal queries. Queries with no caller limit return at most
// DefaultPageSize records; no caller-supplied limit may exceed MaxPageSize.
const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// ClampLimit applies the shared page-size policy to a caller-supplied
// limit. Zero or negative means "no limit given" and yields the default.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// Sort orders for ListOptions.Order.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ListOptions controls pagination and ordering for List.
// OrderBy names a payload field; ordering on it is performed by the
// backend without interpolating the field name into any query text.
type ListOptions struct {
	Limit   int
	Offset  int
	OrderBy string
	Order   string
}

// SearchOptions controls Search. Type, when non-empty, scopes the match
// to entities of that EntityType.
type SearchOptions struct {
	Type  string
	Limit int
}

// CreateOptions controls Create. ID, when non-empty, is used instead of a
// generated id. Validate opts in to schema validation against the
// EntityType's field schema; validation is a no-op when the type has no
// schema.
type CreateOptions struct {
	ID       string
	Validate bool
}

// Provider is the uniform storage contract implemented by the embedded
// memory backend, the SQL-backed backend, and the remote HTTP client.
// Operations against one namespace are serialized by the host; a Provider
// instance is bound to exactly one namespace.
type Provider interface {
	// Entity-type registry.
	DefineEntityType(def EntityTypeDef) (*EntityType, error)
	GetEntityType(name string) (*EntityType, error)
	ListEntityTypes() ([]*EntityType, error)

	// Relation-type registry.
	DefineRelationType(def RelationTypeDef) (*RelationType, error)
	GetRelationType(name string) (*RelationType, error)
	ListRelationTypes() ([]*RelationType, error)

	// Entity CRUD. Create with an existing id replaces the payload while
	// preserving the original creation timestamp. Get and Update return
	// ErrNotFound for missing ids; Delete reports absence through its
	// boolean, never through an error.
	Create(typeName string, data map[string]any, opts CreateOptions) (*Entity, error)
	Get(id string) (*Entity, error)
	List(typeName string, opts ListOptions) ([]*Entity, error)
	Find(typeName string, match map[string]any) ([]*Entity, error)
	Update(id string, partial map[string]any) (*Entity, error)
	Delete(id string) (bool, error)
	Search(query string, opts SearchOptions) ([]*Entity, error)

	// Relationship CRUD. DeleteRelationship irreversibly removes the
	// edge/event/audit record and the edge disappears from traversal.
	Relate(relation, subjectID, objectID string, payload map[string]any) (*Relationship, error)
	GetRelationship(id string) (*Relationship, error)
	ListRelationships(filter RelationshipFilter) ([]*Relationship, error)
	DeleteRelationship(id string) (bool, error)

	// Graph traversal. An empty relation matches every relation type.
	Edges(id, relation string, dir Direction) ([]*Relationship, error)
	Related(id, relation string, dir Direction) ([]*Entity, error)
}

// Restorer is the exact-record restore surface used by the durability
// layer. Put operations upsert records verbatim, timestamps included, so
// snapshot restore, JSONL import, and WAL replay are idempotent. The
// embedded and SQL-backed providers implement it; the remote client does
// not.
type Restorer interface {
	PutEntityType(et *EntityType) error
	PutRelationType(rt *RelationType) error
	PutEntity(e *Entity) error
	PutRelationship(r *Relationship) error

	// Wipe removes every record in the namespace.
	Wipe() error
}
