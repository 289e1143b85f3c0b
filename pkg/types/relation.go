package types

import "time"

// Relationship statuses. Providers create relationships as already
// completed; the remaining statuses exist for callers that record
// longer-lived interactions.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// validStatuses is the set of recognized relationship status values.
var validStatuses = map[string]bool{
	StatusPending:   true,
	StatusActive:    true,
	StatusCompleted: true,
	StatusFailed:    true,
	StatusCancelled: true,
}

// IsValidStatus reports whether s is a recognized relationship status.
func IsValidStatus(s string) bool {
	return validStatuses[s]
}

// RelationType registers a relation name with its grammatical conjugations
// and derived reverse-reference field names. Same upsert lifecycle as
// EntityType: defining the same name again overwrites.
type RelationType struct {
	Name           string    `json:"name"`
	Imperative     string    `json:"imperative"`
	Present        string    `json:"present"`
	Gerund         string    `json:"gerund"`
	Past           string    `json:"past"`
	PastParticiple string    `json:"pastParticiple"`
	ByField        string    `json:"byField"`
	AtField        string    `json:"atField"`
	Inverse        string    `json:"inverse,omitempty"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// RelationTypeDef is the caller-supplied definition for DefineRelationType.
// Conjugations left empty are filled from the deterministic deriver.
type RelationTypeDef struct {
	Name           string `json:"name"`
	Imperative     string `json:"imperative,omitempty"`
	Present        string `json:"present,omitempty"`
	Gerund         string `json:"gerund,omitempty"`
	Past           string `json:"past,omitempty"`
	PastParticiple string `json:"pastParticiple,omitempty"`
	Inverse        string `json:"inverse,omitempty"`
	Description    string `json:"description,omitempty"`
}

// Relationship is one typed, optionally-directed edge between two entities.
// It serves simultaneously as a graph edge (subject to object, labeled by
// Relation), a domain event (the payload), and an audit entry (who/what/
// when). Subject and object are weak references by id; dangling ids after
// a delete are tolerated. Multiple relationships with an identical
// (relation, subject, object) triple are permitted and independently
// deletable.
type Relationship struct {
	ID          string         `json:"id"`
	Relation    string         `json:"relation"`
	SubjectID   string         `json:"subject,omitempty"`
	ObjectID    string         `json:"object,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	Status      string         `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

// Clone returns a deep copy of the relationship.
func (r *Relationship) Clone() *Relationship {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Data = CloneData(r.Data)
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

// RelationshipFilter selects relationships in ListRelationships.
// Zero-valued fields match everything.
type RelationshipFilter struct {
	Relation  string
	SubjectID string
	ObjectID  string
	Status    string
	Limit     int
	Offset    int
}
