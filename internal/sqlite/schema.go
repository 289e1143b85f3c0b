// Package sqlite implements the SQL-backed storage provider for Loom.
// Each namespace maps to one SQLite database file under the data
// directory, lazily created on first use with the DDL below. Entity and
// relationship payloads are stored as JSON text columns; relationships
// are indexed independently on subject and object for traversal.
package sqlite

// Schema DDL applied once per namespace database.
const (
	createEntityTypes = `CREATE TABLE IF NOT EXISTS entity_types (
    name TEXT PRIMARY KEY,
    singular TEXT NOT NULL,
    plural TEXT NOT NULL,
    slug TEXT NOT NULL,
    description TEXT,
    schema TEXT,
    created_at TEXT NOT NULL
);`

	createRelationTypes = `CREATE TABLE IF NOT EXISTS relation_types (
    name TEXT PRIMARY KEY,
    imperative TEXT NOT NULL,
    present TEXT NOT NULL,
    gerund TEXT NOT NULL,
    past TEXT NOT NULL,
    past_participle TEXT NOT NULL,
    by_field TEXT NOT NULL,
    at_field TEXT NOT NULL,
    inverse TEXT,
    description TEXT,
    created_at TEXT NOT NULL
);`

	createEntities = `CREATE TABLE IF NOT EXISTS entities (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    data TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createEntitiesTypeIdx = `CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(type);`

	createRelationships = `CREATE TABLE IF NOT EXISTS relationships (
    id TEXT PRIMARY KEY,
    relation TEXT NOT NULL,
    subject_id TEXT,
    object_id TEXT,
    data TEXT,
    status TEXT NOT NULL,
    created_at TEXT NOT NULL,
    completed_at TEXT
);`

	createRelSubjectIdx  = `CREATE INDEX IF NOT EXISTS idx_relationships_subject ON relationships(subject_id);`
	createRelObjectIdx   = `CREATE INDEX IF NOT EXISTS idx_relationships_object ON relationships(object_id);`
	createRelRelationIdx = `CREATE INDEX IF NOT EXISTS idx_relationships_relation ON relationships(relation);`
)

// schemaStatements lists the DDL in application order.
var schemaStatements = []string{
	createEntityTypes,
	createRelationTypes,
	createEntities,
	createEntitiesTypeIdx,
	createRelationships,
	createRelSubjectIdx,
	createRelObjectIdx,
	createRelRelationIdx,
}
