// Package types defines the Provider contract, record types, and standard
// errors for the Loom storage system. Every record kind (EntityType,
// RelationType, Entity, Relationship) is owned by a namespace, and a
// Provider exposes uniform registry, CRUD, search, and traversal operations
// over them regardless of backend.
package types
