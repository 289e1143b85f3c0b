package durable

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/loom/pkg/types"
)

// snapshotVersion is bumped when the on-disk layout changes shape.
const snapshotVersion = 1

// Snapshot is a full copy of one namespace: both registries plus every
// entity and relationship.
type Snapshot struct {
	Version       int                   `json:"version"`
	Namespace     string                `json:"namespace"`
	TakenAt       time.Time             `json:"takenAt"`
	EntityTypes   []*types.EntityType   `json:"entityTypes"`
	RelationTypes []*types.RelationType `json:"relationTypes"`
	Entities      []*types.Entity       `json:"entities"`
	Relationships []*types.Relationship `json:"relationships"`
}

func snapshotKey(namespace string, at time.Time) string {
	return fmt.Sprintf("snapshots/%s/%s.json", namespace, at.UTC().Format("20060102T150405.000000000Z"))
}

func latestKey(namespace string) string {
	return fmt.Sprintf("snapshots/%s/latest.json", namespace)
}

// Dump reads the full contents of a namespace through the provider,
// paging entities and relationships at the maximum page size.
func Dump(p types.Provider, namespace string) (*Snapshot, error) {
	snap := &Snapshot{
		Version:   snapshotVersion,
		Namespace: namespace,
		TakenAt:   time.Now().UTC(),
	}

	ets, err := p.ListEntityTypes()
	if err != nil {
		return nil, fmt.Errorf("dumping entity types: %w", err)
	}
	snap.EntityTypes = ets

	rts, err := p.ListRelationTypes()
	if err != nil {
		return nil, fmt.Errorf("dumping relation types: %w", err)
	}
	snap.RelationTypes = rts

	for offset := 0; ; offset += types.MaxPageSize {
		page, err := p.List("", types.ListOptions{Limit: types.MaxPageSize, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("dumping entities: %w", err)
		}
		snap.Entities = append(snap.Entities, page...)
		if len(page) < types.MaxPageSize {
			break
		}
	}

	for offset := 0; ; offset += types.MaxPageSize {
		page, err := p.ListRelationships(types.RelationshipFilter{Limit: types.MaxPageSize, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("dumping relationships: %w", err)
		}
		snap.Relationships = append(snap.Relationships, page...)
		if len(page) < types.MaxPageSize {
			break
		}
	}

	return snap, nil
}

// CreateSnapshot dumps the namespace and writes it to the blob store
// under a timestamped key, then updates the latest pointer. It returns
// the timestamped key.
func CreateSnapshot(store BlobStore, p types.Provider, namespace string) (string, error) {
	snap, err := Dump(p, namespace)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	key := snapshotKey(namespace, snap.TakenAt)
	if err := store.Put(key, raw); err != nil {
		return "", fmt.Errorf("storing snapshot: %w", err)
	}
	if err := store.Put(latestKey(namespace), raw); err != nil {
		return "", fmt.Errorf("updating latest snapshot: %w", err)
	}
	return key, nil
}

// LoadSnapshot reads a snapshot blob. An empty key loads the latest
// snapshot for the namespace.
func LoadSnapshot(store BlobStore, namespace, key string) (*Snapshot, error) {
	if key == "" {
		key = latestKey(namespace)
	}
	raw, err := store.Get(key)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot %q: %w", key, err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("snapshot %q has unsupported version %d", key, snap.Version)
	}
	return &snap, nil
}

// RestoreSnapshot wipes the target and writes every record from the
// snapshot verbatim, preserving ids and timestamps. The target provider
// must implement types.Restorer.
func RestoreSnapshot(p types.Provider, snap *Snapshot) error {
	rest, ok := p.(types.Restorer)
	if !ok {
		return types.ErrRestoreUnsupported
	}
	if err := rest.Wipe(); err != nil {
		return fmt.Errorf("wiping before restore: %w", err)
	}
	for _, et := range snap.EntityTypes {
		if err := rest.PutEntityType(et); err != nil {
			return fmt.Errorf("restoring entity type %q: %w", et.Name, err)
		}
	}
	for _, rt := range snap.RelationTypes {
		if err := rest.PutRelationType(rt); err != nil {
			return fmt.Errorf("restoring relation type %q: %w", rt.Name, err)
		}
	}
	for _, e := range snap.Entities {
		if err := rest.PutEntity(e); err != nil {
			return fmt.Errorf("restoring entity %s: %w", e.ID, err)
		}
	}
	for _, r := range snap.Relationships {
		if err := rest.PutRelationship(r); err != nil {
			return fmt.Errorf("restoring relationship %s: %w", r.ID, err)
		}
	}
	return nil
}

// ListSnapshots returns the timestamped snapshot keys for a namespace,
// oldest first, excluding the latest pointer.
func ListSnapshots(store BlobStore, namespace string) ([]string, error) {
	keys, err := store.List("snapshots/" + namespace + "/")
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, k := range keys {
		if k == latestKey(namespace) {
			continue
		}
		out = append(out, k)
	}
	return out, nil
}
