package durable

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/mesh-intelligence/loom/pkg/types"
)

// WAL operation kinds. Each record carries the state a mutation produced
// rather than its arguments, so replaying a log twice lands on the same
// result.
const (
	opPutEntityType      = "put_entity_type"
	opPutRelationType    = "put_relation_type"
	opPutEntity          = "put_entity"
	opDeleteEntity       = "delete_entity"
	opPutRelationship    = "put_relationship"
	opDeleteRelationship = "delete_relationship"
)

// Record is one write-ahead log entry.
type Record struct {
	Seq          uint64              `json:"seq"`
	Op           string              `json:"op"`
	ID           string              `json:"id,omitempty"`
	EntityType   *types.EntityType   `json:"entityType,omitempty"`
	RelationType *types.RelationType `json:"relationType,omitempty"`
	Entity       *types.Entity       `json:"entity,omitempty"`
	Relationship *types.Relationship `json:"relationship,omitempty"`
}

// WAL appends mutation records for one namespace to a blob store. Each
// record is its own blob so an append never rewrites earlier history.
type WAL struct {
	mu        sync.Mutex
	store     BlobStore
	namespace string
	nextSeq   uint64
}

// OpenWAL scans existing records so appends continue after the highest
// sequence already stored.
func OpenWAL(store BlobStore, namespace string) (*WAL, error) {
	w := &WAL{store: store, namespace: namespace, nextSeq: 1}
	keys, err := store.List(w.prefix())
	if err != nil {
		return nil, fmt.Errorf("scanning wal: %w", err)
	}
	for _, k := range keys {
		if seq, ok := w.parseSeq(k); ok && seq >= w.nextSeq {
			w.nextSeq = seq + 1
		}
	}
	return w, nil
}

func (w *WAL) prefix() string {
	return "wal/" + w.namespace + "/"
}

func (w *WAL) key(seq uint64) string {
	return fmt.Sprintf("%s%020d.json", w.prefix(), seq)
}

func (w *WAL) parseSeq(key string) (uint64, bool) {
	name := strings.TrimPrefix(key, w.prefix())
	name = strings.TrimSuffix(name, ".json")
	seq, err := strconv.ParseUint(name, 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}

// Append assigns the next sequence number and persists the record.
func (w *WAL) Append(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	rec.Seq = w.nextSeq
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding wal record: %w", err)
	}
	if err := w.store.Put(w.key(rec.Seq), raw); err != nil {
		return fmt.Errorf("appending wal record %d: %w", rec.Seq, err)
	}
	w.nextSeq++
	return nil
}

// Records reads every log entry in sequence order.
func (w *WAL) Records() ([]Record, error) {
	keys, err := w.store.List(w.prefix())
	if err != nil {
		return nil, fmt.Errorf("listing wal: %w", err)
	}
	recs := make([]Record, 0, len(keys))
	for _, k := range keys {
		if _, ok := w.parseSeq(k); !ok {
			continue
		}
		raw, err := w.store.Get(k)
		if err != nil {
			return nil, fmt.Errorf("reading wal record %q: %w", k, err)
		}
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decoding wal record %q: %w", k, err)
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })
	return recs, nil
}

// Replay applies every record to the target in order. Records carry
// final state, so replaying on a provider that already holds some of the
// writes converges to the same contents. The target must implement
// types.Restorer.
func (w *WAL) Replay(p types.Provider) (int, error) {
	rest, ok := p.(types.Restorer)
	if !ok {
		return 0, types.ErrRestoreUnsupported
	}
	recs, err := w.Records()
	if err != nil {
		return 0, err
	}
	for _, rec := range recs {
		if err := applyRecord(rest, p, rec); err != nil {
			return 0, fmt.Errorf("replaying record %d: %w", rec.Seq, err)
		}
	}
	return len(recs), nil
}

func applyRecord(rest types.Restorer, p types.Provider, rec Record) error {
	switch rec.Op {
	case opPutEntityType:
		return rest.PutEntityType(rec.EntityType)
	case opPutRelationType:
		return rest.PutRelationType(rec.RelationType)
	case opPutEntity:
		return rest.PutEntity(rec.Entity)
	case opDeleteEntity:
		_, err := p.Delete(rec.ID)
		return err
	case opPutRelationship:
		return rest.PutRelationship(rec.Relationship)
	case opDeleteRelationship:
		_, err := p.DeleteRelationship(rec.ID)
		return err
	default:
		return fmt.Errorf("unknown wal op %q", rec.Op)
	}
}

// Truncate removes every log entry. Called after a snapshot has captured
// the state the log described.
func (w *WAL) Truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	keys, err := w.store.List(w.prefix())
	if err != nil {
		return fmt.Errorf("listing wal: %w", err)
	}
	for _, k := range keys {
		if _, ok := w.parseSeq(k); !ok {
			continue
		}
		if err := w.store.Delete(k); err != nil {
			return fmt.Errorf("removing wal record %q: %w", k, err)
		}
	}
	w.nextSeq = 1
	return nil
}

// Compact snapshots the provider and then truncates the log, bounding
// recovery time to one snapshot load plus an empty replay.
func (w *WAL) Compact(store BlobStore, p types.Provider) (string, error) {
	key, err := CreateSnapshot(store, p, w.namespace)
	if err != nil {
		return "", err
	}
	if err := w.Truncate(); err != nil {
		return "", err
	}
	return key, nil
}
