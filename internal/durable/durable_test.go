package durable

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/loom/internal/memory"
	"github.com/mesh-intelligence/loom/pkg/types"
)

// seed populates a provider with a small graph.
func seed(t *testing.T, p types.Provider) (*types.Entity, *types.Entity) {
	t.Helper()
	_, err := p.DefineEntityType(types.EntityTypeDef{Name: "person"})
	require.NoError(t, err)
	_, err = p.DefineRelationType(types.RelationTypeDef{Name: "assign"})
	require.NoError(t, err)

	alice, err := p.Create("person", map[string]any{"name": "alice"}, types.CreateOptions{ID: "alice"})
	require.NoError(t, err)
	task, err := p.Create("task", map[string]any{"title": "ship"}, types.CreateOptions{ID: "task-1"})
	require.NoError(t, err)
	_, err = p.Relate("assign", "alice", "task-1", nil)
	require.NoError(t, err)
	return alice, task
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := NewMemStore()
	src := memory.NewProvider()
	alice, _ := seed(t, src)

	key, err := CreateSnapshot(store, src, "ns")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "snapshots/ns/"))

	// Both the timestamped key and the latest pointer load.
	snap, err := LoadSnapshot(store, "ns", key)
	require.NoError(t, err)
	latest, err := LoadSnapshot(store, "ns", "")
	require.NoError(t, err)
	assert.Equal(t, snap.Entities, latest.Entities)

	assert.Len(t, snap.EntityTypes, 1)
	assert.Len(t, snap.RelationTypes, 1)
	assert.Len(t, snap.Entities, 2)
	assert.Len(t, snap.Relationships, 1)

	// Restore into a fresh provider reproduces the records verbatim.
	dst := memory.NewProvider()
	require.NoError(t, RestoreSnapshot(dst, snap))

	got, err := dst.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Data["name"])
	assert.True(t, got.CreatedAt.Equal(alice.CreatedAt))

	peers, err := dst.Related("alice", "assign", types.DirectionOut)
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.Equal(t, "task-1", peers[0].ID)

	_, err = dst.GetEntityType("person")
	require.NoError(t, err)
}

func TestRestoreReplacesExistingState(t *testing.T) {
	store := NewMemStore()
	src := memory.NewProvider()
	seed(t, src)
	_, err := CreateSnapshot(store, src, "ns")
	require.NoError(t, err)

	dst := memory.NewProvider()
	_, err = dst.Create("junk", map[string]any{"x": 1}, types.CreateOptions{ID: "junk-1"})
	require.NoError(t, err)

	snap, err := LoadSnapshot(store, "ns", "")
	require.NoError(t, err)
	require.NoError(t, RestoreSnapshot(dst, snap))

	// Pre-existing records are gone.
	_, err = dst.Get("junk-1")
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestListSnapshots(t *testing.T) {
	store := NewMemStore()
	src := memory.NewProvider()
	seed(t, src)

	k1, err := CreateSnapshot(store, src, "ns")
	require.NoError(t, err)
	k2, err := CreateSnapshot(store, src, "ns")
	require.NoError(t, err)

	keys, err := ListSnapshots(store, "ns")
	require.NoError(t, err)
	assert.Contains(t, keys, k1)
	assert.Contains(t, keys, k2)
	assert.NotContains(t, keys, "snapshots/ns/latest.json")
}

// A provider rebuilt from snapshot plus WAL replay must match one that
// saw every write directly.
func TestSnapshotPlusReplayReconstruction(t *testing.T) {
	blobs := NewMemStore()
	live := memory.NewProvider()

	// Writes before the snapshot.
	_, err := live.Create("note", map[string]any{"title": "pre"}, types.CreateOptions{ID: "pre-1"})
	require.NoError(t, err)
	_, err = CreateSnapshot(blobs, live, "ns")
	require.NoError(t, err)

	// Writes after the snapshot go through the recorder.
	wal, err := OpenWAL(blobs, "ns")
	require.NoError(t, err)
	rec := NewRecorder(live, wal)

	post, err := rec.Create("note", map[string]any{"title": "post"}, types.CreateOptions{})
	require.NoError(t, err)
	_, err = rec.Update("pre-1", map[string]any{"edited": true})
	require.NoError(t, err)
	_, err = rec.Relate("ref", "pre-1", post.ID, nil)
	require.NoError(t, err)
	deleted, err := rec.Delete(post.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	// Recover: restore the snapshot, then replay the log.
	recovered := memory.NewProvider()
	snap, err := LoadSnapshot(blobs, "ns", "")
	require.NoError(t, err)
	require.NoError(t, RestoreSnapshot(recovered, snap))

	replayWAL, err := OpenWAL(blobs, "ns")
	require.NoError(t, err)
	applied, err := replayWAL.Replay(recovered)
	require.NoError(t, err)
	assert.Equal(t, 4, applied)

	pre, err := recovered.Get("pre-1")
	require.NoError(t, err)
	assert.Equal(t, "pre", pre.Data["title"])
	assert.Equal(t, true, pre.Data["edited"])

	_, err = recovered.Get(post.ID)
	require.ErrorIs(t, err, types.ErrNotFound)

	edges, err := recovered.Edges("pre-1", "ref", types.DirectionOut)
	require.NoError(t, err)
	assert.Len(t, edges, 1)

	// Replaying again converges on the same state.
	_, err = replayWAL.Replay(recovered)
	require.NoError(t, err)
	again, err := recovered.Get("pre-1")
	require.NoError(t, err)
	assert.True(t, again.UpdatedAt.Equal(pre.UpdatedAt))
}

func TestWALSequencingAcrossReopen(t *testing.T) {
	blobs := NewMemStore()

	w1, err := OpenWAL(blobs, "ns")
	require.NoError(t, err)
	require.NoError(t, w1.Append(Record{Op: opDeleteEntity, ID: "a"}))
	require.NoError(t, w1.Append(Record{Op: opDeleteEntity, ID: "b"}))

	// A reopened log continues numbering after the highest stored record.
	w2, err := OpenWAL(blobs, "ns")
	require.NoError(t, err)
	require.NoError(t, w2.Append(Record{Op: opDeleteEntity, ID: "c"}))

	recs, err := w2.Records()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, uint64(1), recs[0].Seq)
	assert.Equal(t, uint64(3), recs[2].Seq)
	assert.Equal(t, "c", recs[2].ID)
}

func TestWALCompact(t *testing.T) {
	blobs := NewMemStore()
	p := memory.NewProvider()
	seed(t, p)

	wal, err := OpenWAL(blobs, "ns")
	require.NoError(t, err)
	require.NoError(t, wal.Append(Record{Op: opDeleteEntity, ID: "gone"}))

	key, err := wal.Compact(blobs, p)
	require.NoError(t, err)
	assert.NotEmpty(t, key)

	recs, err := wal.Records()
	require.NoError(t, err)
	assert.Empty(t, recs)

	// The compaction snapshot holds the current state.
	snap, err := LoadSnapshot(blobs, "ns", "")
	require.NoError(t, err)
	assert.Len(t, snap.Entities, 2)
}

func TestReplayRequiresRestorer(t *testing.T) {
	blobs := NewMemStore()
	wal, err := OpenWAL(blobs, "ns")
	require.NoError(t, err)

	_, err = wal.Replay(nonRestorer{})
	require.ErrorIs(t, err, types.ErrRestoreUnsupported)

	err = RestoreSnapshot(nonRestorer{}, &Snapshot{Version: snapshotVersion})
	require.ErrorIs(t, err, types.ErrRestoreUnsupported)
}

// nonRestorer satisfies only the read/write contract, not Restorer.
type nonRestorer struct {
	types.Provider
}

func TestJSONLRoundTrip(t *testing.T) {
	src := memory.NewProvider()
	alice, _ := seed(t, src)

	var buf bytes.Buffer
	count, err := ExportJSONL(&buf, src, "ns")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Equal(t, 5, strings.Count(buf.String(), "\n"))

	dst := memory.NewProvider()
	imported, skipped, err := ImportJSONL(&buf, dst)
	require.NoError(t, err)
	assert.Equal(t, 5, imported)
	assert.Zero(t, skipped)

	got, err := dst.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Data["name"])
	assert.True(t, got.CreatedAt.Equal(alice.CreatedAt))

	ets, err := dst.ListEntityTypes()
	require.NoError(t, err)
	assert.Len(t, ets, 1)

	rels, err := dst.ListRelationships(types.RelationshipFilter{})
	require.NoError(t, err)
	assert.Len(t, rels, 1)
}

func TestImportSkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`{"kind":"entity","record":{"id":"good-1","type":"note","data":{}}}`,
		`not json at all`,
		``,
		`{"kind":"mystery","record":{}}`,
		`{"kind":"entity","record":{"id":"good-2","type":"note","data":{}}}`,
	}, "\n")

	dst := memory.NewProvider()
	imported, skipped, err := ImportJSONL(strings.NewReader(input), dst)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)
	assert.Equal(t, 2, skipped)

	_, err = dst.Get("good-1")
	require.NoError(t, err)
	_, err = dst.Get("good-2")
	require.NoError(t, err)
}
