package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/loom/internal/memory"
	"github.com/mesh-intelligence/loom/pkg/types"
)

// newTestServer serves a fresh in-memory store.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	ts := httptest.NewServer(NewServer(store.Namespace))
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestEntityEndpoints(t *testing.T) {
	ts := newTestServer(t)

	// Create returns 201 with the stored entity.
	resp := doJSON(t, http.MethodPost, ts.URL+"/entities", map[string]any{
		"type": "note",
		"data": map[string]any{"title": "hello"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created types.Entity
	decode(t, resp, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "note", created.Type)

	// Get round-trips.
	resp = doJSON(t, http.MethodGet, ts.URL+"/entities/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got types.Entity
	decode(t, resp, &got)
	assert.Equal(t, "hello", got.Data["title"])

	// Patch merges.
	resp = doJSON(t, http.MethodPatch, ts.URL+"/entities/"+created.ID, map[string]any{"done": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var patched types.Entity
	decode(t, resp, &patched)
	assert.Equal(t, "hello", patched.Data["title"])
	assert.Equal(t, true, patched.Data["done"])

	// List with a type filter.
	resp = doJSON(t, http.MethodGet, ts.URL+"/entities?type=note", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []types.Entity
	decode(t, resp, &listed)
	assert.Len(t, listed, 1)

	// Delete reports through its boolean, 200 both times.
	resp = doJSON(t, http.MethodDelete, ts.URL+"/entities/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var del struct {
		Deleted bool `json:"deleted"`
	}
	decode(t, resp, &del)
	assert.True(t, del.Deleted)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/entities/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &del)
	assert.False(t, del.Deleted)
}

func TestErrorEnvelope(t *testing.T) {
	ts := newTestServer(t)

	// Missing record.
	resp := doJSON(t, http.MethodGet, ts.URL+"/entities/nope", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	decode(t, resp, &envelope)
	assert.Equal(t, "not_found", envelope.Error)
	assert.NotEmpty(t, envelope.Message)

	// Malformed body.
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/entities", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	decode(t, resp, &envelope)
	assert.Equal(t, "invalid_argument", envelope.Error)

	// Missing type field carries the name sentinel's code.
	resp = doJSON(t, http.MethodPost, ts.URL+"/entities", map[string]any{"data": map[string]any{}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	decode(t, resp, &envelope)
	assert.Equal(t, "invalid_name", envelope.Error)

	// Invalid traversal direction carries its own code.
	resp = doJSON(t, http.MethodGet, ts.URL+"/edges/x?direction=sideways", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	decode(t, resp, &envelope)
	assert.Equal(t, "invalid_direction", envelope.Error)
}

func TestValidationEnvelope(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/entity-types", map[string]any{
		"name": "task",
		"schema": map[string]any{
			"title": map[string]any{"type": "string", "required": true},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, ts.URL+"/entities", map[string]any{
		"type":     "task",
		"data":     map[string]any{},
		"validate": true,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var envelope struct {
		Error  string             `json:"error"`
		Errors []types.FieldError `json:"errors"`
	}
	decode(t, resp, &envelope)
	assert.Equal(t, "validation_error", envelope.Error)
	require.Len(t, envelope.Errors, 1)
	assert.Equal(t, "title", envelope.Errors[0].Field)
	assert.Equal(t, types.CodeRequiredField, envelope.Errors[0].Code)
}

func TestRelationshipAndTraversalEndpoints(t *testing.T) {
	ts := newTestServer(t)

	for _, id := range []string{"alice", "task-1"} {
		resp := doJSON(t, http.MethodPost, ts.URL+"/entities", map[string]any{
			"type": "node", "id": id, "data": map[string]any{"name": id},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := doJSON(t, http.MethodPost, ts.URL+"/relationships", map[string]any{
		"relation": "assign", "subject": "alice", "object": "task-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var rel types.Relationship
	decode(t, resp, &rel)
	assert.Equal(t, types.StatusCompleted, rel.Status)

	resp = doJSON(t, http.MethodGet, ts.URL+"/relationships?subject=alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rels []types.Relationship
	decode(t, resp, &rels)
	assert.Len(t, rels, 1)

	// Omitted direction means both.
	resp = doJSON(t, http.MethodGet, ts.URL+"/related/alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var related []types.Entity
	decode(t, resp, &related)
	require.Len(t, related, 1)
	assert.Equal(t, "task-1", related[0].ID)

	resp = doJSON(t, http.MethodGet, ts.URL+"/edges/task-1?direction=in", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var edges []types.Relationship
	decode(t, resp, &edges)
	require.Len(t, edges, 1)
	assert.Equal(t, "alice", edges[0].SubjectID)
}

func TestNamespaceSelection(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/entities?ns=alpha", map[string]any{
		"type": "note", "id": "n1", "data": map[string]any{},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Visible in its namespace, absent elsewhere.
	resp = doJSON(t, http.MethodGet, ts.URL+"/entities/n1?ns=alpha", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, ts.URL+"/entities/n1?ns=beta", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, ts.URL+"/entities/n1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestTypeRegistryEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/relation-types", map[string]any{"name": "assign"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rt types.RelationType
	decode(t, resp, &rt)
	assert.Equal(t, "assignedBy", rt.ByField)

	resp = doJSON(t, http.MethodGet, ts.URL+"/relation-types/assign", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, ts.URL+"/relation-types/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, ts.URL+"/entity-types", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ets []types.EntityType
	decode(t, resp, &ets)
	assert.Empty(t, ets)
}
