// Package remote implements the Provider contract over HTTP by forwarding
// every call to a Loom server, giving callers location transparency: a
// remote store is used through the same interface as an embedded one.
package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/loom/pkg/types"
)

// Client implements types.Provider against a Loom HTTP server. A client
// is bound to one namespace, selected on every request through the ns
// query parameter.
type Client struct {
	baseURL   string
	namespace string
	http      *http.Client
}

// New creates a client for the server at baseURL, operating on the given
// namespace. An empty namespace selects the server's default.
func New(baseURL, namespace string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		namespace: namespace,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// errorBody mirrors the server's error envelope.
type errorBody struct {
	Error   string             `json:"error"`
	Message string             `json:"message"`
	Type    string             `json:"type"`
	Errors  []types.FieldError `json:"errors"`
}

// decodeError maps the server's error envelope back onto the sentinel
// taxonomy so remote callers handle failures exactly like embedded ones.
// The mapping keys on the envelope's stable code, never on message text.
func decodeError(status int, body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return fmt.Errorf("server returned status %d", status)
	}
	switch eb.Error {
	case "not_found":
		return fmt.Errorf("%w: %s", types.ErrNotFound, eb.Message)
	case "validation_error":
		return &types.ValidationError{Type: eb.Type, Errors: eb.Errors}
	case "conflict":
		return fmt.Errorf("%w: %s", types.ErrConflict, eb.Message)
	case "invalid_name":
		return fmt.Errorf("%w: %s", types.ErrInvalidName, eb.Message)
	case "invalid_id":
		return fmt.Errorf("%w: %s", types.ErrInvalidID, eb.Message)
	case "invalid_direction":
		return fmt.Errorf("%w: %s", types.ErrInvalidDirection, eb.Message)
	case "invalid_argument":
		return fmt.Errorf("invalid argument: %s", eb.Message)
	default:
		return fmt.Errorf("server error: %s", eb.Message)
	}
}

// do performs one request. body, when non-nil, is JSON-encoded; out, when
// non-nil, receives the decoded response.
func (c *Client) do(method, path string, query url.Values, body, out any) error {
	if query == nil {
		query = url.Values{}
	}
	if c.namespace != "" {
		query.Set("ns", c.namespace)
	}
	u := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		u += "?" + encoded
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, u, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// Entity-type registry.

func (c *Client) DefineEntityType(def types.EntityTypeDef) (*types.EntityType, error) {
	var et types.EntityType
	if err := c.do(http.MethodPost, "/entity-types", nil, def, &et); err != nil {
		return nil, err
	}
	return &et, nil
}

func (c *Client) GetEntityType(name string) (*types.EntityType, error) {
	var et types.EntityType
	if err := c.do(http.MethodGet, "/entity-types/"+url.PathEscape(name), nil, nil, &et); err != nil {
		return nil, err
	}
	return &et, nil
}

func (c *Client) ListEntityTypes() ([]*types.EntityType, error) {
	var ets []*types.EntityType
	if err := c.do(http.MethodGet, "/entity-types", nil, nil, &ets); err != nil {
		return nil, err
	}
	return ets, nil
}

// Relation-type registry.

func (c *Client) DefineRelationType(def types.RelationTypeDef) (*types.RelationType, error) {
	var rt types.RelationType
	if err := c.do(http.MethodPost, "/relation-types", nil, def, &rt); err != nil {
		return nil, err
	}
	return &rt, nil
}

func (c *Client) GetRelationType(name string) (*types.RelationType, error) {
	var rt types.RelationType
	if err := c.do(http.MethodGet, "/relation-types/"+url.PathEscape(name), nil, nil, &rt); err != nil {
		return nil, err
	}
	return &rt, nil
}

func (c *Client) ListRelationTypes() ([]*types.RelationType, error) {
	var rts []*types.RelationType
	if err := c.do(http.MethodGet, "/relation-types", nil, nil, &rts); err != nil {
		return nil, err
	}
	return rts, nil
}

// Entity CRUD.

type createEntityRequest struct {
	Type     string         `json:"type"`
	Data     map[string]any `json:"data"`
	ID       string         `json:"id,omitempty"`
	Validate bool           `json:"validate,omitempty"`
}

func (c *Client) Create(typeName string, data map[string]any, opts types.CreateOptions) (*types.Entity, error) {
	var e types.Entity
	req := createEntityRequest{Type: typeName, Data: data, ID: opts.ID, Validate: opts.Validate}
	if err := c.do(http.MethodPost, "/entities", nil, req, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) Get(id string) (*types.Entity, error) {
	var e types.Entity
	if err := c.do(http.MethodGet, "/entities/"+url.PathEscape(id), nil, nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) List(typeName string, opts types.ListOptions) ([]*types.Entity, error) {
	q := url.Values{}
	if typeName != "" {
		q.Set("type", typeName)
	}
	// Clamp locally as well so the page-size contract holds even against
	// a permissive server.
	q.Set("limit", strconv.Itoa(types.ClampLimit(opts.Limit)))
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.OrderBy != "" {
		q.Set("orderBy", opts.OrderBy)
	}
	if opts.Order != "" {
		q.Set("order", opts.Order)
	}
	var entities []*types.Entity
	if err := c.do(http.MethodGet, "/entities", q, nil, &entities); err != nil {
		return nil, err
	}
	return entities, nil
}

func (c *Client) Find(typeName string, match map[string]any) ([]*types.Entity, error) {
	// Find is list sugar; the equality filter runs client-side over one
	// default page, mirroring the other backends' bounded scans.
	entities, err := c.List(typeName, types.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := []*types.Entity{}
	for _, e := range entities {
		if matches(e.Data, match) {
			out = append(out, e)
		}
	}
	return out, nil
}

func matches(data, match map[string]any) bool {
	for k, want := range match {
		got, ok := data[k]
		if !ok || fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

func (c *Client) Update(id string, partial map[string]any) (*types.Entity, error) {
	var e types.Entity
	if err := c.do(http.MethodPatch, "/entities/"+url.PathEscape(id), nil, partial, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

type deleteResponse struct {
	Deleted bool `json:"deleted"`
}

func (c *Client) Delete(id string) (bool, error) {
	var resp deleteResponse
	if err := c.do(http.MethodDelete, "/entities/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return false, err
	}
	return resp.Deleted, nil
}

func (c *Client) Search(query string, opts types.SearchOptions) ([]*types.Entity, error) {
	q := url.Values{}
	q.Set("q", query)
	if opts.Type != "" {
		q.Set("type", opts.Type)
	}
	q.Set("limit", strconv.Itoa(types.ClampLimit(opts.Limit)))
	var entities []*types.Entity
	if err := c.do(http.MethodGet, "/search", q, nil, &entities); err != nil {
		return nil, err
	}
	return entities, nil
}

// Relationship CRUD.

type createRelationshipRequest struct {
	Relation string         `json:"relation"`
	Subject  string         `json:"subject,omitempty"`
	Object   string         `json:"object,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

func (c *Client) Relate(relation, subjectID, objectID string, payload map[string]any) (*types.Relationship, error) {
	var rel types.Relationship
	req := createRelationshipRequest{Relation: relation, Subject: subjectID, Object: objectID, Data: payload}
	if err := c.do(http.MethodPost, "/relationships", nil, req, &rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

func (c *Client) GetRelationship(id string) (*types.Relationship, error) {
	var rel types.Relationship
	if err := c.do(http.MethodGet, "/relationships/"+url.PathEscape(id), nil, nil, &rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

func (c *Client) ListRelationships(filter types.RelationshipFilter) ([]*types.Relationship, error) {
	q := url.Values{}
	if filter.Relation != "" {
		q.Set("relation", filter.Relation)
	}
	if filter.SubjectID != "" {
		q.Set("subject", filter.SubjectID)
	}
	if filter.ObjectID != "" {
		q.Set("object", filter.ObjectID)
	}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	q.Set("limit", strconv.Itoa(types.ClampLimit(filter.Limit)))
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}
	var rels []*types.Relationship
	if err := c.do(http.MethodGet, "/relationships", q, nil, &rels); err != nil {
		return nil, err
	}
	return rels, nil
}

func (c *Client) DeleteRelationship(id string) (bool, error) {
	var resp deleteResponse
	if err := c.do(http.MethodDelete, "/relationships/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return false, err
	}
	return resp.Deleted, nil
}

// Graph traversal. Direction is validated locally so a malformed token
// fails fast without a round-trip.

func (c *Client) Edges(id, relation string, dir types.Direction) ([]*types.Relationship, error) {
	if !dir.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidDirection, dir)
	}
	q := url.Values{}
	if relation != "" {
		q.Set("relation", relation)
	}
	q.Set("direction", string(dir))
	var rels []*types.Relationship
	if err := c.do(http.MethodGet, "/edges/"+url.PathEscape(id), q, nil, &rels); err != nil {
		return nil, err
	}
	return rels, nil
}

func (c *Client) Related(id, relation string, dir types.Direction) ([]*types.Entity, error) {
	if !dir.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidDirection, dir)
	}
	q := url.Values{}
	if relation != "" {
		q.Set("relation", relation)
	}
	q.Set("direction", string(dir))
	var entities []*types.Entity
	if err := c.do(http.MethodGet, "/related/"+url.PathEscape(id), q, nil, &entities); err != nil {
		return nil, err
	}
	return entities, nil
}
