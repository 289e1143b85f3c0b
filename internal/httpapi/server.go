// Package httpapi exposes a Provider over HTTP. One namespace is selected
// per request through the ns query parameter; the server resolves it
// through a namespace factory so any backend can sit behind the surface.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mesh-intelligence/loom/pkg/types"
)

// ProviderFactory resolves a namespace name to its provider. An empty
// name selects the default namespace.
type ProviderFactory func(namespace string) (types.Provider, error)

// Server routes the HTTP surface onto a ProviderFactory.
type Server struct {
	factory ProviderFactory
	mux     *http.ServeMux
}

// NewServer builds the route table. Unknown routes return 404 through the
// mux's default behavior.
func NewServer(factory ProviderFactory) *Server {
	s := &Server{
		factory: factory,
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("POST /entity-types", s.defineEntityType)
	s.mux.HandleFunc("GET /entity-types", s.listEntityTypes)
	s.mux.HandleFunc("GET /entity-types/{name}", s.getEntityType)

	s.mux.HandleFunc("POST /relation-types", s.defineRelationType)
	s.mux.HandleFunc("GET /relation-types", s.listRelationTypes)
	s.mux.HandleFunc("GET /relation-types/{name}", s.getRelationType)

	s.mux.HandleFunc("POST /entities", s.createEntity)
	s.mux.HandleFunc("GET /entities", s.listEntities)
	s.mux.HandleFunc("GET /entities/{id}", s.getEntity)
	s.mux.HandleFunc("PATCH /entities/{id}", s.updateEntity)
	s.mux.HandleFunc("DELETE /entities/{id}", s.deleteEntity)

	s.mux.HandleFunc("GET /search", s.search)

	s.mux.HandleFunc("POST /relationships", s.createRelationship)
	s.mux.HandleFunc("GET /relationships", s.listRelationships)
	s.mux.HandleFunc("GET /relationships/{id}", s.getRelationship)
	s.mux.HandleFunc("DELETE /relationships/{id}", s.deleteRelationship)

	s.mux.HandleFunc("GET /edges/{id}", s.edges)
	s.mux.HandleFunc("GET /related/{id}", s.related)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// provider resolves the request's namespace. A factory failure is an
// internal condition, never a caller error.
func (s *Server) provider(w http.ResponseWriter, r *http.Request) (types.Provider, bool) {
	p, err := s.factory(r.URL.Query().Get("ns"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return p, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeBadRequest(w, "malformed request body")
		return false
	}
	return true
}

// Entity types.

func (s *Server) defineEntityType(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	var def types.EntityTypeDef
	if !decodeBody(w, r, &def) {
		return
	}
	et, err := p.DefineEntityType(def)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, et)
}

func (s *Server) getEntityType(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	et, err := p.GetEntityType(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, et)
}

func (s *Server) listEntityTypes(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	ets, err := p.ListEntityTypes()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ets)
}

// Relation types.

func (s *Server) defineRelationType(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	var def types.RelationTypeDef
	if !decodeBody(w, r, &def) {
		return
	}
	rt, err := p.DefineRelationType(def)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func (s *Server) getRelationType(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	rt, err := p.GetRelationType(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func (s *Server) listRelationTypes(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	rts, err := p.ListRelationTypes()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rts)
}

// Entities.

// createEntityRequest is the POST /entities body.
type createEntityRequest struct {
	Type     string         `json:"type"`
	Data     map[string]any `json:"data"`
	ID       string         `json:"id,omitempty"`
	Validate bool           `json:"validate,omitempty"`
}

func (s *Server) createEntity(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	var req createEntityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	// An empty type name is the provider's call; it rejects with its own
	// sentinel so the envelope code survives the round-trip.
	e, err := p.Create(req.Type, req.Data, types.CreateOptions{ID: req.ID, Validate: req.Validate})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) getEntity(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	e, err := p.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) listEntities(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	opts := types.ListOptions{
		Limit:   queryInt(q.Get("limit")),
		Offset:  queryInt(q.Get("offset")),
		OrderBy: q.Get("orderBy"),
		Order:   q.Get("order"),
	}
	entities, err := p.List(q.Get("type"), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities)
}

func (s *Server) updateEntity(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	var partial map[string]any
	if !decodeBody(w, r, &partial) {
		return
	}
	e, err := p.Update(r.PathValue("id"), partial)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// deleteResponse reports a delete through its boolean, matching the
// provider contract: a missing id is not an error.
type deleteResponse struct {
	Deleted bool `json:"deleted"`
}

func (s *Server) deleteEntity(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	deleted, err := p.Delete(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Deleted: deleted})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	entities, err := p.Search(q.Get("q"), types.SearchOptions{
		Type:  q.Get("type"),
		Limit: queryInt(q.Get("limit")),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities)
}

// Relationships.

// createRelationshipRequest is the POST /relationships body.
type createRelationshipRequest struct {
	Relation string         `json:"relation"`
	Subject  string         `json:"subject,omitempty"`
	Object   string         `json:"object,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

func (s *Server) createRelationship(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	var req createRelationshipRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rel, err := p.Relate(req.Relation, req.Subject, req.Object, req.Data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rel)
}

func (s *Server) getRelationship(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	rel, err := p.GetRelationship(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rel)
}

func (s *Server) listRelationships(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	rels, err := p.ListRelationships(types.RelationshipFilter{
		Relation:  q.Get("relation"),
		SubjectID: q.Get("subject"),
		ObjectID:  q.Get("object"),
		Status:    q.Get("status"),
		Limit:     queryInt(q.Get("limit")),
		Offset:    queryInt(q.Get("offset")),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rels)
}

func (s *Server) deleteRelationship(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	deleted, err := p.DeleteRelationship(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Deleted: deleted})
}

// Traversal.

func (s *Server) edges(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	rels, err := p.Edges(r.PathValue("id"), r.URL.Query().Get("relation"), queryDirection(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rels)
}

func (s *Server) related(w http.ResponseWriter, r *http.Request) {
	p, ok := s.provider(w, r)
	if !ok {
		return
	}
	entities, err := p.Related(r.PathValue("id"), r.URL.Query().Get("relation"), queryDirection(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities)
}

// queryDirection reads the direction parameter. An omitted parameter
// means both; a present-but-invalid token flows through to the provider,
// which rejects it.
func queryDirection(r *http.Request) types.Direction {
	raw := r.URL.Query().Get("direction")
	if raw == "" {
		return types.DirectionBoth
	}
	return types.Direction(raw)
}

func queryInt(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
