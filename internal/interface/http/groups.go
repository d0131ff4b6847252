package http

import (
	"fmt"
	"net/http"

	"github.com/academic-hub/student-records/internal/domain/group"
)

// ══════════════════════════════════════════════════════════════════════════════
// GROUP HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type groupRequest struct {
	Name string `json:"name"`
}

// handleListGroups handles GET /api/v1/groups
func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.deps.Groups.GetAll(r.Context(), localeFrom(r.Context()))
	s.observe("groups.getAll", err)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, groups, &ResponseMeta{TotalCount: len(groups)})
}

// handleGetGroup handles GET /api/v1/groups/{id}
func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	g, err := s.deps.Groups.GetByID(r.Context(), id, localeFrom(r.Context()))
	s.observe("groups.getById", err)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, g)
}

// handleCreateGroup handles POST /api/v1/groups
func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	g, err := group.NewGroup(req.Name)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	saved, err := s.deps.Groups.Save(r.Context(), g, localeFrom(r.Context()))
	s.observe("groups.add", err)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/groups/%d", saved.ID))
	writeJSON(w, r, http.StatusCreated, saved)
}
