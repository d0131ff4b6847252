package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/academic-hub/student-records/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// studentRequest is the write payload for POST and PUT.
// The group travels in the group_id query parameter.
type studentRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// handleListStudents handles GET /api/v1/students
func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.deps.Students.GetAll(r.Context(), localeFrom(r.Context()))
	s.observe("students.getAll", err)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, students, &ResponseMeta{TotalCount: len(students)})
}

// handleGetStudent handles GET /api/v1/students/{id}
func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	st, err := s.deps.Students.GetByID(r.Context(), id, localeFrom(r.Context()))
	s.observe("students.getById", err)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, st)
}

// handleCreateStudent handles POST /api/v1/students?group_id=N
func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	groupID, ok := s.queryGroupID(w, r)
	if !ok {
		return
	}
	st, ok := s.decodeStudent(w, r)
	if !ok {
		return
	}

	saved, err := s.deps.Students.Save(r.Context(), st, groupID, localeFrom(r.Context()))
	s.observe("students.add", err)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/students/%d", saved.ID))
	writeJSON(w, r, http.StatusCreated, saved)
}

// handleUpdateStudent handles PUT /api/v1/students/{id}?group_id=N
func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	groupID, ok := s.queryGroupID(w, r)
	if !ok {
		return
	}
	st, ok := s.decodeStudent(w, r)
	if !ok {
		return
	}

	updated, err := s.deps.Students.UpdateByID(r.Context(), st, id, groupID, localeFrom(r.Context()))
	s.observe("students.updateById", err)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, updated)
}

// handleDeleteStudent handles DELETE /api/v1/students/{id}
func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	err := s.deps.Students.DeleteByID(r.Context(), id, localeFrom(r.Context()))
	s.observe("students.deletedById", err)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST PARSING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (s *Server) queryGroupID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("group_id")
	if raw == "" {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", "group_id query parameter is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", "group_id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (s *Server) decodeStudent(w http.ResponseWriter, r *http.Request) (*student.Student, bool) {
	var req studentRequest
	if !decodeJSON(w, r, &req) {
		return nil, false
	}

	st := student.New(req.FirstName, req.LastName)
	if err := st.ValidateNames(); err != nil {
		s.writeServiceError(w, r, err)
		return nil, false
	}
	return st, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeJSONError(w, r, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large")
		case errors.Is(err, io.EOF):
			writeJSONError(w, r, http.StatusBadRequest, "invalid_request", "Request body is required")
		default:
			writeJSONErrorWithDetails(w, r, http.StatusBadRequest, "invalid_request", "Invalid JSON payload", err.Error())
		}
		return false
	}
	return true
}

func (s *Server) observe(operation string, err error) {
	if s.deps.Metrics == nil {
		return
	}
	s.deps.Metrics.ObserveOperation(operation, err)
}
