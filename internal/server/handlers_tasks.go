package server

import (
	"net/http"
	"strings"

	"taskboard/internal/api"
)

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req api.TaskCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.tasks.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if resp.IsOK() {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp, err := s.tasks.List(r.Context(), params)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearchTasks(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	query := r.URL.Query().Get("q")
	project := r.URL.Query().Get("project")

	s.withLimiter(w, r, s.searchLimiter, "search", func() {
		resp, err := s.tasks.Search(r.Context(), query, project, limit)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, resp)
	})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathTaskIDOrBadRequest(w, r)
	if !ok {
		return
	}

	resp, err := s.tasks.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathTaskIDOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.TaskUpdateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.tasks.Update(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathTaskIDOrBadRequest(w, r)
	if !ok {
		return
	}
	confirm, err := queryBool(r, "confirm")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp, err := s.tasks.Delete(r.Context(), id, confirm)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathTaskIDOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.CommentRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.tasks.AddComment(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathTaskIDOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.ReviewRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.tasks.SubmitReview(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetCriteria(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathTaskIDOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.CriteriaSetRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.tasks.SetCriteria(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCheckCriterion(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathTaskIDOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.CriterionCheckRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	checked := true
	if req.Checked != nil {
		checked = *req.Checked
	}

	resp, err := s.tasks.CheckCriterion(r.Context(), id, strings.TrimSpace(r.PathValue("criterion")), checked)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tasks.Board(r.Context(), r.PathValue("project"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}
