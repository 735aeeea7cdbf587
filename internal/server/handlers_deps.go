package server

import (
	"net/http"

	"taskboard/internal/api"
)

func (s *Server) handleAddDependency(w http.ResponseWriter, r *http.Request) {
	var req api.DepRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.deps.Add(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveDependency(w http.ResponseWriter, r *http.Request) {
	var req api.DepRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.deps.Remove(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}
