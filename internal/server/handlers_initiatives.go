package server

import (
	"net/http"

	"taskboard/internal/api"
)

func (s *Server) handleCreateInitiative(w http.ResponseWriter, r *http.Request) {
	var req api.InitiativeCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.initiatives.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListInitiatives(w http.ResponseWriter, r *http.Request) {
	resp, err := s.initiatives.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetInitiative(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathInitiativeIDOrBadRequest(w, r)
	if !ok {
		return
	}
	notes, err := queryInt(r, "notes")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp, err := s.initiatives.Get(r.Context(), id, notes)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateInitiative(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathInitiativeIDOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.InitiativeUpdateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.initiatives.Update(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLinkTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathInitiativeIDOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.LinkTaskRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.initiatives.LinkTask(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddInitiativeUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathInitiativeIDOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.InitiativeNoteRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.initiatives.AddUpdate(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}
