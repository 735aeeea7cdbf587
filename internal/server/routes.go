package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check and info.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/info", s.handleInfo)

	// Tasks collection.
	mux.HandleFunc("POST /v1/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /v1/tasks", s.handleListTasks)
	mux.HandleFunc("GET /v1/tasks/search", s.handleSearchTasks)

	// Single task.
	mux.HandleFunc("GET /v1/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PATCH /v1/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /v1/tasks/{id}", s.handleDeleteTask)

	// Comments, reviews and acceptance criteria.
	mux.HandleFunc("POST /v1/tasks/{id}/comments", s.handleAddComment)
	mux.HandleFunc("POST /v1/tasks/{id}/reviews", s.handleSubmitReview)
	mux.HandleFunc("PUT /v1/tasks/{id}/criteria", s.handleSetCriteria)
	mux.HandleFunc("POST /v1/tasks/{id}/criteria/{criterion}", s.handleCheckCriterion)

	// Dependencies.
	mux.HandleFunc("POST /v1/deps", s.handleAddDependency)
	mux.HandleFunc("DELETE /v1/deps", s.handleRemoveDependency)

	// Boards.
	mux.HandleFunc("GET /v1/projects/{project}/board", s.handleBoard)

	// Initiatives.
	mux.HandleFunc("POST /v1/initiatives", s.handleCreateInitiative)
	mux.HandleFunc("GET /v1/initiatives", s.handleListInitiatives)
	mux.HandleFunc("GET /v1/initiatives/{id}", s.handleGetInitiative)
	mux.HandleFunc("PATCH /v1/initiatives/{id}", s.handleUpdateInitiative)
	mux.HandleFunc("POST /v1/initiatives/{id}/tasks", s.handleLinkTask)
	mux.HandleFunc("POST /v1/initiatives/{id}/updates", s.handleAddInitiativeUpdate)

	return mux
}
