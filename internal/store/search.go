package store

import (
	"context"
	"errors"
	"strings"

	"taskboard/internal/models"
)

// SearchResult carries matched tasks and whether the substring fallback served them.
type SearchResult struct {
	Tasks     []models.Task
	Fallback  bool
	FTSFailed error
}

// SearchTasks runs a full-text query. When the FTS query cannot execute
// (missing index, query syntax the engine rejects) it retries as a
// case-insensitive substring match on title and description.
func (tx *Tx) SearchTasks(ctx context.Context, query, project string, limit int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	filter := ListFilter{Project: project, Limit: limit, SearchQuery: query}

	tasks, ftsErr := tx.ListTasks(ctx, filter)
	if ftsErr == nil {
		return &SearchResult{Tasks: tasks}, nil
	}
	if errors.Is(ftsErr, context.Canceled) || errors.Is(ftsErr, context.DeadlineExceeded) {
		return nil, ftsErr
	}

	filter.SearchQuery = ""
	filter.Contains = query
	tasks, err := tx.ListTasks(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Tasks: tasks, Fallback: true, FTSFailed: ftsErr}, nil
}
