package server

import (
	"net/http"
	"strings"
)

func parseListParams(r *http.Request) (ListParams, error) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		return ListParams{}, err
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		return ListParams{}, err
	}

	query := r.URL.Query()
	return ListParams{
		Project:  strings.TrimSpace(query.Get("project")),
		Status:   strings.TrimSpace(query.Get("status")),
		Assignee: strings.TrimSpace(query.Get("assignee")),
		ParentID: strings.TrimSpace(query.Get("parent_id")),
		Limit:    limit,
		Offset:   offset,
	}, nil
}
