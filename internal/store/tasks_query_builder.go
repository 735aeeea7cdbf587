package store

import (
	"fmt"
	"strings"
)

// ListFilter narrows a task listing. Zero values mean "any".
type ListFilter struct {
	Project  string
	Statuses []string
	Assignee string
	ParentID string
	TopLevel bool
	Limit    int
	Offset   int

	// SearchQuery restricts rows to FTS matches and orders by relevance.
	SearchQuery string
	// Contains restricts rows to a substring of title or description.
	Contains string
}

type listQueryBuilder struct {
	filter ListFilter
	query  string
	args   []any
	where  []string
}

func buildListQuery(filter ListFilter) (string, []any) {
	builder := &listQueryBuilder{filter: filter}
	builder.buildSelect()
	builder.buildWhere()
	builder.buildOrder()
	builder.buildPagination()
	return builder.query, builder.args
}

func (b *listQueryBuilder) buildSelect() {
	b.query = "SELECT " + qualifiedTaskColumns + " FROM tasks"
	if b.filter.SearchQuery == "" {
		return
	}
	b.query += " JOIN tasks_fts ON tasks.id = tasks_fts.task_id AND tasks_fts MATCH ?"
	b.args = append(b.args, b.filter.SearchQuery)
}

func (b *listQueryBuilder) buildWhere() {
	b.appendProject()
	b.appendStatuses()
	b.appendAssignee()
	b.appendParent()
	b.appendContains()

	if len(b.where) == 0 {
		return
	}
	b.query += " WHERE " + strings.Join(b.where, " AND ")
}

func (b *listQueryBuilder) buildOrder() {
	if b.filter.SearchQuery != "" {
		b.query += " ORDER BY tasks_fts.rank, tasks.priority ASC, tasks.created_at ASC"
		return
	}
	b.query += " ORDER BY tasks.priority ASC, tasks.created_at ASC, tasks.rowid ASC"
}

func (b *listQueryBuilder) buildPagination() {
	hasLimit := false
	if b.filter.Limit > 0 {
		b.query += " LIMIT ?"
		b.args = append(b.args, b.filter.Limit)
		hasLimit = true
	}
	if b.filter.Offset > 0 {
		if !hasLimit {
			b.query += " LIMIT -1"
		}
		b.query += " OFFSET ?"
		b.args = append(b.args, b.filter.Offset)
	}
}

func (b *listQueryBuilder) appendProject() {
	if b.filter.Project == "" {
		return
	}
	b.where = append(b.where, "tasks.project = ?")
	b.args = append(b.args, b.filter.Project)
}

func (b *listQueryBuilder) appendStatuses() {
	if len(b.filter.Statuses) == 0 {
		return
	}
	b.where = append(b.where, fmt.Sprintf("tasks.status IN (%s)", placeholders(len(b.filter.Statuses))))
	b.args = append(b.args, stringArgs(b.filter.Statuses)...)
}

func (b *listQueryBuilder) appendAssignee() {
	if b.filter.Assignee == "" {
		return
	}
	b.where = append(b.where, "tasks.assignee = ?")
	b.args = append(b.args, b.filter.Assignee)
}

func (b *listQueryBuilder) appendParent() {
	if b.filter.ParentID != "" {
		b.where = append(b.where, "tasks.parent_task_id = ?")
		b.args = append(b.args, b.filter.ParentID)
		return
	}
	if b.filter.TopLevel {
		b.where = append(b.where, "tasks.parent_task_id IS NULL")
	}
}

func (b *listQueryBuilder) appendContains() {
	if b.filter.Contains == "" {
		return
	}
	pattern := "%" + escapeLike(b.filter.Contains) + "%"
	b.where = append(b.where, `(tasks.title LIKE ? ESCAPE '\' OR COALESCE(tasks.description, '') LIKE ? ESCAPE '\')`)
	b.args = append(b.args, pattern, pattern)
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
