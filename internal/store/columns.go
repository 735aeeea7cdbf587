package store

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// timeLayout is fixed width so that text ordering in SQLite matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// taskUpdatableColumns is the allow-list of task columns an update may assign.
var taskUpdatableColumns = map[string]struct{}{
	"title":               {},
	"description":         {},
	"status":              {},
	"assignee":            {},
	"priority":            {},
	"parent_task_id":      {},
	"branch":              {},
	"pr_url":              {},
	"spec_file":           {},
	"design_file":         {},
	"acceptance_criteria": {},
	"due_date":            {},
	"updated_at":          {},
}

var initiativeUpdatableColumns = map[string]struct{}{
	"title":            {},
	"description":      {},
	"owner":            {},
	"participants":     {},
	"success_criteria": {},
	"progress":         {},
	"status":           {},
	"target_date":      {},
	"updated_at":       {},
}

// ColumnError is returned when an update names a column outside the allow-list.
type ColumnError struct {
	Table  string
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %q is not updatable on %s", e.Column, e.Table)
}

// assignments collects column = ? pairs for an UPDATE statement. Column names
// are checked against the table's allow-list before any SQL is assembled.
type assignments struct {
	table   string
	allowed map[string]struct{}
	columns []string
	args    []any
}

func newAssignments(table string, allowed map[string]struct{}) *assignments {
	return &assignments{table: table, allowed: allowed}
}

func (a *assignments) set(column string, value any) {
	a.columns = append(a.columns, column)
	a.args = append(a.args, value)
}

func (a *assignments) empty() bool {
	return len(a.columns) == 0
}

// build returns the UPDATE statement and its arguments, keyed by id.
func (a *assignments) build(id string) (string, []any, error) {
	if len(a.columns) == 0 {
		return "", nil, fmt.Errorf("no columns to update")
	}
	set := make([]string, 0, len(a.columns))
	for _, column := range a.columns {
		if _, ok := a.allowed[column]; !ok {
			return "", nil, &ColumnError{Table: a.table, Column: column}
		}
		set = append(set, column+" = ?")
	}
	args := append(append([]any{}, a.args...), id)
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", a.table, strings.Join(set, ", ")), args, nil
}

// UpdatableTaskColumns lists the task columns an update may assign.
func UpdatableTaskColumns() []string {
	out := make([]string, 0, len(taskUpdatableColumns))
	for column := range taskUpdatableColumns {
		out = append(out, column)
	}
	sort.Strings(out)
	return out
}

func placeholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimRight(strings.Repeat("?,", count), ",")
}

func stringArgs(values []string) []any {
	args := make([]any, 0, len(values))
	for _, value := range values {
		args = append(args, value)
	}
	return args
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(timeLayout, value)
	if err == nil {
		return parsed, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}
