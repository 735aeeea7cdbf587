package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taskboard/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

const (
	taskColumns          = "id, project, title, description, status, assignee, priority, created_by, parent_task_id, branch, pr_url, spec_file, design_file, acceptance_criteria, due_date, created_at, updated_at"
	qualifiedTaskColumns = "tasks.id, tasks.project, tasks.title, tasks.description, tasks.status, tasks.assignee, tasks.priority, tasks.created_by, tasks.parent_task_id, tasks.branch, tasks.pr_url, tasks.spec_file, tasks.design_file, tasks.acceptance_criteria, tasks.due_date, tasks.created_at, tasks.updated_at"

	// FieldAcceptanceCriteria names the stored checklist column.
	FieldAcceptanceCriteria = "acceptance_criteria"
)

// TaskUpdate holds the optional column changes for a task. Nil fields are untouched.
type TaskUpdate struct {
	Title              *string
	Description        *string
	Status             *string
	Assignee           *string
	Priority           *int
	ParentTaskID       *string
	Branch             *string
	PRURL              *string
	SpecFile           *string
	DesignFile         *string
	AcceptanceCriteria *[]models.Criterion
	DueDate            *string
	UpdatedAt          time.Time
}

// InsertTask writes a new task row.
func (tx *Tx) InsertTask(ctx context.Context, task *models.Task) error {
	if task == nil {
		return fmt.Errorf("task is required")
	}
	criteria, err := models.EncodeList(task.AcceptanceCriteria)
	if err != nil {
		return fmt.Errorf("encode criteria: %w", err)
	}

	_, err = tx.q.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		task.ID,
		task.Project,
		task.Title,
		nullIfEmpty(task.Description),
		task.Status,
		nullIfEmpty(task.Assignee),
		task.Priority,
		task.CreatedBy,
		nullIfEmpty(task.ParentTaskID),
		nullIfEmpty(task.Branch),
		nullIfEmpty(task.PRURL),
		nullIfEmpty(task.SpecFile),
		nullIfEmpty(task.DesignFile),
		nullIfEmpty(criteria),
		nullIfEmpty(task.DueDate),
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert task %s: %w", task.ID, err)
	}
	return nil
}

// GetTask returns a task by id, or ErrNotFound.
func (tx *Tx) GetTask(ctx context.Context, id string) (*models.Task, error) {
	row := tx.q.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return task, nil
}

// TaskExists reports whether a task with id exists.
func (tx *Tx) TaskExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := tx.q.QueryRowContext(ctx, "SELECT 1 FROM tasks WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateTask applies the non-nil fields of update.
func (tx *Tx) UpdateTask(ctx context.Context, id string, update TaskUpdate) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}

	set := newAssignments("tasks", taskUpdatableColumns)
	if update.Title != nil {
		set.set("title", *update.Title)
	}
	if update.Description != nil {
		set.set("description", nullIfEmpty(*update.Description))
	}
	if update.Status != nil {
		set.set("status", *update.Status)
	}
	if update.Assignee != nil {
		set.set("assignee", nullIfEmpty(*update.Assignee))
	}
	if update.Priority != nil {
		set.set("priority", *update.Priority)
	}
	if update.ParentTaskID != nil {
		set.set("parent_task_id", nullIfEmpty(*update.ParentTaskID))
	}
	if update.Branch != nil {
		set.set("branch", nullIfEmpty(*update.Branch))
	}
	if update.PRURL != nil {
		set.set("pr_url", nullIfEmpty(*update.PRURL))
	}
	if update.SpecFile != nil {
		set.set("spec_file", nullIfEmpty(*update.SpecFile))
	}
	if update.DesignFile != nil {
		set.set("design_file", nullIfEmpty(*update.DesignFile))
	}
	if update.AcceptanceCriteria != nil {
		encoded, err := models.EncodeList(*update.AcceptanceCriteria)
		if err != nil {
			return fmt.Errorf("encode criteria: %w", err)
		}
		set.set("acceptance_criteria", nullIfEmpty(encoded))
	}
	if update.DueDate != nil {
		set.set("due_date", nullIfEmpty(*update.DueDate))
	}
	if set.empty() {
		return nil
	}
	if update.UpdatedAt.IsZero() {
		update.UpdatedAt = time.Now()
	}
	set.set("updated_at", formatTime(update.UpdatedAt))

	query, args, err := set.build(id)
	if err != nil {
		return err
	}
	result, err := tx.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTasks returns tasks matching filter ordered by priority then creation.
func (tx *Tx) ListTasks(ctx context.Context, filter ListFilter) ([]models.Task, error) {
	query, args := buildListQuery(filter)
	return tx.queryTasks(ctx, query, args...)
}

// ListChildren returns the direct children of parentID.
func (tx *Tx) ListChildren(ctx context.Context, parentID string) ([]models.Task, error) {
	return tx.ListTasks(ctx, ListFilter{ParentID: parentID})
}

// ChildStatusCounts returns, per parent id, how many direct children sit in each status.
func (tx *Tx) ChildStatusCounts(ctx context.Context, parentIDs []string) (map[string]map[string]int, error) {
	result := map[string]map[string]int{}
	if len(parentIDs) == 0 {
		return result, nil
	}
	query := fmt.Sprintf(`
		SELECT parent_task_id, status, COUNT(*)
		FROM tasks
		WHERE parent_task_id IN (%s)
		GROUP BY parent_task_id, status
	`, placeholders(len(parentIDs)))

	rows, err := tx.q.QueryContext(ctx, query, stringArgs(parentIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var parentID, status string
		var count int
		if err := rows.Scan(&parentID, &status, &count); err != nil {
			return nil, err
		}
		if result[parentID] == nil {
			result[parentID] = map[string]int{}
		}
		result[parentID][status] = count
	}
	return result, rows.Err()
}

// StatusCounts returns the number of tasks per status, optionally for one project.
func (tx *Tx) StatusCounts(ctx context.Context, project string) (map[string]int, error) {
	query := "SELECT status, COUNT(*) FROM tasks"
	args := []any{}
	if project != "" {
		query += " WHERE project = ?"
		args = append(args, project)
	}
	query += " GROUP BY status"

	rows, err := tx.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// DeleteTasks removes the given tasks and every record that references them.
// Callers pass the full set, children included.
func (tx *Tx) DeleteTasks(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	in := placeholders(len(ids))
	args := stringArgs(ids)

	statements := []struct {
		query string
		args  []any
	}{
		{"DELETE FROM task_comments WHERE task_id IN (" + in + ")", args},
		{"DELETE FROM task_deps WHERE task_id IN (" + in + ") OR depends_on_id IN (" + in + ")", append(append([]any{}, args...), args...)},
		{"DELETE FROM task_history WHERE task_id IN (" + in + ")", args},
		{"DELETE FROM initiative_tasks WHERE task_id IN (" + in + ")", args},
		{"DELETE FROM tasks WHERE parent_task_id IN (" + in + ")", args},
		{"DELETE FROM tasks WHERE id IN (" + in + ")", args},
	}
	for _, stmt := range statements {
		if _, err := tx.q.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			return fmt.Errorf("delete tasks: %w", err)
		}
	}
	return nil
}

func (tx *Tx) queryTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := tx.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// scanTask reads one task row. A checklist that fails to parse is reported in
// CorruptFields rather than failing the read.
func scanTask(scanner interface{ Scan(dest ...any) error }) (*models.Task, error) {
	var task models.Task
	var description, assignee, parentID, branch, prURL, specFile, designFile, criteria, dueDate sql.NullString
	var createdAt, updatedAt string

	if err := scanner.Scan(
		&task.ID,
		&task.Project,
		&task.Title,
		&description,
		&task.Status,
		&assignee,
		&task.Priority,
		&task.CreatedBy,
		&parentID,
		&branch,
		&prURL,
		&specFile,
		&designFile,
		&criteria,
		&dueDate,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	task.Description = description.String
	task.Assignee = assignee.String
	task.ParentTaskID = parentID.String
	task.Branch = branch.String
	task.PRURL = prURL.String
	task.SpecFile = specFile.String
	task.DesignFile = designFile.String
	task.DueDate = dueDate.String

	items, err := models.DecodeList[models.Criterion](criteria.String)
	if err != nil {
		task.CorruptFields = append(task.CorruptFields, FieldAcceptanceCriteria)
	} else {
		task.AcceptanceCriteria = items
	}

	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &task, nil
}
