package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"taskboard/internal/models"
)

// CycleError is returned when a new edge would close a dependency loop.
// Chain lists the ids along the loop, starting and ending at DependsOnID.
type CycleError struct {
	TaskID      string
	DependsOnID string
	Chain       []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("adding %s -> %s would create a dependency cycle: %s", e.TaskID, e.DependsOnID, strings.Join(e.Chain, " -> "))
}

// AddDependency records that taskID depends on dependsOnID. The cycle check
// and the insert share the caller's transaction. created is false when the
// edge already existed.
func (tx *Tx) AddDependency(ctx context.Context, taskID, dependsOnID string, now time.Time) (bool, error) {
	chain, err := tx.dependencyPath(ctx, taskID, dependsOnID)
	if err != nil {
		return false, err
	}
	if chain != nil {
		return false, &CycleError{TaskID: taskID, DependsOnID: dependsOnID, Chain: append(chain, dependsOnID)}
	}

	result, err := tx.q.ExecContext(ctx,
		"INSERT OR IGNORE INTO task_deps (task_id, depends_on_id, created_at) VALUES (?, ?, ?)",
		taskID, dependsOnID, formatTime(now),
	)
	if err != nil {
		return false, fmt.Errorf("insert dependency: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// RemoveDependency deletes the exact edge. removed is false when it did not exist.
func (tx *Tx) RemoveDependency(ctx context.Context, taskID, dependsOnID string) (bool, error) {
	result, err := tx.q.ExecContext(ctx, "DELETE FROM task_deps WHERE task_id = ? AND depends_on_id = ?", taskID, dependsOnID)
	if err != nil {
		return false, fmt.Errorf("remove dependency: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// dependencyPath walks breadth-first from start over the depended-on-by
// relation. If target is reached it returns the path target ... start,
// read as "depends on" links; otherwise nil.
func (tx *Tx) dependencyPath(ctx context.Context, start, target string) ([]string, error) {
	if start == target {
		return []string{start}, nil
	}
	cameFrom := map[string]string{start: ""}
	frontier := []string{start}

	for len(frontier) > 0 {
		dependents, err := tx.dependentsOf(ctx, frontier)
		if err != nil {
			return nil, err
		}
		var next []string
		for _, edge := range dependents {
			if _, seen := cameFrom[edge.TaskID]; seen {
				continue
			}
			cameFrom[edge.TaskID] = edge.DependsOnID
			if edge.TaskID == target {
				var path []string
				for node := target; node != ""; node = cameFrom[node] {
					path = append(path, node)
				}
				return path, nil
			}
			next = append(next, edge.TaskID)
		}
		frontier = next
	}
	return nil, nil
}

// dependentsOf returns the edges whose depends_on_id is one of ids.
func (tx *Tx) dependentsOf(ctx context.Context, ids []string) ([]models.Dependency, error) {
	query := fmt.Sprintf(
		"SELECT task_id, depends_on_id FROM task_deps WHERE depends_on_id IN (%s) ORDER BY task_id",
		placeholders(len(ids)),
	)
	rows, err := tx.q.QueryContext(ctx, query, stringArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []models.Dependency
	for rows.Next() {
		var edge models.Dependency
		if err := rows.Scan(&edge.TaskID, &edge.DependsOnID); err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	return edges, rows.Err()
}

// ListBlockers returns the tasks id depends on.
func (tx *Tx) ListBlockers(ctx context.Context, id string) ([]models.TaskSummary, error) {
	return tx.neighborSummaries(ctx, `
		SELECT t.id, t.title, t.status, t.priority, t.assignee
		FROM task_deps d JOIN tasks t ON t.id = d.depends_on_id
		WHERE d.task_id = ?
		ORDER BY t.priority ASC, t.created_at ASC
	`, id)
}

// ListBlocked returns the tasks that depend on id.
func (tx *Tx) ListBlocked(ctx context.Context, id string) ([]models.TaskSummary, error) {
	return tx.neighborSummaries(ctx, `
		SELECT t.id, t.title, t.status, t.priority, t.assignee
		FROM task_deps d JOIN tasks t ON t.id = d.task_id
		WHERE d.depends_on_id = ?
		ORDER BY t.priority ASC, t.created_at ASC
	`, id)
}

// ListDependencies returns every edge touching id, in either direction.
func (tx *Tx) ListDependencies(ctx context.Context, id string) ([]models.Dependency, error) {
	rows, err := tx.q.QueryContext(ctx, `
		SELECT task_id, depends_on_id, created_at
		FROM task_deps
		WHERE task_id = ? OR depends_on_id = ?
		ORDER BY created_at ASC
	`, id, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deps []models.Dependency
	for rows.Next() {
		var dep models.Dependency
		var createdAt string
		if err := rows.Scan(&dep.TaskID, &dep.DependsOnID, &createdAt); err != nil {
			return nil, err
		}
		if dep.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	return deps, rows.Err()
}

func (tx *Tx) neighborSummaries(ctx context.Context, query, id string) ([]models.TaskSummary, error) {
	rows, err := tx.q.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TaskSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

func scanSummary(scanner interface{ Scan(dest ...any) error }) (models.TaskSummary, error) {
	var summary models.TaskSummary
	var assignee sql.NullString
	if err := scanner.Scan(&summary.ID, &summary.Title, &summary.Status, &summary.Priority, &assignee); err != nil {
		return summary, err
	}
	summary.Assignee = assignee.String
	return summary, nil
}
