package store

import (
	"context"
	"database/sql"
	"fmt"

	"taskboard/internal/models"
)

// InsertComment appends a comment or review to a task.
func (tx *Tx) InsertComment(ctx context.Context, comment *models.Comment) error {
	if comment == nil {
		return fmt.Errorf("comment is required")
	}
	issues, err := models.EncodeList(comment.Issues)
	if err != nil {
		return fmt.Errorf("encode issues: %w", err)
	}
	_, err = tx.q.ExecContext(ctx, `
		INSERT INTO task_comments (id, task_id, author, body, verdict, issues, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		comment.ID,
		comment.TaskID,
		comment.Author,
		comment.Body,
		nullIfEmpty(comment.Verdict),
		nullIfEmpty(issues),
		formatTime(comment.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// ListComments returns a task's comments oldest first. Issue lists that fail
// to parse come back empty.
func (tx *Tx) ListComments(ctx context.Context, taskID string) ([]models.Comment, error) {
	rows, err := tx.q.QueryContext(ctx, `
		SELECT id, task_id, author, body, verdict, issues, created_at
		FROM task_comments
		WHERE task_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var comment models.Comment
		var verdict, issues sql.NullString
		var createdAt string
		if err := rows.Scan(&comment.ID, &comment.TaskID, &comment.Author, &comment.Body, &verdict, &issues, &createdAt); err != nil {
			return nil, err
		}
		comment.Verdict = verdict.String
		if items, err := models.DecodeList[string](issues.String); err == nil {
			comment.Issues = items
		}
		if comment.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}
