package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskboard/internal/models"
)

const historyColumns = "id, task_id, from_status, to_status, changed_by, changed_at, duration_seconds"

// InsertHistory appends a status history row and sets its id.
func (tx *Tx) InsertHistory(ctx context.Context, entry *models.HistoryEntry) error {
	if entry == nil {
		return fmt.Errorf("history entry is required")
	}
	var duration any
	if entry.DurationSeconds != nil {
		duration = *entry.DurationSeconds
	}
	result, err := tx.q.ExecContext(ctx, `
		INSERT INTO task_history (task_id, from_status, to_status, changed_by, changed_at, duration_seconds)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		entry.TaskID,
		nullIfEmpty(entry.FromStatus),
		entry.ToStatus,
		entry.ChangedBy,
		formatTime(entry.ChangedAt),
		duration,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// LatestHistory returns the most recent history row for a task, or nil.
func (tx *Tx) LatestHistory(ctx context.Context, taskID string) (*models.HistoryEntry, error) {
	row := tx.q.QueryRowContext(ctx, "SELECT "+historyColumns+" FROM task_history WHERE task_id = ? ORDER BY id DESC LIMIT 1", taskID)
	entry, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return entry, err
}

// ListHistory returns up to limit history rows, most recent first.
func (tx *Tx) ListHistory(ctx context.Context, taskID string, limit int) ([]models.HistoryEntry, error) {
	query := "SELECT " + historyColumns + " FROM task_history WHERE task_id = ? ORDER BY id DESC"
	args := []any{taskID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := tx.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func scanHistory(scanner interface{ Scan(dest ...any) error }) (*models.HistoryEntry, error) {
	var entry models.HistoryEntry
	var from sql.NullString
	var duration sql.NullInt64
	var changedAt string
	if err := scanner.Scan(&entry.ID, &entry.TaskID, &from, &entry.ToStatus, &entry.ChangedBy, &changedAt, &duration); err != nil {
		return nil, err
	}
	entry.FromStatus = from.String
	if duration.Valid {
		value := duration.Int64
		entry.DurationSeconds = &value
	}
	var err error
	if entry.ChangedAt, err = parseTime(changedAt); err != nil {
		return nil, err
	}
	return &entry, nil
}
