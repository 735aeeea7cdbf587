package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taskboard/internal/models"
)

const (
	initiativeColumns = "id, title, description, owner, participants, success_criteria, progress, status, target_date, created_by, created_at, updated_at"

	FieldParticipants    = "participants"
	FieldSuccessCriteria = "success_criteria"
)

// InitiativeUpdateFields holds optional column changes for an initiative.
type InitiativeUpdateFields struct {
	Title           *string
	Description     *string
	Owner           *string
	Participants    *[]string
	SuccessCriteria *[]string
	Progress        *int
	Status          *string
	TargetDate      *string
	UpdatedAt       time.Time
}

// InsertInitiative writes a new initiative row.
func (tx *Tx) InsertInitiative(ctx context.Context, initiative *models.Initiative) error {
	if initiative == nil {
		return fmt.Errorf("initiative is required")
	}
	participants, err := models.EncodeList(initiative.Participants)
	if err != nil {
		return fmt.Errorf("encode participants: %w", err)
	}
	criteria, err := models.EncodeList(initiative.SuccessCriteria)
	if err != nil {
		return fmt.Errorf("encode success criteria: %w", err)
	}
	_, err = tx.q.ExecContext(ctx, `
		INSERT INTO initiatives (`+initiativeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		initiative.ID,
		initiative.Title,
		nullIfEmpty(initiative.Description),
		nullIfEmpty(initiative.Owner),
		nullIfEmpty(participants),
		nullIfEmpty(criteria),
		initiative.Progress,
		initiative.Status,
		nullIfEmpty(initiative.TargetDate),
		initiative.CreatedBy,
		formatTime(initiative.CreatedAt),
		formatTime(initiative.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert initiative %s: %w", initiative.ID, err)
	}
	return nil
}

// GetInitiative returns an initiative by id, or ErrNotFound.
func (tx *Tx) GetInitiative(ctx context.Context, id string) (*models.Initiative, error) {
	row := tx.q.QueryRowContext(ctx, "SELECT "+initiativeColumns+" FROM initiatives WHERE id = ?", id)
	initiative, err := scanInitiative(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get initiative %s: %w", id, err)
	}
	return initiative, nil
}

// InitiativeExists reports whether an initiative with id exists.
func (tx *Tx) InitiativeExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := tx.q.QueryRowContext(ctx, "SELECT 1 FROM initiatives WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListInitiatives returns initiatives, most recently updated first.
func (tx *Tx) ListInitiatives(ctx context.Context, status string, limit int) ([]models.Initiative, error) {
	query := "SELECT " + initiativeColumns + " FROM initiatives"
	args := []any{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY updated_at DESC, rowid DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := tx.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Initiative
	for rows.Next() {
		initiative, err := scanInitiative(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *initiative)
	}
	return out, rows.Err()
}

// UpdateInitiative applies the non-nil fields of update.
func (tx *Tx) UpdateInitiative(ctx context.Context, id string, update InitiativeUpdateFields) error {
	set := newAssignments("initiatives", initiativeUpdatableColumns)
	if update.Title != nil {
		set.set("title", *update.Title)
	}
	if update.Description != nil {
		set.set("description", nullIfEmpty(*update.Description))
	}
	if update.Owner != nil {
		set.set("owner", nullIfEmpty(*update.Owner))
	}
	if update.Participants != nil {
		encoded, err := models.EncodeList(*update.Participants)
		if err != nil {
			return fmt.Errorf("encode participants: %w", err)
		}
		set.set("participants", nullIfEmpty(encoded))
	}
	if update.SuccessCriteria != nil {
		encoded, err := models.EncodeList(*update.SuccessCriteria)
		if err != nil {
			return fmt.Errorf("encode success criteria: %w", err)
		}
		set.set("success_criteria", nullIfEmpty(encoded))
	}
	if update.Progress != nil {
		set.set("progress", *update.Progress)
	}
	if update.Status != nil {
		set.set("status", *update.Status)
	}
	if update.TargetDate != nil {
		set.set("target_date", nullIfEmpty(*update.TargetDate))
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
		return fmt.Errorf("update initiative %s: %w", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkTask associates a task with an initiative. created is false when the
// link already existed; the existing role is kept.
func (tx *Tx) LinkTask(ctx context.Context, initiativeID, taskID, role string, now time.Time) (bool, error) {
	result, err := tx.q.ExecContext(ctx,
		"INSERT OR IGNORE INTO initiative_tasks (initiative_id, task_id, role, linked_at) VALUES (?, ?, ?, ?)",
		initiativeID, taskID, nullIfEmpty(role), formatTime(now),
	)
	if err != nil {
		return false, fmt.Errorf("link task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListInitiativeTasks returns the tasks linked to an initiative in link order.
func (tx *Tx) ListInitiativeTasks(ctx context.Context, initiativeID string) ([]models.InitiativeTask, error) {
	rows, err := tx.q.QueryContext(ctx, `
		SELECT t.id, t.title, t.status, t.priority, t.assignee, t.project, l.role, l.linked_at
		FROM initiative_tasks l JOIN tasks t ON t.id = l.task_id
		WHERE l.initiative_id = ?
		ORDER BY l.linked_at ASC, t.id ASC
	`, initiativeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.InitiativeTask
	for rows.Next() {
		var item models.InitiativeTask
		var assignee, role sql.NullString
		var linkedAt string
		if err := rows.Scan(&item.ID, &item.Title, &item.Status, &item.Priority, &assignee, &item.Project, &role, &linkedAt); err != nil {
			return nil, err
		}
		item.Assignee = assignee.String
		item.Role = role.String
		if item.LinkedAt, err = parseTime(linkedAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// InsertInitiativeUpdate appends a progress note.
func (tx *Tx) InsertInitiativeUpdate(ctx context.Context, update *models.InitiativeUpdate) error {
	if update == nil {
		return fmt.Errorf("initiative update is required")
	}
	var progress any
	if update.Progress != nil {
		progress = *update.Progress
	}
	_, err := tx.q.ExecContext(ctx, `
		INSERT INTO initiative_updates (id, initiative_id, author, note, progress, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		update.ID,
		update.InitiativeID,
		update.Author,
		update.Note,
		progress,
		formatTime(update.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert initiative update: %w", err)
	}
	return nil
}

// ListInitiativeUpdates returns up to limit notes, most recent first.
func (tx *Tx) ListInitiativeUpdates(ctx context.Context, initiativeID string, limit int) ([]models.InitiativeUpdate, error) {
	query := `
		SELECT id, initiative_id, author, note, progress, created_at
		FROM initiative_updates
		WHERE initiative_id = ?
		ORDER BY created_at DESC, rowid DESC`
	args := []any{initiativeID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := tx.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.InitiativeUpdate
	for rows.Next() {
		var update models.InitiativeUpdate
		var progress sql.NullInt64
		var createdAt string
		if err := rows.Scan(&update.ID, &update.InitiativeID, &update.Author, &update.Note, &progress, &createdAt); err != nil {
			return nil, err
		}
		if progress.Valid {
			value := int(progress.Int64)
			update.Progress = &value
		}
		if update.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, update)
	}
	return out, rows.Err()
}

func scanInitiative(scanner interface{ Scan(dest ...any) error }) (*models.Initiative, error) {
	var initiative models.Initiative
	var description, owner, participants, criteria, targetDate sql.NullString
	var createdAt, updatedAt string
	if err := scanner.Scan(
		&initiative.ID,
		&initiative.Title,
		&description,
		&owner,
		&participants,
		&criteria,
		&initiative.Progress,
		&initiative.Status,
		&targetDate,
		&initiative.CreatedBy,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	initiative.Description = description.String
	initiative.Owner = owner.String
	initiative.TargetDate = targetDate.String

	if items, err := models.DecodeList[string](participants.String); err != nil {
		initiative.CorruptFields = append(initiative.CorruptFields, FieldParticipants)
	} else {
		initiative.Participants = items
	}
	if items, err := models.DecodeList[string](criteria.String); err != nil {
		initiative.CorruptFields = append(initiative.CorruptFields, FieldSuccessCriteria)
	} else {
		initiative.SuccessCriteria = items
	}

	var err error
	if initiative.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if initiative.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &initiative, nil
}
