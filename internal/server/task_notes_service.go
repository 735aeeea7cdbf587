package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"taskboard/internal/api"
	"taskboard/internal/models"
	"taskboard/internal/store"
)

// AddComment appends a free-form comment to a task.
func (s *TaskService) AddComment(ctx context.Context, taskID string, req api.CommentRequest) (api.CommentResponse, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return api.CommentResponse{}, badRequestCode(fmt.Errorf("body is required"), ErrCodeMissingRequired)
	}
	return s.appendComment(ctx, taskID, &models.Comment{Body: body})
}

// SubmitReview appends a review: a comment carrying a verdict and issue categories.
func (s *TaskService) SubmitReview(ctx context.Context, taskID string, req api.ReviewRequest) (api.CommentResponse, error) {
	verdict, err := models.ParseReviewVerdict(req.Verdict)
	if err != nil {
		return api.CommentResponse{}, badRequestCode(err, ErrCodeInvalidVerdict)
	}
	issues, err := normalizeIssues(req.Issues)
	if err != nil {
		return api.CommentResponse{}, err
	}
	return s.appendComment(ctx, taskID, &models.Comment{
		Body:    strings.TrimSpace(req.Body),
		Verdict: string(verdict),
		Issues:  issues,
	})
}

func (s *TaskService) appendComment(ctx context.Context, taskID string, comment *models.Comment) (api.CommentResponse, error) {
	var resp api.CommentResponse
	taskID, err := requireTaskID(taskID, "task_id")
	if err != nil {
		return resp, err
	}
	id, err := newRecordID()
	if err != nil {
		return resp, err
	}
	comment.ID = id
	comment.TaskID = taskID
	comment.Author = s.identity.Resolve(ctx)
	comment.CreatedAt = s.now()

	err = s.store.Update(ctx, func(tx *store.Tx) error {
		exists, err := tx.TaskExists(ctx, taskID)
		if err != nil {
			return err
		}
		if !exists {
			resp.Outcome = api.NotFound(fmt.Sprintf("task %s not found", taskID))
			return nil
		}
		if err := tx.InsertComment(ctx, comment); err != nil {
			return err
		}
		resp.Outcome = api.OK("")
		resp.Comment = comment
		return nil
	})
	if err != nil {
		return api.CommentResponse{}, err
	}
	return resp, nil
}

// SetCriteria replaces a task's checklist with fresh unchecked items.
func (s *TaskService) SetCriteria(ctx context.Context, taskID string, req api.CriteriaSetRequest) (api.CriteriaResponse, error) {
	resp := api.CriteriaResponse{TaskID: strings.TrimSpace(taskID)}
	taskID, err := requireTaskID(taskID, "task_id")
	if err != nil {
		return resp, err
	}
	criteria, err := freshCriteria(req.Items)
	if err != nil {
		return resp, err
	}

	err = s.store.Update(ctx, func(tx *store.Tx) error {
		exists, err := tx.TaskExists(ctx, taskID)
		if err != nil {
			return err
		}
		if !exists {
			resp.Outcome = api.NotFound(fmt.Sprintf("task %s not found", taskID))
			return nil
		}
		if err := tx.UpdateTask(ctx, taskID, store.TaskUpdate{AcceptanceCriteria: &criteria, UpdatedAt: s.now()}); err != nil {
			return err
		}
		resp.Outcome = api.OK(fmt.Sprintf("%d criteria set", len(criteria)))
		resp.Criteria = criteria
		return nil
	})
	if err != nil {
		return api.CriteriaResponse{TaskID: taskID}, err
	}
	return resp, nil
}

// CheckCriterion marks one checklist item checked or unchecked. A stored
// checklist that cannot be parsed fails rather than being overwritten.
func (s *TaskService) CheckCriterion(ctx context.Context, taskID, criterionID string, checked bool) (api.CriteriaResponse, error) {
	resp := api.CriteriaResponse{TaskID: strings.TrimSpace(taskID)}
	taskID, err := requireTaskID(taskID, "task_id")
	if err != nil {
		return resp, err
	}
	criterionID = strings.TrimSpace(criterionID)
	if !validateCriterionID(criterionID) {
		return resp, badRequestCode(fmt.Errorf("invalid criterion id: %s", criterionID), ErrCodeInvalidID)
	}
	actor := s.identity.Resolve(ctx)

	err = s.store.Update(ctx, func(tx *store.Tx) error {
		task, err := tx.GetTask(ctx, taskID)
		if errors.Is(err, store.ErrNotFound) {
			resp.Outcome = api.NotFound(fmt.Sprintf("task %s not found", taskID))
			return nil
		}
		if err != nil {
			return err
		}
		if task.IsCorrupt(store.FieldAcceptanceCriteria) {
			return &models.CorruptFieldError{Record: taskID, Field: store.FieldAcceptanceCriteria}
		}

		criteria := task.AcceptanceCriteria
		index := -1
		for i := range criteria {
			if criteria[i].ID == criterionID {
				index = i
				break
			}
		}
		if index < 0 {
			resp.Outcome = api.NotFound(fmt.Sprintf("criterion %s not found on task %s", criterionID, taskID))
			resp.Criteria = criteria
			return nil
		}
		if criteria[index].Checked == checked {
			resp.Outcome = api.OK("no changes")
			resp.Criteria = criteria
			return nil
		}

		criteria[index].Checked = checked
		criteria[index].CheckedBy = ""
		if checked {
			criteria[index].CheckedBy = actor
		}
		if err := tx.UpdateTask(ctx, taskID, store.TaskUpdate{AcceptanceCriteria: &criteria, UpdatedAt: s.now()}); err != nil {
			return err
		}
		resp.Outcome = api.OK("")
		resp.Criteria = criteria
		return nil
	})
	if err != nil {
		return api.CriteriaResponse{TaskID: taskID}, err
	}
	return resp, nil
}

// freshCriteria turns checklist text into unchecked items with unique ids.
func freshCriteria(items []string) ([]models.Criterion, error) {
	texts := trimmedLines(items)
	criteria := make([]models.Criterion, 0, len(texts))
	taken := make(map[string]struct{}, len(texts))
	for _, text := range texts {
		id, err := store.GenerateCriterionID(taken)
		if err != nil {
			return nil, err
		}
		taken[id] = struct{}{}
		criteria = append(criteria, models.Criterion{ID: id, Text: text})
	}
	return criteria, nil
}

// newRecordID returns a time-ordered id for append-only records.
func newRecordID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id.String(), nil
}
