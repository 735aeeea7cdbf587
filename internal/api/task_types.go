package api

import "taskboard/internal/models"

// TaskCreateRequest defines the payload for creating a task. Either Project
// or ParentTaskID is required; a parent decides the project.
type TaskCreateRequest struct {
	Project            string   `json:"project,omitempty"`
	ParentTaskID       string   `json:"parent_task_id,omitempty"`
	Title              string   `json:"title"`
	Description        string   `json:"description,omitempty"`
	Priority           *int     `json:"priority,omitempty"`
	Status             string   `json:"status,omitempty"`
	Assignee           string   `json:"assignee,omitempty"`
	DueDate            string   `json:"due_date,omitempty"`
	Branch             string   `json:"branch,omitempty"`
	PRURL              string   `json:"pr_url,omitempty"`
	SpecFile           string   `json:"spec_file,omitempty"`
	DesignFile         string   `json:"design_file,omitempty"`
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty"`
}

// TaskCreateResponse reports the new task.
type TaskCreateResponse struct {
	Outcome
	ID   string       `json:"id,omitempty"`
	Task *models.Task `json:"task,omitempty"`
}

// TaskUpdateRequest defines the payload for updating a task. Nil fields are
// untouched; an empty string clears optional text fields.
type TaskUpdateRequest struct {
	ExpectedStatus *string `json:"expected_status,omitempty"`
	Title          *string `json:"title,omitempty"`
	Description    *string `json:"description,omitempty"`
	Priority       *int    `json:"priority,omitempty"`
	Assignee       *string `json:"assignee,omitempty"`
	Status         *string `json:"status,omitempty"`
	DueDate        *string `json:"due_date,omitempty"`
	Branch         *string `json:"branch,omitempty"`
	PRURL          *string `json:"pr_url,omitempty"`
	SpecFile       *string `json:"spec_file,omitempty"`
	DesignFile     *string `json:"design_file,omitempty"`
	ParentTaskID   *string `json:"parent_task_id,omitempty"`
}

// TaskUpdateResponse reports which fields changed. On an expected_status
// mismatch the outcome is noop and ActualStatus holds the stored status.
type TaskUpdateResponse struct {
	Outcome
	Task         *models.Task `json:"task,omitempty"`
	Changed      []string     `json:"changed,omitempty"`
	ActualStatus string       `json:"actual_status,omitempty"`
}

// TaskDetailResponse is the full view of one task.
type TaskDetailResponse struct {
	Outcome
	Task     *models.Task          `json:"task,omitempty"`
	Comments []models.Comment      `json:"comments,omitempty"`
	Reviews  []models.Comment      `json:"reviews,omitempty"`
	Blockers []models.TaskSummary  `json:"blockers,omitempty"`
	Blocked  []models.TaskSummary  `json:"blocked,omitempty"`
	Parent   *models.TaskSummary   `json:"parent,omitempty"`
	Children []models.TaskSummary  `json:"children,omitempty"`
	Subtasks *models.SubtaskCounts `json:"subtasks,omitempty"`
	History  []models.HistoryEntry `json:"history,omitempty"`
}

// TaskListItem is a task row with subtask counts for top-level tasks.
type TaskListItem struct {
	models.Task
	Subtasks *models.SubtaskCounts `json:"subtasks,omitempty"`
}

// TaskListResponse is the response for list and search.
type TaskListResponse struct {
	Outcome
	Tasks    []TaskListItem `json:"tasks"`
	Count    int            `json:"count"`
	Fallback bool           `json:"fallback,omitempty"`
}

// TaskDeleteResponse lists the removed task ids, children included.
type TaskDeleteResponse struct {
	Outcome
	Deleted []string `json:"deleted,omitempty"`
}

// BoardColumn is one status column of a project board.
type BoardColumn struct {
	Status string               `json:"status"`
	Count  int                  `json:"count"`
	Tasks  []models.TaskSummary `json:"tasks"`
}

// BoardResponse groups a project's tasks by status in pipeline order.
type BoardResponse struct {
	Outcome
	Project  string        `json:"project"`
	Pipeline string        `json:"pipeline"`
	Columns  []BoardColumn `json:"columns"`
	Total    int           `json:"total"`
	Text     string        `json:"text"`
}

// CommentRequest adds a free-form comment.
type CommentRequest struct {
	Body string `json:"body"`
}

// ReviewRequest submits a verdict with optional issue categories.
type ReviewRequest struct {
	Verdict string   `json:"verdict"`
	Issues  []string `json:"issues,omitempty"`
	Body    string   `json:"body,omitempty"`
}

// CommentResponse returns the stored comment or review.
type CommentResponse struct {
	Outcome
	Comment *models.Comment `json:"comment,omitempty"`
}

// CriteriaSetRequest replaces a task's checklist.
type CriteriaSetRequest struct {
	Items []string `json:"items"`
}

// CriterionCheckRequest toggles one checklist item. Checked defaults to true.
type CriterionCheckRequest struct {
	Checked *bool `json:"checked,omitempty"`
}

// CriteriaResponse returns the checklist after a change.
type CriteriaResponse struct {
	Outcome
	TaskID   string             `json:"task_id"`
	Criteria []models.Criterion `json:"criteria"`
}

// DepRequest names a dependency edge: TaskID depends on DependsOnID.
type DepRequest struct {
	TaskID      string `json:"task_id"`
	DependsOnID string `json:"depends_on_id"`
}

// DepResponse reports whether an edge was written or removed.
type DepResponse struct {
	Outcome
	Changed bool `json:"changed"`
}
