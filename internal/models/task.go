package models

import "time"

// Task is a unit of trackable work.
type Task struct {
	ID                 string      `json:"id"`
	Project            string      `json:"project"`
	Title              string      `json:"title"`
	Description        string      `json:"description,omitempty"`
	Status             string      `json:"status"`
	Assignee           string      `json:"assignee,omitempty"`
	Priority           int         `json:"priority"`
	CreatedBy          string      `json:"created_by"`
	ParentTaskID       string      `json:"parent_task_id,omitempty"`
	Branch             string      `json:"branch,omitempty"`
	PRURL              string      `json:"pr_url,omitempty"`
	SpecFile           string      `json:"spec_file,omitempty"`
	DesignFile         string      `json:"design_file,omitempty"`
	AcceptanceCriteria []Criterion `json:"acceptance_criteria,omitempty"`
	DueDate            string      `json:"due_date,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`

	// CorruptFields names stored structured fields that failed to parse.
	CorruptFields []string `json:"corrupt_fields,omitempty"`
}

// Criterion is one acceptance-criteria checklist item.
type Criterion struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Checked   bool   `json:"checked"`
	CheckedBy string `json:"checked_by,omitempty"`
}

// TaskSummary is the short form used for parents, children and dependency neighbors.
type TaskSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority int    `json:"priority"`
	Assignee string `json:"assignee,omitempty"`
}

// SubtaskCounts reports how many direct children are terminal.
type SubtaskCounts struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// Summary returns the short form of the task.
func (t Task) Summary() TaskSummary {
	return TaskSummary{ID: t.ID, Title: t.Title, Status: t.Status, Priority: t.Priority, Assignee: t.Assignee}
}

// IsCorrupt reports whether field failed to parse when the task was loaded.
func (t Task) IsCorrupt(field string) bool {
	for _, name := range t.CorruptFields {
		if name == field {
			return true
		}
	}
	return false
}
