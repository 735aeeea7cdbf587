package models

import "time"

// Initiative groups tasks, possibly from different projects, under a shared goal.
type Initiative struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Owner           string    `json:"owner,omitempty"`
	Participants    []string  `json:"participants"`
	SuccessCriteria []string  `json:"success_criteria"`
	Progress        int       `json:"progress"`
	Status          string    `json:"status"`
	TargetDate      string    `json:"target_date,omitempty"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	CorruptFields []string `json:"corrupt_fields,omitempty"`
}

// InitiativeTask is a task linked to an initiative.
type InitiativeTask struct {
	TaskSummary
	Project  string    `json:"project"`
	Role     string    `json:"role,omitempty"`
	LinkedAt time.Time `json:"linked_at"`
}

// InitiativeUpdate is an append-only progress note.
type InitiativeUpdate struct {
	ID           string    `json:"id"`
	InitiativeID string    `json:"initiative_id"`
	Author       string    `json:"author"`
	Note         string    `json:"note"`
	Progress     *int      `json:"progress,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsCorrupt reports whether field failed to parse when the initiative was loaded.
func (i Initiative) IsCorrupt(field string) bool {
	for _, name := range i.CorruptFields {
		if name == field {
			return true
		}
	}
	return false
}
