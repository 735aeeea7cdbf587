package api

import "taskboard/internal/models"

// InitiativeCreateRequest defines the payload for creating an initiative.
type InitiativeCreateRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	Owner           string   `json:"owner,omitempty"`
	Participants    []string `json:"participants,omitempty"`
	SuccessCriteria []string `json:"success_criteria,omitempty"`
	Progress        *int     `json:"progress,omitempty"`
	Status          string   `json:"status,omitempty"`
	TargetDate      string   `json:"target_date,omitempty"`
}

// InitiativeUpdateRequest defines optional initiative changes.
// AddParticipants merges into the stored list; Participants replaces it.
type InitiativeUpdateRequest struct {
	Title           *string   `json:"title,omitempty"`
	Description     *string   `json:"description,omitempty"`
	Owner           *string   `json:"owner,omitempty"`
	Status          *string   `json:"status,omitempty"`
	Progress        *int      `json:"progress,omitempty"`
	Participants    *[]string `json:"participants,omitempty"`
	AddParticipants []string  `json:"add_participants,omitempty"`
	SuccessCriteria *[]string `json:"success_criteria,omitempty"`
	TargetDate      *string   `json:"target_date,omitempty"`
}

// InitiativeResponse is the detail view of one initiative.
type InitiativeResponse struct {
	Outcome
	Initiative *models.Initiative        `json:"initiative,omitempty"`
	Tasks      []models.InitiativeTask   `json:"tasks,omitempty"`
	Updates    []models.InitiativeUpdate `json:"updates,omitempty"`
}

// InitiativeListResponse lists initiatives.
type InitiativeListResponse struct {
	Outcome
	Initiatives []models.Initiative `json:"initiatives"`
}

// LinkTaskRequest links a task to an initiative.
type LinkTaskRequest struct {
	TaskID string `json:"task_id"`
	Role   string `json:"role,omitempty"`
}

// LinkTaskResponse reports whether a new link was written.
type LinkTaskResponse struct {
	Outcome
	Created bool `json:"created"`
}

// InitiativeNoteRequest appends a progress note.
type InitiativeNoteRequest struct {
	Note     string `json:"note"`
	Progress *int   `json:"progress,omitempty"`
}

// InitiativeNoteResponse returns the stored note.
type InitiativeNoteResponse struct {
	Outcome
	Update *models.InitiativeUpdate `json:"update,omitempty"`
}
