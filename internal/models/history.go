package models

import "time"

// HistoryEntry is an immutable record of one status change.
type HistoryEntry struct {
	ID              int64     `json:"id"`
	TaskID          string    `json:"task_id"`
	FromStatus      string    `json:"from_status,omitempty"`
	ToStatus        string    `json:"to_status"`
	ChangedBy       string    `json:"changed_by"`
	ChangedAt       time.Time `json:"changed_at"`
	DurationSeconds *int64    `json:"duration_seconds,omitempty"`
}
