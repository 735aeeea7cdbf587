package models

import "time"

// Dependency is a directed edge: TaskID is blocked by DependsOnID.
type Dependency struct {
	TaskID      string    `json:"task_id"`
	DependsOnID string    `json:"depends_on_id"`
	CreatedAt   time.Time `json:"created_at"`
}
