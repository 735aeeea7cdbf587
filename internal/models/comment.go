package models

import "time"

// Comment is an append-only note on a task. A comment with a verdict is a review.
type Comment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	Verdict   string    `json:"verdict,omitempty"`
	Issues    []string  `json:"issues,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsReview reports whether the comment carries a verdict.
func (c Comment) IsReview() bool {
	return c.Verdict != ""
}
