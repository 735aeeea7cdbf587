package models

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus is a lifecycle state inside a status pipeline.
type TaskStatus string

const (
	StatusBacklog    TaskStatus = "backlog"
	StatusSpecced    TaskStatus = "specced"
	StatusDesigned   TaskStatus = "designed"
	StatusReady      TaskStatus = "ready"
	StatusInProgress TaskStatus = "in_progress"
	StatusInReview   TaskStatus = "in_review"
	StatusTesting    TaskStatus = "testing"
	StatusAcceptance TaskStatus = "acceptance"
	StatusDone       TaskStatus = "done"

	StatusTodo    TaskStatus = "todo"
	StatusBlocked TaskStatus = "blocked"
)

// ReviewVerdict is the outcome carried by a review comment.
type ReviewVerdict string

const (
	VerdictApprove ReviewVerdict = "approve"
	VerdictReject  ReviewVerdict = "reject"
)

// InitiativeStatus defines allowed initiative states.
type InitiativeStatus string

const (
	InitiativeActive    InitiativeStatus = "active"
	InitiativePaused    InitiativeStatus = "paused"
	InitiativeCompleted InitiativeStatus = "completed"
	InitiativeArchived  InitiativeStatus = "archived"
)

const (
	PriorityMin     = 0
	PriorityMax     = 4
	DefaultPriority = 2

	ProgressMin = 0
	ProgressMax = 100

	DueDateLayout = "2006-01-02"
)

var validVerdicts = map[ReviewVerdict]struct{}{
	VerdictApprove: {},
	VerdictReject:  {},
}

var validInitiativeStatuses = map[InitiativeStatus]struct{}{
	InitiativeActive:    {},
	InitiativePaused:    {},
	InitiativeCompleted: {},
	InitiativeArchived:  {},
}

// ParseTaskStatus normalizes a raw status string. Membership in a
// pipeline is checked separately by Pipeline.Has.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	value := TaskStatus(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("status is required")
	}
	return value, nil
}

func ParseReviewVerdict(raw string) (ReviewVerdict, error) {
	value := ReviewVerdict(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("verdict is required")
	}
	if _, ok := validVerdicts[value]; !ok {
		return "", fmt.Errorf("invalid verdict: %s (expected approve or reject)", value)
	}
	return value, nil
}

func ParseInitiativeStatus(raw string) (InitiativeStatus, error) {
	value := InitiativeStatus(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("initiative status is required")
	}
	if _, ok := validInitiativeStatuses[value]; !ok {
		return "", fmt.Errorf("invalid initiative status: %s", value)
	}
	return value, nil
}

// ParseDueDate validates a calendar date in YYYY-MM-DD form and returns
// it normalized. An empty value is returned unchanged.
func ParseDueDate(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", nil
	}
	parsed, err := time.Parse(DueDateLayout, value)
	if err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", value)
	}
	return parsed.Format(DueDateLayout), nil
}

func IsValidPriority(value int) bool {
	return value >= PriorityMin && value <= PriorityMax
}

func IsValidProgress(value int) bool {
	return value >= ProgressMin && value <= ProgressMax
}

func statusStrings(values []TaskStatus) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, string(value))
	}
	return out
}
