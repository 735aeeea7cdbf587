package models

import (
	"fmt"
	"strings"
)

const (
	PipelineFull        = "full"
	PipelineLightweight = "lightweight"

	// DefaultLightweightPrefix marks projects that use the lightweight pipeline.
	DefaultLightweightPrefix = "quick-"
)

// Pipeline is a fixed status graph. Transitions are listed explicitly per
// status; nothing is derived.
type Pipeline struct {
	name        string
	statuses    []TaskStatus
	initial     TaskStatus
	terminal    TaskStatus
	transitions map[TaskStatus][]TaskStatus
}

var fullPipeline = &Pipeline{
	name: PipelineFull,
	statuses: []TaskStatus{
		StatusBacklog,
		StatusSpecced,
		StatusDesigned,
		StatusReady,
		StatusInProgress,
		StatusInReview,
		StatusTesting,
		StatusAcceptance,
		StatusDone,
	},
	initial:  StatusBacklog,
	terminal: StatusDone,
	transitions: map[TaskStatus][]TaskStatus{
		StatusBacklog:    {StatusSpecced},
		StatusSpecced:    {StatusDesigned},
		StatusDesigned:   {StatusReady},
		StatusReady:      {StatusInProgress},
		StatusInProgress: {StatusInReview},
		StatusInReview:   {StatusTesting, StatusInProgress},
		StatusTesting:    {StatusAcceptance, StatusInProgress},
		StatusAcceptance: {StatusDone, StatusInProgress},
		StatusDone:       {},
	},
}

var lightweightPipeline = &Pipeline{
	name: PipelineLightweight,
	statuses: []TaskStatus{
		StatusTodo,
		StatusInProgress,
		StatusBlocked,
		StatusDone,
	},
	initial:  StatusTodo,
	terminal: StatusDone,
	transitions: map[TaskStatus][]TaskStatus{
		StatusTodo:       {StatusInProgress},
		StatusInProgress: {StatusBlocked, StatusDone},
		StatusBlocked:    {StatusInProgress, StatusDone},
		StatusDone:       {},
	},
}

// FullPipeline returns the nine-state pipeline.
func FullPipeline() *Pipeline { return fullPipeline }

// LightweightPipeline returns the four-state pipeline.
func LightweightPipeline() *Pipeline { return lightweightPipeline }

func (p *Pipeline) Name() string { return p.name }

// Initial is the status assigned when a task is created without one.
func (p *Pipeline) Initial() TaskStatus { return p.initial }

// Terminal is the status with no outbound transitions.
func (p *Pipeline) Terminal() TaskStatus { return p.terminal }

// Statuses returns the pipeline statuses in board order.
func (p *Pipeline) Statuses() []TaskStatus {
	out := make([]TaskStatus, len(p.statuses))
	copy(out, p.statuses)
	return out
}

func (p *Pipeline) Has(status TaskStatus) bool {
	_, ok := p.transitions[status]
	return ok
}

func (p *Pipeline) IsTerminal(status TaskStatus) bool {
	return status == p.terminal
}

// Allowed returns the statuses reachable in one step from status.
func (p *Pipeline) Allowed(from TaskStatus) []TaskStatus {
	next := p.transitions[from]
	out := make([]TaskStatus, len(next))
	copy(out, next)
	return out
}

// CheckTransition reports whether from -> to is legal. A no-op (from == to)
// is always accepted.
func (p *Pipeline) CheckTransition(from, to TaskStatus) error {
	if !p.Has(to) {
		return &TransitionError{From: from, To: to, Pipeline: p.name, Allowed: p.Allowed(from), unknown: true}
	}
	if from == to {
		return nil
	}
	for _, next := range p.transitions[from] {
		if next == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to, Pipeline: p.name, Allowed: p.Allowed(from)}
}

// TransitionError describes a rejected status change.
type TransitionError struct {
	From     TaskStatus
	To       TaskStatus
	Pipeline string
	Allowed  []TaskStatus
	unknown  bool
}

func (e *TransitionError) Error() string {
	allowed := "none (terminal)"
	if len(e.Allowed) > 0 {
		allowed = strings.Join(statusStrings(e.Allowed), ", ")
	}
	if e.unknown {
		return fmt.Sprintf("status %q is not part of the %s pipeline (current %q; allowed next: %s)", e.To, e.Pipeline, e.From, allowed)
	}
	return fmt.Sprintf("cannot move from %q to %q in the %s pipeline (allowed next: %s)", e.From, e.To, e.Pipeline, allowed)
}

// UnknownStatus reports whether the attempted status is outside the pipeline.
func (e *TransitionError) UnknownStatus() bool { return e.unknown }

// Registry selects a pipeline by project naming convention.
type Registry struct {
	lightweightPrefix string
}

// NewRegistry builds a registry. An empty prefix selects the default.
func NewRegistry(lightweightPrefix string) Registry {
	prefix := strings.TrimSpace(lightweightPrefix)
	if prefix == "" {
		prefix = DefaultLightweightPrefix
	}
	return Registry{lightweightPrefix: prefix}
}

func (r Registry) LightweightPrefix() string {
	if r.lightweightPrefix == "" {
		return DefaultLightweightPrefix
	}
	return r.lightweightPrefix
}

// For returns the pipeline governing tasks of project.
func (r Registry) For(project string) *Pipeline {
	if strings.HasPrefix(project, r.LightweightPrefix()) {
		return lightweightPipeline
	}
	return fullPipeline
}
