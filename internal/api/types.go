package api

// IdentityHeader carries the caller identity on every request.
const IdentityHeader = "X-Taskboard-Identity"

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// OutcomeStatus classifies a completed operation.
type OutcomeStatus string

const (
	OutcomeOK       OutcomeStatus = "ok"
	OutcomeNoop     OutcomeStatus = "noop"
	OutcomeNotFound OutcomeStatus = "not_found"
)

// Outcome is carried by every successful response. noop and not_found are
// results, not failures: nothing was written.
type Outcome struct {
	Status  OutcomeStatus `json:"status"`
	Message string        `json:"message,omitempty"`
}

func OK(message string) Outcome       { return Outcome{Status: OutcomeOK, Message: message} }
func Noop(message string) Outcome     { return Outcome{Status: OutcomeNoop, Message: message} }
func NotFound(message string) Outcome { return Outcome{Status: OutcomeNotFound, Message: message} }

func (o Outcome) IsOK() bool       { return o.Status == OutcomeOK }
func (o Outcome) IsNoop() bool     { return o.Status == OutcomeNoop }
func (o Outcome) IsNotFound() bool { return o.Status == OutcomeNotFound }

// InfoResponse is the response from GET /v1/info.
type InfoResponse struct {
	SchemaVersion     int                 `json:"schema_version"`
	TaskCounts        map[string]int      `json:"task_counts"`
	TotalTasks        int                 `json:"total_tasks"`
	LightweightPrefix string              `json:"lightweight_prefix"`
	Pipelines         map[string][]string `json:"pipelines"`
}
