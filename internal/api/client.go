package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	httpTimeoutEnvKey  = "TASKBOARD_HTTP_TIMEOUT"
)

// Client is a simple HTTP client for the taskboard API.
type Client struct {
	baseURL  string
	http     *http.Client
	identity string
}

// NewClient creates a new API client. identity is sent on every request;
// empty leaves the choice to the server default.
func NewClient(baseURL, identity string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: httpTimeoutFromEnv()},
		identity: strings.TrimSpace(identity),
	}
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) GetInfo(ctx context.Context) (InfoResponse, error) {
	var resp InfoResponse
	err := c.do(ctx, http.MethodGet, "/v1/info", nil, nil, &resp)
	return resp, err
}

func (c *Client) CreateTask(ctx context.Context, req TaskCreateRequest) (TaskCreateResponse, error) {
	var resp TaskCreateResponse
	err := c.do(ctx, http.MethodPost, "/v1/tasks", nil, req, &resp)
	return resp, err
}

func (c *Client) GetTask(ctx context.Context, id string) (TaskDetailResponse, error) {
	var resp TaskDetailResponse
	err := c.do(ctx, http.MethodGet, taskPath(id), nil, nil, &resp)
	return resp, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, req TaskUpdateRequest) (TaskUpdateResponse, error) {
	var resp TaskUpdateResponse
	err := c.do(ctx, http.MethodPatch, taskPath(id), nil, req, &resp)
	return resp, err
}

func (c *Client) DeleteTask(ctx context.Context, id string, confirm bool) (TaskDeleteResponse, error) {
	var resp TaskDeleteResponse
	query := url.Values{}
	if confirm {
		query.Set("confirm", "true")
	}
	err := c.do(ctx, http.MethodDelete, taskPath(id), query, nil, &resp)
	return resp, err
}

func (c *Client) ListTasks(ctx context.Context, query url.Values) (TaskListResponse, error) {
	var resp TaskListResponse
	err := c.do(ctx, http.MethodGet, "/v1/tasks", query, nil, &resp)
	return resp, err
}

func (c *Client) SearchTasks(ctx context.Context, query url.Values) (TaskListResponse, error) {
	var resp TaskListResponse
	err := c.do(ctx, http.MethodGet, "/v1/tasks/search", query, nil, &resp)
	return resp, err
}

func (c *Client) Board(ctx context.Context, project string) (BoardResponse, error) {
	var resp BoardResponse
	err := c.do(ctx, http.MethodGet, "/v1/projects/"+url.PathEscape(project)+"/board", nil, nil, &resp)
	return resp, err
}

func (c *Client) AddComment(ctx context.Context, id string, req CommentRequest) (CommentResponse, error) {
	var resp CommentResponse
	err := c.do(ctx, http.MethodPost, taskPath(id)+"/comments", nil, req, &resp)
	return resp, err
}

func (c *Client) SubmitReview(ctx context.Context, id string, req ReviewRequest) (CommentResponse, error) {
	var resp CommentResponse
	err := c.do(ctx, http.MethodPost, taskPath(id)+"/reviews", nil, req, &resp)
	return resp, err
}

func (c *Client) SetCriteria(ctx context.Context, id string, req CriteriaSetRequest) (CriteriaResponse, error) {
	var resp CriteriaResponse
	err := c.do(ctx, http.MethodPut, taskPath(id)+"/criteria", nil, req, &resp)
	return resp, err
}

func (c *Client) CheckCriterion(ctx context.Context, id, criterionID string, req CriterionCheckRequest) (CriteriaResponse, error) {
	var resp CriteriaResponse
	err := c.do(ctx, http.MethodPost, taskPath(id)+"/criteria/"+url.PathEscape(criterionID), nil, req, &resp)
	return resp, err
}

func (c *Client) AddDependency(ctx context.Context, req DepRequest) (DepResponse, error) {
	var resp DepResponse
	err := c.do(ctx, http.MethodPost, "/v1/deps", nil, req, &resp)
	return resp, err
}

func (c *Client) RemoveDependency(ctx context.Context, req DepRequest) (DepResponse, error) {
	var resp DepResponse
	err := c.do(ctx, http.MethodDelete, "/v1/deps", nil, req, &resp)
	return resp, err
}

func (c *Client) CreateInitiative(ctx context.Context, req InitiativeCreateRequest) (InitiativeResponse, error) {
	var resp InitiativeResponse
	err := c.do(ctx, http.MethodPost, "/v1/initiatives", nil, req, &resp)
	return resp, err
}

func (c *Client) ListInitiatives(ctx context.Context, status string) (InitiativeListResponse, error) {
	var resp InitiativeListResponse
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	err := c.do(ctx, http.MethodGet, "/v1/initiatives", query, nil, &resp)
	return resp, err
}

func (c *Client) GetInitiative(ctx context.Context, id string, notes int) (InitiativeResponse, error) {
	var resp InitiativeResponse
	query := url.Values{}
	if notes > 0 {
		query.Set("notes", strconv.Itoa(notes))
	}
	err := c.do(ctx, http.MethodGet, initiativePath(id), query, nil, &resp)
	return resp, err
}

func (c *Client) UpdateInitiative(ctx context.Context, id string, req InitiativeUpdateRequest) (InitiativeResponse, error) {
	var resp InitiativeResponse
	err := c.do(ctx, http.MethodPatch, initiativePath(id), nil, req, &resp)
	return resp, err
}

func (c *Client) LinkTask(ctx context.Context, id string, req LinkTaskRequest) (LinkTaskResponse, error) {
	var resp LinkTaskResponse
	err := c.do(ctx, http.MethodPost, initiativePath(id)+"/tasks", nil, req, &resp)
	return resp, err
}

func (c *Client) AddInitiativeUpdate(ctx context.Context, id string, req InitiativeNoteRequest) (InitiativeNoteResponse, error) {
	var resp InitiativeNoteResponse
	err := c.do(ctx, http.MethodPost, initiativePath(id)+"/updates", nil, req, &resp)
	return resp, err
}

func taskPath(id string) string {
	return "/v1/tasks/" + url.PathEscape(id)
}

func initiativePath(id string) string {
	return "/v1/initiatives/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.identity != "" {
		req.Header.Set(IdentityHeader, c.identity)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		return &APIError{
			Status:    resp.StatusCode,
			Code:      errResp.Code,
			ErrorCode: errResp.ErrorCode,
			Message:   errResp.Error,
		}
	}
	return &APIError{Status: resp.StatusCode, Message: "api error: " + resp.Status}
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
