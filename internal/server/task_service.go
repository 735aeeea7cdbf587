package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"taskboard/internal/api"
	"taskboard/internal/models"
	"taskboard/internal/store"
)

const (
	defaultListLimit   = 50
	maxListLimit       = 500
	recentHistoryLimit = 20
)

// TaskService centralizes task validation, pipeline rules and defaults.
type TaskService struct {
	store     store.Backend
	registry  models.Registry
	identity  *IdentityResolver
	logger    *slog.Logger
	listLimit int
	now       func() time.Time
}

// NewTaskService constructs a TaskService.
func NewTaskService(backend store.Backend, registry models.Registry, identity *IdentityResolver, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{
		store:     backend,
		registry:  registry,
		identity:  identity,
		logger:    logger,
		listLimit: defaultListLimit,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetDefaultListLimit changes the limit used when a list request names none.
func (s *TaskService) SetDefaultListLimit(limit int) {
	if limit > 0 && limit <= maxListLimit {
		s.listLimit = limit
	}
}

// Create validates and stores a new task together with its first history row.
func (s *TaskService) Create(ctx context.Context, req api.TaskCreateRequest) (api.TaskCreateResponse, error) {
	var resp api.TaskCreateResponse

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return resp, badRequestCode(fmt.Errorf("title is required"), ErrCodeMissingRequired)
	}

	priority := models.DefaultPriority
	if req.Priority != nil {
		if err := validatePriority(*req.Priority); err != nil {
			return resp, err
		}
		priority = *req.Priority
	}

	dueDate, err := normalizeDate(req.DueDate, "due_date")
	if err != nil {
		return resp, err
	}

	criteria, err := freshCriteria(req.AcceptanceCriteria)
	if err != nil {
		return resp, err
	}

	parentID := strings.TrimSpace(req.ParentTaskID)
	if parentID != "" {
		if parentID, err = requireTaskID(parentID, "parent_task_id"); err != nil {
			return resp, err
		}
	}

	project := strings.TrimSpace(req.Project)
	if parentID == "" || project != "" {
		if project, err = normalizeProject(project); err != nil {
			return resp, err
		}
	}

	actor := s.identity.Resolve(ctx)
	now := s.now()

	err = s.store.Update(ctx, func(tx *store.Tx) error {
		var parent *models.Task
		if parentID != "" {
			found, err := tx.GetTask(ctx, parentID)
			if errors.Is(err, store.ErrNotFound) {
				resp.Outcome = api.NotFound(fmt.Sprintf("parent task %s not found", parentID))
				return nil
			}
			if err != nil {
				return err
			}
			if found.ParentTaskID != "" {
				return badRequestCode(fmt.Errorf("parent task %s is itself a subtask; only one level of nesting is allowed", parentID), ErrCodeHierarchyDepth)
			}
			if project != "" && project != found.Project {
				return badRequestCode(fmt.Errorf("project %s does not match parent project %s", project, found.Project), ErrCodeInvalidParentID)
			}
			project = found.Project
			parent = found
		}

		pipeline := s.registry.For(project)
		status := pipeline.Initial()
		if strings.TrimSpace(req.Status) != "" {
			normalized, err := normalizeStatus(req.Status)
			if err != nil {
				return err
			}
			status = models.TaskStatus(normalized)
			if !pipeline.Has(status) {
				return badRequestCode(fmt.Errorf("status %q is not part of the %s pipeline (expected one of: %s)", status, pipeline.Name(), joinStatuses(pipeline.Statuses())), ErrCodeInvalidStatus)
			}
		}
		if parent != nil {
			if err := s.checkParentOpen(parent, status); err != nil {
				return err
			}
		}

		id, err := store.GenerateTaskID(func(candidate string) (bool, error) {
			return tx.TaskExists(ctx, candidate)
		})
		if err != nil {
			return err
		}

		task := &models.Task{
			ID:                 id,
			Project:            project,
			Title:              title,
			Description:        strings.TrimSpace(req.Description),
			Status:             string(status),
			Assignee:           strings.TrimSpace(req.Assignee),
			Priority:           priority,
			CreatedBy:          actor,
			ParentTaskID:       parentID,
			Branch:             strings.TrimSpace(req.Branch),
			PRURL:              strings.TrimSpace(req.PRURL),
			SpecFile:           strings.TrimSpace(req.SpecFile),
			DesignFile:         strings.TrimSpace(req.DesignFile),
			AcceptanceCriteria: criteria,
			DueDate:            dueDate,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := tx.InsertTask(ctx, task); err != nil {
			return err
		}
		if err := tx.InsertHistory(ctx, &models.HistoryEntry{
			TaskID:    id,
			ToStatus:  task.Status,
			ChangedBy: actor,
			ChangedAt: now,
		}); err != nil {
			return err
		}

		resp.Outcome = api.OK(fmt.Sprintf("created %s", id))
		resp.ID = id
		resp.Task = task
		return nil
	})
	if err != nil {
		return api.TaskCreateResponse{}, err
	}
	if resp.IsOK() {
		s.logger.Debug("task created", "id", resp.ID, "project", resp.Task.Project, "status", resp.Task.Status, "by", actor)
	}
	return resp, nil
}

// Get returns a task with its comments, reviews, dependency neighbors,
// hierarchy and recent history.
func (s *TaskService) Get(ctx context.Context, id string) (api.TaskDetailResponse, error) {
	var resp api.TaskDetailResponse
	id, err := requireTaskID(id, "task_id")
	if err != nil {
		return resp, err
	}

	err = s.store.View(ctx, func(tx *store.Tx) error {
		task, err := tx.GetTask(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			resp.Outcome = api.NotFound(fmt.Sprintf("task %s not found", id))
			return nil
		}
		if err != nil {
			return err
		}
		s.warnCorrupt(task)

		comments, err := tx.ListComments(ctx, id)
		if err != nil {
			return err
		}
		for _, comment := range comments {
			if comment.IsReview() {
				resp.Reviews = append(resp.Reviews, comment)
			} else {
				resp.Comments = append(resp.Comments, comment)
			}
		}

		if resp.Blockers, err = tx.ListBlockers(ctx, id); err != nil {
			return err
		}
		if resp.Blocked, err = tx.ListBlocked(ctx, id); err != nil {
			return err
		}

		if task.ParentTaskID != "" {
			parent, err := tx.GetTask(ctx, task.ParentTaskID)
			switch {
			case errors.Is(err, store.ErrNotFound):
				s.logger.Warn("task references missing parent", "id", id, "parent_task_id", task.ParentTaskID)
			case err != nil:
				return err
			default:
				summary := parent.Summary()
				resp.Parent = &summary
			}
		}

		children, err := tx.ListChildren(ctx, id)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			pipeline := s.registry.For(task.Project)
			counts := models.SubtaskCounts{Total: len(children)}
			for _, child := range children {
				resp.Children = append(resp.Children, child.Summary())
				if pipeline.IsTerminal(models.TaskStatus(child.Status)) {
					counts.Done++
				}
			}
			resp.Subtasks = &counts
		}

		if resp.History, err = tx.ListHistory(ctx, id, recentHistoryLimit); err != nil {
			return err
		}

		resp.Outcome = api.OK("")
		resp.Task = task
		return nil
	})
	if err != nil {
		return api.TaskDetailResponse{}, err
	}
	return resp, nil
}

// ListParams narrows a task listing.
type ListParams struct {
	Project  string
	Status   string
	Assignee string
	ParentID string
	Limit    int
	Offset   int
}

// List returns tasks by priority then age. Top-level rows carry subtask counts.
func (s *TaskService) List(ctx context.Context, params ListParams) (api.TaskListResponse, error) {
	filter := store.ListFilter{
		Project:  strings.TrimSpace(params.Project),
		Assignee: strings.TrimSpace(params.Assignee),
		ParentID: strings.TrimSpace(params.ParentID),
		Limit:    s.clampLimit(params.Limit),
		Offset:   params.Offset,
	}
	if filter.ParentID != "" && !validateTaskID(filter.ParentID) {
		return api.TaskListResponse{}, badRequestCode(fmt.Errorf("invalid parent_id"), ErrCodeInvalidParentID)
	}
	for _, status := range splitCSV(params.Status) {
		normalized, err := normalizeStatus(status)
		if err != nil {
			return api.TaskListResponse{}, err
		}
		filter.Statuses = append(filter.Statuses, normalized)
	}

	var items []api.TaskListItem
	err := s.store.View(ctx, func(tx *store.Tx) error {
		tasks, err := tx.ListTasks(ctx, filter)
		if err != nil {
			return err
		}
		items, err = s.withSubtaskCounts(ctx, tx, tasks)
		return err
	})
	if err != nil {
		return api.TaskListResponse{}, err
	}
	return api.TaskListResponse{Outcome: api.OK(""), Tasks: items, Count: len(items)}, nil
}

// Search runs a full-text query, falling back to substring matching when
// the index cannot serve it.
func (s *TaskService) Search(ctx context.Context, query, project string, limit int) (api.TaskListResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return api.TaskListResponse{}, badRequestCode(fmt.Errorf("query is required"), ErrCodeMissingRequired)
	}

	var result *store.SearchResult
	var items []api.TaskListItem
	err := s.store.View(ctx, func(tx *store.Tx) error {
		var err error
		result, err = tx.SearchTasks(ctx, query, strings.TrimSpace(project), s.clampLimit(limit))
		if err != nil {
			return err
		}
		items, err = s.withSubtaskCounts(ctx, tx, result.Tasks)
		return err
	})
	if err != nil {
		return api.TaskListResponse{}, err
	}
	if result.Fallback {
		s.logger.Debug("full-text search unavailable, used substring match", "query", query, "error", result.FTSFailed)
	}
	return api.TaskListResponse{Outcome: api.OK(""), Tasks: items, Count: len(items), Fallback: result.Fallback}, nil
}

// Update applies field changes and at most one status transition. A
// mismatched expected_status writes nothing and reports the stored status.
func (s *TaskService) Update(ctx context.Context, id string, req api.TaskUpdateRequest) (api.TaskUpdateResponse, error) {
	var resp api.TaskUpdateResponse
	id, err := requireTaskID(id, "task_id")
	if err != nil {
		return resp, err
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return resp, badRequestCode(fmt.Errorf("title cannot be empty"), ErrCodeMissingRequired)
	}
	if req.Priority != nil {
		if err := validatePriority(*req.Priority); err != nil {
			return resp, err
		}
	}
	var dueDate string
	if req.DueDate != nil {
		if dueDate, err = normalizeDate(*req.DueDate, "due_date"); err != nil {
			return resp, err
		}
	}
	var expected, target string
	if req.ExpectedStatus != nil {
		if expected, err = normalizeStatus(*req.ExpectedStatus); err != nil {
			return resp, err
		}
	}
	if req.Status != nil {
		if target, err = normalizeStatus(*req.Status); err != nil {
			return resp, err
		}
	}

	actor := s.identity.Resolve(ctx)
	now := s.now()

	err = s.store.Update(ctx, func(tx *store.Tx) error {
		task, err := tx.GetTask(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			resp.Outcome = api.NotFound(fmt.Sprintf("task %s not found", id))
			return nil
		}
		if err != nil {
			return err
		}

		if expected != "" && expected != task.Status {
			resp.Outcome = api.Noop(fmt.Sprintf("task %s is %s, expected %s; nothing changed", id, task.Status, expected))
			resp.ActualStatus = task.Status
			resp.Task = task
			return nil
		}

		update := store.TaskUpdate{UpdatedAt: now}
		var changed []string
		setText := func(field string, ptr *string, current string, dst **string) {
			if ptr == nil {
				return
			}
			value := strings.TrimSpace(*ptr)
			if value == current {
				return
			}
			*dst = &value
			changed = append(changed, field)
		}
		setText("title", req.Title, task.Title, &update.Title)
		setText("description", req.Description, task.Description, &update.Description)
		setText("assignee", req.Assignee, task.Assignee, &update.Assignee)
		setText("branch", req.Branch, task.Branch, &update.Branch)
		setText("pr_url", req.PRURL, task.PRURL, &update.PRURL)
		setText("spec_file", req.SpecFile, task.SpecFile, &update.SpecFile)
		setText("design_file", req.DesignFile, task.DesignFile, &update.DesignFile)
		if req.DueDate != nil {
			setText("due_date", &dueDate, task.DueDate, &update.DueDate)
		}
		if req.Priority != nil && *req.Priority != task.Priority {
			update.Priority = req.Priority
			changed = append(changed, "priority")
		}

		if req.ParentTaskID != nil {
			status := task.Status
			if target != "" {
				status = target
			}
			parentID, err := s.checkReparent(ctx, tx, task, strings.TrimSpace(*req.ParentTaskID), models.TaskStatus(status))
			if errors.Is(err, store.ErrNotFound) {
				resp.Outcome = api.NotFound(fmt.Sprintf("parent task %s not found", strings.TrimSpace(*req.ParentTaskID)))
				return nil
			}
			if err != nil {
				return err
			}
			if parentID != task.ParentTaskID {
				update.ParentTaskID = &parentID
				changed = append(changed, "parent_task_id")
			}
		}

		statusChanged := false
		if target != "" {
			pipeline := s.registry.For(task.Project)
			if err := pipeline.CheckTransition(models.TaskStatus(task.Status), models.TaskStatus(target)); err != nil {
				return err
			}
			if target != task.Status {
				if pipeline.IsTerminal(models.TaskStatus(target)) {
					if err := s.checkChildrenDone(ctx, tx, task, pipeline); err != nil {
						return err
					}
				}
				update.Status = &target
				changed = append(changed, "status")
				statusChanged = true
			}
		}

		if len(changed) == 0 {
			resp.Outcome = api.OK("no changes")
			resp.Task = task
			return nil
		}

		if err := tx.UpdateTask(ctx, id, update); err != nil {
			return err
		}

		if statusChanged {
			if err := s.recordTransition(ctx, tx, id, task.Status, target, actor, now); err != nil {
				return err
			}
		}

		updated, err := tx.GetTask(ctx, id)
		if err != nil {
			return err
		}
		resp.Outcome = api.OK(fmt.Sprintf("updated %s", strings.Join(changed, ", ")))
		resp.Task = updated
		resp.Changed = changed
		return nil
	})
	if err != nil {
		return api.TaskUpdateResponse{}, err
	}
	if len(resp.Changed) > 0 {
		s.logger.Debug("task updated", "id", id, "changed", resp.Changed, "by", actor)
	}
	return resp, nil
}

// recordTransition writes the audit comment and history row for a real status change.
func (s *TaskService) recordTransition(ctx context.Context, tx *store.Tx, id, from, to, actor string, now time.Time) error {
	commentID, err := newRecordID()
	if err != nil {
		return err
	}
	if err := tx.InsertComment(ctx, &models.Comment{
		ID:        commentID,
		TaskID:    id,
		Author:    actor,
		Body:      fmt.Sprintf("Status: %s → %s", from, to),
		CreatedAt: now,
	}); err != nil {
		return err
	}

	entry := &models.HistoryEntry{
		TaskID:     id,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  actor,
		ChangedAt:  now,
	}
	latest, err := tx.LatestHistory(ctx, id)
	if err != nil {
		return err
	}
	if latest != nil {
		seconds := int64(now.Sub(latest.ChangedAt) / time.Second)
		if seconds < 0 {
			seconds = 0
		}
		entry.DurationSeconds = &seconds
	}
	return tx.InsertHistory(ctx, entry)
}

// checkReparent validates moving task under parentID with the status it will
// have after the update. An empty parentID detaches the task.
func (s *TaskService) checkReparent(ctx context.Context, tx *store.Tx, task *models.Task, parentID string, status models.TaskStatus) (string, error) {
	if parentID == "" {
		return "", nil
	}
	if parentID == task.ID {
		return "", badRequestCode(fmt.Errorf("task cannot be its own parent"), ErrCodeInvalidParentID)
	}
	if !validateTaskID(parentID) {
		return "", badRequestCode(fmt.Errorf("invalid parent_task_id: %s", parentID), ErrCodeInvalidID)
	}
	parent, err := tx.GetTask(ctx, parentID)
	if err != nil {
		return "", err
	}
	if parent.ParentTaskID != "" {
		return "", badRequestCode(fmt.Errorf("parent task %s is itself a subtask; only one level of nesting is allowed", parentID), ErrCodeHierarchyDepth)
	}
	if parent.Project != task.Project {
		return "", badRequestCode(fmt.Errorf("parent task %s belongs to project %s, not %s", parentID, parent.Project, task.Project), ErrCodeInvalidParentID)
	}
	children, err := tx.ListChildren(ctx, task.ID)
	if err != nil {
		return "", err
	}
	if len(children) > 0 {
		return "", badRequestCode(fmt.Errorf("task %s has %d subtasks and cannot become a subtask", task.ID, len(children)), ErrCodeHierarchyDepth)
	}
	if parentID != task.ParentTaskID {
		if err := s.checkParentOpen(parent, status); err != nil {
			return "", err
		}
	}
	return parentID, nil
}

// checkParentOpen keeps a done parent from gaining an open subtask.
func (s *TaskService) checkParentOpen(parent *models.Task, status models.TaskStatus) error {
	pipeline := s.registry.For(parent.Project)
	if !pipeline.IsTerminal(models.TaskStatus(parent.Status)) || pipeline.IsTerminal(status) {
		return nil
	}
	return conflictCode(fmt.Errorf("parent task %s is %s; a %s subtask cannot be added under it",
		parent.ID, parent.Status, status), ErrCodeOpenSubtasks)
}

func (s *TaskService) checkChildrenDone(ctx context.Context, tx *store.Tx, task *models.Task, pipeline *models.Pipeline) error {
	children, err := tx.ListChildren(ctx, task.ID)
	if err != nil {
		return err
	}
	var open []string
	for _, child := range children {
		if !pipeline.IsTerminal(models.TaskStatus(child.Status)) {
			open = append(open, fmt.Sprintf("%s (%s)", child.ID, child.Status))
		}
	}
	if len(open) == 0 {
		return nil
	}
	return conflictCode(fmt.Errorf("cannot move %s to %s: %d subtasks are not %s: %s",
		task.ID, pipeline.Terminal(), len(open), pipeline.Terminal(), strings.Join(open, ", ")), ErrCodeOpenSubtasks)
}

// Delete removes a task, its direct children and everything that references
// them. Without confirm nothing is written.
func (s *TaskService) Delete(ctx context.Context, id string, confirm bool) (api.TaskDeleteResponse, error) {
	var resp api.TaskDeleteResponse
	id, err := requireTaskID(id, "task_id")
	if err != nil {
		return resp, err
	}

	run := s.store.View
	if confirm {
		run = s.store.Update
	}
	err = run(ctx, func(tx *store.Tx) error {
		task, err := tx.GetTask(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			resp.Outcome = api.NotFound(fmt.Sprintf("task %s not found", id))
			return nil
		}
		if err != nil {
			return err
		}
		children, err := tx.ListChildren(ctx, id)
		if err != nil {
			return err
		}
		ids := []string{task.ID}
		for _, child := range children {
			ids = append(ids, child.ID)
		}

		if !confirm {
			resp.Outcome = api.Noop(fmt.Sprintf("deleting %s also removes %d subtasks and all comments, dependencies and history; pass confirm to proceed", id, len(children)))
			return nil
		}
		if err := tx.DeleteTasks(ctx, ids); err != nil {
			return err
		}
		resp.Outcome = api.OK(fmt.Sprintf("deleted %d tasks", len(ids)))
		resp.Deleted = ids
		return nil
	})
	if err != nil {
		return api.TaskDeleteResponse{}, err
	}
	if len(resp.Deleted) > 0 {
		s.logger.Info("tasks deleted", "ids", resp.Deleted, "by", s.identity.Resolve(ctx))
	}
	return resp, nil
}

// Board groups a project's tasks by status in pipeline order.
func (s *TaskService) Board(ctx context.Context, project string) (api.BoardResponse, error) {
	project, err := normalizeProject(project)
	if err != nil {
		return api.BoardResponse{}, err
	}
	pipeline := s.registry.For(project)

	var tasks []models.Task
	err = s.store.View(ctx, func(tx *store.Tx) error {
		var err error
		tasks, err = tx.ListTasks(ctx, store.ListFilter{Project: project})
		return err
	})
	if err != nil {
		return api.BoardResponse{}, err
	}

	resp := buildBoard(project, pipeline, tasks)
	for _, column := range resp.Columns {
		if !pipeline.Has(models.TaskStatus(column.Status)) {
			s.logger.Warn("tasks outside project pipeline", "project", project, "status", column.Status, "count", column.Count)
		}
	}
	return resp, nil
}

// Info reports schema version and task counts.
func (s *TaskService) Info(ctx context.Context) (api.InfoResponse, error) {
	resp := api.InfoResponse{
		LightweightPrefix: s.registry.LightweightPrefix(),
		Pipelines: map[string][]string{
			models.PipelineFull:        statusNames(models.FullPipeline().Statuses()),
			models.PipelineLightweight: statusNames(models.LightweightPipeline().Statuses()),
		},
	}
	version, err := s.store.SchemaVersion(ctx)
	if err != nil {
		return resp, err
	}
	resp.SchemaVersion = version

	err = s.store.View(ctx, func(tx *store.Tx) error {
		counts, err := tx.StatusCounts(ctx, "")
		if err != nil {
			return err
		}
		resp.TaskCounts = counts
		for _, count := range counts {
			resp.TotalTasks += count
		}
		return nil
	})
	return resp, err
}

func (s *TaskService) withSubtaskCounts(ctx context.Context, tx *store.Tx, tasks []models.Task) ([]api.TaskListItem, error) {
	items := make([]api.TaskListItem, 0, len(tasks))
	var topLevel []string
	for _, task := range tasks {
		s.warnCorrupt(&task)
		items = append(items, api.TaskListItem{Task: task})
		if task.ParentTaskID == "" {
			topLevel = append(topLevel, task.ID)
		}
	}
	if len(topLevel) == 0 {
		return items, nil
	}

	counts, err := tx.ChildStatusCounts(ctx, topLevel)
	if err != nil {
		return nil, err
	}
	for i := range items {
		byStatus, ok := counts[items[i].ID]
		if !ok || items[i].ParentTaskID != "" {
			continue
		}
		pipeline := s.registry.For(items[i].Project)
		subtasks := models.SubtaskCounts{}
		for status, count := range byStatus {
			subtasks.Total += count
			if pipeline.IsTerminal(models.TaskStatus(status)) {
				subtasks.Done += count
			}
		}
		items[i].Subtasks = &subtasks
	}
	return items, nil
}

func (s *TaskService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.listLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func (s *TaskService) warnCorrupt(task *models.Task) {
	if task == nil || len(task.CorruptFields) == 0 {
		return
	}
	s.logger.Warn("task has unparseable stored fields; showing them empty", "id", task.ID, "fields", task.CorruptFields)
}

func statusNames(statuses []models.TaskStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, string(status))
	}
	return out
}

func joinStatuses(statuses []models.TaskStatus) string {
	return strings.Join(statusNames(statuses), ", ")
}
