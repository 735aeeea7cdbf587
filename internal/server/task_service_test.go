package server

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/api"
	"taskboard/internal/models"
	"taskboard/internal/store"
)

func newTaskServiceForTest(t *testing.T) (*TaskService, *store.Store, *testClock) {
	t.Helper()
	st := openTestStore(t)
	svc := NewTaskService(st, models.NewRegistry(""), NewIdentityResolver("tester"), discardLogger())
	clock := newTestClock()
	svc.now = clock.Now
	return svc, st, clock
}

func mustCreate(t *testing.T, svc *TaskService, req api.TaskCreateRequest) *models.Task {
	t.Helper()
	resp, err := svc.Create(asUser("alice"), req)
	require.NoError(t, err)
	require.True(t, resp.IsOK(), "create outcome: %+v", resp.Outcome)
	return resp.Task
}

func mustMove(t *testing.T, svc *TaskService, id string, statuses ...string) {
	t.Helper()
	for _, status := range statuses {
		resp, err := svc.Update(asUser("alice"), id, api.TaskUpdateRequest{Status: &status})
		require.NoError(t, err, "move %s to %s", id, status)
		require.True(t, resp.IsOK(), "move %s to %s: %+v", id, status, resp.Outcome)
	}
}

func mustGet(t *testing.T, svc *TaskService, id string) api.TaskDetailResponse {
	t.Helper()
	resp, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, resp.IsOK(), "get %s: %+v", id, resp.Outcome)
	return resp
}

// requireAPIError asserts err maps to the given HTTP status and numeric code.
func requireAPIError(t *testing.T, err error, status, code int) {
	t.Helper()
	require.Error(t, err)
	classified := classifyDomainError(err)
	assert.Equal(t, status, httpStatusFromError(classified), "error: %v", err)
	assert.Equal(t, code, errorNumericCode(status, classified), "error: %v", err)
}

func strPtr(value string) *string { return &value }
func intPtr(value int) *int       { return &value }
func boolPtr(value bool) *bool    { return &value }

var fullPath = []string{"specced", "designed", "ready", "in_progress", "in_review", "testing", "acceptance"}

func TestCreateTaskDefaults(t *testing.T) {
	svc, _, _ := newTaskServiceForTest(t)

	task := mustCreate(t, svc, api.TaskCreateRequest{
		Project:            "alpha",
		Title:              "  Write the parser  ",
		AcceptanceCriteria: []string{"parses headers", " ", "rejects garbage"},
	})
	assert.True(t, strings.HasPrefix(task.ID, store.TaskIDPrefix+"-"))
	assert.Equal(t, "Write the parser", task.Title)
	assert.Equal(t, string(models.StatusBacklog), task.Status)
	assert.Equal(t, models.DefaultPriority, task.Priority)
	assert.Equal(t, "alice", task.CreatedBy)
	require.Len(t, task.AcceptanceCriteria, 2)
	for _, criterion := range task.AcceptanceCriteria {
		assert.True(t, validateCriterionID(criterion.ID), criterion.ID)
		assert.False(t, criterion.Checked)
	}
	assert.NotEqual(t, task.AcceptanceCriteria[0].ID, task.AcceptanceCriteria[1].ID)

	detail := mustGet(t, svc, task.ID)
	require.Len(t, detail.History, 1)
	assert.Equal(t, "", detail.History[0].FromStatus)
	assert.Equal(t, string(models.StatusBacklog), detail.History[0].ToStatus)
	assert.Equal(t, "alice", detail.History[0].ChangedBy)
	assert.Nil(t, detail.History[0].DurationSeconds)

	quick := mustCreate(t, svc, api.TaskCreateRequest{Project: "quick-chores", Title: "Sweep"})
	assert.Equal(t, string(models.StatusTodo), quick.Status)

	ready := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Imported", Status: "Ready", Priority: intPtr(0)})
	assert.Equal(t, string(models.StatusReady), ready.Status)
	assert.Equal(t, 0, ready.Priority)
}

func TestCreateTaskValidation(t *testing.T) {
	svc, _, _ := newTaskServiceForTest(t)

	tests := []struct {
		name string
		req  api.TaskCreateRequest
		code int
	}{
		{name: "missing title", req: api.TaskCreateRequest{Project: "alpha", Title: "  "}, code: ErrCodeMissingRequired},
		{name: "missing project", req: api.TaskCreateRequest{Title: "No home"}, code: ErrCodeMissingRequired},
		{name: "bad project", req: api.TaskCreateRequest{Project: "has space", Title: "x"}, code: ErrCodeInvalidArgument},
		{name: "priority too high", req: api.TaskCreateRequest{Project: "alpha", Title: "x", Priority: intPtr(5)}, code: ErrCodeInvalidPriority},
		{name: "priority negative", req: api.TaskCreateRequest{Project: "alpha", Title: "x", Priority: intPtr(-1)}, code: ErrCodeInvalidPriority},
		{name: "bad due date", req: api.TaskCreateRequest{Project: "alpha", Title: "x", DueDate: "2025-13-40"}, code: ErrCodeInvalidDate},
		{name: "status outside pipeline", req: api.TaskCreateRequest{Project: "alpha", Title: "x", Status: "todo"}, code: ErrCodeInvalidStatus},
		{name: "full status in lightweight project", req: api.TaskCreateRequest{Project: "quick-a", Title: "x", Status: "specced"}, code: ErrCodeInvalidStatus},
		{name: "malformed parent id", req: api.TaskCreateRequest{ParentTaskID: "nope", Title: "x"}, code: ErrCodeInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			requireAPIError(t, err, http.StatusBadRequest, tt.code)
		})
	}

	list, err := svc.List(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.Zero(t, list.Count, "rejected creates must not write")
}

func TestCreateSubtask(t *testing.T) {
	svc, _, _ := newTaskServiceForTest(t)
	parent := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Parent"})

	child := mustCreate(t, svc, api.TaskCreateRequest{ParentTaskID: parent.ID, Title: "Child"})
	assert.Equal(t, "alpha", child.Project)
	assert.Equal(t, parent.ID, child.ParentTaskID)

	t.Run("grandchild rejected", func(t *testing.T) {
		_, err := svc.Create(context.Background(), api.TaskCreateRequest{ParentTaskID: child.ID, Title: "Grandchild"})
		requireAPIError(t, err, http.StatusBadRequest, ErrCodeHierarchyDepth)
	})

	t.Run("project mismatch rejected", func(t *testing.T) {
		_, err := svc.Create(context.Background(), api.TaskCreateRequest{ParentTaskID: parent.ID, Project: "beta", Title: "Stray"})
		requireAPIError(t, err, http.StatusBadRequest, ErrCodeInvalidParentID)
	})

	t.Run("missing parent is not found", func(t *testing.T) {
		resp, err := svc.Create(context.Background(), api.TaskCreateRequest{ParentTaskID: "tk-zzzzzz", Title: "Orphan"})
		require.NoError(t, err)
		assert.True(t, resp.IsNotFound())
		assert.Empty(t, resp.ID)
	})
}

func TestTransitionEnforcement(t *testing.T) {
	t.Run("full pipeline walks one step at a time", func(t *testing.T) {
		svc, _, _ := newTaskServiceForTest(t)
		task := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Walk"})
		mustMove(t, svc, task.ID, append(fullPath, "done")...)
		assert.Equal(t, "done", mustGet(t, svc, task.ID).Task.Status)
	})

	t.Run("kick-back edges", func(t *testing.T) {
		svc, _, _ := newTaskServiceForTest(t)
		task := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Bounce"})
		mustMove(t, svc, task.ID, "specced", "designed", "ready", "in_progress", "in_review", "in_progress",
			"in_review", "testing", "in_progress", "in_review", "testing", "acceptance", "in_progress")
	})

	t.Run("lightweight pipeline", func(t *testing.T) {
		svc, _, _ := newTaskServiceForTest(t)
		task := mustCreate(t, svc, api.TaskCreateRequest{Project: "quick-ops", Title: "Quick"})
		mustMove(t, svc, task.ID, "in_progress", "blocked", "in_progress", "done")

		unblocked := mustCreate(t, svc, api.TaskCreateRequest{Project: "quick-ops", Title: "Closed while blocked"})
		mustMove(t, svc, unblocked.ID, "in_progress", "blocked", "done")
	})

	rejections := []struct {
		name    string
		project string
		path    []string
		target  string
		status  int
		code    int
	}{
		{name: "skip ahead", project: "alpha", target: "ready", status: http.StatusConflict, code: ErrCodeInvalidTransition},
		{name: "backwards", project: "alpha", path: []string{"specced"}, target: "backlog", status: http.StatusConflict, code: ErrCodeInvalidTransition},
		{name: "out of terminal", project: "quick-x", path: []string{"in_progress", "done"}, target: "in_progress", status: http.StatusConflict, code: ErrCodeInvalidTransition},
		{name: "blocked back to todo", project: "quick-x", path: []string{"in_progress", "blocked"}, target: "todo", status: http.StatusConflict, code: ErrCodeInvalidTransition},
		{name: "unknown status", project: "alpha", target: "archived", status: http.StatusBadRequest, code: ErrCodeInvalidStatus},
		{name: "other pipeline status", project: "alpha", target: "todo", status: http.StatusBadRequest, code: ErrCodeInvalidStatus},
	}
	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTaskServiceForTest(t)
			task := mustCreate(t, svc, api.TaskCreateRequest{Project: tt.project, Title: "Reject"})
			mustMove(t, svc, task.ID, tt.path...)
			before := mustGet(t, svc, task.ID)

			_, err := svc.Update(asUser("alice"), task.ID, api.TaskUpdateRequest{Status: strPtr(tt.target), Title: strPtr("Renamed")})
			requireAPIError(t, err, tt.status, tt.code)

			after := mustGet(t, svc, task.ID)
			assert.Equal(t, before.Task.Status, after.Task.Status)
			assert.Equal(t, "Reject", after.Task.Title, "rejected update must not apply other fields")
			assert.Len(t, after.History, len(before.History))
		})
	}
}

func TestNoopTransitionIsNotRecorded(t *testing.T) {
	svc, _, _ := newTaskServiceForTest(t)
	task := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Still"})

	resp, err := svc.Update(asUser("alice"), task.ID, api.TaskUpdateRequest{Status: strPtr("backlog")})
	require.NoError(t, err)
	assert.True(t, resp.IsOK())
	assert.Empty(t, resp.Changed)

	detail := mustGet(t, svc, task.ID)
	assert.Len(t, detail.History, 1)
	assert.Empty(t, detail.Comments)
}

func TestStatusChangeWritesAuditTrail(t *testing.T) {
	svc, _, clock := newTaskServiceForTest(t)
	task := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Audit"})

	clock.Advance(time.Hour)
	resp, err := svc.Update(asUser("bob"), task.ID, api.TaskUpdateRequest{Status: strPtr("specced"), Assignee: strPtr("bob")})
	require.NoError(t, err)
	require.True(t, resp.IsOK())
	assert.ElementsMatch(t, []string{"assignee", "status"}, resp.Changed)
	assert.Equal(t, "bob", resp.Task.Assignee)

	detail := mustGet(t, svc, task.ID)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "Status: backlog → specced", detail.Comments[0].Body)
	assert.Equal(t, "bob", detail.Comments[0].Author)

	require.Len(t, detail.History, 2)
	latest := detail.History[0]
	assert.Equal(t, "backlog", latest.FromStatus)
	assert.Equal(t, "specced", latest.ToStatus)
	assert.Equal(t, "bob", latest.ChangedBy)
	require.NotNil(t, latest.DurationSeconds)
	assert.Equal(t, int64(3601), *latest.DurationSeconds)
}

func TestOptimisticLock(t *testing.T) {
	svc, _, _ := newTaskServiceForTest(t)
	task := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Contended"})
	mustMove(t, svc, task.ID, "specced")

	resp, err := svc.Update(asUser("alice"), task.ID, api.TaskUpdateRequest{
		ExpectedStatus: strPtr("backlog"),
		Status:         strPtr("specced"),
		Title:          strPtr("Lost update"),
	})
	require.NoError(t, err)
	assert.True(t, resp.IsNoop())
	assert.Equal(t, "specced", resp.ActualStatus)

	detail := mustGet(t, svc, task.ID)
	assert.Equal(t, "Contended", detail.Task.Title)
	assert.Len(t, detail.History, 2)

	resp, err = svc.Update(asUser("alice"), task.ID, api.TaskUpdateRequest{
		ExpectedStatus: strPtr("specced"),
		Status:         strPtr("designed"),
	})
	require.NoError(t, err)
	assert.True(t, resp.IsOK())
	assert.Equal(t, "designed", resp.Task.Status)
}

func TestDoneGuard(t *testing.T) {
	svc, _, _ := newTaskServiceForTest(t)
	parent := mustCreate(t, svc, api.TaskCreateRequest{Project: "quick-ops", Title: "Parent"})
	child := mustCreate(t, svc, api.TaskCreateRequest{ParentTaskID: parent.ID, Title: "Child"})
	mustMove(t, svc, parent.ID, "in_progress")

	_, err := svc.Update(asUser("alice"), parent.ID, api.TaskUpdateRequest{Status: strPtr("done")})
	requireAPIError(t, err, http.StatusConflict, ErrCodeOpenSubtasks)
	assert.Contains(t, err.Error(), child.ID)
	assert.Equal(t, "in_progress", mustGet(t, svc, parent.ID).Task.Status)

	mustMove(t, svc, child.ID, "in_progress", "done")
	mustMove(t, svc, parent.ID, "done")

	detail := mustGet(t, svc, parent.ID)
	require.NotNil(t, detail.Subtasks)
	assert.Equal(t, models.SubtaskCounts{Done: 1, Total: 1}, *detail.Subtasks)

	t.Run("open subtask cannot be created under a done parent", func(t *testing.T) {
		_, err := svc.Create(asUser("alice"), api.TaskCreateRequest{ParentTaskID: parent.ID, Title: "Late"})
		requireAPIError(t, err, http.StatusConflict, ErrCodeOpenSubtasks)

		resp, err := svc.Create(asUser("alice"), api.TaskCreateRequest{ParentTaskID: parent.ID, Title: "Already finished", Status: "done"})
		require.NoError(t, err)
		require.True(t, resp.IsOK())
	})

	t.Run("open task cannot be moved under a done parent", func(t *testing.T) {
		loose := mustCreate(t, svc, api.TaskCreateRequest{Project: "quick-ops", Title: "Loose"})
		_, err := svc.Update(asUser("alice"), loose.ID, api.TaskUpdateRequest{ParentTaskID: strPtr(parent.ID)})
		requireAPIError(t, err, http.StatusConflict, ErrCodeOpenSubtasks)
		assert.Empty(t, mustGet(t, svc, loose.ID).Task.ParentTaskID)

		mustMove(t, svc, loose.ID, "in_progress")
		resp, err := svc.Update(asUser("alice"), loose.ID, api.TaskUpdateRequest{ParentTaskID: strPtr(parent.ID), Status: strPtr("done")})
		require.NoError(t, err)
		require.True(t, resp.IsOK())
		assert.Equal(t, parent.ID, resp.Task.ParentTaskID)
	})

	after := mustGet(t, svc, parent.ID)
	require.NotNil(t, after.Subtasks)
	assert.Equal(t, models.SubtaskCounts{Done: 3, Total: 3}, *after.Subtasks)
}

func TestReparentRules(t *testing.T) {
	svc, _, _ := newTaskServiceForTest(t)
	top := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Top"})
	other := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Other"})
	child := mustCreate(t, svc, api.TaskCreateRequest{ParentTaskID: top.ID, Title: "Child"})
	foreign := mustCreate(t, svc, api.TaskCreateRequest{Project: "beta", Title: "Foreign"})

	t.Run("self parent", func(t *testing.T) {
		_, err := svc.Update(context.Background(), other.ID, api.TaskUpdateRequest{ParentTaskID: strPtr(other.ID)})
		requireAPIError(t, err, http.StatusBadRequest, ErrCodeInvalidParentID)
	})
	t.Run("parent is a subtask", func(t *testing.T) {
		_, err := svc.Update(context.Background(), other.ID, api.TaskUpdateRequest{ParentTaskID: strPtr(child.ID)})
		requireAPIError(t, err, http.StatusBadRequest, ErrCodeHierarchyDepth)
	})
	t.Run("task with children", func(t *testing.T) {
		_, err := svc.Update(context.Background(), top.ID, api.TaskUpdateRequest{ParentTaskID: strPtr(other.ID)})
		requireAPIError(t, err, http.StatusBadRequest, ErrCodeHierarchyDepth)
	})
	t.Run("cross project", func(t *testing.T) {
		_, err := svc.Update(context.Background(), foreign.ID, api.TaskUpdateRequest{ParentTaskID: strPtr(other.ID)})
		requireAPIError(t, err, http.StatusBadRequest, ErrCodeInvalidParentID)
	})
	t.Run("missing parent", func(t *testing.T) {
		resp, err := svc.Update(context.Background(), other.ID, api.TaskUpdateRequest{ParentTaskID: strPtr("tk-zzzzzz")})
		require.NoError(t, err)
		assert.True(t, resp.IsNotFound())
	})
	t.Run("move and detach", func(t *testing.T) {
		resp, err := svc.Update(context.Background(), child.ID, api.TaskUpdateRequest{ParentTaskID: strPtr(other.ID)})
		require.NoError(t, err)
		assert.Equal(t, other.ID, resp.Task.ParentTaskID)

		resp, err = svc.Update(context.Background(), child.ID, api.TaskUpdateRequest{ParentTaskID: strPtr("")})
		require.NoError(t, err)
		assert.Equal(t, "", resp.Task.ParentTaskID)
		assert.Equal(t, []string{"parent_task_id"}, resp.Changed)
	})
}

func TestUpdateMissingTaskIsNotFound(t *testing.T) {
	svc, _, _ := newTaskServiceForTest(t)

	resp, err := svc.Update(context.Background(), "tk-zzzzzz", api.TaskUpdateRequest{Title: strPtr("x")})
	require.NoError(t, err)
	assert.True(t, resp.IsNotFound())

	detail, err := svc.Get(context.Background(), "tk-zzzzzz")
	require.NoError(t, err)
	assert.True(t, detail.IsNotFound())
	assert.Nil(t, detail.Task)

	_, err = svc.Get(context.Background(), "bad id")
	requireAPIError(t, err, http.StatusBadRequest, ErrCodeInvalidID)
}

func TestDeleteCascade(t *testing.T) {
	st := openTestStore(t)
	identity := NewIdentityResolver("tester")
	tasks := NewTaskService(st, models.NewRegistry(""), identity, discardLogger())
	deps := NewDependencyService(st, discardLogger())
	initiatives := NewInitiativeService(st, identity, discardLogger())
	ctx := asUser("alice")

	parent := mustCreate(t, tasks, api.TaskCreateRequest{Project: "alpha", Title: "Parent"})
	child := mustCreate(t, tasks, api.TaskCreateRequest{ParentTaskID: parent.ID, Title: "Child"})
	sibling := mustCreate(t, tasks, api.TaskCreateRequest{ParentTaskID: parent.ID, Title: "Sibling"})
	keeper := mustCreate(t, tasks, api.TaskCreateRequest{Project: "alpha", Title: "Keeper"})

	_, err := deps.Add(ctx, api.DepRequest{TaskID: keeper.ID, DependsOnID: parent.ID})
	require.NoError(t, err)
	_, err = deps.Add(ctx, api.DepRequest{TaskID: child.ID, DependsOnID: keeper.ID})
	require.NoError(t, err)
	_, err = deps.Add(ctx, api.DepRequest{TaskID: sibling.ID, DependsOnID: child.ID})
	require.NoError(t, err)
	_, err = tasks.AddComment(ctx, parent.ID, api.CommentRequest{Body: "note"})
	require.NoError(t, err)
	_, err = tasks.AddComment(ctx, child.ID, api.CommentRequest{Body: "child note"})
	require.NoError(t, err)
	_, err = tasks.AddComment(ctx, sibling.ID, api.CommentRequest{Body: "sibling note"})
	require.NoError(t, err)
	_, err = tasks.SubmitReview(ctx, sibling.ID, api.ReviewRequest{Verdict: "reject", Issues: []string{"tests"}})
	require.NoError(t, err)
	mustMove(t, tasks, child.ID, "specced")
	mustMove(t, tasks, sibling.ID, "specced", "designed")

	initiative, err := initiatives.Create(ctx, api.InitiativeCreateRequest{Title: "Launch"})
	require.NoError(t, err)
	_, err = initiatives.LinkTask(ctx, initiative.Initiative.ID, api.LinkTaskRequest{TaskID: child.ID})
	require.NoError(t, err)

	t.Run("unconfirmed delete writes nothing", func(t *testing.T) {
		resp, err := tasks.Delete(ctx, parent.ID, false)
		require.NoError(t, err)
		assert.True(t, resp.IsNoop())
		assert.Contains(t, resp.Message, "2 subtasks")
		for _, id := range []string{parent.ID, child.ID, sibling.ID} {
			mustGet(t, tasks, id)
		}
	})

	t.Run("confirmed delete removes task, children and references", func(t *testing.T) {
		resp, err := tasks.Delete(ctx, parent.ID, true)
		require.NoError(t, err)
		require.True(t, resp.IsOK())
		assert.ElementsMatch(t, []string{parent.ID, child.ID, sibling.ID}, resp.Deleted)

		for _, id := range []string{parent.ID, child.ID, sibling.ID} {
			detail, err := tasks.Get(ctx, id)
			require.NoError(t, err)
			assert.True(t, detail.IsNotFound(), id)
		}

		kept := mustGet(t, tasks, keeper.ID)
		assert.Empty(t, kept.Blockers)
		assert.Empty(t, kept.Blocked)

		linked, err := initiatives.Get(ctx, initiative.Initiative.ID, 0)
		require.NoError(t, err)
		assert.Empty(t, linked.Tasks)

		for _, id := range []string{parent.ID, child.ID, sibling.ID} {
			counts := map[string]int{}
			for table, where := range map[string]string{
				"task_comments":    "task_id = ?",
				"task_history":     "task_id = ?",
				"initiative_tasks": "task_id = ?",
				"task_deps":        "task_id = ? OR depends_on_id = ?",
			} {
				args := []any{id}
				if table == "task_deps" {
					args = append(args, id)
				}
				var n int
				require.NoError(t, st.DB().QueryRow("SELECT COUNT(*) FROM "+table+" WHERE "+where, args...).Scan(&n))
				counts[table] = n
			}
			assert.Equal(t, map[string]int{"task_comments": 0, "task_history": 0, "task_deps": 0, "initiative_tasks": 0}, counts, id)
		}

		var keeperHistory int
		require.NoError(t, st.DB().QueryRow("SELECT COUNT(*) FROM task_history WHERE task_id = ?", keeper.ID).Scan(&keeperHistory))
		assert.Equal(t, 1, keeperHistory, "unrelated task history must survive")
	})

	t.Run("deleting again is not found", func(t *testing.T) {
		resp, err := tasks.Delete(ctx, parent.ID, true)
		require.NoError(t, err)
		assert.True(t, resp.IsNotFound())
	})
}

func TestListOrderingAndSubtaskCounts(t *testing.T) {
	svc, _, _ := newTaskServiceForTest(t)
	low := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Low", Priority: intPtr(3)})
	urgentOld := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Urgent old", Priority: intPtr(0)})
	urgentNew := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Urgent new", Priority: intPtr(0)})
	child := mustCreate(t, svc, api.TaskCreateRequest{ParentTaskID: low.ID, Title: "Child", Priority: intPtr(4)})
	mustCreate(t, svc, api.TaskCreateRequest{ParentTaskID: low.ID, Title: "Child two", Priority: intPtr(4)})
	mustCreate(t, svc, api.TaskCreateRequest{Project: "beta", Title: "Elsewhere"})
	mustMove(t, svc, child.ID, append(fullPath, "done")...)

	resp, err := svc.List(context.Background(), ListParams{Project: "alpha"})
	require.NoError(t, err)
	require.Equal(t, 5, resp.Count)
	ids := make([]string, 0, resp.Count)
	for _, item := range resp.Tasks {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{urgentOld.ID, urgentNew.ID, low.ID}, ids[:3])

	require.NotNil(t, resp.Tasks[2].Subtasks)
	assert.Equal(t, models.SubtaskCounts{Done: 1, Total: 2}, *resp.Tasks[2].Subtasks)
	assert.Nil(t, resp.Tasks[0].Subtasks, "tasks without children carry no counts")
	assert.Nil(t, resp.Tasks[3].Subtasks, "subtasks carry no counts")

	filtered, err := svc.List(context.Background(), ListParams{Project: "alpha", Status: "done, backlog", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, filtered.Count)

	children, err := svc.List(context.Background(), ListParams{ParentID: low.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, children.Count)

	_, err = svc.List(context.Background(), ListParams{ParentID: "nope"})
	requireAPIError(t, err, http.StatusBadRequest, ErrCodeInvalidParentID)
}

func TestListLimitClamp(t *testing.T) {
	svc, _, _ := newTaskServiceForTest(t)
	assert.Equal(t, defaultListLimit, svc.clampLimit(0))
	assert.Equal(t, 10, svc.clampLimit(10))
	assert.Equal(t, maxListLimit, svc.clampLimit(maxListLimit+1))

	svc.SetDefaultListLimit(20)
	assert.Equal(t, 20, svc.clampLimit(0))
	svc.SetDefaultListLimit(maxListLimit + 1)
	assert.Equal(t, 20, svc.clampLimit(0), "out of range defaults are ignored")
}

func TestSearchFallsBackWhenIndexUnavailable(t *testing.T) {
	svc, st, _ := newTaskServiceForTest(t)
	first := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Rotate signing keys", Priority: intPtr(3)})
	second := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Audit", Description: "check signing flow", Priority: intPtr(1)})
	mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Unrelated"})

	resp, err := svc.Search(context.Background(), "signing", "", 0)
	require.NoError(t, err)
	assert.False(t, resp.Fallback)
	assert.Equal(t, 2, resp.Count)

	resp, err = svc.Search(context.Background(), `"signing`, "", 0)
	require.NoError(t, err)
	assert.True(t, resp.Fallback, "unbalanced quote should fail in FTS and fall back")

	for _, stmt := range []string{
		"DROP TRIGGER tasks_fts_insert",
		"DROP TRIGGER tasks_fts_update",
		"DROP TRIGGER tasks_fts_delete",
		"DROP TABLE tasks_fts",
	} {
		_, err := st.DB().Exec(stmt)
		require.NoError(t, err, stmt)
	}

	resp, err = svc.Search(context.Background(), "SIGNING", "alpha", 0)
	require.NoError(t, err)
	assert.True(t, resp.Fallback)
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, second.ID, resp.Tasks[0].ID, "fallback orders by priority")
	assert.Equal(t, first.ID, resp.Tasks[1].ID)

	_, err = svc.Search(context.Background(), "  ", "", 0)
	requireAPIError(t, err, http.StatusBadRequest, ErrCodeMissingRequired)
}

func TestGetTaskDetail(t *testing.T) {
	st := openTestStore(t)
	svc := NewTaskService(st, models.NewRegistry(""), NewIdentityResolver("tester"), discardLogger())
	deps := NewDependencyService(st, discardLogger())
	ctx := asUser("reviewer")

	task := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Center"})
	blocker := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Blocker"})
	blocked := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Blocked"})
	child := mustCreate(t, svc, api.TaskCreateRequest{ParentTaskID: task.ID, Title: "Child"})

	_, err := deps.Add(ctx, api.DepRequest{TaskID: task.ID, DependsOnID: blocker.ID})
	require.NoError(t, err)
	_, err = deps.Add(ctx, api.DepRequest{TaskID: blocked.ID, DependsOnID: task.ID})
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, task.ID, api.CommentRequest{Body: "looks fine"})
	require.NoError(t, err)
	review, err := svc.SubmitReview(ctx, task.ID, api.ReviewRequest{Verdict: "Reject", Issues: []string{"Tests", "naming", "tests"}, Body: "needs work"})
	require.NoError(t, err)
	require.True(t, review.IsOK())
	assert.Equal(t, []string{"naming", "tests"}, review.Comment.Issues)
	assert.Equal(t, "reviewer", review.Comment.Author)

	detail := mustGet(t, svc, task.ID)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "looks fine", detail.Comments[0].Body)
	require.Len(t, detail.Reviews, 1)
	assert.Equal(t, "reject", detail.Reviews[0].Verdict)

	require.Len(t, detail.Blockers, 1)
	assert.Equal(t, blocker.ID, detail.Blockers[0].ID)
	require.Len(t, detail.Blocked, 1)
	assert.Equal(t, blocked.ID, detail.Blocked[0].ID)

	require.Len(t, detail.Children, 1)
	assert.Equal(t, child.ID, detail.Children[0].ID)
	assert.Equal(t, models.SubtaskCounts{Done: 0, Total: 1}, *detail.Subtasks)

	childDetail := mustGet(t, svc, child.ID)
	require.NotNil(t, childDetail.Parent)
	assert.Equal(t, task.ID, childDetail.Parent.ID)
}

func TestReviewValidation(t *testing.T) {
	svc, _, _ := newTaskServiceForTest(t)
	task := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Reviewed"})

	_, err := svc.SubmitReview(context.Background(), task.ID, api.ReviewRequest{Verdict: "maybe"})
	requireAPIError(t, err, http.StatusBadRequest, ErrCodeInvalidVerdict)

	_, err = svc.SubmitReview(context.Background(), task.ID, api.ReviewRequest{Verdict: "approve", Issues: []string{"two words"}})
	requireAPIError(t, err, http.StatusBadRequest, ErrCodeInvalidArgument)

	_, err = svc.AddComment(context.Background(), task.ID, api.CommentRequest{Body: " "})
	requireAPIError(t, err, http.StatusBadRequest, ErrCodeMissingRequired)

	resp, err := svc.AddComment(context.Background(), "tk-zzzzzz", api.CommentRequest{Body: "hello"})
	require.NoError(t, err)
	assert.True(t, resp.IsNotFound())
}

func TestAcceptanceCriteria(t *testing.T) {
	svc, _, _ := newTaskServiceForTest(t)
	task := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Checklist"})

	set, err := svc.SetCriteria(context.Background(), task.ID, api.CriteriaSetRequest{Items: []string{"one", "two"}})
	require.NoError(t, err)
	require.Len(t, set.Criteria, 2)

	checked, err := svc.CheckCriterion(asUser("qa"), task.ID, set.Criteria[1].ID, true)
	require.NoError(t, err)
	require.True(t, checked.IsOK())
	assert.True(t, checked.Criteria[1].Checked)
	assert.Equal(t, "qa", checked.Criteria[1].CheckedBy)
	assert.False(t, checked.Criteria[0].Checked)

	unchecked, err := svc.CheckCriterion(asUser("qa"), task.ID, set.Criteria[1].ID, false)
	require.NoError(t, err)
	assert.False(t, unchecked.Criteria[1].Checked)
	assert.Empty(t, unchecked.Criteria[1].CheckedBy)

	missing, err := svc.CheckCriterion(context.Background(), task.ID, "ac-zzzz", true)
	require.NoError(t, err)
	assert.True(t, missing.IsNotFound())

	_, err = svc.CheckCriterion(context.Background(), task.ID, "criterion-1", true)
	requireAPIError(t, err, http.StatusBadRequest, ErrCodeInvalidID)

	replaced, err := svc.SetCriteria(context.Background(), task.ID, api.CriteriaSetRequest{Items: []string{"fresh"}})
	require.NoError(t, err)
	require.Len(t, replaced.Criteria, 1)
	assert.False(t, replaced.Criteria[0].Checked)
	assert.Equal(t, replaced.Criteria, mustGet(t, svc, task.ID).Task.AcceptanceCriteria)
}

func TestCorruptCriteria(t *testing.T) {
	svc, st, _ := newTaskServiceForTest(t)
	task := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Damaged", AcceptanceCriteria: []string{"one"}})
	_, err := st.DB().Exec("UPDATE tasks SET acceptance_criteria = ? WHERE id = ?", `{"version":1,"items":[{`, task.ID)
	require.NoError(t, err)

	detail := mustGet(t, svc, task.ID)
	assert.Empty(t, detail.Task.AcceptanceCriteria)
	assert.Equal(t, []string{store.FieldAcceptanceCriteria}, detail.Task.CorruptFields)

	_, err = svc.CheckCriterion(context.Background(), task.ID, "ac-0000", true)
	requireAPIError(t, err, http.StatusUnprocessableEntity, ErrCodeCorruptData)

	set, err := svc.SetCriteria(context.Background(), task.ID, api.CriteriaSetRequest{Items: []string{"rebuilt"}})
	require.NoError(t, err)
	require.True(t, set.IsOK(), "replacing a corrupt list repairs it")
	assert.Empty(t, mustGet(t, svc, task.ID).Task.CorruptFields)
}

func TestBoard(t *testing.T) {
	svc, st, _ := newTaskServiceForTest(t)
	a := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "A", Priority: intPtr(2)})
	b := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "B", Priority: intPtr(1), Assignee: "dana"})
	c := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "C"})
	mustMove(t, svc, c.ID, "specced")
	stray := mustCreate(t, svc, api.TaskCreateRequest{Project: "alpha", Title: "Stray"})
	_, err := st.DB().Exec("UPDATE tasks SET status = 'archived' WHERE id = ?", stray.ID)
	require.NoError(t, err)

	board, err := svc.Board(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, models.PipelineFull, board.Pipeline)
	assert.Equal(t, 4, board.Total)
	require.Len(t, board.Columns, 10)
	assert.Equal(t, "backlog", board.Columns[0].Status)
	assert.Equal(t, 2, board.Columns[0].Count)
	assert.Equal(t, []string{b.ID, a.ID}, []string{board.Columns[0].Tasks[0].ID, board.Columns[0].Tasks[1].ID})
	assert.Equal(t, "specced", board.Columns[1].Status)
	assert.Equal(t, 1, board.Columns[1].Count)
	assert.Equal(t, "archived", board.Columns[9].Status)
	assert.Contains(t, board.Text, "BACKLOG (2)")
	assert.Contains(t, board.Text, b.ID+" [P1] B @dana")

	quick, err := svc.Board(context.Background(), "quick-empty")
	require.NoError(t, err)
	assert.Equal(t, models.PipelineLightweight, quick.Pipeline)
	require.Len(t, quick.Columns, 4)
	assert.Zero(t, quick.Total)
}
