package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/api"
	"taskboard/internal/models"
	"taskboard/internal/store"
)

func newInitiativeFixture(t *testing.T) (*InitiativeService, *TaskService, *store.Store) {
	t.Helper()
	st := openTestStore(t)
	identity := NewIdentityResolver("tester")
	clock := newTestClock()
	tasks := NewTaskService(st, models.NewRegistry(""), identity, discardLogger())
	tasks.now = clock.Now
	initiatives := NewInitiativeService(st, identity, discardLogger())
	initiatives.now = clock.Now
	return initiatives, tasks, st
}

func mustCreateInitiative(t *testing.T, svc *InitiativeService, req api.InitiativeCreateRequest) *models.Initiative {
	t.Helper()
	resp, err := svc.Create(asUser("owner"), req)
	require.NoError(t, err)
	require.True(t, resp.IsOK())
	return resp.Initiative
}

func TestCreateInitiative(t *testing.T) {
	svc, _, _ := newInitiativeFixture(t)

	initiative := mustCreateInitiative(t, svc, api.InitiativeCreateRequest{
		Title:           "Q3 launch",
		Participants:    []string{"ann", " bo ", "ann", ""},
		SuccessCriteria: []string{"ship", " "},
		TargetDate:      "2025-09-30",
	})
	assert.True(t, validateInitiativeID(initiative.ID), initiative.ID)
	assert.Equal(t, string(models.InitiativeActive), initiative.Status)
	assert.Equal(t, 0, initiative.Progress)
	assert.Equal(t, []string{"ann", "bo"}, initiative.Participants)
	assert.Equal(t, []string{"ship"}, initiative.SuccessCriteria)
	assert.Equal(t, "owner", initiative.CreatedBy)

	tests := []struct {
		name string
		req  api.InitiativeCreateRequest
		code int
	}{
		{name: "missing title", req: api.InitiativeCreateRequest{}, code: ErrCodeMissingRequired},
		{name: "bad status", req: api.InitiativeCreateRequest{Title: "x", Status: "stalled"}, code: ErrCodeInvalidStatus},
		{name: "bad progress", req: api.InitiativeCreateRequest{Title: "x", Progress: intPtr(101)}, code: ErrCodeInvalidProgress},
		{name: "bad date", req: api.InitiativeCreateRequest{Title: "x", TargetDate: "soon"}, code: ErrCodeInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			requireAPIError(t, err, http.StatusBadRequest, tt.code)
		})
	}
}

func TestListInitiatives(t *testing.T) {
	svc, _, _ := newInitiativeFixture(t)
	first := mustCreateInitiative(t, svc, api.InitiativeCreateRequest{Title: "First"})
	second := mustCreateInitiative(t, svc, api.InitiativeCreateRequest{Title: "Second", Status: "paused"})

	all, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all.Initiatives, 2)
	assert.Equal(t, second.ID, all.Initiatives[0].ID, "most recently updated first")

	paused, err := svc.List(context.Background(), "PAUSED")
	require.NoError(t, err)
	require.Len(t, paused.Initiatives, 1)
	assert.Equal(t, second.ID, paused.Initiatives[0].ID)

	_, err = svc.Update(context.Background(), first.ID, api.InitiativeUpdateRequest{Owner: strPtr("zoe")})
	require.NoError(t, err)
	all, err = svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, all.Initiatives[0].ID)

	_, err = svc.List(context.Background(), "stalled")
	requireAPIError(t, err, http.StatusBadRequest, ErrCodeInvalidStatus)
}

func TestUpdateInitiative(t *testing.T) {
	svc, _, _ := newInitiativeFixture(t)
	initiative := mustCreateInitiative(t, svc, api.InitiativeCreateRequest{Title: "Roadmap", Participants: []string{"ann"}})

	resp, err := svc.Update(context.Background(), initiative.ID, api.InitiativeUpdateRequest{
		Status:          strPtr("completed"),
		Progress:        intPtr(100),
		AddParticipants: []string{"bo", "ann"},
		SuccessCriteria: &[]string{"all green"},
	})
	require.NoError(t, err)
	require.True(t, resp.IsOK())
	assert.Equal(t, "completed", resp.Initiative.Status)
	assert.Equal(t, 100, resp.Initiative.Progress)
	assert.Equal(t, []string{"ann", "bo"}, resp.Initiative.Participants)
	assert.Equal(t, []string{"all green"}, resp.Initiative.SuccessCriteria)

	resp, err = svc.Update(context.Background(), initiative.ID, api.InitiativeUpdateRequest{
		Participants:    &[]string{"cy"},
		AddParticipants: []string{"di"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"cy", "di"}, resp.Initiative.Participants, "replacement applies before merge")

	missing, err := svc.Update(context.Background(), "in-zzzzzz", api.InitiativeUpdateRequest{Title: strPtr("x")})
	require.NoError(t, err)
	assert.True(t, missing.IsNotFound())

	_, err = svc.Update(context.Background(), initiative.ID, api.InitiativeUpdateRequest{Progress: intPtr(-1)})
	requireAPIError(t, err, http.StatusBadRequest, ErrCodeInvalidProgress)
}

func TestCorruptParticipants(t *testing.T) {
	svc, _, st := newInitiativeFixture(t)
	initiative := mustCreateInitiative(t, svc, api.InitiativeCreateRequest{Title: "Fragile", Participants: []string{"ann"}})
	_, err := st.DB().Exec("UPDATE initiatives SET participants = ? WHERE id = ?", "ann,bo", initiative.ID)
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), initiative.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, got.Initiative.Participants)
	assert.Equal(t, []string{store.FieldParticipants}, got.Initiative.CorruptFields)

	_, err = svc.Update(context.Background(), initiative.ID, api.InitiativeUpdateRequest{AddParticipants: []string{"cy"}})
	requireAPIError(t, err, http.StatusUnprocessableEntity, ErrCodeCorruptData)

	resp, err := svc.Update(context.Background(), initiative.ID, api.InitiativeUpdateRequest{Participants: &[]string{"cy"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"cy"}, resp.Initiative.Participants)
	assert.Empty(t, resp.Initiative.CorruptFields)
}

func TestLinkTaskIsIdempotent(t *testing.T) {
	svc, tasks, _ := newInitiativeFixture(t)
	initiative := mustCreateInitiative(t, svc, api.InitiativeCreateRequest{Title: "Cross project"})
	alpha := mustCreate(t, tasks, api.TaskCreateRequest{Project: "alpha", Title: "Alpha work"})
	quick := mustCreate(t, tasks, api.TaskCreateRequest{Project: "quick-beta", Title: "Beta work"})

	resp, err := svc.LinkTask(context.Background(), initiative.ID, api.LinkTaskRequest{TaskID: alpha.ID, Role: "lead"})
	require.NoError(t, err)
	assert.True(t, resp.IsOK())
	assert.True(t, resp.Created)

	again, err := svc.LinkTask(context.Background(), initiative.ID, api.LinkTaskRequest{TaskID: alpha.ID, Role: "support"})
	require.NoError(t, err)
	assert.True(t, again.IsOK())
	assert.False(t, again.Created)

	_, err = svc.LinkTask(context.Background(), initiative.ID, api.LinkTaskRequest{TaskID: quick.ID})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), initiative.ID, 0)
	require.NoError(t, err)
	require.Len(t, got.Tasks, 2)
	assert.Equal(t, alpha.ID, got.Tasks[0].ID)
	assert.Equal(t, "lead", got.Tasks[0].Role, "first role is kept")
	assert.Equal(t, "quick-beta", got.Tasks[1].Project)

	for _, tt := range []struct {
		initiative string
		task       string
	}{
		{initiative: "in-zzzzzz", task: alpha.ID},
		{initiative: initiative.ID, task: "tk-zzzzzz"},
	} {
		resp, err := svc.LinkTask(context.Background(), tt.initiative, api.LinkTaskRequest{TaskID: tt.task})
		require.NoError(t, err)
		assert.True(t, resp.IsNotFound(), "%+v", tt)
	}
}

func TestInitiativeNotes(t *testing.T) {
	svc, _, _ := newInitiativeFixture(t)
	initiative := mustCreateInitiative(t, svc, api.InitiativeCreateRequest{Title: "Notes"})

	for i := 1; i <= maxNoteLimit+5; i++ {
		req := api.InitiativeNoteRequest{Note: fmt.Sprintf("note %d", i)}
		if i == 3 {
			req.Progress = intPtr(40)
		}
		resp, err := svc.AddUpdate(asUser("writer"), initiative.ID, req)
		require.NoError(t, err)
		require.True(t, resp.IsOK())
		assert.Equal(t, "writer", resp.Update.Author)
	}

	got, err := svc.Get(context.Background(), initiative.ID, 0)
	require.NoError(t, err)
	require.Len(t, got.Updates, defaultNoteLimit)
	assert.Equal(t, fmt.Sprintf("note %d", maxNoteLimit+5), got.Updates[0].Note, "most recent first")
	assert.Equal(t, 40, got.Initiative.Progress, "note progress updates the initiative")

	got, err = svc.Get(context.Background(), initiative.ID, 3)
	require.NoError(t, err)
	assert.Len(t, got.Updates, 3)

	got, err = svc.Get(context.Background(), initiative.ID, 1000)
	require.NoError(t, err)
	assert.Len(t, got.Updates, maxNoteLimit)

	_, err = svc.AddUpdate(context.Background(), initiative.ID, api.InitiativeNoteRequest{Note: " "})
	requireAPIError(t, err, http.StatusBadRequest, ErrCodeMissingRequired)

	_, err = svc.AddUpdate(context.Background(), initiative.ID, api.InitiativeNoteRequest{Note: "x", Progress: intPtr(150)})
	requireAPIError(t, err, http.StatusBadRequest, ErrCodeInvalidProgress)

	missing, err := svc.AddUpdate(context.Background(), "in-zzzzzz", api.InitiativeNoteRequest{Note: "x"})
	require.NoError(t, err)
	assert.True(t, missing.IsNotFound())

	notFound, err := svc.Get(context.Background(), "in-zzzzzz", 0)
	require.NoError(t, err)
	assert.True(t, notFound.IsNotFound())
}
