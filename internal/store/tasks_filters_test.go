package store

import (
	"context"
	"testing"
	"time"

	"taskboard/internal/models"
)

func TestListTasksOrdering(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	seedTask(t, st, models.Task{ID: "tk-ord003", Title: "Low", Priority: 3, CreatedAt: base})
	seedTask(t, st, models.Task{ID: "tk-ord002", Title: "High later", Priority: 0, CreatedAt: base.Add(time.Minute)})
	seedTask(t, st, models.Task{ID: "tk-ord001", Title: "High earlier", Priority: 0, CreatedAt: base})
	seedTask(t, st, models.Task{ID: "tk-ord004", Title: "Elsewhere", Project: "beta", Priority: 0, CreatedAt: base})

	err := st.View(ctx, func(tx *Tx) error {
		tasks, err := tx.ListTasks(ctx, ListFilter{Project: "alpha"})
		if err != nil {
			return err
		}
		want := []string{"tk-ord001", "tk-ord002", "tk-ord003"}
		if len(tasks) != len(want) {
			t.Fatalf("expected %d tasks, got %d", len(want), len(tasks))
		}
		for i, id := range want {
			if tasks[i].ID != id {
				t.Fatalf("position %d: expected %s, got %s", i, id, tasks[i].ID)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestListTasksFilters(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	seedTask(t, st, models.Task{ID: "tk-flt001", Title: "Parent", Assignee: "bob"})
	seedTask(t, st, models.Task{ID: "tk-flt002", Title: "Child", ParentTaskID: "tk-flt001", Status: "ready"})
	seedTask(t, st, models.Task{ID: "tk-flt003", Title: "Solo", Status: "ready", Assignee: "bob"})

	tests := []struct {
		name   string
		filter ListFilter
		want   int
	}{
		{name: "all", filter: ListFilter{}, want: 3},
		{name: "status", filter: ListFilter{Statuses: []string{"ready"}}, want: 2},
		{name: "assignee", filter: ListFilter{Assignee: "bob"}, want: 2},
		{name: "status and assignee", filter: ListFilter{Statuses: []string{"ready"}, Assignee: "bob"}, want: 1},
		{name: "children", filter: ListFilter{ParentID: "tk-flt001"}, want: 1},
		{name: "top level", filter: ListFilter{TopLevel: true}, want: 2},
		{name: "limit", filter: ListFilter{Limit: 1}, want: 1},
		{name: "offset", filter: ListFilter{Offset: 2}, want: 1},
		{name: "contains", filter: ListFilter{Contains: "sol"}, want: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := st.View(ctx, func(tx *Tx) error {
				tasks, err := tx.ListTasks(ctx, tc.filter)
				if err != nil {
					return err
				}
				if len(tasks) != tc.want {
					t.Fatalf("expected %d tasks, got %d", tc.want, len(tasks))
				}
				return nil
			})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
		})
	}
}

func TestChildStatusCounts(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	seedTask(t, st, models.Task{ID: "tk-cnt001", Title: "Parent"})
	seedTask(t, st, models.Task{ID: "tk-cnt002", Title: "A", ParentTaskID: "tk-cnt001", Status: "done"})
	seedTask(t, st, models.Task{ID: "tk-cnt003", Title: "B", ParentTaskID: "tk-cnt001", Status: "ready"})
	seedTask(t, st, models.Task{ID: "tk-cnt004", Title: "Lonely"})

	err := st.View(ctx, func(tx *Tx) error {
		counts, err := tx.ChildStatusCounts(ctx, []string{"tk-cnt001", "tk-cnt004"})
		if err != nil {
			return err
		}
		if counts["tk-cnt001"]["done"] != 1 || counts["tk-cnt001"]["ready"] != 1 {
			t.Fatalf("unexpected counts: %+v", counts)
		}
		if len(counts["tk-cnt004"]) != 0 {
			t.Fatalf("expected no children for tk-cnt004, got %+v", counts["tk-cnt004"])
		}

		byStatus, err := tx.StatusCounts(ctx, "alpha")
		if err != nil {
			return err
		}
		if byStatus["backlog"] != 2 || byStatus["done"] != 1 {
			t.Fatalf("unexpected status counts: %+v", byStatus)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestSearchTasks(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	seedTask(t, st, models.Task{ID: "tk-src001", Title: "Fix login redirect", Description: "oauth callback loops"})
	seedTask(t, st, models.Task{ID: "tk-src002", Title: "Write docs", Description: "explain login flow"})
	seedTask(t, st, models.Task{ID: "tk-src003", Title: "Unrelated", Project: "beta", Description: "login elsewhere"})

	err := st.View(ctx, func(tx *Tx) error {
		result, err := tx.SearchTasks(ctx, "login", "alpha", 10)
		if err != nil {
			return err
		}
		if result.Fallback {
			t.Fatalf("expected FTS path, got fallback: %v", result.FTSFailed)
		}
		if len(result.Tasks) != 2 {
			t.Fatalf("expected 2 matches, got %d", len(result.Tasks))
		}

		result, err = tx.SearchTasks(ctx, "oauth", "", 10)
		if err != nil {
			return err
		}
		if len(result.Tasks) != 1 || result.Tasks[0].ID != "tk-src001" {
			t.Fatalf("expected description match, got %+v", result.Tasks)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestSearchTasksFallsBackOnSyntaxError(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	seedTask(t, st, models.Task{ID: "tk-fb0001", Title: `Handle "quoted` + ` input`})
	seedTask(t, st, models.Task{ID: "tk-fb0002", Title: "Other"})

	err := st.View(ctx, func(tx *Tx) error {
		result, err := tx.SearchTasks(ctx, `"quoted`, "", 10)
		if err != nil {
			return err
		}
		if !result.Fallback || result.FTSFailed == nil {
			t.Fatal("expected fallback for unbalanced quote")
		}
		if len(result.Tasks) != 1 || result.Tasks[0].ID != "tk-fb0001" {
			t.Fatalf("expected substring match, got %+v", result.Tasks)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestSearchTasksFallsBackWithoutIndex(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	seedTask(t, st, models.Task{ID: "tk-nx0001", Title: "Alpha parser", Priority: 2})
	seedTask(t, st, models.Task{ID: "tk-nx0002", Title: "Beta", Description: "uses the PARSER", Priority: 1})

	for _, stmt := range []string{
		"DROP TRIGGER tasks_fts_insert",
		"DROP TRIGGER tasks_fts_update",
		"DROP TRIGGER tasks_fts_delete",
		"DROP TABLE tasks_fts",
	} {
		if _, err := st.DB().Exec(stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}

	err := st.View(ctx, func(tx *Tx) error {
		result, err := tx.SearchTasks(ctx, "parser", "", 10)
		if err != nil {
			return err
		}
		if !result.Fallback {
			t.Fatal("expected fallback without FTS table")
		}
		if len(result.Tasks) != 2 {
			t.Fatalf("expected 2 matches, got %d", len(result.Tasks))
		}
		if result.Tasks[0].ID != "tk-nx0002" {
			t.Fatalf("expected priority order, got %s first", result.Tasks[0].ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestFTSIndexFollowsUpdates(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	seedTask(t, st, models.Task{ID: "tk-upd001", Title: "Original wording"})

	err := st.Update(ctx, func(tx *Tx) error {
		return tx.UpdateTask(ctx, "tk-upd001", TaskUpdate{Title: strPtr("Renamed entirely")})
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	err = st.View(ctx, func(tx *Tx) error {
		result, err := tx.SearchTasks(ctx, "original", "", 10)
		if err != nil {
			return err
		}
		if len(result.Tasks) != 0 {
			t.Fatalf("expected stale wording gone, got %+v", result.Tasks)
		}
		result, err = tx.SearchTasks(ctx, "renamed", "", 10)
		if err != nil {
			return err
		}
		if len(result.Tasks) != 1 {
			t.Fatalf("expected new wording indexed, got %d", len(result.Tasks))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}
