package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"taskboard/internal/api"
	"taskboard/internal/store"
)

// DependencyService maintains the blocked-by graph between tasks.
type DependencyService struct {
	store  store.Backend
	logger *slog.Logger
	now    func() time.Time
}

// NewDependencyService constructs a DependencyService.
func NewDependencyService(backend store.Backend, logger *slog.Logger) *DependencyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DependencyService{
		store:  backend,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Add records that req.TaskID depends on req.DependsOnID. The cycle check and
// the insert share one transaction.
func (s *DependencyService) Add(ctx context.Context, req api.DepRequest) (api.DepResponse, error) {
	var resp api.DepResponse
	taskID, dependsOnID, err := s.validatePair(req)
	if err != nil {
		return resp, err
	}

	err = s.store.Update(ctx, func(tx *store.Tx) error {
		missing, err := missingTasks(ctx, tx, taskID, dependsOnID)
		if err != nil {
			return err
		}
		if missing != "" {
			resp.Outcome = api.NotFound(fmt.Sprintf("task %s not found", missing))
			return nil
		}

		created, err := tx.AddDependency(ctx, taskID, dependsOnID, s.now())
		if err != nil {
			return err
		}
		resp.Changed = created
		if created {
			resp.Outcome = api.OK(fmt.Sprintf("%s now depends on %s", taskID, dependsOnID))
		} else {
			resp.Outcome = api.OK("dependency already exists")
		}
		return nil
	})
	if err != nil {
		return api.DepResponse{}, err
	}
	if resp.Changed {
		s.logger.Debug("dependency added", "task_id", taskID, "depends_on_id", dependsOnID)
	}
	return resp, nil
}

// Remove deletes exactly the named edge.
func (s *DependencyService) Remove(ctx context.Context, req api.DepRequest) (api.DepResponse, error) {
	var resp api.DepResponse
	taskID, dependsOnID, err := s.validatePair(req)
	if err != nil {
		return resp, err
	}

	err = s.store.Update(ctx, func(tx *store.Tx) error {
		removed, err := tx.RemoveDependency(ctx, taskID, dependsOnID)
		if err != nil {
			return err
		}
		if !removed {
			resp.Outcome = api.NotFound(fmt.Sprintf("%s does not depend on %s", taskID, dependsOnID))
			return nil
		}
		resp.Changed = true
		resp.Outcome = api.OK(fmt.Sprintf("%s no longer depends on %s", taskID, dependsOnID))
		return nil
	})
	if err != nil {
		return api.DepResponse{}, err
	}
	return resp, nil
}

func (s *DependencyService) validatePair(req api.DepRequest) (string, string, error) {
	taskID, err := requireTaskID(req.TaskID, "task_id")
	if err != nil {
		return "", "", err
	}
	dependsOnID, err := requireTaskID(req.DependsOnID, "depends_on_id")
	if err != nil {
		return "", "", err
	}
	if taskID == dependsOnID {
		return "", "", badRequestCode(fmt.Errorf("task %s cannot depend on itself", taskID), ErrCodeInvalidDependency)
	}
	return taskID, dependsOnID, nil
}

// missingTasks returns the first id that does not exist, or "".
func missingTasks(ctx context.Context, tx *store.Tx, ids ...string) (string, error) {
	for _, id := range ids {
		exists, err := tx.TaskExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
	return "", nil
}
