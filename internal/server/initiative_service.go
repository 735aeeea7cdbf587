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
	defaultNoteLimit       = 10
	maxNoteLimit           = 50
	defaultInitiativeLimit = 100
)

// InitiativeService groups tasks from any project under shared goals.
type InitiativeService struct {
	store    store.Backend
	identity *IdentityResolver
	logger   *slog.Logger
	now      func() time.Time
}

// NewInitiativeService constructs an InitiativeService.
func NewInitiativeService(backend store.Backend, identity *IdentityResolver, logger *slog.Logger) *InitiativeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InitiativeService{
		store:    backend,
		identity: identity,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new initiative. Status defaults to active and progress to 0.
func (s *InitiativeService) Create(ctx context.Context, req api.InitiativeCreateRequest) (api.InitiativeResponse, error) {
	var resp api.InitiativeResponse
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return resp, badRequestCode(fmt.Errorf("title is required"), ErrCodeMissingRequired)
	}
	status := models.InitiativeActive
	if strings.TrimSpace(req.Status) != "" {
		parsed, err := models.ParseInitiativeStatus(req.Status)
		if err != nil {
			return resp, badRequestCode(err, ErrCodeInvalidStatus)
		}
		status = parsed
	}
	progress := models.ProgressMin
	if req.Progress != nil {
		if err := validateProgress(*req.Progress); err != nil {
			return resp, err
		}
		progress = *req.Progress
	}
	targetDate, err := normalizeDate(req.TargetDate, "target_date")
	if err != nil {
		return resp, err
	}

	now := s.now()
	initiative := &models.Initiative{
		Title:           title,
		Description:     strings.TrimSpace(req.Description),
		Owner:           strings.TrimSpace(req.Owner),
		Participants:    mergeNames(req.Participants),
		SuccessCriteria: trimmedLines(req.SuccessCriteria),
		Progress:        progress,
		Status:          string(status),
		TargetDate:      targetDate,
		CreatedBy:       s.identity.Resolve(ctx),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err = s.store.Update(ctx, func(tx *store.Tx) error {
		id, err := store.GenerateInitiativeID(func(candidate string) (bool, error) {
			return tx.InitiativeExists(ctx, candidate)
		})
		if err != nil {
			return err
		}
		initiative.ID = id
		return tx.InsertInitiative(ctx, initiative)
	})
	if err != nil {
		return api.InitiativeResponse{}, err
	}
	resp.Outcome = api.OK(fmt.Sprintf("created %s", initiative.ID))
	resp.Initiative = initiative
	return resp, nil
}

// List returns initiatives, most recently updated first.
func (s *InitiativeService) List(ctx context.Context, status string) (api.InitiativeListResponse, error) {
	if strings.TrimSpace(status) != "" {
		parsed, err := models.ParseInitiativeStatus(status)
		if err != nil {
			return api.InitiativeListResponse{}, badRequestCode(err, ErrCodeInvalidStatus)
		}
		status = string(parsed)
	}

	var initiatives []models.Initiative
	err := s.store.View(ctx, func(tx *store.Tx) error {
		var err error
		initiatives, err = tx.ListInitiatives(ctx, status, defaultInitiativeLimit)
		return err
	})
	if err != nil {
		return api.InitiativeListResponse{}, err
	}
	if initiatives == nil {
		initiatives = []models.Initiative{}
	}
	for i := range initiatives {
		s.warnCorrupt(&initiatives[i])
	}
	return api.InitiativeListResponse{Outcome: api.OK(""), Initiatives: initiatives}, nil
}

// Get returns an initiative with its linked tasks and latest notes. notes
// of 0 selects the default; larger values are capped.
func (s *InitiativeService) Get(ctx context.Context, id string, notes int) (api.InitiativeResponse, error) {
	var resp api.InitiativeResponse
	id, err := requireInitiativeID(id)
	if err != nil {
		return resp, err
	}
	limit := clampNoteLimit(notes)

	err = s.store.View(ctx, func(tx *store.Tx) error {
		initiative, err := tx.GetInitiative(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			resp.Outcome = api.NotFound(fmt.Sprintf("initiative %s not found", id))
			return nil
		}
		if err != nil {
			return err
		}
		s.warnCorrupt(initiative)
		if resp.Tasks, err = tx.ListInitiativeTasks(ctx, id); err != nil {
			return err
		}
		if resp.Updates, err = tx.ListInitiativeUpdates(ctx, id, limit); err != nil {
			return err
		}
		resp.Outcome = api.OK("")
		resp.Initiative = initiative
		return nil
	})
	if err != nil {
		return api.InitiativeResponse{}, err
	}
	return resp, nil
}

// Update applies optional changes. AddParticipants merges into the stored
// list and therefore fails when that list cannot be parsed.
func (s *InitiativeService) Update(ctx context.Context, id string, req api.InitiativeUpdateRequest) (api.InitiativeResponse, error) {
	var resp api.InitiativeResponse
	id, err := requireInitiativeID(id)
	if err != nil {
		return resp, err
	}

	fields := store.InitiativeUpdateFields{UpdatedAt: s.now()}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return resp, badRequestCode(fmt.Errorf("title cannot be empty"), ErrCodeMissingRequired)
		}
		fields.Title = &title
	}
	if req.Description != nil {
		value := valueOrEmpty(req.Description)
		fields.Description = &value
	}
	if req.Owner != nil {
		value := valueOrEmpty(req.Owner)
		fields.Owner = &value
	}
	if req.Status != nil {
		parsed, err := models.ParseInitiativeStatus(*req.Status)
		if err != nil {
			return resp, badRequestCode(err, ErrCodeInvalidStatus)
		}
		value := string(parsed)
		fields.Status = &value
	}
	if req.Progress != nil {
		if err := validateProgress(*req.Progress); err != nil {
			return resp, err
		}
		fields.Progress = req.Progress
	}
	if req.TargetDate != nil {
		value, err := normalizeDate(*req.TargetDate, "target_date")
		if err != nil {
			return resp, err
		}
		fields.TargetDate = &value
	}
	if req.SuccessCriteria != nil {
		value := trimmedLines(*req.SuccessCriteria)
		fields.SuccessCriteria = &value
	}
	if req.Participants != nil {
		value := mergeNames(*req.Participants)
		fields.Participants = &value
	}

	err = s.store.Update(ctx, func(tx *store.Tx) error {
		current, err := tx.GetInitiative(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			resp.Outcome = api.NotFound(fmt.Sprintf("initiative %s not found", id))
			return nil
		}
		if err != nil {
			return err
		}

		if len(req.AddParticipants) > 0 {
			base := current.Participants
			if fields.Participants != nil {
				base = *fields.Participants
			} else if current.IsCorrupt(store.FieldParticipants) {
				return &models.CorruptFieldError{Record: id, Field: store.FieldParticipants}
			}
			merged := mergeNames(base, req.AddParticipants)
			fields.Participants = &merged
		}

		if err := tx.UpdateInitiative(ctx, id, fields); err != nil {
			return err
		}
		updated, err := tx.GetInitiative(ctx, id)
		if err != nil {
			return err
		}
		resp.Outcome = api.OK("")
		resp.Initiative = updated
		return nil
	})
	if err != nil {
		return api.InitiativeResponse{}, err
	}
	return resp, nil
}

// LinkTask associates a task with an initiative. Linking twice is a
// success that changes nothing.
func (s *InitiativeService) LinkTask(ctx context.Context, id string, req api.LinkTaskRequest) (api.LinkTaskResponse, error) {
	var resp api.LinkTaskResponse
	id, err := requireInitiativeID(id)
	if err != nil {
		return resp, err
	}
	taskID, err := requireTaskID(req.TaskID, "task_id")
	if err != nil {
		return resp, err
	}
	role := strings.TrimSpace(req.Role)

	err = s.store.Update(ctx, func(tx *store.Tx) error {
		exists, err := tx.InitiativeExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			resp.Outcome = api.NotFound(fmt.Sprintf("initiative %s not found", id))
			return nil
		}
		if exists, err = tx.TaskExists(ctx, taskID); err != nil {
			return err
		}
		if !exists {
			resp.Outcome = api.NotFound(fmt.Sprintf("task %s not found", taskID))
			return nil
		}
		created, err := tx.LinkTask(ctx, id, taskID, role, s.now())
		if err != nil {
			return err
		}
		resp.Created = created
		if created {
			resp.Outcome = api.OK(fmt.Sprintf("linked %s", taskID))
		} else {
			resp.Outcome = api.OK(fmt.Sprintf("%s already linked", taskID))
		}
		return nil
	})
	if err != nil {
		return api.LinkTaskResponse{}, err
	}
	return resp, nil
}

// AddUpdate appends a progress note; a progress value also moves the
// initiative's progress in the same transaction.
func (s *InitiativeService) AddUpdate(ctx context.Context, id string, req api.InitiativeNoteRequest) (api.InitiativeNoteResponse, error) {
	var resp api.InitiativeNoteResponse
	id, err := requireInitiativeID(id)
	if err != nil {
		return resp, err
	}
	note := strings.TrimSpace(req.Note)
	if note == "" {
		return resp, badRequestCode(fmt.Errorf("note is required"), ErrCodeMissingRequired)
	}
	if req.Progress != nil {
		if err := validateProgress(*req.Progress); err != nil {
			return resp, err
		}
	}
	noteID, err := newRecordID()
	if err != nil {
		return resp, err
	}
	now := s.now()
	update := &models.InitiativeUpdate{
		ID:           noteID,
		InitiativeID: id,
		Author:       s.identity.Resolve(ctx),
		Note:         note,
		Progress:     req.Progress,
		CreatedAt:    now,
	}

	err = s.store.Update(ctx, func(tx *store.Tx) error {
		exists, err := tx.InitiativeExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			resp.Outcome = api.NotFound(fmt.Sprintf("initiative %s not found", id))
			return nil
		}
		if err := tx.InsertInitiativeUpdate(ctx, update); err != nil {
			return err
		}
		if update.Progress != nil {
			if err := tx.UpdateInitiative(ctx, id, store.InitiativeUpdateFields{Progress: update.Progress, UpdatedAt: now}); err != nil {
				return err
			}
		}
		resp.Outcome = api.OK("")
		resp.Update = update
		return nil
	})
	if err != nil {
		return api.InitiativeNoteResponse{}, err
	}
	return resp, nil
}

func (s *InitiativeService) warnCorrupt(initiative *models.Initiative) {
	if initiative == nil || len(initiative.CorruptFields) == 0 {
		return
	}
	s.logger.Warn("initiative has unparseable stored fields; showing them empty", "id", initiative.ID, "fields", initiative.CorruptFields)
}

func requireInitiativeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", badRequestCode(fmt.Errorf("initiative id is required"), ErrCodeMissingRequired)
	}
	if !validateInitiativeID(id) {
		return "", badRequestCode(fmt.Errorf("invalid initiative id: %s", id), ErrCodeInvalidID)
	}
	return id, nil
}

func clampNoteLimit(limit int) int {
	if limit <= 0 {
		return defaultNoteLimit
	}
	if limit > maxNoteLimit {
		return maxNoteLimit
	}
	return limit
}
