package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskboard/tracker/internal/core/domain"
	"github.com/taskboard/tracker/internal/core/ports"
)

type TaskService struct {
	tasks    ports.TaskRepository
	projects ports.ProjectRepository
	replay   replayer
	logger   zerolog.Logger
	now      func() time.Time
}

func NewTaskService(
	tasks ports.TaskRepository,
	projects ports.ProjectRepository,
	idem ports.IdempotencyStore,
	logger zerolog.Logger,
) *TaskService {
	return &TaskService{
		tasks:    tasks,
		projects: projects,
		replay:   replayer{store: idem, logger: logger},
		logger:   logger,
		now:      time.Now,
	}
}

func (s *TaskService) List(ctx context.Context, userID string) ([]*domain.Task, error) {
	return s.tasks.List(ctx, userID)
}

// Create stores a task. When a project is referenced it must belong to the
// same user, otherwise domain.ErrInvalidReference is returned and nothing is
// written. Idempotency-Key handling matches ProjectService.Create.
func (s *TaskService) Create(ctx context.Context, in ports.CreateTaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || !validProgress(in.Progress) {
		return nil, domain.ErrValidation
	}

	if in.ProjectID != nil {
		if err := s.checkProject(ctx, in.UserID, *in.ProjectID); err != nil {
			return nil, err
		}
	}

	if claim, held := s.replay.reserve(ctx, in.UserID, scopeTask, in.IdempotencyKey); held {
		if claim.Pending() {
			return nil, domain.ErrRequestInProgress
		}
		existing, err := s.tasks.FindByID(ctx, in.UserID, claim.ResourceID)
		if err != nil {
			return nil, err
		}
		s.logger.Info().Str("task_id", existing.ID).Msg("idempotent replay")
		return existing, nil
	}

	now := s.now().UTC()
	task := &domain.Task{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		ProjectID: in.ProjectID,
		Title:     title,
		DueDate:   in.DueDate,
		Progress:  in.Progress,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		s.replay.release(ctx, in.UserID, scopeTask, in.IdempotencyKey)
		s.logger.Error().Err(err).Msg("failed to create task")
		return nil, err
	}
	s.replay.complete(ctx, in.UserID, scopeTask, in.IdempotencyKey, task.ID)

	s.logger.Info().Str("task_id", task.ID).Str("user_id", in.UserID).Msg("task created")
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, userID, id string) (*domain.Task, error) {
	return s.tasks.FindByID(ctx, userID, id)
}

func (s *TaskService) Update(ctx context.Context, userID, id string, patch ports.TaskPatch) (*domain.Task, error) {
	if patch.Empty() {
		return nil, domain.ErrNoFieldsToUpdate
	}
	if patch.Progress != nil && !validProgress(*patch.Progress) {
		return nil, domain.ErrValidation
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, domain.ErrValidation
		}
		patch.Title = &title
	}
	if patch.ProjectID.Set && patch.ProjectID.Value != nil {
		if err := s.checkProject(ctx, userID, *patch.ProjectID.Value); err != nil {
			return nil, err
		}
	}
	return s.tasks.Update(ctx, userID, id, patch, s.now().UTC())
}

func (s *TaskService) Delete(ctx context.Context, userID, id string) (*domain.Task, error) {
	deleted, err := s.tasks.Delete(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("task_id", id).Str("user_id", userID).Msg("task deleted")
	return deleted, nil
}

func (s *TaskService) checkProject(ctx context.Context, userID, projectID string) error {
	ok, err := s.projects.Exists(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Debug().Str("project_id", projectID).Str("user_id", userID).Msg("task references foreign project")
		return domain.ErrInvalidReference
	}
	return nil
}

func validProgress(p int) bool {
	return p >= domain.MinProgress && p <= domain.MaxProgress
}
