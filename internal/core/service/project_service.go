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

type ProjectService struct {
	projects ports.ProjectRepository
	tasks    ports.TaskRepository
	replay   replayer
	logger   zerolog.Logger
	now      func() time.Time
}

// NewProjectService wires the project use cases. idem may be nil, in which
// case Idempotency-Key headers are ignored.
func NewProjectService(
	projects ports.ProjectRepository,
	tasks ports.TaskRepository,
	idem ports.IdempotencyStore,
	logger zerolog.Logger,
) *ProjectService {
	return &ProjectService{
		projects: projects,
		tasks:    tasks,
		replay:   replayer{store: idem, logger: logger},
		logger:   logger,
		now:      time.Now,
	}
}

func (s *ProjectService) List(ctx context.Context, userID string) ([]*domain.Project, error) {
	return s.projects.List(ctx, userID)
}

// Create stores a new project owned by in.UserID. A repeated IdempotencyKey
// returns the project created by the first request, or
// domain.ErrRequestInProgress while that request is still running.
func (s *ProjectService) Create(ctx context.Context, in ports.CreateProjectInput) (*domain.Project, error) {
	status := in.Status
	if status == "" {
		status = domain.ProjectNotStarted
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || !status.Valid() {
		return nil, domain.ErrValidation
	}

	if claim, held := s.replay.reserve(ctx, in.UserID, scopeProject, in.IdempotencyKey); held {
		if claim.Pending() {
			return nil, domain.ErrRequestInProgress
		}
		existing, err := s.projects.FindByID(ctx, in.UserID, claim.ResourceID)
		if err != nil {
			return nil, err
		}
		s.logger.Info().Str("project_id", existing.ID).Msg("idempotent replay")
		return existing, nil
	}

	now := s.now().UTC()
	project := &domain.Project{
		ID:                  uuid.NewString(),
		UserID:              in.UserID,
		Name:                name,
		ScheduledCompletion: in.ScheduledCompletion,
		Status:              status,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.projects.Create(ctx, project); err != nil {
		s.replay.release(ctx, in.UserID, scopeProject, in.IdempotencyKey)
		s.logger.Error().Err(err).Msg("failed to create project")
		return nil, err
	}
	s.replay.complete(ctx, in.UserID, scopeProject, in.IdempotencyKey, project.ID)

	s.logger.Info().Str("project_id", project.ID).Str("user_id", in.UserID).Msg("project created")
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, userID, id string) (*domain.Project, error) {
	return s.projects.FindByID(ctx, userID, id)
}

func (s *ProjectService) Update(ctx context.Context, userID, id string, patch ports.ProjectPatch) (*domain.Project, error) {
	if patch.Empty() {
		return nil, domain.ErrNoFieldsToUpdate
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, domain.ErrValidation
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, domain.ErrValidation
		}
		patch.Name = &name
	}
	return s.projects.Update(ctx, userID, id, patch, s.now().UTC())
}

// Delete removes the project; its tasks survive unassigned.
func (s *ProjectService) Delete(ctx context.Context, userID, id string) (*domain.Project, error) {
	deleted, err := s.projects.Delete(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("project_id", id).Str("user_id", userID).Msg("project deleted")
	return deleted, nil
}

// ListTasks returns the tasks filed under one of the caller's projects.
// A foreign or missing project yields domain.ErrProjectNotFound rather than
// an empty list.
func (s *ProjectService) ListTasks(ctx context.Context, userID, projectID string) ([]*domain.Task, error) {
	ok, err := s.projects.Exists(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return s.tasks.ListByProject(ctx, userID, projectID)
}
