package ports

import (
	"context"
	"time"

	"github.com/taskboard/tracker/internal/core/domain"
)

// CreateProjectInput carries a validated project creation request.
type CreateProjectInput struct {
	UserID              string
	Name                string
	ScheduledCompletion *time.Time
	Status              domain.ProjectStatus
	// IdempotencyKey, when set, makes retries return the first result.
	IdempotencyKey string
}

// ProjectService defines the use cases for projects.
type ProjectService interface {
	List(ctx context.Context, userID string) ([]*domain.Project, error)
	Create(ctx context.Context, in CreateProjectInput) (*domain.Project, error)
	Get(ctx context.Context, userID, id string) (*domain.Project, error)
	Update(ctx context.Context, userID, id string, patch ProjectPatch) (*domain.Project, error)
	Delete(ctx context.Context, userID, id string) (*domain.Project, error)
	ListTasks(ctx context.Context, userID, projectID string) ([]*domain.Task, error)
}
