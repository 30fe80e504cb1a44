package ports

import (
	"context"
	"time"

	"github.com/taskboard/tracker/internal/core/domain"
)

// CreateTaskInput carries a validated task creation request.
type CreateTaskInput struct {
	UserID         string
	Title          string
	DueDate        *time.Time
	Progress       int
	ProjectID      *string
	IdempotencyKey string
}

// TaskService defines the use cases for tasks.
type TaskService interface {
	List(ctx context.Context, userID string) ([]*domain.Task, error)
	Create(ctx context.Context, in CreateTaskInput) (*domain.Task, error)
	Get(ctx context.Context, userID, id string) (*domain.Task, error)
	Update(ctx context.Context, userID, id string, patch TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, userID, id string) (*domain.Task, error)
}
