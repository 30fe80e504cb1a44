package ports

import (
	"context"
	"time"

	"github.com/taskboard/tracker/internal/core/domain"
)

// TaskPatch lists the fields a task update may touch. ProjectID set to null
// moves the task back to "unassigned".
type TaskPatch struct {
	Title     *string
	DueDate   Nullable[time.Time]
	Progress  *int
	ProjectID Nullable[string]
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && !p.DueDate.Set && p.Progress == nil && !p.ProjectID.Set
}

// TaskRepository is the owner-scoped gateway for tasks. Same contract as
// ProjectRepository: foreign rows surface as domain.ErrTaskNotFound.
type TaskRepository interface {
	List(ctx context.Context, userID string) ([]*domain.Task, error)
	ListByProject(ctx context.Context, userID, projectID string) ([]*domain.Task, error)
	Create(ctx context.Context, t *domain.Task) error
	FindByID(ctx context.Context, userID, id string) (*domain.Task, error)
	Update(ctx context.Context, userID, id string, patch TaskPatch, now time.Time) (*domain.Task, error)
	Delete(ctx context.Context, userID, id string) (*domain.Task, error)
}
