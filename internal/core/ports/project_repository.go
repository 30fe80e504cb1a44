package ports

import (
	"context"
	"time"

	"github.com/taskboard/tracker/internal/core/domain"
)

// Nullable distinguishes "field absent" (Set=false) from "set to null"
// (Set=true, Value=nil) in partial updates.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// ProjectPatch lists the fields a project update may touch.
type ProjectPatch struct {
	Name                *string
	ScheduledCompletion Nullable[time.Time]
	Status              *domain.ProjectStatus
}

// Empty reports whether the patch changes nothing.
func (p ProjectPatch) Empty() bool {
	return p.Name == nil && !p.ScheduledCompletion.Set && p.Status == nil
}

// ProjectRepository is the owner-scoped gateway for projects. Every method
// takes the authenticated user id and includes it in the store predicate;
// rows owned by other users behave exactly like missing rows
// (domain.ErrProjectNotFound).
type ProjectRepository interface {
	List(ctx context.Context, userID string) ([]*domain.Project, error)
	Create(ctx context.Context, p *domain.Project) error
	FindByID(ctx context.Context, userID, id string) (*domain.Project, error)
	Exists(ctx context.Context, userID, id string) (bool, error)
	Update(ctx context.Context, userID, id string, patch ProjectPatch, now time.Time) (*domain.Project, error)
	// Delete removes the project and detaches its tasks (project_id = null).
	Delete(ctx context.Context, userID, id string) (*domain.Project, error)
}
