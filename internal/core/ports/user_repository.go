package ports

import (
	"context"

	"github.com/taskboard/tracker/internal/core/domain"
)

// UserRepository persists user accounts.
//
// Create must rely on the store's unique constraint on email and translate a
// violation into domain.ErrDuplicateIdentity. Find* return
// domain.ErrUserNotFound when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
