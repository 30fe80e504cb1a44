package ports

import (
	"context"
	"time"

	"github.com/taskboard/tracker/internal/core/domain"
)

// RegisterInput is the validated registration command.
type RegisterInput struct {
	Email    string
	Password string
	Username string
}

// AuthService covers registration, credential checks and identity lookup.
// It never mints tokens; that is the TokenIssuer's job.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
}

// PasswordHasher produces and checks salted one-way digests.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
	// Burn performs a comparison of the same cost as Verify against a fixed
	// digest, so lookups for unknown accounts take as long as real ones.
	Burn(plaintext string)
}

// TokenIssuer signs short-lived bearer tokens.
type TokenIssuer interface {
	Issue(userID, role string) (token string, expiresAt time.Time, err error)
}

// TokenVerifier decodes and checks bearer tokens. Failures are *domain.TokenError.
type TokenVerifier interface {
	Verify(token string) (domain.Identity, error)
}
