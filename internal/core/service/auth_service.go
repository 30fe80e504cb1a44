package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskboard/tracker/internal/core/domain"
	"github.com/taskboard/tracker/internal/core/ports"
)

// AuthService implements registration, login and identity lookup.
type AuthService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	logger zerolog.Logger
	now    func() time.Time
}

func NewAuthService(repo ports.UserRepository, hasher ports.PasswordHasher, logger zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, hasher: hasher, logger: logger, now: time.Now}
}

// Register stores a new user with role "user". Duplicate emails are detected
// by the store's unique constraint, never by a prior lookup.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrValidation
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: digest,
		Role:         domain.RoleUser,
		CreatedAt:    s.now().UTC(),
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			return nil, domain.ErrDuplicateIdentity
		}
		s.logger.Error().Err(err).Msg("failed to create user")
		return nil, fmt.Errorf("register: %w", err)
	}

	s.logger.Info().Str("user_id", created.ID).Msg("user registered")
	return created.Sanitized(), nil
}

// Login returns the sanitized user when the credentials match. Unknown email
// and wrong password both yield domain.ErrInvalidCredentials after a bcrypt
// comparison of equal cost.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Burn(password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	return user.Sanitized(), nil
}

// CurrentUser resolves the user behind a verified token. A token that
// outlived its account is treated as unauthenticated.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("current user: %w", err)
	}
	return user.Sanitized(), nil
}
