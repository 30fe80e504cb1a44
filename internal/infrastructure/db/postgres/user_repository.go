package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taskboard/tracker/internal/core/domain"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user. The users_email_key constraint is the only
// duplicate check.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query :=
		`INSERT INTO users (id, email, username, password_hash, role, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`

	username := sql.NullString{String: user.Username, Valid: user.Username != ""}
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, username, user.PasswordHash, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	created := *user
	return &created, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query :=
		`SELECT id, email, COALESCE(username, ''), password_hash, role, created_at FROM users
		 WHERE email = $1`
	return r.findOne(ctx, query, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	query :=
		`SELECT id, email, COALESCE(username, ''), password_hash, role, created_at FROM users
		 WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}
