package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taskboard/tracker/internal/core/domain"
)

func newMock(t *testing.T) (sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		_ = db.Close()
	})
	return mock, db
}

const insertUserQ = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,\s*username,\s*password_hash,\s*role,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)$`

func testUser() *domain.User {
	return &domain.User{
		ID:           "11111111-1111-1111-1111-111111111111",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$digest",
		Role:         domain.RoleUser,
		CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestUserRepository_Create_Success(t *testing.T) {
	mock, db := newMock(t)
	repo := NewUserRepository(db)
	u := testUser()

	mock.ExpectExec(insertUserQ).
		WithArgs(u.ID, u.Email, nil, u.PasswordHash, u.Role, u.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != u.ID || got.Email != u.Email {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestUserRepository_Create_UniqueViolation(t *testing.T) {
	mock, db := newMock(t)
	repo := NewUserRepository(db)
	u := testUser()

	mock.ExpectExec(insertUserQ).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), u)
	if !errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Fatalf("want ErrDuplicateIdentity, got %v", err)
	}
}

func TestUserRepository_Create_DBError(t *testing.T) {
	mock, db := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(insertUserQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), testUser())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	if errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Fatalf("generic failure reported as duplicate")
	}
}

func TestUserRepository_FindByEmail(t *testing.T) {
	mock, db := newMock(t)
	repo := NewUserRepository(db)
	u := testUser()

	q := `(?s)^SELECT\s+id,\s*email,\s*COALESCE\(username,\s*''\),\s*password_hash,\s*role,\s*created_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`

	mock.ExpectQuery(q).
		WithArgs(u.Email).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username", "password_hash", "role", "created_at"}).
			AddRow(u.ID, u.Email, "", u.PasswordHash, u.Role, u.CreatedAt))

	got, err := repo.FindByEmail(context.Background(), u.Email)
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if got.ID != u.ID || got.PasswordHash != u.PasswordHash {
		t.Fatalf("unexpected user: %+v", got)
	}

	mock.ExpectQuery(q).WithArgs("ghost@example.com").WillReturnError(sql.ErrNoRows)
	if _, err := repo.FindByEmail(context.Background(), "ghost@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
}

func TestUserRepository_FindByID_NotFound(t *testing.T) {
	mock, db := newMock(t)
	repo := NewUserRepository(db)

	q := `(?s)^SELECT\s+.+\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectQuery(q).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	if _, err := repo.FindByID(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
}

func TestMigrate_UsesEmbeddedDir(t *testing.T) {
	_, db := newMock(t)

	orig := gooseUp
	defer func() { gooseUp = orig }()

	var gotDir string
	gooseUp = func(_ context.Context, _ *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if gotDir != "migrations" {
		t.Fatalf("dir = %q", gotDir)
	}

	entries, err := migrations.ReadDir("migrations")
	if err != nil || len(entries) == 0 {
		t.Fatalf("no embedded migrations: %v", err)
	}
}
