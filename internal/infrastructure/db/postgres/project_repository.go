package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskboard/tracker/internal/core/domain"
	"github.com/taskboard/tracker/internal/core/ports"
)

// ProjectRepository keeps user_id in every predicate; a foreign id is
// indistinguishable from a missing one.
type ProjectRepository struct {
	db DBTX
}

func NewProjectRepository(db DBTX) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `p.id, p.name, p.scheduled_completion, p.status, p.created_at, p.updated_at,
		COUNT(t.id) AS task_count`

const projectFrom = `FROM projects p
		 LEFT JOIN tasks t ON t.project_id = p.id AND t.user_id = p.user_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner, userID string) (*domain.Project, error) {
	var (
		p         domain.Project
		scheduled sql.NullTime
		status    string
	)
	if err := row.Scan(&p.ID, &p.Name, &scheduled, &status, &p.CreatedAt, &p.UpdatedAt, &p.TaskCount); err != nil {
		return nil, err
	}
	p.UserID = userID
	p.ScheduledCompletion = timePtr(scheduled)
	p.Status = domain.ProjectStatus(status)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

// List returns the user's projects, soonest scheduled completion first and
// unscheduled ones last.
func (r *ProjectRepository) List(ctx context.Context, userID string) ([]*domain.Project, error) {
	query := `SELECT ` + projectColumns + `
		 ` + projectFrom + `
		 WHERE p.user_id = $1
		 GROUP BY p.id
		 ORDER BY p.scheduled_completion ASC NULLS LAST, p.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	projects := make([]*domain.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows, userID)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return projects, nil
}

func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	query :=
		`INSERT INTO projects (id, user_id, name, scheduled_completion, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.Name, nullTime(p.ScheduledCompletion), string(p.Status), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, userID, id string) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + `
		 ` + projectFrom + `
		 WHERE p.id = $1 AND p.user_id = $2
		 GROUP BY p.id`

	p, err := scanProject(r.db.QueryRowContext(ctx, query, id, userID), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *ProjectRepository) Exists(ctx context.Context, userID, id string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1 AND user_id = $2)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, id, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

// Update writes only the allow-listed columns present in patch.
func (r *ProjectRepository) Update(ctx context.Context, userID, id string, patch ports.ProjectPatch, now time.Time) (*domain.Project, error) {
	var set setClause
	if patch.Name != nil {
		set.add("name", *patch.Name)
	}
	if patch.ScheduledCompletion.Set {
		set.add("scheduled_completion", nullTime(patch.ScheduledCompletion.Value))
	}
	if patch.Status != nil {
		set.add("status", string(*patch.Status))
	}
	if len(set.cols) == 0 {
		return nil, domain.ErrNoFieldsToUpdate
	}
	set.add("updated_at", now)

	idArg := set.next(id)
	userArg := set.next(userID)
	query := `UPDATE projects SET ` + strings.Join(set.cols, ", ") + `
		 WHERE id = ` + idArg + ` AND user_id = ` + userArg + `
		 RETURNING id, name, scheduled_completion, status, created_at, updated_at,
		 (SELECT COUNT(*) FROM tasks WHERE tasks.project_id = projects.id)`

	p, err := scanProject(r.db.QueryRowContext(ctx, query, set.args...), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// Delete removes the project. The tasks.project_id foreign key is
// ON DELETE SET NULL, so its tasks become unassigned.
func (r *ProjectRepository) Delete(ctx context.Context, userID, id string) (*domain.Project, error) {
	query :=
		`DELETE FROM projects WHERE id = $1 AND user_id = $2
		 RETURNING id, name, scheduled_completion, status, created_at, updated_at, 0`

	p, err := scanProject(r.db.QueryRowContext(ctx, query, id, userID), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}
