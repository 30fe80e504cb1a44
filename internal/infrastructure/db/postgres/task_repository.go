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

type TaskRepository struct {
	db DBTX
}

func NewTaskRepository(db DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskSelect = `SELECT t.id, t.project_id, p.name, t.title, t.due_date, t.progress, t.created_at, t.updated_at
		 FROM tasks t
		 LEFT JOIN projects p ON p.id = t.project_id AND p.user_id = t.user_id`

const taskOrder = `ORDER BY t.due_date ASC NULLS LAST, t.created_at DESC`

// taskReturning mirrors taskSelect for UPDATE ... RETURNING.
const taskReturning = `RETURNING id, project_id,
		 (SELECT name FROM projects WHERE projects.id = tasks.project_id),
		 title, due_date, progress, created_at, updated_at`

func scanTask(row rowScanner, userID string) (*domain.Task, error) {
	var (
		t           domain.Task
		projectID   sql.NullString
		projectName sql.NullString
		due         sql.NullTime
	)
	if err := row.Scan(&t.ID, &projectID, &projectName, &t.Title, &due, &t.Progress, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.UserID = userID
	t.ProjectID = stringPtr(projectID)
	t.ProjectName = stringPtr(projectName)
	t.DueDate = timePtr(due)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

func (r *TaskRepository) list(ctx context.Context, userID, query string, args ...any) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows, userID)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) List(ctx context.Context, userID string) ([]*domain.Task, error) {
	query := taskSelect + `
		 WHERE t.user_id = $1
		 ` + taskOrder
	return r.list(ctx, userID, query, userID)
}

func (r *TaskRepository) ListByProject(ctx context.Context, userID, projectID string) ([]*domain.Task, error) {
	query := taskSelect + `
		 WHERE t.user_id = $1 AND t.project_id = $2
		 ` + taskOrder
	return r.list(ctx, userID, query, userID, projectID)
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	query :=
		`INSERT INTO tasks (id, user_id, project_id, title, due_date, progress, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.UserID, nullString(t.ProjectID), t.Title, nullTime(t.DueDate), t.Progress, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, id string) (*domain.Task, error) {
	query := taskSelect + `
		 WHERE t.id = $1 AND t.user_id = $2`

	t, err := scanTask(r.db.QueryRowContext(ctx, query, id, userID), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

// Update writes only the allow-listed columns present in patch. A null
// project_id unassigns the task.
func (r *TaskRepository) Update(ctx context.Context, userID, id string, patch ports.TaskPatch, now time.Time) (*domain.Task, error) {
	var set setClause
	if patch.Title != nil {
		set.add("title", *patch.Title)
	}
	if patch.DueDate.Set {
		set.add("due_date", nullTime(patch.DueDate.Value))
	}
	if patch.Progress != nil {
		set.add("progress", *patch.Progress)
	}
	if patch.ProjectID.Set {
		set.add("project_id", nullString(patch.ProjectID.Value))
	}
	if len(set.cols) == 0 {
		return nil, domain.ErrNoFieldsToUpdate
	}
	set.add("updated_at", now)

	idArg := set.next(id)
	userArg := set.next(userID)
	query := `UPDATE tasks SET ` + strings.Join(set.cols, ", ") + `
		 WHERE id = ` + idArg + ` AND user_id = ` + userArg + `
		 ` + taskReturning

	t, err := scanTask(r.db.QueryRowContext(ctx, query, set.args...), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *TaskRepository) Delete(ctx context.Context, userID, id string) (*domain.Task, error) {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2
		 ` + taskReturning

	t, err := scanTask(r.db.QueryRowContext(ctx, query, id, userID), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}
