package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskboard/tracker/internal/core/domain"
	"github.com/taskboard/tracker/internal/core/ports"
)

// --- Request → Service input ---

func toCreateProjectInput(req createProjectRequest, userID, idempotencyKey string) (ports.CreateProjectInput, error) {
	scheduled, err := datePtr(req.ScheduledCompletion)
	if err != nil {
		return ports.CreateProjectInput{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return ports.CreateProjectInput{
		UserID:              userID,
		Name:                req.Name,
		ScheduledCompletion: scheduled,
		Status:              domain.ProjectStatus(req.Status),
		IdempotencyKey:      idempotencyKey,
	}, nil
}

func toProjectPatch(req updateProjectRequest) (ports.ProjectPatch, error) {
	scheduled, err := nullableDate(req.ScheduledCompletion)
	if err != nil {
		return ports.ProjectPatch{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	patch := ports.ProjectPatch{
		Name:                req.Name,
		ScheduledCompletion: scheduled,
	}
	if req.Status != nil {
		status := domain.ProjectStatus(*req.Status)
		patch.Status = &status
	}
	return patch, nil
}

func toCreateTaskInput(req createTaskRequest, userID, idempotencyKey string) (ports.CreateTaskInput, error) {
	due, err := datePtr(req.DueDate)
	if err != nil {
		return ports.CreateTaskInput{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in := ports.CreateTaskInput{
		UserID:         userID,
		Title:          req.Title,
		DueDate:        due,
		ProjectID:      canonicalID(req.ProjectID),
		IdempotencyKey: idempotencyKey,
	}
	if req.Progress != nil {
		in.Progress = *req.Progress
	}
	return in, nil
}

func toTaskPatch(req updateTaskRequest) (ports.TaskPatch, error) {
	due, err := nullableDate(req.DueDate)
	if err != nil {
		return ports.TaskPatch{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return ports.TaskPatch{
		Title:     req.Title,
		DueDate:   due,
		Progress:  req.Progress,
		ProjectID: ports.Nullable[string]{Set: req.ProjectID.Set, Value: canonicalID(req.ProjectID.Value)},
	}, nil
}

// canonicalID lowercases an already-validated UUID so lookups match the
// stored form.
func canonicalID(id *string) *string {
	if id == nil {
		return nil
	}
	parsed, err := uuid.Parse(*id)
	if err != nil {
		return id
	}
	s := parsed.String()
	return &s
}
