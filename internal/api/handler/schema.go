package handler

import (
	"time"

	"github.com/taskboard/tracker/internal/core/domain"
)

// ErrorBody is the envelope of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
	Username string `json:"username" validate:"omitempty,min=3,max=30"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

type loginResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// --- Projects ---

type createProjectRequest struct {
	Name                string  `json:"name"                 validate:"required,max=200"`
	ScheduledCompletion *string `json:"scheduled_completion" validate:"omitnil,date"`
	Status              string  `json:"status"               validate:"omitempty,oneof='Not Started' 'In Progress' 'Complete'"`
}

// updateProjectRequest accepts any subset of the project fields.
// scheduled_completion may be null to clear it.
type updateProjectRequest struct {
	Name                *string          `json:"name"                 validate:"omitnil,min=1,max=200"`
	ScheduledCompletion optional[string] `json:"scheduled_completion" validate:"omitempty,date"`
	Status              *string          `json:"status"               validate:"omitnil,oneof='Not Started' 'In Progress' 'Complete'"`
}

// --- Tasks ---

type createTaskRequest struct {
	Title     string  `json:"title"      validate:"required,max=200"`
	DueDate   *string `json:"due_date"   validate:"omitnil,date"`
	Progress  *int    `json:"progress"   validate:"omitnil,min=0,max=100"`
	ProjectID *string `json:"project_id" validate:"omitnil,uuid"`
}

// updateTaskRequest accepts any subset of the task fields. due_date and
// project_id may be null; a null project_id unassigns the task.
type updateTaskRequest struct {
	Title     *string          `json:"title"      validate:"omitnil,min=1,max=200"`
	DueDate   optional[string] `json:"due_date"   validate:"omitempty,date"`
	Progress  *int             `json:"progress"   validate:"omitnil,min=0,max=100"`
	ProjectID optional[string] `json:"project_id" validate:"omitempty,uuid"`
}
