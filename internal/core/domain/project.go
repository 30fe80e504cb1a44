package domain

import "time"

// ProjectStatus is the progress label of a project.
type ProjectStatus string

const (
	ProjectNotStarted ProjectStatus = "Not Started"
	ProjectInProgress ProjectStatus = "In Progress"
	ProjectComplete   ProjectStatus = "Complete"
)

// Valid reports whether s is one of the known statuses.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectNotStarted, ProjectInProgress, ProjectComplete:
		return true
	}
	return false
}

// Project groups tasks. Every project is owned by exactly one user.
type Project struct {
	ID                  string        `json:"id" bson:"_id"`
	UserID              string        `json:"-" bson:"user_id"`
	Name                string        `json:"name" bson:"name"`
	ScheduledCompletion *time.Time    `json:"scheduled_completion" bson:"scheduled_completion"`
	Status              ProjectStatus `json:"status" bson:"status"`
	TaskCount           int           `json:"task_count" bson:"-"`
	CreatedAt           time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at" bson:"updated_at"`
}
