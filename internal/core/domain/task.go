package domain

import "time"

const (
	MinProgress = 0
	MaxProgress = 100
)

// Task is a unit of work owned by a user, optionally filed under one of that
// user's projects.
type Task struct {
	ID          string     `json:"id" bson:"_id"`
	UserID      string     `json:"-" bson:"user_id"`
	ProjectID   *string    `json:"project_id" bson:"project_id"`
	ProjectName *string    `json:"project_name,omitempty" bson:"-"`
	Title       string     `json:"title" bson:"title"`
	DueDate     *time.Time `json:"due_date" bson:"due_date"`
	Progress    int        `json:"progress" bson:"progress"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}
