package mongo

import (
	"sort"
	"time"

	"github.com/taskboard/tracker/internal/core/domain"
)

// nullsLastBefore orders by a ascending with nil last, then by created
// descending.
func nullsLastBefore(a, b *time.Time, createdA, createdB time.Time) bool {
	switch {
	case a != nil && b != nil && !a.Equal(*b):
		return a.Before(*b)
	case a != nil && b == nil:
		return true
	case a == nil && b != nil:
		return false
	}
	return createdA.After(createdB)
}

func sortProjects(projects []*domain.Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		return nullsLastBefore(projects[i].ScheduledCompletion, projects[j].ScheduledCompletion,
			projects[i].CreatedAt, projects[j].CreatedAt)
	})
}

func sortTasks(tasks []*domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return nullsLastBefore(tasks[i].DueDate, tasks[j].DueDate, tasks[i].CreatedAt, tasks[j].CreatedAt)
	})
}
