package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskboard/tracker/internal/core/domain"
	"github.com/taskboard/tracker/internal/core/ports"
)

type TaskRepository struct {
	col      *mongo.Collection
	projects *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{
		col:      db.Collection(collectionTasks),
		projects: db.Collection(collectionProjects),
	}
}

func (r *TaskRepository) List(ctx context.Context, userID string) ([]*domain.Task, error) {
	return r.find(ctx, userID, bson.M{"user_id": userID})
}

func (r *TaskRepository) ListByProject(ctx context.Context, userID, projectID string) ([]*domain.Task, error) {
	return r.find(ctx, userID, bson.M{"user_id": userID, "project_id": projectID})
}

func (r *TaskRepository) find(ctx context.Context, userID string, filter bson.M) ([]*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := make([]*domain.Task, 0)
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	if err := r.attachProjectNames(ctx, userID, tasks...); err != nil {
		return nil, err
	}
	sortTasks(tasks)
	return tasks, nil
}

// attachProjectNames fills ProjectName from the owner's projects. Tasks whose
// project no longer exists are reported unassigned.
func (r *TaskRepository) attachProjectNames(ctx context.Context, userID string, tasks ...*domain.Task) error {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if t.ProjectID != nil {
			ids = append(ids, *t.ProjectID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	cursor, err := r.projects.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "user_id": userID},
		options.Find().SetProjection(bson.M{"name": 1}),
	)
	if err != nil {
		return fmt.Errorf("find project names: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID   string `bson:"_id"`
		Name string `bson:"name"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return fmt.Errorf("decode project names: %w", err)
	}
	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.Name
	}

	for _, t := range tasks {
		if t.ProjectID == nil {
			continue
		}
		name, ok := names[*t.ProjectID]
		if !ok {
			t.ProjectID = nil
			continue
		}
		t.ProjectName = &name
	}
	return nil
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, id string) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var t domain.Task
	if err := r.col.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	if err := r.attachProjectNames(ctx, userID, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) Update(ctx context.Context, userID, id string, patch ports.TaskPatch, now time.Time) (*domain.Task, error) {
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.DueDate.Set {
		set["due_date"] = patch.DueDate.Value
	}
	if patch.Progress != nil {
		set["progress"] = *patch.Progress
	}
	if patch.ProjectID.Set {
		set["project_id"] = patch.ProjectID.Value
	}
	if len(set) == 0 {
		return nil, domain.ErrNoFieldsToUpdate
	}
	set["updated_at"] = now

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var t domain.Task
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id, "user_id": userID}, bson.M{"$set": set}, opts).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	if err := r.attachProjectNames(ctx, userID, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) Delete(ctx context.Context, userID, id string) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var t domain.Task
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("delete task: %w", err)
	}
	return &t, nil
}
