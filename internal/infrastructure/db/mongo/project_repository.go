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

// ProjectRepository stores projects with their owner in user_id; every
// filter includes it.
type ProjectRepository struct {
	col   *mongo.Collection
	tasks *mongo.Collection
}

func NewProjectRepository(db *mongo.Database) *ProjectRepository {
	return &ProjectRepository{
		col:   db.Collection(collectionProjects),
		tasks: db.Collection(collectionTasks),
	}
}

func (r *ProjectRepository) List(ctx context.Context, userID string) ([]*domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("find projects: %w", err)
	}
	defer cursor.Close(ctx)

	projects := make([]*domain.Project, 0)
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}

	counts, err := r.taskCounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		p.TaskCount = counts[p.ID]
	}

	sortProjects(projects)
	return projects, nil
}

// taskCounts groups the user's tasks by project.
func (r *ProjectRepository) taskCounts(ctx context.Context, userID string) (map[string]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID, "project_id": bson.M{"$ne": nil}}}},
		{{Key: "$group", Value: bson.M{"_id": "$project_id", "n": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.tasks.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ProjectID string `bson:"_id"`
		N         int    `bson:"n"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode task counts: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.ProjectID] = row.N
	}
	return counts, nil
}

func (r *ProjectRepository) countFor(ctx context.Context, userID, projectID string) (int, error) {
	n, err := r.tasks.CountDocuments(ctx, bson.M{"user_id": userID, "project_id": projectID})
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return int(n), nil
}

func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, userID, id string) (*domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.Project
	if err := r.col.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("find project: %w", err)
	}

	n, err := r.countFor(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	p.TaskCount = n
	return &p, nil
}

func (r *ProjectRepository) Exists(ctx context.Context, userID, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id, "user_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count projects: %w", err)
	}
	return n > 0, nil
}

func (r *ProjectRepository) Update(ctx context.Context, userID, id string, patch ports.ProjectPatch, now time.Time) (*domain.Project, error) {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.ScheduledCompletion.Set {
		set["scheduled_completion"] = patch.ScheduledCompletion.Value
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if len(set) == 0 {
		return nil, domain.ErrNoFieldsToUpdate
	}
	set["updated_at"] = now

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.Project
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id, "user_id": userID}, bson.M{"$set": set}, opts).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("update project: %w", err)
	}

	n, err := r.countFor(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	p.TaskCount = n
	return &p, nil
}

// Delete removes the project, then clears project_id on its tasks. The two
// writes are not transactional; a failure in between leaves tasks pointing
// at a missing project, which reads treat as unassigned.
func (r *ProjectRepository) Delete(ctx context.Context, userID, id string) (*domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.Project
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("delete project: %w", err)
	}

	_, err := r.tasks.UpdateMany(ctx,
		bson.M{"user_id": userID, "project_id": id},
		bson.M{"$set": bson.M{"project_id": nil}},
	)
	if err != nil {
		return nil, fmt.Errorf("detach tasks: %w", err)
	}
	return &p, nil
}
