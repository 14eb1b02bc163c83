package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskify-project/microservices/tasks-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TaskRepo struct {
	collection *mongo.Collection
}

func NewTaskRepo(collection *mongo.Collection) *TaskRepo {
	return &TaskRepo{collection: collection}
}

// CreateIndexes creates the indexes the scoped queries rely on.
func (r *TaskRepo) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "team", Value: 1}, {Key: "isTrashed", Value: 1}}},
		{Keys: bson.D{{Key: "isTrashed", Value: 1}, {Key: "stage", Value: 1}}},
		{Keys: bson.D{{Key: "assets._id", Value: 1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create task indexes: %w", err)
	}
	return nil
}

func (r *TaskRepo) Insert(ctx context.Context, task *models.Task) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	normalizeTask(task)

	if _, err := r.collection.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *TaskRepo) FindOne(ctx context.Context, filter TaskFilter) (*models.Task, error) {
	var task models.Task
	err := r.collection.FindOne(ctx, filter.Query()).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch task: %w", err)
	}
	return &task, nil
}

func (r *TaskRepo) Find(ctx context.Context, filter TaskFilter, limit int64) ([]models.Task, error) {
	return r.find(ctx, filter.Query(), limit)
}

func (r *TaskRepo) FindReminderCandidates(ctx context.Context) ([]models.Task, error) {
	query := bson.M{
		"description": bson.M{"$exists": true, "$ne": ""},
		"priority":    bson.M{"$exists": true, "$ne": ""},
		"date":        bson.M{"$exists": true, "$ne": nil},
	}
	return r.find(ctx, query, 0)
}

func (r *TaskRepo) find(ctx context.Context, query bson.M, limit int64) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepo) updateOne(ctx context.Context, filter TaskFilter, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, filter.Query(), update)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepo) UpdateDetails(ctx context.Context, filter TaskFilter, details TaskDetails) error {
	team := details.Team
	if team == nil {
		team = []string{}
	}
	return r.updateOne(ctx, filter, bson.M{"$set": bson.M{
		"title":       details.Title,
		"description": details.Description,
		"date":        details.Date,
		"team":        team,
		"stage":       details.Stage,
		"priority":    details.Priority,
		"updatedAt":   time.Now().UTC(),
	}})
}

func (r *TaskRepo) PushActivity(ctx context.Context, filter TaskFilter, activity models.Activity) error {
	return r.updateOne(ctx, filter, bson.M{
		"$push": bson.M{"activities": activity},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *TaskRepo) PushSubTask(ctx context.Context, filter TaskFilter, subTask models.SubTask) error {
	return r.updateOne(ctx, filter, bson.M{
		"$push": bson.M{"subTasks": subTask},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *TaskRepo) PushAssets(ctx context.Context, filter TaskFilter, assets []models.Asset) (*models.Task, error) {
	update := bson.M{
		"$push": bson.M{"assets": bson.M{"$each": assets}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var task models.Task
	err := r.collection.FindOneAndUpdate(ctx, filter.Query(), update, opts).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to attach assets: %w", err)
	}
	return &task, nil
}

func (r *TaskRepo) PullAsset(ctx context.Context, filter TaskFilter, assetID primitive.ObjectID) error {
	return r.updateOne(ctx, filter, bson.M{
		"$pull": bson.M{"assets": bson.M{"_id": assetID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *TaskRepo) SetTrashed(ctx context.Context, filter TaskFilter, trashed bool) (int64, error) {
	result, err := r.collection.UpdateMany(ctx, filter.Query(), bson.M{"$set": bson.M{
		"isTrashed": trashed,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return 0, fmt.Errorf("failed to update trash flag: %w", err)
	}
	return result.MatchedCount, nil
}

func (r *TaskRepo) Delete(ctx context.Context, filter TaskFilter) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, filter.Query())
	if err != nil {
		return 0, fmt.Errorf("failed to delete tasks: %w", err)
	}
	return result.DeletedCount, nil
}
