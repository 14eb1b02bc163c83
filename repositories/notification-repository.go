package repositories

import (
	"context"
	"fmt"
	"time"

	"taskify-project/microservices/tasks-service/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepo stores notifications in MongoDB.
type NotificationRepo struct {
	collection *mongo.Collection
}

func NewNotificationRepo(collection *mongo.Collection) *NotificationRepo {
	return &NotificationRepo{collection: collection}
}

func (r *NotificationRepo) CreateIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "team", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create notification index: %w", err)
	}
	return nil
}

func (r *NotificationRepo) Insert(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.IsRead == nil {
		n.IsRead = []string{}
	}
	if _, err := r.collection.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *NotificationRepo) ListUnread(ctx context.Context, accountID string, limit int64) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	filter := bson.M{"team": accountID, "isRead": bson.M{"$nin": []string{accountID}}}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, accountID, notificationID string) error {
	filter := bson.M{"_id": notificationID, "team": accountID}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$addToSet": bson.M{"isRead": accountID}})
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, accountID string) error {
	filter := bson.M{"team": accountID, "isRead": bson.M{"$nin": []string{accountID}}}
	if _, err := r.collection.UpdateMany(ctx, filter, bson.M{"$addToSet": bson.M{"isRead": accountID}}); err != nil {
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return nil
}
