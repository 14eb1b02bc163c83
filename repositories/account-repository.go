package repositories

import (
	"context"
	"fmt"
	"time"

	"taskify-project/microservices/tasks-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AccountRepo reads the users collection owned by the users service.
type AccountRepo struct {
	collection *mongo.Collection
}

func NewAccountRepo(collection *mongo.Collection) *AccountRepo {
	return &AccountRepo{collection: collection}
}

type accountDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	Title     string             `bson:"title"`
	Role      string             `bson:"role"`
	Email     string             `bson:"email"`
	IsAdmin   bool               `bson:"isAdmin"`
	IsActive  bool               `bson:"isActive"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d accountDocument) summary() models.AccountSummary {
	return models.AccountSummary{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Title:     d.Title,
		Role:      d.Role,
		Email:     d.Email,
		IsAdmin:   d.IsAdmin,
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt,
	}
}

var accountProjection = bson.M{
	"name": 1, "title": 1, "role": 1, "email": 1, "isAdmin": 1, "isActive": 1, "createdAt": 1,
}

func (r *AccountRepo) Lookup(ctx context.Context, ids []string) (map[string]models.AccountSummary, error) {
	out := make(map[string]models.AccountSummary)

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			// not a users-service id, nothing to resolve
			continue
		}
		objectIDs = append(objectIDs, oid)
	}
	if len(objectIDs) == 0 {
		return out, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}}, options.Find().SetProjection(accountProjection))
	if err != nil {
		return nil, fmt.Errorf("failed to look up accounts: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []accountDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}
	for _, d := range docs {
		out[d.ID.Hex()] = d.summary()
	}
	return out, nil
}

func (r *AccountRepo) RecentActive(ctx context.Context, limit int64) ([]models.AccountSummary, error) {
	opts := options.Find().
		SetProjection(accountProjection).
		SetSort(bson.D{{Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"isActive": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []accountDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}

	accounts := make([]models.AccountSummary, 0, len(docs))
	for _, d := range docs {
		accounts = append(accounts, d.summary())
	}
	return accounts, nil
}
