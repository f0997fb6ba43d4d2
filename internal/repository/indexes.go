package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection       = "users"
	SessionsCollection    = "sessions"
	PredictionsCollection = "predictions"
)

// EnsureIndexes creates the unique indexes the services rely on.
// CreateMany is a no-op for indexes that already exist with the same options.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		SessionsCollection: {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "creator", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		PredictionsCollection: {
			{Keys: bson.D{{Key: "session", Value: 1}, {Key: "createdAt", Value: 1}}},
			// anonymous predictions have no user field and are left out of the unique check
			{
				Keys: bson.D{{Key: "session", Value: 1}, {Key: "user", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"user": bson.M{"$exists": true}}),
			},
		},
	}

	for _, name := range []string{UsersCollection, SessionsCollection, PredictionsCollection} {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, specs[name]); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
