package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"predictbattle/internal/model"
)

// PredictionRepo handles MongoDB operations for predictions
type PredictionRepo interface {
	Create(ctx context.Context, prediction *model.Prediction) error
	CountBySession(ctx context.Context, sessionID primitive.ObjectID) (int64, error)
	ExistsForUser(ctx context.Context, sessionID, userID primitive.ObjectID) (bool, error)
	ListBySession(ctx context.Context, sessionID primitive.ObjectID) ([]*model.Prediction, error)
	SessionIDsByUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
}

type predictionRepo struct {
	collection *mongo.Collection
}

// NewPredictionRepo creates a new prediction repository
func NewPredictionRepo(db *mongo.Database) PredictionRepo {
	return &predictionRepo{
		collection: db.Collection(PredictionsCollection),
	}
}

func (r *predictionRepo) Create(ctx context.Context, prediction *model.Prediction) error {
	now := time.Now().UTC()
	prediction.CreatedAt = now
	prediction.UpdatedAt = now
	if prediction.ID.IsZero() {
		prediction.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctx, prediction)
	return wrapWriteErr(err)
}

func (r *predictionRepo) CountBySession(ctx context.Context, sessionID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"session": sessionID})
}

func (r *predictionRepo) ExistsForUser(ctx context.Context, sessionID, userID primitive.ObjectID) (bool, error) {
	err := r.collection.FindOne(ctx, bson.M{"session": sessionID, "user": userID},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListBySession returns predictions in submission order
func (r *predictionRepo) ListBySession(ctx context.Context, sessionID primitive.ObjectID) ([]*model.Prediction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"session": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	predictions := []*model.Prediction{}
	if err := cursor.All(ctx, &predictions); err != nil {
		return nil, err
	}
	return predictions, nil
}

func (r *predictionRepo) SessionIDsByUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	values, err := r.collection.Distinct(ctx, "session", bson.M{"user": userID})
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		oid, ok := v.(primitive.ObjectID)
		if !ok {
			return nil, fmt.Errorf("unexpected session id type %T", v)
		}
		ids = append(ids, oid)
	}
	return ids, nil
}
