package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"predictbattle/internal/model"
)

// SessionRepo handles MongoDB operations for prediction sessions
type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Session, error)
	GetByCode(ctx context.Context, code string) (*model.Session, error)
	ListByCreator(ctx context.Context, creator primitive.ObjectID) ([]*model.Session, error)
	ListByIDsExcludingCreator(ctx context.Context, ids []primitive.ObjectID, creator primitive.ObjectID) ([]*model.Session, error)
	MarkCompleted(ctx context.Context, id primitive.ObjectID) (*model.Session, error)
}

type sessionRepo struct {
	collection *mongo.Collection
}

// NewSessionRepo creates a new session repository
func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{
		collection: db.Collection(SessionsCollection),
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	if session.ID.IsZero() {
		session.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctx, session)
	return wrapWriteErr(err)
}

func (r *sessionRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Session, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *sessionRepo) GetByCode(ctx context.Context, code string) (*model.Session, error) {
	return r.findOne(ctx, bson.M{"code": code})
}

func (r *sessionRepo) ListByCreator(ctx context.Context, creator primitive.ObjectID) ([]*model.Session, error) {
	return r.find(ctx, bson.M{"creator": creator})
}

func (r *sessionRepo) ListByIDsExcludingCreator(ctx context.Context, ids []primitive.ObjectID, creator primitive.ObjectID) ([]*model.Session, error) {
	if len(ids) == 0 {
		return []*model.Session{}, nil
	}
	return r.find(ctx, bson.M{
		"_id":     bson.M{"$in": ids},
		"creator": bson.M{"$ne": creator},
	})
}

// MarkCompleted sets status=completed in one atomic update and returns the new document.
// Returns (nil, nil) when no session has that id.
func (r *sessionRepo) MarkCompleted(ctx context.Context, id primitive.ObjectID) (*model.Session, error) {
	update := bson.M{"$set": bson.M{
		"status":    model.SessionCompleted,
		"updatedAt": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var session model.Session
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) findOne(ctx context.Context, filter bson.M) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) find(ctx context.Context, filter bson.M) ([]*model.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []*model.Session{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}
