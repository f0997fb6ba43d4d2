package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"predictbattle/internal/model"
)

const sessionsNS = "predictbattle.sessions"

func sessionDoc(id primitive.ObjectID, code string, status model.SessionStatus) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "code", Value: code},
		{Key: "question", Value: "Will it rain?"},
		{Key: "maxPlayers", Value: int32(5)},
		{Key: "status", Value: string(status)},
		{Key: "createdAt", Value: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
}

func TestSessionRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create assigns id and timestamps", func(mt *mtest.T) {
		repo := NewSessionRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		s := &model.Session{Code: "ABC234", Question: "q", MaxPlayers: 5, Status: model.SessionActive}
		require.NoError(mt, repo.Create(ctx, s))
		assert.False(mt, s.ID.IsZero())
		assert.False(mt, s.CreatedAt.IsZero())
		assert.Equal(mt, s.CreatedAt, s.UpdatedAt)
	})

	mt.Run("create maps duplicate code", func(mt *mtest.T) {
		repo := NewSessionRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: predictbattle.sessions index: code_1",
		}))

		err := repo.Create(ctx, &model.Session{Code: "ABC234"})
		require.Error(mt, err)
		assert.True(mt, errors.Is(err, ErrDuplicateKey))
	})

	mt.Run("get by code decodes document", func(mt *mtest.T) {
		repo := NewSessionRepo(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, sessionsNS, mtest.FirstBatch,
			sessionDoc(id, "ABC234", model.SessionActive)))

		s, err := repo.GetByCode(ctx, "ABC234")
		require.NoError(mt, err)
		require.NotNil(mt, s)
		assert.Equal(mt, id, s.ID)
		assert.Equal(mt, "ABC234", s.Code)
		assert.Equal(mt, 5, s.MaxPlayers)
		assert.Nil(mt, s.Creator)
	})

	mt.Run("get by code returns nil when missing", func(mt *mtest.T) {
		repo := NewSessionRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, sessionsNS, mtest.FirstBatch))

		s, err := repo.GetByCode(ctx, "ZZZZZZ")
		require.NoError(mt, err)
		assert.Nil(mt, s)
	})

	mt.Run("mark completed returns updated document", func(mt *mtest.T) {
		repo := NewSessionRepo(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: sessionDoc(id, "ABC234", model.SessionCompleted)},
		))

		s, err := repo.MarkCompleted(ctx, id)
		require.NoError(mt, err)
		require.NotNil(mt, s)
		assert.True(mt, s.IsCompleted())
	})

	mt.Run("mark completed returns nil for unknown id", func(mt *mtest.T) {
		repo := NewSessionRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		s, err := repo.MarkCompleted(ctx, primitive.NewObjectID())
		require.NoError(mt, err)
		assert.Nil(mt, s)
	})

	mt.Run("list by ids skips the query when empty", func(mt *mtest.T) {
		repo := NewSessionRepo(mt.DB)

		sessions, err := repo.ListByIDsExcludingCreator(ctx, nil, primitive.NewObjectID())
		require.NoError(mt, err)
		assert.Empty(mt, sessions)
	})

	mt.Run("list by creator", func(mt *mtest.T) {
		repo := NewSessionRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, sessionsNS, mtest.FirstBatch,
			sessionDoc(primitive.NewObjectID(), "AAAAAA", model.SessionActive),
			sessionDoc(primitive.NewObjectID(), "BBBBBB", model.SessionCompleted),
		))

		sessions, err := repo.ListByCreator(ctx, primitive.NewObjectID())
		require.NoError(mt, err)
		require.Len(mt, sessions, 2)
		assert.Equal(mt, "AAAAAA", sessions[0].Code)
		assert.Equal(mt, "BBBBBB", sessions[1].Code)
	})
}
