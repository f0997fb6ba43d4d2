package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"predictbattle/internal/model"
)

func TestUserRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("get by username reads hash", func(mt *mtest.T) {
		repo := NewUserRepo(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "predictbattle.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "username", Value: "alice"},
			{Key: "password", Value: "$2a$10$hash"},
		}))

		u, err := repo.GetByUsername(ctx, "alice")
		require.NoError(mt, err)
		require.NotNil(mt, u)
		assert.Equal(mt, id, u.ID)
		assert.Equal(mt, "$2a$10$hash", u.PasswordHash)
	})

	mt.Run("get by id returns nil when missing", func(mt *mtest.T) {
		repo := NewUserRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "predictbattle.users", mtest.FirstBatch))

		u, err := repo.GetByID(ctx, primitive.NewObjectID())
		require.NoError(mt, err)
		assert.Nil(mt, u)
	})

	mt.Run("create maps duplicate username", func(mt *mtest.T) {
		repo := NewUserRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error index: username_1",
		}))

		err := repo.Create(ctx, &model.User{Username: "alice", PasswordHash: "x"})
		assert.True(mt, errors.Is(err, ErrDuplicateKey))
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
		)
		require.NoError(mt, EnsureIndexes(ctx, mt.DB))
	})
}
