package mongodb

import (
	"context"
	"testing"
	"time"

	"userhub/internal/domain/entity"
	domainerrors "userhub/internal/domain/errors"
	"userhub/internal/domain/repository"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

var fixedNow = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newMockTest(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func newTestRepository(mt *mtest.T) *userRepository {
	return newUserRepository(mt.Coll, func() time.Time { return fixedNow })
}

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func userDoc(id primitive.ObjectID, email string, extra ...bson.E) bson.D {
	doc := bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "Jane Doe"},
		{Key: "email", Value: email},
		{Key: "createdAt", Value: fixedNow},
		{Key: "updatedAt", Value: fixedNow},
	}

	return append(doc, extra...)
}

func TestUserRepository_Create(t *testing.T) {
	mt := newMockTest(t)

	mt.Run("assigns id and timestamps", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := newTestRepository(mt)
		user := &entity.User{Name: "Jane Doe", Email: "jane@example.com", PasswordHash: "hash"}

		require.NoError(mt, repo.Create(context.Background(), user))

		_, err := primitive.ObjectIDFromHex(user.ID)
		assert.NoError(mt, err)
		assert.Equal(mt, fixedNow, user.CreatedAt)
		assert.Equal(mt, fixedNow, user.UpdatedAt)
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: users_db.users index: users_email_unique",
		}))
		repo := newTestRepository(mt)

		err := repo.Create(context.Background(), &entity.User{Name: "Jane Doe", Email: "jane@example.com", PasswordHash: "hash"})

		assert.True(mt, errors.Is(err, domainerrors.ErrDuplicateEmail))
	})

	mt.Run("other write failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    121,
			Name:    "DocumentValidationFailure",
			Message: "Document failed validation",
		}))
		repo := newTestRepository(mt)

		err := repo.Create(context.Background(), &entity.User{Name: "Jane Doe", Email: "jane@example.com"})

		var appErr domainerrors.AppError
		require.True(mt, errors.As(err, &appErr))
		assert.Equal(mt, "DATABASE_EXECUTE_FAILED", appErr.ErrorCode())
	})
}

func TestUserRepository_FindByEmail(t *testing.T) {
	mt := newMockTest(t)

	mt.Run("found with password", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			userDoc(id, "jane@example.com", bson.E{Key: "password", Value: "hash"}, bson.E{Key: "age", Value: int32(25)})))
		repo := newTestRepository(mt)

		user, err := repo.FindByEmail(context.Background(), "jane@example.com", true)

		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), user.ID)
		assert.Equal(mt, "hash", user.PasswordHash)
		require.NotNil(mt, user.Age)
		assert.Equal(mt, 25, *user.Age)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "find", started.CommandName)
		_, err = started.Command.LookupErr("projection")
		assert.Error(mt, err)
	})

	mt.Run("projection drops password", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			userDoc(primitive.NewObjectID(), "jane@example.com")))
		repo := newTestRepository(mt)

		user, err := repo.FindByEmail(context.Background(), "jane@example.com", false)

		require.NoError(mt, err)
		assert.Empty(mt, user.PasswordHash)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		projection, err := started.Command.LookupErr("projection")
		require.NoError(mt, err)
		assert.Equal(mt, int32(0), projection.Document().Lookup("password").Int32())
	})

	mt.Run("not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))
		repo := newTestRepository(mt)

		_, err := repo.FindByEmail(context.Background(), "ghost@example.com", true)

		assert.ErrorIs(mt, err, repository.ErrUserNotFound)
	})
}

func TestUserRepository_FindByID(t *testing.T) {
	mt := newMockTest(t)

	mt.Run("found", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, userDoc(id, "jane@example.com")))
		repo := newTestRepository(mt)

		user, err := repo.FindByID(context.Background(), id.Hex(), false)

		require.NoError(mt, err)
		assert.Equal(mt, "jane@example.com", user.Email)
		assert.Nil(mt, user.Age)
	})

	mt.Run("with password skips projection", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			userDoc(id, "jane@example.com", bson.E{Key: "password", Value: "hash"})))
		repo := newTestRepository(mt)

		user, err := repo.FindByID(context.Background(), id.Hex(), true)

		require.NoError(mt, err)
		assert.Equal(mt, "hash", user.PasswordHash)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		_, err = started.Command.LookupErr("projection")
		assert.Error(mt, err)
	})

	mt.Run("malformed id is not found", func(mt *mtest.T) {
		repo := newTestRepository(mt)

		_, err := repo.FindByID(context.Background(), "not-an-object-id", false)

		assert.ErrorIs(mt, err, repository.ErrUserNotFound)
		assert.Nil(mt, mt.GetStartedEvent())
	})
}

func TestUserRepository_List(t *testing.T) {
	mt := newMockTest(t)

	mt.Run("returns documents in server order", func(mt *mtest.T) {
		first := mtest.CreateCursorResponse(1, namespace(mt), mtest.FirstBatch,
			userDoc(primitive.NewObjectID(), "jane@example.com"))
		next := mtest.CreateCursorResponse(0, namespace(mt), mtest.NextBatch,
			userDoc(primitive.NewObjectID(), "john@example.com"))
		mt.AddMockResponses(first, next)
		repo := newTestRepository(mt)

		users, err := repo.List(context.Background())

		require.NoError(mt, err)
		require.Len(mt, users, 2)
		assert.Equal(mt, "jane@example.com", users[0].Email)
		assert.Equal(mt, "john@example.com", users[1].Email)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		sort, err := started.Command.LookupErr("sort")
		require.NoError(mt, err)
		assert.Equal(mt, int32(1), sort.Document().Lookup("createdAt").Int32())
	})

	mt.Run("empty collection", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))
		repo := newTestRepository(mt)

		users, err := repo.List(context.Background())

		require.NoError(mt, err)
		assert.NotNil(mt, users)
		assert.Empty(mt, users)
	})
}

func TestUserRepository_Update(t *testing.T) {
	mt := newMockTest(t)

	mt.Run("returns updated document", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		updated := userDoc(id, "jane@example.com")
		updated[1] = bson.E{Key: "name", Value: "Janet"}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: updated}))
		repo := newTestRepository(mt)

		name := "Janet"
		user, err := repo.Update(context.Background(), id.Hex(), &entity.UserPatch{Name: &name})

		require.NoError(mt, err)
		assert.Equal(mt, "Janet", user.Name)
		assert.Equal(mt, id.Hex(), user.ID)
	})

	mt.Run("unknown id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := newTestRepository(mt)

		name := "Janet"
		_, err := repo.Update(context.Background(), primitive.NewObjectID().Hex(), &entity.UserPatch{Name: &name})

		assert.ErrorIs(mt, err, repository.ErrUserNotFound)
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Name:    "DuplicateKey",
			Message: "E11000 duplicate key error",
		}))
		repo := newTestRepository(mt)

		email := "taken@example.com"
		_, err := repo.Update(context.Background(), primitive.NewObjectID().Hex(), &entity.UserPatch{Email: &email})

		assert.True(mt, errors.Is(err, domainerrors.ErrDuplicateEmail))
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		repo := newTestRepository(mt)

		_, err := repo.Update(context.Background(), "xyz", &entity.UserPatch{ClearAge: true})

		assert.ErrorIs(mt, err, repository.ErrUserNotFound)
	})
}

func TestUserRepository_Delete(t *testing.T) {
	mt := newMockTest(t)

	mt.Run("deletes then reports not found", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)
		repo := newTestRepository(mt)
		id := primitive.NewObjectID().Hex()

		require.NoError(mt, repo.Delete(context.Background(), id))
		assert.ErrorIs(mt, repo.Delete(context.Background(), id), repository.ErrUserNotFound)
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		repo := newTestRepository(mt)

		assert.ErrorIs(mt, repo.Delete(context.Background(), "123"), repository.ErrUserNotFound)
	})
}

func TestBuildUpdate(t *testing.T) {
	name := "Janet"
	age := 30

	update := buildUpdate(&entity.UserPatch{Name: &name, Age: &age}, fixedNow)
	assert.Equal(t, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "updatedAt", Value: fixedNow},
			{Key: "name", Value: "Janet"},
			{Key: "age", Value: 30},
		}},
	}, update)

	cleared := buildUpdate(&entity.UserPatch{Age: &age, ClearAge: true}, fixedNow)
	assert.Equal(t, bson.D{
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: fixedNow}}},
		{Key: "$unset", Value: bson.D{{Key: "age", Value: ""}}},
	}, cleared)
}
