package mongodb

import (
	"context"
	"time"

	"userhub/config"
	"userhub/internal/domain/entity"
	domainerrors "userhub/internal/domain/errors"
	"userhub/internal/domain/repository"
	"userhub/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// withoutPassword is the projection used by every read that does not ask for the hash.
var withoutPassword = bson.D{{Key: "password", Value: 0}}

// userRepository implements the domain.UserRepository interface on a single collection.
type userRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewUserRepository is the constructor for userRepository.
func NewUserRepository(db *mongo.Database, cfg *config.Config) repository.UserRepository {
	return newUserRepository(db.Collection(cfg.Mongo.Collection), time.Now)
}

func newUserRepository(coll *mongo.Collection, now func() time.Time) *userRepository {
	return &userRepository{coll: coll, now: now}
}

// Create inserts a new document. The unique email index decides duplicates.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	// BSON dates carry millisecond precision.
	now := repo.now().UTC().Truncate(time.Millisecond)

	doc := model.FromUserDomainDocument(user)
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainerrors.ErrDuplicateEmail.WrapMessage("email already exists")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create user")
	}

	user.ID = doc.ID.Hex()
	user.CreatedAt = doc.CreatedAt
	user.UpdatedAt = doc.UpdatedAt

	return nil
}

// FindByEmail retrieves a single user by their email address.
func (repo *userRepository) FindByEmail(ctx context.Context, email string, withPassword bool) (*entity.User, error) {
	opts := options.FindOne()
	if !withPassword {
		opts.SetProjection(withoutPassword)
	}

	return repo.findOne(ctx, bson.D{{Key: "email", Value: email}}, opts, "failed to find user by email")
}

// FindByID retrieves a single user by the hex form of its ObjectID.
func (repo *userRepository) FindByID(ctx context.Context, id string, withPassword bool) (*entity.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrUserNotFound
	}

	opts := options.FindOne()
	if !withPassword {
		opts.SetProjection(withoutPassword)
	}

	return repo.findOne(ctx, bson.D{{Key: "_id", Value: oid}}, opts, "failed to find user by id")
}

func (repo *userRepository) findOne(ctx context.Context, filter bson.D, opts *options.FindOneOptions, details string) (*entity.User, error) {
	var doc model.UserDocument
	if err := repo.coll.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrUserNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, details)
	}

	return doc.ToUserDomain(), nil
}

// List returns all users ordered by creation time.
func (repo *userRepository) List(ctx context.Context) ([]*entity.User, error) {
	opts := options.Find().
		SetProjection(withoutPassword).
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := repo.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to list users")
	}

	var docs []model.UserDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to decode users")
	}

	users := make([]*entity.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].ToUserDomain())
	}

	return users, nil
}

// Update applies the patch atomically and returns the document after the write.
func (repo *userRepository) Update(ctx context.Context, id string, patch *entity.UserPatch) (*entity.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrUserNotFound
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(withoutPassword)

	var doc model.UserDocument
	err = repo.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, buildUpdate(patch, repo.now()), opts).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, repository.ErrUserNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, domainerrors.ErrDuplicateEmail.WrapMessage("email already exists")
		default:
			return nil, domainerrors.NewDatabaseExecuteError(err, "failed to update user")
		}
	}

	return doc.ToUserDomain(), nil
}

// Delete removes a user document.
func (repo *userRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrUserNotFound
	}

	result, err := repo.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete user")
	}
	if result.DeletedCount == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// buildUpdate maps a patch to $set and $unset operators.
func buildUpdate(patch *entity.UserPatch, now time.Time) bson.D {
	set := bson.D{{Key: "updatedAt", Value: now.UTC().Truncate(time.Millisecond)}}
	if patch.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *patch.Email})
	}
	if patch.PasswordHash != nil {
		set = append(set, bson.E{Key: "password", Value: *patch.PasswordHash})
	}
	if !patch.ClearAge && patch.Age != nil {
		set = append(set, bson.E{Key: "age", Value: *patch.Age})
	}

	update := bson.D{{Key: "$set", Value: set}}
	if patch.ClearAge {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: "age", Value: ""}}})
	}

	return update
}
