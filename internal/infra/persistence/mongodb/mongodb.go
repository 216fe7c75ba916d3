// Package mongodb implements the user store on MongoDB.
package mongodb

import (
	"context"
	"log/slog"

	"userhub/config"
	"userhub/internal/domain/lifecycle"
	"userhub/internal/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
)

const (
	codeNamespaceExists = 48
	emailIndexName      = "users_email_unique"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New creates the MongoDB client and returns the configured database.
// The connection is verified and the users collection prepared on start.
func New(params Params) (*mongo.Database, error) {
	cfg := params.Config.Mongo

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(context.Background(), clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create MongoDB client")
	}
	db := client.Database(cfg.Database)

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := client.Ping(ctx, nil); err != nil {
				return errors.Wrap(err, "failed to ping MongoDB")
			}

			if err := EnsureSchema(ctx, db, cfg.Collection, params.Config.Store.Migrate); err != nil {
				return err
			}
			params.Logger.Info("MongoDB connected",
				slog.String("database", cfg.Database),
				slog.String("collection", cfg.Collection),
			)

			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	})

	return db, nil
}

// EnsureSchema creates the unique email index and, when withValidator is set,
// installs the collection's $jsonSchema validator. Both steps are idempotent.
func EnsureSchema(ctx context.Context, db *mongo.Database, collection string, withValidator bool) error {
	if withValidator {
		if err := applyValidator(ctx, db, collection); err != nil {
			return err
		}
	}

	_, err := db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(emailIndexName),
	})
	if err != nil {
		return errors.Wrapf(err, "failed to create unique email index on %s", collection)
	}

	return nil
}

func applyValidator(ctx context.Context, db *mongo.Database, collection string) error {
	err := db.CreateCollection(ctx, collection, options.CreateCollection().SetValidator(userSchema()))
	if err == nil {
		return nil
	}

	var cmdErr mongo.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Code != codeNamespaceExists {
		return errors.Wrapf(err, "failed to create collection %s", collection)
	}

	// The collection exists already; replace its validator in place.
	err = db.RunCommand(ctx, bson.D{
		{Key: "collMod", Value: collection},
		{Key: "validator", Value: userSchema()},
	}).Err()
	if err != nil {
		return errors.Wrapf(err, "failed to update validator of collection %s", collection)
	}

	return nil
}

func userSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "email", "password"},
			"properties": bson.M{
				"name":      bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
				"email":     bson.M{"bsonType": "string"},
				"password":  bson.M{"bsonType": "string"},
				"age":       bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 18},
				"createdAt": bson.M{"bsonType": "date"},
				"updatedAt": bson.M{"bsonType": "date"},
			},
		},
	}
}
