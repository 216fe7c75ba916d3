package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserDocument mirrors a document of the users collection.
type UserDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password,omitempty"`
	Age       *int               `bson:"age,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}
