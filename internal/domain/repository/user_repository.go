// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"userhub/internal/domain/entity"
)

// ErrUserNotFound is a domain-specific error returned when a user is not found.
// Malformed identifiers are reported the same way.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the standard operations for user persistence.
// The application layer will depend on this interface, not the concrete implementation.
//
// Implementations enforce email uniqueness themselves (unique index or equivalent) and
// report a violation as domainerrors.ErrDuplicateEmail. Callers never check before inserting.
type UserRepository interface {
	// Create inserts a new user, assigning ID, CreatedAt and UpdatedAt on the passed entity.
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail retrieves a user by email. The password hash is only populated when withPassword is true.
	FindByEmail(ctx context.Context, email string, withPassword bool) (*entity.User, error)

	// FindByID retrieves a single user by their unique ID. The password hash is only populated when withPassword is true.
	FindByID(ctx context.Context, id string, withPassword bool) (*entity.User, error)

	// List returns every user ordered by creation time, without password hashes.
	List(ctx context.Context) ([]*entity.User, error)

	// Update applies the patch to the user with the given ID and returns the stored result.
	Update(ctx context.Context, id string, patch *entity.UserPatch) (*entity.User, error)

	// Delete removes the user with the given ID.
	Delete(ctx context.Context, id string) error
}
