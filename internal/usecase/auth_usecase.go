// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"userhub/internal/domain/entity"
)

// --- Input DTOs ---

// RegisterUserInput defines the data required to register a new user.
// Name and Email are normalized (trimmed, email lowercased) before the tags are checked.
type RegisterUserInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,useremail"`
	Password string `json:"password" validate:"required,min=6,bcryptmax"`
	Age      *int   `json:"age" validate:"omitnil,gte=18"`
}

// LoginInput defines the data required for a user to log in.
// Blank fields fail like any other credential mismatch.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// --- Output DTOs ---

// RegisterOutput returns the newly created user without the password hash.
type RegisterOutput struct {
	User *entity.User
}

// LoginOutput returns the issued bearer token after a successful login.
type LoginOutput struct {
	Token string
	User  *entity.User
}

// AuthUsecase defines the credential-authentication flow.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AuthUsecase interface {
	// Register validates the input, hashes the password and inserts the user.
	Register(ctx context.Context, input *RegisterUserInput) (*RegisterOutput, error)

	// Login verifies the credentials and issues a signed token.
	// Unknown email and wrong password fail with the same error.
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)

	// ComparePassword reports whether raw matches the stored hash.
	ComparePassword(raw, hash string) bool

	// Me returns the user a validated token belongs to.
	Me(ctx context.Context, userID string) (*entity.User, error)
}
