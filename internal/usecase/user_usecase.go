package usecase

import (
	"context"

	"userhub/internal/domain/entity"
)

// CreateUserInput is the full user payload accepted by the generic create operation.
// It follows the same rules as registration; the password is stored hashed and never returned.
type CreateUserInput = RegisterUserInput

// UpdateUserInput carries a partial update. Nil fields are left unchanged.
type UpdateUserInput struct {
	Name     *string `json:"name" validate:"omitnil,min=2,max=100"`
	Email    *string `json:"email" validate:"omitnil,useremail"`
	Password *string `json:"password" validate:"omitnil,min=6,bcryptmax"`
	Age      *int    `json:"age" validate:"omitnil,gte=18"`
	ClearAge bool    `json:"-"` // Set when the request explicitly nulls the age.
}

// ListUsersOutput holds every stored user.
type ListUsersOutput struct {
	Users []*entity.User
}

// UserUsecase defines the generic CRUD operations on user records.
type UserUsecase interface {
	Create(ctx context.Context, input *CreateUserInput) (*entity.User, error)
	List(ctx context.Context) (*ListUsersOutput, error)
	Get(ctx context.Context, id string) (*entity.User, error)
	Update(ctx context.Context, id string, input *UpdateUserInput) (*entity.User, error)
	Delete(ctx context.Context, id string) error
}
