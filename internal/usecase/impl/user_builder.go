// Package impl contains the implementation of the application's business logic.
package impl

import (
	"strings"

	"userhub/internal/domain/entity"
	domainerrors "userhub/internal/domain/errors"
	"userhub/internal/domain/service"
	"userhub/internal/domain/validation"
	"userhub/internal/usecase"

	"github.com/pkg/errors"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeRegisterInput(input *usecase.RegisterUserInput) *usecase.RegisterUserInput {
	normalized := *input
	normalized.Name = strings.TrimSpace(input.Name)
	normalized.Email = normalizeEmail(input.Email)

	return &normalized
}

// buildNewUser validates a full user payload and returns an entity carrying the bcrypt hash.
// Nothing is persisted here.
func buildNewUser(v *validation.Validator, hasher service.PasswordHasher, input *usecase.RegisterUserInput) (*entity.User, error) {
	if input == nil {
		return nil, errors.WithStack(domainerrors.ErrInvalidInput)
	}

	normalized := normalizeRegisterInput(input)
	if err := v.Struct(normalized); err != nil {
		return nil, errors.Wrap(err, "invalid user payload")
	}

	hashedPassword, err := hasher.Hash(normalized.Password)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed.WithDetails(err.Error()), "failed to hash password")
	}

	return &entity.User{
		Name:         normalized.Name,
		Email:        normalized.Email,
		PasswordHash: hashedPassword,
		Age:          normalized.Age,
	}, nil
}
