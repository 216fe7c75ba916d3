package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "userhub/internal/delivery/context"
	"userhub/internal/domain/entity"
	domainerrors "userhub/internal/domain/errors"
	"userhub/internal/domain/repository"
	"userhub/internal/domain/service"
	"userhub/internal/domain/validation"
	"userhub/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// userService implements the UserUsecase interface.
type userService struct {
	userRepo  repository.UserRepository
	hasher    service.PasswordHasher
	validator *validation.Validator
	logger    *slog.Logger
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	UserRepo  repository.UserRepository
	Hasher    service.PasswordHasher
	Validator *validation.Validator
	Logger    *slog.Logger
}

// NewUserService is the constructor for userService.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		userRepo:  params.UserRepo,
		hasher:    params.Hasher,
		validator: params.Validator,
		logger:    params.Logger,
	}
}

func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Create inserts a user from a full payload. The response never carries the password hash.
func (srv *userService) Create(ctx context.Context, input *usecase.CreateUserInput) (*entity.User, error) {
	newUser, err := buildNewUser(srv.validator, srv.hasher, input)
	if err != nil {
		return nil, errors.Wrap(err, "create user")
	}

	if err := srv.userRepo.Create(ctx, newUser); err != nil {
		srv.log(ctx).Warn("Failed to create user", slog.String("email", newUser.Email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to create user")
	}

	srv.log(ctx).Info("User created", slog.String("userID", newUser.ID))

	return newUser.Public(), nil
}

// List returns every user without password hashes.
func (srv *userService) List(ctx context.Context) (*usecase.ListUsersOutput, error) {
	users, err := srv.userRepo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	public := make([]*entity.User, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}

	return &usecase.ListUsersOutput{Users: public}, nil
}

// Get returns a single user.
func (srv *userService) Get(ctx context.Context, id string) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, id, false)
	if err != nil {
		return nil, mapNotFound(err, "failed to get user")
	}

	return user.Public(), nil
}

// Update validates only the supplied fields, hashes a changed password and applies the patch.
func (srv *userService) Update(ctx context.Context, id string, input *usecase.UpdateUserInput) (*entity.User, error) {
	if input == nil {
		return nil, errors.WithStack(domainerrors.ErrInvalidInput)
	}

	normalized := normalizeUpdateInput(input)
	if err := srv.validator.Struct(normalized); err != nil {
		return nil, errors.Wrap(err, "invalid user update")
	}

	patch := &entity.UserPatch{
		Name:     normalized.Name,
		Email:    normalized.Email,
		Age:      normalized.Age,
		ClearAge: normalized.ClearAge,
	}
	if patch.IsEmpty() && normalized.Password == nil {
		return nil, errors.WithStack(domainerrors.NewValidationError(domainerrors.FieldError{
			Message: "At least one field must be provided",
		}))
	}

	if normalized.Password != nil {
		current, err := srv.userRepo.FindByID(ctx, id, true)
		if err != nil {
			return nil, mapNotFound(err, "failed to load user for update")
		}

		// An unchanged password keeps its stored hash.
		if !srv.hasher.Check(*normalized.Password, current.PasswordHash) {
			hashedPassword, err := srv.hasher.Hash(*normalized.Password)
			if err != nil {
				return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed.WithDetails(err.Error()), "failed to hash password")
			}
			patch.PasswordHash = &hashedPassword
		}

		if patch.IsEmpty() {
			return current.Public(), nil
		}
	}

	updated, err := srv.userRepo.Update(ctx, id, patch)
	if err != nil {
		srv.log(ctx).Warn("Failed to update user", slog.String("userID", id), slog.Any("error", err))

		return nil, mapNotFound(err, "failed to update user")
	}

	srv.log(ctx).Info("User updated", slog.String("userID", id))

	return updated.Public(), nil
}

// Delete removes a user. A repeat delete of the same id reports not found.
func (srv *userService) Delete(ctx context.Context, id string) error {
	if err := srv.userRepo.Delete(ctx, id); err != nil {
		return mapNotFound(err, "failed to delete user")
	}

	srv.log(ctx).Info("User deleted", slog.String("userID", id))

	return nil
}

func normalizeUpdateInput(input *usecase.UpdateUserInput) *usecase.UpdateUserInput {
	normalized := *input
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		normalized.Name = &name
	}
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		normalized.Email = &email
	}
	if input.ClearAge {
		normalized.Age = nil
	}

	return &normalized
}

func mapNotFound(err error, message string) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return errors.Wrap(domainerrors.ErrUserNotFound, message)
	}

	return errors.Wrap(err, message)
}
