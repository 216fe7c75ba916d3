// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"userhub/internal/domain/entity"
	domainerrors "userhub/internal/domain/errors"
	"userhub/internal/domain/repository"
	"userhub/internal/infra/persistence/model"
	"userhub/internal/infra/persistence/postgres/query"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gen/field"
	"gorm.io/gorm"
)

// userRepository implements the domain.UserRepository interface using GORM.
type userRepository struct {
	q   *query.Query
	now func() time.Time
}

// NewUserRepository is the constructor for userRepository.
// It initializes the repository with a database connection and the GORM Gen query builder.
// It returns the repository as a domain.UserRepository interface, adhering to dependency inversion.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{
		q:   query.Use(db),
		now: time.Now,
	}
}

// publicColumns is every column except the password hash.
func (repo *userRepository) publicColumns() []field.Expr {
	u := repo.q.UserModel

	return []field.Expr{u.ID, u.Name, u.Email, u.Age, u.CreatedAt, u.UpdatedAt}
}

// Create inserts a new user. The unique index on email decides duplicates.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	id, err := uuid.NewV7()
	if err != nil {
		return errors.Wrap(err, "failed to generate user id")
	}

	now := repo.now().UTC()
	userM := model.FromUserDomain(user)
	userM.ID = id
	userM.CreatedAt = now
	userM.UpdatedAt = now

	if err := repo.q.UserModel.WithContext(ctx).Create(userM); err != nil {
		return translateWriteError(err, "failed to create user")
	}

	user.ID = userM.ID.String()
	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// FindByEmail retrieves a single user by their email address.
func (repo *userRepository) FindByEmail(ctx context.Context, email string, withPassword bool) (*entity.User, error) {
	u := repo.q.UserModel
	do := u.WithContext(ctx)
	if !withPassword {
		do = do.Select(repo.publicColumns()...)
	}

	userM, err := do.Where(u.Email.Eq(email)).Take()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find user by email")
	}

	return userM.ToUserDomain(), nil
}

// FindByID retrieves a single user by their unique ID.
func (repo *userRepository) FindByID(ctx context.Context, id string, withPassword bool) (*entity.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.ErrUserNotFound
	}

	return repo.findByUUID(ctx, uid, withPassword)
}

func (repo *userRepository) findByUUID(ctx context.Context, uid uuid.UUID, withPassword bool) (*entity.User, error) {
	u := repo.q.UserModel
	do := u.WithContext(ctx)
	if !withPassword {
		do = do.Select(repo.publicColumns()...)
	}

	userM, err := do.Where(u.ID.Eq(uid)).Take()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find user by id")
	}

	return userM.ToUserDomain(), nil
}

// List returns all users ordered by creation time.
func (repo *userRepository) List(ctx context.Context) ([]*entity.User, error) {
	u := repo.q.UserModel
	rows, err := u.WithContext(ctx).Select(repo.publicColumns()...).Order(u.CreatedAt, u.ID).Find()
	if err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to list users")
	}

	users := make([]*entity.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.ToUserDomain())
	}

	return users, nil
}

// Update writes the supplied fields and reads the stored row back.
func (repo *userRepository) Update(ctx context.Context, id string, patch *entity.UserPatch) (*entity.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.ErrUserNotFound
	}

	u := repo.q.UserModel
	info, err := u.WithContext(ctx).Where(u.ID.Eq(uid)).Updates(buildUpdates(patch, repo.now().UTC()))
	if err != nil {
		return nil, translateWriteError(err, "failed to update user")
	}
	if info.RowsAffected == 0 {
		return nil, repository.ErrUserNotFound
	}

	return repo.findByUUID(ctx, uid, false)
}

// Delete removes a user permanently.
func (repo *userRepository) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return repository.ErrUserNotFound
	}

	u := repo.q.UserModel
	info, err := u.WithContext(ctx).Where(u.ID.Eq(uid)).Delete()
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete user")
	}
	if info.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// buildUpdates maps a patch to column assignments. A cleared age is written as NULL.
func buildUpdates(patch *entity.UserPatch, now time.Time) map[string]any {
	updates := map[string]any{"updated_at": now}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Email != nil {
		updates["email"] = *patch.Email
	}
	if patch.PasswordHash != nil {
		updates["password"] = *patch.PasswordHash
	}
	if patch.ClearAge {
		updates["age"] = nil
	} else if patch.Age != nil {
		updates["age"] = *patch.Age
	}

	return updates
}

func translateWriteError(err error, details string) error {
	switch {
	case isUniqueConstraintViolation(err):
		return domainerrors.ErrDuplicateEmail.WrapMessage("email already exists")
	case isCheckConstraintViolation(err), isNotNullConstraintViolation(err):
		return domainerrors.ErrInvalidInput.WrapMessage(details)
	default:
		return domainerrors.NewDatabaseExecuteError(err, details)
	}
}
