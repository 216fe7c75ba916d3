// Package memory keeps users in process memory. It backs the "memory" store driver and handler tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"userhub/internal/domain/entity"
	domainerrors "userhub/internal/domain/errors"
	"userhub/internal/domain/repository"

	"github.com/google/uuid"
)

// userRepository indexes users by id and by email under a single lock,
// so the uniqueness check and the insert happen as one step.
type userRepository struct {
	mu      sync.RWMutex
	byID    map[string]*entity.User
	byEmail map[string]string
	now     func() time.Time
}

// NewUserRepository returns an empty in-memory user store.
func NewUserRepository() repository.UserRepository {
	return newUserRepository(time.Now)
}

func newUserRepository(now func() time.Time) *userRepository {
	return &userRepository{
		byID:    make(map[string]*entity.User),
		byEmail: make(map[string]string),
		now:     now,
	}
}

func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, exists := repo.byEmail[user.Email]; exists {
		return domainerrors.ErrDuplicateEmail.WrapMessage("email already exists")
	}

	now := repo.now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	repo.byID[user.ID] = cloneUser(user)
	repo.byEmail[user.Email] = user.ID

	return nil
}

func (repo *userRepository) FindByEmail(ctx context.Context, email string, withPassword bool) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repo.mu.RLock()
	defer repo.mu.RUnlock()

	id, ok := repo.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	user := cloneUser(repo.byID[id])
	if !withPassword {
		user.PasswordHash = ""
	}

	return user, nil
}

func (repo *userRepository) FindByID(ctx context.Context, id string, withPassword bool) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repo.mu.RLock()
	defer repo.mu.RUnlock()

	stored, ok := repo.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	if withPassword {
		return cloneUser(stored), nil
	}

	return stored.Public(), nil
}

// List returns users ordered by creation time, oldest first.
func (repo *userRepository) List(ctx context.Context) ([]*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repo.mu.RLock()
	users := make([]*entity.User, 0, len(repo.byID))
	for _, stored := range repo.byID {
		users = append(users, stored.Public())
	}
	repo.mu.RUnlock()

	slices.SortStableFunc(users, func(a, b *entity.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}

		return strings.Compare(a.ID, b.ID)
	})

	return users, nil
}

func (repo *userRepository) Update(ctx context.Context, id string, patch *entity.UserPatch) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	stored, ok := repo.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	if patch.Email != nil && *patch.Email != stored.Email {
		if _, taken := repo.byEmail[*patch.Email]; taken {
			return nil, domainerrors.ErrDuplicateEmail.WrapMessage("email already exists")
		}
	}

	updated := cloneUser(stored)
	patch.Apply(updated)
	updated.UpdatedAt = repo.now().UTC()

	if updated.Email != stored.Email {
		delete(repo.byEmail, stored.Email)
		repo.byEmail[updated.Email] = id
	}
	repo.byID[id] = updated

	return updated.Public(), nil
}

func (repo *userRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	stored, ok := repo.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}

	delete(repo.byEmail, stored.Email)
	delete(repo.byID, id)

	return nil
}

func cloneUser(u *entity.User) *entity.User {
	clone := *u
	if u.Age != nil {
		age := *u.Age
		clone.Age = &age
	}

	return &clone
}
