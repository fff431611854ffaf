package inmemory_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/models/user"
	repo "taskboard/internal/repository"
	"taskboard/internal/repository/user/inmemory"
)

func TestUserStorage(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewUserStorage()

	created := &user.User{
		UUID:         uuid.New(),
		Email:        "test@example.com",
		Name:         "Test User",
		PasswordHash: "hash",
		Roles:        []user.Role{user.RoleUser},
	}
	require.NoError(t, storage.Create(ctx, created))

	t.Run("lookup by email and id", func(t *testing.T) {
		byEmail, err := storage.GetByEmail(ctx, "test@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.UUID, byEmail.UUID)

		byID, err := storage.GetByID(ctx, created.UUID)
		require.NoError(t, err)
		assert.Equal(t, "test@example.com", byID.Email)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		duplicate := &user.User{
			UUID:  uuid.New(),
			Email: "test@example.com",
			Name:  "Another",
		}
		assert.ErrorIs(t, storage.Create(ctx, duplicate), repo.ErrEmailTaken)
	})

	t.Run("unknown lookups", func(t *testing.T) {
		_, err := storage.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, repo.ErrNotFound)

		_, err = storage.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, repo.ErrNotFound)
	})
}
