package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airnode/airtrack-backend/internal/core/domain"
	apperrors "github.com/airnode/airtrack-backend/internal/core/errors"
	"github.com/airnode/airtrack-backend/internal/core/ports"
)

func newTestUserRepo(t *testing.T) ports.UserRepository {
	require.NotNil(t, testPool, "testPool is nil. TestMain may not have run.")
	return NewUserRepository(testPool)
}

// createTestUser inserts a user with a unique email.
func createTestUser(t *testing.T, ctx context.Context, repo ports.UserRepository, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:             uuid.New(),
		FullName:       "Test User",
		Email:          uuid.NewString() + "@example.com",
		Role:           role,
		HashedPassword: "not-a-real-hash",
		CreatedAt:      time.Now().UTC(),
	}
	created, err := repo.Create(ctx, user)
	require.NoError(t, err)
	return created
}

func TestUserRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestUserRepo(t)

	user := createTestUser(t, ctx, repo, domain.RolePassenger)

	found, err := repo.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, domain.RolePassenger, found.Role)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := newTestUserRepo(t)

	user := createTestUser(t, ctx, repo, domain.RolePassenger)

	dup := &domain.User{
		ID:             uuid.New(),
		FullName:       "Someone Else",
		Email:          user.Email,
		Role:           domain.RolePassenger,
		HashedPassword: "not-a-real-hash",
		CreatedAt:      time.Now().UTC(),
	}
	_, err := repo.Create(ctx, dup)
	assert.ErrorIs(t, err, apperrors.ErrUserExists)
}

func TestUserRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := newTestUserRepo(t)

	user := createTestUser(t, ctx, repo, domain.RolePassenger)
	user.FullName = "Renamed User"
	user.Role = domain.RoleBaggage

	updated, err := repo.Update(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "Renamed User", updated.FullName)
	assert.Equal(t, domain.RoleBaggage, updated.Role)
	require.NotNil(t, updated.UpdatedAt)
}

func TestUserRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newTestUserRepo(t)

	user := createTestUser(t, ctx, repo, domain.RolePassenger)

	require.NoError(t, repo.Delete(ctx, user.ID))

	_, err := repo.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserRepository_GetUnknown(t *testing.T) {
	ctx := context.Background()
	repo := newTestUserRepo(t)

	_, err := repo.GetByEmail(ctx, strings.ToLower(uuid.NewString())+"@nowhere.example.com")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
