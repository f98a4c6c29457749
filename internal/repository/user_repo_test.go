package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/spacer-backend/internal/models"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Name: "John", Email: "john@example.com", PasswordHash: "hash", Role: models.RoleClient}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)

	found, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "john@example.com", found.Email)

	found, err = repo.GetByEmail(ctx, "john@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "dup@example.com", models.RoleClient)
	err := repo.Create(ctx, &models.User{Name: "x", Email: "dup@example.com", PasswordHash: "h", Role: models.RoleClient})
	assert.Error(t, err)
}

func TestUserRepository_ExistsByEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "a@example.com", models.RoleClient)

	exists, err := repo.ExistsByEmail(ctx, "a@example.com", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail(ctx, "a@example.com", user.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.ExistsByEmail(ctx, "b@example.com", 0)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserRepository_UpdateFieldsAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "u@example.com", models.RoleClient)
	require.NoError(t, repo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"role":        models.RoleOwner,
		"is_verified": true,
	}))

	found, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, found.Role)
	assert.True(t, found.IsVerified)

	require.NoError(t, repo.Delete(ctx, user.ID))
	_, err = repo.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "alice@example.com", models.RoleClient)
	createTestUser(t, db, "bob@example.com", models.RoleOwner)
	createTestUser(t, db, "carol@example.com", models.RoleClient)

	users, total, err := repo.List(ctx, 0, 10, UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, users, 3)

	users, total, err = repo.List(ctx, 0, 10, UserFilter{Role: models.RoleClient})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, u := range users {
		assert.Equal(t, models.RoleClient, u.Role)
	}

	users, total, err = repo.List(ctx, 0, 10, UserFilter{Keyword: "bob"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "bob@example.com", users[0].Email)

	users, total, err = repo.List(ctx, 0, 2, UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, users, 2)
}

func TestUserRepository_CountRecords(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	f := setupFixture(t, db)
	createTestPayment(t, db, f.bookingA.ID, f.clientA.ID)

	counts, err := repo.CountRecords(ctx, f.ownerA.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Spaces)
	assert.True(t, counts.Any())

	counts, err = repo.CountRecords(ctx, f.clientA.ID)
	require.NoError(t, err)
	assert.Equal(t, UserRecordCounts{Bookings: 1, Payments: 1}, counts)

	lonely := createTestUser(t, db, "lonely@example.com", models.RoleClient)
	counts, err = repo.CountRecords(ctx, lonely.ID)
	require.NoError(t, err)
	assert.False(t, counts.Any())
}
