package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/spacer-backend/internal/common/config"
	"github.com/dumeirei/spacer-backend/internal/common/database"
	"github.com/dumeirei/spacer-backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{Driver: database.DriverSQLite, Path: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, models.All()...))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	user := &models.User{Name: "user " + email, Email: email, PasswordHash: "hash", Role: role}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestSpace(t *testing.T, db *gorm.DB, ownerID int64, location string, capacity int, available bool) *models.Space {
	t.Helper()
	space := &models.Space{
		OwnerID:      ownerID,
		Title:        "Room " + location,
		Location:     location,
		Capacity:     capacity,
		Amenities:    []string{"wifi"},
		PricePerHour: 50,
		IsAvailable:  true,
	}
	require.NoError(t, db.Create(space).Error)
	// gorm 对零值 false 使用默认值，需显式更新
	if !available {
		require.NoError(t, db.Model(space).Update("is_available", false).Error)
		space.IsAvailable = false
	}
	return space
}

func createTestBooking(t *testing.T, db *gorm.DB, clientID, spaceID int64, status string) *models.Booking {
	t.Helper()
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	booking := &models.Booking{
		ClientID:      clientID,
		SpaceID:       spaceID,
		StartDatetime: start,
		EndDatetime:   start.Add(2 * time.Hour),
		DurationHours: 2,
		TotalPrice:    100,
		Status:        status,
	}
	require.NoError(t, db.Create(booking).Error)
	return booking
}

func createTestPayment(t *testing.T, db *gorm.DB, bookingID, clientID int64) *models.Payment {
	t.Helper()
	payment := &models.Payment{
		BookingID:     bookingID,
		ClientID:      clientID,
		Amount:        100,
		PaymentMethod: models.DefaultPaymentMethod,
		PaymentStatus: models.PaymentStatusPending,
	}
	require.NoError(t, db.Create(payment).Error)
	return payment
}

// fixture 两个所有者各一个场地，两个客户各一个预订
type fixture struct {
	ownerA, ownerB   *models.User
	clientA, clientB *models.User
	spaceA, spaceB   *models.Space
	bookingA         *models.Booking // clientA 预订 spaceA
	bookingB         *models.Booking // clientB 预订 spaceB
}

func setupFixture(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	f := &fixture{
		ownerA:  createTestUser(t, db, "owner-a@example.com", models.RoleOwner),
		ownerB:  createTestUser(t, db, "owner-b@example.com", models.RoleOwner),
		clientA: createTestUser(t, db, "client-a@example.com", models.RoleClient),
		clientB: createTestUser(t, db, "client-b@example.com", models.RoleClient),
	}
	f.spaceA = createTestSpace(t, db, f.ownerA.ID, "Berlin Mitte", 10, true)
	f.spaceB = createTestSpace(t, db, f.ownerB.ID, "Paris", 4, true)
	f.bookingA = createTestBooking(t, db, f.clientA.ID, f.spaceA.ID, models.BookingStatusPending)
	f.bookingB = createTestBooking(t, db, f.clientB.ID, f.spaceB.ID, models.BookingStatusConfirmed)
	return f
}

func TestWithTx_RollsBack(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, repo.WithTx(tx).Create(ctx, &models.User{Name: "tx", Email: "tx@example.com", PasswordHash: "h", Role: models.RoleClient}))
		return gorm.ErrInvalidTransaction
	})
	require.Error(t, err)

	exists, err := repo.ExistsByEmail(ctx, "tx@example.com", 0)
	require.NoError(t, err)
	require.False(t, exists)
}
