package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dumeirei/spacer-backend/internal/models"
)

func TestBookingRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner@example.com", models.RoleOwner)
	client := createTestUser(t, db, "client@example.com", models.RoleClient)
	space := createTestSpace(t, db, owner.ID, "Berlin", 4, true)

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	booking := &models.Booking{
		ClientID:      client.ID,
		SpaceID:       space.ID,
		StartDatetime: start,
		EndDatetime:   start.Add(2 * time.Hour),
		DurationHours: 2,
		TotalPrice:    100,
		Status:        models.BookingStatusPending,
	}
	require.NoError(t, repo.Create(ctx, booking))
	assert.NotZero(t, booking.ID)

	found, err := repo.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Space)
	assert.Equal(t, owner.ID, found.OwnerUserID())
	assert.Equal(t, client.ID, found.ClientUserID())
	assert.True(t, found.StartDatetime.Equal(start))

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestBookingRepository_RequiresExistingSpace(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	client := createTestUser(t, db, "client@example.com", models.RoleClient)

	err := repo.Create(context.Background(), &models.Booking{
		ClientID:      client.ID,
		SpaceID:       9999,
		StartDatetime: time.Now(),
		EndDatetime:   time.Now().Add(time.Hour),
		Status:        models.BookingStatusPending,
	})
	assert.Error(t, err)
}

func TestBookingRepository_GetForUpdateAndUpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()
	f := setupFixture(t, db)

	err := db.Transaction(func(tx *gorm.DB) error {
		txRepo := repo.WithTx(tx)
		booking, err := txRepo.GetForUpdate(ctx, f.bookingA.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, f.ownerA.ID, booking.OwnerUserID())
		return txRepo.UpdateStatus(ctx, booking.ID, models.BookingStatusConfirmed)
	})
	require.NoError(t, err)

	found, err := repo.GetByID(ctx, f.bookingA.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, found.Status)

	_, err = repo.GetForUpdate(ctx, 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestBookingRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()
	f := setupFixture(t, db)
	// clientA 也预订了 ownerB 的场地
	createTestBooking(t, db, f.clientA.ID, f.spaceB.ID, models.BookingStatusCancelled)

	tests := []struct {
		name   string
		filter BookingFilter
		want   int64
	}{
		{"all", BookingFilter{}, 3},
		{"client A", BookingFilter{ClientID: f.clientA.ID}, 2},
		{"client B", BookingFilter{ClientID: f.clientB.ID}, 1},
		{"owner A", BookingFilter{OwnerID: f.ownerA.ID}, 1},
		{"owner B", BookingFilter{OwnerID: f.ownerB.ID}, 2},
		{"owner B cancelled", BookingFilter{OwnerID: f.ownerB.ID, Status: models.BookingStatusCancelled}, 1},
		{"by space", BookingFilter{SpaceID: f.spaceA.ID}, 1},
		{"owner without spaces", BookingFilter{OwnerID: f.clientB.ID}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookings, total, err := repo.List(ctx, 0, 10, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
			require.Len(t, bookings, int(tt.want))
			for _, b := range bookings {
				assert.NotNil(t, b.Space)
			}
		})
	}
}
