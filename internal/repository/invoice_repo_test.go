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

func newTestInvoice(bookingID, clientID int64, no string) *models.Invoice {
	return &models.Invoice{
		BookingID:  bookingID,
		ClientID:   clientID,
		InvoiceNo:  no,
		InvoiceURL: "https://invoices.example.com/" + no,
		IssuedAt:   time.Now().UTC(),
	}
}

func TestInvoiceRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()
	f := setupFixture(t, db)

	invoice := newTestInvoice(f.bookingA.ID, f.clientA.ID, "INV001")
	require.NoError(t, repo.Create(ctx, invoice))
	assert.NotZero(t, invoice.ID)

	found, err := repo.GetByID(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV001", found.InvoiceNo)
	assert.Equal(t, f.ownerA.ID, found.OwnerUserID())

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestInvoiceRepository_OnePerBooking(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()
	f := setupFixture(t, db)

	exists, err := repo.ExistsForBooking(ctx, f.bookingA.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Create(ctx, newTestInvoice(f.bookingA.ID, f.clientA.ID, "INV001")))

	exists, err = repo.ExistsForBooking(ctx, f.bookingA.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	// 唯一索引兜底
	assert.Error(t, repo.Create(ctx, newTestInvoice(f.bookingA.ID, f.clientA.ID, "INV002")))
}

func TestInvoiceRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()
	f := setupFixture(t, db)
	require.NoError(t, repo.Create(ctx, newTestInvoice(f.bookingA.ID, f.clientA.ID, "INV001")))
	require.NoError(t, repo.Create(ctx, newTestInvoice(f.bookingB.ID, f.clientB.ID, "INV002")))

	tests := []struct {
		name   string
		filter InvoiceFilter
		want   []string
	}{
		{"all", InvoiceFilter{}, []string{"INV001", "INV002"}},
		{"client A", InvoiceFilter{ClientID: f.clientA.ID}, []string{"INV001"}},
		{"owner B", InvoiceFilter{OwnerID: f.ownerB.ID}, []string{"INV002"}},
		{"owner A as client", InvoiceFilter{ClientID: f.ownerA.ID}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoices, total, err := repo.List(ctx, 0, 10, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), total)
			var got []string
			for _, inv := range invoices {
				got = append(got, inv.InvoiceNo)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}
