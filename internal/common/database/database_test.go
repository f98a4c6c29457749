package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/spacer-backend/internal/common/config"
)

type testItem struct {
	ID        int64 `gorm:"primaryKey"`
	Name      string
	CreatedAt time.Time
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(&config.DatabaseConfig{Driver: DriverSQLite, Path: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, Migrate(db, &testItem{}))
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestOpen_SQLite(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Create(&testItem{Name: "a"}).Error)

	var count int64
	require.NoError(t, db.Model(&testItem{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.NoError(t, Ping(context.Background(), db))
}

func TestOpen_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spacer.db")
	db, err := Open(&config.DatabaseConfig{Driver: DriverSQLite, Path: path}, zap.NewNop())
	require.NoError(t, err)
	defer Close(db)

	assert.FileExists(t, path)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle"}, nil)
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestSQLiteParams(t *testing.T) {
	assert.Equal(t, "?_foreign_keys=on", sqliteParams(":memory:"))
	assert.Equal(t, "&_foreign_keys=on", sqliteParams("file:test.db?cache=shared"))
}

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, getLogLevel(true))
	assert.Equal(t, logger.Warn, getLogLevel(false))
}

func TestClose_Nil(t *testing.T) {
	assert.NoError(t, Close(nil))
}

func TestPaginate(t *testing.T) {
	db := openTestDB(t)
	for i := 1; i <= 30; i++ {
		require.NoError(t, db.Create(&testItem{ID: int64(i), Name: "item"}).Error)
	}

	tests := []struct {
		name      string
		offset    int
		limit     int
		wantLen   int
		wantFirst int64
	}{
		{"first page", 0, 10, 10, 1},
		{"second page", 10, 10, 10, 11},
		{"partial page", 25, 10, 5, 26},
		{"negative offset", -5, 10, 10, 1},
		{"zero limit defaults", 0, 0, 10, 1},
		{"limit capped", 0, 500, 30, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var items []testItem
			require.NoError(t, db.Order("id").Scopes(Paginate(tt.offset, tt.limit)).Find(&items).Error)
			assert.Len(t, items, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirst, items[0].ID)
			}
		})
	}
}

func TestOrderByCreatedDesc(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().UTC()
	require.NoError(t, db.Create(&testItem{ID: 1, CreatedAt: now.Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&testItem{ID: 2, CreatedAt: now}).Error)
	require.NoError(t, db.Create(&testItem{ID: 3, CreatedAt: now}).Error)

	var items []testItem
	require.NoError(t, db.Scopes(OrderByCreatedDesc).Find(&items).Error)
	require.Len(t, items, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{items[0].ID, items[1].ID, items[2].ID})
}

type recordingObserver struct {
	mu    sync.Mutex
	calls map[string]int
}

func (r *recordingObserver) ObserveDBQuery(operation, table string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[operation+":"+table]++
}

func TestRegisterQueryObserver(t *testing.T) {
	db := openTestDB(t)
	obs := &recordingObserver{calls: map[string]int{}}
	require.NoError(t, RegisterQueryObserver(db, obs))

	require.NoError(t, db.Create(&testItem{Name: "x"}).Error)
	var items []testItem
	require.NoError(t, db.Find(&items).Error)
	require.NoError(t, db.Model(&testItem{}).Where("id = ?", items[0].ID).Update("name", "y").Error)
	require.NoError(t, db.Delete(&testItem{}, items[0].ID).Error)

	assert.Equal(t, 1, obs.calls["create:test_items"])
	assert.Equal(t, 1, obs.calls["query:test_items"])
	assert.Equal(t, 1, obs.calls["update:test_items"])
	assert.Equal(t, 1, obs.calls["delete:test_items"])

	assert.NoError(t, RegisterQueryObserver(db, nil))
}
