// internal/services/testutil_test.go
package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/baraholka/backend/internal/database"
	"github.com/baraholka/backend/internal/models"
)

var testTelegramID int64

// newTestDB opens a fresh in-memory sqlite database with the full schema,
// including the partial unique indexes the view ledger depends on.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the shared in-memory database alive and
	// serializes concurrent writers, which sqlite requires anyway.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Currency{},
		&models.City{},
		&models.Listing{},
		&models.ListingView{},
		&models.Favorite{},
		&models.Notification{},
		&models.Banner{},
		&models.DailyStats{},
	))
	require.NoError(t, database.CreateEngagementIndexes(db))

	t.Cleanup(func() { sqlDB.Close() })

	return db
}

func createTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := &models.User{
		TelegramID: atomic.AddInt64(&testTelegramID, 1),
		Username:   fmt.Sprintf("user%d", atomic.LoadInt64(&testTelegramID)),
		FirstName:  "Test",
		Status:     models.UserStatusActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestCategory(t *testing.T, db *gorm.DB) *models.Category {
	t.Helper()

	slug := uuid.New().String()
	category := &models.Category{
		Name: "cat-" + slug[:8],
		Slug: slug,
	}
	require.NoError(t, db.Create(category).Error)
	return category
}

func createTestListing(t *testing.T, db *gorm.DB, author *models.User, status models.ListingStatus) *models.Listing {
	t.Helper()

	category := createTestCategory(t, db)
	listing := &models.Listing{
		AuthorID:    author.ID,
		CategoryID:  category.ID,
		Title:       "Mountain bike",
		Description: "Well used, still rolls",
		Price:       150,
		Status:      status,
	}
	require.NoError(t, db.Create(listing).Error)
	return listing
}

func listingStatus(t *testing.T, db *gorm.DB, id uuid.UUID) models.ListingStatus {
	t.Helper()

	var listing models.Listing
	require.NoError(t, db.First(&listing, "id = ?", id).Error)
	return listing.Status
}
