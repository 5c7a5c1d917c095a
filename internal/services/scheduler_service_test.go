// internal/services/scheduler_service_test.go
package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/baraholka/backend/internal/config"
	"github.com/baraholka/backend/internal/models"
)

type SchedulerServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	listings  *ListingService
	scheduler *SchedulerService
	author    *models.User
}

func (suite *SchedulerServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.listings = NewListingService(suite.db, nil, nil, nil, config.ModerationConfig{})
	suite.scheduler = NewSchedulerService(suite.db, suite.listings, config.SchedulerConfig{
		ArchiveAfter: 24 * time.Hour,
	})
	suite.author = createTestUser(suite.T(), suite.db)
}

// backdate rewrites a row's timestamp column without touching update hooks.
func (suite *SchedulerServiceTestSuite) backdate(model interface{}, column string, id interface{}, to time.Time) {
	suite.NoError(suite.db.Model(model).Where("id = ?", id).UpdateColumn(column, to).Error)
}

func (suite *SchedulerServiceTestSuite) TestSweepArchivesOnlyStalePublished() {
	stale := createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusPublished)
	fresh := createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusPublished)
	pending := createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusUnverified)

	twoDaysAgo := time.Now().Add(-48 * time.Hour)
	suite.backdate(&models.Listing{}, "updated_at", stale.ID, twoDaysAgo)
	suite.backdate(&models.Listing{}, "updated_at", pending.ID, twoDaysAgo)

	archived, err := suite.scheduler.SweepStaleListings(context.Background(), 24*time.Hour)
	suite.NoError(err)
	suite.Equal(1, archived)

	suite.Equal(models.ListingStatusArchived, listingStatus(suite.T(), suite.db, stale.ID))
	suite.Equal(models.ListingStatusPublished, listingStatus(suite.T(), suite.db, fresh.ID))
	// A stale Unverified listing is not the sweep's business.
	suite.Equal(models.ListingStatusUnverified, listingStatus(suite.T(), suite.db, pending.ID))
}

func (suite *SchedulerServiceTestSuite) TestSweepIsIdempotent() {
	stale := createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusPublished)
	suite.backdate(&models.Listing{}, "updated_at", stale.ID, time.Now().Add(-48*time.Hour))

	archived, err := suite.scheduler.SweepStaleListings(context.Background(), 24*time.Hour)
	suite.NoError(err)
	suite.Equal(1, archived)

	archived, err = suite.scheduler.SweepStaleListings(context.Background(), 24*time.Hour)
	suite.NoError(err)
	suite.Zero(archived)
}

func (suite *SchedulerServiceTestSuite) TestSweepRunLock() {
	atomic.StoreInt32(&suite.scheduler.sweeping, 1)
	defer atomic.StoreInt32(&suite.scheduler.sweeping, 0)

	_, err := suite.scheduler.SweepStaleListings(context.Background(), 24*time.Hour)
	suite.ErrorIs(err, ErrSweepInProgress)
}

func (suite *SchedulerServiceTestSuite) TestSweepStopsOnCancelledContext() {
	stale := createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusPublished)
	suite.backdate(&models.Listing{}, "updated_at", stale.ID, time.Now().Add(-48*time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	archived, err := suite.scheduler.SweepStaleListings(ctx, 24*time.Hour)
	suite.NoError(err)
	suite.Zero(archived)
	suite.Equal(models.ListingStatusPublished, listingStatus(suite.T(), suite.db, stale.ID))
}

func (suite *SchedulerServiceTestSuite) TestAggregateDailyStats() {
	yesterday := time.Now().UTC().AddDate(0, 0, -1)

	listing := createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusPublished)
	viewer := createTestUser(suite.T(), suite.db)

	engagement := NewEngagementService(suite.db)
	_, err := engagement.RecordView(listing.ID, ViewerIdentity{UserID: &viewer.ID})
	suite.NoError(err)
	_, err = engagement.ToggleFavorite(viewer.ID, listing.ID)
	suite.NoError(err)

	// Move everything to yesterday so the snapshot picks it up.
	suite.NoError(suite.db.Model(&models.User{}).Where("1 = 1").
		UpdateColumn("created_at", yesterday).Error)
	suite.NoError(suite.db.Model(&models.Listing{}).Where("1 = 1").
		UpdateColumn("created_at", yesterday).Error)
	suite.NoError(suite.db.Model(&models.ListingView{}).Where("1 = 1").
		UpdateColumn("created_at", yesterday).Error)
	suite.NoError(suite.db.Model(&models.Favorite{}).Where("1 = 1").
		UpdateColumn("created_at", yesterday).Error)

	suite.NoError(suite.scheduler.AggregateDailyStats(yesterday))

	var snapshot models.DailyStats
	suite.NoError(suite.db.First(&snapshot).Error)
	suite.Equal(int64(2), snapshot.NewUsers)
	suite.Equal(int64(1), snapshot.NewListings)
	suite.Equal(int64(1), snapshot.ListingViews)
	suite.Equal(int64(1), snapshot.FavoritesAdded)

	// Running again for the same date leaves the snapshot alone.
	other := createTestUser(suite.T(), suite.db)
	suite.backdate(&models.User{}, "created_at", other.ID, yesterday)
	suite.NoError(suite.scheduler.AggregateDailyStats(yesterday))

	var count int64
	suite.NoError(suite.db.Model(&models.DailyStats{}).Count(&count).Error)
	suite.Equal(int64(1), count)

	suite.NoError(suite.db.First(&snapshot).Error)
	suite.Equal(int64(2), snapshot.NewUsers)
}

func TestSchedulerServiceSuite(t *testing.T) {
	suite.Run(t, new(SchedulerServiceTestSuite))
}
