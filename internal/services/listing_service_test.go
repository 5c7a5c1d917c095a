// internal/services/listing_service_test.go
package services

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/baraholka/backend/internal/config"
	"github.com/baraholka/backend/internal/models"
)

// fakeNotifier records notification calls for assertions.
type fakeNotifier struct {
	mu        sync.Mutex
	moderated []bool
	archived  int
}

func (f *fakeNotifier) NotifyListingModerated(listing *models.Listing, approved bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moderated = append(f.moderated, approved)
}

func (f *fakeNotifier) NotifyListingArchived(listing *models.Listing) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archived++
}

type ListingServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	service  *ListingService
	notifier *fakeNotifier
	author   *models.User
}

func (suite *ListingServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.notifier = &fakeNotifier{}
	// No moderator: verdicts are applied explicitly so tests stay
	// deterministic.
	suite.service = NewListingService(suite.db, nil, suite.notifier, nil, config.ModerationConfig{})
	suite.author = createTestUser(suite.T(), suite.db)
}

func (suite *ListingServiceTestSuite) TestCreateListingStartsUnverified() {
	category := createTestCategory(suite.T(), suite.db)

	listing, err := suite.service.CreateListing(suite.author.ID, &CreateListingRequest{
		Title:       "Old sofa",
		Description: "Three seats, one cat scratch",
		Price:       40,
		CategoryID:  category.ID,
	})
	suite.NoError(err)
	suite.Equal(models.ListingStatusUnverified, listing.Status)
	suite.Equal(suite.author.ID, listing.AuthorID)
}

func (suite *ListingServiceTestSuite) TestCreateListingRejectsBannedAuthor() {
	banned := createTestUser(suite.T(), suite.db)
	suite.NoError(suite.db.Model(banned).Update("status", models.UserStatusBanned).Error)
	category := createTestCategory(suite.T(), suite.db)

	_, err := suite.service.CreateListing(banned.ID, &CreateListingRequest{
		Title:       "Old sofa",
		Description: "Three seats",
		Price:       40,
		CategoryID:  category.ID,
	})
	suite.ErrorIs(err, ErrPermissionDenied)
}

func (suite *ListingServiceTestSuite) TestCreateListingUnknownCategory() {
	_, err := suite.service.CreateListing(suite.author.ID, &CreateListingRequest{
		Title:       "Old sofa",
		Description: "Three seats",
		Price:       40,
		CategoryID:  uuid.New(),
	})
	suite.ErrorIs(err, ErrCategoryNotFound)
}

func (suite *ListingServiceTestSuite) TestModerationVerdicts() {
	listing := createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusUnverified)

	applied, err := suite.service.ApplyModerationResult(listing.ID, true, listing.UpdatedAt)
	suite.NoError(err)
	suite.True(applied)
	suite.Equal(models.ListingStatusApproved, listingStatus(suite.T(), suite.db, listing.ID))
	suite.Equal([]bool{true}, suite.notifier.moderated)

	// A repeated verdict finds the listing no longer Unverified and is
	// dropped.
	applied, err = suite.service.ApplyModerationResult(listing.ID, false, time.Now())
	suite.NoError(err)
	suite.False(applied)
	suite.Equal(models.ListingStatusApproved, listingStatus(suite.T(), suite.db, listing.ID))

	rejected := createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusUnverified)
	applied, err = suite.service.ApplyModerationResult(rejected.ID, false, rejected.UpdatedAt)
	suite.NoError(err)
	suite.True(applied)
	suite.Equal(models.ListingStatusRejected, listingStatus(suite.T(), suite.db, rejected.ID))
}

func (suite *ListingServiceTestSuite) TestAutoPublishVerdict() {
	service := NewListingService(suite.db, nil, nil, nil, config.ModerationConfig{AutoPublish: true})
	listing := createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusUnverified)

	applied, err := service.ApplyModerationResult(listing.ID, true, listing.UpdatedAt)
	suite.NoError(err)
	suite.True(applied)
	suite.Equal(models.ListingStatusPublished, listingStatus(suite.T(), suite.db, listing.ID))
}

func (suite *ListingServiceTestSuite) TestStaleVerdictDiscarded() {
	listing := createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusUnverified)
	dispatchedAt := listing.UpdatedAt

	// The author edits while the verdict is in flight.
	time.Sleep(10 * time.Millisecond)
	newTitle := "Mountain bike, price drop"
	_, err := suite.service.EditListing(listing.ID, suite.author.ID, &UpdateListingRequest{Title: &newTitle})
	suite.NoError(err)

	applied, err := suite.service.ApplyModerationResult(listing.ID, true, dispatchedAt)
	suite.NoError(err)
	suite.False(applied)
	suite.Equal(models.ListingStatusUnverified, listingStatus(suite.T(), suite.db, listing.ID))
}

func (suite *ListingServiceTestSuite) TestPublishRequiresApproved() {
	listing := createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusUnverified)

	_, err := suite.service.PublishListing(listing.ID, suite.author.ID)
	suite.ErrorIs(err, ErrInvalidTransition)

	suite.NoError(suite.db.Model(&models.Listing{}).Where("id = ?", listing.ID).
		Update("status", models.ListingStatusApproved).Error)

	stranger := createTestUser(suite.T(), suite.db)
	_, err = suite.service.PublishListing(listing.ID, stranger.ID)
	suite.ErrorIs(err, ErrPermissionDenied)

	published, err := suite.service.PublishListing(listing.ID, suite.author.ID)
	suite.NoError(err)
	suite.Equal(models.ListingStatusPublished, published.Status)
}

func (suite *ListingServiceTestSuite) TestChangeStatusTable() {
	listing := createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusPublished)

	// Published -> Archived is allowed.
	updated, err := suite.service.ChangeStatus(listing.ID, suite.author.ID, models.ListingStatusArchived)
	suite.NoError(err)
	suite.Equal(models.ListingStatusArchived, updated.Status)

	// Archived -> Published is not; re-entry goes through moderation.
	_, err = suite.service.ChangeStatus(listing.ID, suite.author.ID, models.ListingStatusPublished)
	suite.ErrorIs(err, ErrInvalidTransition)

	// Archived -> Unverified re-submits.
	updated, err = suite.service.ChangeStatus(listing.ID, suite.author.ID, models.ListingStatusUnverified)
	suite.NoError(err)
	suite.Equal(models.ListingStatusUnverified, updated.Status)

	// Unverified has no author-driven transitions.
	_, err = suite.service.ChangeStatus(listing.ID, suite.author.ID, models.ListingStatusArchived)
	suite.ErrorIs(err, ErrInvalidTransition)

	_, err = suite.service.ChangeStatus(listing.ID, suite.author.ID, models.ListingStatus(42))
	suite.ErrorIs(err, ErrInvalidTransition)
}

func (suite *ListingServiceTestSuite) TestEditResetsToUnverified() {
	listing := createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusPublished)

	price := int64(99)
	updated, err := suite.service.EditListing(listing.ID, suite.author.ID, &UpdateListingRequest{Price: &price})
	suite.NoError(err)
	suite.Equal(models.ListingStatusUnverified, updated.Status)
	suite.Equal(int64(99), updated.Price)

	stranger := createTestUser(suite.T(), suite.db)
	_, err = suite.service.EditListing(listing.ID, stranger.ID, &UpdateListingRequest{Price: &price})
	suite.ErrorIs(err, ErrPermissionDenied)
}

func (suite *ListingServiceTestSuite) TestGetListingVisibility() {
	hidden := createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusUnverified)
	public := createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusPublished)
	stranger := createTestUser(suite.T(), suite.db)

	// Anonymous sees published only.
	_, err := suite.service.GetListing(hidden.ID, nil, false)
	suite.ErrorIs(err, ErrListingNotFound)
	_, err = suite.service.GetListing(public.ID, nil, false)
	suite.NoError(err)

	// Another user cannot see a pending listing.
	_, err = suite.service.GetListing(hidden.ID, &stranger.ID, false)
	suite.ErrorIs(err, ErrListingNotFound)

	// The author and staff can.
	_, err = suite.service.GetListing(hidden.ID, &suite.author.ID, false)
	suite.NoError(err)
	_, err = suite.service.GetListing(hidden.ID, nil, true)
	suite.NoError(err)
}

func (suite *ListingServiceTestSuite) TestSearchVisibility() {
	createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusUnverified)
	createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusPublished)
	stranger := createTestUser(suite.T(), suite.db)

	_, total, err := suite.service.SearchListings(ListingSearchParams{})
	suite.NoError(err)
	suite.Equal(int64(1), total)

	_, total, err = suite.service.SearchListings(ListingSearchParams{ViewerID: &stranger.ID})
	suite.NoError(err)
	suite.Equal(int64(1), total)

	_, total, err = suite.service.SearchListings(ListingSearchParams{ViewerID: &suite.author.ID})
	suite.NoError(err)
	suite.Equal(int64(2), total)

	_, total, err = suite.service.SearchListings(ListingSearchParams{Staff: true})
	suite.NoError(err)
	suite.Equal(int64(2), total)
}

func (suite *ListingServiceTestSuite) TestArchiveListingSystem() {
	listing := createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusPublished)

	suite.NoError(suite.service.ArchiveListing(listing.ID))
	suite.Equal(models.ListingStatusArchived, listingStatus(suite.T(), suite.db, listing.ID))
	suite.Equal(1, suite.notifier.archived)

	// Archiving an already archived listing is an invalid transition.
	suite.ErrorIs(suite.service.ArchiveListing(listing.ID), ErrInvalidTransition)

	suite.ErrorIs(suite.service.ArchiveListing(uuid.New()), ErrListingNotFound)
}

func (suite *ListingServiceTestSuite) TestDeleteListingRemovesEngagement() {
	listing := createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusPublished)
	engagement := NewEngagementService(suite.db)
	viewer := createTestUser(suite.T(), suite.db)

	_, err := engagement.RecordView(listing.ID, ViewerIdentity{UserID: &viewer.ID})
	suite.NoError(err)
	_, err = engagement.ToggleFavorite(viewer.ID, listing.ID)
	suite.NoError(err)

	stranger := createTestUser(suite.T(), suite.db)
	suite.ErrorIs(suite.service.DeleteListing(listing.ID, stranger.ID, false), ErrPermissionDenied)

	suite.NoError(suite.service.DeleteListing(listing.ID, suite.author.ID, false))

	var views, favorites int64
	suite.db.Model(&models.ListingView{}).Where("listing_id = ?", listing.ID).Count(&views)
	suite.db.Model(&models.Favorite{}).Where("listing_id = ?", listing.ID).Count(&favorites)
	suite.Zero(views)
	suite.Zero(favorites)

	suite.ErrorIs(suite.service.DeleteListing(listing.ID, suite.author.ID, false), ErrListingNotFound)
}

func TestListingServiceSuite(t *testing.T) {
	suite.Run(t, new(ListingServiceTestSuite))
}
