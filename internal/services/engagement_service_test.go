// internal/services/engagement_service_test.go
package services

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/baraholka/backend/internal/models"
	"github.com/baraholka/backend/internal/utils"
)

type EngagementServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *EngagementService
	author  *models.User
	listing *models.Listing
}

func (suite *EngagementServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.service = NewEngagementService(suite.db)
	suite.author = createTestUser(suite.T(), suite.db)
	suite.listing = createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusPublished)
}

func (suite *EngagementServiceTestSuite) TestRecordViewDeduplicatesUser() {
	viewer := createTestUser(suite.T(), suite.db)

	recorded, err := suite.service.RecordView(suite.listing.ID, ViewerIdentity{UserID: &viewer.ID})
	suite.NoError(err)
	suite.True(recorded)

	// The same user again is a no-op, not an error.
	recorded, err = suite.service.RecordView(suite.listing.ID, ViewerIdentity{UserID: &viewer.ID})
	suite.NoError(err)
	suite.False(recorded)

	count, err := suite.service.CountViews(suite.listing.ID)
	suite.NoError(err)
	suite.Equal(int64(1), count)

	// A different user is a new view.
	other := createTestUser(suite.T(), suite.db)
	recorded, err = suite.service.RecordView(suite.listing.ID, ViewerIdentity{UserID: &other.ID})
	suite.NoError(err)
	suite.True(recorded)
}

func (suite *EngagementServiceTestSuite) TestRecordViewAnonymousIdentity() {
	anon := ViewerIdentity{IPAddress: "203.0.113.7", SessionKey: "session-a"}

	recorded, err := suite.service.RecordView(suite.listing.ID, anon)
	suite.NoError(err)
	suite.True(recorded)

	recorded, err = suite.service.RecordView(suite.listing.ID, anon)
	suite.NoError(err)
	suite.False(recorded)

	// Same IP but a different browser session counts separately.
	recorded, err = suite.service.RecordView(suite.listing.ID, ViewerIdentity{
		IPAddress: "203.0.113.7", SessionKey: "session-b",
	})
	suite.NoError(err)
	suite.True(recorded)

	count, err := suite.service.CountViews(suite.listing.ID)
	suite.NoError(err)
	suite.Equal(int64(2), count)

	// An anonymous view without a full identity cannot be deduplicated.
	_, err = suite.service.RecordView(suite.listing.ID, ViewerIdentity{IPAddress: "203.0.113.7"})
	suite.ErrorIs(err, ErrSessionRequired)
	_, err = suite.service.RecordView(suite.listing.ID, ViewerIdentity{SessionKey: "session-a"})
	suite.ErrorIs(err, ErrSessionRequired)
}

func (suite *EngagementServiceTestSuite) TestRecordViewUnknownListing() {
	viewer := createTestUser(suite.T(), suite.db)
	_, err := suite.service.RecordView(uuid.New(), ViewerIdentity{UserID: &viewer.ID})
	suite.ErrorIs(err, ErrListingNotFound)
}

func (suite *EngagementServiceTestSuite) TestToggleFavoriteRoundTrip() {
	user := createTestUser(suite.T(), suite.db)

	favorited, err := suite.service.ToggleFavorite(user.ID, suite.listing.ID)
	suite.NoError(err)
	suite.True(favorited)

	is, err := suite.service.IsFavorited(user.ID, suite.listing.ID)
	suite.NoError(err)
	suite.True(is)

	count, err := suite.service.CountFavorites(suite.listing.ID)
	suite.NoError(err)
	suite.Equal(int64(1), count)

	favorited, err = suite.service.ToggleFavorite(user.ID, suite.listing.ID)
	suite.NoError(err)
	suite.False(favorited)

	count, err = suite.service.CountFavorites(suite.listing.ID)
	suite.NoError(err)
	suite.Zero(count)

	_, err = suite.service.ToggleFavorite(user.ID, uuid.New())
	suite.ErrorIs(err, ErrListingNotFound)
}

func (suite *EngagementServiceTestSuite) TestToggleFavoriteEvenRunsNetZero() {
	user := createTestUser(suite.T(), suite.db)

	const toggles = 8
	var wg sync.WaitGroup
	errs := make([]error, toggles)
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = suite.service.ToggleFavorite(user.ID, suite.listing.ID)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		suite.NoError(err)
	}

	// An even number of flips always lands back on "not favorited".
	count, err := suite.service.CountFavorites(suite.listing.ID)
	suite.NoError(err)
	suite.Zero(count)
}

func (suite *EngagementServiceTestSuite) TestListFavorites() {
	user := createTestUser(suite.T(), suite.db)
	second := createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusPublished)

	_, err := suite.service.ToggleFavorite(user.ID, suite.listing.ID)
	suite.NoError(err)
	_, err = suite.service.ToggleFavorite(user.ID, second.ID)
	suite.NoError(err)

	favorites, total, err := suite.service.ListFavorites(user.ID, utils.PaginationParams{Page: 1, Limit: 10})
	suite.NoError(err)
	suite.Equal(int64(2), total)
	suite.Len(favorites, 2)
	suite.NotNil(favorites[0].Listing)
}

func (suite *EngagementServiceTestSuite) TestViewCounts() {
	second := createTestListing(suite.T(), suite.db, suite.author, models.ListingStatusPublished)
	viewer := createTestUser(suite.T(), suite.db)
	other := createTestUser(suite.T(), suite.db)

	_, err := suite.service.RecordView(suite.listing.ID, ViewerIdentity{UserID: &viewer.ID})
	suite.NoError(err)
	_, err = suite.service.RecordView(suite.listing.ID, ViewerIdentity{UserID: &other.ID})
	suite.NoError(err)

	counts, err := suite.service.ViewCounts([]uuid.UUID{suite.listing.ID, second.ID})
	suite.NoError(err)
	suite.Equal(int64(2), counts[suite.listing.ID])
	suite.Zero(counts[second.ID])
}

func TestEngagementServiceSuite(t *testing.T) {
	suite.Run(t, new(EngagementServiceTestSuite))
}
