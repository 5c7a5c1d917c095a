// internal/services/engagement_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/baraholka/backend/internal/models"
	"github.com/baraholka/backend/internal/utils"
)

// toggleRetries bounds how often ToggleFavorite retries after losing a
// uniqueness race to a concurrent call.
const toggleRetries = 3

// ViewerIdentity is who looked at a listing: an authenticated user, or an
// anonymous visitor identified by (ip, session key).
type ViewerIdentity struct {
	UserID     *uuid.UUID
	IPAddress  string
	SessionKey string
}

// Authenticated reports whether the identity carries a user id.
func (v ViewerIdentity) Authenticated() bool { return v.UserID != nil }

// EngagementService is the view/favorite ledger. It records at most one view
// per (listing, identity) and provides the XOR favorite toggle. The unique
// constraints live in the database; the service treats conflicts as "already
// there", never as errors.
type EngagementService struct {
	db *gorm.DB
}

func NewEngagementService(db *gorm.DB) *EngagementService {
	return &EngagementService{db: db}
}

// RecordView inserts a view event unless one already exists for this exact
// identity. Returns whether a new event was recorded. Excluding the author's
// own views is the caller's job, not the ledger's.
func (s *EngagementService) RecordView(listingID uuid.UUID, viewer ViewerIdentity) (bool, error) {
	if !viewer.Authenticated() && (viewer.IPAddress == "" || viewer.SessionKey == "") {
		return false, ErrSessionRequired
	}

	if err := s.ensureListingExists(listingID); err != nil {
		return false, err
	}

	view := models.ListingView{
		ListingID: listingID,
		UserID:    viewer.UserID,
	}
	if !viewer.Authenticated() {
		view.IPAddress = viewer.IPAddress
		view.SessionKey = viewer.SessionKey
	}

	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&view)
	if res.Error != nil {
		return false, fmt.Errorf("failed to record view: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

func (s *EngagementService) CountViews(listingID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.ListingView{}).Where("listing_id = ?", listingID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count views: %w", err)
	}
	return count, nil
}

// ToggleFavorite flips the (user, listing) favorite: present -> removed,
// absent -> added. Returns the resulting favorited state. The delete and the
// conditional insert run inside one transaction; losing the insert race to a
// concurrent toggle restarts the whole attempt instead of failing.
func (s *EngagementService) ToggleFavorite(userID, listingID uuid.UUID) (bool, error) {
	if err := s.ensureListingExists(listingID); err != nil {
		return false, err
	}

	for attempt := 0; attempt < toggleRetries; attempt++ {
		favorited, retry, err := s.toggleOnce(userID, listingID)
		if err != nil {
			return false, err
		}
		if !retry {
			return favorited, nil
		}
	}

	return false, ErrConflict
}

func (s *EngagementService) toggleOnce(userID, listingID uuid.UUID) (favorited bool, retry bool, err error) {
	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND listing_id = ?", userID, listingID).Delete(&models.Favorite{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			favorited = false
			return nil
		}

		fav := models.Favorite{UserID: userID, ListingID: listingID}
		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fav)
		if ins.Error != nil {
			return ins.Error
		}
		if ins.RowsAffected == 0 {
			// A concurrent toggle inserted between our delete and insert.
			retry = true
			return nil
		}
		favorited = true
		return nil
	})
	if err != nil {
		return false, false, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	return favorited, retry, nil
}

func (s *EngagementService) IsFavorited(userID, listingID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&models.Favorite{}).
		Where("user_id = ? AND listing_id = ?", userID, listingID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return count > 0, nil
}

func (s *EngagementService) CountFavorites(listingID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.Favorite{}).Where("listing_id = ?", listingID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}
	return count, nil
}

func (s *EngagementService) ListFavorites(userID uuid.UUID, params utils.PaginationParams) ([]models.Favorite, int64, error) {
	query := s.db.Model(&models.Favorite{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count favorites: %w", err)
	}

	var favorites []models.Favorite
	err := utils.ApplyPagination(query.Order("created_at desc"), params).
		Preload("Listing").Preload("Listing.Category").Preload("Listing.Currency").Preload("Listing.City").
		Find(&favorites).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list favorites: %w", err)
	}

	return favorites, total, nil
}

func (s *EngagementService) ensureListingExists(listingID uuid.UUID) error {
	var count int64
	err := s.db.Model(&models.Listing{}).Where("id = ?", listingID).Count(&count).Error
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count == 0 {
		return ErrListingNotFound
	}
	return nil
}

// ViewCounts returns the per-listing view counts for a batch of listings in
// one query, for list pages.
func (s *EngagementService) ViewCounts(listingIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	if len(listingIDs) == 0 {
		return map[uuid.UUID]int64{}, nil
	}

	type row struct {
		ListingID uuid.UUID
		Count     int64
	}
	var rows []row
	err := s.db.Model(&models.ListingView{}).
		Select("listing_id, count(*) as count").
		Where("listing_id IN ?", listingIDs).
		Group("listing_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count views: %w", err)
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		counts[r.ListingID] = r.Count
	}
	return counts, nil
}
