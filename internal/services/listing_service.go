// internal/services/listing_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/baraholka/backend/internal/config"
	"github.com/baraholka/backend/internal/database"
	"github.com/baraholka/backend/internal/models"
	"github.com/baraholka/backend/internal/utils"
)

// ModerationNotifier is told about system-initiated status changes so the
// author can be messaged. Implementations must be safe for concurrent use.
type ModerationNotifier interface {
	NotifyListingModerated(listing *models.Listing, approved bool)
	NotifyListingArchived(listing *models.Listing)
}

// ListingService owns the listing status state machine:
//
//	(new) -> Unverified -> Approved|Rejected   (moderation verdict)
//	Approved -> Published                      (author publish, or auto)
//	Published -> Archived                      (author or sweep)
//	Archived -> Unverified                     (author re-submits)
//	any -> Unverified                          (author edit)
//
// All status writes go through this service.
type ListingService struct {
	db        *gorm.DB
	moderator Moderator
	notifier  ModerationNotifier
	storage   *StorageService
	cfg       config.ModerationConfig
}

type CreateListingRequest struct {
	Title       string     `json:"title" validate:"required,min=3,max=50"`
	Description string     `json:"description" validate:"required,min=3,max=350"`
	Price       int64      `json:"price" validate:"gte=0,lte=9999999"`
	CategoryID  uuid.UUID  `json:"category_id" validate:"required"`
	CurrencyID  *uuid.UUID `json:"currency_id,omitempty"`
	CityID      *uuid.UUID `json:"city_id,omitempty"`
	Photos      []string   `json:"photos,omitempty" validate:"max=10"`
}

type UpdateListingRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=3,max=50"`
	Description *string    `json:"description,omitempty" validate:"omitempty,min=3,max=350"`
	Price       *int64     `json:"price,omitempty" validate:"omitempty,gte=0,lte=9999999"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	CurrencyID  *uuid.UUID `json:"currency_id,omitempty"`
	CityID      *uuid.UUID `json:"city_id,omitempty"`
	Photos      []string   `json:"photos,omitempty" validate:"omitempty,max=10"`
}

type ListingSearchParams struct {
	utils.PaginationParams
	CategorySlug string
	CityID       *uuid.UUID
	CurrencyID   *uuid.UUID
	AuthorID     *uuid.UUID
	Status       *models.ListingStatus
	PriceMin     *int64
	PriceMax     *int64

	// ViewerID/Staff drive visibility: everyone sees published listings,
	// authenticated users additionally see their own in any state, staff see
	// everything.
	ViewerID *uuid.UUID
	Staff    bool
}

func NewListingService(db *gorm.DB, moderator Moderator, notifier ModerationNotifier, storage *StorageService, cfg config.ModerationConfig) *ListingService {
	return &ListingService{
		db:        db,
		moderator: moderator,
		notifier:  notifier,
		storage:   storage,
		cfg:       cfg,
	}
}

func (s *ListingService) CreateListing(authorID uuid.UUID, req *CreateListingRequest) (*models.Listing, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var author models.User
	if err := s.db.First(&author, "id = ?", authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if author.Status != models.UserStatusActive {
		return nil, ErrPermissionDenied
	}

	var category models.Category
	if err := s.db.First(&category, "id = ?", req.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	listing := &models.Listing{
		AuthorID:    authorID,
		CategoryID:  req.CategoryID,
		CurrencyID:  req.CurrencyID,
		CityID:      req.CityID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Photos:      req.Photos,
		Status:      models.ListingStatusUnverified,
	}

	if err := s.db.Create(listing).Error; err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	s.db.Preload("Author").Preload("Category").Preload("Currency").Preload("City").First(listing, listing.ID)

	// Moderation runs out-of-band; creation has already succeeded.
	s.dispatchModeration(listing)

	return listing, nil
}

// GetListing applies the visibility rule: published listings are public,
// anything else is visible only to the author and staff. Hidden listings
// report ErrListingNotFound rather than revealing their existence.
func (s *ListingService) GetListing(id uuid.UUID, viewerID *uuid.UUID, staff bool) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.Preload("Author").Preload("Category").Preload("Currency").Preload("City").
		First(&listing, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	visible := staff ||
		listing.Status == models.ListingStatusPublished ||
		(viewerID != nil && listing.AuthorID == *viewerID)
	if !visible {
		return nil, ErrListingNotFound
	}

	return &listing, nil
}

func (s *ListingService) SearchListings(params ListingSearchParams) ([]models.Listing, int64, error) {
	query := s.db.Model(&models.Listing{})

	switch {
	case params.Staff:
		// no visibility restriction
	case params.ViewerID != nil:
		query = query.Where("status = ? OR author_id = ?", models.ListingStatusPublished, *params.ViewerID)
	default:
		query = query.Where("status = ?", models.ListingStatusPublished)
	}

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.AuthorID != nil {
		query = query.Where("author_id = ?", *params.AuthorID)
	}
	if params.CategorySlug != "" {
		query = query.Where("category_id IN (SELECT id FROM categories WHERE slug = ?)", params.CategorySlug)
	}
	if params.CityID != nil {
		query = query.Where("city_id = ?", *params.CityID)
	}
	if params.CurrencyID != nil {
		query = query.Where("currency_id = ?", *params.CurrencyID)
	}
	if params.PriceMin != nil {
		query = query.Where("price >= ?", *params.PriceMin)
	}
	if params.PriceMax != nil {
		query = query.Where("price <= ?", *params.PriceMax)
	}
	if params.Search != "" {
		like := "%" + params.Search + "%"
		query = query.Where("LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	var listings []models.Listing
	query = utils.ApplySort(query, params.PaginationParams, []string{"created_at", "updated_at", "price"})
	query = utils.ApplyPagination(query, params.PaginationParams)
	if err := query.Preload("Author").Preload("Category").Preload("Currency").Preload("City").
		Find(&listings).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to search listings: %w", err)
	}

	return listings, total, nil
}

// EditListing applies the author's changes and unconditionally resets the
// listing to Unverified, whatever state it was in, then re-dispatches
// moderation.
func (s *ListingService) EditListing(id uuid.UUID, editorID uuid.UUID, req *UpdateListingRequest) (*models.Listing, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var listing models.Listing
	if err := s.db.First(&listing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if listing.AuthorID != editorID {
		return nil, ErrPermissionDenied
	}

	updates := map[string]interface{}{
		"status": models.ListingStatusUnverified,
	}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.CategoryID != nil {
		var count int64
		s.db.Model(&models.Category{}).Where("id = ?", *req.CategoryID).Count(&count)
		if count == 0 {
			return nil, ErrCategoryNotFound
		}
		updates["category_id"] = *req.CategoryID
	}
	if req.CurrencyID != nil {
		updates["currency_id"] = *req.CurrencyID
	}
	if req.CityID != nil {
		updates["city_id"] = *req.CityID
	}
	if req.Photos != nil {
		updates["photos"] = pq.StringArray(req.Photos)
	}

	if err := s.db.Model(&listing).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	s.db.Preload("Author").Preload("Category").Preload("Currency").Preload("City").First(&listing, listing.ID)

	s.dispatchModeration(&listing)

	return &listing, nil
}

// ApplyModerationResult lands an out-of-band moderation verdict. It applies
// only while the listing is still Unverified and has not been touched since
// dispatchedAt; a stale or repeated verdict is a no-op and returns
// applied=false. This closes the race where the author edits the listing
// while a verdict for the pre-edit text is in flight.
func (s *ListingService) ApplyModerationResult(id uuid.UUID, approved bool, dispatchedAt time.Time) (bool, error) {
	target := models.ListingStatusRejected
	if approved {
		if s.cfg.AutoPublish {
			target = models.ListingStatusPublished
		} else {
			target = models.ListingStatusApproved
		}
	}

	res := s.db.Model(&models.Listing{}).
		Where("id = ? AND status = ? AND updated_at <= ?", id, models.ListingStatusUnverified, dispatchedAt).
		Update("status", target)
	if res.Error != nil {
		return false, fmt.Errorf("failed to apply moderation result: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if s.notifier != nil {
		var listing models.Listing
		if err := s.db.Preload("Author").First(&listing, "id = ?", id).Error; err == nil {
			s.notifier.NotifyListingModerated(&listing, approved)
		}
	}

	return true, nil
}

// PublishListing promotes an approved listing to published. Author only.
func (s *ListingService) PublishListing(id uuid.UUID, requesterID uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := s.db.First(&listing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if listing.AuthorID != requesterID {
		return nil, ErrPermissionDenied
	}
	if listing.Status != models.ListingStatusApproved {
		return nil, ErrInvalidTransition
	}

	if err := s.db.Model(&listing).Update("status", models.ListingStatusPublished).Error; err != nil {
		return nil, fmt.Errorf("failed to publish listing: %w", err)
	}

	return &listing, nil
}

// userTransitions is the closed table of author-initiated status changes.
var userTransitions = map[models.ListingStatus]models.ListingStatus{
	models.ListingStatusPublished: models.ListingStatusArchived,
	models.ListingStatusArchived:  models.ListingStatusUnverified,
}

// ChangeStatus performs an explicit author-requested transition. Anything
// outside the transition table fails with ErrInvalidTransition and leaves
// the listing untouched. Archived -> Unverified re-enters moderation.
func (s *ListingService) ChangeStatus(id uuid.UUID, requesterID uuid.UUID, target models.ListingStatus) (*models.Listing, error) {
	if !target.Valid() {
		return nil, ErrInvalidTransition
	}

	var listing models.Listing
	if err := s.db.First(&listing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if listing.AuthorID != requesterID {
		return nil, ErrPermissionDenied
	}

	allowed, ok := userTransitions[listing.Status]
	if !ok || allowed != target {
		return nil, ErrInvalidTransition
	}

	if err := s.db.Model(&listing).Update("status", target).Error; err != nil {
		return nil, fmt.Errorf("failed to change status: %w", err)
	}

	if target == models.ListingStatusUnverified {
		s.db.Preload("Author").First(&listing, listing.ID)
		s.dispatchModeration(&listing)
	}

	return &listing, nil
}

// ArchiveListing is the system-initiated Published -> Archived transition
// used by the stale sweep. It bypasses the author check.
func (s *ListingService) ArchiveListing(id uuid.UUID) error {
	var listing models.Listing
	if err := s.db.Preload("Author").First(&listing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if listing.Status != models.ListingStatusPublished {
		return ErrInvalidTransition
	}

	if err := s.db.Model(&listing).Update("status", models.ListingStatusArchived).Error; err != nil {
		return fmt.Errorf("failed to archive listing: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyListingArchived(&listing)
	}

	return nil
}

// DeleteListing removes the listing with its views, favorites and
// notifications in one transaction. Stored photos are cleaned up
// best-effort afterwards; a storage failure never fails the deletion.
func (s *ListingService) DeleteListing(id uuid.UUID, requesterID uuid.UUID, staff bool) error {
	var listing models.Listing
	if err := s.db.First(&listing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if !staff && listing.AuthorID != requesterID {
		return ErrPermissionDenied
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", id).Delete(&models.ListingView{}).Error; err != nil {
			return err
		}
		if err := tx.Where("listing_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("listing_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Listing{}, "id = ?", id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	if s.storage != nil && len(listing.Photos) > 0 {
		photos := append([]string(nil), listing.Photos...)
		go func() {
			if err := s.storage.DeleteFiles(photos); err != nil {
				logrus.WithError(err).WithField("listing_id", id).
					Warn("Failed to delete listing photos from storage")
			}
		}()
	}

	return nil
}

// dispatchModeration hands the listing text to the moderation collaborator
// in the background. The verdict is tagged with the listing's updated_at so
// ApplyModerationResult can discard it if the listing changes meanwhile.
func (s *ListingService) dispatchModeration(listing *models.Listing) {
	if s.moderator == nil {
		return
	}

	id := listing.ID
	dispatchedAt := listing.UpdatedAt
	text := listing.Title + "\n" + listing.Description
	timeout := s.cfg.DispatchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	go func() {
		verdict := make(chan bool, 1)
		go func() { verdict <- s.moderator.Moderate(text) }()

		select {
		case approved := <-verdict:
			applied, err := s.ApplyModerationResult(id, approved, dispatchedAt)
			if err != nil {
				logrus.WithError(err).WithField("listing_id", id).
					Error("Failed to apply moderation result")
				return
			}
			if !applied {
				logrus.WithField("listing_id", id).
					Info("Discarded stale moderation result")
			}
		case <-time.After(timeout):
			logrus.WithField("listing_id", id).
				Warn("Moderation timed out, listing stays unverified")
		}
	}()
}
