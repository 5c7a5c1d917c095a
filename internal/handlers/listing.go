// internal/handlers/listing.go
package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/baraholka/backend/internal/i18n"
	"github.com/baraholka/backend/internal/middleware"
	"github.com/baraholka/backend/internal/models"
	"github.com/baraholka/backend/internal/services"
	"github.com/baraholka/backend/internal/utils"
)

type ListingHandler struct {
	listingService    *services.ListingService
	engagementService *services.EngagementService
	storageService    *services.StorageService
}

func NewListingHandler(listingService *services.ListingService, engagementService *services.EngagementService, storageService *services.StorageService) *ListingHandler {
	return &ListingHandler{
		listingService:    listingService,
		engagementService: engagementService,
		storageService:    storageService,
	}
}

// GET /listings
func (h *ListingHandler) GetListings(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.ListingSearchParams{
		PaginationParams: params,
		Staff:            utils.IsStaffFromContext(c),
	}

	if userIDStr, ok := utils.GetUserIDFromContext(c); ok {
		if viewerID, err := uuid.Parse(userIDStr); err == nil {
			searchParams.ViewerID = &viewerID
		}
	}

	if slug := c.Query("category"); slug != "" {
		searchParams.CategorySlug = slug
	}
	if cityIDStr := c.Query("city_id"); cityIDStr != "" {
		if cityID, err := uuid.Parse(cityIDStr); err == nil {
			searchParams.CityID = &cityID
		}
	}
	if currencyIDStr := c.Query("currency_id"); currencyIDStr != "" {
		if currencyID, err := uuid.Parse(currencyIDStr); err == nil {
			searchParams.CurrencyID = &currencyID
		}
	}
	if authorIDStr := c.Query("author_id"); authorIDStr != "" {
		if authorID, err := uuid.Parse(authorIDStr); err == nil {
			searchParams.AuthorID = &authorID
		}
	}
	if statusStr := c.Query("status"); statusStr != "" {
		if code, err := strconv.Atoi(statusStr); err == nil {
			status := models.ListingStatus(code)
			if status.Valid() {
				searchParams.Status = &status
			}
		}
	}
	if priceMinStr := c.Query("price_min"); priceMinStr != "" {
		if priceMin, err := strconv.ParseInt(priceMinStr, 10, 64); err == nil {
			searchParams.PriceMin = &priceMin
		}
	}
	if priceMaxStr := c.Query("price_max"); priceMaxStr != "" {
		if priceMax, err := strconv.ParseInt(priceMaxStr, 10, 64); err == nil {
			searchParams.PriceMax = &priceMax
		}
	}

	listings, total, err := h.listingService.SearchListings(searchParams)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(listings, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /listings
func (h *ListingHandler) CreateListing(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	authorID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req services.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	listing, err := h.listingService.CreateListing(authorID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCategoryNotFound):
			utils.NotFoundResponse(c, "category")
		case errors.Is(err, services.ErrPermissionDenied):
			utils.ForbiddenResponse(c, "")
		default:
			utils.InternalErrorResponse(c, "")
		}
		return
	}

	utils.CreatedResponse(c, listing)
}

// GET /listings/:id
//
// Fetching a detail page records a view, except when the author opens their
// own listing.
func (h *ListingHandler) GetListing(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid listing ID", nil)
		return
	}

	viewer := h.viewerIdentity(c)
	staff := utils.IsStaffFromContext(c)

	listing, err := h.listingService.GetListing(listingID, viewer.UserID, staff)
	if err != nil {
		if errors.Is(err, services.ErrListingNotFound) {
			utils.NotFoundResponse(c, "listing")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	selfView := viewer.UserID != nil && *viewer.UserID == listing.AuthorID
	if !selfView {
		if _, err := h.engagementService.RecordView(listingID, viewer); err != nil {
			// A lost view must not fail the page.
			logrus.WithError(err).WithField("listing_id", listingID).
				Warn("Failed to record listing view")
		}
	}

	views, err := h.engagementService.CountViews(listingID)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}
	favorites, err := h.engagementService.CountFavorites(listingID)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	isFavorited := false
	if viewer.UserID != nil {
		isFavorited, err = h.engagementService.IsFavorited(*viewer.UserID, listingID)
		if err != nil {
			utils.InternalErrorResponse(c, "")
			return
		}
	}

	utils.SuccessResponse(c, gin.H{
		"listing":      listing,
		"views":        views,
		"favorites":    favorites,
		"is_favorited": isFavorited,
	})
}

// PUT /listings/:id
func (h *ListingHandler) UpdateListing(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	editorID, ok := requireUserID(c)
	if !ok {
		return
	}

	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid listing ID", nil)
		return
	}

	var req services.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	listing, err := h.listingService.EditListing(listingID, editorID, &req)
	if err != nil {
		h.respondListingError(c, err)
		return
	}

	utils.SuccessResponse(c, listing)
}

// DELETE /listings/:id
func (h *ListingHandler) DeleteListing(c *gin.Context) {
	requesterID, ok := requireUserID(c)
	if !ok {
		return
	}

	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid listing ID", nil)
		return
	}

	err = h.listingService.DeleteListing(listingID, requesterID, utils.IsStaffFromContext(c))
	if err != nil {
		h.respondListingError(c, err)
		return
	}

	lang := utils.GetLangFromContext(c)
	utils.SuccessResponse(c, gin.H{"message": i18n.T(lang, i18n.KeyListingDeleted)})
}

// POST /listings/:id/publish
func (h *ListingHandler) PublishListing(c *gin.Context) {
	requesterID, ok := requireUserID(c)
	if !ok {
		return
	}

	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid listing ID", nil)
		return
	}

	listing, err := h.listingService.PublishListing(listingID, requesterID)
	if err != nil {
		h.respondListingError(c, err)
		return
	}

	utils.SuccessResponse(c, listing)
}

// PUT /listings/:id/status
func (h *ListingHandler) ChangeStatus(c *gin.Context) {
	requesterID, ok := requireUserID(c)
	if !ok {
		return
	}

	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid listing ID", nil)
		return
	}

	var req struct {
		Status int `json:"status" binding:"min=0,max=4"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "status is required", err.Error())
		return
	}

	listing, err := h.listingService.ChangeStatus(listingID, requesterID, models.ListingStatus(req.Status))
	if err != nil {
		h.respondListingError(c, err)
		return
	}

	utils.SuccessResponse(c, listing)
}

// POST /listings/:id/favorite
func (h *ListingHandler) ToggleFavorite(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid listing ID", nil)
		return
	}

	favorited, err := h.engagementService.ToggleFavorite(userID, listingID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrListingNotFound):
			utils.NotFoundResponse(c, "listing")
		case errors.Is(err, services.ErrConflict):
			utils.ConflictResponse(c, "Please retry")
		default:
			utils.InternalErrorResponse(c, "")
		}
		return
	}

	lang := utils.GetLangFromContext(c)
	key := i18n.KeyFavoriteRemoved
	if favorited {
		key = i18n.KeyFavoriteAdded
	}
	utils.SuccessResponse(c, gin.H{
		"favorited": favorited,
		"message":   i18n.T(lang, key),
	})
}

// GET /users/favorites
func (h *ListingHandler) GetFavorites(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	favorites, total, err := h.engagementService.ListFavorites(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	result := utils.CreatePaginationResult(favorites, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /listings/upload
func (h *ListingHandler) UploadPhotos(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	if _, ok := requireUserID(c); !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}

	files := form.File["photos"]
	if len(files) == 0 {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "photos"), nil)
		return
	}
	if len(files) > 10 {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationTooLong, "photos"), nil)
		return
	}

	options := services.UploadOptions{
		Folder:       "listings",
		MaxSize:      5 * 1024 * 1024, // 5MB
		AllowedTypes: []string{".jpg", ".jpeg", ".png", ".webp"},
	}

	var results []*services.UploadResult
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
			return
		}

		result, err := h.storageService.UploadFile(file, header, options)
		file.Close()
		if err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
			return
		}
		results = append(results, result)
	}

	utils.CreatedResponse(c, gin.H{"files": results})
}

// viewerIdentity assembles who is looking at a listing: the authenticated
// user, or the (ip, session) pair for anonymous visitors.
func (h *ListingHandler) viewerIdentity(c *gin.Context) services.ViewerIdentity {
	viewer := services.ViewerIdentity{
		IPAddress:  c.ClientIP(),
		SessionKey: middleware.GetSessionKey(c),
	}
	if userIDStr, ok := utils.GetUserIDFromContext(c); ok {
		if userID, err := uuid.Parse(userIDStr); err == nil {
			viewer.UserID = &userID
		}
	}
	return viewer
}

func (h *ListingHandler) respondListingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrListingNotFound):
		utils.NotFoundResponse(c, "listing")
	case errors.Is(err, services.ErrCategoryNotFound):
		utils.NotFoundResponse(c, "category")
	case errors.Is(err, services.ErrPermissionDenied):
		lang := utils.GetLangFromContext(c)
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyListingNotAuthor))
	case errors.Is(err, services.ErrInvalidTransition):
		utils.InvalidTransitionResponse(c)
	default:
		utils.InternalErrorResponse(c, "")
	}
}

func requireUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return uuid.Nil, false
	}
	return userID, true
}

// moderationHandlers below are staff-only.

// GET /staff/listings/pending
func (h *ListingHandler) GetPendingListings(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	status := models.ListingStatusUnverified

	listings, total, err := h.listingService.SearchListings(services.ListingSearchParams{
		PaginationParams: params,
		Status:           &status,
		Staff:            true,
	})
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	result := utils.CreatePaginationResult(listings, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /staff/listings/:id/approve
func (h *ListingHandler) ApproveListing(c *gin.Context) {
	h.applyVerdict(c, true)
}

// PUT /staff/listings/:id/reject
func (h *ListingHandler) RejectListing(c *gin.Context) {
	h.applyVerdict(c, false)
}

func (h *ListingHandler) applyVerdict(c *gin.Context, approved bool) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid listing ID", nil)
		return
	}

	// A manual verdict applies to the listing as it is right now.
	applied, err := h.listingService.ApplyModerationResult(listingID, approved, time.Now())
	if err != nil {
		if errors.Is(err, services.ErrListingNotFound) {
			utils.NotFoundResponse(c, "listing")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}
	if !applied {
		utils.InvalidTransitionResponse(c)
		return
	}

	utils.SuccessResponse(c, gin.H{"applied": true})
}
