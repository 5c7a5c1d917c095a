// internal/handlers/reference.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/baraholka/backend/internal/services"
	"github.com/baraholka/backend/internal/utils"
)

type ReferenceHandler struct {
	referenceService *services.ReferenceService
}

func NewReferenceHandler(referenceService *services.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{referenceService: referenceService}
}

// GET /categories
func (h *ReferenceHandler) GetCategories(c *gin.Context) {
	categories, err := h.referenceService.ListCategories()
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}
	utils.SuccessResponse(c, categories)
}

// GET /cities
func (h *ReferenceHandler) GetCities(c *gin.Context) {
	cities, err := h.referenceService.ListCities()
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}
	utils.SuccessResponse(c, cities)
}

// GET /currencies
func (h *ReferenceHandler) GetCurrencies(c *gin.Context) {
	currencies, err := h.referenceService.ListCurrencies()
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}
	utils.SuccessResponse(c, currencies)
}

// GET /banners
func (h *ReferenceHandler) GetBanners(c *gin.Context) {
	banners, err := h.referenceService.ListBanners()
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}
	utils.SuccessResponse(c, banners)
}
