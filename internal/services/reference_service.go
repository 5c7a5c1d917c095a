// internal/services/reference_service.go
package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/baraholka/backend/internal/models"
)

// ReferenceService serves the dictionaries the frontend renders filters
// from: categories, cities, currencies and promo banners.
type ReferenceService struct {
	db *gorm.DB
}

func NewReferenceService(db *gorm.DB) *ReferenceService {
	return &ReferenceService{db: db}
}

func (s *ReferenceService) ListCategories() ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.Order(`"order" asc, name asc`).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *ReferenceService) GetCategoryBySlug(slug string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("slug = ?", slug).First(&category).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &category, nil
}

func (s *ReferenceService) ListCities() ([]models.City, error) {
	var cities []models.City
	if err := s.db.Order("name asc").Find(&cities).Error; err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	return cities, nil
}

func (s *ReferenceService) ListCurrencies() ([]models.Currency, error) {
	var currencies []models.Currency
	if err := s.db.Order(`"order" asc, code asc`).Find(&currencies).Error; err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	return currencies, nil
}

func (s *ReferenceService) ListBanners() ([]models.Banner, error) {
	var banners []models.Banner
	if err := s.db.Order("created_at desc").Find(&banners).Error; err != nil {
		return nil, fmt.Errorf("failed to list banners: %w", err)
	}
	return banners, nil
}
