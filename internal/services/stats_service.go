// internal/services/stats_service.go
package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/baraholka/backend/internal/models"
)

// StatsService exposes the staff dashboard counters and the daily snapshot
// history produced by the scheduler.
type StatsService struct {
	db *gorm.DB
}

type DashboardStats struct {
	TotalUsers        int64 `json:"total_users"`
	TotalListings     int64 `json:"total_listings"`
	PendingListings   int64 `json:"pending_listings"`
	PublishedListings int64 `json:"published_listings"`
	ArchivedListings  int64 `json:"archived_listings"`
	TotalViews        int64 `json:"total_views"`
	TotalFavorites    int64 `json:"total_favorites"`
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

func (s *StatsService) GetDashboard() (*DashboardStats, error) {
	stats := &DashboardStats{}

	counts := []struct {
		query *gorm.DB
		dest  *int64
	}{
		{s.db.Model(&models.User{}), &stats.TotalUsers},
		{s.db.Model(&models.Listing{}), &stats.TotalListings},
		{s.db.Model(&models.Listing{}).Where("status = ?", models.ListingStatusUnverified), &stats.PendingListings},
		{s.db.Model(&models.Listing{}).Where("status = ?", models.ListingStatusPublished), &stats.PublishedListings},
		{s.db.Model(&models.Listing{}).Where("status = ?", models.ListingStatusArchived), &stats.ArchivedListings},
		{s.db.Model(&models.ListingView{}), &stats.TotalViews},
		{s.db.Model(&models.Favorite{}), &stats.TotalFavorites},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to collect dashboard stats: %w", err)
		}
	}

	return stats, nil
}

// GetDailyStats returns the stored snapshots for [from, to], oldest first.
// Days without a snapshot are simply absent.
func (s *StatsService) GetDailyStats(from, to time.Time) ([]models.DailyStats, error) {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)

	var snapshots []models.DailyStats
	err := s.db.Where("date >= ? AND date <= ?", fromDay, toDay).
		Order("date asc").
		Find(&snapshots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load daily stats: %w", err)
	}

	return snapshots, nil
}
