// internal/models/stats.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DailyStats is the aggregation sink written once per day by the stats job.
// Date is truncated to midnight UTC; at most one row per date.
type DailyStats struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Date           time.Time `json:"date" gorm:"uniqueIndex;not null"`
	NewUsers       int64     `json:"new_users" gorm:"default:0"`
	NewListings    int64     `json:"new_listings" gorm:"default:0"`
	ListingViews   int64     `json:"listing_views" gorm:"default:0"`
	FavoritesAdded int64     `json:"favorites_added" gorm:"default:0"`
	CreatedAt      time.Time `json:"created_at"`
}

func (s *DailyStats) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (DailyStats) TableName() string {
	return "daily_stats"
}
