// internal/models/engagement.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListingView is one deduplicated "someone looked at this listing" fact.
// Exactly one of UserID or the (IPAddress, SessionKey) pair is set.
//
// Uniqueness is enforced by two partial indexes created in the migration
// pass (see database.CreateEngagementIndexes):
//
//	(listing_id, user_id)                 WHERE user_id IS NOT NULL
//	(listing_id, ip_address, session_key) WHERE user_id IS NULL
type ListingView struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	ListingID  uuid.UUID  `json:"listing_id" gorm:"type:uuid;not null;index"`
	UserID     *uuid.UUID `json:"user_id,omitempty" gorm:"type:uuid;index"`
	IPAddress  string     `json:"ip_address,omitempty" gorm:"size:45"`
	SessionKey string     `json:"session_key,omitempty" gorm:"size:40"`
	CreatedAt  time.Time  `json:"created_at" gorm:"index"`
}

func (v *ListingView) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

func (ListingView) TableName() string {
	return "listing_views"
}

// Favorite is a user's saved listing. At most one row per (user, listing).
type Favorite struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_favorites_user_listing;index"`
	ListingID uuid.UUID `json:"listing_id" gorm:"type:uuid;not null;uniqueIndex:idx_favorites_user_listing;index"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	Listing *Listing `json:"listing,omitempty" gorm:"foreignKey:ListingID"`
}

func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
