// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the primary key in the application so the same models
// work on Postgres and on the sqlite test database, which has no uuid
// generator.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// ListingStatus is the moderation lifecycle state of a listing. The numeric
// codes are stored as-is and exposed through the API.
type ListingStatus int

const (
	ListingStatusUnverified ListingStatus = 0 // awaiting moderation
	ListingStatusApproved   ListingStatus = 1
	ListingStatusRejected   ListingStatus = 2
	ListingStatusPublished  ListingStatus = 3
	ListingStatusArchived   ListingStatus = 4
)

func (s ListingStatus) String() string {
	switch s {
	case ListingStatusUnverified:
		return "unverified"
	case ListingStatusApproved:
		return "approved"
	case ListingStatusRejected:
		return "rejected"
	case ListingStatusPublished:
		return "published"
	case ListingStatusArchived:
		return "archived"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the defined lifecycle states.
func (s ListingStatus) Valid() bool {
	return s >= ListingStatusUnverified && s <= ListingStatusArchived
}

type UserStatus string

const (
	UserStatusActive UserStatus = "active"
	UserStatusBanned UserStatus = "banned"
)

type NotificationType string

const (
	NotificationTypeListingApproved NotificationType = "listing_approved"
	NotificationTypeListingRejected NotificationType = "listing_rejected"
	NotificationTypeListingArchived NotificationType = "listing_archived"
)
