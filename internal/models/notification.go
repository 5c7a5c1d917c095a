// internal/models/notification.go
package models

import (
	"github.com/google/uuid"
)

// Notification is a per-user message about a listing, delivered in-app and,
// when the bot is connected, pushed over Telegram.
type Notification struct {
	BaseModel
	UserID    uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;index"`
	ListingID *uuid.UUID       `json:"listing_id,omitempty" gorm:"type:uuid;index"`
	Type      NotificationType `json:"type" gorm:"type:varchar(32);not null;index"`
	Message   string           `json:"message" gorm:"size:500;not null"`
	IsRead    bool             `json:"is_read" gorm:"default:false;index"`
}
