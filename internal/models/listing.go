// internal/models/listing.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// MaxListingPrice is the upper bound enforced on listing prices.
const MaxListingPrice = 9999999

type Listing struct {
	BaseModel
	AuthorID    uuid.UUID      `json:"author_id" gorm:"type:uuid;not null;index"`
	CategoryID  uuid.UUID      `json:"category_id" gorm:"type:uuid;not null;index"`
	CurrencyID  *uuid.UUID     `json:"currency_id,omitempty" gorm:"type:uuid"`
	CityID      *uuid.UUID     `json:"city_id,omitempty" gorm:"type:uuid"`
	Title       string         `json:"title" gorm:"size:50;not null;index"`
	Description string         `json:"description" gorm:"size:350;not null"`
	Price       int64          `json:"price" gorm:"not null;index"`
	Photos      pq.StringArray `json:"photos" gorm:"type:text[]"`
	Status      ListingStatus  `json:"status" gorm:"default:0;index"`

	// Relationships
	Author   User      `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Category Category  `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Currency *Currency `json:"currency,omitempty" gorm:"foreignKey:CurrencyID"`
	City     *City     `json:"city,omitempty" gorm:"foreignKey:CityID"`
}

type Category struct {
	BaseModel
	Name  string `json:"name" gorm:"size:50;uniqueIndex;not null"`
	Slug  string `json:"slug" gorm:"size:200;uniqueIndex;not null"`
	Order int    `json:"order" gorm:"default:0;index"`
}

type Currency struct {
	BaseModel
	Name  string `json:"name" gorm:"size:20;not null"`
	Code  string `json:"code" gorm:"size:8;uniqueIndex;not null"`
	Order int    `json:"order" gorm:"default:0;index"`
}

type City struct {
	BaseModel
	Name string `json:"name" gorm:"size:50;uniqueIndex;not null"`
}

// Banner is a promoted post shown by the web client alongside listings.
type Banner struct {
	BaseModel
	AuthorID uuid.UUID `json:"author_id" gorm:"type:uuid;not null"`
	Title    string    `json:"title" gorm:"size:50;not null"`
	Link     string    `json:"link" gorm:"size:200"`
	PhotoURL string    `json:"photo_url" gorm:"size:255"`
}
