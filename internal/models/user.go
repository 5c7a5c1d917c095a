// internal/models/user.go
package models

import (
	"golang.org/x/crypto/bcrypt"
)

// User is a marketplace account backed by a Telegram identity. Staff
// accounts additionally carry a password hash for the staff console login.
type User struct {
	BaseModel
	TelegramID   int64      `json:"telegram_id" gorm:"uniqueIndex;not null"`
	Username     string     `json:"username" gorm:"size:64;index"`
	FirstName    string     `json:"first_name" gorm:"size:64"`
	LastName     string     `json:"last_name" gorm:"size:64"`
	PhotoURL     string     `json:"photo_url" gorm:"size:255"`
	LanguageCode string     `json:"language_code" gorm:"size:8"`
	IsStaff      bool       `json:"is_staff" gorm:"default:false"`
	Status       UserStatus `json:"status" gorm:"type:varchar(20);default:'active';index"`
	PasswordHash string     `json:"-" gorm:"size:255"`
	ProfileData  JSONB      `json:"profile_data,omitempty" gorm:"type:jsonb"`
}

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// DisplayName is the name shown in notifications and bot replies.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return "user"
}
