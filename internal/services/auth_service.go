// internal/services/auth_service.go
package services

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/baraholka/backend/internal/config"
	"github.com/baraholka/backend/internal/models"
	"github.com/baraholka/backend/internal/utils"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrTelegramAuthInvalid = errors.New("telegram auth data invalid")
)

type AuthService struct {
	db     *gorm.DB
	config *config.Config
}

// TelegramLoginRequest carries the fields the Telegram Login Widget posts.
type TelegramLoginRequest struct {
	ID        int64  `json:"id" validate:"required"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
	AuthDate  int64  `json:"auth_date" validate:"required"`
	Hash      string `json:"hash" validate:"required"`
}

type StaffLoginRequest struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,min=8"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

func NewAuthService(db *gorm.DB, config *config.Config) *AuthService {
	return &AuthService{db: db, config: config}
}

// TelegramLogin verifies the widget payload signature against the bot token
// and creates or refreshes the matching account.
func (s *AuthService) TelegramLogin(req *TelegramLoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	fields := map[string]string{
		"id":         strconv.FormatInt(req.ID, 10),
		"username":   req.Username,
		"first_name": req.FirstName,
		"last_name":  req.LastName,
		"photo_url":  req.PhotoURL,
		"auth_date":  strconv.FormatInt(req.AuthDate, 10),
	}
	err := utils.VerifyTelegramLogin(fields, req.Hash, s.config.Telegram.BotToken, s.config.Telegram.LoginTTL)
	if err != nil {
		return nil, ErrTelegramAuthInvalid
	}

	var user models.User
	err = s.db.Where("telegram_id = ?", req.ID).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			TelegramID: req.ID,
			Username:   req.Username,
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			PhotoURL:   req.PhotoURL,
			Status:     models.UserStatusActive,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("database error: %w", err)
	default:
		// Refresh profile fields Telegram may have changed.
		updates := map[string]interface{}{
			"username":   req.Username,
			"first_name": req.FirstName,
			"last_name":  req.LastName,
			"photo_url":  req.PhotoURL,
		}
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	if user.Status != models.UserStatusActive {
		return nil, ErrPermissionDenied
	}

	return s.issueTokens(&user)
}

// StaffLogin authenticates a staff account by username and password.
func (s *AuthService) StaffLogin(req *StaffLoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var user models.User
	err := s.db.Where("username = ? AND is_staff = ?", req.Username, true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !user.CheckPassword(req.Password) {
		return nil, ErrInvalidCredentials
	}
	if user.Status != models.UserStatusActive {
		return nil, ErrPermissionDenied
	}

	return s.issueTokens(&user)
}

func (s *AuthService) RefreshToken(refreshToken string) (*AuthResponse, error) {
	subject, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user.Status != models.UserStatusActive {
		return nil, ErrPermissionDenied
	}

	return s.issueTokens(&user)
}

func (s *AuthService) GetProfile(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.TelegramID, user.Username, user.IsStaff, s.config.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.config.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
