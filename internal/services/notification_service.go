// internal/services/notification_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/baraholka/backend/internal/i18n"
	"github.com/baraholka/backend/internal/models"
	"github.com/baraholka/backend/internal/utils"
)

// TelegramSender pushes a plain-text message to a Telegram chat. The bot
// implements this; a nil sender keeps notifications in-app only.
type TelegramSender interface {
	SendMessage(chatID int64, text string) error
}

// NotificationService stores per-user notifications and mirrors them to
// Telegram when a sender is connected. It implements ModerationNotifier.
type NotificationService struct {
	db     *gorm.DB
	sender TelegramSender
}

func NewNotificationService(db *gorm.DB, sender TelegramSender) *NotificationService {
	return &NotificationService{db: db, sender: sender}
}

// SetSender connects the Telegram sender after the bot is up.
func (s *NotificationService) SetSender(sender TelegramSender) {
	s.sender = sender
}

func (s *NotificationService) NotifyListingModerated(listing *models.Listing, approved bool) {
	kind := models.NotificationTypeListingRejected
	key := i18n.KeyListingRejected
	if approved {
		kind = models.NotificationTypeListingApproved
		key = i18n.KeyListingApproved
	}
	s.notify(&listing.Author, listing, kind, key)
}

func (s *NotificationService) NotifyListingArchived(listing *models.Listing) {
	s.notify(&listing.Author, listing, models.NotificationTypeListingArchived, i18n.KeyListingArchived)
}

func (s *NotificationService) notify(user *models.User, listing *models.Listing, kind models.NotificationType, messageKey string) {
	lang := user.LanguageCode
	if lang == "" {
		lang = "en"
	}
	message := i18n.T(lang, messageKey, listing.Title)

	notification := &models.Notification{
		UserID:    user.ID,
		ListingID: &listing.ID,
		Type:      kind,
		Message:   message,
	}
	if err := s.db.Create(notification).Error; err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).
			Error("Failed to store notification")
		return
	}

	if s.sender != nil && user.TelegramID != 0 {
		chatID := user.TelegramID
		go func() {
			if err := s.sender.SendMessage(chatID, message); err != nil {
				logrus.WithError(err).WithField("telegram_id", chatID).
					Warn("Failed to push notification to Telegram")
			}
		}()
	}
}

func (s *NotificationService) ListForUser(userID uuid.UUID, params utils.PaginationParams) ([]models.Notification, int64, error) {
	query := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var notifications []models.Notification
	err := utils.ApplyPagination(query.Order("created_at desc"), params).Find(&notifications).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, total, nil
}

func (s *NotificationService) MarkRead(userID, notificationID uuid.UUID) error {
	res := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
