// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess          = "success"
	KeyError            = "error"
	KeyPermissionDenied = "common.permission_denied"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthTelegramRejected   = "auth.telegram_rejected"
	KeyAuthLoginSuccess       = "auth.login_success"

	// Users
	KeyUserNotFound = "user.not_found"
	KeyUserBanned   = "user.banned"

	// Listings
	KeyListingCreated           = "listing.created"
	KeyListingUpdated           = "listing.updated"
	KeyListingDeleted           = "listing.deleted"
	KeyListingNotFound          = "listing.not_found"
	KeyListingApproved          = "listing.approved"
	KeyListingRejected          = "listing.rejected"
	KeyListingPublished         = "listing.published"
	KeyListingArchived          = "listing.archived"
	KeyListingInvalidTransition = "listing.invalid_transition"
	KeyListingNotAuthor         = "listing.not_author"

	// Favorites
	KeyFavoriteAdded   = "favorite.added"
	KeyFavoriteRemoved = "favorite.removed"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationTooShort = "validation.too_short"
	KeyValidationTooLong  = "validation.too_long"

	// File Upload
	KeyFileUploadSuccess = "file.upload_success"
	KeyFileUploadFailed  = "file.upload_failed"
	KeyFileInvalidType   = "file.invalid_type"
	KeyFileTooLarge      = "file.too_large"

	// Staff
	KeyStaffAccessDenied = "staff.access_denied"
)
