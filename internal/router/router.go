// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/baraholka/backend/internal/config"
	"github.com/baraholka/backend/internal/handlers"
	"github.com/baraholka/backend/internal/middleware"
	"github.com/baraholka/backend/internal/services"
	"github.com/baraholka/backend/internal/utils"
)

// AppServices exposes the service instances main needs to wire the bot and
// the scheduler to the same state the HTTP layer uses.
type AppServices struct {
	Listings      *services.ListingService
	Notifications *services.NotificationService
}

func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, *AppServices) {
	// Initialize services
	notificationService := services.NewNotificationService(db, nil)
	storageService, _ := services.NewStorageService(cfg)
	moderator := services.NewStopListModerator(cfg.Moderation.StopWords)

	authService := services.NewAuthService(db, cfg)
	listingService := services.NewListingService(db, moderator, notificationService, storageService, cfg.Moderation)
	engagementService := services.NewEngagementService(db)
	referenceService := services.NewReferenceService(db)
	statsService := services.NewStatsService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	listingHandler := handlers.NewListingHandler(listingService, engagementService, storageService)
	userHandler := handlers.NewUserHandler(notificationService)
	referenceHandler := handlers.NewReferenceHandler(referenceService)
	statsHandler := handlers.NewStatsHandler(statsService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.Session())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Local photo storage fallback
	r.Static("/uploads", "./uploads")

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/telegram", authHandler.TelegramLogin)
			auth.POST("/staff/login", authHandler.StaffLogin)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Listing routes
		listings := v1.Group("/listings")
		{
			listings.GET("", middleware.OptionalAuth(), listingHandler.GetListings)
			listings.GET("/:id", middleware.OptionalAuth(), listingHandler.GetListing)

			// Authenticated routes
			protected := listings.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", listingHandler.CreateListing)
				protected.PUT("/:id", listingHandler.UpdateListing)
				protected.DELETE("/:id", listingHandler.DeleteListing)
				protected.POST("/:id/publish", listingHandler.PublishListing)
				protected.PUT("/:id/status", listingHandler.ChangeStatus)
				protected.POST("/:id/favorite", listingHandler.ToggleFavorite)
				protected.POST("/upload", middleware.UploadRateLimit(), listingHandler.UploadPhotos)
			}
		}

		// User routes
		users := v1.Group("/users")
		users.Use(middleware.AuthRequired())
		{
			users.GET("/favorites", listingHandler.GetFavorites)
			users.GET("/notifications", userHandler.GetNotifications)
			users.PUT("/notifications/:id/read", userHandler.MarkNotificationRead)
		}

		// Reference dictionaries (public)
		v1.GET("/categories", referenceHandler.GetCategories)
		v1.GET("/cities", referenceHandler.GetCities)
		v1.GET("/currencies", referenceHandler.GetCurrencies)
		v1.GET("/banners", referenceHandler.GetBanners)

		// Staff routes
		staff := v1.Group("/staff")
		staff.Use(middleware.AuthRequired(), middleware.StaffRequired())
		{
			staff.GET("/listings/pending", listingHandler.GetPendingListings)
			staff.PUT("/listings/:id/approve", listingHandler.ApproveListing)
			staff.PUT("/listings/:id/reject", listingHandler.RejectListing)

			staff.GET("/stats/dashboard", statsHandler.GetDashboard)
			staff.GET("/stats/daily", statsHandler.GetDailyStats)
		}
	}

	return r, &AppServices{
		Listings:      listingService,
		Notifications: notificationService,
	}
}
