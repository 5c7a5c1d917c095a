// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/baraholka/backend/internal/config"
	"github.com/baraholka/backend/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Currency{},
		&models.City{},
		&models.Listing{},
		&models.ListingView{},
		&models.Favorite{},
		&models.Notification{},
		&models.Banner{},
		&models.DailyStats{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := CreateEngagementIndexes(db); err != nil {
		return fmt.Errorf("failed to create engagement indexes: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// CreateEngagementIndexes installs the two partial unique indexes behind view
// deduplication. They are the source of truth for the at-most-one-view
// invariant; the ledger treats conflicts as "already recorded". Split out so
// the sqlite-backed test database installs the same constraints.
func CreateEngagementIndexes(db *gorm.DB) error {
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_listing_views_user
		 ON listing_views (listing_id, user_id) WHERE user_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_listing_views_anon
		 ON listing_views (listing_id, ip_address, session_key) WHERE user_id IS NULL`,
	}

	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Listing browse paths: every public query filters on status.
		"CREATE INDEX IF NOT EXISTS idx_listings_category_status ON listings(category_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_listings_price_status ON listings(price, status)",
		"CREATE INDEX IF NOT EXISTS idx_listings_created_status ON listings(created_at, status)",
		"CREATE INDEX IF NOT EXISTS idx_listings_updated_status ON listings(updated_at, status)",

		"CREATE INDEX IF NOT EXISTS idx_notifications_user_read ON notifications(user_id, is_read)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial data...")

	categories := []models.Category{
		{Name: "Electronics", Slug: "electronics", Order: 1},
		{Name: "Clothing", Slug: "clothing", Order: 2},
		{Name: "Home & Garden", Slug: "home-garden", Order: 3},
		{Name: "Services", Slug: "services", Order: 4},
		{Name: "Other", Slug: "other", Order: 99},
	}
	for _, category := range categories {
		var count int64
		db.Model(&models.Category{}).Where("slug = ?", category.Slug).Count(&count)
		if count == 0 {
			if err := db.Create(&category).Error; err != nil {
				return fmt.Errorf("failed to seed category %s: %w", category.Slug, err)
			}
		}
	}

	currencies := []models.Currency{
		{Name: "US Dollar", Code: "USD", Order: 1},
		{Name: "Euro", Code: "EUR", Order: 2},
		{Name: "Ruble", Code: "RUB", Order: 3},
	}
	for _, currency := range currencies {
		var count int64
		db.Model(&models.Currency{}).Where("code = ?", currency.Code).Count(&count)
		if count == 0 {
			if err := db.Create(&currency).Error; err != nil {
				return fmt.Errorf("failed to seed currency %s: %w", currency.Code, err)
			}
		}
	}

	log.Println("Initial data seeding completed")
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
