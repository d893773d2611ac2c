package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sergeyvolkov/vk-dating-bot/internal/config"
)

// NewDB opens the PostgreSQL connection described by the config and keeps
// the schema in sync with the models.
//
// TranslateError is on so that unique-constraint violations surface as
// gorm.ErrDuplicatedKey and can be mapped to a retryable conflict.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	database, err := gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := Migrate(database); err != nil {
		return nil, err
	}

	return database, nil
}

// Migrate creates or updates the four tables. Profiles go first: users,
// photos and decisions all carry foreign keys into vk_profiles.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(&Profile{}, &User{}, &Photo{}, &Decision{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
