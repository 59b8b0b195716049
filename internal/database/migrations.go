package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pirouette/studio/internal/models"
)

// AutoMigrate creates or updates the schema owned by the authentication core.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.UserRole{},
		&models.Session{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// OpenAndMigrate opens the configured database and brings its schema up to date.
func OpenAndMigrate(cfg Config) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		_ = Close(db)
		return nil, err
	}
	return db, nil
}
