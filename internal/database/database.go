package database

import (
	"kyc-review-api/internal/logging"
	"kyc-review-api/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB opens the SQLite file at path and runs migrations.
// glebarez/sqlite is pure Go, so no CGO is required.
func InitDB(path string) {
	var err error
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		logging.Logger.Fatalf("failed to connect to database: %v", err)
	}

	if err := Migrate(DB); err != nil {
		logging.Logger.Fatalf("failed to migrate database: %v", err)
	}

	logging.Logger.WithField("path", path).Info("database connected and migrated")
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.KYCSubmission{},
	)
}

// GetDB returns the database connection
func GetDB() *gorm.DB {
	return DB
}
