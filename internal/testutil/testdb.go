package testutil

import (
	"fmt"
	"sync/atomic"

	"kyc-review-api/internal/auth"
	"kyc-review-api/internal/database"
	"kyc-review-api/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewInMemoryDB creates an in-memory SQLite DB and runs migrations.
// Each call gets its own named shared-cache database so pooled connections see the same tables.
func NewInMemoryDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// SeedUser inserts a user with the given role and password "pw".
func SeedUser(db *gorm.DB, username string, role models.Role) (models.User, error) {
	hash, err := auth.HashPassword("pw")
	if err != nil {
		return models.User{}, err
	}
	u := models.User{Username: username, PasswordHash: hash, Role: role}
	if err := db.Create(&u).Error; err != nil {
		return models.User{}, err
	}
	return u, nil
}

// BearerFor returns an Authorization header value for u.
func BearerFor(u models.User) (string, error) {
	token, err := auth.GenerateToken(u)
	if err != nil {
		return "", err
	}
	return "Bearer " + token, nil
}
