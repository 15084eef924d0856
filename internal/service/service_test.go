package service

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/editlance/marketplace/internal/config"
	"github.com/editlance/marketplace/internal/models"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to connect to in-memory db")
	require.NoError(t, config.Migrate(db), "failed to migrate tables")
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()

	user := models.User{
		Username:      username,
		Email:         username + "@example.com",
		PasswordHash:  "x",
		Role:          "user",
		EmailVerified: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createProduct(t *testing.T, db *gorm.DB, p models.Product) models.Product {
	t.Helper()

	if p.Status == "" {
		p.Status = models.ProductActive
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}
