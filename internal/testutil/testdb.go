// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"twobeats/internal/auth"
	"twobeats/internal/database"
	"twobeats/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	// fixtures hash many passwords
	auth.SetHashCost(bcrypt.MinCost)
}

// NewDB returns a migrated in-memory database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory("test_" + uuid.NewString())
	require.NoError(t, err, "in-memory database must open")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser stores a user whose password is the raw password given.
func CreateUser(t *testing.T, db *gorm.DB, username, password string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@test.com", username),
		PasswordHash: hash,
	}
	require.NoError(t, db.Create(user).Error, "creating user %s", username)
	return user
}

func CreateTag(t *testing.T, db *gorm.DB, name string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

// CreateMusic inserts a music row directly, bypassing the upload flow.
func CreateMusic(t *testing.T, db *gorm.DB, owner *models.User, title string) *models.Music {
	t.Helper()
	m := &models.Music{
		Title:    title,
		Singer:   "Test Singer",
		FilePath: "music/" + title + ".mp3",
		OwnerID:  owner.ID,
	}
	require.NoError(t, db.Create(m).Error)
	return m
}

// CreateVideo inserts a video row directly, bypassing the upload flow.
func CreateVideo(t *testing.T, db *gorm.DB, owner *models.User, title string) *models.Video {
	t.Helper()
	v := &models.Video{
		Title:    title,
		FilePath: "video/" + title + ".mp4",
		Duration: 42,
		OwnerID:  owner.ID,
	}
	require.NoError(t, db.Create(v).Error)
	return v
}
