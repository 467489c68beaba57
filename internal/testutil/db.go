// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"chattr.app/backend/internal/entity"
	"chattr.app/backend/pkg/database"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory sqlite database with every entity migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	cfg := database.GormConfig()
	cfg.Logger = logger.Default.LogMode(logger.Silent)

	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the shared cache alive and serialises writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db, entity.Models()...))
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, firstName string) *entity.User {
	t.Helper()
	u := &entity.User{
		FirstName:    firstName,
		LastName:     "Tester",
		Email:        strings.ToLower(firstName) + "@chattr.test",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func CreatePost(t *testing.T, db *gorm.DB, owner *entity.User, content string) *entity.Post {
	t.Helper()
	p := &entity.Post{UserID: owner.ID, Content: content}
	require.NoError(t, db.Create(p).Error)
	return p
}
