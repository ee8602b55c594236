// Package testutil holds helpers shared by the package tests and the container tooling.
package testutil

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/localnerve/pagesdb/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var nonNameChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// NewTestDB creates a migrated in-memory SQLite database private to the test.
// A single connection keeps every query on the same in-memory database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", nonNameChars.ReplaceAllString(t.Name(), "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}
