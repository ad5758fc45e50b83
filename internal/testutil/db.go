// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"unem-umt/internal/adapters/persistence/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database private to t.
// The pool holds one connection so the memory database lives as long as the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Clock returns a fixed time source at the given day, 10:00 UTC
func Clock(year int, month time.Month, day int) func() time.Time {
	at := time.Date(year, month, day, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}
