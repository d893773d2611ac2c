package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sergeyvolkov/vk-dating-bot/internal/db"
	"github.com/sergeyvolkov/vk-dating-bot/internal/repository"
)

// setupTestDB opens an isolated in-memory SQLite DB with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

// seedProfile inserts a profile via the upsert path and returns its id.
func seedProfile(t *testing.T, gdb *gorm.DB, vkID int64, first, last string) uint64 {
	t.Helper()

	repo := repository.NewProfileRepository(gdb)
	id, err := repo.Upsert(context.Background(), &db.Profile{
		VKID:      vkID,
		FirstName: &first,
		LastName:  &last,
	})
	if err != nil {
		t.Fatalf("failed to seed profile %d: %v", vkID, err)
	}
	return id
}

// seedUser inserts a bare user row and returns it.
func seedUser(t *testing.T, gdb *gorm.DB, vkUserID int64) *db.User {
	t.Helper()

	repo := repository.NewUserRepository(gdb)
	user, err := repo.CreateMinimal(context.Background(), vkUserID)
	if err != nil {
		t.Fatalf("failed to seed user %d: %v", vkUserID, err)
	}
	return user
}
