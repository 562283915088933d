package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/michval1/calendar-backend/db"
	"github.com/michval1/calendar-backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory SQLite database with the same join
// table bindings the production setup uses. Both sides of the many2many
// relation must be bound before migration, or AutoMigrate derives the join
// table from the unbound side and drops the permission column.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.SetupJoinTables(conn); err != nil {
		t.Fatalf("setup join tables: %v", err)
	}

	if err := conn.AutoMigrate(&models.User{}, &models.Event{}, &models.EventSharedUser{}, &models.Reminder{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return conn
}

func createUser(t *testing.T, conn *gorm.DB, username string) models.User {
	t.Helper()

	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func createEvent(t *testing.T, conn *gorm.DB, ownerID uint, title string, start time.Time) models.Event {
	t.Helper()

	event := models.Event{
		Title:     title,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		OwnerID:   ownerID,
		Priority:  models.PriorityMedium,
	}
	if err := conn.Create(&event).Error; err != nil {
		t.Fatalf("create event %s: %v", title, err)
	}
	return event
}

func countRows(t *testing.T, conn *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var count int64
	if err := conn.Model(model).Where(query, args...).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}
