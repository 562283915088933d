package db

import (
	"github.com/michval1/calendar-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDatabase(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})

	if err != nil {
		return err
	}

	return SetupJoinTables(DB)
}

// SetupJoinTables binds the shared-event join table to its own model, so
// the permission column survives association writes instead of being
// managed by an anonymous join table.
func SetupJoinTables(conn *gorm.DB) error {
	if err := conn.SetupJoinTable(&models.Event{}, "SharedWith", &models.EventSharedUser{}); err != nil {
		return err
	}
	return conn.SetupJoinTable(&models.User{}, "SharedEvents", &models.EventSharedUser{})
}

func MigrateDatabase() error {
	tables := []interface{}{
		&models.User{},
		&models.Event{},
		&models.EventSharedUser{},
		&models.Reminder{},
	}

	migrator := DB.Migrator()

	for _, table := range tables {
		if !migrator.HasTable(table) {
			if err := DB.AutoMigrate(table); err != nil {
				return err
			}
		}
	}

	return nil
}
