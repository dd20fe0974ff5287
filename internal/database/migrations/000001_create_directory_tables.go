package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/jobsetu/backend/internal/models"
	"gorm.io/gorm"
)

func createDirectoryTablesMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_directory_tables",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&models.User{},
				&models.Organisation{},
			)
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable("users", "organisations")
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createDirectoryTablesMigration())
}
