package db

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"go-debate/internal/config"
	"go-debate/internal/session"
	"go-debate/internal/user"
)

var DB *gorm.DB

func Init(cfg *config.Config) error {
	db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{})
	if err != nil {
		return err
	}

	// Auto-migrate user accounts
	if err := db.AutoMigrate(&user.User{}); err != nil {
		return err
	}

	// Auto-migrate debate session records
	if err := db.AutoMigrate(&session.Record{}); err != nil {
		return err
	}

	DB = db
	log.Printf("Database connected and migrated")
	return nil
}
