package db

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"go-insure/internal/catalog"
	"go-insure/internal/config"
	"go-insure/internal/session"
)

var DB *gorm.DB

// Open connects to the configured database without migrating.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.DSN)
	case "postgres", "":
		dialector = postgres.Open(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	return gorm.Open(dialector, &gorm.Config{})
}

// Models is every table the service owns, including the policy catalog.
func Models() []interface{} {
	return append(session.Models(), &catalog.Policy{})
}

func Init(cfg *config.Config) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}

	// Sessions, chat history, leads, quotes and the policy catalog
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	DB = db
	log.Printf("Database connected and migrated (%s)", cfg.Database.Driver)
	return nil
}
