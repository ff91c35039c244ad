package db

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store wraps the sqlite database holding bindings and reminder cooldowns.
// Both tables are written via single-row upserts, so a successful call is
// durable and a crash mid-tick never leaves partial state.
type Store struct {
	db *gorm.DB
}

// Open creates the database file (and its parent directory) if needed and
// migrates the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("db: create data dir: %w", err)
		}
	}

	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: open %s: %w", path, err)
	}

	if err := gdb.AutoMigrate(&Binding{}, &ReminderCooldown{}); err != nil {
		return nil, fmt.Errorf("db: migrate: %w", err)
	}

	return &Store{db: gdb}, nil
}
