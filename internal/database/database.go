package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ksred/breeze-gateway/internal/trading"
)

// NewDatabase opens the order journal database and migrates its schema.
// Path is the sqlite file; an empty path means the journal is disabled and
// the caller gets a nil DB, which the journal treats as a no-op sink.
func NewDatabase(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, nil
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal db: %w", err)
	}

	if err := db.AutoMigrate(&trading.LegRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate journal schema: %w", err)
	}

	return db, nil
}
