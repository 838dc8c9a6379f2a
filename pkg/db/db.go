package db

import (
	"context"
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/doodlesbykumbi/piivault/pkg/seal"
)

// Config holds database connection configuration
type Config struct {
	// URL is the database connection URL (defaults to PIIVAULT_DATABASE_URL)
	URL string
	// Cipher is optional - if provided, it will be added to the context so
	// model hooks can encrypt and decrypt sensitive columns
	Cipher seal.SymmetricCipher
}

// Connect establishes a database connection.
// If no URL is provided, it reads from the PIIVAULT_DATABASE_URL (or
// DATABASE_URL) environment variable.
func Connect(cfg Config) (*gorm.DB, error) {
	dbURL := cfg.URL
	if dbURL == "" {
		dbURL = URL()
	}
	if dbURL == "" {
		return nil, fmt.Errorf("PIIVAULT_DATABASE_URL environment variable is required")
	}

	// Default to silent logging unless PIIVAULT_LOG_LEVEL=debug is set
	logMode := logger.Silent
	if os.Getenv("PIIVAULT_LOG_LEVEL") == "debug" {
		logMode = logger.Info
	}

	db, err := gorm.Open(
		postgres.New(postgres.Config{
			DSN:                  dbURL,
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logMode),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Cipher != nil {
		ctx := context.WithValue(context.Background(), "cipher", cfg.Cipher)
		db = db.WithContext(ctx)
	}

	return db, nil
}

// URL returns the database URL from environment.
// Returns empty string if neither PIIVAULT_DATABASE_URL nor DATABASE_URL is set.
func URL() string {
	if url := os.Getenv("PIIVAULT_DATABASE_URL"); url != "" {
		return url
	}
	return os.Getenv("DATABASE_URL")
}
