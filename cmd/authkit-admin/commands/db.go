package commands

import (
	"fmt"
	"os"

	"github.com/bennettsh/authkit/internal/config"
	"github.com/bennettsh/authkit/internal/database"
)

// openDB loads config and connects to the database. The returned cleanup
// closes the pool.
func openDB() (*database.DB, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}
	return db, cleanup, nil
}
