// Command migrate applies the database schema and vector indexes.
package main

import (
	"log"

	"github.com/miro-4231/BackendSN/internal/config"
	"github.com/miro-4231/BackendSN/internal/database"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Connect already migrates outside production; running again is
	// idempotent and covers the production path.
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed")
}
