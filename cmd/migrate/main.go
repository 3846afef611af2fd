// Command migrate applies or rolls back the embedded schema migrations.
//
//	migrate up|down|version
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/iliyamo/travel-backoffice/internal/config"
	"github.com/iliyamo/travel-backoffice/internal/database"
	"github.com/iliyamo/travel-backoffice/internal/logging"
)

func main() {
	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	if err := godotenv.Load(".env"); err != nil {
		fmt.Println("Failed to load .env file")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading environment variables: %v", err)
	}
	logger, logCloser, err := logging.New(cfg.App.LogLevel, "")
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logCloser.Close()

	db, err := database.Open(cfg.DB)
	if err != nil {
		logger.Fatalf("Error initializing db connection: %v", err)
	}
	migrator, err := database.NewMigrator(db, logger.Unwrap())
	if err != nil {
		logger.Fatalf("Error initializing db migrator: %v", err)
	}
	defer migrator.Close()

	switch cmd {
	case "up":
		err = migrator.Up()
	case "down":
		err = migrator.Down()
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = migrator.Version()
		if err == nil {
			fmt.Printf("version=%d dirty=%t\n", version, dirty)
		}
	default:
		fmt.Fprintf(os.Stderr, "usage: %s up|down|version\n", os.Args[0])
		os.Exit(2)
	}
	if err != nil {
		logger.Fatalf("migrate %s: %v", cmd, err)
	}
}
