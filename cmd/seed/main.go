package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pageturn/backend/internal/database"
	"github.com/pageturn/backend/internal/logger"
	"github.com/pageturn/backend/internal/seed"
)

func main() {
	_ = godotenv.Load()

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), "seed.log"); err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Close()

	if err := database.Initialize(); err != nil {
		logger.FatalWithFields("failed to initialize database", err)
	}
	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("failed to run migrations", err)
	}

	seeder := seed.NewSeeder(database.DB)
	if err := seeder.SeedDev(); err != nil {
		logger.FatalWithFields("seeding failed", err)
	}
}
