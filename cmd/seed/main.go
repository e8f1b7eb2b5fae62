package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/society-points-api/internal/config"
	"github.com/noah-isme/society-points-api/internal/database"
	"github.com/noah-isme/society-points-api/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	path := flag.String("file", cfg.SeedFile, "seed document; the embedded defaults are used when empty")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "seed").Logger()

	data, err := seed.LoadFile(*path)
	if err != nil {
		log.Fatalf("failed to load seed data: %v", err)
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL, false)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := seed.Apply(ctx, db, data, logger); err != nil {
		log.Fatalf("failed to seed database: %v", err)
	}
}
