package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"qahwa/internal/config"
	"qahwa/internal/database"
	"qahwa/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	path := flag.String("file", "catalog.yaml", "path to the product catalogue")
	flag.Parse()

	dbCfg, logCfg, err := config.LoadDatabase()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(logCfg).With().Str("component", "seed").Logger()

	products, err := loadCatalog(*path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPool(ctx, dbCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	repo := repository.NewProductRepository(pool, logger)
	for i := range products {
		if err := repo.Upsert(ctx, &products[i]); err != nil {
			return fmt.Errorf("failed to seed product %d: %w", products[i].ID, err)
		}
	}

	logger.Info().
		Str("file", *path).
		Int("products", len(products)).
		Msg("catalogue seeded")

	return nil
}
