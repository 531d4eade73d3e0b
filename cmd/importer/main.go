// Command importer loads a tracker JSON export into the tickets table.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/lorrc/service-desk-insights/internal/adapters/secondary/file"
	"github.com/lorrc/service-desk-insights/internal/adapters/secondary/postgres"
	"github.com/lorrc/service-desk-insights/internal/config"
	"github.com/lorrc/service-desk-insights/internal/infrastructure/logging"
)

func main() {
	_ = godotenv.Load()

	path := flag.String("file", os.Getenv("TICKETS_FILE"), "tracker JSON export to import")
	databaseURL := flag.String("database-url", os.Getenv("DATABASE_URL"), "postgres connection string")
	migrations := flag.String("migrations", "migrations", "migrations directory")
	runMigrations := flag.Bool("migrate", true, "apply pending migrations before importing")
	flag.Parse()

	logger := logging.NewLogger(logging.Config{
		Level:       "info",
		Format:      "text",
		Output:      os.Stderr,
		ServiceName: "ticket-importer",
		Environment: os.Getenv("APP_ENV"),
	})

	if *path == "" || *databaseURL == "" {
		logger.Error("both -file and -database-url are required")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := run(ctx, *path, *databaseURL, *migrations, *runMigrations, logger); err != nil {
		logger.Error("import failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path, databaseURL, migrations string, runMigrations bool, logger *slog.Logger) error {
	tickets, err := file.NewTicketLoader(path, logger).Load(ctx)
	if err != nil {
		return err
	}

	if runMigrations {
		if err := postgres.Migrate(databaseURL, migrations); err != nil {
			return err
		}
	}

	pool, err := postgres.Connect(ctx, config.DatabaseConfig{URL: databaseURL})
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.NewTicketLoader(pool).Import(ctx, tickets); err != nil {
		return err
	}

	logger.Info("tickets imported", "count", len(tickets), "file", path)
	return nil
}
