package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/Goodnews119/Marketplacesite/internal/config"
	"github.com/Goodnews119/Marketplacesite/internal/repository"
	"github.com/Goodnews119/Marketplacesite/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "marketplace",
		Short: "Digital goods marketplace backend",
		Long: `Marketplace serves the catalog, checkout and upload API for a digital goods store.

Configuration is read from the environment (and a .env file in the working
directory, if present). See the serve command for the HTTP server.`,
		SilenceUsage: true,
	}

	root.AddCommand(newServeCommand())
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newCreateUserCommand())
	return root
}

// loadConfig reads and validates the configuration and installs the default
// logger. Every command starts here.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()

	l := logger.New(os.Stdout, logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(l)
	// chi's request logger writes through the standard log package
	middleware.DefaultLogger = middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(l.Handler(), slog.LevelInfo),
		NoColor: true,
	})
	log.SetFlags(0)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openRepository connects to the configured database and applies pending
// migrations.
func openRepository(cfg *config.Config) (*repository.Repository, error) {
	repo, err := repository.NewRepository(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := repo.RunMigrations(); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("database migrations completed", "driver", cfg.DBDriver)
	return repo, nil
}
