// Culvertd is the culvert registry service: a JSON HTTP API over a
// SQLite-backed inventory of road culverts, with token-based
// authentication, role-gated access, and an audit trail.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/trubochisty/culvert-core/migrations"

	"github.com/trubochisty/culvert-core/internal/api"
	"github.com/trubochisty/culvert-core/internal/audit"
	"github.com/trubochisty/culvert-core/internal/auth"
	"github.com/trubochisty/culvert-core/internal/culvert"
	"github.com/trubochisty/culvert-core/internal/infrastructure/config"
	"github.com/trubochisty/culvert-core/internal/infrastructure/database"
	"github.com/trubochisty/culvert-core/internal/infrastructure/logging"
)

// Version information, set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run holds the actual startup logic, separated from main so errors
// map to exit codes in one place.
func run(ctx context.Context) error {
	configPath := flag.String("config", getConfigPath(), "path to config file")
	flag.Parse()

	log := logging.Default()
	log.Info("starting culvertd",
		"version", version,
		"commit", commit,
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", *configPath)

	log = logging.New(cfg.Logging, version)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations complete")

	userRepo := auth.NewUserRepository(db.DB)
	culvertRepo := culvert.NewRepository(db.DB)
	auditRepo := audit.NewRepository(db.DB)

	if _, err := auth.SeedAdmin(ctx, userRepo, log.Logger); err != nil {
		return fmt.Errorf("seeding admin account: %w", err)
	}

	tokens := auth.NewTokenManager(cfg.Security.JWT.Secret, cfg.AccessTokenTTL(), cfg.RefreshGrace())
	authSvc := auth.NewService(userRepo, tokens, log.Logger)
	culvertSvc := culvert.NewService(culvertRepo, log.Logger)

	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Security: cfg.Security,
		Logger:   log,
		Auth:     authSvc,
		Users:    userRepo,
		Culverts: culvertSvc,
		Audit:    auditRepo,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the default config path, honouring the
// CULVERT_CONFIG environment variable.
func getConfigPath() string {
	if path := os.Getenv("CULVERT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the infrastructure is up after startup.
func healthCheck(ctx context.Context, db *database.DB, server *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
