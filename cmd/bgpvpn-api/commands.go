package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edvin/bgpvpn/internal/config"
	"github.com/edvin/bgpvpn/internal/core"
	"github.com/edvin/bgpvpn/internal/db"
	"github.com/edvin/bgpvpn/internal/export"
	"github.com/edvin/bgpvpn/internal/logging"
	"github.com/edvin/bgpvpn/internal/seed"
)

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// loadConfig loads and validates the configuration of a subcommand.
func loadConfig(component string) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fail("failed to load config: %v", err)
	}
	if err := cfg.Validate(component); err != nil {
		fail("invalid config: %v", err)
	}
	return cfg
}

func connect(ctx context.Context, cfg *config.Config) *pgxpool.Pool {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		fail("failed to connect to database: %v", err)
	}
	return pool
}

func runCreateAPIKey(args []string) {
	fs := flag.NewFlagSet("create-api-key", flag.ExitOnError)
	name := fs.String("name", "", "Name for the API key (required)")
	tenant := fs.String("tenant", "", "Tenant the key acts as (required)")
	admin := fs.Bool("admin", false, "Grant admin rights")
	fs.Parse(args)

	if *name == "" || *tenant == "" {
		fmt.Fprintln(os.Stderr, "error: --name and --tenant are required")
		fmt.Fprintln(os.Stderr, "usage: bgpvpn-api create-api-key --name <name> --tenant <tenant> [--admin]")
		os.Exit(1)
	}

	cfg := loadConfig("create-api-key")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool := connect(ctx, cfg)
	defer pool.Close()

	svc := core.NewAPIKeyService(pool)
	key, rawKey, err := svc.Create(ctx, *name, *tenant, *admin)
	if err != nil {
		fail("failed to create API key: %v", err)
	}

	fmt.Printf("API key created successfully.\n\n")
	fmt.Printf("  Name:   %s\n", key.Name)
	fmt.Printf("  ID:     %s\n", key.ID)
	fmt.Printf("  Tenant: %s\n", key.TenantID)
	fmt.Printf("  Admin:  %t\n", key.IsAdmin)
	fmt.Printf("  Key:    %s\n\n", rawKey)
	fmt.Printf("Save this key. It will not be shown again.\n")
}

func runRevokeAPIKey(args []string) {
	fs := flag.NewFlagSet("revoke-api-key", flag.ExitOnError)
	id := fs.String("id", "", "ID of the API key to revoke (required)")
	fs.Parse(args)

	if *id == "" {
		fmt.Fprintln(os.Stderr, "error: --id is required")
		fmt.Fprintln(os.Stderr, "usage: bgpvpn-api revoke-api-key --id <id>")
		os.Exit(1)
	}

	cfg := loadConfig("create-api-key")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool := connect(ctx, cfg)
	defer pool.Close()

	if err := core.NewAPIKeyService(pool).Revoke(ctx, *id); err != nil {
		fail("failed to revoke API key: %v", err)
	}
	fmt.Printf("API key %s revoked.\n", *id)
}

func runSeed(args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	file := fs.String("file", "seeds/dev.yaml", "Seed file")
	fs.Parse(args)

	cfg := loadConfig("seed")
	logger := logging.NewLogger(cfg)

	fixtures, err := seed.Load(*file)
	if err != nil {
		logger.Fatal().Err(err).Str("file", *file).Msg("failed to load seed file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool := connect(ctx, cfg)
	defer pool.Close()

	if err := seed.Apply(ctx, logger, core.NewServices(pool, nil), fixtures); err != nil {
		logger.Fatal().Err(err).Msg("seed failed")
	}
	logger.Info().Str("file", *file).Msg("seed complete")
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	timeout := fs.Duration("timeout", 5*time.Minute, "Maximum time for the export")
	fs.Parse(args)

	cfg := loadConfig("export")
	logger := logging.NewLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool := connect(ctx, cfg)
	defer pool.Close()

	services := core.NewServices(pool, nil)
	snap, err := services.Export.Snapshot(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("snapshot failed")
	}

	key, err := export.NewUploader(logger, cfg).Upload(ctx, snap)
	if err != nil {
		logger.Fatal().Err(err).Msg("upload failed")
	}
	fmt.Println(key)
}
