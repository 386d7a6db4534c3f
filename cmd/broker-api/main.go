package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/keybroker/internal/api"
	"github.com/edvin/keybroker/internal/authz"
	"github.com/edvin/keybroker/internal/config"
	"github.com/edvin/keybroker/internal/core"
	"github.com/edvin/keybroker/internal/db"
	"github.com/edvin/keybroker/internal/keygen"
	"github.com/edvin/keybroker/internal/logging"
	"github.com/edvin/keybroker/internal/metrics"
)

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "create-tenant" {
		createTenant(os.Args[2:])
		return
	}

	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations", "Migration files directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		if err := db.RunMigrations(ctx, cfg.DatabaseURL, *migrateDirFlag); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(pool)

	table := authz.DefaultTable()
	if cfg.AuthzConfigPath != "" {
		table, err = authz.LoadTable(cfg.AuthzConfigPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.AuthzConfigPath).Msg("failed to load authorization table")
		}
	}
	resolver := authz.NewResolver(pool, table)

	keys := keygen.NewGenerator(logger, cfg.SSHKeygenBin, cfg.ShredBin, cfg.KeygenDir)
	services := core.NewServices(pool, keys)
	srv := api.NewServer(logger, pool, services, resolver, cfg)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting broker API server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.ReservationSweepInterval > 0 {
		g.Go(func() error {
			return sweepReservations(gctx, logger, services, cfg.ReservationSweepInterval)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("broker API exited")
	}
}

// createTenant bootstraps a tenant together with its first admin, since
// every API route requires an existing principal to authenticate as.
func createTenant(args []string) {
	fs := flag.NewFlagSet("create-tenant", flag.ExitOnError)
	name := fs.String("name", "", "Name for the tenant (required)")
	adminID := fs.String("admin", "admin", "ID for the tenant's first admin")
	fs.Parse(args)

	if *name == "" {
		fmt.Fprintln(os.Stderr, "error: --name is required")
		fmt.Fprintln(os.Stderr, "usage: broker-api create-tenant --name <name> [--admin <admin-id>]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	tenants := core.NewTenantService(pool)
	tenant, err := tenants.Create(ctx, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to create tenant: %v\n", err)
		os.Exit(1)
	}

	admins := core.NewAdminService(pool)
	admin, secret, err := admins.Create(ctx, tenant.ID, *adminID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to create admin: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Tenant created successfully.\n\n")
	fmt.Printf("  Name:         %s\n", tenant.Name)
	fmt.Printf("  Tenant ID:    %s\n", tenant.ID)
	fmt.Printf("  Admin ID:     %s\n", admin.AdminID)
	fmt.Printf("  Admin secret: %s\n\n", secret)
	fmt.Printf("Save this secret now. It will not be shown again.\n")
}

// sweepReservations periodically removes reservations whose expiry has
// passed. It runs until the context is cancelled.
func sweepReservations(ctx context.Context, logger zerolog.Logger, services *core.Services, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			purged, err := services.Reservation.PurgeExpired(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("reservation sweep failed")
				continue
			}
			if purged > 0 {
				logger.Debug().Int64("purged", purged).Msg("purged expired reservations")
			}
		}
	}
}
