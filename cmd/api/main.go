package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/gymcore/gym-api/internal/auth"
	"github.com/gymcore/gym-api/internal/config"
	"github.com/gymcore/gym-api/internal/database"
	"github.com/gymcore/gym-api/internal/gym"
	"github.com/gymcore/gym-api/internal/handlers"
	"github.com/gymcore/gym-api/internal/metrics"
	"github.com/gymcore/gym-api/internal/routes"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "gymapi",
		Short:        "Gym memberships, class reservations and attendance API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the YAML config file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(configPath)
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			logger.Info("schema applied", slog.Int("statements", len(database.Statements())))
			return nil
		},
	})

	return root
}

// setup loads the configuration and builds the JSON logger every command uses.
func setup(path string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func openDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	pool := database.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	db, err := database.OpenDB(ctx, cfg.Database.DSN, pool, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to primary database: %w", err)
	}
	return db, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// 1. --- Main Database Connection (Read/Write) ---
	db, err := openDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. --- Domain services ---
	clock := gym.NewClock(cfg.Location())
	fence := gym.Geofence{
		Latitude:     cfg.Gym.Latitude,
		Longitude:    cfg.Gym.Longitude,
		RadiusMeters: cfg.Gym.GeofenceRadius,
		Enforce:      cfg.Gym.GeofenceEnforce,
	}
	m := metrics.New()
	service := gym.NewService(database.NewStore(db), clock, fence, m)

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("token manager: %w", err)
	}

	// --- Application Setup ---
	app := &handlers.Handlers{
		DB:     db,
		Gym:    service,
		Tokens: tokens,
		Clock:  clock,
		Logger: logger,
	}

	// --- Router Setup ---
	gin.SetMode(gin.ReleaseMode)
	router := routes.SetupRouter(app, m, cfg.Server.CORSOrigin)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Start Server ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting gym API server",
			slog.String("addr", cfg.Server.Addr),
			slog.String("timezone", clock.Zone().String()),
			slog.Bool("geofence_enforced", fence.Enforce))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// --- Graceful shutdown on SIGINT/SIGTERM ---
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
