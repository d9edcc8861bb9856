package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"streamvault/cache"
	"streamvault/config"
	"streamvault/database"
	"streamvault/handlers"
	"streamvault/logger"
	"streamvault/mail"
	"streamvault/server"
	"streamvault/services"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "streamvault",
		Short:         "StreamVault - web series catalogue and review service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run migrations and start the HTTP server",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations",
			RunE:  runMigrate,
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Insert lookup data and the bootstrap employee",
			RunE:  runSeed,
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("streamvault %s (commit: %s)\n", version, commit)
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func setup(ctx context.Context) (*config.Config, *database.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger.Init(cfg.Environment, cfg.Debug, cfg.LogFile)

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	store := database.NewStore(db,
		database.WithCache(cache.New(), cfg.CacheEnabled, cfg.CacheTTL),
		database.WithRetryPolicy(database.NewRetryPolicy(cfg.TxMaxAttempts, cfg.TxBaseDelay, cfg.TxMaxDelay)),
	)
	return cfg, store, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	_, store, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()
	return database.RunMigrations(cmd.Context(), store)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, store, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()
	return seed(cmd.Context(), cfg, store)
}

func seed(ctx context.Context, cfg *config.Config, store *database.Store) error {
	if err := database.SeedLookups(ctx, store); err != nil {
		return err
	}
	return services.NewAuthService(store).SeedEmployee(ctx, cfg)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, store, err := setup(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	slog.Info("Starting StreamVault",
		"version", version,
		"env", cfg.Environment,
		"debug", cfg.Debug,
		"cache_enabled", cfg.CacheEnabled)

	if err := database.RunMigrations(ctx, store); err != nil {
		return err
	}
	if err := seed(ctx, cfg, store); err != nil {
		return err
	}

	if !cfg.MailConfigured() {
		slog.Warn("Mail server not configured, password reset emails will fail")
	}
	mailer := mail.NewSMTPMailer(cfg)
	resets := services.NewPasswordResetService(store, mailer, cfg.BaseURL, cfg.ResetTokenTTL)

	h := &handlers.Handler{
		Sessions:  services.NewSessionStore(cfg),
		Auth:      services.NewAuthService(store),
		Resets:    resets,
		Catalog:   services.NewCatalogService(store, cfg.ItemsPerPage),
		Feedback:  services.NewFeedbackService(store),
		Accounts:  services.NewAccountService(store),
		Admin:     services.NewAdminService(store),
		Analytics: services.NewAnalyticsService(store, cfg.CacheTTL),
	}

	housekeeper := services.NewHousekeeper(store, resets)
	if err := housekeeper.Start(); err != nil {
		return err
	}
	defer func() { <-housekeeper.Stop().Done() }()

	router := server.NewRouter(h, store, cfg.LoginRateLimit)
	return server.Run(ctx, server.DefaultConfig(":"+cfg.ServerPort), router)
}
