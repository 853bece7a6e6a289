package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/maison/internal/database"
	"github.com/example/maison/internal/handlers"
	"github.com/example/maison/internal/routes"
	"github.com/example/maison/internal/services"
	"github.com/example/maison/internal/storefront"
	"github.com/example/maison/internal/store"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, database.Options{Verbose: verbose, Migrate: true}, logger)
	if err != nil {
		return err
	}
	st := store.New(db)

	catalog, err := services.NewCatalogProvider(cfg)
	if err != nil {
		return err
	}

	registry := storefront.NewRegistry(st, logger)

	app := fiber.New(fiber.Config{
		AppName:      "Maison Backend",
		ErrorHandler: handlers.ErrorHandler(logger),
		BodyLimit:    16 << 20,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	routes.Register(app, routes.Deps{
		Config:   cfg,
		Store:    st,
		Registry: registry,
		Email:    services.NewEmailService(cfg.ResendAPIKey, cfg.ResendBaseURL, cfg.EmailFrom, logger),
		Telegram: services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat, logger),
		Storage:  services.NewStorageService(cfg.UploadDir, cfg.PublicBaseURL),
		Catalog:  catalog,
		Log:      logger,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", zap.String("port", cfg.AppPort))
		if err := app.Listen(":" + cfg.AppPort); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		registry.RunSweeper(gctx, time.Minute, cfg.WorkspaceIdle)
		return nil
	})

	if catalog != nil && cfg.CatalogSyncInterval > 0 {
		g.Go(func() error {
			runCatalogSync(gctx, catalog, st, cfg.CatalogSyncInterval)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	return g.Wait()
}

func runCatalogSync(ctx context.Context, catalog services.CatalogProvider, st *store.Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := services.SyncCatalog(ctx, catalog, st, logger); err != nil {
				logger.Error("scheduled catalog sync failed", zap.Error(err))
			}
		}
	}
}
