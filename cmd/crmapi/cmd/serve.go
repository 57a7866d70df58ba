package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	"amazobank.com/crm/auth"
	"amazobank.com/crm/auth/fiberauth"
	"amazobank.com/crm/config"
	"amazobank.com/crm/pg/model"
	"amazobank.com/crm/pg/repo"
	"amazobank.com/crm/usermgmt"
)

const shutdownTimeout = 10 * time.Second

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		verifierCfg, err := auth.LoadVerifierConfig()
		if err != nil {
			return err
		}
		tokens, err := auth.NewTokenService(*verifierCfg)
		if err != nil {
			return fmt.Errorf("failed to configure token verification: %w", err)
		}

		store, closeStore, err := openUserStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		cacheCfg, err := auth.LoadCacheConfig()
		if err != nil {
			return err
		}
		svc := usermgmt.NewService(store)
		validator := auth.NewCachedUserValidator(svc, cacheCfg)
		svc.SetInvalidator(validator)

		accessLog, err := config.GetBool("ACCESS_LOG", true)
		if err != nil {
			return err
		}
		app := NewApp(accessLog)
		usermgmt.SetupRoutes(app, usermgmt.NewHandlers(svc), fiberauth.Config{Verifier: tokens, Validator: validator})

		addr := listenAddr
		if addr == "" {
			addr = config.GetConfigWithDefault("HTTP_ADDR", ":8080")
		}

		errCh := make(chan error, 1)
		go func() {
			log.Infow("API server listening", "addr", addr, "config_source", config.GetGlobalConfig().GetConfigSource())
			errCh <- app.Listen(addr)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	},
}

// NewApp builds the fiber app with recovery, optional request logging and
// the JSON error envelope for errors no handler rendered.
func NewApp(accessLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "crmapi",
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	if accessLog {
		app.Use(logger.New())
	}
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"result": "err", "error": fe.Message})
	}
	return fiberauth.WriteError(c, err)
}

// openUserStore connects to DATABASE_URL, or falls back to an in-memory
// store when it is unset.
func openUserStore(ctx context.Context) (model.UserStore, func(), error) {
	databaseURL := config.GetConfig("DATABASE_URL")
	if databaseURL == "" {
		log.Warn("DATABASE_URL not set, users are kept in memory")
		return repo.NewMemoryDB(), func() {}, nil
	}

	pool, err := repo.Connect(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db := repo.NewPostgresDB(pool)
	if err := db.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to prepare schema: %w", err)
	}
	log.Info("Connected to database")
	return db, pool.Close, nil
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address (default HTTP_ADDR or :8080)")
}
