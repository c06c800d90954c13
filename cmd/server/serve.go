package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/projectannie/contactd/internal/api/handlers"
	"github.com/projectannie/contactd/internal/config"
	"github.com/projectannie/contactd/internal/contact"
	"github.com/projectannie/contactd/internal/notify"
	"github.com/projectannie/contactd/internal/ratelimit"
	"github.com/projectannie/contactd/internal/server"
	"github.com/projectannie/contactd/internal/server/routes"
	"github.com/projectannie/contactd/internal/tasks"
	"github.com/projectannie/contactd/internal/telemetry"
	"github.com/projectannie/contactd/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg, true)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	logger.Info("Starting %s %s in %s mode", serviceName, version.GetVersionString(), cfg.Environment)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("Failed to flush traces: %v", err)
		}
	}()

	policy := ratelimit.Policy{
		Limit:     cfg.RateLimitMax,
		Window:    cfg.RateLimitWindow,
		HighWater: cfg.RateLimitHighWater,
	}

	var (
		store    ratelimit.Store
		sqlStore *ratelimit.SQLStore
		pinger   handlers.Pinger
	)
	switch cfg.RateLimitStore {
	case config.StorePostgres, config.StoreSQLite:
		sqlStore, err = openSQLStore(ctx, cfg, policy)
		if err != nil {
			return err
		}
		defer sqlStore.Close()
		store, pinger = sqlStore, sqlStore
		logger.Info("Using %s rate limit store", cfg.RateLimitStore)
	default:
		store = ratelimit.NewMemoryStore(policy)
		logger.Info("Using in-memory rate limit store")
	}

	// The provider client is built on the first submission, so the server
	// starts even when credentials are missing.
	dispatcher := notify.NewLazyFromConfig(notifyConfig(cfg))

	gatekeeper := contact.NewGatekeeper(store, dispatcher, contact.Config{
		To:              cfg.ContactEmail,
		From:            cfg.ContactFrom,
		Organization:    cfg.Organization,
		DispatchTimeout: cfg.DispatchTimeout,
	}, contact.WithLogger(logger))

	srv := server.NewServer(server.Config{
		Port: cfg.Port,
		Middleware: routes.MiddlewareConfig{
			ServiceName:    serviceName,
			AllowedOrigins: cfg.AllowedOrigins,
			Development:    !cfg.IsProduction(),
			MaxBodySize:    cfg.MaxBodySize,
			GlobalRPS:      cfg.GlobalRPS,
			GlobalBurst:    cfg.GlobalBurst,
		},
	}, logger, &routes.Handlers{
		Contact: handlers.NewContactHandler(gatekeeper),
		Health:  handlers.NewHealthHandler(pinger),
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	g.Go(func() error {
		<-gctx.Done()
		return srv.Shutdown(context.Background())
	})

	if sqlStore != nil {
		sweep := tasks.NewRateLimitSweep(sqlStore, cfg.RateLimitSweepInterval, logger)
		g.Go(func() error {
			return sweep.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error: %v", err)
		return err
	}

	logger.Info("Server stopped")
	return nil
}

func openSQLStore(ctx context.Context, cfg *config.Config, policy ratelimit.Policy) (*ratelimit.SQLStore, error) {
	db, err := ratelimit.OpenSQL(ratelimit.Dialect(cfg.RateLimitStore), cfg.RateLimitDSN)
	if err != nil {
		return nil, err
	}

	store := ratelimit.NewSQLStore(db, policy)
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

func notifyConfig(cfg *config.Config) notify.Config {
	return notify.Config{
		Provider:         cfg.NotifyProvider,
		ResendAPIKey:     cfg.ResendAPIKey,
		ResendBaseURL:    cfg.ResendBaseURL,
		TelegramBotToken: cfg.TelegramBotToken,
		TelegramChatID:   cfg.TelegramChatID,
		Timeout:          cfg.DispatchTimeout,
	}
}
