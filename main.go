package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annazecevic/album-service/config"
	"github.com/annazecevic/album-service/handler"
	"github.com/annazecevic/album-service/logger"
	"github.com/annazecevic/album-service/middleware"
	"github.com/annazecevic/album-service/repository"
	"github.com/annazecevic/album-service/service"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var version = "dev"

type serveFlags struct {
	configPath string
	port       int
	statusMode string
	store      string
}

func main() {
	if err := newRootCommand(serve).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCommand wires flags over the loaded config and hands the result to
// run. Validation happens once, after the flags are applied.
func newRootCommand(run func(context.Context, *config.Config) error) *cobra.Command {
	var flags serveFlags

	root := &cobra.Command{
		Use:          "album-service",
		Short:        "CRUD HTTP API for music albums backed by MongoDB",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(flags.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.ServerPort = flags.port
			}
			if cmd.Flags().Changed("status-mode") {
				cfg.StatusMode = flags.statusMode
			}
			if cmd.Flags().Changed("store") {
				cfg.Store = flags.store
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	root.Flags().StringVarP(&flags.configPath, "config", "c", "", "path to a YAML or TOML config file")
	root.Flags().IntVarP(&flags.port, "port", "p", 3000, "HTTP listen port")
	root.Flags().StringVar(&flags.statusMode, "status-mode", "strict", "failure reporting: strict or legacy")
	root.Flags().StringVar(&flags.store, "store", "mongo", "album store: mongo or memory")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
	return root
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Init(logger.Config{
		ServiceName: "album-service",
		Environment: cfg.Environment,
		LogFilePath: cfg.LogFilePath,
		HMACKey:     cfg.LogHMACKey,
		MaxSizeMB:   cfg.LogMaxSizeMB,
		MaxBackups:  cfg.LogMaxBackups,
		MaxAgeDays:  cfg.LogMaxAgeDays,
	})
	defer logger.Get().Close()

	logger.Info(logger.EventServiceStartup, "Album service starting", logger.Fields(
		"port", cfg.ServerPort,
		"environment", cfg.Environment,
		"store", cfg.Store,
		"status_mode", cfg.StatusMode,
	))

	repo, release, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error(logger.EventDBError, "Failed to open album store", logger.Fields("error", err.Error()))
		return err
	}
	defer release()

	mode, err := handler.ParseStatusMode(cfg.StatusMode)
	if err != nil {
		return err
	}
	albumHandler := handler.NewAlbumHandler(service.NewAlbumService(repo), mode)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	sweepStop := make(chan struct{})
	defer close(sweepStop)
	router, err := newRouter(cfg, albumHandler, sweepStop)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(logger.EventServiceStartup, "Server starting", logger.Fields("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error(logger.EventGeneral, "Server failed", logger.Fields("error", err.Error()))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(logger.EventServiceShutdown, "Album service shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(logger.EventServiceShutdown, "Graceful shutdown failed", logger.Fields("error", err.Error()))
		return err
	}
	return nil
}

// openStore builds the album repository selected by cfg.Store. The returned
// release func disconnects from the database.
func openStore(ctx context.Context, cfg *config.Config) (repository.AlbumRepository, func(), error) {
	if cfg.Store == "memory" {
		logger.Warn(logger.EventDBConnection, "Using in-memory album store, data will not persist", nil)
		return repository.NewMemoryAlbumRepository(), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongo: %w", err)
	}
	release := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error(logger.EventDBError, "Error disconnecting from MongoDB", logger.Fields("error", err.Error()))
		}
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		release()
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	logger.Info(logger.EventDBConnection, "Connected to MongoDB successfully", logger.Fields(
		"database", cfg.MongoDatabase,
		"collection", cfg.MongoCollection,
	))

	repo, err := repository.NewMongoAlbumRepository(connectCtx, client.Database(cfg.MongoDatabase), cfg.MongoCollection, cfg.StoreTimeout)
	if err != nil {
		release()
		return nil, nil, err
	}
	return repo, release, nil
}

// newRouter builds the gin engine. Only the configured proxies may set the
// client address through forwarding headers; with none, the peer address is
// used, which keeps the rate limiter keyed on the real connection.
func newRouter(cfg *config.Config, albums *handler.AlbumHandler, stop <-chan struct{}) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog())
	router.Use(middleware.SecurityHeaders())

	if cfg.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		go limiter.Run(stop)
		router.Use(limiter.Middleware())
	}

	albums.RegisterRoutes(router)
	return router, nil
}
