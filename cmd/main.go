package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"estatehub/bff/internal/cache"
	"estatehub/bff/internal/config"
	"estatehub/bff/internal/handler"
	"estatehub/bff/internal/handler/middleware"
	"estatehub/bff/internal/model"
	"estatehub/bff/internal/preload"
	"estatehub/bff/internal/repository"
	"estatehub/bff/internal/service"
	"estatehub/bff/internal/state"
	"estatehub/bff/internal/upstream"
	jwtpkg "estatehub/bff/pkg/jwt"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "bff",
		Short:         "Backend-for-frontend for the listings site",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return serve(cfg)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
	root.AddCommand(newTokenCommand(&configPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}

func serve(cfg *config.Config) error {
	// 1. Initialize logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	// 2. Connect to PostgreSQL when configured
	var db *gorm.DB
	if cfg.Database.Postgres.Enabled() {
		db, err = config.NewPostgresDB(cfg.Database.Postgres)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		if cfg.Database.Postgres.AutoMigrate {
			if err := model.AutoMigrate(db); err != nil {
				logger.Fatal("failed to auto-migrate", zap.Error(err))
			}
			logger.Info("database migration completed")
		}
	}

	// 3. Initialize state store
	var stateStore repository.StateStore
	switch cfg.State.Backend {
	case "redis":
		redisClient, err := config.NewRedisClient(cfg.Database.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		stateStore = repository.NewRedisStateStore(redisClient)
		logger.Info("using Redis state store")
	case "postgres":
		if db == nil {
			logger.Fatal("postgres state backend needs database.postgres.host")
		}
		stateStore = repository.NewPGStateStore(db)
		logger.Info("using Postgres state store")
	case "memory":
		stateStore = repository.NewMemoryStateStore()
		logger.Info("using in-memory state store")
	default:
		logger.Fatal("unknown state backend", zap.String("backend", cfg.State.Backend))
	}

	// 4. Initialize repositories
	var messageRepo repository.ContactMessageRepository
	if db != nil {
		messageRepo = repository.NewPGContactMessageRepository(db)
	}

	// 5. Initialize services
	api := upstream.NewClient(cfg.Upstream, nil)
	cacheOpts := []cache.Option{
		cache.WithLogger(logger),
		cache.WithRetention(cfg.Cache.Retention),
	}

	sessions := state.NewRegistry(state.NewContactSlot)
	contactService := service.NewContactService(
		api,
		cache.NewContactCache(stateStore, cacheOpts...),
		messageRepo,
		sessions,
		cfg.Cache.ContactTTL,
		logger,
	)
	bannerService := service.NewBannerService(api, stateStore, cfg.Cache.BannerTTL, cfg.Cache.BannerStatsTTL, logger, cacheOpts...)
	blogService := service.NewBlogService(api, stateStore, cfg.Site, cfg.Cache.BlogTTL, logger, cacheOpts...)

	loader := preload.NewHTTPLoader(&http.Client{Timeout: cfg.Preload.Timeout}, cfg.Preload.AllowedHosts)
	images := preload.New(loader,
		preload.WithConcurrency(cfg.Preload.Concurrency),
		preload.WithTimeout(cfg.Preload.Timeout),
		preload.WithLogger(logger),
	)
	galleryService := service.NewGalleryService(images, loader.Validate, cfg.Preload.Radius, logger,
		preload.WithSweepDelay(cfg.Preload.SweepDelay),
		preload.WithSweepRate(cfg.Preload.SweepRate),
	)
	defer galleryService.Close()

	var limiter *middleware.RateLimiter
	if cfg.Server.RateLimit.PerSecond > 0 {
		limiter = middleware.NewRateLimiter(cfg.Server.RateLimit.PerSecond, cfg.Server.RateLimit.Burst)
	}

	housekeeper := service.NewHousekeeper(cfg.Cache.SweepInterval, cfg.State.SessionIdle, logger)
	housekeeper.AddSections(contactService.CacheSections()...)
	housekeeper.AddSections(bannerService.CacheSections()...)
	housekeeper.AddSections(blogService.CacheSections()...)
	housekeeper.AddSessions(sessions, galleryService)
	if limiter != nil {
		housekeeper.AddSessions(limiter)
	}

	// 6. Initialize JWT manager
	jwtManager := jwtpkg.NewManager(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL)
	if !jwtManager.Enabled() || len(cfg.Admin.UserIDs) == 0 {
		logger.Info("admin API disabled: jwt.signing_key or admin.user_ids not set")
	}

	// 7. Initialize handlers and router
	router := handler.SetupRouter(cfg, logger, jwtManager, limiter,
		handler.NewSessionHandler(),
		handler.NewContactHandler(contactService),
		handler.NewBannerHandler(bannerService),
		handler.NewBlogHandler(blogService),
		handler.NewGalleryHandler(galleryService),
		handler.NewAdminHandler(housekeeper, logger),
	)

	// 8. Start background housekeeping
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	go housekeeper.Run(bgCtx)

	// 9. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return bgCtx },
	}

	// 10. Start server with graceful shutdown
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	// Ends open SSE streams so Shutdown does not wait on them.
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}
	logger.Info("server exited gracefully")
	return nil
}
