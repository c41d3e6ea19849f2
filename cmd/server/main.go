package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notedrop/internal/server/adapters/broadcast"
	"notedrop/internal/server/adapters/captcha"
	httpServer "notedrop/internal/server/adapters/http"
	pgadapter "notedrop/internal/server/adapters/postgres"
	"notedrop/internal/server/adapters/ratelimit"
	"notedrop/internal/server/adapters/storage"
	"notedrop/internal/server/app/services"
	"notedrop/internal/server/config"
	"notedrop/internal/server/crypto"
	portservices "notedrop/internal/server/ports/services"
	"notedrop/pkg/db/postgres"
	"notedrop/pkg/logger"
	"notedrop/pkg/shutdown"
)

// Environment variables read before the config is loaded.
const (
	EnvLoggerMode  = "SERVER_LOGGER_MODE"
	EnvLoggerLevel = "SERVER_LOGGER_LEVEL"
)

// Error messages.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrConnectDatabase      = "failed to connect to database"
	ErrRunMigrations        = "failed to run migrations"
	ErrCreateBroadcaster    = "failed to create Redis broadcaster"
	ErrStartHTTPServer      = "failed to start HTTP server"
)

// Ignorable logger sync errors.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

// Service log messages.
const (
	LogServiceStarted      = "note service started"
	LogServiceShutdownDone = "note service shutdown complete"
	LogInitDatabase        = "initializing database"
	LogRunMigrations       = "running migrations"
	LogInitBroadcaster     = "initializing Redis broadcaster"
	LogInitStorage         = "initializing object storage"
	LogInitServices        = "initializing services"
	LogInitHTTPServer      = "initializing HTTP server"
	LogStartingHTTP        = "starting HTTP server"
	LogStoppingHTTP        = "stopping HTTP server"
)

func main() {
	env := logger.Development
	if strings.ToLower(os.Getenv(EnvLoggerMode)) == "production" {
		env = logger.Production
	}

	log, err := logger.NewLogger(env, os.Getenv(EnvLoggerLevel))
	if err != nil {
		panic(ErrInitLogger + ": " + err.Error())
	}

	logger.SetGlobalLogger(log)

	ctx := logger.NewRequestIDContext(context.Background(), "")

	var exitCode int

	func() {
		defer func() {
			if err := log.Sync(); err != nil {
				errMsg := err.Error()
				if strings.Contains(errMsg, ErrSyncStderr) || strings.Contains(errMsg, ErrSyncStdout) {
					return
				}
				if _, writeErr := fmt.Fprintf(os.Stderr, "%s: %v\n", ErrSyncLogger, err); writeErr != nil {
					panic(writeErr)
				}
			}
		}()

		cfg, err := config.Load(ctx)
		if err != nil {
			log.Error(ctx, ErrLoadConfig, zap.Error(err))
			exitCode = 1
			return
		}

		finalLogger, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
		if err != nil {
			log.Error(ctx, ErrInitLoggerWithConfig, zap.Error(err))
			exitCode = 1
			return
		}
		logger.SetGlobalLogger(finalLogger)
		log = finalLogger

		log.Info(ctx, LogServiceStarted,
			zap.String("environment", string(env)),
			zap.String("log_level", cfg.Logging.Level),
			zap.String("startup_time", time.Now().Format(time.RFC3339)))

		log.Info(ctx, LogInitDatabase)
		database, err := postgres.New(ctx, cfg.Database.DSN, cfg.Database.MinConns, cfg.Database.MaxConns)
		if err != nil {
			log.Error(ctx, ErrConnectDatabase, zap.Error(err))
			exitCode = 1
			return
		}

		log.Info(ctx, LogRunMigrations)
		if err := postgres.MigrateDSN(ctx, cfg.Database.DSN, cfg.Database.MigrationsPath); err != nil {
			log.Error(ctx, ErrRunMigrations, zap.Error(err))
			exitCode = 1
			return
		}

		log.Info(ctx, LogInitBroadcaster)
		broadcaster, err := broadcast.NewRedisBroadcaster(ctx, &cfg.Redis)
		if err != nil {
			log.Error(ctx, ErrCreateBroadcaster, zap.Error(err))
			exitCode = 1
			return
		}

		log.Info(ctx, LogInitStorage)
		objectStore := storage.NewR2Store(&cfg.Storage)

		log.Info(ctx, LogInitServices)
		repos := pgadapter.NewRepositoryFactory(database.Pool())
		cipher := crypto.NewContentCipher(cfg.Security.EncryptionKey)

		noteService := services.NewNoteService(repos.NoteRepository(), cipher)
		fileService := services.NewFileService(
			repos.NoteRepository(),
			repos.FileRepository(),
			objectStore,
			broadcaster,
			&cfg.Limits,
			cfg.Storage.PresignExpiry,
		)
		channelService := services.NewChannelService(broadcaster, cfg.Realtime.ChannelSecret)
		verifier := captcha.NewTurnstileVerifier(&cfg.Captcha, nil)

		var uploadLimiter portservices.RateLimiter
		if cfg.Limits.RateLimiterBackend == "redis" {
			uploadLimiter = ratelimit.NewRedisLimiter(broadcaster.Client(), cfg.Limits.UploadRequests, cfg.Limits.UploadWindow)
		} else {
			uploadLimiter = ratelimit.NewMemoryLimiter(cfg.Limits.UploadRequests, cfg.Limits.UploadWindow)
		}

		log.Info(ctx, LogInitHTTPServer)
		app := fiber.New(fiber.Config{
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			BodyLimit:    cfg.HTTP.BodyLimit,
		})

		httpServer.SetupRouter(app, noteService, fileService, channelService, verifier, uploadLimiter)

		log.Info(ctx, LogStartingHTTP, zap.String("address", cfg.HTTP.GetAddress()))
		go func() {
			if err := app.Listen(cfg.HTTP.GetAddress()); err != nil {
				log.Error(ctx, ErrStartHTTPServer, zap.Error(err))
			}
		}()

		shutdown.Wait(ctx, cfg.Shutdown.GetTimeout(),
			// Stop accepting HTTP traffic first.
			func(ctx context.Context) error {
				log.Info(ctx, LogStoppingHTTP)
				return app.Shutdown()
			},
			// Close the Redis connection.
			func(ctx context.Context) error {
				log.Info(ctx, "closing Redis connection")
				return broadcaster.Close()
			},
			// Close the database pool.
			func(ctx context.Context) error {
				log.Info(ctx, "closing database pool")
				database.Close(ctx)
				return nil
			},
		)

		log.Info(ctx, LogServiceShutdownDone)
	}()

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
