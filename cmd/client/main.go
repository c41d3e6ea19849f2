// Command client opens an interactive session on one note: lines typed
// on stdin replace the note content, remote edits and attachment
// changes print as they arrive.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"notedrop/internal/client/api"
	"notedrop/internal/client/config"
	"notedrop/internal/client/sync"
	"notedrop/internal/client/transport"
	"notedrop/internal/realtime"
	"notedrop/pkg/logger"
	"notedrop/pkg/shutdown"
)

// Environment variables read before the config is loaded.
const (
	EnvLoggerMode  = "CLIENT_LOGGER_MODE"
	EnvLoggerLevel = "CLIENT_LOGGER_LEVEL"
)

// Error messages.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrConnectRedis         = "failed to connect to Redis"
	ErrEngineStopped        = "sync engine stopped"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: client <note-path>")
		os.Exit(2)
	}
	notePath := os.Args[1]

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

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, ErrLoadConfig, zap.Error(err))
		os.Exit(1)
	}

	finalLogger, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
	if err != nil {
		log.Error(ctx, ErrInitLoggerWithConfig, zap.Error(err))
		os.Exit(1)
	}
	logger.SetGlobalLogger(finalLogger)
	log = finalLogger

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddressString(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error(ctx, ErrConnectRedis, zap.Error(err))
		os.Exit(1)
	}

	apiClient := api.NewClient(cfg.API.BaseURL, &http.Client{Timeout: cfg.API.Timeout})
	redisTransport := transport.NewRedisTransport(redisClient, apiClient)

	engine := sync.NewEngine(apiClient, redisTransport, notePath, sync.Options{
		BroadcastDelay: cfg.Sync.BroadcastDelay,
		SaveDelay:      cfg.Sync.SaveDelay,
		Hooks: sync.Hooks{
			OnRemoteUpdate: func(content string) {
				fmt.Printf("\n[remote] %s\n> ", content)
			},
			OnFilesChanged: func(files []realtime.FileSummary) {
				fmt.Printf("\n[files] %d attachment(s)\n> ", len(files))
			},
			OnSaved: func(snapshot sync.Snapshot) {
				fmt.Print("\n[saved]\n> ")
			},
			OnSaveError: func(err error) {
				fmt.Printf("\n[save failed] %v\n> ", err)
			},
		},
	})

	engineCtx, cancelEngine := context.WithCancel(ctx)
	defer cancelEngine()

	engineDone := make(chan error, 1)
	go func() {
		engineDone <- engine.Run(engineCtx)
	}()

	// Stdin reader. Each line replaces the note content.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		fmt.Print("> ")
		for scanner.Scan() {
			engine.Edit(scanner.Text())
			fmt.Print("> ")
		}
	}()

	log.Info(ctx, "client session started",
		zap.String("note_path", notePath),
		zap.String("session_id", engine.SessionID()))

	go func() {
		err := <-engineDone
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error(ctx, ErrEngineStopped, zap.Error(err))
		}
		cancelEngine()
	}()

	shutdown.Wait(engineCtx, cfg.Shutdown.GetTimeout(),
		func(ctx context.Context) error {
			cancelEngine()
			return redisClient.Close()
		},
	)

	log.Info(ctx, "client session ended")
}
