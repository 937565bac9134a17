package main

import (
	"context"
	"crypto/rand"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/BlueStarAcademy/sudampvp/internal/api"
	"github.com/BlueStarAcademy/sudampvp/internal/factory"
	redisstorage "github.com/BlueStarAcademy/sudampvp/internal/storage/redis"
)

func main() {
	// A missing .env is fine; the real environment wins
	_ = godotenv.Load()

	// Set up logging with JSON output
	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Build factory config from environment
	cfg := factory.DefaultConfig()
	cfg.Logger = logger
	cfg.StorageType = getEnv("STORAGE_TYPE", factory.StorageTypeMemory)
	cfg.RecordsPath = os.Getenv("RECORDS_PATH")
	cfg.AnalysisURL = os.Getenv("ANALYSIS_URL")

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	}

	secret := []byte(os.Getenv("JWT_SECRET"))
	if len(secret) == 0 {
		// Tokens will not survive a restart
		logger.Warn("JWT_SECRET not set, using a random secret")
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			logger.Error("failed to generate secret", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	cfg.Auth.Secret = secret

	// Create application factory
	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close stores", slog.String("error", err.Error()))
		}
	}()

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:            logger,
		AuthService:       app.AuthService,
		Records:           app.Records,
		SessionController: app.SessionController,
		Clocks:            app.Clocks,
		Queue:             app.Queue,
		HubManager:        app.HubManager,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
		serverConfig.Port = port
	}
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background loops: clocks, phase deadlines, pairing
	runDone := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(runDone)
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType))

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
		stop()
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	<-runDone
	logger.Info("server stopped")
	if exitCode != 0 {
		_ = app.Close()
		os.Exit(exitCode)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
