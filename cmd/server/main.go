package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maumlog/internal/config"
	"maumlog/internal/database"
	"maumlog/internal/router"
	"maumlog/internal/services"

	"go.uber.org/zap"
)

func main() {
	logger, err := initLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	logger.Info("Starting maumlog")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
	)

	// Initialize database
	if err := database.InitDB(cfg, logger); err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	dbManager := database.GetDB()
	if dbManager == nil {
		logger.Fatal("Database connection is not initialized")
	}
	defer dbManager.Close()

	// Database health check
	healthCtx, cancelHealth := context.WithTimeout(context.Background(), 10*time.Second)
	healthStatus := database.Health(healthCtx)
	cancelHealth()
	if healthStatus.Status != database.StatusHealthy {
		logger.Fatal("Database is not healthy",
			zap.String("status", healthStatus.Status),
			zap.Strings("errors", healthStatus.Errors),
		)
	}
	logger.Info("Database health check passed", zap.String("status", healthStatus.Status))

	// Initialize service collection
	serviceCollection, err := services.NewServiceCollection(dbManager, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	err = serviceCollection.Start(startCtx)
	cancelStart()
	if err != nil {
		logger.Fatal("Failed to start services", zap.Error(err))
	}

	// Build router and server
	handler := router.New(serviceCollection, cfg, logger)

	server := &http.Server{
		Addr:           cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	// Serve until interrupted
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	case sig := <-quit:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	// Graceful shutdown: stop accepting traffic, then stop services.
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
		if err := server.Close(); err != nil {
			logger.Error("Server close failed", zap.Error(err))
		}
	}

	if err := serviceCollection.Shutdown(shutdownCtx); err != nil {
		logger.Error("Service shutdown failed", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}

func initLogger() (*zap.Logger, error) {
	env := os.Getenv("GO_ENV")
	var config zap.Config

	switch env {
	case "production":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "staging":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	default:
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
