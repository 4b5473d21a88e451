package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vidstream-go/api"
	"github.com/yourusername/vidstream-go/internal/app"
	"github.com/yourusername/vidstream-go/internal/infrastructure"
	"github.com/yourusername/vidstream-go/pkg/events"
	"github.com/yourusername/vidstream-go/pkg/logger"
)

var configPath = flag.String("config", "", "Path to config file")

func main() {
	flag.Parse()

	// Load configuration
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting vidstream server",
		zap.String("version", "1.0.0"),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("provider_url", config.Provider.BaseURL))

	// Initialize core components
	hub := events.NewHub(config.Events.BufferSize, config.Events.PingInterval, log)
	registry := app.NewRegistry(log)
	publisher := app.NewPublisher(hub, log)
	pipe := app.NewPipe(registry, publisher, &config.Download, log)
	provider := infrastructure.NewWorkerProvider(&config.Provider, log)

	// Setup HTTP router
	router := api.SetupRouter(provider, registry, publisher, pipe, hub, log)

	// Create HTTP server. The write timeout bounds entire download
	// responses, so it is deliberately generous.
	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Cancel pending session removals and drop subscribers
	registry.Close()
	hub.Close()

	log.Info("Server exited")
}
