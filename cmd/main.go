/*
Package main is the entry point for the Collaborative Canvas server.

It is responsible for loading configuration, initializing the global logging
system, setting up the HTTP server, starting the session Coordinator, and
gracefully handling operating system interrupt signals (SIGINT, SIGTERM) to
ensure a smooth server shutdown.

All drawing state is process-memory-resident and is lost on restart; rooms
outlive only their sessions, not the process.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CTTECH108/Collabrative-Canvas/internal/app/session"
	"github.com/CTTECH108/Collabrative-Canvas/internal/configs"
	"github.com/CTTECH108/Collabrative-Canvas/internal/handler"
	"github.com/CTTECH108/Collabrative-Canvas/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("max_history_size", cfg.MaxHistorySize).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize session Coordinator
	coordinator := session.NewCoordinator(cfg)

	// Setup HTTP server and routes
	deps := &handler.AppDeps{
		Coordinator: coordinator,
		Registry:    coordinator.Registry(),
		Config:      cfg,
		StartedAt:   time.Now(),
	}
	router := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Collaborative Canvas Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	coordinator.Shutdown()

	logx.Info("Server gracefully stopped.")
}
