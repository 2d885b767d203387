// Package main is the entry point for the calendard server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crmsuite/calendard/internal/config"
	calcrypto "github.com/crmsuite/calendard/internal/crypto"
	"github.com/crmsuite/calendard/internal/database"
	"github.com/crmsuite/calendard/internal/server"
	"github.com/crmsuite/calendard/internal/util"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "hash-password":
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "Usage: calendard hash-password \"YourPassword\"")
				os.Exit(1)
			}
			hash, err := calcrypto.HashPassword(os.Args[2])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error hashing password: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(hash)
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefaultLogger(logger)

	logger.Info("Starting calendard",
		"version", "1.0.0",
		"port", cfg.Server.Port,
	)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	logger.Info("Database initialized",
		"path", cfg.Database.Path,
	)

	srv, err := server.New(cfg, db)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			"addr", httpServer.Addr,
			"base_url", cfg.Server.BaseURL,
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	if err := srv.StartBackgroundWorkers(); err != nil {
		return fmt.Errorf("failed to start background workers: %w", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("Shutting down gracefully...")
	srv.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
	return nil
}
