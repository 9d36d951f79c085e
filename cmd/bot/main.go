// cmd/bot/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "rebels-bot/internal"
	"rebels-bot/internal/util"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create and initialize the application
	application := app.NewApplication()
	if err := application.Initialize(ctx); err != nil {
		util.GetLogger().Error("Failed to initialize application", "error", err)
		if application.DB != nil {
			_ = application.DB.Close()
		}
		os.Exit(1)
	}

	// Ops HTTP server, optional
	var server *http.Server
	if application.Config.HTTPEnabled {
		server = &http.Server{
			Addr:         application.Config.HTTPAddr,
			Handler:      application.HTTPHandler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  120 * time.Second,
		}
		go func() {
			application.Logger.Info("Starting HTTP server", "addr", application.Config.HTTPAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				application.Logger.Error("HTTP server failed", "error", err)
				cancel()
			}
		}()
	}

	// Blocks until a signal arrives, then drains in-flight commands.
	if err := application.RunBot(ctx); err != nil {
		application.Logger.Error("Bot stopped with error", "error", err)
	}
	application.Logger.Info("Bot stopped receiving updates.")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			application.Logger.Error("HTTP server shutdown failed", "error", err)
		}
	}

	// Perform application-level shutdown (e.g., close DB connections)
	if err := application.Shutdown(shutdownCtx); err != nil {
		application.Logger.Error("Application shutdown failed", "error", err)
		os.Exit(1)
	}

	application.Logger.Info("Application gracefully stopped.")
}
