package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fcmolina/docqa/internal/api"
	"github.com/fcmolina/docqa/internal/completion"
	"github.com/fcmolina/docqa/internal/config"
	"github.com/fcmolina/docqa/internal/document"
	"github.com/fcmolina/docqa/internal/pipeline"
	"github.com/fcmolina/docqa/internal/session"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error(config.SetupMessage, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	completer, err := completion.New(ctx, cfg, completion.NewStats(time.Hour), log)
	if err != nil {
		log.Error("init completion client", "error", err)
		os.Exit(1)
	}

	library := document.NewLibrary(cfg.DocumentDir)
	if _, err := library.List(); err != nil {
		// Not fatal: the page reports it and picks up files on the next load.
		log.Warn("document folder", "dir", cfg.DocumentDir, "error", err)
	}

	sessions := session.NewStore(cfg.SessionTTL, log)
	sessions.Start(ctx)

	pipe := pipeline.New(library, completer, log)
	srv := api.NewServer(pipe, sessions, completer, log)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.CompletionTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		sessions.Stop()
		completer.Close()
	}()

	log.Info("starting docqa",
		"port", cfg.Port,
		"provider", cfg.Provider,
		"model", completer.Model(),
		"documents", cfg.DocumentDir,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
