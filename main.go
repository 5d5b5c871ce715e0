package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mdviewer/config"
	"mdviewer/config/database"
	"mdviewer/internal/autosave"
	"mdviewer/internal/document/repository"
	"mdviewer/internal/document/service"
	"mdviewer/internal/preferences"
	"mdviewer/pkg/logger"
	"mdviewer/pkg/markdown"
	"mdviewer/router"
	"mdviewer/socket"
)

func main() {
	logger.Init()
	defer logger.Log.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Sugar.Fatalf("Failed to load configuration: %v", err)
	}
	logger.InitWithLevel(logger.ParseLevel(cfg.App.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, closeStorage, err := database.OpenStorage(ctx, cfg.Storage)
	if err != nil {
		logger.Sugar.Fatalf("Failed to open %s storage: %v", cfg.Storage.Driver, err)
	}
	defer closeStorage()

	docRepo := repository.NewDocumentRepository(storage)
	prefs := preferences.NewStore(storage)
	renderer := markdown.NewRenderer(markdown.Options{})

	// The hub owns one autosave controller per editor session.
	hub := socket.NewHub(docRepo, prefs, autosave.Options{Delay: cfg.AutosaveDelay()})
	go hub.Run()

	docService := service.NewDocumentService(docRepo, prefs, renderer, hub)

	server := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router.Setup(cfg, docService, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Sugar.Infof("Markdown viewer backend listening on %s (storage: %s)", cfg.HTTPAddr(), cfg.Storage.Driver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Sugar.Fatalf("Server stopped: %v", err)
	}
	logger.Sugar.Info("Server stopped")
}
