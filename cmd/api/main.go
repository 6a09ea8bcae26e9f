package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrJamesThe3rd/ledgersync/internal/app"
	"github.com/MrJamesThe3rd/ledgersync/internal/config"
	ledgerHttp "github.com/MrJamesThe3rd/ledgersync/internal/http"
	importsHandler "github.com/MrJamesThe3rd/ledgersync/internal/http/imports"
	runsHandler "github.com/MrJamesThe3rd/ledgersync/internal/http/runs"
	"github.com/MrJamesThe3rd/ledgersync/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.App.LogLevel, cfg.App.LogFormat, os.Stderr)
	if err != nil {
		slog.Error("failed to configure logging", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	var (
		importsH = importsHandler.NewHandler(a.Pipeline, cfg.Server.ImportRoot)
		runsH    = runsHandler.NewHandler(a.History)
	)

	router := ledgerHttp.New(importsH, runsH, ledgerHttp.Options{
		Origins: cfg.Server.Origins,
		Timeout: cfg.Server.Timeout,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "port", srv.Addr, "name", cfg.App.Name)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
