// Package main contains the entrypoint of the icontent activity events API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/icontent-lms/go-icontent/activity"
	"github.com/icontent-lms/go-icontent/eventlog"
	"github.com/icontent-lms/go-icontent/i18n"
	"github.com/icontent-lms/go-icontent/internal/httpapi"
	"github.com/icontent-lms/go-icontent/logger"
	"github.com/icontent-lms/go-icontent/logger/zaplogger"
	"github.com/icontent-lms/go-icontent/report"
)

func newZapLogger(config *Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(config.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level, %w", err)
	}

	zapConfig := zap.NewProductionConfig()
	if config.Log.Development {
		zapConfig = zap.NewDevelopmentConfig()
	}

	zapConfig.Level = level

	return zapConfig.Build()
}

func loadDirectory(path string) (*httpapi.InMemoryDirectory, error) {
	if path == "" {
		return httpapi.NewInMemoryDirectory(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return httpapi.LoadDirectory(f)
}

func run() error {
	config, err := ParseConfig()
	if err != nil {
		return fmt.Errorf("main: failed to parse config, %v", err)
	}

	zapLogger, err := newZapLogger(config)
	if err != nil {
		return fmt.Errorf("main: failed to initialize logger, %v", err)
	}

	//nolint:errcheck // No need for this error to come up if it happens.
	defer zapLogger.Sync()

	log := zaplogger.Wrap(zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := i18n.LoadEmbedded()
	if err != nil {
		return fmt.Errorf("main: failed to load translations, %v", err)
	}

	directory, err := loadDirectory(config.DirectoryFile)
	if err != nil {
		return fmt.Errorf("main: failed to load directory, %v", err)
	}

	tel, err := setupTelemetry(ctx, config)
	if err != nil {
		return err
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
		defer cancel()

		if err := tel.shutdown(shutdownCtx); err != nil {
			logger.Warn(log, "main: failed to flush telemetry", logger.Err(err))
		}
	}()

	if config.Telemetry.Endpoint != "" {
		logger.Info(log, "main: exporting telemetry", logger.With("endpoint", config.Telemetry.Endpoint))
	}

	b, err := openBackend(ctx, config, tel, log)
	if err != nil {
		return err
	}
	defer b.close()

	dispatcher := eventlog.NewDispatcher(b.store, catalog,
		eventlog.WithLogger(log),
		eventlog.WithLegacyWriter(b.legacy),
	)

	pageViews := report.NewPageViewsHandler(dispatcher)
	dispatcher.Observe(activity.KindPageViewed.EventName(), eventlog.ProcessorObserver(pageViews))

	srv := &http.Server{
		Addr: config.Server.Address,
		Handler: httpapi.NewRouter(&httpapi.Handler{
			Dispatcher:   dispatcher,
			Directory:    directory,
			Translations: catalog,
			Report:       pageViews,
			Logger:       log,
		}),
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)

	go func() {
		logger.Info(log, "main: http server started", logger.With("address", config.Server.Address))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("main: http server exited with error, %v", err)
		}

		return nil

	case <-ctx.Done():
	}

	logger.Info(log, "main: shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("main: failed to shut down http server, %v", err)
	}

	logger.Info(log, "main: http server stopped")

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
