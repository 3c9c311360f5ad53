package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"curiosity/internal/config"
	"curiosity/internal/metrics"
	"curiosity/internal/registry"
	"curiosity/internal/remote"
	"curiosity/internal/search"
	"curiosity/internal/session"
	"curiosity/internal/storage"
)

type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	store    *storage.Store
	registry *registry.Registry
	exchange remote.Exchanger
	metrics  *metrics.Metrics
}

func openApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	store, err := storage.Open(ctx, storage.Options{
		Driver:        cfg.Store.Driver,
		DSN:           cfg.Store.DSN,
		AutoMigrate:   cfg.Store.AutoMigrate,
		RedisAddr:     cfg.Store.Redis.Addr,
		RedisPassword: cfg.Store.Redis.Password,
		RedisDB:       cfg.Store.Redis.DB,
		RedisPrefix:   cfg.Store.Redis.Prefix,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var augmenter remote.PromptAugmenter
	if cfg.Search.Enabled {
		augmenter = search.New(search.Config{
			URL:        cfg.Search.URL,
			MaxResults: cfg.Search.MaxResults,
			HTTPClient: &http.Client{Timeout: cfg.Search.Timeout},
			Logger:     logger,
		})
	}

	exchange, err := remote.Build(remote.BuildOptions{
		Kind:       cfg.Exchange.Kind,
		URL:        cfg.Exchange.URL,
		Model:      cfg.Exchange.Model,
		APIKey:     cfg.Exchange.APIKey,
		HTTPClient: &http.Client{Timeout: cfg.Exchange.Timeout},
		Augmenter:  augmenter,
		Logger:     logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		registry: registry.New(store, logger),
		exchange: exchange,
		metrics:  metrics.Global(),
	}, nil
}

// headlessApp wires the app for subcommands that print to the terminal.
func headlessApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := setupLogger(cfg.Log.Level, zerolog.ConsoleWriter{
		Out:        cmd.ErrOrStderr(),
		NoColor:    true,
		TimeFormat: time.Kitchen,
	})
	return openApp(cmd.Context(), cfg, logger)
}

func (a *app) controller(view session.View) *session.Controller {
	return session.New(session.Config{
		Store:         a.store,
		Registry:      a.registry,
		Exchange:      a.exchange,
		View:          view,
		Logger:        a.logger,
		Metrics:       a.metrics,
		PersistErrors: a.cfg.PersistErrors,
	})
}

// serveMetrics exposes /metrics when METRICS_ADDR is set. The returned stop
// func is always safe to call.
func (a *app) serveMetrics() func() {
	if a.cfg.MetricsAddr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.logger.Info().Str("addr", a.cfg.MetricsAddr).Msg("metrics server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			a.logger.Error().Err(err).Msg("failed to stop metrics server")
		}
	}
}

func (a *app) Close() error {
	return a.store.Close()
}

func setupLogger(level string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(parseLogLevel(level))
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return log.Logger
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
