package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Reynold-degenracy/EverMemoryArchive/internal/config"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/metrics"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/store"
	memstore "github.com/Reynold-degenracy/EverMemoryArchive/internal/store/memory"
	sqlitestore "github.com/Reynold-degenracy/EverMemoryArchive/internal/store/sqlite"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/telemetry"
)

func buildServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the event-stream relay and input endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "emad.yaml", "path to the configuration file")
	return cmd
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)
	logger.Info("starting emad", "config", configPath, "llm_provider", cfg.LLM.Provider, "store_driver", cfg.Store.Driver)

	llmClient, err := buildLLMClient(cfg.LLM)
	if err != nil {
		return fmt.Errorf("build llm client: %w", err)
	}

	actorDB, buffers, longTerm, searcher, closeStore, err := buildStores(cfg.Store)
	if err != nil {
		return fmt.Errorf("build stores: %w", err)
	}
	defer closeStore()

	m := metrics.New()
	tracer := telemetry.New("emad")

	hub := newSSEHub()
	manager := newActorManager(cfg, logger, llmClient, m, tracer, actorDB, buffers, longTerm, searcher, hub)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/input", handleInput(manager, logger))
	mux.HandleFunc("/events", hub.handleEvents(logger))

	server := &http.Server{Addr: cfg.Server.ListenAddr, Handler: mux}

	metricsServer := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: promhttp.Handler()}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		logger.Info("listening", "addr", cfg.Server.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("event server: %w", err)
		}
	}()
	go func() {
		logger.Info("metrics listening", "addr", cfg.Server.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	logger.Info("shutdown signal received")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown event server: %w", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	return nil
}

// newLogger builds the process-wide logger per cfg, matching the
// teacher's choice of log/slog with a JSON handler by default and a text
// option for local development.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(logWriter, opts))
	}
	return slog.New(slog.NewJSONHandler(logWriter, opts))
}

// buildStores wires the persisted-record interfaces per cfg.Store.Driver.
// Long-term memory always comes from the in-memory backend: the sqlite
// store in this repo implements only ActorDB and ShortTermMemoryDB (see
// DESIGN.md), and spec.md itself only requires a searcher interface to
// exist, not a specific backend behind it.
func buildStores(cfg config.StoreConfig) (store.ActorDB, store.ShortTermMemoryDB, store.LongTermMemoryDB, store.LongTermMemorySearcher, func(), error) {
	longTermStore := memstore.New()

	switch cfg.Driver {
	case "sqlite":
		s, err := sqlitestore.Open(cfg.DSN)
		if err != nil {
			return nil, nil, nil, nil, nil, err
		}
		if err := s.Migrate(context.Background()); err != nil {
			return nil, nil, nil, nil, nil, err
		}
		return s, s, longTermStore.LongTerm(), longTermStore.LongTerm(), func() { _ = s.Close() }, nil
	default:
		mem := memstore.New()
		return mem.Actors(), mem.Buffers(), longTermStore.LongTerm(), longTermStore.LongTerm(), func() {}, nil
	}
}
