package cli

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	"github.com/spf13/cobra"
	"github.com/triage-ai/sentinel/internal/api"
	"github.com/triage-ai/sentinel/internal/assess"
	"github.com/triage-ai/sentinel/internal/config"
	"github.com/triage-ai/sentinel/internal/creds"
	"github.com/triage-ai/sentinel/internal/monitor"
	"github.com/triage-ai/sentinel/internal/storage"
	"github.com/triage-ai/sentinel/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the monitor as an HTTP sidecar",
	RunE:  serveCommand,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serveCommand(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger := mustBuildLogger(cfg.LogLevel)
	defer logger.Sync() //nolint:errcheck // best-effort flush

	logger.Info("starting sentinel server",
		zap.String("http_port", cfg.HTTPPort),
		zap.Bool("blocking_enabled", cfg.BlockingEnabled),
		zap.Int("session_cap", cfg.SessionCap),
		zap.Int("chain_cap", cfg.ChainCap),
		zap.String("assess_endpoint", cfg.Assess.Endpoint),
	)

	// Telemetry — ClickHouse or LogWriter fallback
	var writer storage.EventWriter
	if cfg.ClickHouseDSN != "" {
		chWriter, err := storage.NewClickHouseWriter(cfg.ClickHouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log writer",
				zap.Error(err),
			)
			writer = storage.NewLogWriter(logger)
		} else {
			writer = chWriter
			logger.Info("clickhouse writer connected")
		}
	} else {
		writer = storage.NewLogWriter(logger)
		logger.Info("no CLICKHOUSE_DSN set, using log writer")
	}
	defer writer.Close()

	// Credentials for outbound assessment calls
	provider := creds.Chain{creds.EnvProvider{}}
	if cfg.CredentialsFile != "" {
		provider = append(provider, creds.FileProvider{Path: cfg.CredentialsFile})
	}

	// Assessment client — optional; without it the monitor runs local-only
	var client *assess.Client
	if cfg.Assess.Endpoint != "" {
		client, err = assess.NewClient(cfg.Assess.Endpoint,
			time.Duration(cfg.Assess.TimeoutMs)*time.Millisecond, logger)
		if err != nil {
			logger.Error("failed to create assessment client, running local-only",
				zap.Error(err),
			)
			client = nil
		}
	} else {
		logger.Info("no assessment endpoint configured, running local-only")
	}

	mon := monitor.New(monitor.Config{
		BlockingEnabled: cfg.BlockingEnabled,
		SessionCap:      cfg.SessionCap,
		ChainCap:        cfg.ChainCap,
	}, client, provider, writer, logger)

	// Postgres agent registry (optional — without it the API runs unauthenticated)
	var pgStore *store.Store
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("failed to open postgres", zap.Error(err))
		}
		defer func() { _ = db.Close() }()
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(context.Background()); err != nil {
			logger.Fatal("failed to ping postgres", zap.Error(err))
		}
		pgStore = store.NewStore(db)
		logger.Info("postgres connected")
	} else {
		logger.Warn("no POSTGRES_DSN set, hook API runs unauthenticated")
	}

	deps := &api.Dependencies{
		Monitor:  mon,
		Store:    pgStore,
		Logger:   logger,
		CacheTTL: time.Duration(cfg.AuthCacheTTLs) * time.Second,
	}
	httpServer := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Block until shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", zap.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	logger.Info("sentinel server stopped")
	return nil
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}
