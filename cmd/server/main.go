package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"voicetodo/internal/config"
	"voicetodo/internal/observability/logging"
	"voicetodo/internal/observability/metrics"
	"voicetodo/internal/service"
	"voicetodo/internal/store"
	"voicetodo/internal/transcribe"
	transport "voicetodo/internal/transport/http"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	logger := logging.NewLogger(logging.Config{
		ServiceName: "voicetodo",
		Environment: env,
		Level:       os.Getenv("LOG_LEVEL"),
	})

	slog.SetDefault(logger)
	metrics.MustRegister("voicetodo")

	logger.Info("starting service")

	cfg := config.Load()

	gdb, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		logger.Error("gorm open", "error", err)
		os.Exit(1)
	}

	// Verify connectivity within the configured connect bound before serving.
	sqlDB, err := gdb.DB()
	if err != nil {
		logger.Error("unwrap sql db", "error", err)
		os.Exit(1)
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		logger.Error("database ping", "error", err)
		os.Exit(1)
	}

	st := store.New(gdb)
	if err := st.AutoMigrate(context.Background()); err != nil {
		logger.Error("auto migrate", "error", err)
		os.Exit(1)
	}

	svc := service.New(st, cfg.QueryTimeout)
	whisper := transcribe.NewWhisperClient(cfg.TranscriptionBaseURL, cfg.TranscriptionAPIKey, cfg.TranscriptionTimeout)
	handler := transport.NewRouter(svc, whisper)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("voicetodo service listening", "addr", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
