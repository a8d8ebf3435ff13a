package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimeprober/internal/config"
	"github.com/hamed0406/uptimeprober/internal/httpapi"
	"github.com/hamed0406/uptimeprober/internal/logging"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir, "viewer.log", cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	api := httpapi.NewServer(logger, cfg.SnapshotPath)
	srv := &http.Server{
		Addr:              cfg.ViewerAddr,
		Handler:           api.Router(cfg.ViewerRateLim),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("viewer_listen",
		zap.String("addr", cfg.ViewerAddr),
		zap.String("snapshot", cfg.SnapshotPath),
		zap.Int("rate_limit_per_min", cfg.ViewerRateLim),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("viewer_failed", zap.Error(err))
	}
	logger.Info("viewer_stopped")
}
