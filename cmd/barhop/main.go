package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/barhop/internal/config"
	"github.com/dukerupert/barhop/internal/database"
	"github.com/dukerupert/barhop/internal/logging"
	"github.com/dukerupert/barhop/internal/seed"
	"github.com/dukerupert/barhop/internal/server"
	"github.com/dukerupert/barhop/internal/store"
	"github.com/spf13/pflag"
)

// Devices that never checked in are forgotten after this long.
const staleDeviceAge = 30 * 24 * time.Hour

func main() {
	cfg, err := config.Load(".env", os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.SeedPath != "" {
		f, err := seed.Load(cfg.SeedPath)
		if err != nil {
			slog.Error("failed to read seed file", "path", cfg.SeedPath, "error", err)
			os.Exit(1)
		}
		res, err := seed.Apply(context.Background(), store.NewActivityStore(db), f)
		if err != nil {
			slog.Error("failed to seed activities", "path", cfg.SeedPath, "error", err)
			os.Exit(1)
		}
		slog.Info("seeded activities", "path", cfg.SeedPath, "created", res.Created, "skipped", res.Skipped)
		if cfg.SeedOnly {
			return
		}
	}

	srv := server.New(db, cfg, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := srv.RateLimiter().Cleanup(); n > 0 {
					slog.Debug("cleaned up rate limit windows", "count", n)
				}
				n, err := srv.DeviceStore().DeleteStale(cleanupCtx, time.Now().Add(-staleDeviceAge))
				if err != nil {
					slog.Error("cleanup stale devices", "error", err)
				} else if n > 0 {
					slog.Info("cleaned up stale devices", "count", n)
				}
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("barhop starting", "addr", httpServer.Addr, "base_url", cfg.BaseURL, "timezone", cfg.Timezone.String())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
