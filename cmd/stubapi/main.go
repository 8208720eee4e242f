// Command stubapi starts the in-memory stand-in for the contacts API.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"phonebook/internal/stubserver"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses configuration and serves the stub API until interrupted.
func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("STUBAPI_ADDR", ":8080"), "listen address")
	jwtKey := flag.String("jwt-key", os.Getenv("STUBAPI_JWT_KEY"), "HS256 signing key (required)")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", *addr),
	)

	if *jwtKey == "" {
		logger.Fatal("missing jwt signing key (--jwt-key or STUBAPI_JWT_KEY)")
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           stubserver.New([]byte(*jwtKey), logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
