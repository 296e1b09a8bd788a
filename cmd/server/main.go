// Package main initializes and starts the FlightDesk web server, setting up
// configuration, logging, the page registry, the backend client, the
// optional response cache and the HTTP router.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/FlightDesk/internal/backend"
	"github.com/atinyakov/FlightDesk/internal/cache"
	"github.com/atinyakov/FlightDesk/internal/config"
	"github.com/atinyakov/FlightDesk/internal/logger"
	"github.com/atinyakov/FlightDesk/internal/registry"
	"github.com/atinyakov/FlightDesk/internal/server/handler/http"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Load the page registry.
	reg := registry.Default()
	if options.Registry != "" {
		var err error
		if reg, err = registry.Load(options.Registry); err != nil {
			zapLogger.Fatal("cannot load page registry", zap.String("path", options.Registry), zap.Error(err))
		}
	}

	// Build the backend client, with the Redis cache when configured.
	backendOpts := []backend.Option{backend.WithLogger(zapLogger)}
	if options.RedisAddr != "" {
		rc, err := cache.NewRedis(options.RedisAddr, options.RedisPassword, 0)
		if err != nil {
			zapLogger.Warn("response cache disabled", zap.Error(err))
		} else {
			defer func() { _ = rc.Close() }()
			backendOpts = append(backendOpts, backend.WithCache(rc, options.CacheTTL.Duration))
			zapLogger.Info("response cache enabled", zap.String("redis", options.RedisAddr), zap.Duration("ttl", options.CacheTTL.Duration))
		}
	}
	api, err := backend.New(options.BackendURL, backendOpts...)
	if err != nil {
		zapLogger.Fatal("invalid backend configuration", zap.Error(err))
	}

	// Build the router with middleware and routes.
	handler := http.NewHandler(api, reg, options.Production, zapLogger)
	router := http.NewRouter(handler, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Warn("graceful shutdown failed", zap.Error(err))
		}
	}()

	if options.TLSCert != "" {
		// Certificates for development come from tools/certgen.
		zapLogger.Info("starting HTTPS server",
			zap.String("addr", options.Addr),
			zap.String("backend", options.BackendURL))
		err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
	} else {
		zapLogger.Info("starting HTTP server",
			zap.String("addr", options.Addr),
			zap.String("backend", options.BackendURL))
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start server", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
