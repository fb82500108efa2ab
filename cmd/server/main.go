// Package main initializes and starts the wardrobe AI gateway proxy,
// setting up configuration, logging, the Gemini upstream, services,
// handlers, metrics and optional TLS.
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

	"github.com/atinyakov/WardrobeKeeper/internal/config"
	"github.com/atinyakov/WardrobeKeeper/internal/gemini"
	"github.com/atinyakov/WardrobeKeeper/internal/logger"
	"github.com/atinyakov/WardrobeKeeper/internal/middleware"
	"github.com/atinyakov/WardrobeKeeper/internal/server/handler/http"
	"github.com/atinyakov/WardrobeKeeper/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse command-line, config file and environment configuration.
	options, err := config.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(2)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize the Gemini upstream. Without a key the proxy still serves
	// health checks and answers generate/validate with a configuration error.
	var upstream service.Upstream
	if options.APIKey != "" {
		var opts []gemini.Option
		if options.GeminiURL != "" {
			opts = append(opts, gemini.WithBaseURL(options.GeminiURL))
		}
		gem, err := gemini.New(ctx, options.APIKey, zapLogger, opts...)
		if err != nil {
			zapLogger.Fatal("cannot init gemini client", zap.Error(err))
		}
		upstream = gem
	}
	zapLogger.Info("gemini api key", zap.Bool("configured", upstream != nil))

	// Initialize business logic, metrics and handlers.
	gatewayService := service.NewGatewayService(upstream, options.Model)
	metrics := middleware.NewMetrics()
	gatewayHandler := &http.GatewayHandler{
		Service:  gatewayService,
		Observer: metrics,
		Logger:   zapLogger,
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(gatewayHandler, metrics, zapLogger, http.RouterOptions{
		MaxBodyBytes:   options.MaxBodyBytes,
		AllowedOrigins: options.Origins,
	})

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if options.TLSEnabled() {
		server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	serveErr := make(chan error, 1)
	go func() {
		if options.TLSEnabled() {
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
			serveErr <- server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
			return
		}
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
