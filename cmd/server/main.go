package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	echoapi "go.pilab.hu/shadow-oauth/api/echo"
	"go.pilab.hu/shadow-oauth/config"
	"go.pilab.hu/shadow-oauth/internal/auth"
	"go.pilab.hu/shadow-oauth/internal/crypto"
	"go.pilab.hu/shadow-oauth/internal/metrics"
	"go.pilab.hu/shadow-oauth/internal/server"
	"go.pilab.hu/shadow-oauth/internal/storage"
	"go.pilab.hu/shadow-oauth/log"
	"go.pilab.hu/shadow-oauth/middleware"
	"go.pilab.hu/shadow-oauth/services"
	"go.pilab.hu/shadow-oauth/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdLog := zerolog.New(os.Stdout).With().Timestamp().Logger()
		stdLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	appLogger := log.NewZerologAdapter(log.ParseLevel(cfg.LogLevel), cfg.LogPretty)
	ctx := context.Background()

	appLogger.Info(ctx, "Starting shadow-oauth server...", log.Fields{
		"http_port":     cfg.HTTPPort,
		"storage":       cfg.Storage,
		"mongo_db_name": cfg.MongoDBName,
		"redis_enabled": cfg.RedisAddr != "",
		"log_level":     cfg.LogLevel,
		"otel_service":  cfg.OtelServiceName,
	})

	tracerProvider, err := tracing.InitTracerProvider(cfg.OtelServiceName)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize TracerProvider", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.InitCustomMetrics(registry)

	backend, err := storage.Open(ctx, cfg)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to open storage", err)
	}

	provider := services.NewServiceProvider(ctx, backend, services.ServiceProviderOptions{
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		AuthCodeTTL:     cfg.AuthCodeTTL,
		Generator:       crypto.NewTokenGenerator(),
		Hasher:          auth.NewBcryptPasswordHasher(cfg.BcryptCost),
		Logger:          appLogger,
	})

	var limiter *middleware.RateLimiter
	if cfg.TokenRateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.TokenRateLimit, cfg.TokenRateBurst)
		defer limiter.Stop()
	}

	access := provider.AccessTokenService()
	e := server.NewEcho(appLogger, registry,
		echoapi.NewOAuth2API(provider.OAuthService(), access, limiter),
		echoapi.NewClientAPI(provider.ClientManagementService(), access),
	)
	httpServer := server.NewHTTPServer(cfg, e)

	runCtx, stopCleanup := context.WithCancel(ctx)
	if cfg.CleanupInterval > 0 {
		go provider.CleanupService().Run(runCtx, cfg.CleanupInterval)
	}

	go func() {
		appLogger.Info(ctx, fmt.Sprintf("HTTP server listening on port %s", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(ctx, "Failed to start HTTP server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit

	appLogger.Info(ctx, fmt.Sprintf("Received signal: %v. Shutting down server...", receivedSignal))
	stopCleanup()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "HTTP server shutdown error", err)
	}

	if err := backend.Close(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "Storage shutdown error", err)
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "TracerProvider shutdown error", err)
	}

	appLogger.Info(shutdownCtx, "Server gracefully stopped.")
}
