// Package main provides the entry point for the Shortly URL shortener service.
package main

import (
	"Shortly-Backend/internal/analytics"
	"Shortly-Backend/internal/cache"
	"Shortly-Backend/internal/config"
	"Shortly-Backend/internal/database"
	httpHandler "Shortly-Backend/internal/handler/http"
	"Shortly-Backend/internal/repository"
	"Shortly-Backend/internal/repository/memory"
	"Shortly-Backend/internal/repository/postgres"
	"Shortly-Backend/internal/service"
	"Shortly-Backend/pkg/geoip"
	"Shortly-Backend/pkg/logger"
	"Shortly-Backend/pkg/random"
	"Shortly-Backend/pkg/useragent"
	"context"
	lg "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	defer func() {
		if err := log.Sync(); err != nil {
			lg.Printf("ERROR: failed to sync zap logger: %v\n", err)
		}
	}()

	log.Info("starting Shortly service", zap.String("env", cfg.Env))

	// Initialize database connection. A failed connection does not kill the
	// process: the service keeps answering in demo mode until the store is
	// back and the pod is restarted or redeployed.
	var storage repository.Storage
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Warn("failed to connect to database, starting in demo mode", zap.Error(err))
		demoStore := memory.New()
		demoStore.SetAvailable(false)
		storage = demoStore
	} else {
		defer func() {
			if err := database.Close(db, log); err != nil {
				log.Error("failed to close database connection", zap.Error(err))
			}
		}()

		if cfg.Database.AutoMigrate {
			log.Info("running database migrations (auto_migrate: true)")
			if err := database.AutoMigrate(db, log); err != nil {
				log.Fatal("failed to run database migrations", zap.Error(err))
			}
		} else {
			log.Info("skipping database migrations (auto_migrate: false)")
		}

		storage = postgres.New(db, log)
	}

	// Initialize User-Agent parser from the embedded regex set.
	uaParser := useragent.New(log)

	// Optional GeoIP country resolution; a nil resolver reports Unknown.
	var geoResolver *geoip.Resolver
	if cfg.GeoIP.DBPath != "" {
		geoResolver, err = geoip.New(cfg.GeoIP.DBPath, log)
		if err != nil {
			log.Warn("failed to open GeoIP database, countries will be Unknown", zap.Error(err))
		}
	}
	defer geoResolver.Close()

	// Optional Redis redirect cache.
	var linkCache cache.LinkCache
	if cfg.Redis.Enabled {
		linkCache, err = cache.NewRedisCache(cfg.Redis.Addr, log)
		if err != nil {
			log.Warn("failed to connect to Redis, redirect cache disabled", zap.Error(err))
			linkCache = nil
		}
	}

	// Analytics pipeline: synchronous event building behind an async worker
	// pool so redirects never wait on analytics writes.
	recorder := analytics.NewRecorder(storage, uaParser, geoResolver, log)
	processor := analytics.NewProcessor(recorder, log, analytics.DefaultConfig())
	if err := processor.Start(); err != nil {
		log.Fatal("failed to start analytics processor", zap.Error(err))
	}

	generator := random.NewCodeGenerator(cfg.URLShortener.CodeLength)
	shortener := service.NewShortener(storage, generator, processor, linkCache, &cfg.URLShortener, log)

	apiServer := httpHandler.NewServer(shortener, storage, processor, log)
	mux := apiServer.SetupRoutes()

	httpServer := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      mux,
		ReadTimeout:  parseDuration(cfg.HTTPServer.ReadTimeout, 30*time.Second),
		WriteTimeout: parseDuration(cfg.HTTPServer.WriteTimeout, 30*time.Second),
		IdleTimeout:  parseDuration(cfg.HTTPServer.IdleTimeout, 60*time.Second),
	}

	log.Info("starting HTTP server", zap.String("address", cfg.HTTPServer.Address))

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down Shortly service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	// Drain queued analytics before exiting.
	if err := processor.Stop(); err != nil {
		log.Warn("analytics processor did not stop cleanly", zap.Error(err))
	}
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
