package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"compras/internal/cache"
	"compras/internal/config"
	"compras/internal/core"
	apphttp "compras/internal/http"
	"compras/internal/log"
	"compras/internal/source"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", log.FieldError, err)
		os.Exit(1)
	}

	client := source.NewClient(cfg.APIBaseURL, cfg.FetchTimeout)
	fetchCache := cache.NewLRU[[]core.RawRecord](cfg.CacheSize, cfg.CacheTTL)
	fetcher := source.NewCachedClient(client, fetchCache)

	srv := apphttp.NewServer(":"+cfg.Port, fetcher, apphttp.Options{
		DefaultYear:      cfg.DefaultYear,
		MaxUploadBytes:   cfg.MaxUploadBytes,
		SummaryCacheSize: cfg.CacheSize,
		SummaryCacheTTL:  cfg.CacheTTL,
		AllowedOrigins:   cfg.AllowedOrigins,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.FetchTimeout + 10*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("starting compras server",
		"port", cfg.Port,
		log.FieldURL, cfg.APIBaseURL,
		log.FieldYear, cfg.DefaultYear,
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped gracefully")
}
