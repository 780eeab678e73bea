package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"oshan/internal/auth"
	"oshan/internal/config"
	"oshan/internal/httpapi"
	"oshan/internal/ingest"
	"oshan/internal/llm"
	"oshan/internal/store"
	"oshan/internal/util"
)

func main() {
	cfgPath := "config/oshan.yaml"
	if p := os.Getenv("OSHAN_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	if cfg.Auth.Secret == config.FallbackSecret {
		logger.Warn("using the built-in JWT secret, set SECRET_KEY in production")
	}
	if cfg.LLM.APIKey == "" {
		logger.Warn("no LLM API key configured, chat and report endpoints will fail")
	}

	st, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer st.Close()

	llmClient := llm.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.ChatModel, cfg.LLM.ReportModel, logger)
	authManager := auth.NewManager(cfg.Auth.Secret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	srv := httpapi.NewServer(st, st, st, st, st, llmClient, authManager, logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Optional in-process ingest schedule.
	if cfg.Ingest.Cron != "" && len(cfg.Ingest.Symbols) > 0 {
		scheduler := ingest.NewScheduler(logger)
		archive := store.NewNewsArchive(cfg.Storage.DataDir)
		limiter := util.NewRateLimiter(cfg.Ingest.RateLimitPerMin)
		pipeline := ingest.NewPipeline(
			[]ingest.Fetcher{
				ingest.NewGoogleNewsFetcher(cfg.Ingest.FetchFullText, 4000),
				ingest.FetchGlobeNewswire,
			},
			llmClient, st, archive, limiter, logger,
		)
		err := scheduler.Add(cfg.Ingest.Cron, "news-ingest", func() {
			if _, err := pipeline.Run(ctx, cfg.Ingest.Symbols); err != nil {
				logger.Error("scheduled ingest failed", "error", err)
			}
		})
		if err != nil {
			log.Fatalf("scheduling ingest: %v", err)
		}
		if cfg.Ingest.AlpacaKey != "" {
			refresher := ingest.NewPriceRefresher(cfg.Ingest.AlpacaKey, cfg.Ingest.AlpacaSecret, cfg.Ingest.AlpacaDataURL, st, logger)
			err := scheduler.Add(cfg.Ingest.Cron, "price-refresh", func() {
				if _, err := refresher.Refresh(ctx, cfg.Ingest.Symbols); err != nil {
					logger.Error("scheduled price refresh failed", "error", err)
				}
			})
			if err != nil {
				log.Fatalf("scheduling price refresh: %v", err)
			}
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	go func() {
		logger.Info("oshan server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
