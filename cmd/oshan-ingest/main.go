package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"oshan/internal/config"
	"oshan/internal/ingest"
	"oshan/internal/llm"
	"oshan/internal/store"
	"oshan/internal/util"
)

func main() {
	var (
		cfgPath   = flag.String("config", "config/oshan.yaml", "path to the config file")
		symbols   = flag.String("symbols", "", "comma-separated symbols, overrides config")
		runNews   = flag.Bool("news", true, "fetch and summarize news")
		runPrices = flag.Bool("prices", false, "refresh stock prices from Alpaca")
	)
	flag.Parse()

	if p := os.Getenv("OSHAN_CONFIG"); p != "" && *cfgPath == "config/oshan.yaml" {
		*cfgPath = p
	}
	cfg, err := config.LoadOrDefault(*cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	syms := cfg.Ingest.Symbols
	if *symbols != "" {
		syms = nil
		for _, s := range strings.Split(*symbols, ",") {
			if s = strings.TrimSpace(s); s != "" {
				syms = append(syms, strings.ToUpper(s))
			}
		}
	}
	if len(syms) == 0 {
		log.Fatal("no symbols configured, set -symbols or ingest.symbols")
	}

	st, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	if *runNews {
		llmClient := llm.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.ChatModel, cfg.LLM.ReportModel, logger)
		archive := store.NewNewsArchive(cfg.Storage.DataDir)
		limiter := util.NewRateLimiter(cfg.Ingest.RateLimitPerMin)
		pipeline := ingest.NewPipeline(
			[]ingest.Fetcher{
				ingest.NewGoogleNewsFetcher(cfg.Ingest.FetchFullText, 4000),
				ingest.FetchGlobeNewswire,
			},
			llmClient, st, archive, limiter, logger,
		)
		stored, err := pipeline.Run(ctx, syms)
		if err != nil {
			log.Fatalf("news ingest: %v", err)
		}
		logger.Info("news ingest done", "articles", stored)
	}

	if *runPrices {
		if cfg.Ingest.AlpacaKey == "" {
			log.Fatal("price refresh requires APCA_API_KEY_ID / ingest.alpaca_key")
		}
		refresher := ingest.NewPriceRefresher(cfg.Ingest.AlpacaKey, cfg.Ingest.AlpacaSecret, cfg.Ingest.AlpacaDataURL, st, logger)
		updated, err := refresher.Refresh(ctx, syms)
		if err != nil {
			log.Fatalf("price refresh: %v", err)
		}
		logger.Info("price refresh done", "updated", updated)
	}
}
