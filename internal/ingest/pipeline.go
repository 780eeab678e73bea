package ingest

import (
	"context"
	"log/slog"
	"time"

	"oshan/internal/domain"
	"oshan/internal/llm"
	"oshan/internal/store"
	"oshan/internal/util"
)

// Fetcher returns articles for a symbol within a time window.
type Fetcher func(symbol string, start, end time.Time) ([]domain.NewsArticle, error)

// Summarizer is the LLM surface the pipeline needs.
type Summarizer interface {
	GenerateSummary(ctx context.Context, text string) llm.SummaryResult
}

// Pipeline fetches, summarizes, and persists news for a set of symbols.
type Pipeline struct {
	fetchers   []Fetcher
	summarizer Summarizer
	news       store.NewsStore
	archive    *store.NewsArchive
	limiter    *util.RateLimiter
	window     time.Duration
	log        *slog.Logger
}

// NewPipeline assembles a Pipeline. archive may be nil to skip the Parquet
// archive; limiter may be nil for unthrottled fetching.
func NewPipeline(
	fetchers []Fetcher,
	summarizer Summarizer,
	news store.NewsStore,
	archive *store.NewsArchive,
	limiter *util.RateLimiter,
	log *slog.Logger,
) *Pipeline {
	return &Pipeline{
		fetchers:   fetchers,
		summarizer: summarizer,
		news:       news,
		archive:    archive,
		limiter:    limiter,
		window:     24 * time.Hour,
		log:        log,
	}
}

// Run executes one ingest cycle over the given symbols. Fetch and
// summarization failures are logged and skipped; the cycle keeps going.
// It returns the number of articles stored.
func (p *Pipeline) Run(ctx context.Context, symbols []string) (int, error) {
	end := time.Now()
	start := end.Add(-p.window)

	var stored int
	byDate := make(map[time.Time][]domain.NewsArticle)

	for _, symbol := range symbols {
		for _, fetch := range p.fetchers {
			if p.limiter != nil {
				if err := p.limiter.Wait(ctx); err != nil {
					return stored, err
				}
			}
			var articles []domain.NewsArticle
			err := util.Retry(ctx, 2, time.Second, func() error {
				var ferr error
				articles, ferr = fetch(symbol, start, end)
				return ferr
			})
			if err != nil {
				p.log.Warn("fetching news", "symbol", symbol, "error", err)
				continue
			}
			for i := range articles {
				a := &articles[i]
				p.summarize(ctx, a)
				if err := p.news.UpsertNews(ctx, a); err != nil {
					p.log.Error("storing article", "sid", a.SID, "error", err)
					continue
				}
				stored++
				day := a.Date.UTC().Truncate(24 * time.Hour)
				byDate[day] = append(byDate[day], *a)
			}
		}
	}

	if p.archive != nil {
		for day, batch := range byDate {
			if err := p.archive.WriteArchive(day, batch); err != nil {
				p.log.Error("archiving news", "date", day.Format("2006-01-02"), "error", err)
			}
		}
	}

	p.log.Info("ingest cycle complete", "symbols", len(symbols), "articles", stored)
	return stored, nil
}

func (p *Pipeline) summarize(ctx context.Context, a *domain.NewsArticle) {
	if a.AISummary != "" || p.summarizer == nil {
		return
	}
	text := a.Headline
	if a.Summary != "" {
		text += "\n\n" + a.Summary
	}
	res := p.summarizer.GenerateSummary(ctx, text)
	if !res.Success {
		p.log.Warn("summarization failed", "sid", a.SID)
		return
	}
	a.AISummary = res.Summary
}
