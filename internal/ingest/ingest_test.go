package ingest

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"oshan/internal/domain"
	"oshan/internal/llm"
	"oshan/internal/store"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"plain text", "plain text"},
		{"a&amp;b", "a&b"},
		{"  spaced \n out  ", "spaced out"},
		{"<a href=\"x\">link</a> tail", "link tail"},
	}
	for _, tt := range tests {
		if got := StripHTML(tt.in); got != tt.want {
			t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestArticleSIDStable(t *testing.T) {
	date := time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)

	a := ArticleSID("reuters", "Apple ships new chip", date)
	b := ArticleSID("reuters", "Apple ships new chip", date.Add(2*time.Hour))
	if a != b {
		t.Errorf("same article on same day got different SIDs: %q vs %q", a, b)
	}
	if len(a) != 16 {
		t.Errorf("SID length = %d, want 16", len(a))
	}

	c := ArticleSID("bloomberg", "Apple ships new chip", date)
	if a == c {
		t.Error("different publishers should produce different SIDs")
	}
	d := ArticleSID("reuters", "Apple ships new chip", date.AddDate(0, 0, 1))
	if a == d {
		t.Error("different days should produce different SIDs")
	}
}

func TestParsePubDate(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"Mon, 02 Mar 2026 15:04:05 +0000", true},
		{"Mon, 02 Mar 2026 15:04:05 GMT", true},
		{"Mon, 02 Mar 2026 15:04 GMT", true},
		{"2026-03-02", false},
	}
	for _, tt := range tests {
		if _, ok := parsePubDate(tt.in); ok != tt.ok {
			t.Errorf("parsePubDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
		}
	}
}

type stubSummarizer struct {
	calls int
	fail  bool
}

func (s *stubSummarizer) GenerateSummary(ctx context.Context, text string) llm.SummaryResult {
	s.calls++
	if s.fail {
		return llm.SummaryResult{Success: false}
	}
	return llm.SummaryResult{Summary: "summary", Success: true}
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	st, err := store.NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	now := time.Now().UTC()
	fetch := func(symbol string, start, end time.Time) ([]domain.NewsArticle, error) {
		return []domain.NewsArticle{
			{
				SID:       ArticleSID("test", symbol+" headline", now),
				Date:      now,
				Headline:  symbol + " headline",
				Summary:   "body",
				Publisher: "test",
				Tag:       symbol,
			},
		}, nil
	}

	summarizer := &stubSummarizer{}
	archive := store.NewNewsArchive(dir)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewPipeline([]Fetcher{fetch}, summarizer, st, archive, nil, log)

	stored, err := p.Run(context.Background(), []string{"AAPL", "MSFT"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stored != 2 {
		t.Errorf("stored = %d, want 2", stored)
	}
	if summarizer.calls != 2 {
		t.Errorf("summarizer calls = %d, want 2", summarizer.calls)
	}

	articles, err := st.ListNews(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 2 {
		t.Fatalf("stored articles = %d, want 2", len(articles))
	}
	for _, a := range articles {
		if a.AISummary != "summary" {
			t.Errorf("article %q aiSummary = %q", a.SID, a.AISummary)
		}
	}

	archived, err := archive.ReadArchive(now.Truncate(24 * time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(archived) != 2 {
		t.Errorf("archived articles = %d, want 2", len(archived))
	}
}

func TestPipelineSummaryFailureKeepsArticle(t *testing.T) {
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	now := time.Now().UTC()
	fetch := func(symbol string, start, end time.Time) ([]domain.NewsArticle, error) {
		return []domain.NewsArticle{
			{SID: "n1", Date: now, Headline: "h", Publisher: "p", Tag: symbol},
		}, nil
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewPipeline([]Fetcher{fetch}, &stubSummarizer{fail: true}, st, nil, nil, log)

	stored, err := p.Run(context.Background(), []string{"AAPL"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stored != 1 {
		t.Errorf("stored = %d, want 1", stored)
	}
	articles, err := st.ListNews(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 1 || articles[0].AISummary != "" {
		t.Errorf("articles = %+v, want one without aiSummary", articles)
	}
}

type stubSnapshots struct {
	snapshots map[string]*marketdata.Snapshot
}

func (s *stubSnapshots) GetSnapshots(symbols []string, req marketdata.GetSnapshotRequest) (map[string]*marketdata.Snapshot, error) {
	return s.snapshots, nil
}

func TestPriceRefresherRefresh(t *testing.T) {
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.UpsertStock(ctx, &domain.Stock{SID: "AAPL", Name: "Apple", Symbol: "AAPL", CurrentPrice: 100, PreviousClose: 99}); err != nil {
		t.Fatal(err)
	}

	p := &PriceRefresher{
		client: &stubSnapshots{snapshots: map[string]*marketdata.Snapshot{
			"AAPL": {
				LatestTrade:  &marketdata.Trade{Price: 190.5},
				PrevDailyBar: &marketdata.Bar{Close: 188.2},
			},
		}},
		stocks: st,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	updated, err := p.Refresh(ctx, []string{"AAPL", "MISSING"})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}

	stock, err := st.GetStock(ctx, "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if stock.CurrentPrice != 190.5 || stock.PreviousClose != 188.2 {
		t.Errorf("prices = %g/%g, want 190.5/188.2", stock.CurrentPrice, stock.PreviousClose)
	}
}
