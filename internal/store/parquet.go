package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	"oshan/internal/domain"
)

// NewsArchive stores daily batches of ingested news as Parquet files on
// disk, one file per calendar date:
//
//	<DataDir>/news/<YYYY-MM-DD>.parquet
//
// The archive is append-friendly: re-archiving a date merges by article SID.
type NewsArchive struct {
	DataDir string
}

// NewNewsArchive creates a NewsArchive rooted at the given data directory.
func NewNewsArchive(dataDir string) *NewsArchive {
	return &NewsArchive{DataDir: dataDir}
}

// NewsRecord is the Parquet schema for archived news.
type NewsRecord struct {
	SID       string `parquet:"sid"`
	Date      int64  `parquet:"news_date,timestamp(millisecond)"` // Unix ms
	Headline  string `parquet:"headline"`
	Summary   string `parquet:"summary"`
	AISummary string `parquet:"ai_summary"`
	Publisher string `parquet:"publisher"`
	Tag       string `parquet:"tag"`
	Sentiment string `parquet:"sentiment"`
}

// WriteArchive merges the given articles into the Parquet file for date,
// deduplicating by SID (incoming records win).
func (a *NewsArchive) WriteArchive(date time.Time, articles []domain.NewsArticle) error {
	if len(articles) == 0 {
		return nil
	}

	records := make([]NewsRecord, 0, len(articles))
	for i := range articles {
		records = append(records, toNewsRecord(&articles[i]))
	}

	path := a.archivePath(date)
	existing, _ := readParquetFile[NewsRecord](path)
	merged := mergeNewsRecords(existing, records)

	if err := writeParquetFile(path, merged); err != nil {
		return fmt.Errorf("writing news archive for %s: %w", date.Format("2006-01-02"), err)
	}
	return nil
}

// ReadArchive reads the archived articles for a date. A missing file yields
// an empty slice.
func (a *NewsArchive) ReadArchive(date time.Time) ([]domain.NewsArticle, error) {
	records, err := readParquetFile[NewsRecord](a.archivePath(date))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	articles := make([]domain.NewsArticle, 0, len(records))
	for _, r := range records {
		articles = append(articles, domain.NewsArticle{
			SID:       r.SID,
			Date:      time.UnixMilli(r.Date).UTC(),
			Headline:  r.Headline,
			Summary:   r.Summary,
			AISummary: r.AISummary,
			Publisher: r.Publisher,
			Tag:       r.Tag,
			Sentiment: domain.Sentiment(r.Sentiment),
		})
	}
	return articles, nil
}

// ListDates returns the dates with archived news, sorted ascending.
func (a *NewsArchive) ListDates() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(a.DataDir, "news"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".parquet" {
			continue
		}
		date := name[:len(name)-len(".parquet")]
		if len(date) == 10 && date[4] == '-' && date[7] == '-' {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates, nil
}

// archivePath returns the filesystem path for a date's archive file.
func (a *NewsArchive) archivePath(date time.Time) string {
	return filepath.Join(a.DataDir, "news", date.Format("2006-01-02")+".parquet")
}

func toNewsRecord(a *domain.NewsArticle) NewsRecord {
	return NewsRecord{
		SID:       a.SID,
		Date:      a.Date.UnixMilli(),
		Headline:  a.Headline,
		Summary:   a.Summary,
		AISummary: a.AISummary,
		Publisher: a.Publisher,
		Tag:       a.Tag,
		Sentiment: string(a.Sentiment),
	}
}

// mergeNewsRecords deduplicates records by SID, preferring incoming over
// existing. Results are sorted by date then SID.
func mergeNewsRecords(existing, incoming []NewsRecord) []NewsRecord {
	seen := make(map[string]NewsRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.SID] = r
	}
	for _, r := range incoming {
		seen[r.SID] = r
	}

	merged := make([]NewsRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Date != merged[j].Date {
			return merged[i].Date < merged[j].Date
		}
		return merged[i].SID < merged[j].SID
	})
	return merged
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
