// Package store provides persistence for the oshan platform: a SQLite
// database for stocks, news, themes, profiles, and insights, plus a Parquet
// archive for daily news batches.
package store

import (
	"context"
	"errors"

	"oshan/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// StockStore persists stocks keyed by SID.
type StockStore interface {
	UpsertStock(ctx context.Context, s *domain.Stock) error
	GetStock(ctx context.Context, sid string) (*domain.Stock, error)
	ListStocks(ctx context.Context) ([]domain.Stock, error)
	UpdatePrices(ctx context.Context, symbol string, current, previousClose float64) error
}

// NewsStore persists news articles keyed by SID.
type NewsStore interface {
	UpsertNews(ctx context.Context, a *domain.NewsArticle) error
	ListNews(ctx context.Context) ([]domain.NewsArticle, error)
}

// ThemeStore persists investment themes.
type ThemeStore interface {
	UpsertTheme(ctx context.Context, t *domain.Theme) error
	// ListThemes returns themes in insertion order; limit 0 means no limit.
	ListThemes(ctx context.Context, limit int) ([]domain.Theme, error)
	// ListThemesByPerformance returns themes ordered by performance descending.
	ListThemesByPerformance(ctx context.Context, limit int) ([]domain.Theme, error)
}

// ProfileStore persists user profiles keyed by user id.
type ProfileStore interface {
	// UpsertProfile merges the given profile over any existing one: provided
	// fields overwrite, omitted fields keep their prior values. It reports
	// whether a new record was created.
	UpsertProfile(ctx context.Context, p *domain.UserProfile) (created bool, err error)
	GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
}

// InsightStore persists AI insights.
type InsightStore interface {
	SaveInsight(ctx context.Context, in *domain.AIInsight) error
	ListInsights(ctx context.Context) ([]domain.AIInsight, error)
}
