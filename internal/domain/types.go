// Package domain defines the shared entity types for the oshan platform:
// stocks, news articles, AI insights, investment themes, user profiles, and
// chat messages.
package domain

import (
	"strings"
	"time"
)

// Trend describes a theme's recent direction.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Sentiment classifies a news article.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// InsightType classifies an AI insight.
type InsightType string

const (
	InsightTrend  InsightType = "trend"
	InsightSignal InsightType = "signal"
	InsightAlert  InsightType = "alert"
)

// Chat roles understood by the LLM backend.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// GIC holds the Global Industry Classification of a stock.
type GIC struct {
	Sector      string `json:"sector,omitempty"`
	Industry    string `json:"industry,omitempty"`
	SubIndustry string `json:"subIndustry,omitempty"`
}

// Stock is a listed security with pricing and optional fundamentals.
// Stocks are written by the ingest pipeline and read-only over the API.
type Stock struct {
	SID           string  `json:"sid"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	Exchange      string  `json:"exchange"`
	Sector        string  `json:"sector"`
	Description   string  `json:"description,omitempty"`
	GIC           GIC     `json:"gic,omitempty"`
	CurrentPrice  float64 `json:"currentPrice"`
	PreviousClose float64 `json:"previousClose"`

	// Fundamentals; zero means not reported.
	MarketCap            float64 `json:"marketCap,omitempty"`
	PERatio              float64 `json:"peRatio,omitempty"`
	ROE                  float64 `json:"roe,omitempty"`
	EPS                  float64 `json:"eps,omitempty"`
	Revenue              float64 `json:"revenue,omitempty"`
	Profit               float64 `json:"profit,omitempty"`
	PromoterHolding      float64 `json:"promoterHolding,omitempty"`
	InstitutionalHolding float64 `json:"institutionalHolding,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// NewsArticle is a single news item. AISummary is filled in by the
// summarization pipeline after ingestion.
type NewsArticle struct {
	SID       string    `json:"sid"`
	Date      time.Time `json:"news_date"`
	Headline  string    `json:"headline"`
	Summary   string    `json:"summary"`
	AISummary string    `json:"aiSummary,omitempty"`
	Publisher string    `json:"publisher"`
	Tag       string    `json:"tag"`
	Sentiment Sentiment `json:"sentiment,omitempty"`
}

// AIInsight is a generated observation attached to a stock.
type AIInsight struct {
	ID          int64       `json:"id"`
	StockSID    string      `json:"stockId"`
	Type        InsightType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Confidence  float64     `json:"confidence"`
	Timestamp   time.Time   `json:"timestamp"`
}

// Theme is a curated grouping of stocks around an investment narrative. Tags
// are matched against user profile sectors and values.
type Theme struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Stocks      []string `json:"stocks"`
	Performance float64  `json:"performance"`
	Trend       Trend    `json:"trend"`
	Tags        []string `json:"tags"`
}

// MatchesAny reports whether any of the theme's tags appears in prefs.
// Comparison is case-insensitive.
func (t Theme) MatchesAny(prefs []string) bool {
	for _, tag := range t.Tags {
		for _, p := range prefs {
			if strings.EqualFold(tag, p) {
				return true
			}
		}
	}
	return false
}

// UserProfile holds onboarding-quiz answers for a user. Upserts merge field
// by field: a provided value overwrites, an omitted one keeps the prior value.
type UserProfile struct {
	UserID         string    `json:"userId"`
	InvestingStyle string    `json:"investingStyle,omitempty"`
	Sectors        []string  `json:"sectors,omitempty"`
	Values         []string  `json:"values,omitempty"`
	RiskTolerance  string    `json:"riskTolerance,omitempty"`
	Experience     string    `json:"experience,omitempty"`
	UpdatedAt      time.Time `json:"timestamp,omitempty"`
}

// PreferenceTags returns the union of the profile's sectors and values, used
// for theme matching.
func (p UserProfile) PreferenceTags() []string {
	tags := make([]string, 0, len(p.Sectors)+len(p.Values))
	tags = append(tags, p.Sectors...)
	tags = append(tags, p.Values...)
	return tags
}

// ChatMessage is a single role-tagged message in a chat exchange.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
