package oshan

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Stock is a listed security as returned by the API.
type Stock struct {
	SID           string  `json:"sid"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	Exchange      string  `json:"exchange"`
	Sector        string  `json:"sector"`
	Description   string  `json:"description,omitempty"`
	CurrentPrice  float64 `json:"currentPrice"`
	PreviousClose float64 `json:"previousClose"`

	MarketCap            float64 `json:"marketCap,omitempty"`
	PERatio              float64 `json:"peRatio,omitempty"`
	ROE                  float64 `json:"roe,omitempty"`
	EPS                  float64 `json:"eps,omitempty"`
	Revenue              float64 `json:"revenue,omitempty"`
	Profit               float64 `json:"profit,omitempty"`
	PromoterHolding      float64 `json:"promoterHolding,omitempty"`
	InstitutionalHolding float64 `json:"institutionalHolding,omitempty"`
}

// NewsArticle is a news item with its AI summary when available.
type NewsArticle struct {
	SID       string    `json:"sid"`
	Date      time.Time `json:"news_date"`
	Headline  string    `json:"headline"`
	Summary   string    `json:"summary"`
	AISummary string    `json:"aiSummary,omitempty"`
	Publisher string    `json:"publisher"`
	Tag       string    `json:"tag"`
	Sentiment string    `json:"sentiment,omitempty"`
}

// AIInsight is a generated observation attached to a stock.
type AIInsight struct {
	ID          int64     `json:"id"`
	StockID     string    `json:"stockId"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Confidence  float64   `json:"confidence"`
	Timestamp   time.Time `json:"timestamp"`
}

// Theme is a curated grouping of stocks around an investment narrative.
type Theme struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Stocks      []string `json:"stocks"`
	Performance float64  `json:"performance"`
	Trend       string   `json:"trend"`
	Tags        []string `json:"tags"`
}

// UserProfile holds onboarding-quiz answers. Submissions merge field by
// field on the server: provided values overwrite, omitted ones are kept.
type UserProfile struct {
	UserID         string    `json:"userId,omitempty"`
	InvestingStyle string    `json:"investingStyle,omitempty"`
	Sectors        []string  `json:"sectors,omitempty"`
	Values         []string  `json:"values,omitempty"`
	RiskTolerance  string    `json:"riskTolerance,omitempty"`
	Experience     string    `json:"experience,omitempty"`
	UpdatedAt      time.Time `json:"timestamp,omitempty"`
}

// ChatMessage is a single role-tagged message in a chat exchange.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the assistant's reply.
type ChatResponse struct {
	Response string `json:"response"`
	Success  bool   `json:"success"`
}

type chatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

type reportRequest struct {
	StockID string `json:"stockId"`
}

type googleAuthRequest struct {
	IDToken string `json:"idToken"`
}

type googleAuthResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// GetStocks lists all stocks.
func (c *Client) GetStocks(ctx context.Context) ([]Stock, error) {
	var out []Stock
	if err := c.do(ctx, http.MethodGet, "/api/stocks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStock fetches a single stock by its SID.
func (c *Client) GetStock(ctx context.Context, sid string) (*Stock, error) {
	var out Stock
	if err := c.do(ctx, http.MethodGet, "/api/stocks/"+sid, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetInsights lists AI insights, newest first.
func (c *Client) GetInsights(ctx context.Context) ([]AIInsight, error) {
	var out []AIInsight
	if err := c.do(ctx, http.MethodGet, "/api/insights", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetNews lists news articles, newest first.
func (c *Client) GetNews(ctx context.Context) ([]NewsArticle, error) {
	var out []NewsArticle
	if err := c.do(ctx, http.MethodGet, "/api/news", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetThemes lists themes recommended for the signed-in user.
func (c *Client) GetThemes(ctx context.Context) ([]Theme, error) {
	var out []Theme
	if err := c.do(ctx, http.MethodGet, "/api/themes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProfile fetches the signed-in user's profile. It returns (nil, nil)
// when no profile exists yet.
func (c *Client) GetProfile(ctx context.Context) (*UserProfile, error) {
	var out UserProfile
	err := c.do(ctx, http.MethodGet, "/api/profile", nil, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// StoreQuizResults submits quiz answers and returns the merged profile.
func (c *Client) StoreQuizResults(ctx context.Context, profile *UserProfile) (*UserProfile, error) {
	var out UserProfile
	if err := c.do(ctx, http.MethodPost, "/api/profile", profile, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendChatMessage forwards a conversation and returns the assistant reply.
func (c *Client) SendChatMessage(ctx context.Context, messages []ChatMessage) (*ChatResponse, error) {
	var out ChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", chatRequest{Messages: messages}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStockReport generates a markdown report for a stock and returns the
// raw markdown text.
func (c *Client) GetStockReport(ctx context.Context, stockID string) (string, error) {
	var out []byte
	if err := c.do(ctx, http.MethodPost, "/api/report", reportRequest{StockID: stockID}, &out); err != nil {
		return "", err
	}
	return string(out), nil
}

// Login exchanges a Google ID token for an API token and stores it for
// later calls. It returns the signed-in user ID.
func (c *Client) Login(ctx context.Context, idToken string) (string, error) {
	var out googleAuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/google", googleAuthRequest{IDToken: idToken}, &out); err != nil {
		return "", err
	}
	creds := &Credentials{Token: out.Token, UserID: out.UserID}
	if err := c.tokens.Save(creds); err != nil {
		return "", err
	}
	return out.UserID, nil
}

// Logout discards stored credentials. Logging out twice is fine.
func (c *Client) Logout() error {
	return c.tokens.Clear()
}

// UserID returns the signed-in user ID, or "" when signed out.
func (c *Client) UserID() (string, error) {
	creds, err := c.tokens.Load()
	if err != nil {
		return "", err
	}
	if creds == nil {
		return "", nil
	}
	return creds.UserID, nil
}
