package httpapi

import "oshan/internal/domain"

// GoogleAuthRequest carries the Google ID token from the sign-in flow.
type GoogleAuthRequest struct {
	IDToken string `json:"idToken"`
}

// GoogleAuthResponse returns the API bearer token and the derived user ID.
type GoogleAuthResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// ChatRequest is a chat exchange to forward to the LLM.
type ChatRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
}

// ReportRequest names the stock to generate a report for.
type ReportRequest struct {
	StockID string `json:"stockId"`
}

// IngestNewsRequest carries a batch of articles to store.
type IngestNewsRequest struct {
	News []domain.NewsArticle `json:"news"`
}

// IngestNewsResponse reports how many articles were stored.
type IngestNewsResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}
