// Package httpapi serves the REST API: stock and news reads, theme
// recommendations, profile upserts, chat, report generation, and the
// Google sign-in exchange.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"oshan/internal/auth"
	"oshan/internal/domain"
	"oshan/internal/llm"
	"oshan/internal/store"
)

// LLM is the completion surface the API depends on.
type LLM interface {
	SendMessage(ctx context.Context, messages []domain.ChatMessage) llm.ChatResult
	GenerateSummary(ctx context.Context, text string) llm.SummaryResult
	GenerateStockReport(ctx context.Context, stock *domain.Stock, profile *domain.UserProfile) llm.ReportResult
}

// Server holds the API's dependencies.
type Server struct {
	stocks   store.StockStore
	news     store.NewsStore
	themes   store.ThemeStore
	profiles store.ProfileStore
	insights store.InsightStore
	llm      LLM
	auth     *auth.Manager
	log      *slog.Logger
}

// NewServer wires the API against its stores, the LLM client, and the
// token manager.
func NewServer(
	stocks store.StockStore,
	news store.NewsStore,
	themes store.ThemeStore,
	profiles store.ProfileStore,
	insights store.InsightStore,
	llmClient LLM,
	authManager *auth.Manager,
	log *slog.Logger,
) *Server {
	return &Server{
		stocks:   stocks,
		news:     news,
		themes:   themes,
		profiles: profiles,
		insights: insights,
		llm:      llmClient,
		auth:     authManager,
		log:      log,
	}
}

// RegisterRoutes registers all API routes on the given mux. Everything under
// /api requires a bearer token.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /auth/google", s.handleGoogleAuth)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/stocks", s.handleListStocks)
	api.HandleFunc("GET /api/stocks/{sid}", s.handleGetStock)
	api.HandleFunc("GET /api/insights", s.handleListInsights)
	api.HandleFunc("GET /api/news", s.handleListNews)
	api.HandleFunc("GET /api/themes", s.handleThemes)
	api.HandleFunc("GET /api/profile", s.handleGetProfile)
	api.HandleFunc("POST /api/profile", s.handleUpsertProfile)
	api.HandleFunc("POST /api/chat", s.handleChat)
	api.HandleFunc("POST /api/report", s.handleReport)
	api.HandleFunc("POST /api/ingest-news", s.handleIngestNews)
	mux.Handle("/api/", s.auth.Middleware(api))
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleGoogleAuth(w http.ResponseWriter, r *http.Request) {
	var req GoogleAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IDToken == "" {
		writeError(w, http.StatusBadRequest, "idToken is required")
		return
	}
	userID := auth.SimulatedGoogleUserID(req.IDToken)
	token, err := s.auth.Mint(userID)
	if err != nil {
		s.log.Error("minting token", "error", err)
		writeError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}
	writeJSON(w, GoogleAuthResponse{Token: token, UserID: userID})
}

func (s *Server) handleListStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := s.stocks.ListStocks(r.Context())
	if err != nil {
		s.internalError(w, "listing stocks", err)
		return
	}
	writeJSON(w, stocks)
}

func (s *Server) handleGetStock(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")
	stock, err := s.stocks.GetStock(r.Context(), sid)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Stock not found")
		return
	}
	if err != nil {
		s.internalError(w, "loading stock", err)
		return
	}
	writeJSON(w, stock)
}

func (s *Server) handleListInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.insights.ListInsights(r.Context())
	if err != nil {
		s.internalError(w, "listing insights", err)
		return
	}
	writeJSON(w, insights)
}

func (s *Server) handleListNews(w http.ResponseWriter, r *http.Request) {
	articles, err := s.news.ListNews(r.Context())
	if err != nil {
		s.internalError(w, "listing news", err)
		return
	}
	writeJSON(w, articles)
}

// handleThemes recommends themes for the authenticated user. Users without a
// profile get a default slate; users whose preferences match no theme get
// the top performers; otherwise the matching themes are returned.
func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := s.profiles.GetProfile(ctx, auth.UserID(r))
	if errors.Is(err, store.ErrNotFound) {
		themes, err := s.themes.ListThemes(ctx, 5)
		if err != nil {
			s.internalError(w, "listing themes", err)
			return
		}
		writeJSON(w, themes)
		return
	}
	if err != nil {
		s.internalError(w, "loading profile", err)
		return
	}

	all, err := s.themes.ListThemes(ctx, 0)
	if err != nil {
		s.internalError(w, "listing themes", err)
		return
	}
	prefs := profile.PreferenceTags()
	matched := make([]domain.Theme, 0, len(all))
	for _, t := range all {
		if t.MatchesAny(prefs) {
			matched = append(matched, t)
		}
	}
	if len(matched) == 0 {
		top, err := s.themes.ListThemesByPerformance(ctx, 5)
		if err != nil {
			s.internalError(w, "listing themes", err)
			return
		}
		writeJSON(w, top)
		return
	}
	if len(matched) > 10 {
		matched = matched[:10]
	}
	writeJSON(w, matched)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.profiles.GetProfile(r.Context(), auth.UserID(r))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		s.internalError(w, "loading profile", err)
		return
	}
	writeJSON(w, profile)
}

// handleUpsertProfile merges quiz answers into the user's profile. A first
// submission answers 201, later ones 200; both return the merged profile.
func (s *Server) handleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	var req domain.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = auth.UserID(r)

	ctx := r.Context()
	created, err := s.profiles.UpsertProfile(ctx, &req)
	if err != nil {
		s.internalError(w, "upserting profile", err)
		return
	}
	merged, err := s.profiles.GetProfile(ctx, req.UserID)
	if err != nil {
		s.internalError(w, "reloading profile", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(merged)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}
	result := s.llm.SendMessage(r.Context(), req.Messages)
	if !result.Success {
		writeError(w, http.StatusInternalServerError, "Failed to process chat message")
		return
	}
	writeJSON(w, result)
}

// handleReport generates a markdown stock report. The response body is the
// raw markdown, not JSON.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StockID == "" {
		writeError(w, http.StatusBadRequest, "stockId is required")
		return
	}

	ctx := r.Context()
	stock, err := s.stocks.GetStock(ctx, req.StockID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Stock not found")
		return
	}
	if err != nil {
		s.internalError(w, "loading stock", err)
		return
	}

	// Personalization is best-effort; a missing profile is fine.
	profile, err := s.profiles.GetProfile(ctx, auth.UserID(r))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.internalError(w, "loading profile", err)
		return
	}

	result := s.llm.GenerateStockReport(ctx, stock, profile)
	if !result.Success {
		writeError(w, http.StatusInternalServerError, "Failed to generate report")
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(result.Report))
}

// handleIngestNews stores a batch of articles, summarizing each one that
// arrives without a summary. A failed summarization is logged and the
// article is stored as-is.
func (s *Server) handleIngestNews(w http.ResponseWriter, r *http.Request) {
	var req IngestNewsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.News) == 0 {
		writeError(w, http.StatusBadRequest, "news is required")
		return
	}

	ctx := r.Context()
	stored := 0
	for i := range req.News {
		a := &req.News[i]
		if a.SID == "" || a.Headline == "" {
			continue
		}
		if a.AISummary == "" {
			text := strings.TrimSpace(a.Headline + "\n\n" + a.Summary)
			if res := s.llm.GenerateSummary(ctx, text); res.Success {
				a.AISummary = res.Summary
			} else {
				s.log.Warn("summarization failed, storing article without summary", "sid", a.SID)
			}
		}
		if err := s.news.UpsertNews(ctx, a); err != nil {
			s.internalError(w, "storing news", err)
			return
		}
		stored++
	}
	writeJSON(w, IngestNewsResponse{Message: "News ingested", Count: stored})
}

// internalError logs the cause and answers with a generic message.
func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.log.Error(op, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Platform")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
