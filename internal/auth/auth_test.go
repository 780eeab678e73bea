package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMintVerifyRoundtrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.Mint("google-user-abc123")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	userID, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if userID != "google-user-abc123" {
		t.Errorf("userID = %q, want %q", userID, "google-user-abc123")
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := NewManager("secret-a", time.Hour).Mint("u1")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if _, err := NewManager("secret-b", time.Hour).Verify(token); err == nil {
		t.Error("expected verification failure with a different secret")
	}
}

func TestVerifyExpired(t *testing.T) {
	token, err := NewManager("secret", -time.Minute).Mint("u1")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if _, err := NewManager("secret", time.Hour).Verify(token); err == nil {
		t.Error("expected verification failure for expired token")
	}
}

func TestMiddleware(t *testing.T) {
	m := NewManager("secret", time.Hour)
	var gotUserID string
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserID(r)
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/stocks", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	token, err := m.Mint("u42")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	req := httptest.NewRequest("GET", "/api/stocks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUserID != "u42" {
		t.Errorf("context userID = %q, want %q", gotUserID, "u42")
	}
}

func TestSimulatedGoogleUserID(t *testing.T) {
	tests := []struct {
		idToken string
		want    string
	}{
		{"abcdefghijklmnop", "google-user-abcdefghij"},
		{"short", "google-user-short"},
		{"", "google-user-"},
	}
	for _, tt := range tests {
		if got := SimulatedGoogleUserID(tt.idToken); got != tt.want {
			t.Errorf("SimulatedGoogleUserID(%q) = %q, want %q", tt.idToken, got, tt.want)
		}
	}
}
