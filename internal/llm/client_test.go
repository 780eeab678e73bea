package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"oshan/internal/domain"
)

type stubCompleter struct {
	lastParams openai.ChatCompletionNewParams
	content    string
	err        error
}

func (s *stubCompleter) New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	s.lastParams = body
	if s.err != nil {
		return nil, s.err
	}
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.content}},
		},
	}, nil
}

func newTestClient(stub *stubCompleter) *Client {
	return &Client{
		completions: stub,
		chatModel:   "openai/gpt-3.5-turbo",
		reportModel: "openai/gpt-4o",
		timeout:     5 * time.Second,
		log:         slog.New(slog.NewTextHandler(testWriter{}, nil)),
	}
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestSendMessage(t *testing.T) {
	stub := &stubCompleter{content: "Hi"}
	c := newTestClient(stub)

	got := c.SendMessage(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "Hello"},
	})
	if !got.Success {
		t.Fatal("expected success")
	}
	if got.Response != "Hi" {
		t.Errorf("response = %q, want %q", got.Response, "Hi")
	}
	if len(stub.lastParams.Messages) != 1 {
		t.Fatalf("sent %d messages, want 1", len(stub.lastParams.Messages))
	}
	if string(stub.lastParams.Model) != "openai/gpt-3.5-turbo" {
		t.Errorf("model = %q, want chat model", stub.lastParams.Model)
	}
}

func TestSendMessageProviderError(t *testing.T) {
	stub := &stubCompleter{err: fmt.Errorf("upstream unavailable")}
	c := newTestClient(stub)

	got := c.SendMessage(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "Hello"},
	})
	if got.Success {
		t.Fatal("expected failure")
	}
	if got.Response != "Error processing message." {
		t.Errorf("response = %q, want canned error message", got.Response)
	}
}

func TestGenerateSummary(t *testing.T) {
	stub := &stubCompleter{content: "Short summary."}
	c := newTestClient(stub)

	got := c.GenerateSummary(context.Background(), "A long article body.")
	if !got.Success {
		t.Fatal("expected success")
	}
	if got.Summary != "Short summary." {
		t.Errorf("summary = %q", got.Summary)
	}
	if v := stub.lastParams.MaxTokens.Or(0); v != 150 {
		t.Errorf("max tokens = %d, want 150", v)
	}
	if len(stub.lastParams.Messages) != 2 {
		t.Fatalf("sent %d messages, want system+user", len(stub.lastParams.Messages))
	}
}

func TestGenerateSummaryError(t *testing.T) {
	stub := &stubCompleter{err: fmt.Errorf("rate limited")}
	c := newTestClient(stub)

	got := c.GenerateSummary(context.Background(), "body")
	if got.Success {
		t.Fatal("expected failure")
	}
	if got.Summary != "" {
		t.Errorf("summary = %q, want empty", got.Summary)
	}
}

func TestGenerateStockReport(t *testing.T) {
	stub := &stubCompleter{content: "# Report\n\nDisclaimer: This report is for informational purposes only and does not constitute financial advice."}
	c := newTestClient(stub)

	stock := &domain.Stock{SID: "AAPL", Name: "Apple Inc.", Symbol: "AAPL", Sector: "Technology", CurrentPrice: 190.5, PERatio: 29.1}
	profile := &domain.UserProfile{InvestingStyle: "growth", Sectors: []string{"Technology"}, RiskTolerance: "high"}

	got := c.GenerateStockReport(context.Background(), stock, profile)
	if !got.Success {
		t.Fatal("expected success")
	}
	if !strings.HasPrefix(got.Report, "# Report") {
		t.Errorf("report = %q", got.Report)
	}
	if string(stub.lastParams.Model) != "openai/gpt-4o" {
		t.Errorf("model = %q, want report model", stub.lastParams.Model)
	}
	if v := stub.lastParams.MaxTokens.Or(0); v != 2000 {
		t.Errorf("max tokens = %d, want 2000", v)
	}
}

func TestBuildReportPromptFallbacks(t *testing.T) {
	stock := &domain.Stock{SID: "X", Name: "X Corp", Symbol: "X", CurrentPrice: 10}

	prompt := buildReportPrompt(stock, nil)
	if !strings.Contains(prompt, "- PE Ratio: N/A") {
		t.Error("missing fundamentals should render as N/A")
	}
	if !strings.Contains(prompt, "- Investing Style: N/A") {
		t.Error("nil profile should render preferences as N/A")
	}
	if !strings.Contains(prompt, "does not constitute financial advice") {
		t.Error("prompt must ask for the disclaimer")
	}

	profile := &domain.UserProfile{InvestingStyle: "value"}
	prompt = buildReportPrompt(stock, profile)
	if !strings.Contains(prompt, "- Investing Style: value") {
		t.Error("profile style should appear in prompt")
	}
	if !strings.Contains(prompt, "- Risk Tolerance: N/A") {
		t.Error("empty profile fields should render as N/A")
	}
}

func TestToParamsRoleMapping(t *testing.T) {
	out := toParams([]domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "s"},
		{Role: domain.RoleUser, Content: "u"},
		{Role: domain.RoleAssistant, Content: "a"},
		{Role: "bogus", Content: "b"},
	})
	if len(out) != 4 {
		t.Fatalf("mapped %d messages, want 4", len(out))
	}
}
