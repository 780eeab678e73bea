// Package llm wraps the hosted chat-completion provider used for chat
// replies, news summarization, and stock report generation. All operations
// degrade to a success=false result instead of returning provider errors;
// callers must check the flag.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"oshan/internal/domain"
)

// completer is the slice of the provider client the wrapper needs; tests
// substitute a stub.
type completer interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Client calls the completion provider with configured models.
type Client struct {
	completions completer
	chatModel   string
	reportModel string
	timeout     time.Duration
	log         *slog.Logger
}

// ChatResult is the outcome of a chat completion.
type ChatResult struct {
	Response string `json:"response"`
	Success  bool   `json:"success"`
}

// SummaryResult is the outcome of a summarization request.
type SummaryResult struct {
	Summary string `json:"summary"`
	Success bool   `json:"success"`
}

// ReportResult is the outcome of a stock report generation.
type ReportResult struct {
	Report  string `json:"report"`
	Success bool   `json:"success"`
}

// NewClient creates a Client against the given provider. baseURL selects the
// provider endpoint (OpenRouter by default); empty keeps the library default.
func NewClient(apiKey, baseURL, chatModel, reportModel string, log *slog.Logger) *Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	return &Client{
		completions: &client.Chat.Completions,
		chatModel:   chatModel,
		reportModel: reportModel,
		timeout:     60 * time.Second,
		log:         log,
	}
}

// SendMessage forwards a role-tagged conversation to the provider.
func (c *Client) SendMessage(ctx context.Context, messages []domain.ChatMessage) ChatResult {
	content, err := c.complete(ctx, c.chatModel, toParams(messages), 0)
	if err != nil {
		c.log.Error("llm chat request failed", "error", err)
		return ChatResult{Response: "Error processing message.", Success: false}
	}
	return ChatResult{Response: content, Success: true}
}

// GenerateSummary produces a short summary of the given article text.
func (c *Client) GenerateSummary(ctx context.Context, text string) SummaryResult {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You are a helpful assistant that summarizes news articles concisely."),
		openai.UserMessage("Please summarize the following news article:\n\n" + text),
	}
	content, err := c.complete(ctx, c.chatModel, messages, 150)
	if err != nil {
		c.log.Error("llm summary request failed", "error", err)
		return SummaryResult{Success: false}
	}
	return SummaryResult{Summary: content, Success: true}
}

// GenerateStockReport produces a markdown analysis report for a stock,
// personalized with the user profile when one is provided.
func (c *Client) GenerateStockReport(ctx context.Context, stock *domain.Stock, profile *domain.UserProfile) ReportResult {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You are an AI financial analyst generating comprehensive stock reports."),
		openai.UserMessage(buildReportPrompt(stock, profile)),
	}
	content, err := c.complete(ctx, c.reportModel, messages, 2000)
	if err != nil {
		c.log.Error("llm report request failed", "error", err, "stock", stock.SID)
		return ReportResult{Success: false}
	}
	return ReportResult{Report: content, Success: true}
}

// complete issues one provider call with the wrapper's timeout.
func (c *Client) complete(ctx context.Context, model string, messages []openai.ChatCompletionMessageParamUnion, maxTokens int64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(maxTokens)
	}

	resp, err := c.completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// toParams maps domain chat roles onto provider message unions. Unknown
// roles are treated as user messages.
func toParams(messages []domain.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case domain.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func buildReportPrompt(stock *domain.Stock, profile *domain.UserProfile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate a comprehensive stock analysis report for %s (%s) in markdown format.\n\n", stock.Name, stock.Symbol)
	sb.WriteString("Include the following sections based on the provided data:\n\n")
	sb.WriteString("1. **Executive AI Summary**: A concise overview of the company and its current standing.\n")
	sb.WriteString("2. **Key Financials**: Highlight current price, market cap, PE Ratio, ROE, EPS, Revenue, and Profit.\n")
	sb.WriteString("3. **Shareholding Trends**: Mention promoter holding and institutional holding.\n")
	sb.WriteString("4. **Key News & Narratives**: Briefly summarize important recent news (if available).\n")
	sb.WriteString("5. **AI Recommendations**: Provide general insights and potential considerations (state clearly this is NOT investment advice).\n\n")

	sb.WriteString("Stock Data:\n")
	fmt.Fprintf(&sb, "- Name: %s\n", stock.Name)
	fmt.Fprintf(&sb, "- Symbol: %s\n", stock.Symbol)
	fmt.Fprintf(&sb, "- Current Price: %g\n", stock.CurrentPrice)
	fmt.Fprintf(&sb, "- Market Cap: %s\n", orNA(stock.MarketCap))
	fmt.Fprintf(&sb, "- PE Ratio: %s\n", orNA(stock.PERatio))
	fmt.Fprintf(&sb, "- ROE: %s\n", orNA(stock.ROE))
	fmt.Fprintf(&sb, "- EPS: %s\n", orNA(stock.EPS))
	fmt.Fprintf(&sb, "- Revenue: %s\n", orNA(stock.Revenue))
	fmt.Fprintf(&sb, "- Profit: %s\n", orNA(stock.Profit))
	fmt.Fprintf(&sb, "- Promoter Holding: %s%%\n", orNA(stock.PromoterHolding))
	fmt.Fprintf(&sb, "- Institutional Holding: %s%%\n", orNA(stock.InstitutionalHolding))
	fmt.Fprintf(&sb, "- Sector: %s\n", stock.Sector)
	desc := stock.Description
	if desc == "" {
		desc = "N/A"
	}
	fmt.Fprintf(&sb, "- Description: %s\n\n", desc)

	sb.WriteString("User Preferences (if available for personalization):\n")
	if profile != nil {
		fmt.Fprintf(&sb, "- Investing Style: %s\n", orNAString(profile.InvestingStyle))
		fmt.Fprintf(&sb, "- Sectors of Interest: %s\n", orNAString(strings.Join(profile.Sectors, ", ")))
		fmt.Fprintf(&sb, "- Risk Tolerance: %s\n", orNAString(profile.RiskTolerance))
	} else {
		sb.WriteString("- Investing Style: N/A\n- Sectors of Interest: N/A\n- Risk Tolerance: N/A\n")
	}

	sb.WriteString("\nEnsure the report is professional, well-structured, and easy to read. Start with a clear title for the report.\n")
	sb.WriteString(`Important: Add a disclaimer at the end stating "Disclaimer: This report is for informational purposes only and does not constitute financial advice."`)
	return sb.String()
}

func orNA(v float64) string {
	if v == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%g", v)
}

func orNAString(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
