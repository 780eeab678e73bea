package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"oshan/internal/config"
	"oshan/pkg/oshan"
)

const version = "0.1.0"

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: oshan-cli <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  version              Print the CLI version\n")
	fmt.Fprintf(os.Stderr, "  login <id-token>     Sign in with a Google ID token\n")
	fmt.Fprintf(os.Stderr, "  logout               Discard stored credentials\n")
	fmt.Fprintf(os.Stderr, "  stocks               List all stocks\n")
	fmt.Fprintf(os.Stderr, "  stock <sid>          Show one stock\n")
	fmt.Fprintf(os.Stderr, "  news                 List news articles\n")
	fmt.Fprintf(os.Stderr, "  insights             List AI insights\n")
	fmt.Fprintf(os.Stderr, "  themes               List recommended themes\n")
	fmt.Fprintf(os.Stderr, "  profile              Show your profile\n")
	fmt.Fprintf(os.Stderr, "  quiz [options]       Submit quiz answers\n")
	fmt.Fprintf(os.Stderr, "  chat <message>       Ask the assistant\n")
	fmt.Fprintf(os.Stderr, "  report <sid>         Generate a stock report\n")
	fmt.Fprintf(os.Stderr, "\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	if os.Args[1] == "version" {
		fmt.Printf("oshan-cli %s\n", version)
		return
	}

	client, err := newClient()
	if err != nil {
		fatal(err)
	}
	ctx := context.Background()

	switch os.Args[1] {
	case "login":
		if len(os.Args) < 3 {
			fatal(fmt.Errorf("login requires an id token"))
		}
		userID, err := client.Login(ctx, os.Args[2])
		if err != nil {
			fatal(err)
		}
		fmt.Printf("signed in as %s\n", userID)

	case "logout":
		if err := client.Logout(); err != nil {
			fatal(err)
		}
		fmt.Println("signed out")

	case "stocks":
		stocks, err := client.GetStocks(ctx)
		if err != nil {
			fatal(err)
		}
		for _, s := range stocks {
			change := s.CurrentPrice - s.PreviousClose
			fmt.Printf("%-8s %-30s %10.2f %+8.2f\n", s.Symbol, s.Name, s.CurrentPrice, change)
		}

	case "stock":
		if len(os.Args) < 3 {
			fatal(fmt.Errorf("stock requires a sid"))
		}
		s, err := client.GetStock(ctx, os.Args[2])
		if err != nil {
			fatal(err)
		}
		fmt.Printf("%s (%s) on %s\n", s.Name, s.Symbol, s.Exchange)
		fmt.Printf("  price %.2f (prev close %.2f), sector %s\n", s.CurrentPrice, s.PreviousClose, s.Sector)
		if s.Description != "" {
			fmt.Printf("  %s\n", s.Description)
		}

	case "news":
		articles, err := client.GetNews(ctx)
		if err != nil {
			fatal(err)
		}
		for _, a := range articles {
			fmt.Printf("[%s] %s (%s)\n", a.Date.Format("2006-01-02"), a.Headline, a.Publisher)
			if a.AISummary != "" {
				fmt.Printf("  %s\n", a.AISummary)
			}
		}

	case "insights":
		insights, err := client.GetInsights(ctx)
		if err != nil {
			fatal(err)
		}
		for _, in := range insights {
			fmt.Printf("[%s] %s: %s (%.0f%%)\n", in.Type, in.StockID, in.Title, in.Confidence*100)
		}

	case "themes":
		themes, err := client.GetThemes(ctx)
		if err != nil {
			fatal(err)
		}
		for _, t := range themes {
			fmt.Printf("%-25s %+6.1f%% %-7s %s\n", t.Name, t.Performance, t.Trend, strings.Join(t.Tags, ","))
		}

	case "profile":
		profile, err := client.GetProfile(ctx)
		if err != nil {
			fatal(err)
		}
		if profile == nil {
			fmt.Println("no profile yet, run the quiz")
			return
		}
		fmt.Printf("style: %s\nrisk: %s\nexperience: %s\nsectors: %s\nvalues: %s\n",
			profile.InvestingStyle, profile.RiskTolerance, profile.Experience,
			strings.Join(profile.Sectors, ","), strings.Join(profile.Values, ","))

	case "quiz":
		runQuiz(ctx, client, os.Args[2:])

	case "chat":
		if len(os.Args) < 3 {
			fatal(fmt.Errorf("chat requires a message"))
		}
		resp, err := client.SendChatMessage(ctx, []oshan.ChatMessage{
			{Role: "user", Content: strings.Join(os.Args[2:], " ")},
		})
		if err != nil {
			fatal(err)
		}
		fmt.Println(resp.Response)

	case "report":
		if len(os.Args) < 3 {
			fatal(fmt.Errorf("report requires a sid"))
		}
		report, err := client.GetStockReport(ctx, os.Args[2])
		if err != nil {
			fatal(err)
		}
		fmt.Println(report)

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func runQuiz(ctx context.Context, client *oshan.Client, args []string) {
	fs := flag.NewFlagSet("quiz", flag.ExitOnError)
	var (
		style      = fs.String("style", "", "investing style")
		sectors    = fs.String("sectors", "", "comma-separated sectors of interest")
		values     = fs.String("values", "", "comma-separated values")
		risk       = fs.String("risk", "", "risk tolerance")
		experience = fs.String("experience", "", "investing experience")
	)
	fs.Parse(args)

	profile := &oshan.UserProfile{
		InvestingStyle: *style,
		Sectors:        splitList(*sectors),
		Values:         splitList(*values),
		RiskTolerance:  *risk,
		Experience:     *experience,
	}
	if *style == "" && *sectors == "" && *values == "" && *risk == "" && *experience == "" {
		// Interactive mode.
		r := bufio.NewReader(os.Stdin)
		profile.InvestingStyle = prompt(r, "Investing style (growth/value/income)")
		profile.Sectors = splitList(prompt(r, "Sectors of interest (comma-separated)"))
		profile.Values = splitList(prompt(r, "Values (comma-separated)"))
		profile.RiskTolerance = prompt(r, "Risk tolerance (low/medium/high)")
		profile.Experience = prompt(r, "Experience (beginner/intermediate/advanced)")
	}

	merged, err := client.StoreQuizResults(ctx, profile)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("profile saved for %s\n", merged.UserID)
}

func prompt(r *bufio.Reader, label string) string {
	fmt.Printf("%s: ", label)
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func newClient() (*oshan.Client, error) {
	cfgPath := "config/oshan.yaml"
	if p := os.Getenv("OSHAN_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	tokenPath, err := oshan.DefaultTokenPath()
	if err != nil {
		return nil, err
	}
	return oshan.NewClient(cfg.Client.BaseURL,
		oshan.WithTokenStore(oshan.NewFileTokenStore(tokenPath)),
		oshan.WithRetry(cfg.Client.MaxRetries, time.Duration(cfg.Client.RetryDelayMS)*time.Millisecond),
		oshan.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Client.TimeoutSec) * time.Second}),
	), nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
