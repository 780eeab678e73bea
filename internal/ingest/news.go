// Package ingest collects news articles and price snapshots for tracked
// stocks, summarizes fresh articles through the LLM, and persists them to
// the SQLite store and the daily Parquet archive.
package ingest

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"oshan/internal/domain"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes HTML tags and normalizes whitespace.
func StripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// ArticleSID derives a stable article ID from its publisher, headline, and
// date. The same article fetched twice maps to the same SID.
func ArticleSID(publisher, headline string, date time.Time) string {
	h := sha1.Sum([]byte(publisher + "|" + headline + "|" + date.UTC().Format("2006-01-02")))
	return hex.EncodeToString(h[:])[:16]
}

type rssResponse struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
	Desc    string `xml:"description"`
}

// FetchGoogleNews fetches articles for a symbol from Google News RSS.
func FetchGoogleNews(symbol string, start, end time.Time) ([]domain.NewsArticle, error) {
	return fetchGoogleNews(symbol, start, end, false, 0)
}

// NewGoogleNewsFetcher returns a Google News fetcher. When fullText is set,
// each article's summary is replaced with the readable text of the linked
// page, truncated to maxLen.
func NewGoogleNewsFetcher(fullText bool, maxLen int) Fetcher {
	return func(symbol string, start, end time.Time) ([]domain.NewsArticle, error) {
		return fetchGoogleNews(symbol, start, end, fullText, maxLen)
	}
}

func fetchGoogleNews(symbol string, start, end time.Time, fullText bool, maxLen int) ([]domain.NewsArticle, error) {
	q := url.QueryEscape(symbol + " stock")
	u := "https://news.google.com/rss/search?q=" + q + "&hl=en-US&gl=US&ceid=US:en"

	rss, err := fetchRSS(u)
	if err != nil {
		return nil, err
	}

	var articles []domain.NewsArticle
	for _, item := range rss.Channel.Items {
		t, ok := parsePubDate(item.PubDate)
		if !ok || t.Before(start) || t.After(end) {
			continue
		}
		headline := item.Title
		publisher := "google"
		// Google News appends " - Publisher" to titles.
		if idx := strings.LastIndex(headline, " - "); idx > 0 {
			publisher = headline[idx+3:]
			headline = headline[:idx]
		}
		summary := StripHTML(item.Desc)
		if fullText && item.Link != "" {
			if text, err := FetchArticleText(item.Link, maxLen); err == nil && text != "" {
				summary = text
			}
		}
		articles = append(articles, domain.NewsArticle{
			SID:       ArticleSID(publisher, headline, t),
			Date:      t,
			Headline:  headline,
			Summary:   summary,
			Publisher: publisher,
			Tag:       symbol,
		})
	}
	return articles, nil
}

// FetchGlobeNewswire fetches articles for a symbol from GlobeNewswire RSS.
func FetchGlobeNewswire(symbol string, start, end time.Time) ([]domain.NewsArticle, error) {
	u := "https://www.globenewswire.com/RssFeed/keyword/" + url.PathEscape(symbol) + "/feedTitle/GlobeNewswire.xml"

	rss, err := fetchRSS(u)
	if err != nil {
		return nil, err
	}

	var articles []domain.NewsArticle
	for _, item := range rss.Channel.Items {
		t, ok := parsePubDate(item.PubDate)
		if !ok || t.Before(start) || t.After(end) {
			continue
		}
		articles = append(articles, domain.NewsArticle{
			SID:       ArticleSID("globenewswire", item.Title, t),
			Date:      t,
			Headline:  item.Title,
			Summary:   StripHTML(item.Desc),
			Publisher: "globenewswire",
			Tag:       symbol,
		})
	}
	return articles, nil
}

// FetchArticleText downloads a linked article page and extracts its main
// readable text, truncated to maxLen.
func FetchArticleText(link string, maxLen int) (string, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parsing article URL: %w", err)
	}

	req, err := http.NewRequest("GET", link, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("article fetch status %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return "", fmt.Errorf("extracting article text: %w", err)
	}
	content := strings.TrimSpace(article.TextContent)
	if maxLen > 0 && len(content) > maxLen {
		content = content[:maxLen]
	}
	return content, nil
}

func fetchRSS(u string) (*rssResponse, error) {
	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var rss rssResponse
	if err := xml.NewDecoder(resp.Body).Decode(&rss); err != nil {
		return nil, err
	}
	return &rss, nil
}

func parsePubDate(s string) (time.Time, bool) {
	for _, layout := range []string{
		time.RFC1123Z,
		time.RFC1123,
		"Mon, 02 Jan 2006 15:04 MST",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
