package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/skimlab/deepresearch/internal/models"
)

// ErrNoResults is returned when the backend answered but produced zero
// usable candidates. Callers treat it as a discovery failure, never as an
// empty success.
var ErrNoResults = errors.New("search returned no results")

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 ResearchAssistantBot/1.0"

// Client queries the DuckDuckGo HTML endpoint and parses the result page.
type Client struct {
	endpoint   string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient builds a search client. Timeout bounds each request; the client
// performs at most one retry with backoff on transport or 5xx failures.
func NewClient(endpoint string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Search returns up to n ranked candidates for the query. Order is the
// backend's relevance order. Results without a URL are skipped and duplicate
// URLs are dropped, keeping the first occurrence.
func (c *Client) Search(ctx context.Context, query string, n int) ([]models.SourceCandidate, error) {
	var (
		results []models.SourceCandidate
		err     error
	)
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
		}
		results, err = c.search(ctx, query, n)
		if err == nil {
			break
		}
		c.log.Warn("search attempt failed",
			zap.String("query", query), zap.Int("attempt", attempt+1), zap.Error(err))
	}
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	c.log.Info("search completed", zap.String("query", query), zap.Int("results", len(results)))
	return results, nil
}

func (c *Client) search(ctx context.Context, query string, n int) ([]models.SourceCandidate, error) {
	reqURL := c.endpoint + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}

	seen := make(map[string]struct{})
	results := make([]models.SourceCandidate, 0, n)
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		target := resolveRedirect(href)
		if target == "" {
			return true
		}
		if _, dup := seen[target]; dup {
			return true
		}
		seen[target] = struct{}{}
		results = append(results, models.SourceCandidate{
			URL:     target,
			Title:   strings.TrimSpace(link.Text()),
			Snippet: strings.TrimSpace(sel.Find(".result__snippet").Text()),
		})
		return len(results) < n
	})
	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links to the
// target URL. Direct links pass through unchanged.
func resolveRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		target := u.Query().Get("uddg")
		if target == "" {
			return ""
		}
		return target
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return href
}
