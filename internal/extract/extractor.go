package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/skimlab/deepresearch/internal/config"
	"github.com/skimlab/deepresearch/internal/models"
	"github.com/skimlab/deepresearch/internal/observability"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 ResearchAssistantBot/1.0"

// fallbackContainers are tried in order when readability comes up short.
var fallbackContainers = []string{
	"article", "main",
	"div#content", "div.content",
	"div#main-content", "div.main-content",
	"div.entry-content", `div[role="main"]`,
}

// Extractor fetches candidate URLs and turns them into cleaned plain text.
// The primary strategy is readability extraction tuned for article pages;
// below-threshold output falls back to a generic block parse. Every
// candidate is processed independently: a failure yields an ExtractedSource
// with ExtractionFailed, never an aborted batch.
type Extractor struct {
	cfg        config.ExtractConfig
	httpClient *http.Client
	sched      *Scheduler
	pdf        *PDFExtractor
	log        *zap.Logger
}

// New builds an Extractor. PDF sources are handled only when enabled in the
// config; otherwise non-HTML content types are recorded as failures.
func New(cfg config.ExtractConfig, log *zap.Logger) *Extractor {
	e := &Extractor{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.FetchTimeout},
		sched:      NewScheduler(cfg.MaxConcurrent, cfg.MinInterval),
		log:        log,
	}
	if cfg.EnablePDFSources {
		e.pdf = NewPDFExtractor(cfg.UnidocLicenseKey, log)
	}
	return e
}

// ExtractAll fetches all candidates under the scheduler's concurrency and
// rate ceiling. The returned slice matches the candidate order one-to-one,
// regardless of completion order.
func (e *Extractor) ExtractAll(ctx context.Context, candidates []models.SourceCandidate) []models.ExtractedSource {
	out := make([]models.ExtractedSource, len(candidates))

	var g errgroup.Group
	g.SetLimit(e.cfg.MaxConcurrent)
	for i, cand := range candidates {
		g.Go(func() error {
			out[i] = e.extractOne(ctx, cand)
			observability.FetchResults.WithLabelValues(string(out[i].Status)).Inc()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (e *Extractor) extractOne(ctx context.Context, cand models.SourceCandidate) models.ExtractedSource {
	failed := models.ExtractedSource{SourceCandidate: cand, Status: models.ExtractionFailed}

	if err := e.sched.Acquire(ctx); err != nil {
		return failed
	}
	defer e.sched.Release()

	body, contentType, err := e.fetch(ctx, cand.URL)
	if err != nil {
		e.log.Warn("fetch failed", zap.String("url", cand.URL), zap.Error(err))
		return failed
	}

	if e.pdf != nil && strings.HasPrefix(contentType, "application/pdf") {
		text, err := e.pdf.Extract(body)
		if err != nil || len(text) < e.cfg.MinUsableChars {
			e.log.Warn("pdf extraction failed", zap.String("url", cand.URL), zap.Error(err))
			return failed
		}
		return models.ExtractedSource{
			SourceCandidate: cand,
			Text:            truncate(text, e.cfg.MaxSourceChars),
			Status:          models.ExtractionSuccess,
		}
	}
	if !strings.Contains(contentType, "html") {
		e.log.Warn("skipping non-HTML content", zap.String("url", cand.URL), zap.String("content_type", contentType))
		return failed
	}

	if text, ok := e.readable(body, cand.URL); ok {
		return models.ExtractedSource{
			SourceCandidate: cand,
			Text:            truncate(text, e.cfg.MaxSourceChars),
			Status:          models.ExtractionSuccess,
		}
	}

	text, err := fallbackExtract(body)
	if err != nil || len(text) < e.cfg.MinUsableChars {
		e.log.Warn("no usable content", zap.String("url", cand.URL))
		return failed
	}
	e.log.Info("fallback extraction used", zap.String("url", cand.URL), zap.Int("chars", len(text)))
	return models.ExtractedSource{
		SourceCandidate: cand,
		Text:            truncate(text, e.cfg.MaxSourceChars),
		Status:          models.ExtractionFallback,
	}
}

// fetch retrieves the URL with the per-fetch timeout and size cap applied.
func (e *Extractor) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > e.cfg.MaxBodyBytes {
		return nil, "", fmt.Errorf("body exceeds %d bytes", e.cfg.MaxBodyBytes)
	}
	return body, strings.ToLower(resp.Header.Get("Content-Type")), nil
}

// readable runs the article-tuned extraction and reports whether its output
// meets the minimum usable length.
func (e *Extractor) readable(body []byte, rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return "", false
	}
	text := strings.TrimSpace(article.TextContent)
	if len(text) < e.cfg.MinUsableChars {
		return "", false
	}
	return text, true
}

// fallbackExtract strips navigation, script, and style nodes and joins
// paragraph text, preferring the first content container with a substantial
// amount of text.
func fallbackExtract(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, nav, header, footer, aside").Remove()

	for _, sel := range fallbackContainers {
		text := joinParagraphs(doc.Find(sel).First())
		if len(text) > 200 {
			return text, nil
		}
	}
	return joinParagraphs(doc.Selection), nil
}

func joinParagraphs(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	var parts []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		if t := strings.TrimSpace(p.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " ")
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := s[:max]
	for !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
