package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skimlab/deepresearch/internal/config"
	"github.com/skimlab/deepresearch/internal/models"
)

func testConfig() config.ExtractConfig {
	return config.ExtractConfig{
		FetchTimeout:   2 * time.Second,
		MinInterval:    0,
		MaxConcurrent:  4,
		MaxSourceChars: 15000,
		MaxBodyBytes:   7_000_000,
		MinUsableChars: 100,
	}
}

func articlePage() string {
	para := strings.Repeat("Coral bleaching happens when heat-stressed corals expel their symbiotic algae. ", 10)
	return fmt.Sprintf(`<html><head><title>Reef article</title></head><body>
<article><h1>Bleaching</h1><p>%s</p><p>%s</p></article>
</body></html>`, para, para)
}

func TestExtractAllIsolatesFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/good":
			fmt.Fprint(w, articlePage())
		case "/missing":
			http.NotFound(w, r)
		case "/binary":
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write([]byte{0x00, 0x01})
		default:
			fmt.Fprint(w, "<html><body><p>tiny</p></body></html>")
		}
	}))
	defer srv.Close()

	e := New(testConfig(), zap.NewNop())
	candidates := []models.SourceCandidate{
		{URL: srv.URL + "/good", Title: "good"},
		{URL: srv.URL + "/missing", Title: "missing"},
		{URL: srv.URL + "/binary", Title: "binary"},
		{URL: srv.URL + "/thin", Title: "thin"},
	}

	got := e.ExtractAll(context.Background(), candidates)
	require.Len(t, got, 4)

	// candidate order, not completion order
	require.Equal(t, "good", got[0].Title)
	require.NotEqual(t, models.ExtractionFailed, got[0].Status)
	require.GreaterOrEqual(t, len(got[0].Text), 100)

	for _, failed := range got[1:] {
		require.Equal(t, models.ExtractionFailed, failed.Status)
		require.Empty(t, failed.Text)
		require.NotEmpty(t, failed.Title, "title kept for display on failure")
	}
}

func TestExtractTruncatesOversizeText(t *testing.T) {
	long := strings.Repeat("evidence ", 4000) // ~36k chars
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><article><p>%s</p></article></body></html>`, long)
	}))
	defer srv.Close()

	e := New(testConfig(), zap.NewNop())
	got := e.ExtractAll(context.Background(), []models.SourceCandidate{{URL: srv.URL}})
	require.NotEqual(t, models.ExtractionFailed, got[0].Status)
	require.LessOrEqual(t, len(got[0].Text), 15000)
}

func TestExtractRespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak int64
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := atomic.AddInt64(&inFlight, 1)
		mu.Lock()
		if cur > peak {
			peak = cur
		}
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		fmt.Fprint(w, articlePage())
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxConcurrent = 2
	e := New(cfg, zap.NewNop())

	candidates := make([]models.SourceCandidate, 6)
	for i := range candidates {
		candidates[i] = models.SourceCandidate{URL: fmt.Sprintf("%s/p%d", srv.URL, i)}
	}
	e.ExtractAll(context.Background(), candidates)

	mu.Lock()
	defer mu.Unlock()
	require.LessOrEqual(t, peak, int64(2))
}

func TestFallbackExtractPrefersContentContainer(t *testing.T) {
	body := fmt.Sprintf(`<html><body>
<nav><p>navigation noise that should vanish</p></nav>
<div id="content"><p>%s</p></div>
<footer><p>footer noise</p></footer>
</body></html>`, strings.Repeat("real content sentence. ", 20))

	text, err := fallbackExtract([]byte(body))
	require.NoError(t, err)
	require.Contains(t, text, "real content sentence.")
	require.NotContains(t, text, "navigation noise")
	require.NotContains(t, text, "footer noise")
}

func TestTruncateRuneSafe(t *testing.T) {
	s := strings.Repeat("é", 10)
	out := truncate(s, 11)
	require.LessOrEqual(t, len(out), 11)
	require.True(t, strings.HasPrefix(s, out))
}
