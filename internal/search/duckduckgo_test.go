package search_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skimlab/deepresearch/internal/search"
)

const resultsPage = `<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.org%2Freefs&amp;rut=abc">Coral reefs explained</a>
  <a class="result__snippet">Reefs bleach when stressed.</a>
</div>
<div class="result">
  <a class="result__a" href="https://example.com/direct">Direct link</a>
  <a class="result__snippet">A direct result.</a>
</div>
<div class="result">
  <a class="result__a" href="https://example.com/direct">Duplicate link</a>
</div>
<div class="result">
  <span class="result__title">No link here</span>
</div>
</body></html>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *search.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return search.NewClient(srv.URL, 2*time.Second, zap.NewNop())
}

func TestSearchParsesResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "coral reef bleaching", r.URL.Query().Get("q"))
		io.WriteString(w, resultsPage)
	})

	got, err := c.Search(context.Background(), "coral reef bleaching", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, "https://example.org/reefs", got[0].URL)
	require.Equal(t, "Coral reefs explained", got[0].Title)
	require.Equal(t, "Reefs bleach when stressed.", got[0].Snippet)
	require.Equal(t, "https://example.com/direct", got[1].URL)
}

func TestSearchHonorsLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 5; i++ {
			fmt.Fprintf(w, `<div class="result"><a class="result__a" href="https://example.com/p%d">P%d</a></div>`, i, i)
		}
	})

	got, err := c.Search(context.Background(), "anything", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestSearchNoResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body></body></html>`)
	})

	_, err := c.Search(context.Background(), "nothing", 10)
	require.ErrorIs(t, err, search.ErrNoResults)
}

func TestSearchRetriesOnServerError(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, resultsPage)
	})

	got, err := c.Search(context.Background(), "retry me", 10)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.NotEmpty(t, got)
}

func TestSearchGivesUpAfterOneRetry(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Search(context.Background(), "always failing", 10)
	require.Error(t, err)
	require.Equal(t, 2, calls)
}
