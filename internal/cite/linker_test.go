package cite_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skimlab/deepresearch/internal/cite"
)

func TestTokenizeRoundTrips(t *testing.T) {
	inputs := []string{
		"plain text without markers",
		"claim [1] and more [2].",
		"array[0] stays literal",
		"[1][2] adjacent",
		"not a marker [abc] here",
		"trailing [3",
	}
	for _, in := range inputs {
		var sb strings.Builder
		for _, tok := range cite.Tokenize(in) {
			sb.WriteString(tok.Text)
		}
		require.Equal(t, in, sb.String(), "tokens must reproduce input: %q", in)
	}
}

func TestTokenizeBoundaries(t *testing.T) {
	toks := cite.Tokenize("evidence [1], pixels[2], ![3](img), [[4]]")
	var markers []int
	for _, tok := range toks {
		if tok.Kind == cite.TokenMarker {
			markers = append(markers, tok.Index)
		}
	}
	require.Equal(t, []int{1}, markers)
}

func TestSplitCombined(t *testing.T) {
	require.Equal(t, "[1] [2]", cite.SplitCombined("[1, 2]"))
	require.Equal(t, "[1] [2] [3]", cite.SplitCombined("[1,2,3]"))
	require.Equal(t, "[1] [2]", cite.SplitCombined("[1][2]"))
	require.Equal(t, "[4]", cite.SplitCombined("[4]"))
	require.Equal(t, "plain", cite.SplitCombined("plain"))
}

func TestRenderLinksValidMarkers(t *testing.T) {
	html, err := cite.Render("Reefs bleach under heat stress [1].", 3)
	require.NoError(t, err)
	require.Contains(t, html, `data-citation-index="0"`)
	require.Contains(t, html, `aria-label="Citation 1"`)
	require.Contains(t, html, `>[1]</a></sup>`)
	require.NotContains(t, html, " [1].") // marker itself replaced
}

func TestRenderLeavesOutOfRangeMarkers(t *testing.T) {
	html, err := cite.Render("Claim [2] and bogus [9].", 2)
	require.NoError(t, err)
	require.Contains(t, html, `data-citation-index="1"`)
	require.Contains(t, html, "[9]")
	require.NotContains(t, html, `aria-label="Citation 9"`)
}

func TestRenderAdjacentMarkersResolveIndependently(t *testing.T) {
	html, err := cite.Render("Combined evidence [1][2].", 2)
	require.NoError(t, err)
	require.Contains(t, html, `aria-label="Citation 1"`)
	require.Contains(t, html, `aria-label="Citation 2"`)
}

func TestRenderCombinedMarkers(t *testing.T) {
	html, err := cite.Render("Several studies agree [1, 3].", 3)
	require.NoError(t, err)
	require.Contains(t, html, `aria-label="Citation 1"`)
	require.Contains(t, html, `aria-label="Citation 3"`)
}

func TestRenderIdempotentOnCleanText(t *testing.T) {
	first, err := cite.Render("## Heading\n\nNo markers here, just *emphasis*.", 5)
	require.NoError(t, err)
	second := cite.LinkCitations(first, 5)
	require.Equal(t, first, second)
}

func TestLinkCitationsIdempotentOnLinkedOutput(t *testing.T) {
	first, err := cite.Render("Claim [1] and claim [2].", 2)
	require.NoError(t, err)
	second := cite.LinkCitations(first, 2)
	require.Equal(t, first, second)
	require.Equal(t, 2, strings.Count(second, "<sup>"))
}

func TestRenderEscapesRawMarkup(t *testing.T) {
	html, err := cite.Render("hello <script>alert(1)</script> [1]", 1)
	require.NoError(t, err)
	require.NotContains(t, html, "<script>")
}

func TestRenderMarkdownStructure(t *testing.T) {
	html, err := cite.Render("# Title\n\n* item one\n* item two\n\nPara.", 0)
	require.NoError(t, err)
	require.Contains(t, html, "<h1>")
	require.Contains(t, html, "<li>")
	require.Contains(t, html, "<p>")
}

func TestRenderManyMarkers(t *testing.T) {
	var md strings.Builder
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&md, "Point %d [%d]. ", i, i)
	}
	html, err := cite.Render(md.String(), 7)
	require.NoError(t, err)
	for i := 1; i <= 7; i++ {
		require.Contains(t, html, fmt.Sprintf(`aria-label="Citation %d"`, i))
	}
	for i := 8; i <= 10; i++ {
		require.Contains(t, html, fmt.Sprintf("[%d]", i))
		require.NotContains(t, html, fmt.Sprintf(`aria-label="Citation %d"`, i))
	}
}
