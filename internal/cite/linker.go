package cite

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// markdown is the shared converter. Raw HTML passthrough stays disabled so
// model-supplied markup never reaches the document unescaped.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Footnote),
)

// Render converts the synthesized markdown to HTML with every valid [n]
// marker replaced by an interactive citation element bound to a source
// index in 1..k. Out-of-range and malformed markers are left as literal
// text; text with no markers passes through unchanged.
func Render(md string, k int) (string, error) {
	html, err := RenderMarkdown(SplitCombined(md))
	if err != nil {
		return "", err
	}
	return LinkCitations(html, k), nil
}

// RenderMarkdown converts markdown structure (headings, lists, emphasis,
// tables, paragraphs) to HTML.
func RenderMarkdown(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// LinkCitations resolves marker tokens in the HTML's text segments.
// Markup segments pass through untouched, and text inside an existing
// citation anchor is skipped, which makes the transformation idempotent.
func LinkCitations(html string, k int) string {
	var out strings.Builder
	out.Grow(len(html))

	inCitation := false
	for i := 0; i < len(html); {
		if html[i] == '<' {
			end := strings.IndexByte(html[i:], '>')
			if end < 0 {
				out.WriteString(html[i:])
				break
			}
			tag := html[i : i+end+1]
			if strings.Contains(tag, `class="citation-marker"`) {
				inCitation = true
			} else if inCitation && strings.HasPrefix(tag, "</a") {
				inCitation = false
			}
			out.WriteString(tag)
			i += end + 1
			continue
		}

		next := strings.IndexByte(html[i:], '<')
		var text string
		if next < 0 {
			text = html[i:]
			i = len(html)
		} else {
			text = html[i : i+next]
			i += next
		}
		if inCitation {
			out.WriteString(text)
			continue
		}
		writeResolved(&out, text, k)
	}
	return out.String()
}

func writeResolved(out *strings.Builder, text string, k int) {
	for _, tok := range Tokenize(text) {
		if tok.Kind == TokenMarker && tok.Index >= 1 && tok.Index <= k {
			fmt.Fprintf(out,
				`<sup><a href="#" class="citation-marker" data-citation-index="%d" aria-label="Citation %d">[%d]</a></sup>`,
				tok.Index-1, tok.Index, tok.Index)
			continue
		}
		out.WriteString(tok.Text)
	}
}
