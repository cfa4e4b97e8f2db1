package report

import (
	"bytes"
	"fmt"

	"github.com/fumiama/go-docx"

	"github.com/skimlab/deepresearch/internal/models"
)

// Heading sizes are half-points, so "32" renders at 16pt.
var docxHeadingSizes = map[int]string{1: "32", 2: "28", 3: "24"}

// BuildDOCX renders the stored report as a Word document. The body is laid
// out by walking the raw markdown answer, not the HTML, so citation markers
// stay as plain [n] text.
func BuildDOCX(r *models.Report) ([]byte, error) {
	w := docx.New().WithDefaultTheme()

	w.AddParagraph().AddText("Research Report").Size("40").Bold()
	p := w.AddParagraph()
	p.AddText("Query: ").Bold()
	p.AddText(r.Query)
	w.AddParagraph()

	for _, b := range splitBlocks(r.AnswerRaw) {
		text := stripInlineMarkup(b.text)
		switch b.kind {
		case blockHeading:
			size, ok := docxHeadingSizes[b.level]
			if !ok {
				size = docxHeadingSizes[3]
			}
			w.AddParagraph().AddText(text).Size(size).Bold()
		case blockBullet:
			w.AddParagraph().AddText("• " + text)
		case blockNumbered:
			w.AddParagraph().AddText(text)
		case blockParagraph:
			w.AddParagraph().AddText(text)
		}
	}

	w.AddParagraph().AddPageBreaks()
	deep := r.Depth == models.DepthDeep
	w.AddParagraph().AddText(sourcesHeading(deep)).Size("32").Bold()
	if len(r.Sources) == 0 {
		w.AddParagraph().AddText("No sources were cited.")
	}
	for _, src := range r.Sources {
		p := w.AddParagraph()
		p.AddText(fmt.Sprintf("[%d] ", src.ID)).Bold()
		p.AddText(src.Title)
		if deep && src.URL != "" {
			p.AddText(fmt.Sprintf(" (%s)", src.URL))
		}
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}
