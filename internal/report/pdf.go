package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/skimlab/deepresearch/internal/models"
)

var pdfHeadingSizes = map[int]float64{1: 16, 2: 14, 3: 12}

// BuildPDF renders the stored report as a PDF. Creation and modification
// dates are pinned to the zero time so exporting the same report twice
// produces byte-identical files.
func BuildPDF(r *models.Report) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(time.Time{})
	pdf.SetModificationDate(time.Time{})
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 6, "Research Report", "", 1, "L", false, 0, "")
		pdf.Ln(2)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 9, tr("Research Report"), "", "L", false)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.MultiCell(0, 6, tr("Query: "+r.Query), "", "L", false)
	pdf.Ln(4)

	for _, b := range splitBlocks(r.AnswerRaw) {
		text := tr(stripInlineMarkup(b.text))
		switch b.kind {
		case blockHeading:
			size, ok := pdfHeadingSizes[b.level]
			if !ok {
				size = pdfHeadingSizes[3]
			}
			pdf.Ln(2)
			pdf.SetFont("Helvetica", "B", size)
			pdf.MultiCell(0, 7, text, "", "L", false)
			pdf.Ln(1)
		case blockBullet:
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, "- "+text, "", "L", false)
		case blockNumbered:
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, text, "", "L", false)
		case blockParagraph:
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, text, "", "L", false)
			pdf.Ln(2)
		}
	}

	pdf.AddPage()
	deep := r.Depth == models.DepthDeep
	pdf.SetFont("Helvetica", "B", 14)
	pdf.MultiCell(0, 7, tr(sourcesHeading(deep)), "", "L", false)
	pdf.Ln(2)
	if len(r.Sources) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, "No sources were cited.", "", "L", false)
	}
	for _, src := range r.Sources {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("[%d] %s", src.ID, src.Title)), "", "L", false)
		pdf.SetFont("Helvetica", "", 8)
		if deep {
			if src.URL != "" {
				pdf.MultiCell(0, 4, tr("("+src.URL+")"), "", "L", false)
			}
		} else {
			if src.URL != "" {
				pdf.MultiCell(0, 4, tr(src.URL), "", "L", false)
			}
			if src.TextPreview != "" {
				pdf.SetTextColor(85, 85, 85)
				pdf.MultiCell(0, 4, tr(src.TextPreview+"..."), "", "L", false)
				pdf.SetTextColor(0, 0, 0)
			}
		}
		pdf.Ln(2)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
