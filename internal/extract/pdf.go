package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
	"go.uber.org/zap"
)

// PDFExtractor pulls page text out of application/pdf responses.
type PDFExtractor struct {
	log *zap.Logger
}

// NewPDFExtractor registers the UniPDF metered license key and returns a
// PDF text extractor. With an empty or rejected key, extraction attempts
// will fail per source and the pipeline continues without them.
func NewPDFExtractor(licenseKey string, log *zap.Logger) *PDFExtractor {
	if err := license.SetMeteredKey(licenseKey); err != nil {
		log.Warn("unidoc license key rejected, PDF sources will fail", zap.Error(err))
	}
	return &PDFExtractor{log: log}
}

// Extract concatenates the text of every page in the document.
func (p *PDFExtractor) Extract(data []byte) (string, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("count pdf pages: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			return "", fmt.Errorf("get pdf page %d: %w", i, err)
		}
		ex, err := extractor.New(page)
		if err != nil {
			return "", fmt.Errorf("extractor for page %d: %w", i, err)
		}
		text, err := ex.ExtractText()
		if err != nil {
			return "", fmt.Errorf("extract text from page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String()), nil
}
