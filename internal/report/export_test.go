package report

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skimlab/deepresearch/internal/models"
)

func TestSplitBlocks(t *testing.T) {
	raw := "# Title\n\nFirst line\nsecond line\n\n* bullet one\n- bullet two\n1. numbered\n\n### Sub\nTail."
	blocks := splitBlocks(raw)

	require.Equal(t, []block{
		{kind: blockHeading, level: 1, text: "Title"},
		{kind: blockParagraph, text: "First line second line"},
		{kind: blockBullet, text: "bullet one"},
		{kind: blockBullet, text: "bullet two"},
		{kind: blockNumbered, text: "numbered"},
		{kind: blockHeading, level: 3, text: "Sub"},
		{kind: blockParagraph, text: "Tail."},
	}, blocks)
}

func TestSplitBlocksCapsHeadingLevel(t *testing.T) {
	blocks := splitBlocks("##### Deep heading")
	require.Len(t, blocks, 1)
	require.Equal(t, 3, blocks[0].level)
}

func TestStripInlineMarkup(t *testing.T) {
	require.Equal(t, "bold and italic", stripInlineMarkup("**bold** and *italic*"))
}

func deepReport() *models.Report {
	return &models.Report{
		ID:        "r1",
		Query:     "ocean acidification effects",
		Depth:     models.DepthDeep,
		AnswerRaw: "# Abstract\n\nOceans absorb CO2 [1].\n\n## Findings\n\n* pH decline [2]\n\nConclusion text.",
		Sources: []models.SourceRef{
			{ID: 1, Title: "NOAA Ocean Report", URL: "https://example.com/noaa"},
			{ID: 2, Title: "Reef Survey", URL: "https://example.com/reef"},
		},
	}
}

func quickReport() *models.Report {
	r := deepReport()
	r.Depth = models.DepthQuick
	r.Sources[0].TextPreview = "Oceans absorb roughly a third of emitted CO2"
	return r
}

func docxDocumentXML(t *testing.T, data []byte) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			content, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(content)
		}
	}
	t.Fatal("word/document.xml not found")
	return ""
}

func TestBuildDOCXDeterministic(t *testing.T) {
	first, err := BuildDOCX(deepReport())
	require.NoError(t, err)
	second, err := BuildDOCX(deepReport())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestBuildDOCXSourcesSectionByDepth(t *testing.T) {
	deep, err := BuildDOCX(deepReport())
	require.NoError(t, err)
	deepXML := docxDocumentXML(t, deep)
	require.Contains(t, deepXML, "References")
	require.Contains(t, deepXML, "https://example.com/noaa")

	quick, err := BuildDOCX(quickReport())
	require.NoError(t, err)
	quickXML := docxDocumentXML(t, quick)
	require.Contains(t, quickXML, "Sources Cited")
	require.NotContains(t, quickXML, "https://example.com/noaa")
}

func TestBuildDOCXBodyContent(t *testing.T) {
	data, err := BuildDOCX(deepReport())
	require.NoError(t, err)
	xml := docxDocumentXML(t, data)
	require.Contains(t, xml, "Abstract")
	require.Contains(t, xml, "Oceans absorb CO2 [1].")
	require.Contains(t, xml, "ocean acidification effects")
}

func TestBuildPDFDeterministic(t *testing.T) {
	first, err := BuildPDF(deepReport())
	require.NoError(t, err)
	second, err := BuildPDF(deepReport())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.True(t, bytes.HasPrefix(first, []byte("%PDF")))
}

func TestBuildPDFQuickAndDeepDiffer(t *testing.T) {
	deep, err := BuildPDF(deepReport())
	require.NoError(t, err)
	quick, err := BuildPDF(quickReport())
	require.NoError(t, err)
	require.NotEqual(t, deep, quick)
}

func TestAssembleStoresReport(t *testing.T) {
	ctx := context.Background()
	a := NewAssembler(NewMemoryStore(10, time.Hour), zap.NewNop())

	r, err := a.Assemble(ctx, "q", models.DepthQuick, "raw", "<p>html</p>", nil)
	require.NoError(t, err)
	require.NotEmpty(t, r.ID)

	art, err := a.Export(ctx, r.ID, FormatDOCX)
	require.NoError(t, err)
	require.Equal(t, "Research_Report_q.docx", art.Filename)
	require.NotEmpty(t, art.Data)
}

func TestExportUnknownReport(t *testing.T) {
	a := NewAssembler(NewMemoryStore(10, time.Hour), zap.NewNop())
	_, err := a.Export(context.Background(), "nope", FormatPDF)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestExportUnknownFormat(t *testing.T) {
	ctx := context.Background()
	a := NewAssembler(NewMemoryStore(10, time.Hour), zap.NewNop())
	r, err := a.Assemble(ctx, "q", models.DepthQuick, "raw", "", nil)
	require.NoError(t, err)

	_, err = a.Export(ctx, r.ID, "xlsx")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestQuerySlug(t *testing.T) {
	require.Equal(t, "coral_bleaching", querySlug("coral bleaching"))
	require.Equal(t, "report", querySlug("???"))
	require.LessOrEqual(t, len(querySlug("a very long query that keeps going and going forever")), 30)
}
