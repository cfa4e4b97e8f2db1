package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skimlab/deepresearch/internal/models"
	"github.com/skimlab/deepresearch/internal/observability"
)

// ErrUnknownFormat is returned by Export for formats other than docx and pdf.
var ErrUnknownFormat = errors.New("unknown export format")

const (
	FormatDOCX = "docx"
	FormatPDF  = "pdf"
)

// Artifact is one generated download.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Assembler stamps finished answers into stored reports and builds export
// artifacts from them on demand.
type Assembler struct {
	store Store
	log   *zap.Logger
}

func NewAssembler(store Store, log *zap.Logger) *Assembler {
	return &Assembler{store: store, log: log}
}

// Assemble assigns a fresh id, persists the report, and returns it.
func (a *Assembler) Assemble(ctx context.Context, query string, depth models.Depth, answerRaw, answerHTML string, sources []models.SourceRef) (*models.Report, error) {
	r := &models.Report{
		ID:         uuid.NewString(),
		Query:      query,
		Depth:      depth,
		AnswerRaw:  answerRaw,
		AnswerHTML: answerHTML,
		Sources:    sources,
	}
	if err := a.store.Put(ctx, r); err != nil {
		return nil, fmt.Errorf("store report: %w", err)
	}
	a.log.Info("report stored",
		zap.String("report_id", r.ID),
		zap.String("depth", string(depth)),
		zap.Int("sources", len(sources)))
	return r, nil
}

// Export builds a download for the stored report. Generation failures leave
// the stored report untouched; a later retry can succeed.
func (a *Assembler) Export(ctx context.Context, id, format string) (*Artifact, error) {
	r, err := a.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		data        []byte
		contentType string
	)
	switch format {
	case FormatDOCX:
		data, err = BuildDOCX(r)
		contentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatPDF:
		data, err = BuildPDF(r)
		contentType = "application/pdf"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		observability.ReportExports.WithLabelValues(format, "error").Inc()
		a.log.Error("export failed", zap.String("report_id", id), zap.String("format", format), zap.Error(err))
		return nil, err
	}
	observability.ReportExports.WithLabelValues(format, "ok").Inc()

	return &Artifact{
		Filename:    fmt.Sprintf("Research_Report_%s.%s", querySlug(r.Query), format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// querySlug turns the query into a short filename-safe fragment.
func querySlug(query string) string {
	var b strings.Builder
	for _, c := range query {
		if b.Len() >= 30 {
			break
		}
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		} else {
			b.WriteByte('_')
		}
	}
	slug := strings.Trim(b.String(), "_")
	if slug == "" {
		return "report"
	}
	return slug
}
