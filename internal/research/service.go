package research

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/skimlab/deepresearch/internal/cite"
	"github.com/skimlab/deepresearch/internal/config"
	"github.com/skimlab/deepresearch/internal/models"
	"github.com/skimlab/deepresearch/internal/observability"
	"github.com/skimlab/deepresearch/internal/report"
	"github.com/skimlab/deepresearch/internal/selector"
)

// Searcher finds source candidates for a query.
type Searcher interface {
	Search(ctx context.Context, query string, n int) ([]models.SourceCandidate, error)
}

// ContentExtractor fetches and extracts text from every candidate.
type ContentExtractor interface {
	ExtractAll(ctx context.Context, candidates []models.SourceCandidate) []models.ExtractedSource
}

// AnswerSynthesizer turns selected sources into a markdown answer.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, query string, depth models.Depth, sources []models.SelectedSource) (string, error)
}

// ReportAssembler stores finished reports and builds downloads from them.
type ReportAssembler interface {
	Assemble(ctx context.Context, query string, depth models.Depth, answerRaw, answerHTML string, sources []models.SourceRef) (*models.Report, error)
	Export(ctx context.Context, id, format string) (*report.Artifact, error)
}

// RunResult is the outcome of one successful pipeline run.
type RunResult struct {
	AnswerHTML string
	Sources    []models.SourceRef
	ReportID   string
	Depth      models.Depth
}

// Service sequences the pipeline: discovery, extraction, selection,
// synthesis, citation linking, report assembly.
type Service struct {
	search  Searcher
	extract ContentExtractor
	synth   AnswerSynthesizer
	reports ReportAssembler
	cfg     *config.Config
	log     *zap.Logger
}

func NewService(search Searcher, extract ContentExtractor, synth AnswerSynthesizer, reports ReportAssembler, cfg *config.Config, log *zap.Logger) *Service {
	return &Service{
		search:  search,
		extract: extract,
		synth:   synth,
		reports: reports,
		cfg:     cfg,
		log:     log,
	}
}

// Run executes the pipeline for one query. Errors are typed per stage so the
// transport layer can map them without string matching.
func (s *Service) Run(ctx context.Context, query string, depth models.Depth) (*RunResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidInput
	}
	deep := depth == models.DepthDeep

	res, err := s.run(ctx, query, depth, deep)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.PipelineRuns.WithLabelValues(string(depth), outcome).Inc()
	return res, err
}

func (s *Service) run(ctx context.Context, query string, depth models.Depth, deep bool) (*RunResult, error) {
	log := s.log.With(zap.String("query", query), zap.String("depth", string(depth)))

	n := s.cfg.Search.QuickResults
	if deep {
		n = s.cfg.Search.DeepResults
	}
	stop := stageTimer("discovery")
	candidates, err := s.search.Search(ctx, query, n)
	stop()
	if err != nil {
		log.Warn("discovery failed", zap.Error(err))
		return nil, &DiscoveryError{Err: err}
	}
	log.Info("discovery done", zap.Int("candidates", len(candidates)))

	stop = stageTimer("extraction")
	extracted := s.extract.ExtractAll(ctx, candidates)
	stop()

	quota := s.cfg.Selection.Quota(deep)
	selected, err := selector.Select(extracted, quota, s.cfg.Selection.MinUsableChars)
	if err != nil {
		log.Warn("no usable sources", zap.Int("candidates", len(candidates)))
		return nil, &ExtractionError{Err: err}
	}
	log.Info("selection done", zap.Int("selected", len(selected)), zap.Int("quota", quota))

	refs := s.sourceRefs(selected, deep)

	stop = stageTimer("synthesis")
	answer, err := s.synth.Synthesize(ctx, query, depth, selected)
	stop()
	if err != nil {
		log.Error("synthesis failed", zap.Error(err))
		return nil, &SynthesisError{Err: err, Sources: refs}
	}

	html, err := cite.Render(answer, len(selected))
	if err != nil {
		log.Error("citation linking failed", zap.Error(err))
		return nil, &SynthesisError{Err: err, Sources: refs}
	}

	rep, err := s.reports.Assemble(ctx, query, depth, answer, html, refs)
	if err != nil {
		return nil, err
	}

	return &RunResult{
		AnswerHTML: html,
		Sources:    refs,
		ReportID:   rep.ID,
		Depth:      depth,
	}, nil
}

// Export builds a download artifact for a stored report.
func (s *Service) Export(ctx context.Context, id, format string) (*report.Artifact, error) {
	return s.reports.Export(ctx, id, format)
}

// sourceRefs maps selected sources onto their boundary shape. Quick runs get
// a text preview; deep runs omit it.
func (s *Service) sourceRefs(selected []models.SelectedSource, deep bool) []models.SourceRef {
	refs := make([]models.SourceRef, 0, len(selected))
	for _, src := range selected {
		ref := models.SourceRef{
			ID:    src.Index,
			Title: src.Title,
			URL:   src.URL,
		}
		if !deep {
			ref.TextPreview = preview(src.Text, s.cfg.Selection.PreviewChars)
		}
		refs = append(refs, ref)
	}
	return refs
}

func preview(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

func stageTimer(stage string) func() {
	start := time.Now()
	return func() {
		observability.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
