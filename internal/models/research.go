package models

// Depth selects the research mode: a short synthesized answer or a full
// structured article. It controls the source quota and the prompt shape.
type Depth string

const (
	DepthQuick Depth = "quick"
	DepthDeep  Depth = "deep"
)

// ParseDepth maps the wire value onto a Depth. The second return is false
// for unrecognized values.
func ParseDepth(s string) (Depth, bool) {
	switch Depth(s) {
	case DepthQuick, DepthDeep:
		return Depth(s), true
	}
	return "", false
}

// ExtractionStatus is the per-source outcome of the content-fetch stage.
type ExtractionStatus string

const (
	ExtractionSuccess  ExtractionStatus = "success"
	ExtractionFallback ExtractionStatus = "fallback"
	ExtractionFailed   ExtractionStatus = "failed"
)

// SourceCandidate is one search hit, immutable after discovery.
// URL is the unique key within a run.
type SourceCandidate struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// ExtractedSource is a candidate after the fetch attempt. Text is empty when
// Status is ExtractionFailed; title and URL are kept for display either way.
type ExtractedSource struct {
	SourceCandidate
	Text   string           `json:"text"`
	Status ExtractionStatus `json:"status"`
}

// Usable reports whether the source carries enough text to cite.
func (s ExtractedSource) Usable(minLen int) bool {
	return s.Status != ExtractionFailed && len(s.Text) >= minLen
}

// SelectedSource is an extracted source that survived selection and was
// assigned a citation index. Indices are 1-based, contiguous, and ordered:
// they are the only join key between the document and the source list.
type SelectedSource struct {
	ExtractedSource
	Index int `json:"index"`
}

// SourceRef is the boundary shape of one selected source. TextPreview is
// populated for quick runs only; the underlying data is depth-agnostic.
type SourceRef struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	TextPreview string `json:"text_preview,omitempty"`
}

// Report is the persisted bundle addressable by identifier for later export.
// It is read-only after insertion into the store.
type Report struct {
	ID         string      `json:"id"`
	Query      string      `json:"query"`
	Depth      Depth       `json:"depth"`
	AnswerRaw  string      `json:"answer_raw"`
	AnswerHTML string      `json:"answer_html"`
	Sources    []SourceRef `json:"sources"`
}

// ResearchRequest is the JSON body for POST /api/research.
type ResearchRequest struct {
	Query string `json:"query"`
	Depth string `json:"depth"`
}

// ResearchResponse is the success payload for POST /api/research.
type ResearchResponse struct {
	AnswerHTML    string      `json:"answer_html"`
	Sources       []SourceRef `json:"sources"`
	ReportID      string      `json:"report_id"`
	ResearchDepth string      `json:"research_depth"`
}
