package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_pipeline_runs_total",
			Help: "Total pipeline runs by depth and outcome",
		},
		[]string{"depth", "outcome"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "research_stage_duration_seconds",
			Help: "Duration of each pipeline stage in seconds",
		},
		[]string{"stage"},
	)

	FetchResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_fetch_results_total",
			Help: "Content fetch outcomes by extraction status",
		},
		[]string{"status"},
	)

	ReportExports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_report_exports_total",
			Help: "Report exports by format and outcome",
		},
		[]string{"format", "outcome"},
	)
)
