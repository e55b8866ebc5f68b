package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the intake service.
type Metrics struct {
	SubmissionsTotal   prometheus.Counter
	FilesRejected      prometheus.Counter
	ExtractionOutcomes *prometheus.CounterVec
	AIOutcomes         *prometheus.CounterVec
	CorpusChars        prometheus.Histogram
	PipelineDuration   prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SubmissionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "impact_intake_submissions_total",
			Help: "Total number of project submissions accepted",
		}),
		FilesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "impact_intake_files_rejected_total",
			Help: "Total number of uploaded files rejected by validation",
		}),
		ExtractionOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "impact_intake_extraction_outcomes_total",
			Help: "Per-file text extraction outcomes by result class",
		}, []string{"outcome"}),
		AIOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "impact_intake_ai_outcomes_total",
			Help: "AI field extraction outcomes by result class",
		}, []string{"outcome"}),
		CorpusChars: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "impact_intake_corpus_chars",
			Help:    "Assembled corpus size in characters",
			Buckets: prometheus.ExponentialBuckets(500, 4, 8),
		}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "impact_intake_pipeline_duration_seconds",
			Help:    "End-to-end document pipeline duration",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Extraction outcome labels.
const (
	OutcomeOK           = "ok"
	OutcomeFallback     = "fallback"
	OutcomePlaceholder  = "placeholder"
	OutcomeInsufficient = "insufficient_text"
	OutcomeError        = "error"
)
