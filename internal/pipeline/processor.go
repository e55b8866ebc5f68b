package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nature-catalyst/impact-intake/internal/extract"
	"github.com/nature-catalyst/impact-intake/internal/intake"
	"github.com/nature-catalyst/impact-intake/internal/llm"
	"github.com/nature-catalyst/impact-intake/internal/metrics"
)

// Submission is the entrepreneur-supplied context accompanying the files.
type Submission struct {
	ProjectName string
	Sector      string
	Country     string
}

// Result is everything the caller needs to render the enrichment form.
// Fields are always populated: real model output on success, the
// fill-manually fallback record on AI failure. AIFailure carries the
// human-readable reason when the fallback path was taken.
type Result struct {
	Warnings     []string
	CorpusFiles  int // blocks that made it into the corpus
	CorpusChars  int
	Truncated    bool
	Fields       llm.ProjectFields
	CorpusSample string
	Actions      []string
	AIFailure    string
	Blocking     bool // insufficient-text and malformed-JSON cases
}

// Processor runs the synchronous document pipeline:
// validate -> extract per file -> assemble corpus -> AI field extraction.
type Processor struct {
	validator *intake.Validator
	extractor *extract.Extractor
	fields    llm.FieldExtractor
	metrics   *metrics.Metrics
	log       *slog.Logger
}

func NewProcessor(v *intake.Validator, e *extract.Extractor, fe llm.FieldExtractor, m *metrics.Metrics, log *slog.Logger) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{validator: v, extractor: e, fields: fe, metrics: m, log: log}
}

// Process runs the full pipeline. Validation failures that reject the whole
// batch return an error; everything downstream degrades instead of failing,
// so a Result always comes back for a valid batch.
func (p *Processor) Process(ctx context.Context, files []intake.File, sub Submission) (Result, error) {
	start := time.Now()
	var res Result

	if p.metrics != nil {
		p.metrics.SubmissionsTotal.Inc()
	}

	batch, err := p.validator.ValidateBatch(files)
	if err != nil {
		return res, err
	}
	res.Warnings = append(res.Warnings, batch.Reasons...)
	res.Warnings = append(res.Warnings, batch.Warnings...)
	if p.metrics != nil {
		for range batch.Reasons {
			p.metrics.FilesRejected.Inc()
		}
	}

	// Files are processed one at a time in file order; extraction never
	// returns an error, only placeholder text.
	blocks := make([]string, 0, len(batch.Accepted))
	for _, f := range batch.Accepted {
		block := p.extractor.ExtractFile(ctx, f)
		if p.metrics != nil {
			p.metrics.ExtractionOutcomes.WithLabelValues(classifyBlock(block)).Inc()
		}
		blocks = append(blocks, block)
	}

	corpus := extract.AssembleCorpus(blocks, extract.MaxCorpusChars)
	res.CorpusFiles = corpus.Files
	res.CorpusChars = len(corpus.Text)
	res.Truncated = corpus.Truncated
	if p.metrics != nil {
		p.metrics.CorpusChars.Observe(float64(len(corpus.Text)))
	}
	if corpus.Thin() {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("extracted text is very short (%d chars); results may be incomplete", len(corpus.Text)))
	}

	out, _, err := p.fields.ExtractFields(ctx, llm.ExtractRequest{
		Corpus:      corpus.Text,
		ProjectName: sub.ProjectName,
		Sector:      sub.Sector,
		Country:     sub.Country,
	})
	res.CorpusSample = out.CorpusSample
	if res.CorpusSample == "" {
		res.CorpusSample = llm.Sample(corpus.Text)
	}

	if err != nil {
		res.Fields = llm.FallbackFields(sub.Sector, sub.Country)
		res.AIFailure = friendlyAIFailure(err)
		res.Blocking = errors.Is(err, llm.ErrInsufficientText) || errors.Is(err, llm.ErrMalformedResponse)
		p.observeAI(err)
		p.log.Warn("pipeline.ai_fallback", "error", err, "blocking", res.Blocking)
	} else {
		res.Fields = out.Fields
		res.Actions = out.Actions
		if p.metrics != nil {
			p.metrics.AIOutcomes.WithLabelValues(metrics.OutcomeOK).Inc()
		}
	}

	if p.metrics != nil {
		p.metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	}
	p.log.Info("pipeline.done",
		"files_in", len(files),
		"files_accepted", len(batch.Accepted),
		"corpus_chars", res.CorpusChars,
		"truncated", res.Truncated,
		"ai_failure", res.AIFailure != "",
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Processor) observeAI(err error) {
	if p.metrics == nil {
		return
	}
	switch {
	case errors.Is(err, llm.ErrInsufficientText):
		p.metrics.AIOutcomes.WithLabelValues(metrics.OutcomeInsufficient).Inc()
	case errors.Is(err, llm.ErrMalformedResponse):
		p.metrics.AIOutcomes.WithLabelValues(metrics.OutcomeError).Inc()
	default:
		p.metrics.AIOutcomes.WithLabelValues(metrics.OutcomeFallback).Inc()
	}
}

// classifyBlock buckets a per-file extraction result for metrics.
func classifyBlock(block string) string {
	switch {
	case block == "":
		return metrics.OutcomeInsufficient
	case strings.HasPrefix(block, "[File:"):
		return metrics.OutcomePlaceholder
	case strings.Contains(block, "(Fallback Extraction)"):
		return metrics.OutcomeFallback
	default:
		return metrics.OutcomeOK
	}
}

// friendlyAIFailure maps raw errors to the messages shown to the submitter.
func friendlyAIFailure(err error) string {
	msg := err.Error()
	switch {
	case errors.Is(err, llm.ErrInsufficientText):
		return "Insufficient text content extracted from documents. Please check file formats or fill the form manually."
	case errors.Is(err, llm.ErrMalformedResponse):
		return "AI returned an unreadable response. Please review the extracted fields and fill in manually."
	case strings.Contains(msg, "context length"), strings.Contains(msg, "maximum context"):
		return "Documents too large for AI processing. Please try with smaller files."
	default:
		return "AI extraction failed. You can still complete the form manually."
	}
}
