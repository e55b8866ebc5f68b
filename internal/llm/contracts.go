package llm

import (
	"context"
	"errors"
)

// ProjectFields is the normalized shape we want from the model.
type ProjectFields struct {
	BusinessModel string   `json:"businessModel"`
	MaturityStage string   `json:"maturityStage"` // must be a known stage
	Region        string   `json:"region"`        // must be a known region
	MainCountry   string   `json:"mainCountry"`
	Instrument    string   `json:"instrument"` // must be a known instrument
	CoreTeam      string   `json:"coreTeam"`
	ImpactArea    string   `json:"impactArea"`
	KeyRisks      string   `json:"keyRisks"`
	Barriers      string   `json:"barriers"`
	Revenues      float64  `json:"revenues"`
	Breakeven     float64  `json:"breakeven"` // year
	MarketSize    float64  `json:"marketSize"`
	ExpectedIRR   float64  `json:"expectedIRR"`
	FinancingNeed float64  `json:"financingNeed"`
	UseOfProceeds string   `json:"useOfProceeds"`
	SDGs          []string `json:"sdgs"` // vocabulary members, max 3
	Problem       string   `json:"problem"`
	Solution      string   `json:"solution"`
}

// ExtractRequest carries the assembled corpus plus submission context.
type ExtractRequest struct {
	Corpus      string
	ProjectName string
	Sector      string
	Country     string
}

// ExtractResult is the validated output plus diagnostics. CorpusSample holds
// the first ~2000 chars of the corpus for troubleshooting display; Actions
// lists the coercions applied to the raw model output.
type ExtractResult struct {
	Fields       ProjectFields
	CorpusSample string
	Actions      []string
}

// FieldExtractor is the interface the pipeline depends on.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (ExtractResult, []byte /*rawJSON*/, error)
}

// Failure classes the caller may branch on.
var (
	// ErrInsufficientText: the corpus was too small to attempt a model call.
	ErrInsufficientText = errors.New("insufficient text content extracted from documents")
	// ErrMalformedResponse: the model reply contained no parseable JSON object.
	ErrMalformedResponse = errors.New("failed to parse AI response as JSON")
)

// MinCorpusForExtraction is the fail-fast floor checked before any model call.
const MinCorpusForExtraction = 100

// CorpusSampleLength bounds the diagnostic sample carried on results.
const CorpusSampleLength = 2000

// Sample returns the diagnostic prefix of a corpus.
func Sample(corpus string) string {
	if len(corpus) > CorpusSampleLength {
		return corpus[:CorpusSampleLength] + "..."
	}
	return corpus
}
