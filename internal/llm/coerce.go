package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nature-catalyst/impact-intake/constants"
)

// NotSpecified is the default for absent free-text fields.
const NotSpecified = "Not specified"

// extractionFailed marks enrichable fields on the synthetic fallback record.
const extractionFailed = "AI extraction failed - please fill manually"

// ExtractJSONObject recovers the JSON object from a model reply that may be
// wrapped in prose or code fences: greedy scan from the first '{' to the
// last '}'.
func ExtractJSONObject(text string) ([]byte, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil, ErrMalformedResponse
	}
	return []byte(text[start : end+1]), nil
}

// CoerceFields turns untrusted model output into a fully-validated
// ProjectFields, recording every substitution it makes. Free-text fields
// default to "Not specified"; enumerated fields outside their vocabulary get
// the fixed default; numerics are coerced and default to 0 (breakeven to
// current-year-plus-2); the SDG list keeps only vocabulary members, max 3.
func CoerceFields(raw []byte, country string) (ProjectFields, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return ProjectFields{}, nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var actions []string
	note := func(field, what string) {
		actions = append(actions, field+"("+what+")")
	}

	text := func(field string) string {
		if s, ok := m[field].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
		note(field, "defaulted")
		return NotSpecified
	}

	vocab := func(field string, accept func(string) bool, def string) string {
		if s, ok := m[field].(string); ok && accept(strings.TrimSpace(s)) {
			return strings.TrimSpace(s)
		}
		note(field, "defaulted to "+def)
		return def
	}

	number := func(field string, def float64) float64 {
		if v, ok := coerceNumber(m[field]); ok {
			return v
		}
		note(field, "defaulted")
		return def
	}

	f := ProjectFields{
		BusinessModel: text("businessModel"),
		MaturityStage: vocab("maturityStage", constants.IsMaturityStage, constants.DefaultMaturityStage),
		Region:        vocab("region", constants.IsRegion, constants.DefaultRegion),
		Instrument:    vocab("instrument", constants.IsInstrument, constants.DefaultInstrument),
		CoreTeam:      text("coreTeam"),
		ImpactArea:    text("impactArea"),
		KeyRisks:      text("keyRisks"),
		Barriers:      text("barriers"),
		Revenues:      number("revenues", 0),
		Breakeven:     number("breakeven", float64(time.Now().Year()+2)),
		MarketSize:    number("marketSize", 0),
		ExpectedIRR:   number("expectedIRR", 0),
		FinancingNeed: number("financingNeed", 0),
		UseOfProceeds: text("useOfProceeds"),
		Problem:       text("problem"),
		Solution:      text("solution"),
	}

	// mainCountry falls back to the submitted country, not "Not specified".
	if s, ok := m["mainCountry"].(string); ok && strings.TrimSpace(s) != "" {
		f.MainCountry = strings.TrimSpace(s)
	} else {
		note("mainCountry", "defaulted to submission country")
		f.MainCountry = country
	}

	f.SDGs = filterSDGs(m["sdgs"], note)

	return f, actions, nil
}

func filterSDGs(v any, note func(field, what string)) []string {
	list, ok := v.([]any)
	if !ok {
		if v != nil {
			note("sdgs", "dropped non-array")
		}
		return []string{}
	}
	out := make([]string, 0, constants.MaxSDGs)
	for _, item := range list {
		s, ok := item.(string)
		if !ok || !constants.IsSDG(s) {
			note("sdgs", "dropped unrecognized entry")
			continue
		}
		out = append(out, s)
		if len(out) == constants.MaxSDGs {
			break
		}
	}
	return out
}

// coerceNumber accepts JSON numbers and numeric strings; rejects NaN/Inf so
// downstream math and serialization stay finite.
func coerceNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", ""))
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// FallbackFields is the synthetic record returned when the model call fails:
// every enrichable field carries the fill-manually marker so submission can
// still proceed to manual review.
func FallbackFields(sector, country string) ProjectFields {
	if strings.TrimSpace(country) == "" {
		country = NotSpecified
	}
	return ProjectFields{
		BusinessModel: extractionFailed,
		MaturityStage: constants.DefaultMaturityStage,
		Region:        constants.DefaultRegion,
		MainCountry:   country,
		Instrument:    constants.DefaultInstrument,
		CoreTeam:      extractionFailed,
		ImpactArea:    sector + " impact project",
		KeyRisks:      extractionFailed,
		Barriers:      extractionFailed,
		Revenues:      0,
		Breakeven:     float64(time.Now().Year() + 2),
		MarketSize:    0,
		ExpectedIRR:   0,
		FinancingNeed: 0,
		UseOfProceeds: extractionFailed,
		SDGs:          []string{},
		Problem:       extractionFailed,
		Solution:      extractionFailed,
	}
}
