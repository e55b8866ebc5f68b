package llm

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	t.Run("bare object", func(t *testing.T) {
		raw, err := ExtractJSONObject(`{"businessModel":"saas"}`)
		require.NoError(t, err)
		assert.JSONEq(t, `{"businessModel":"saas"}`, string(raw))
	})

	t.Run("object wrapped in prose and fences", func(t *testing.T) {
		reply := "Here is the extraction:\n```json\n{\"problem\":\"water access\"}\n```\nLet me know!"
		raw, err := ExtractJSONObject(reply)
		require.NoError(t, err)
		assert.JSONEq(t, `{"problem":"water access"}`, string(raw))
	})

	t.Run("no object present", func(t *testing.T) {
		_, err := ExtractJSONObject("I could not find any structured data.")
		require.ErrorIs(t, err, ErrMalformedResponse)
	})
}

func TestCoerceFieldsDefaults(t *testing.T) {
	fields, actions, err := CoerceFields([]byte(`{}`), "Kenya")
	require.NoError(t, err)

	assert.Equal(t, "Not specified", fields.BusinessModel)
	assert.Equal(t, "Validation", fields.MaturityStage)
	assert.Equal(t, "Global", fields.Region)
	assert.Equal(t, "Equity", fields.Instrument)
	assert.Equal(t, "Kenya", fields.MainCountry)
	assert.Equal(t, float64(0), fields.Revenues)
	assert.Equal(t, float64(time.Now().Year()+2), fields.Breakeven)
	assert.Empty(t, fields.SDGs)
	assert.NotEmpty(t, actions, "every substitution is recorded")
}

func TestCoerceFieldsKeepsValidValues(t *testing.T) {
	raw := []byte(`{
		"businessModel": "pay-as-you-go solar leasing",
		"maturityStage": "Growth",
		"region": "Africa",
		"mainCountry": "Uganda",
		"instrument": "Debt",
		"revenues": 125000.5,
		"breakeven": 2027,
		"sdgs": ["Affordable and clean energy (SDG 7)", "Climate action (SDG 13)"],
		"problem": "rural energy poverty",
		"solution": "distributed microgrids"
	}`)
	fields, _, err := CoerceFields(raw, "Kenya")
	require.NoError(t, err)

	assert.Equal(t, "pay-as-you-go solar leasing", fields.BusinessModel)
	assert.Equal(t, "Growth", fields.MaturityStage)
	assert.Equal(t, "Africa", fields.Region)
	assert.Equal(t, "Uganda", fields.MainCountry)
	assert.Equal(t, "Debt", fields.Instrument)
	assert.Equal(t, 125000.5, fields.Revenues)
	assert.Equal(t, float64(2027), fields.Breakeven)
	assert.Len(t, fields.SDGs, 2)
}

func TestCoerceFieldsRejectsUnknownVocabulary(t *testing.T) {
	raw := []byte(`{
		"maturityStage": "Unicorn",
		"region": "Atlantis",
		"instrument": "Crypto"
	}`)
	fields, actions, err := CoerceFields(raw, "Kenya")
	require.NoError(t, err)

	assert.Equal(t, "Validation", fields.MaturityStage)
	assert.Equal(t, "Global", fields.Region)
	assert.Equal(t, "Equity", fields.Instrument)
	joined := strings.Join(actions, " ")
	assert.Contains(t, joined, "maturityStage")
	assert.Contains(t, joined, "region")
}

func TestCoerceFieldsNumericStrings(t *testing.T) {
	raw := []byte(`{
		"revenues": "1,250,000",
		"marketSize": "3.5e6",
		"expectedIRR": "18.5",
		"financingNeed": "not sure",
		"breakeven": "NaN"
	}`)
	fields, _, err := CoerceFields(raw, "Kenya")
	require.NoError(t, err)

	assert.Equal(t, 1250000.0, fields.Revenues)
	assert.Equal(t, 3500000.0, fields.MarketSize)
	assert.Equal(t, 18.5, fields.ExpectedIRR)
	assert.Equal(t, 0.0, fields.FinancingNeed)
	assert.Equal(t, float64(time.Now().Year()+2), fields.Breakeven, "NaN falls back to default")
}

func TestCoerceFieldsSDGFiltering(t *testing.T) {
	raw := []byte(`{
		"sdgs": [
			"Affordable and clean energy (SDG 7)",
			"Totally Made Up Goal",
			"Climate action (SDG 13)",
			"No poverty (SDG 1)",
			"Gender equality (SDG 5)"
		]
	}`)
	fields, _, err := CoerceFields(raw, "Kenya")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Affordable and clean energy (SDG 7)",
		"Climate action (SDG 13)",
		"No poverty (SDG 1)",
	}, fields.SDGs, "unknown entries dropped, capped at three")
}

func TestCoerceFieldsMalformedJSON(t *testing.T) {
	_, _, err := CoerceFields([]byte(`{"businessModel": `), "Kenya")
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestFallbackFields(t *testing.T) {
	fields := FallbackFields("Clean Energy", "Kenya")

	assert.Equal(t, "AI extraction failed - please fill manually", fields.BusinessModel)
	assert.Equal(t, "AI extraction failed - please fill manually", fields.Problem)
	assert.Equal(t, "Clean Energy impact project", fields.ImpactArea)
	assert.Equal(t, "Kenya", fields.MainCountry)
	assert.Equal(t, "Validation", fields.MaturityStage)
	assert.Equal(t, float64(time.Now().Year()+2), fields.Breakeven)
	assert.Empty(t, fields.SDGs)

	t.Run("blank country defaults", func(t *testing.T) {
		fields := FallbackFields("Water", "  ")
		assert.Equal(t, "Not specified", fields.MainCountry)
	})
}

func TestSample(t *testing.T) {
	assert.Equal(t, "short corpus", Sample("short corpus"))

	long := strings.Repeat("x", CorpusSampleLength+50)
	got := Sample(long)
	assert.Len(t, got, CorpusSampleLength+3)
	assert.True(t, strings.HasSuffix(got, "..."))
}
