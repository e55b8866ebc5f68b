package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/nature-catalyst/impact-intake/constants"
)

// BuildPrompt composes the extraction instruction: analyst framing, the
// submission context, per-field guidance with the controlled vocabularies
// inlined, and the full document corpus. The model is told to answer with a
// single JSON object and nothing else.
func BuildPrompt(req ExtractRequest) string {
	var b strings.Builder

	b.WriteString("You are an expert impact investment analyst. Extract structured data from the provided project documents and return ONLY valid JSON.\n\n")

	b.WriteString("PROJECT CONTEXT:\n")
	fmt.Fprintf(&b, "- Name: %s\n", req.ProjectName)
	fmt.Fprintf(&b, "- Sector: %s\n", req.Sector)
	fmt.Fprintf(&b, "- Country: %s\n\n", req.Country)

	b.WriteString(`EXTRACTION INSTRUCTIONS:
1. Read ALL documents carefully and extract relevant information
2. Use exact values from documents when available (especially financial figures)
3. Make reasonable inferences for missing data based on context and industry standards
4. For financial figures, extract actual numbers (not ranges) - if ranges given, use the midpoint
5. For text fields, provide detailed, specific information from documents
6. If information is not found, use "Not specified" rather than making up data
7. Focus on business model, financial metrics, team, risks, and impact areas

`)

	b.WriteString("REQUIRED JSON FORMAT (return ONLY this JSON, no other text):\n{\n")
	fmt.Fprintf(&b, "  %q: %q,\n", "businessModel", "detailed revenue model and how the business makes money")
	fmt.Fprintf(&b, "  %q: %q,\n", "maturityStage", "one of: "+strings.Join(constants.MaturityStages, ", "))
	fmt.Fprintf(&b, "  %q: %q,\n", "region", "one of: "+strings.Join(constants.Regions, ", "))
	fmt.Fprintf(&b, "  %q: %q,\n", "mainCountry", "main country of operations from documents")
	fmt.Fprintf(&b, "  %q: %q,\n", "instrument", "one of: "+strings.Join(constants.Instruments, ", "))
	fmt.Fprintf(&b, "  %q: %q,\n", "coreTeam", "detailed description of leadership team and key personnel with names and roles")
	fmt.Fprintf(&b, "  %q: %q,\n", "impactArea", "specific impact area and focus from documents")
	fmt.Fprintf(&b, "  %q: %q,\n", "keyRisks", "main business and market risks identified in documents")
	fmt.Fprintf(&b, "  %q: %q,\n", "barriers", "barriers to entry and competitive advantages mentioned")
	fmt.Fprintf(&b, "  %q: 0,\n", "revenues")
	fmt.Fprintf(&b, "  %q: %d,\n", "breakeven", time.Now().Year()+2)
	fmt.Fprintf(&b, "  %q: 0,\n", "marketSize")
	fmt.Fprintf(&b, "  %q: 0,\n", "expectedIRR")
	fmt.Fprintf(&b, "  %q: 0,\n", "financingNeed")
	fmt.Fprintf(&b, "  %q: %q,\n", "useOfProceeds", "detailed explanation of how funding will be used")
	fmt.Fprintf(&b, "  %q: [%q],\n", "sdgs", "up to 3 most relevant SDGs from: "+strings.Join(constants.SDGs[:8], ", ")+", etc.")
	fmt.Fprintf(&b, "  %q: %q,\n", "problem", "detailed problem statement being addressed")
	fmt.Fprintf(&b, "  %q: %q\n}\n\n", "solution", "detailed solution description and approach")

	b.WriteString("DOCUMENT CONTENT:\n")
	b.WriteString(req.Corpus)
	b.WriteString("\n\nExtract all available information from the documents above. Return ONLY the JSON object with actual extracted values. Do not include any explanatory text.")

	return b.String()
}
