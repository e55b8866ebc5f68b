package extract

import (
	"regexp"
	"strings"
)

// Heuristic last-resort extraction for binaries the external service could
// not handle: scan raw bytes for printable text, keep plausible words, and
// prefer sentences that talk about the business.

const (
	fallbackScanLimit    = 500_000
	fallbackMaxWords     = 1000
	fallbackMaxSentences = 50
	fallbackMinChars     = 200
)

// businessKeywords mark sentences likely to describe the venture rather than
// document-format noise.
var businessKeywords = []string{
	"business", "model", "revenue", "market", "customer", "product", "service",
	"growth", "strategy", "team", "funding", "investment", "financial", "profit",
	"impact", "social", "environmental", "sustainable", "solution", "problem",
	"technology", "innovation", "scale", "operations", "management", "risk",
}

// markupArtifacts are substrings that identify office-format debris.
var markupArtifacts = []string{"<", ">", "xml", "ppt", "customXml", "slideLayout", "slideMaster"}

var (
	reAllCaps    = regexp.MustCompile(`^[A-Z]{2,}$`)
	reDigitsOnly = regexp.MustCompile(`^[0-9]+$`)
	reHasLetter  = regexp.MustCompile(`[a-zA-Z]`)
	reSpecials   = regexp.MustCompile(`[^\w\s.,:;!?()$%-]`)
	reWhitespace = regexp.MustCompile(`\s+`)
	reSentence   = regexp.MustCompile(`[.!?]+`)
)

// FallbackText scavenges readable business text from raw file bytes.
// Returns "" when nothing meaningful survives filtering.
func FallbackText(data []byte) string {
	words := scanWords(data)
	if len(words) == 0 {
		return ""
	}

	text := strings.TrimSpace(strings.Join(keywordSentences(words), ". "))

	// No business-relevant sentences: take the first filtered words instead,
	// provided there is enough raw material to be worth keeping.
	if len(text) < fallbackMinChars && len(words) > 50 {
		n := len(words)
		if n > 500 {
			n = 500
		}
		text = strings.Join(words[:n], " ")
	}

	text = reWhitespace.ReplaceAllString(text, " ")
	text = collapseRepeats(text)
	text = reSpecials.ReplaceAllString(text, " ")
	text = strings.TrimSpace(reWhitespace.ReplaceAllString(text, " "))

	if len(text) < fallbackMinChars {
		return ""
	}
	return text
}

// collapseRepeats squashes runs of four or more identical characters down to
// one. Go's RE2 regexp engine has no backreferences, so the natural pattern
// `(.)\1{3,}` cannot be used here.
func collapseRepeats(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(runes); {
		j := i
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		n := j - i
		if n >= 4 {
			n = 1
		}
		for k := 0; k < n; k++ {
			b.WriteRune(runes[i])
		}
		i = j
	}
	return b.String()
}

// scanWords converts the first 500 KB to printable ASCII and keeps tokens
// that look like real words rather than format debris.
func scanWords(data []byte) []string {
	limit := len(data)
	if limit > fallbackScanLimit {
		limit = fallbackScanLimit
	}

	var b strings.Builder
	b.Grow(limit)
	for _, c := range data[:limit] {
		if c >= 32 && c <= 126 {
			b.WriteByte(c)
		} else {
			b.WriteByte(' ')
		}
	}

	var words []string
	for _, w := range strings.Fields(b.String()) {
		if keepWord(w) {
			words = append(words, w)
			if len(words) == fallbackMaxWords {
				break
			}
		}
	}
	return words
}

func keepWord(w string) bool {
	if len(w) < 3 || len(w) >= 50 {
		return false
	}
	for _, art := range markupArtifacts {
		if strings.Contains(w, art) {
			return false
		}
	}
	if reAllCaps.MatchString(w) || reDigitsOnly.MatchString(w) {
		return false
	}
	return reHasLetter.MatchString(w)
}

// keywordSentences splits the word stream into sentences and keeps those of
// reasonable length mentioning at least one business keyword.
func keywordSentences(words []string) []string {
	var kept []string
	for _, s := range reSentence.Split(strings.Join(words, " "), -1) {
		s = strings.TrimSpace(s)
		if len(s) <= 20 || len(s) >= 500 {
			continue
		}
		lower := strings.ToLower(s)
		for _, kw := range businessKeywords {
			if strings.Contains(lower, kw) {
				kept = append(kept, s)
				break
			}
		}
		if len(kept) == fallbackMaxSentences {
			break
		}
	}
	return kept
}
