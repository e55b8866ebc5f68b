package extract

import "strings"

const (
	// MaxCorpusChars caps the assembled corpus (roughly 100k tokens).
	MaxCorpusChars = 400_000

	// truncateHeadroom is the minimum remaining budget worth a partial block.
	truncateHeadroom = 5000

	// MinCorpusChars below this the corpus is flagged as thin.
	MinCorpusChars = 500

	truncationMarker = "\n[TRUNCATED - Document too large]"
)

// Corpus is the assembled document text handed to the AI client.
type Corpus struct {
	Text      string
	Files     int  // blocks included (whole or truncated)
	Truncated bool // at least one block was cut or skipped for budget
}

// Thin reports whether so little text survived extraction that AI analysis
// quality is in doubt. Callers surface this as a warning, not an error.
func (c Corpus) Thin() bool {
	return len(c.Text) < MinCorpusChars
}

// AssembleCorpus joins per-file blocks in order under the character budget.
// A block that would overflow is truncated and tagged only when at least
// truncateHeadroom characters of budget remain; otherwise it is skipped
// whole. Deterministic: identical inputs produce identical output.
func AssembleCorpus(blocks []string, budget int) Corpus {
	if budget <= 0 {
		budget = MaxCorpusChars
	}

	var (
		parts []string
		total int
		c     Corpus
	)
	for _, block := range blocks {
		if strings.TrimSpace(block) == "" {
			continue
		}
		if total >= budget {
			c.Truncated = true
			break
		}
		if total+len(block) > budget {
			remaining := budget - total
			c.Truncated = true
			if remaining > truncateHeadroom {
				cut := block[:remaining] + truncationMarker
				parts = append(parts, cut)
				total += len(cut)
				c.Files++
			}
			break
		}
		parts = append(parts, block)
		total += len(block)
		c.Files++
	}

	c.Text = strings.Join(parts, "\n\n")
	return c
}
