package extract

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nature-catalyst/impact-intake/internal/intake"
)

func memFile(name, content string) intake.File {
	return intake.File{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

// scriptedService returns queued results in order, one per call.
type scriptedService struct {
	texts []string
	errs  []error
	calls int
}

func (s *scriptedService) ExtractText(context.Context, string, []byte) (string, error) {
	i := s.calls
	s.calls++
	var text string
	var err error
	if i < len(s.texts) {
		text = s.texts[i]
	}
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return text, err
}

// fastRetry keeps the default policy shape without the 2s pause.
func fastRetry() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 2,
		Backoff:     func(int) time.Duration { return 0 },
		Retryable:   IsTransient,
	}
}

func TestExtractPlainText(t *testing.T) {
	e := NewExtractor(nil, fastRetry(), nil)

	block := e.ExtractFile(context.Background(), memFile("notes.txt", "solar microgrid plan"))
	assert.Equal(t, "=== DOCUMENT: notes.txt ===\nsolar microgrid plan\n=== END DOCUMENT ===", block)

	assert.Empty(t, e.ExtractFile(context.Background(), memFile("blank.md", "   \n\t")),
		"blank text files produce no block")
}

func TestExtractJSON(t *testing.T) {
	e := NewExtractor(nil, fastRetry(), nil)

	t.Run("valid json is pretty-printed", func(t *testing.T) {
		block := e.ExtractFile(context.Background(), memFile("data.json", `{"revenue":100,"team":"two founders"}`))
		assert.Contains(t, block, "=== DOCUMENT: data.json ===")
		assert.Contains(t, block, "  \"revenue\": 100")
	})

	t.Run("invalid json falls back to raw text", func(t *testing.T) {
		block := e.ExtractFile(context.Background(), memFile("broken.json", `{"revenue": `))
		assert.Contains(t, block, `{"revenue": `)
	})
}

func TestExtractCSVLineLimit(t *testing.T) {
	e := NewExtractor(nil, fastRetry(), nil)

	var sb strings.Builder
	for i := range 150 {
		fmt.Fprintf(&sb, "row-%d,value\n", i)
	}
	block := e.ExtractFile(context.Background(), memFile("data.csv", sb.String()))
	assert.Contains(t, block, "row-0,value")
	assert.Contains(t, block, "row-99,value")
	assert.NotContains(t, block, "row-100,value")
}

func TestExtractHTMLStripsTags(t *testing.T) {
	e := NewExtractor(nil, fastRetry(), nil)

	block := e.ExtractFile(context.Background(),
		memFile("page.html", "<html><body><h1>Impact   Fund</h1><p>annual report</p></body></html>"))
	assert.Contains(t, block, "Impact Fund annual report")
	assert.NotContains(t, block, "<h1>")
}

func TestExtractOfficeServiceSuccess(t *testing.T) {
	text := strings.Repeat("the business model generates recurring revenue. ", 10)
	svc := &scriptedService{texts: []string{text}}
	e := NewExtractor(svc, fastRetry(), nil)

	block := e.ExtractFile(context.Background(), memFile("deck.pptx", "binary-ish"))
	assert.Contains(t, block, "=== DOCUMENT: deck.pptx ===")
	assert.Contains(t, block, "recurring revenue")
	assert.Equal(t, 1, svc.calls)
}

func TestExtractOfficeLimitedText(t *testing.T) {
	svc := &scriptedService{texts: []string{"short"}}
	e := NewExtractor(svc, fastRetry(), nil)

	block := e.ExtractFile(context.Background(), memFile("scan.pdf", "binary-ish"))
	assert.Contains(t, block, "[File: scan.pdf (PDF)")
	assert.Contains(t, block, "limited readable text")
}

func TestExtractOfficeRetriesTransientErrors(t *testing.T) {
	text := strings.Repeat("funding strategy and market growth plan. ", 10)
	svc := &scriptedService{
		texts: []string{"", text},
		errs:  []error{&ServiceError{Status: 503, Message: "unavailable"}, nil},
	}
	e := NewExtractor(svc, fastRetry(), nil)

	block := e.ExtractFile(context.Background(), memFile("deck.docx", "binary-ish"))
	assert.Contains(t, block, "market growth")
	assert.Equal(t, 2, svc.calls)
}

func TestExtractOfficePermanentErrorUsesFallback(t *testing.T) {
	// Content carries enough sentence-shaped business text for the
	// byte-scan heuristic to recover something.
	content := strings.Repeat("our business model builds revenue from solar customers. ", 10)
	svc := &scriptedService{errs: []error{&ServiceError{Status: 400, Message: "bad file"}}}
	e := NewExtractor(svc, fastRetry(), nil)

	block := e.ExtractFile(context.Background(), memFile("deck.pptx", content))
	assert.Contains(t, block, "deck.pptx (Fallback Extraction)")
	assert.Equal(t, 1, svc.calls, "permanent errors are not retried")
}

func TestExtractOfficeFallbackExhaustedUsesPlaceholder(t *testing.T) {
	svc := &scriptedService{errs: []error{&ServiceError{Status: 400, Message: "bad file"}}}
	e := NewExtractor(svc, fastRetry(), nil)

	block := e.ExtractFile(context.Background(), memFile("deck.xlsx", "\x00\x01\x02\x03"))
	assert.Contains(t, block, "[File: deck.xlsx (XLSX)")
	assert.Contains(t, block, "Text extraction failed")
}

func TestExtractOfficeQualityGate(t *testing.T) {
	// Long response drowned in markup: rejected by the quality check, then
	// recovered through the fallback scan of the original bytes.
	corrupted := strings.Repeat("<a><b><c><d><e>", 200)
	content := strings.Repeat("impact investment strategy for sustainable growth. ", 10)
	svc := &scriptedService{texts: []string{corrupted}}
	e := NewExtractor(svc, fastRetry(), nil)

	block := e.ExtractFile(context.Background(), memFile("deck.pptx", content))
	assert.Contains(t, block, "(Fallback Extraction)")
	assert.NotContains(t, block, "<a>")
}

func TestExtractUnknownExtension(t *testing.T) {
	e := NewExtractor(nil, fastRetry(), nil)

	t.Run("printable content passes through", func(t *testing.T) {
		block := e.ExtractFile(context.Background(), memFile("notes.log", "readable plain content"))
		assert.Contains(t, block, "readable plain content")
	})

	t.Run("binary content yields placeholder", func(t *testing.T) {
		block := e.ExtractFile(context.Background(), memFile("blob.bin", "\xff\xfe\x00\x01\x02\x03\x04\x05"))
		assert.Contains(t, block, "no readable text found")
	})
}

func TestCheckQuality(t *testing.T) {
	t.Run("short text is never judged", func(t *testing.T) {
		require.NoError(t, checkQuality(strings.Repeat("<x>", 100)))
	})
	t.Run("clean long text passes", func(t *testing.T) {
		require.NoError(t, checkQuality(strings.Repeat("plain business words ", 100)))
	})
	t.Run("tag-dense text fails", func(t *testing.T) {
		require.Error(t, checkQuality(strings.Repeat("<t>", 500)))
	})
}
