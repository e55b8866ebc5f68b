package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/nature-catalyst/impact-intake/constants"
	"github.com/nature-catalyst/impact-intake/internal/intake"
)

const (
	docHeader = "=== DOCUMENT: %s ===\n%s\n=== END DOCUMENT ==="

	// Quality thresholds for text coming back from the external service.
	qualityMinLength   = 1000
	maxTagsPer100Chars = 10.0
	maxNoiseRatio      = 0.3

	// Service output under this many chars counts as "limited text".
	minUsefulChars = 100

	csvLineLimit = 100
)

// Extractor turns accepted files into text blocks, one strategy per format
// class, with the external service plus heuristic fallback for binaries.
// Every path yields a non-empty block or placeholder; errors never escape.
type Extractor struct {
	svc   DocumentExtractor
	retry RetryPolicy
	log   *slog.Logger
}

func NewExtractor(svc DocumentExtractor, retry RetryPolicy, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{svc: svc, retry: retry, log: log}
}

// ExtractFile dispatches on the file's extension class. The returned string
// is either a delimited document block, a bracketed diagnostic placeholder,
// or "" for genuinely empty text-class files (the caller drops those).
func (e *Extractor) ExtractFile(ctx context.Context, f intake.File) string {
	start := time.Now()
	format := constants.MapExtToFormat(f.Ext())

	data, err := readAll(f)
	if err != nil {
		e.log.Warn("extract.file.unreadable", "file", f.Name, "error", err)
		return failurePlaceholder(f, err)
	}

	var block string
	switch format {
	case constants.PlainText:
		block = delimitIfNotBlank(f.Name, string(data))
	case constants.Structured:
		block = e.extractJSON(f.Name, data)
	case constants.Tabular:
		block = e.extractCSV(f.Name, data)
	case constants.Markup:
		block = e.extractHTML(f.Name, data)
	case constants.Office:
		block = e.extractOffice(ctx, f, data)
	default:
		block = e.extractUnknown(f, data)
	}

	e.log.Info("extract.file.done",
		"file", f.Name,
		"format", string(format),
		"chars", len(block),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return block
}

// extractJSON pretty-prints valid JSON for readability; invalid JSON falls
// back to the raw text, still delimited.
func (e *Extractor) extractJSON(name string, data []byte) string {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err == nil {
		if formatted, err := json.MarshalIndent(parsed, "", "  "); err == nil {
			return delimitIfNotBlank(name, string(formatted))
		}
	}
	return delimitIfNotBlank(name, string(data))
}

func (e *Extractor) extractCSV(name string, data []byte) string {
	lines := strings.Split(string(data), "\n")
	if len(lines) > csvLineLimit {
		lines = lines[:csvLineLimit]
	}
	return delimitIfNotBlank(name, strings.Join(lines, "\n"))
}

func (e *Extractor) extractHTML(name string, data []byte) string {
	clean := reTags.ReplaceAllString(string(data), " ")
	clean = strings.TrimSpace(reWhitespace.ReplaceAllString(clean, " "))
	return delimitIfNotBlank(name, clean)
}

// extractOffice delegates to the external service with a bounded retry for
// transient errors, quality-checks the result, and falls back to the local
// byte-scanning heuristic on any failure.
func (e *Extractor) extractOffice(ctx context.Context, f intake.File, data []byte) string {
	if e.svc == nil {
		err := &ServiceError{Message: "no document extraction service configured"}
		if fb := FallbackText(data); fb != "" {
			return fmt.Sprintf(docHeader, f.Name+" (Fallback Extraction)", fb)
		}
		return failurePlaceholder(f, err)
	}

	var text string
	err := e.retry.Do(ctx, func(ctx context.Context) error {
		out, err := e.svc.ExtractText(ctx, f.Name, data)
		if err != nil {
			return err
		}
		if err := checkQuality(out); err != nil {
			return err
		}
		text = out
		return nil
	})

	if err == nil {
		if trimmed := strings.TrimSpace(text); len(trimmed) > minUsefulChars {
			cleaned := strings.TrimSpace(reWhitespace.ReplaceAllString(trimmed, " "))
			e.log.Info("extract.service.ok", "file", f.Name, "chars", len(cleaned))
			return fmt.Sprintf(docHeader, f.Name, cleaned)
		}
		e.log.Warn("extract.service.limited_text", "file", f.Name, "chars", len(text))
		return limitedTextPlaceholder(f)
	}

	e.log.Warn("extract.service.failed", "file", f.Name, "error", err)

	if fb := FallbackText(data); fb != "" {
		e.log.Info("extract.fallback.ok", "file", f.Name, "chars", len(fb))
		return fmt.Sprintf(docHeader, f.Name+" (Fallback Extraction)", fb)
	}
	e.log.Warn("extract.fallback.insufficient", "file", f.Name)
	return failurePlaceholder(f, err)
}

// extractUnknown tries a generic text read before giving up.
func (e *Extractor) extractUnknown(f intake.File, data []byte) string {
	if text := strings.TrimSpace(string(data)); text != "" && isMostlyPrintable(text) {
		return fmt.Sprintf(docHeader, f.Name, text)
	}
	return unreadablePlaceholder(f)
}

// checkQuality rejects service output that looks like leaked markup or
// binary noise. Only texts long enough to judge are checked.
func checkQuality(text string) error {
	n := len(text)
	if n <= qualityMinLength {
		return nil
	}
	tags := len(reTags.FindAllString(text, -1))
	if tagsPer100 := float64(tags) / (float64(n) / 100); tagsPer100 > maxTagsPer100Chars {
		return &ServiceError{Message: "extracted text appears corrupted"}
	}
	noise := len(reSpecials.FindAllString(text, -1))
	if float64(noise)/float64(n) > maxNoiseRatio {
		return &ServiceError{Message: "extracted text quality too low"}
	}
	return nil
}

var reTags = regexp.MustCompile(`<[^>]*>`)

func delimitIfNotBlank(name, text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return fmt.Sprintf(docHeader, name, text)
}

func limitedTextPlaceholder(f intake.File) string {
	return fmt.Sprintf("[File: %s (%s) - %.1fKB - Document processed but limited readable text found. May contain primarily images, charts, or complex formatting.]",
		f.Name, strings.ToUpper(f.Ext()), kb(f.Size))
}

func failurePlaceholder(f intake.File, err error) string {
	return fmt.Sprintf("[File: %s (%s) - %.1fKB - Text extraction failed. File may be corrupted, password-protected, or in an unsupported format. Error: %v]",
		f.Name, strings.ToUpper(f.Ext()), kb(f.Size), err)
}

func unreadablePlaceholder(f intake.File) string {
	return fmt.Sprintf("[File: %s (%s) - %.1fKB - Content extraction attempted but no readable text found. This file may contain images, complex formatting, or binary data that requires specialized processing.]",
		f.Name, strings.ToUpper(f.Ext()), kb(f.Size))
}

func kb(n int64) float64 {
	return float64(n) / 1024
}

func isMostlyPrintable(s string) bool {
	if s == "" {
		return false
	}
	printable := 0
	for _, r := range s {
		if r >= 32 && r < 127 || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	return float64(printable)/float64(len([]rune(s))) > 0.9
}

func readAll(f intake.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rc.Close()
	}()
	return io.ReadAll(rc)
}
