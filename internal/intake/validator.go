package intake

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/nature-catalyst/impact-intake/constants"
)

// File is one candidate document in a submission batch. Open returns a fresh
// reader over the file's content; the validator only reads a short prefix.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Ext returns the normalized extension of the file name.
func (f File) Ext() string {
	return constants.NormalizeExt(filepath.Ext(f.Name))
}

// BatchResult is the outcome of validating a submission batch.
// Reasons explain per-file rejections; Warnings flag accepted files with
// suspicious content (e.g. a .pdf without the %PDF signature).
type BatchResult struct {
	Accepted []File
	Reasons  []string
	Warnings []string
}

// pdfMagic is the signature expected at the start of a PDF file.
var pdfMagic = []byte("%PDF")

// Validator screens submission batches before any extraction work.
type Validator struct {
	log *slog.Logger
}

func NewValidator(log *slog.Logger) *Validator {
	if log == nil {
		log = slog.Default()
	}
	return &Validator{log: log}
}

// ValidateBatch checks each file in order, short-circuiting per file on the
// first failed check. Per-file failures accumulate as reasons and the rest of
// the batch proceeds. Batch-level violations (combined size over 50 MiB, more
// than 5 accepted files) reject the whole batch with an error instead.
func (v *Validator) ValidateBatch(files []File) (BatchResult, error) {
	var res BatchResult

	for i, f := range files {
		if f.Size == 0 {
			res.Reasons = append(res.Reasons, fmt.Sprintf("%s is empty", nameOrIndex(f, i)))
			continue
		}
		if strings.TrimSpace(f.Name) == "" {
			res.Reasons = append(res.Reasons, fmt.Sprintf("file %d has no name", i+1))
			continue
		}
		if f.Size > constants.MaxFileSize {
			res.Reasons = append(res.Reasons, fmt.Sprintf("%s is too large (%.1fMB > 10MB)", f.Name, mb(f.Size)))
			continue
		}
		ext := f.Ext()
		if _, ok := constants.AllowedExtensions[ext]; !ok {
			if ext == "" {
				ext = "unknown"
			}
			res.Reasons = append(res.Reasons, fmt.Sprintf("%s has unsupported file type (%s)", f.Name, ext))
			continue
		}

		head, err := readPrefix(f, 100)
		if err != nil {
			res.Reasons = append(res.Reasons, fmt.Sprintf("%s cannot be read (file may be corrupted)", f.Name))
			continue
		}
		if len(head) == 0 {
			res.Reasons = append(res.Reasons, fmt.Sprintf("%s appears to be corrupted (cannot read file content)", f.Name))
			continue
		}

		// A bad PDF signature is a warning, not a rejection.
		if ext == "pdf" && !bytes.HasPrefix(head, pdfMagic) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s may not be a valid PDF file", f.Name))
		}

		res.Accepted = append(res.Accepted, f)
	}

	var total int64
	for _, f := range res.Accepted {
		total += f.Size
	}
	if total > constants.MaxBatchSize {
		v.log.Warn("intake.batch.too_large", "files", len(res.Accepted), "total_bytes", total)
		return res, fmt.Errorf("combined file size must be under 50MB (current: %.1fMB)", mb(total))
	}
	if len(res.Accepted) > constants.MaxFiles {
		v.log.Warn("intake.batch.too_many", "files", len(res.Accepted))
		return res, fmt.Errorf("maximum %d files allowed", constants.MaxFiles)
	}

	v.log.Info("intake.batch.validated",
		"submitted", len(files),
		"accepted", len(res.Accepted),
		"rejected", len(res.Reasons),
		"warnings", len(res.Warnings),
	)
	return res, nil
}

func readPrefix(f File, n int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rc.Close()
	}()
	if f.Size < n {
		n = f.Size
	}
	return io.ReadAll(io.LimitReader(rc, n))
}

func nameOrIndex(f File, i int) string {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Sprintf("file %d", i+1)
	}
	return f.Name
}

func mb(n int64) float64 {
	return float64(n) / 1024 / 1024
}
