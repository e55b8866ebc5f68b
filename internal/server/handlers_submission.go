package server

import (
	"io"
	"net/http"
	"time"

	"github.com/nature-catalyst/impact-intake/internal/intake"
	"github.com/nature-catalyst/impact-intake/internal/llm"
	"github.com/nature-catalyst/impact-intake/internal/pipeline"
)

// maxSubmissionMemory bounds how much of the multipart body is buffered in
// memory before spilling to temp files.
const maxSubmissionMemory = 16 << 20

type submissionResponse struct {
	Fields       llm.ProjectFields `json:"fields"`
	Warnings     []string          `json:"warnings,omitempty"`
	CorpusFiles  int               `json:"corpusFiles"`
	CorpusChars  int               `json:"corpusChars"`
	Truncated    bool              `json:"truncated"`
	CorpusSample string            `json:"corpusSample,omitempty"`
	Actions      []string          `json:"actions,omitempty"`
	AIFailure    string            `json:"aiFailure,omitempty"`
	Blocking     bool              `json:"blocking,omitempty"`
}

// handleSubmission runs the document pipeline on the uploaded batch and
// returns the draft enrichment fields. Nothing is persisted here; the client
// confirms via POST /api/projects once the entrepreneur has reviewed the
// draft.
func (s *Server) handleSubmission(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := r.ParseMultipartForm(maxSubmissionMemory); err != nil {
		badRequest(w, "invalid multipart body")
		return
	}

	sub := pipeline.Submission{
		ProjectName: r.FormValue("projectName"),
		Sector:      r.FormValue("sector"),
		Country:     r.FormValue("country"),
	}

	var files []intake.File
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["files"] {
			fh := fh
			files = append(files, intake.File{
				Name: fh.Filename,
				Size: fh.Size,
				Open: func() (io.ReadCloser, error) {
					f, err := fh.Open()
					if err != nil {
						return nil, err
					}
					return f, nil
				},
			})
		}
	}
	if len(files) == 0 {
		badRequest(w, "no files uploaded")
		return
	}

	res, err := s.processor.Process(r.Context(), files, sub)
	if err != nil {
		writeError(w, err)
		return
	}

	s.log.Info("submission.processed",
		"project", sub.ProjectName,
		"files", len(files),
		"corpus_chars", res.CorpusChars,
		"ai_failure", res.AIFailure != "",
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, submissionResponse{
		Fields:       res.Fields,
		Warnings:     res.Warnings,
		CorpusFiles:  res.CorpusFiles,
		CorpusChars:  res.CorpusChars,
		Truncated:    res.Truncated,
		CorpusSample: res.CorpusSample,
		Actions:      res.Actions,
		AIFailure:    res.AIFailure,
		Blocking:     res.Blocking,
	})
}
