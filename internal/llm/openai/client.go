package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nature-catalyst/impact-intake/internal/llm"
)

// ExtractFields implements llm.FieldExtractor using text-only chat/completions.
// The model's reply is schema-checked for diagnostics only; the coercion step
// repairs everything it can, so a schema miss downgrades to a warning rather
// than a hard failure.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (llm.ExtractResult, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	res := llm.ExtractResult{CorpusSample: llm.Sample(req.Corpus)}

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"corpus_len", len(req.Corpus),
		"project", req.ProjectName,
		"sector", req.Sector,
	)

	if len(strings.TrimSpace(req.Corpus)) < llm.MinCorpusForExtraction {
		c.log.Warn("llm.extract.insufficient_text",
			"req_id", rid, "corpus_len", len(req.Corpus))
		return res, nil, llm.ErrInsufficientText
	}

	prompt := llm.BuildPrompt(req)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"max_tokens":  c.cfg.MaxTokens,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, httpErr := c.post(ctx, endpoint, body)
	if httpErr != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return res, nil, httpErr
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return res, raw, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.extract.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return res, raw, fmt.Errorf("no choices in openai response")
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)

	rawJSON, err := llm.ExtractJSONObject(content)
	if err != nil {
		c.log.Error("llm.extract.no_json",
			"req_id", rid, "content_len", len(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return res, []byte(content), err
	}

	schema := llm.BuildProjectJSONSchema()
	if err := llm.ValidateJSONAgainstSchema(schema, rawJSON); err != nil {
		c.log.Warn("llm.extract.schema_mismatch",
			"req_id", rid, "error", err)
	}

	fields, actions, err := llm.CoerceFields(rawJSON, req.Country)
	if err != nil {
		c.log.Error("llm.extract.coerce_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return res, rawJSON, err
	}
	res.Fields = fields
	res.Actions = actions

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"maturity_stage", fields.MaturityStage,
		"region", fields.Region,
		"instrument", fields.Instrument,
		"sdgs", len(fields.SDGs),
		"coercions", len(actions),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, rawJSON, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.log.Warn("openai response body close error", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(resp.Body)
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, buf.String())
	}

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	return buf.Bytes(), nil
}
