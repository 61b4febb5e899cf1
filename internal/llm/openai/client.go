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

	"github.com/numzy/receipt-processor/internal/common"
	"github.com/numzy/receipt-processor/internal/llm"
)

// Evaluate implements llm.Evaluator using chat/completions. The target schema
// travels both as a structured-output hint in a system message and as the
// local validation gate: whatever the model returns is validated before the
// payload leaves this client.
func (c *Client) Evaluate(ctx context.Context, req llm.Request) ([]byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.evaluate.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"schema", req.SchemaName,
		"has_image", req.ImageDataURL != "",
		"context_len", len(req.Context),
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": req.Prompt},
			{"role": "user", "content": c.userContent(req)},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(req.Schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.log.Error("llm.evaluate.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("%w: %w", common.ErrTransport, err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.evaluate.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("decode openai response: %w: %w", common.ErrTransport, err)
	}
	if len(cc.Choices) == 0 || strings.TrimSpace(cc.Choices[0].Message.Content) == "" {
		c.log.Error("llm.evaluate.no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("no choices in openai response: %w", common.ErrEmptyResponse)
	}

	content, dropped, err := llm.CleanModelJSON([]byte(cc.Choices[0].Message.Content))
	if err != nil {
		return nil, fmt.Errorf("clean payload: %w: %w", common.ErrEmptyResponse, err)
	}
	if len(dropped) > 0 {
		c.log.Warn("llm.evaluate.nulls_dropped", "req_id", rid, "dropped", dropped)
	}

	if err := llm.ValidateJSONAgainstSchema(req.Schema, content); err != nil {
		c.log.Error("llm.evaluate.schema_validation_failed",
			"req_id", rid, "schema", req.SchemaName, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	c.log.Info("llm.evaluate.ok",
		"req_id", rid,
		"schema", req.SchemaName,
		"bytes", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

// userContent builds the user message: a multi-part payload when an image is
// attached, plain text otherwise.
func (c *Client) userContent(req llm.Request) any {
	if req.ImageDataURL != "" {
		return []map[string]any{
			{"type": "text", "text": "Extract the structured data from this receipt image."},
			{"type": "image_url", "image_url": map[string]any{"url": req.ImageDataURL}},
		}
	}
	return req.Context
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

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, raw)
	}
	return raw, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
