package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/numzy/receipt-processor/internal/common"
	"github.com/numzy/receipt-processor/internal/llm"
)

// Client implements llm.Evaluator using Google Gemini. The schema travels in
// the prompt and is enforced by the same local validation gate as the OpenAI
// client, so both providers surface identical typed failures.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	log    *slog.Logger
}

func NewClient(ctx context.Context, apiKey, modelName string, temperature float32, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.ResponseMIMEType = "application/json"

	return &Client{client: client, model: model, log: logger}, nil
}

// Evaluate sends the request to Gemini and validates the response payload
// against the request schema before returning it.
func (c *Client) Evaluate(ctx context.Context, req llm.Request) ([]byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.evaluate.start",
		"req_id", rid,
		"provider", "gemini",
		"schema", req.SchemaName,
		"has_image", req.ImageDataURL != "",
		"context_len", len(req.Context),
	)

	prompt := req.Prompt + "\n\nJSON Schema:\n" + mustJSON(req.Schema)
	parts := []genai.Part{}
	if req.ImageDataURL != "" {
		img, err := decodeDataURL(req.ImageDataURL)
		if err != nil {
			return nil, fmt.Errorf("decode image data url: %w", err)
		}
		parts = append(parts, genai.ImageData("png", img))
	}
	if req.Context != "" {
		prompt += "\n\n" + req.Context
	}
	parts = append(parts, genai.Text(prompt))

	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		c.log.Error("llm.evaluate.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("%w: generating content: %w", common.ErrTransport, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no candidates from gemini: %w", common.ErrEmptyResponse)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	content, dropped, err := llm.CleanModelJSON([]byte(text.String()))
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

// Close closes the underlying Gemini client.
func (c *Client) Close() error {
	return c.client.Close()
}

func decodeDataURL(u string) ([]byte, error) {
	i := strings.IndexByte(u, ',')
	if i < 0 || !strings.HasPrefix(u, "data:") {
		return nil, fmt.Errorf("not a data url")
	}
	return base64.StdEncoding.DecodeString(u[i+1:])
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
