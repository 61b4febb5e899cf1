package extraction

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/numzy/receipt-processor/internal/common"
	"github.com/numzy/receipt-processor/internal/llm"
	"github.com/numzy/receipt-processor/internal/receipt"
	"github.com/numzy/receipt-processor/internal/resilience"
)

// Adapter translates normalized pages or document text into
// schema-constrained capability calls and decodes the validated payload into
// a receipt.Record. Both variants share the receipt schema and the same
// validation path inside the evaluator.
type Adapter struct {
	evaluator llm.Evaluator
	exec      *resilience.Executor
	logger    *slog.Logger
}

func NewAdapter(evaluator llm.Evaluator, exec *resilience.Executor, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{evaluator: evaluator, exec: exec, logger: logger}
}

// ExtractFromImage runs the image-grounded variant against one page image.
func (a *Adapter) ExtractFromImage(ctx context.Context, pagePNG []byte) (receipt.Record, error) {
	req := llm.Request{
		Prompt:       llm.BuildExtractionPrompt(),
		ImageDataURL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(pagePNG),
		SchemaName:   "receipt",
		Schema:       llm.BuildReceiptRecordSchema(),
	}
	return a.extract(ctx, "extract.vision", req)
}

// ExtractFromText runs the text-grounded variant against the document's
// embedded text layer.
func (a *Adapter) ExtractFromText(ctx context.Context, text string) (receipt.Record, error) {
	if strings.TrimSpace(text) == "" {
		return receipt.Record{}, fmt.Errorf("no text to extract from: %w", common.ErrEmptyResponse)
	}
	req := llm.Request{
		Prompt:     llm.BuildExtractionPrompt(),
		Context:    llm.BuildTextContextPrompt(text),
		SchemaName: "receipt",
		Schema:     llm.BuildReceiptRecordSchema(),
	}
	return a.extract(ctx, "extract.text", req)
}

func (a *Adapter) extract(ctx context.Context, operation string, req llm.Request) (receipt.Record, error) {
	var payload []byte
	call := func(ctx context.Context) error {
		var err error
		payload, err = a.evaluator.Evaluate(ctx, req)
		return err
	}

	var err error
	if a.exec != nil {
		err = a.exec.Execute(ctx, operation, call, resilience.CapabilityClassifier)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return receipt.Record{}, fmt.Errorf("%s: %w", operation, err)
	}

	var rec receipt.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		// the payload passed schema validation, so this is a programming
		// error in the schema/type pairing, not model noise
		return receipt.Record{}, fmt.Errorf("%s: decode validated payload: %w: %w", operation, common.ErrInternal, err)
	}
	rec.Normalize()
	return rec, nil
}
