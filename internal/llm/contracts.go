package llm

import "context"

// Request is one schema-constrained evaluation call. Exactly one of
// ImageDataURL or Context carries the grounding; Prompt is the instruction.
type Request struct {
	Prompt       string
	ImageDataURL string         // base64 data: URI for vision-grounded calls
	Context      string         // plain-text context for text-grounded calls
	SchemaName   string         // short label for logs ("receipt", "audit")
	Schema       map[string]any // JSON-Schema the response must satisfy
}

// Evaluator is the capability interface the pipeline depends on. An
// implementation sends the request to an external structured-extraction
// service and returns the response payload, already validated against
// req.Schema. Any provider satisfying this contract is substitutable, and
// tests use a deterministic stub.
type Evaluator interface {
	Evaluate(ctx context.Context, req Request) ([]byte, error)
}
