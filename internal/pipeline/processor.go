package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/numzy/receipt-processor/internal/document"
	"github.com/numzy/receipt-processor/internal/observability/metrics"
	"github.com/numzy/receipt-processor/internal/receipt"
)

// Normalizer turns a raw upload into a typed document.
type Normalizer interface {
	Normalize(data []byte, declaredType string) (document.Normalized, error)
}

// Extractor produces a receipt record from a normalized document along with
// the extraction method that yielded it.
type Extractor interface {
	Run(ctx context.Context, doc document.Normalized) (receipt.Record, string)
}

// Auditor applies the audit rules to an extracted record.
type Auditor interface {
	Evaluate(ctx context.Context, rec receipt.Record) receipt.AuditDecision
}

// Processor is the outermost pipeline boundary: normalize, extract, audit,
// assemble. It never lets an error or panic escape as a transport failure;
// every outcome is a complete ProcessingResult.
type Processor struct {
	service    string
	normalizer Normalizer
	extractor  Extractor
	auditor    Auditor
	metrics    *metrics.PipelineMetrics
	logger     *slog.Logger
}

func NewProcessor(
	service string,
	normalizer Normalizer,
	extractor Extractor,
	auditor Auditor,
	m *metrics.PipelineMetrics,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		service:    service,
		normalizer: normalizer,
		extractor:  extractor,
		auditor:    auditor,
		metrics:    m,
		logger:     logger,
	}
}

func (p *Processor) Process(ctx context.Context, data []byte, contentType string) (result receipt.ProcessingResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline.panic", "panic", fmt.Sprintf("%v", r))
			result = receipt.FailureResult(fmt.Sprintf("internal error: %v", r))
		}
		status := "success"
		if !result.ProcessingSuccessful {
			status = "failure"
		}
		if p.metrics != nil {
			p.metrics.RecordProcess(p.service, status, time.Since(start))
			p.recordFlags(result.AuditDecision)
		}
	}()

	doc, err := p.normalizer.Normalize(data, contentType)
	if err != nil {
		p.logger.Warn("pipeline.normalize.failed", "content_type", contentType, "error", err)
		return receipt.FailureResult("document normalization failed: " + err.Error())
	}

	rec, method := p.extractor.Run(ctx, doc)
	if p.metrics != nil {
		outcome := "ok"
		if rec.IsEmpty() {
			outcome = "empty"
		}
		p.metrics.RecordExtraction(p.service, method, outcome)
	}
	p.logger.Info("pipeline.extracted",
		"kind", string(doc.Kind),
		"method", method,
		"empty", rec.IsEmpty(),
	)

	decision := p.auditor.Evaluate(ctx, rec)

	return receipt.SuccessResult(rec, decision)
}

func (p *Processor) recordFlags(d receipt.AuditDecision) {
	if d.NotTravelRelated {
		p.metrics.RecordAuditFlag(p.service, "not_travel_related")
	}
	if d.AmountOverLimit {
		p.metrics.RecordAuditFlag(p.service, "amount_over_limit")
	}
	if d.MathError {
		p.metrics.RecordAuditFlag(p.service, "math_error")
	}
	if d.HandwrittenX {
		p.metrics.RecordAuditFlag(p.service, "handwritten_x")
	}
}
