package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/numzy/receipt-processor/internal/llm"
	"github.com/numzy/receipt-processor/internal/receipt"
	"github.com/numzy/receipt-processor/internal/resilience"
)

// Engine evaluates the audit rules for one receipt record. One capability
// call supplies travel-relatedness and the reasoning text; the deterministic
// predicates are recomputed locally and override the capability's answer.
// The derived needs_audit comes from the AuditDecision constructor, never
// from the payload.
type Engine struct {
	evaluator llm.Evaluator
	exec      *resilience.Executor
	rules     Rules
	logger    *slog.Logger
}

func NewEngine(evaluator llm.Evaluator, exec *resilience.Executor, rules Rules, logger *slog.Logger) *Engine {
	if rules.LimitCents <= 0 {
		rules.LimitCents = DefaultRules().LimitCents
	}
	if rules.ToleranceCents < 0 {
		rules.ToleranceCents = DefaultRules().ToleranceCents
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{evaluator: evaluator, exec: exec, rules: rules, logger: logger}
}

// Evaluate never returns an error: an evaluation failure degrades to the
// fail-safe decision (needs_audit=true) rather than propagating.
func (e *Engine) Evaluate(ctx context.Context, rec receipt.Record) receipt.AuditDecision {
	recordJSON, err := json.Marshal(rec)
	if err != nil {
		e.logger.Error("audit.encode_record_failed", "error", err)
		return receipt.FailSafeDecision("audit evaluation failed: could not encode record")
	}

	req := llm.Request{
		Prompt:     llm.BuildAuditPrompt(string(recordJSON)),
		SchemaName: "audit",
		Schema:     llm.BuildAuditDecisionSchema(),
	}

	var payload []byte
	call := func(ctx context.Context) error {
		var err error
		payload, err = e.evaluator.Evaluate(ctx, req)
		return err
	}
	if e.exec != nil {
		err = e.exec.Execute(ctx, "audit.evaluate", call, resilience.CapabilityClassifier)
	} else {
		err = call(ctx)
	}
	if err != nil {
		e.logger.Error("audit.evaluate.failed", "error", err)
		return receipt.FailSafeDecision("audit evaluation failed: " + err.Error())
	}

	var model struct {
		NotTravelRelated bool   `json:"not_travel_related"`
		Reasoning        string `json:"reasoning"`
	}
	if err := json.Unmarshal(payload, &model); err != nil {
		e.logger.Error("audit.decode_failed", "error", err)
		return receipt.FailSafeDecision("audit evaluation failed: " + err.Error())
	}

	decision := receipt.NewAuditDecision(
		model.NotTravelRelated,
		e.rules.AmountOverLimit(rec),
		e.rules.MathError(rec),
		e.rules.HandwrittenX(rec),
		model.Reasoning,
	)

	e.logger.Info("audit.evaluate.ok",
		"not_travel_related", decision.NotTravelRelated,
		"amount_over_limit", decision.AmountOverLimit,
		"math_error", decision.MathError,
		"handwritten_x", decision.HandwrittenX,
		"needs_audit", decision.NeedsAudit,
	)
	return decision
}
