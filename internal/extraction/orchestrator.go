package extraction

import (
	"context"
	"log/slog"
	"strings"

	"github.com/numzy/receipt-processor/constants"
	"github.com/numzy/receipt-processor/internal/common"
	"github.com/numzy/receipt-processor/internal/document"
	"github.com/numzy/receipt-processor/internal/receipt"
)

// State enumerates the fallback chain. Transitions only move forward, so no
// attempt ever runs twice in one request.
type State int

const (
	StateVisionAttempt State = iota
	StateTextAttempt
	StateEmpty
)

// Extraction methods, reported alongside the record so callers and metrics
// can tell which attempt produced it.
const (
	MethodVision = "vision"
	MethodText   = "text"
	MethodEmpty  = "empty"
)

// Extractor is the adapter surface the orchestrator drives.
type Extractor interface {
	ExtractFromImage(ctx context.Context, pagePNG []byte) (receipt.Record, error)
	ExtractFromText(ctx context.Context, text string) (receipt.Record, error)
}

// TextSource supplies a document's embedded text layer for the fallback.
type TextSource interface {
	TextLayer(doc document.Normalized) string
}

// Orchestrator drives vision-first extraction with a text fallback and a
// guaranteed empty-record terminal state. It never errors to its caller:
// exhaustion degrades to receipt.EmptyRecord().
type Orchestrator struct {
	extractor Extractor
	texts     TextSource
	logger    *slog.Logger
}

func NewOrchestrator(extractor Extractor, texts TextSource, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{extractor: extractor, texts: texts, logger: logger}
}

// NextState returns the state that follows a failed (or structurally
// skipped) attempt. The text attempt is guarded on document kind: images
// have no text layer, so they skip it structurally rather than by failing.
func NextState(from State, kind constants.DocumentKind) State {
	if from == StateVisionAttempt && kind == constants.KindPDF {
		return StateTextAttempt
	}
	return StateEmpty
}

// Run executes the fallback chain for one normalized document and returns
// the extracted record plus the method that produced it.
func (o *Orchestrator) Run(ctx context.Context, doc document.Normalized) (receipt.Record, string) {
	state := StateVisionAttempt
	for {
		switch state {
		case StateVisionAttempt:
			if len(doc.Pages) == 0 {
				o.logger.Debug("extract.vision.skipped", "reason", "no pages", "kind", doc.Kind)
				state = NextState(state, doc.Kind)
				continue
			}
			rec, err := o.extractor.ExtractFromImage(ctx, doc.Pages[0])
			if err == nil {
				o.logger.Info("extract.vision.ok", "items", len(rec.Items))
				return rec, MethodVision
			}
			// no vision retry here: one failed attempt transitions to text
			o.logFailure("extract.vision.failed", err)
			state = NextState(state, doc.Kind)

		case StateTextAttempt:
			text := o.texts.TextLayer(doc)
			if strings.TrimSpace(text) == "" {
				o.logger.Debug("extract.text.skipped", "reason", "empty text layer")
				state = NextState(state, doc.Kind)
				continue
			}
			rec, err := o.extractor.ExtractFromText(ctx, text)
			if err == nil {
				o.logger.Info("extract.text.ok", "items", len(rec.Items))
				return rec, MethodText
			}
			o.logFailure("extract.text.failed", err)
			state = NextState(state, doc.Kind)

		case StateEmpty:
			o.logger.Info("extract.empty", "kind", doc.Kind)
			return receipt.EmptyRecord(), MethodEmpty
		}
	}
}

// logFailure keeps the fallback quiet for expected capability degradation
// and loud for anything else.
func (o *Orchestrator) logFailure(event string, err error) {
	if common.IsRecoverable(err) {
		o.logger.Warn(event, "error", err)
		return
	}
	o.logger.Error(event, "error", err)
}
