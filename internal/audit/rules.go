package audit

import (
	"strings"

	"github.com/numzy/receipt-processor/constants"
	"github.com/numzy/receipt-processor/internal/receipt"
)

// Rules holds the deterministic audit thresholds. These three predicates are
// computed locally from the record; the capability's opinion on them is
// discarded so the boundaries in this file are the single source of truth.
type Rules struct {
	LimitCents     int64 // amount_over_limit threshold, strictly above flags
	ToleranceCents int64 // inclusive reconciliation band for math_error
}

func DefaultRules() Rules {
	return Rules{
		LimitCents:     constants.AuditLimitCentsDefault,
		ToleranceCents: constants.MathToleranceCentsDefault,
	}
}

// AmountOverLimit reports whether the declared total strictly exceeds the
// limit. An exact-limit total passes; an unparseable or missing total cannot
// be over the limit.
func (r Rules) AmountOverLimit(rec receipt.Record) bool {
	total, ok := ParseCents(rec.Total)
	if !ok {
		return false
	}
	return total > r.LimitCents
}

// MathError reports whether summed line-item totals plus tax fail to
// reconcile with the declared total. A discrepancy inside the tolerance band
// (inclusive) is not an error. Receipts without a parseable total or without
// any parseable item totals cannot be reconciled and are not flagged.
func (r Rules) MathError(rec receipt.Record) bool {
	total, ok := ParseCents(rec.Total)
	if !ok {
		return false
	}

	var itemSum int64
	counted := 0
	for _, item := range rec.Items {
		if cents, ok := ParseCents(item.Total); ok {
			itemSum += cents
			counted++
		}
	}
	if counted == 0 {
		return false
	}

	var tax int64
	if cents, ok := ParseCents(rec.Tax); ok {
		tax = cents
	}

	diff := itemSum + tax - total
	if diff < 0 {
		diff = -diff
	}
	return diff > r.ToleranceCents
}

// HandwrittenX reports whether any handwritten note contains the character
// X. Matching is case-insensitive: the conservative reading errs toward
// auditing.
func (r Rules) HandwrittenX(rec receipt.Record) bool {
	for _, note := range rec.HandwrittenNotes {
		if strings.ContainsAny(note, "Xx") {
			return true
		}
	}
	return false
}
