package receipt

// AuditDecision is the outcome of the rule engine for one receipt.
// NeedsAudit is derived, never assigned independently: it is the OR of the
// four flags, enforced at construction so a capability response carrying an
// inconsistent needs_audit can never leak through.
type AuditDecision struct {
	NotTravelRelated bool   `json:"not_travel_related"`
	AmountOverLimit  bool   `json:"amount_over_limit"`
	MathError        bool   `json:"math_error"`
	HandwrittenX     bool   `json:"handwritten_x"`
	Reasoning        string `json:"reasoning"`
	NeedsAudit       bool   `json:"needs_audit"`
}

// NewAuditDecision builds a decision with NeedsAudit derived from the flags.
func NewAuditDecision(notTravel, overLimit, mathErr, handwrittenX bool, reasoning string) AuditDecision {
	return AuditDecision{
		NotTravelRelated: notTravel,
		AmountOverLimit:  overLimit,
		MathError:        mathErr,
		HandwrittenX:     handwrittenX,
		Reasoning:        reasoning,
		NeedsAudit:       notTravel || overLimit || mathErr || handwrittenX,
	}
}

// FailSafeDecision is the decision used when audit evaluation itself fails.
// It fails toward auditing, never toward skipping it.
func FailSafeDecision(reason string) AuditDecision {
	if reason == "" {
		reason = "audit evaluation failed"
	}
	return NewAuditDecision(true, false, false, false, reason)
}
