package receipt

// ProcessingResult is the response envelope for one processed upload.
// It is constructed once, never mutated after assembly, and is always
// structurally complete: even a failed request carries an empty Record and a
// fail-safe AuditDecision.
type ProcessingResult struct {
	ReceiptDetails       Record        `json:"receipt_details"`
	AuditDecision        AuditDecision `json:"audit_decision"`
	ProcessingSuccessful bool          `json:"processing_successful"`
	ErrorMessage         *string       `json:"error_message"`
}

// SuccessResult assembles the envelope for a completed pipeline run.
func SuccessResult(rec Record, decision AuditDecision) ProcessingResult {
	rec.Normalize()
	return ProcessingResult{
		ReceiptDetails:       rec,
		AuditDecision:        decision,
		ProcessingSuccessful: true,
	}
}

// FailureResult assembles the envelope for an unrecoverable error. The caller
// still receives a complete structure with the conservative audit default.
func FailureResult(errorMessage string) ProcessingResult {
	msg := errorMessage
	return ProcessingResult{
		ReceiptDetails:       EmptyRecord(),
		AuditDecision:        FailSafeDecision("processing failed before audit: " + errorMessage),
		ProcessingSuccessful: false,
		ErrorMessage:         &msg,
	}
}
