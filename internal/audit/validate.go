package audit

import (
	"strings"

	"github.com/numzy/receipt-processor/internal/receipt"
)

// ValidationFlags are the deterministic audit flags raised during structural
// validation. Travel-relatedness needs the capability and is not part of
// this surface.
type ValidationFlags struct {
	AmountOverLimit bool `json:"amount_over_limit"`
	MathError       bool `json:"math_error"`
	HandwrittenX    bool `json:"handwritten_x"`
	NeedsReview     bool `json:"needs_review"`
}

// ValidationResult reports whether a posted receipt record is structurally
// usable, with per-field errors and the deterministic audit flags.
type ValidationResult struct {
	Valid  bool            `json:"valid"`
	Errors []string        `json:"errors"`
	Flags  ValidationFlags `json:"audit_flags"`
}

// Validate checks an already-structured record without a capability call:
// required-field presence plus the deterministic predicates. NeedsReview is
// raised by any error or any flag.
func (r Rules) Validate(rec receipt.Record) ValidationResult {
	errs := []string{}

	if strings.TrimSpace(rec.Merchant) == "" {
		errs = append(errs, "merchant name cannot be empty")
	}
	if strings.TrimSpace(rec.Time) == "" {
		errs = append(errs, "transaction time is required")
	}
	if strings.TrimSpace(rec.Total) == "" {
		errs = append(errs, "total is required")
	} else if total, ok := ParseCents(rec.Total); !ok {
		errs = append(errs, "total must be a monetary amount")
	} else if total <= 0 {
		errs = append(errs, "total must be positive")
	}

	flags := ValidationFlags{
		AmountOverLimit: r.AmountOverLimit(rec),
		MathError:       r.MathError(rec),
		HandwrittenX:    r.HandwrittenX(rec),
	}
	flags.NeedsReview = len(errs) > 0 || flags.AmountOverLimit || flags.MathError || flags.HandwrittenX

	return ValidationResult{
		Valid:  len(errs) == 0,
		Errors: errs,
		Flags:  flags,
	}
}
