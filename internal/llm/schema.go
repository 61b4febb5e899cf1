package llm

// BuildReceiptRecordSchema returns a JSON-Schema (draft 2020-12 subset) for
// the structured receipt record, as a generic map. It is passed to the
// capability as a structured output constraint and used locally to validate
// the response. Every field is optional: absence is a valid, common state on
// real receipts.
func BuildReceiptRecordSchema() map[string]any {
	lineItem := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"description":  map[string]any{"type": "string"},
			"product_code": map[string]any{"type": "string"},
			"category":     map[string]any{"type": "string"},
			"item_price":   map[string]any{"type": "string"},
			"sale_price":   map[string]any{"type": "string"},
			"quantity":     map[string]any{"type": "string"},
			"total":        map[string]any{"type": "string"},
		},
	}

	location := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"city":    map[string]any{"type": "string"},
			"state":   map[string]any{"type": "string"},
			"zipcode": map[string]any{"type": "string"},
		},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"merchant":          map[string]any{"type": "string"},
			"location":          location,
			"time":              map[string]any{"type": "string"},
			"items":             map[string]any{"type": "array", "items": lineItem},
			"transaction_id":    map[string]any{"type": "string"},
			"subtotal":          map[string]any{"type": "string"},
			"tax":               map[string]any{"type": "string"},
			"total":             map[string]any{"type": "string"},
			"handwritten_notes": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	}
}

// BuildAuditDecisionSchema returns the JSON-Schema for the audit decision.
// The capability must return all four flags plus reasoning; needs_audit is
// tolerated in the payload but the engine recomputes it locally.
func BuildAuditDecisionSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"not_travel_related": map[string]any{"type": "boolean"},
			"amount_over_limit":  map[string]any{"type": "boolean"},
			"math_error":         map[string]any{"type": "boolean"},
			"handwritten_x":      map[string]any{"type": "boolean"},
			"reasoning":          map[string]any{"type": "string"},
			"needs_audit":        map[string]any{"type": "boolean"},
		},
		"required": []string{"not_travel_related", "amount_over_limit", "math_error", "handwritten_x", "reasoning"},
	}
}
