package llm

import "strings"

// BuildExtractionPrompt composes the instruction for structured receipt
// extraction. The same instruction serves the image-grounded and
// text-grounded variants; only the attached context differs.
func BuildExtractionPrompt() string {
	parts := []string{
		"You are a receipts parser. Return ONLY JSON that matches the provided JSON Schema.",
		"Extract the merchant name, location (city, state, zipcode), transaction time (ISO-8601 preferred), transaction id, subtotal, tax, and total.",
		"List every printed line item in the order it appears on the receipt, with description, product code, category, item price, sale price, quantity, and line total where visible.",
		"Keep all monetary values exactly as printed (e.g. \"4.50\"), as strings. Do not reformat or recompute them.",
		"Transcribe any handwritten notes or annotations into 'handwritten_notes', one entry per note.",
		"Never output null. If a field is not present on the receipt, omit it.",
	}
	return strings.Join(parts, " ")
}

// BuildTextContextPrompt appends extracted document text to the extraction
// instruction for the text-grounded fallback.
func BuildTextContextPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Document text extracted from the receipt PDF:\n\n")
	// keep the prompt bounded; receipts fit comfortably in 6k chars
	if len(text) > 6000 {
		b.WriteString(text[:6000])
	} else {
		b.WriteString(text)
	}
	return b.String()
}

// BuildAuditPrompt composes the rule-evaluation instruction for a structured
// receipt record. The engine recomputes the numeric flags locally; the
// capability's judgment is authoritative only for travel-relatedness and the
// reasoning text.
func BuildAuditPrompt(recordJSON string) string {
	parts := []string{
		"You are an expense-audit evaluator. Return ONLY JSON that matches the provided JSON Schema.",
		"Evaluate the receipt record below against these rules:",
		"'not_travel_related' is true when the merchant and items are unrelated to travel expenses. Fuel, lodging, airfare, vehicle rental, and directly supporting expenses such as oil changes are travel-related.",
		"'amount_over_limit' is true when the total exceeds $50.00.",
		"'math_error' is true when the line item totals plus tax do not add up to the declared total.",
		"'handwritten_x' is true when any handwritten note contains the character X.",
		"Write a short 'reasoning' paragraph explaining each flag you set.",
		"\nReceipt record:\n" + recordJSON,
	}
	return strings.Join(parts, " ")
}
