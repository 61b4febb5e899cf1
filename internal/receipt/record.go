package receipt

// Location is the merchant location on a receipt. All fields optional.
type Location struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Zipcode string `json:"zipcode"`
}

// LineItem is a single printed line item. Monetary values stay as
// display-precision strings at this layer to preserve the exact receipt
// formatting; the audit engine parses them when it needs arithmetic.
type LineItem struct {
	Description string `json:"description"`
	ProductCode string `json:"product_code"`
	Category    string `json:"category"`
	ItemPrice   string `json:"item_price"`
	SalePrice   string `json:"sale_price"`
	Quantity    string `json:"quantity"`
	Total       string `json:"total"`
}

// Record is the structured representation of a parsed receipt. There is no
// "absent" record, only an empty one: an extraction failure still yields a
// structurally valid Record with every field at its zero value, so consumers
// never null-check the container.
type Record struct {
	Merchant         string     `json:"merchant"`
	Location         Location   `json:"location"`
	Time             string     `json:"time"` // ISO-8601 preferred
	Items            []LineItem `json:"items"`
	TransactionID    string     `json:"transaction_id"`
	Subtotal         string     `json:"subtotal"`
	Tax              string     `json:"tax"`
	Total            string     `json:"total"`
	HandwrittenNotes []string   `json:"handwritten_notes"`
}

// EmptyRecord returns the guaranteed-fallback record: all fields at their
// defaults, slices non-nil so they serialize as [] instead of null.
func EmptyRecord() Record {
	return Record{
		Items:            []LineItem{},
		HandwrittenNotes: []string{},
	}
}

// Normalize fills nil slices so a decoded record keeps the empty-not-null
// invariant regardless of what the capability omitted.
func (r *Record) Normalize() {
	if r.Items == nil {
		r.Items = []LineItem{}
	}
	if r.HandwrittenNotes == nil {
		r.HandwrittenNotes = []string{}
	}
}

// IsEmpty reports whether the record carries no extracted content.
func (r Record) IsEmpty() bool {
	return r.Merchant == "" && r.Time == "" && r.TransactionID == "" &&
		r.Total == "" && r.Subtotal == "" && r.Tax == "" &&
		len(r.Items) == 0 && len(r.HandwrittenNotes) == 0 &&
		r.Location == Location{}
}
