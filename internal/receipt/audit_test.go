package receipt

import (
	"encoding/json"
	"testing"
)

func TestNewAuditDecisionDerivesNeedsAudit(t *testing.T) {
	// Exhaustive over every flag combination: NeedsAudit must equal the OR.
	for mask := 0; mask < 16; mask++ {
		notTravel := mask&1 != 0
		overLimit := mask&2 != 0
		mathErr := mask&4 != 0
		handwritten := mask&8 != 0

		d := NewAuditDecision(notTravel, overLimit, mathErr, handwritten, "r")
		want := notTravel || overLimit || mathErr || handwritten
		if d.NeedsAudit != want {
			t.Errorf("mask %04b: NeedsAudit = %v, want %v", mask, d.NeedsAudit, want)
		}
	}
}

func TestFailSafeDecision(t *testing.T) {
	d := FailSafeDecision("")
	if !d.NeedsAudit {
		t.Fatal("fail-safe decision must need audit")
	}
	if d.Reasoning == "" {
		t.Fatal("fail-safe decision must carry a reasoning string")
	}

	d = FailSafeDecision("capability unavailable")
	if d.Reasoning != "capability unavailable" {
		t.Errorf("reasoning = %q", d.Reasoning)
	}
}

func TestEmptyRecordSerializesWithoutNulls(t *testing.T) {
	b, err := json.Marshal(EmptyRecord())
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	if m["items"] == nil {
		t.Error("items should serialize as [], not null")
	}
	if m["handwritten_notes"] == nil {
		t.Error("handwritten_notes should serialize as [], not null")
	}
	if m["merchant"] != "" {
		t.Errorf("merchant = %v, want empty string", m["merchant"])
	}
}

func TestRecordNormalizeFillsNilSlices(t *testing.T) {
	var r Record
	if err := json.Unmarshal([]byte(`{"merchant":"Shell"}`), &r); err != nil {
		t.Fatal(err)
	}
	r.Normalize()
	if r.Items == nil || r.HandwrittenNotes == nil {
		t.Error("Normalize must fill nil slices")
	}
	if r.IsEmpty() {
		t.Error("record with a merchant is not empty")
	}
	if !EmptyRecord().IsEmpty() {
		t.Error("EmptyRecord must report empty")
	}
}

func TestFailureResultIsStructurallyComplete(t *testing.T) {
	res := FailureResult("boom")
	if res.ProcessingSuccessful {
		t.Error("failure result must not report success")
	}
	if res.ErrorMessage == nil || *res.ErrorMessage != "boom" {
		t.Error("failure result must preserve the error message")
	}
	if !res.AuditDecision.NeedsAudit {
		t.Error("failure result must fail safe toward auditing")
	}
	if res.ReceiptDetails.Items == nil {
		t.Error("failure result must carry a complete empty record")
	}
}
