package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/numzy/receipt-processor/constants"
	"github.com/numzy/receipt-processor/internal/document"
	"github.com/numzy/receipt-processor/internal/receipt"
)

type extractorFake struct {
	visionRec   receipt.Record
	visionErr   error
	visionCalls int

	textRec   receipt.Record
	textErr   error
	textCalls int
}

func (f *extractorFake) ExtractFromImage(context.Context, []byte) (receipt.Record, error) {
	f.visionCalls++
	if f.visionErr != nil {
		return receipt.Record{}, f.visionErr
	}
	return f.visionRec, nil
}

func (f *extractorFake) ExtractFromText(context.Context, string) (receipt.Record, error) {
	f.textCalls++
	if f.textErr != nil {
		return receipt.Record{}, f.textErr
	}
	return f.textRec, nil
}

type textSourceFake struct {
	text  string
	calls int
}

func (f *textSourceFake) TextLayer(document.Normalized) string {
	f.calls++
	return f.text
}

func pdfDoc(pages int) document.Normalized {
	doc := document.Normalized{Kind: constants.KindPDF, Pages: [][]byte{}}
	for i := 0; i < pages; i++ {
		doc.Pages = append(doc.Pages, []byte("png"))
	}
	return doc
}

func imageDoc(pages int) document.Normalized {
	doc := document.Normalized{Kind: constants.KindImage, Pages: [][]byte{}}
	for i := 0; i < pages; i++ {
		doc.Pages = append(doc.Pages, []byte("png"))
	}
	return doc
}

func TestNextStateGuards(t *testing.T) {
	if got := NextState(StateVisionAttempt, constants.KindPDF); got != StateTextAttempt {
		t.Errorf("pdf after vision = %v, want TextAttempt", got)
	}
	if got := NextState(StateVisionAttempt, constants.KindImage); got != StateEmpty {
		t.Errorf("image after vision = %v, want Empty", got)
	}
	if got := NextState(StateTextAttempt, constants.KindPDF); got != StateEmpty {
		t.Errorf("pdf after text = %v, want Empty", got)
	}
}

func TestVisionSuccessIsTerminal(t *testing.T) {
	fake := &extractorFake{visionRec: receipt.Record{Merchant: "Shell"}}
	texts := &textSourceFake{text: "should not be read"}
	o := NewOrchestrator(fake, texts, nil)

	rec, method := o.Run(context.Background(), pdfDoc(2))
	if method != MethodVision {
		t.Errorf("method = %q, want vision", method)
	}
	if rec.Merchant != "Shell" {
		t.Errorf("merchant = %q", rec.Merchant)
	}
	if fake.visionCalls != 1 || fake.textCalls != 0 || texts.calls != 0 {
		t.Errorf("calls: vision=%d text=%d textlayer=%d", fake.visionCalls, fake.textCalls, texts.calls)
	}
}

func TestVisionFailureFallsBackToTextOnce(t *testing.T) {
	fake := &extractorFake{
		visionErr: errors.New("vision down"),
		textRec:   receipt.Record{Merchant: "Shell"},
	}
	texts := &textSourceFake{text: "SHELL\nUnleaded 10gal 45.00"}
	o := NewOrchestrator(fake, texts, nil)

	rec, method := o.Run(context.Background(), pdfDoc(1))
	if method != MethodText {
		t.Errorf("method = %q, want text", method)
	}
	if rec.Merchant != "Shell" {
		t.Errorf("merchant = %q", rec.Merchant)
	}
	if fake.visionCalls != 1 {
		t.Errorf("vision attempted %d times, want exactly 1", fake.visionCalls)
	}
	if fake.textCalls != 1 {
		t.Errorf("text attempted %d times, want exactly 1", fake.textCalls)
	}
}

func TestImageKindSkipsTextStructurally(t *testing.T) {
	fake := &extractorFake{visionErr: errors.New("vision down")}
	texts := &textSourceFake{text: "this would succeed if consulted"}
	o := NewOrchestrator(fake, texts, nil)

	rec, method := o.Run(context.Background(), imageDoc(1))
	if method != MethodEmpty {
		t.Errorf("method = %q, want empty", method)
	}
	if texts.calls != 0 {
		t.Error("image kind must never consult the text layer")
	}
	if fake.textCalls != 0 {
		t.Error("image kind must never attempt text extraction")
	}
	if !rec.IsEmpty() {
		t.Error("exhausted chain must return the empty record")
	}
}

func TestEmptyTextLayerExhaustsToEmptyRecord(t *testing.T) {
	fake := &extractorFake{visionErr: errors.New("vision down")}
	texts := &textSourceFake{text: "   \n  "}
	o := NewOrchestrator(fake, texts, nil)

	rec, method := o.Run(context.Background(), pdfDoc(1))
	if method != MethodEmpty {
		t.Errorf("method = %q, want empty", method)
	}
	if fake.textCalls != 0 {
		t.Error("blank text layer must not reach the adapter")
	}
	if rec.Items == nil || rec.HandwrittenNotes == nil {
		t.Error("empty record must keep non-nil slices")
	}
}

func TestNoPagesNoTextIsEmptyWithoutVision(t *testing.T) {
	fake := &extractorFake{}
	texts := &textSourceFake{}
	o := NewOrchestrator(fake, texts, nil)

	// corrupt image: sniffed as image but produced no pages
	_, method := o.Run(context.Background(), imageDoc(0))
	if method != MethodEmpty {
		t.Errorf("method = %q, want empty", method)
	}
	if fake.visionCalls != 0 {
		t.Error("no pages means vision must not be attempted")
	}
}
