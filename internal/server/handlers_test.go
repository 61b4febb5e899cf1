package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/numzy/receipt-processor/internal/audit"
	"github.com/numzy/receipt-processor/internal/common"
	"github.com/numzy/receipt-processor/internal/receipt"
)

type processorStub struct {
	result   receipt.ProcessingResult
	calls    int
	lastType string
	lastSize int
}

func (s *processorStub) Process(_ context.Context, data []byte, contentType string) receipt.ProcessingResult {
	s.calls++
	s.lastType = contentType
	s.lastSize = len(data)
	return s.result
}

func newTestServer(proc Processor, maxUpload int64) *Server {
	cfg := common.ServerConfig{
		HTTPAddr:       ":0",
		MaxUploadBytes: maxUpload,
		CORSOrigins:    []string{"*"},
	}
	return New(cfg, proc, audit.DefaultRules(), nil, slog.New(slog.DiscardHandler))
}

func multipartUpload(t *testing.T, field, filename, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return body, writer.FormDataContentType()
}

func TestProcessReceiptSuccess(t *testing.T) {
	stub := &processorStub{result: receipt.SuccessResult(
		receipt.Record{Merchant: "Roadside Fuel", Total: "45.00"},
		receipt.NewAuditDecision(false, false, false, false, "fuel purchase"),
	)}
	srv := newTestServer(stub, 0)

	body, contentType := multipartUpload(t, "file", "receipt.png", "image/png", []byte{0x89, 'P', 'N', 'G'})
	req := httptest.NewRequest(http.MethodPost, "/api/process-receipt", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result receipt.ProcessingResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.ProcessingSuccessful || result.ReceiptDetails.Merchant != "Roadside Fuel" {
		t.Errorf("unexpected envelope: %+v", result)
	}
	if stub.calls != 1 || stub.lastType != "image/png" || stub.lastSize != 4 {
		t.Errorf("processor received (%d calls, %q, %d bytes)", stub.calls, stub.lastType, stub.lastSize)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("response must carry a request id")
	}
}

func TestProcessReceiptMissingFile(t *testing.T) {
	stub := &processorStub{}
	srv := newTestServer(stub, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/process-receipt", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if stub.calls != 0 {
		t.Error("processor must not run without an upload")
	}
}

func TestProcessReceiptUnsupportedType(t *testing.T) {
	stub := &processorStub{}
	srv := newTestServer(stub, 0)

	body, contentType := multipartUpload(t, "file", "notes.txt", "text/plain", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/api/process-receipt", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body2 map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body2); err != nil {
		t.Fatal(err)
	}
	if body2["detail"] == "" {
		t.Error("error body must carry a detail message")
	}
	if stub.calls != 0 {
		t.Error("unsupported uploads must be rejected before the pipeline")
	}
}

func TestProcessReceiptEmptyFile(t *testing.T) {
	stub := &processorStub{}
	srv := newTestServer(stub, 0)

	body, contentType := multipartUpload(t, "file", "receipt.pdf", "application/pdf", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/process-receipt", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if stub.calls != 0 {
		t.Error("empty uploads must be rejected before the pipeline")
	}
}

func TestProcessReceiptOversized(t *testing.T) {
	stub := &processorStub{}
	srv := newTestServer(stub, 16)

	body, contentType := multipartUpload(t, "file", "receipt.pdf", "application/pdf", bytes.Repeat([]byte{'a'}, 64))
	req := httptest.NewRequest(http.MethodPost, "/api/process-receipt", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", rec.Code)
	}
	if stub.calls != 0 {
		t.Error("oversized uploads must be rejected before the pipeline")
	}
}

func TestProcessReceiptContentTypeParamsStripped(t *testing.T) {
	stub := &processorStub{result: receipt.SuccessResult(
		receipt.EmptyRecord(), receipt.FailSafeDecision("nothing extracted"),
	)}
	srv := newTestServer(stub, 0)

	body, contentType := multipartUpload(t, "file", "receipt.jpg", "IMAGE/JPEG; charset=binary", []byte{0xff, 0xd8, 0xff})
	req := httptest.NewRequest(http.MethodPost, "/api/process-receipt", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if stub.lastType != "image/jpeg" {
		t.Errorf("content type not normalized: %q", stub.lastType)
	}
}

func TestValidateReceiptValid(t *testing.T) {
	srv := newTestServer(&processorStub{}, 0)

	body := `{"merchant":"Roadside Fuel","time":"2025-03-01T10:00:00Z","items":[{"description":"Unleaded Gasoline","total":"42.00"}],"tax":"3.00","total":"45.00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/validate-receipt", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result audit.ValidationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.Valid || len(result.Errors) != 0 {
		t.Errorf("clean record must validate: %+v", result)
	}
	if result.Flags.NeedsReview {
		t.Errorf("no flags expected: %+v", result.Flags)
	}
}

func TestValidateReceiptMissingFields(t *testing.T) {
	srv := newTestServer(&processorStub{}, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/validate-receipt", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result audit.ValidationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Valid {
		t.Error("record without merchant/time/total must not validate")
	}
	if len(result.Errors) == 0 {
		t.Error("missing fields must be reported")
	}
	if !result.Flags.NeedsReview {
		t.Error("invalid record must be flagged for review")
	}
}

func TestValidateReceiptFlagsMathError(t *testing.T) {
	srv := newTestServer(&processorStub{}, 0)

	body := `{"merchant":"Roadside Fuel","time":"2025-03-01T10:00:00Z","items":[{"description":"Diesel","total":"10.00"}],"tax":"1.00","total":"20.00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/validate-receipt", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	var result audit.ValidationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.Valid {
		t.Errorf("structurally complete record must validate: %+v", result)
	}
	if !result.Flags.MathError || !result.Flags.NeedsReview {
		t.Errorf("unreconciled total must raise math_error and needs_review: %+v", result.Flags)
	}
}

func TestValidateReceiptBadJSON(t *testing.T) {
	srv := newTestServer(&processorStub{}, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/validate-receipt", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&processorStub{}, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected health body %s", rec.Body.String())
	}
}
