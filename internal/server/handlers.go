package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/numzy/receipt-processor/constants"
	"github.com/numzy/receipt-processor/internal/audit"
	"github.com/numzy/receipt-processor/internal/common"
	"github.com/numzy/receipt-processor/internal/receipt"
)

// Processor runs the extraction-to-audit pipeline for one upload.
type Processor interface {
	Process(ctx context.Context, data []byte, contentType string) receipt.ProcessingResult
}

type Handler struct {
	proc           Processor
	rules          audit.Rules
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewHandler(proc Processor, rules audit.Rules, maxUploadBytes int64, logger *slog.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = constants.MaxUploadBytesDefault
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{proc: proc, rules: rules, maxUploadBytes: maxUploadBytes, logger: logger}
}

type errorBody struct {
	Detail string `json:"detail"`
}

func (h *Handler) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"name":    serviceName,
		"version": "1.0.0",
		"endpoints": map[string]string{
			"process_receipt":  "POST /api/process-receipt",
			"validate_receipt": "POST /api/validate-receipt",
			"health":           "GET /api/health",
			"metrics":          "GET /metrics",
		},
	})
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ProcessReceipt accepts a multipart upload under the "file" field and
// returns a complete ProcessingResult envelope. Upload validation failures
// are client errors; anything past validation comes back 200 with the
// outcome encoded in the envelope.
func (h *Handler) ProcessReceipt(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "multipart field 'file' is required"})
	}

	contentType := constants.NormalizeContentType(fileHeader.Header.Get("Content-Type"))
	if !constants.IsAllowedContentType(contentType) {
		return c.JSON(http.StatusUnsupportedMediaType, errorBody{
			Detail: fmt.Sprintf("unsupported content type %q", contentType),
		})
	}

	if fileHeader.Size > h.maxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, errorBody{
			Detail: fmt.Sprintf("file exceeds the %d byte upload limit", h.maxUploadBytes),
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "could not open uploaded file"})
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxUploadBytes+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "could not read uploaded file"})
	}
	if int64(len(data)) > h.maxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, errorBody{
			Detail: fmt.Sprintf("file exceeds the %d byte upload limit", h.maxUploadBytes),
		})
	}
	if len(data) == 0 {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "uploaded file is empty"})
	}

	ctx := c.Request().Context()
	h.logger.Info("http.process_receipt",
		"request_id", common.RequestIDFromContext(ctx),
		"content_type", contentType,
		"size", len(data),
	)

	result := h.proc.Process(ctx, data, contentType)
	return c.JSON(http.StatusOK, result)
}

// ValidateReceipt validates an already-structured receipt record posted as
// JSON. No extraction or capability call happens here: the response carries
// structural errors plus the deterministic audit flags.
func (h *Handler) ValidateReceipt(c echo.Context) error {
	var rec receipt.Record
	if err := c.Bind(&rec); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "request body must be a receipt record"})
	}
	rec.Normalize()

	result := h.rules.Validate(rec)
	h.logger.Info("http.validate_receipt",
		"request_id", common.RequestIDFromContext(c.Request().Context()),
		"valid", result.Valid,
		"errors", len(result.Errors),
		"needs_review", result.Flags.NeedsReview,
	)
	return c.JSON(http.StatusOK, result)
}
