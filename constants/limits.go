package constants

// Pipeline defaults. All of these are overridable through configuration.
const (
	// MaxUploadBytesDefault bounds uploaded files at the HTTP boundary.
	MaxUploadBytesDefault = 10 * 1024 * 1024

	// RasterDPIDefault is the DPI used when rasterizing PDF pages for vision.
	RasterDPIDefault = 200

	// MaxRasterPagesDefault bounds rasterization; receipts are short documents.
	MaxRasterPagesDefault = 3

	// AuditLimitCentsDefault is the amount threshold for amount_over_limit.
	// Totals strictly above this are flagged.
	AuditLimitCentsDefault = 5000

	// MathToleranceCentsDefault is the inclusive reconciliation band for
	// math_error. A discrepancy at the band is not an error.
	MathToleranceCentsDefault = 2
)
