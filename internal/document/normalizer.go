package document

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"log/slog"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	"github.com/ledongthuc/pdf"

	"github.com/numzy/receipt-processor/constants"
	"github.com/numzy/receipt-processor/internal/common"
)

// Config bounds rasterization cost. Receipts are short documents, so only
// the leading pages are ever rendered.
type Config struct {
	RasterDPI int // default 200
	MaxPages  int // default 3
}

// Normalized is one upload after classification: the sniffed kind, the
// rasterized (or validated) page images as PNG in printed order, and the
// source bytes retained for the lazy text-layer fallback.
type Normalized struct {
	Kind   constants.DocumentKind
	Pages  [][]byte
	source []byte
}

// Normalizer classifies raw uploads and produces page images for vision
// extraction.
type Normalizer struct {
	cfg    Config
	logger *slog.Logger
}

func NewNormalizer(cfg Config, logger *slog.Logger) *Normalizer {
	if cfg.RasterDPI <= 0 {
		cfg.RasterDPI = constants.RasterDPIDefault
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = constants.MaxRasterPagesDefault
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{cfg: cfg, logger: logger}
}

// Normalize sniffs the document kind and prepares page images. Rasterization
// and decode failures are recoverable: they yield an empty page list, not an
// error, because the orchestrator has fallbacks. An error is returned only
// for input that cannot enter the pipeline at all.
func (n *Normalizer) Normalize(data []byte, declaredType string) (Normalized, error) {
	if len(data) == 0 {
		return Normalized{}, common.WrapError(common.ErrInvalidInput, "empty document buffer")
	}

	kind := SniffKind(data, declaredType)
	if kind == constants.KindUnknown {
		return Normalized{}, fmt.Errorf("unrecognized document format (declared %q): %w", declaredType, common.ErrInvalidInput)
	}

	doc := Normalized{Kind: kind, Pages: [][]byte{}, source: data}
	switch kind {
	case constants.KindPDF:
		doc.Pages = n.rasterizePDF(data)
	case constants.KindImage:
		doc.Pages = n.validateImage(data, declaredType)
	}
	return doc, nil
}

// rasterizePDF renders the leading pages to PNG at the configured DPI.
// Any library error degrades to an empty page list; the text fallback still
// has the source bytes.
func (n *Normalizer) rasterizePDF(data []byte) [][]byte {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		n.logger.Warn("document.rasterize.open_failed", "error", err)
		return [][]byte{}
	}
	defer doc.Close()

	total := doc.NumPage()
	if total > n.cfg.MaxPages {
		total = n.cfg.MaxPages
	}

	pages := make([][]byte, 0, total)
	for i := 0; i < total; i++ {
		img, err := doc.ImageDPI(i, float64(n.cfg.RasterDPI))
		if err != nil {
			n.logger.Warn("document.rasterize.page_failed", "page", i, "error", err)
			continue
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			n.logger.Warn("document.rasterize.encode_failed", "page", i, "error", err)
			continue
		}
		pages = append(pages, buf.Bytes())
	}
	return pages
}

// validateImage decodes the upload to prove it is a usable image, then
// re-encodes it as PNG so every vision call carries one format. Undecodable
// input yields an empty page list (structural failure, not a crash).
func (n *Normalizer) validateImage(data []byte, declaredType string) [][]byte {
	var img image.Image
	var err error

	if isHEIC(data) || strings.Contains(constants.NormalizeContentType(declaredType), "hei") {
		img, err = heic.Decode(bytes.NewReader(data))
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		n.logger.Warn("document.image.decode_failed", "declared_type", declaredType, "error", err)
		return [][]byte{}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		n.logger.Warn("document.image.encode_failed", "error", err)
		return [][]byte{}
	}
	return [][]byte{buf.Bytes()}
}

// TextLayer extracts the embedded text layer of a PDF document for the
// text-grounded fallback. Images have no text layer and return empty.
func (n *Normalizer) TextLayer(doc Normalized) string {
	if doc.Kind != constants.KindPDF {
		return ""
	}

	reader, err := pdf.NewReader(bytes.NewReader(doc.source), int64(len(doc.source)))
	if err != nil {
		n.logger.Warn("document.textlayer.open_failed", "error", err)
		return ""
	}

	var b strings.Builder
	pages := reader.NumPage()
	if pages > n.cfg.MaxPages {
		pages = n.cfg.MaxPages
	}
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			n.logger.Warn("document.textlayer.page_failed", "page", i, "error", err)
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n")
		}
		b.WriteString(text)
	}
	return strings.TrimSpace(b.String())
}
