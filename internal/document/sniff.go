package document

import (
	"bytes"

	"github.com/numzy/receipt-processor/constants"
)

// pdfMagic is the PDF header. Sniffing beats the declared content type:
// uploads routinely arrive mislabeled.
var pdfMagic = []byte("%PDF-")

// SniffKind determines the actual document kind from the buffer header,
// falling back to the declared content type only when the header is not
// recognizably an image or a PDF.
func SniffKind(data []byte, declared string) constants.DocumentKind {
	if bytes.HasPrefix(data, pdfMagic) {
		return constants.KindPDF
	}
	if looksLikeImage(data) {
		return constants.KindImage
	}
	return constants.MapContentTypeToKind(declared)
}

func looksLikeImage(data []byte) bool {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return true
	case bytes.HasPrefix(data, []byte("\xff\xd8\xff")): // JPEG
		return true
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return true
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return true
	case isHEIC(data):
		return true
	}
	return false
}

// isHEIC checks the ftyp box brands used by HEIC/HEIF containers.
func isHEIC(data []byte) bool {
	if len(data) < 12 || !bytes.Equal(data[4:8], []byte("ftyp")) {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "heix", "mif1", "msf1":
		return true
	}
	return false
}
