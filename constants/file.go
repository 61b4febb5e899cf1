package constants

import "strings"

// DocumentKind is the sniffed kind of an uploaded document.
type DocumentKind string

const (
	KindImage   DocumentKind = "IMAGE"
	KindPDF     DocumentKind = "PDF"
	KindUnknown DocumentKind = ""
)

// AllowedContentTypes holds the upload content types accepted at the HTTP boundary.
var AllowedContentTypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/jpg":       {},
	"image/png":       {},
	"image/webp":      {},
	"image/heic":      {},
}

// IsAllowedContentType reports whether a declared content type is accepted.
// The declared type is advisory; the normalizer sniffs the actual kind.
func IsAllowedContentType(ct string) bool {
	_, ok := AllowedContentTypes[NormalizeContentType(ct)]
	return ok
}

// NormalizeContentType lowercases and strips parameters (e.g. "; charset=...").
func NormalizeContentType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

// MapContentTypeToKind maps a declared content type to a document kind.
// Unknown types map to KindUnknown so the sniffer has the final say.
func MapContentTypeToKind(ct string) DocumentKind {
	ct = NormalizeContentType(ct)
	switch {
	case ct == "application/pdf":
		return KindPDF
	case strings.HasPrefix(ct, "image/"):
		return KindImage
	default:
		return KindUnknown
	}
}
