package constants

import "strings"

// FileFormat is the coarse kind of an uploaded file.
type FileFormat string

const (
	PDF     FileFormat = "PDF"
	IMAGE   FileFormat = "IMAGE"
	TXT     FileFormat = "TXT"
	UNKNOWN FileFormat = "UNKNOWN"
)

// AllowedExtensions holds the file extensions accepted for upload and folder ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tif":  {},
	"tiff": {},
	"txt":  {},
	"heic": {},
	"heif": {},
}

// MaxUploadBytes caps a single uploaded document.
const MaxUploadBytes = 25 << 20

// MaxOCRChars caps how much OCR text is sent in a prompt.
const MaxOCRChars = 3000

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps an extension (with or without dot) to a FileFormat.
func MapExtToFormat(ext string) FileFormat {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png", "tif", "tiff", "heic", "heif":
		return IMAGE
	case "txt":
		return TXT
	default:
		return UNKNOWN
	}
}

// MimeType returns the content type stored for an extension.
func MimeType(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return "application/pdf"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "tif", "tiff":
		return "image/tiff"
	case "heic", "heif":
		return "image/heic"
	case "txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// IsAllowedExt reports whether ext (with or without dot) may be uploaded.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
