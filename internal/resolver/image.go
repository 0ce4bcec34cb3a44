package resolver

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// AllowedImageTypes are the MIME types accepted into the library.
var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// ArchiveImageDir is the folder holding images inside an archive.
const ArchiveImageDir = "images/"

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	gifMagic  = []byte("GIF8")
	riffMagic = []byte("RIFF")
	webpMagic = []byte("WEBP")
)

// IsValidImage checks the leading bytes for a JPEG, PNG, GIF or WebP signature.
func IsValidImage(data []byte) bool {
	switch {
	case bytes.HasPrefix(data, jpegMagic),
		bytes.HasPrefix(data, pngMagic),
		bytes.HasPrefix(data, gifMagic):
		return true
	case len(data) >= 12 && bytes.Equal(data[:4], riffMagic) && bytes.Equal(data[8:12], webpMagic):
		return true
	default:
		return false
	}
}

// DetectMIME sniffs the MIME type of data without parameters.
func DetectMIME(data []byte) string {
	typ, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return strings.TrimSpace(typ)
}

// IsAllowedImageType reports whether mimeType may be stored in the library.
func IsAllowedImageType(mimeType string) bool {
	for _, t := range AllowedImageTypes {
		if t == mimeType {
			return true
		}
	}
	return false
}

// ExtensionForMIME maps an image MIME type to an archive file extension.
// Unknown types fall back to webp.
func ExtensionForMIME(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	default:
		return "webp"
	}
}

// ArchivePath returns the archive-relative path of the index-th image (1-based).
func ArchivePath(index int, mimeType string) string {
	return fmt.Sprintf("%simg_%03d.%s", ArchiveImageDir, index, ExtensionForMIME(mimeType))
}

var (
	posturePrefixes = []string{"standing_", "sitting_", "lying_"}
	numberPrefix    = regexp.MustCompile(`^\d+_`)
)

// DisplayFileName turns "standing_05_スクワット.webp" into "スクワット".
func DisplayFileName(fileName string) string {
	name := fileName
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	lower := strings.ToLower(name)
	for _, p := range posturePrefixes {
		if strings.HasPrefix(lower, p) {
			name = name[len(p):]
			break
		}
	}
	return numberPrefix.ReplaceAllString(name, "")
}
