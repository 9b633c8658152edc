package document

import (
	"mime"
	"path/filepath"
	"strings"
)

// extensionTypes is checked in order; the first matching suffix wins.
var extensionTypes = []struct {
	ext  string
	mime string
}{
	{".pdf", MIMEPDF},
	{".txt", MIMEText},
	{".jpg", MIMEJPEG},
	{".jpeg", MIMEJPEG},
	{".png", MIMEPNG},
}

var acceptedTypes = map[string]bool{
	MIMEPDF:  true,
	MIMEText: true,
	MIMEJPEG: true,
	MIMEPNG:  true,
}

// Accepted reports whether mimeType (without parameters) can be uploaded.
func Accepted(mimeType string) bool {
	return acceptedTypes[mimeType]
}

// InferMIME guesses the type of a file from its extension. It returns an
// empty string for unknown extensions.
func InferMIME(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensionTypes {
		if ext == e.ext {
			return e.mime
		}
	}
	return ""
}

// NormalizeMIME drops parameters, lower-cases, and maps the legacy
// image/jpg alias.
func NormalizeMIME(declared string) string {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		mt, _, _ = strings.Cut(declared, ";")
	}
	mt = strings.ToLower(strings.TrimSpace(mt))
	if mt == "image/jpg" {
		mt = MIMEJPEG
	}
	return mt
}

// ResolveMIME picks the effective type of an upload: the declared type when
// it is accepted, otherwise the type inferred from the name.
func ResolveMIME(name, declared string) (string, bool) {
	if mt := NormalizeMIME(declared); Accepted(mt) {
		return mt, true
	}
	if mt := InferMIME(name); mt != "" {
		return mt, true
	}
	return "", false
}
