// Package document validates uploaded study files and prepares them for
// transfer to the generation backend.
package document

import "time"

// DefaultMaxFileBytes is the per-file ceiling applied when Limits leaves it unset.
const DefaultMaxFileBytes int64 = 20 << 20

// Accepted MIME types.
const (
	MIMEPDF  = "application/pdf"
	MIMEText = "text/plain"
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
)

// Source is a file as received from the user, before validation.
type Source struct {
	Name         string
	DeclaredType string
	Data         []byte
}

// Limits bounds what Intake accepts.
type Limits struct {
	MaxFileBytes int64
}

func (l Limits) maxFileBytes() int64 {
	if l.MaxFileBytes <= 0 {
		return DefaultMaxFileBytes
	}
	return l.MaxFileBytes
}

// UploadedFile is an accepted document. Base64 holds the transfer encoding
// of Data; Pages is the PDF page count, or 0 when unknown.
type UploadedFile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MIMEType   string    `json:"mimeType"`
	Size       int64     `json:"size"`
	Pages      int       `json:"pages,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
	Data       []byte    `json:"-"`
	Base64     string    `json:"-"`
}

// IsText reports whether the file is plain text.
func (f *UploadedFile) IsText() bool {
	return f.MIMEType == MIMEText
}

// Rejection explains why a source was not accepted.
type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}
