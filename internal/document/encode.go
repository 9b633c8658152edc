package document

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"github.com/thywilljoshua/study-docs/internal/apperr"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// EncodeBase64 returns the standard base64 encoding of data.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64 is the inverse of EncodeBase64.
func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, apperr.E(apperr.KindDecode, "document.DecodeBase64", err)
	}
	return b, nil
}

// DecodeText recovers the UTF-8 text of a base64 encoded text/plain payload.
// Callers treat an error as a signal to send the payload as opaque binary.
func DecodeText(b64, mimeType string) (string, error) {
	const op = "document.DecodeText"

	if NormalizeMIME(mimeType) != MIMEText {
		return "", apperr.Errorf(apperr.KindDecode, op, "not a text payload: %q", mimeType)
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", apperr.E(apperr.KindDecode, op, fmt.Errorf("base64: %w", err))
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		return "", apperr.Errorf(apperr.KindDecode, op, "payload is not valid UTF-8")
	}
	return string(raw), nil
}

// Text returns the decoded text of a text/plain upload.
func (f *UploadedFile) Text() (string, error) {
	return DecodeText(f.Base64, f.MIMEType)
}
