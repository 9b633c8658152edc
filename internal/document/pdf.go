package document

import (
	"bytes"

	rpdf "rsc.io/pdf"
)

// PageCount returns the number of pages of a PDF, or 0 when it cannot be
// parsed. The reader panics on some malformed inputs, so those count as 0 too.
func PageCount(data []byte) (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	doc, err := rpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	return doc.NumPage()
}
