package core

// streaming.go prepares an upload body for the CSV reader without loading
// it into memory first:
//
//   - a leading UTF-8 BOM (common in files saved by Excel) is dropped
//   - invalid UTF-8 sequences become U+FFFD
//   - bytes are counted, and reading fails with ErrFileTooLarge past a limit

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CountingReader tracks bytes read and enforces an optional size limit.
type CountingReader struct {
	reader    io.Reader
	limit     int64
	BytesRead int64
}

// NewCountingReader wraps r. A limit of zero or less means unlimited.
func NewCountingReader(r io.Reader, limit int64) *CountingReader {
	return &CountingReader{reader: r, limit: limit}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	if r.limit > 0 && r.BytesRead > r.limit {
		return n, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, r.limit)
	}
	return n, err
}

// WrapForStreaming returns a reader yielding BOM-free, valid UTF-8 from r.
// The counter sits on the raw input so the limit applies to the upload size.
func WrapForStreaming(r io.Reader, limit int64) (io.Reader, *CountingReader) {
	counter := NewCountingReader(r, limit)
	return transform.NewReader(counter, unicode.UTF8BOM.NewDecoder()), counter
}
