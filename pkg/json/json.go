// Package json wraps goccy/go-json for catalog records and CLI output.
package json

import (
	"bytes"
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/garlicdevs/csv-cleaner/pkg/pool"
)

var bufferPool = pool.New(
	func() *bytes.Buffer { return bytes.NewBuffer(make([]byte, 0, 4096)) },
	func(b *bytes.Buffer) { b.Reset() },
)

// GetBuffer gets a pooled bytes.Buffer.
func GetBuffer() *bytes.Buffer {
	return bufferPool.Get()
}

// PutBuffer returns a buffer to the pool.
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 { // Don't pool very large buffers
		return
	}
	bufferPool.Put(buf)
}

// Marshal is a drop-in replacement for json.Marshal.
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a drop-in replacement for json.Unmarshal.
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// MarshalIndent is a drop-in replacement for json.MarshalIndent.
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// MarshalToWriter encodes v to w without HTML escaping, optionally indented.
func MarshalToWriter(w io.Writer, v interface{}, indent bool) error {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// DecodeStrict decodes one value from r, rejecting unknown fields.
func DecodeStrict(r io.Reader, v interface{}) error {
	dec := gojson.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
