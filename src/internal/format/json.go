// FILE: logship/src/internal/format/json.go
package format

import (
	"bytes"
	"encoding/json"
	"fmt"

	"logship/src/internal/core"

	"github.com/lixenwraith/log"
	"github.com/valyala/bytebufferpool"
)

// JSONFormatter serializes entries and bulk requests as compact JSON.
type JSONFormatter struct {
	logger *log.Logger
	pool   bytebufferpool.Pool
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(logger *log.Logger) *JSONFormatter {
	return &JSONFormatter{
		logger: logger,
	}
}

// Format transforms a single LogEntry into a JSON byte slice.
func (f *JSONFormatter) Format(entry core.LogEntry) ([]byte, error) {
	buf := f.pool.Get()
	defer f.pool.Put(buf)

	if err := encode(buf, entry); err != nil {
		return nil, err
	}

	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out, nil
}

// EntrySize returns the number of bytes entry occupies once serialized.
func (f *JSONFormatter) EntrySize(entry core.LogEntry) (int64, error) {
	buf := f.pool.Get()
	defer f.pool.Put(buf)

	if err := encode(buf, entry); err != nil {
		return 0, err
	}
	return int64(buf.Len()), nil
}

// FormatBulk transforms a bulk request into the request body.
func (f *JSONFormatter) FormatBulk(req core.BulkRequest) ([]byte, error) {
	if req.LogEntries == nil {
		req.LogEntries = []core.LogEntry{}
	}

	buf := f.pool.Get()
	defer f.pool.Put(buf)

	if err := encode(buf, req); err != nil {
		f.logger.Warn("msg", "Failed to format bulk request",
			"component", "json_formatter",
			"entries", len(req.LogEntries),
			"error", err)
		return nil, err
	}

	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out, nil
}

// Name returns the formatter's type name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// encode writes v to buf without HTML escaping and without the encoder's trailing newline
func encode(buf *bytebufferpool.ByteBuffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	buf.B = bytes.TrimSuffix(buf.B, []byte{'\n'})
	return nil
}
