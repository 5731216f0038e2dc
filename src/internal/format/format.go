// FILE: logship/src/internal/format/format.go
package format

import (
	"logship/src/internal/core"
)

// Formatter defines how entries and bulk requests are serialized for the wire.
type Formatter interface {
	// Format serializes a single entry without a trailing newline.
	Format(entry core.LogEntry) ([]byte, error)

	// EntrySize returns the serialized size of an entry in bytes.
	EntrySize(entry core.LogEntry) (int64, error)

	// FormatBulk serializes a complete bulk request.
	FormatBulk(req core.BulkRequest) ([]byte, error)

	// Name returns the formatter type name
	Name() string
}
