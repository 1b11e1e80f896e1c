// Package format defines the Format interface implemented by the text, json and msgpack
// formatters, turning a record into the bytes a sink writes out.
package format

import "github.com/relex/logcore/record"

// Format renders a record to bytes. Implementations must be pure and safe for concurrent use by
// any number of worker goroutines.
type Format interface {
	FormatRecord(rec *record.Record) ([]byte, error)
}
