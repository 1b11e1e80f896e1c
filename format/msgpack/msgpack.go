// Package msgpack implements a compact binary formatter using MessagePack, grounded on the
// teacher's own use of vmihailenco/msgpack for wire-efficient record encoding.
package msgpack

import (
	"time"

	"github.com/vmihailenco/msgpack/v4"

	"github.com/relex/logcore/record"
)

// Formatter renders each record as one MessagePack map, without a length prefix.
type Formatter struct{}

// New returns a ready-to-use Formatter.
func New() *Formatter {
	return &Formatter{}
}

type wireRecord struct {
	Timestamp time.Time              `msgpack:"ts"`
	Level     string                 `msgpack:"level"`
	Logger    string                 `msgpack:"logger"`
	Message   string                 `msgpack:"msg"`
	File      string                 `msgpack:"file,omitempty"`
	Line      int                    `msgpack:"line,omitempty"`
	Fields    map[string]interface{} `msgpack:"fields,omitempty"`
}

// FormatRecord implements format.Format.
func (f *Formatter) FormatRecord(rec *record.Record) ([]byte, error) {
	w := wireRecord{
		Timestamp: rec.Timestamp,
		Level:     rec.Level.String(),
		Logger:    rec.LoggerName(),
		Message:   rec.Message(),
		File:      rec.Location.File,
		Line:      rec.Location.Line,
		Fields:    rec.StructuredData().GetFields(),
	}
	return msgpack.Marshal(w)
}
