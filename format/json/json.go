// Package json implements a structured JSON-lines formatter.
package json

import (
	"encoding/json"
	"time"

	"github.com/relex/logcore/record"
)

// Formatter renders records as one JSON object per line.
type Formatter struct{}

// New returns a ready-to-use Formatter.
func New() *Formatter {
	return &Formatter{}
}

type wireRecord struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Logger    string                 `json:"logger"`
	Message   string                 `json:"message"`
	File      string                 `json:"file,omitempty"`
	Line      int                    `json:"line,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
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
	out, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
