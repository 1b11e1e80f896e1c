// Package text implements a human-readable line formatter: "TIMESTAMP LEVEL logger: message
// {k=v ...}".
package text

import (
	"strconv"
	"strings"
	"time"

	"github.com/relex/logcore/record"
)

// Formatter renders records as single text lines terminated by '\n'.
type Formatter struct {
	// TimestampLayout is passed to time.Time.Format; defaults to time.RFC3339Nano when empty.
	TimestampLayout string
}

// New returns a Formatter with the default RFC3339Nano timestamp layout.
func New() *Formatter {
	return &Formatter{TimestampLayout: time.RFC3339Nano}
}

// FormatRecord implements format.Format.
func (f *Formatter) FormatRecord(rec *record.Record) ([]byte, error) {
	layout := f.TimestampLayout
	if layout == "" {
		layout = time.RFC3339Nano
	}

	var b strings.Builder
	b.WriteString(rec.Timestamp.Format(layout))
	b.WriteByte(' ')
	b.WriteString(rec.Level.String())
	b.WriteByte(' ')
	b.WriteString(rec.LoggerName())
	b.WriteString(": ")
	b.WriteString(rec.Message())

	if fields := rec.StructuredData().GetFields(); len(fields) > 0 {
		b.WriteString(" {")
		first := true
		for k, v := range fields {
			if !first {
				b.WriteString(", ")
			}
			first = false
			b.WriteString(k)
			b.WriteByte('=')
			writeValue(&b, v)
		}
		b.WriteByte('}')
	}
	b.WriteByte('\n')

	return []byte(b.String()), nil
}

func writeValue(b *strings.Builder, v interface{}) {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case string:
		b.WriteString(strconv.Quote(val))
	case int64:
		b.WriteString(strconv.FormatInt(val, 10))
	case uint64:
		b.WriteString(strconv.FormatUint(val, 10))
	case float64:
		b.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	case bool:
		b.WriteString(strconv.FormatBool(val))
	case time.Time:
		b.WriteString(val.Format(time.RFC3339Nano))
	case []string:
		b.WriteString(strconv.Quote(strings.Join(val, ",")))
	case []int64:
		parts := make([]string, len(val))
		for i, n := range val {
			parts[i] = strconv.FormatInt(n, 10)
		}
		b.WriteByte('[')
		b.WriteString(strings.Join(parts, ","))
		b.WriteByte(']')
	case []float64:
		parts := make([]string, len(val))
		for i, n := range val {
			parts[i] = strconv.FormatFloat(n, 'g', -1, 64)
		}
		b.WriteByte('[')
		b.WriteString(strings.Join(parts, ","))
		b.WriteByte(']')
	case []bool:
		parts := make([]string, len(val))
		for i, n := range val {
			parts[i] = strconv.FormatBool(n)
		}
		b.WriteByte('[')
		b.WriteString(strings.Join(parts, ","))
		b.WriteByte(']')
	}
}
