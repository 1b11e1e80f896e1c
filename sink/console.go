package sink

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/relex/logcore/format"
	"github.com/relex/logcore/record"
)

// Console writes formatted records to a single io.Writer (os.Stdout by default), serialized by a
// mutex so concurrent worker goroutines never interleave partial writes.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	filter *NameFilter

	errors atomic.Int64
}

// NewConsole returns a Console writing to os.Stdout with no name filter.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter returns a Console writing to an arbitrary io.Writer, useful for tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// WithFilter restricts emission to logger names matching filter.
func (c *Console) WithFilter(filter *NameFilter) *Console {
	c.filter = filter
	return c
}

// Name implements sink.Sink.
func (c *Console) Name() string {
	return "console"
}

// Emit implements sink.Sink.
func (c *Console) Emit(rec *record.Record, f format.Format) error {
	if !c.filter.Match(rec.LoggerName()) {
		return nil
	}
	out, err := f.FormatRecord(rec)
	if err != nil {
		c.errors.Add(1)
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.out.Write(out); err != nil {
		c.errors.Add(1)
		return err
	}
	return nil
}

// Flush is a no-op for Console; os.Stdout has no internal buffer to drain.
func (c *Console) Flush() error {
	return nil
}

// ErrorCount returns the number of Emit calls that failed.
func (c *Console) ErrorCount() int64 {
	return c.errors.Load()
}
