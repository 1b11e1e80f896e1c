// Package sink defines the Sink interface and the console/file reference implementations that
// exercise the core's output path end to end.
package sink

import (
	"github.com/gobwas/glob"

	"github.com/relex/logcore/format"
	"github.com/relex/logcore/record"
)

// Sink is a terminal output adapter. Emit must be safe for concurrent calls from any worker
// goroutine and must not block indefinitely.
type Sink interface {
	// Name identifies this sink instance for metrics labeling (e.g. "console", a file path).
	Name() string
	Emit(rec *record.Record, f format.Format) error
	Flush() error
}

// NameFilter gates emission by logger name using a gobwas/glob pattern, the same matching library
// the teacher reaches for when filtering by name pattern. A nil filter matches everything.
type NameFilter struct {
	pattern glob.Glob
}

// NewNameFilter compiles pattern into a NameFilter. An empty pattern matches everything.
func NewNameFilter(pattern string) (*NameFilter, error) {
	if pattern == "" {
		return &NameFilter{}, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &NameFilter{pattern: g}, nil
}

// Match reports whether name passes the filter.
func (f *NameFilter) Match(name string) bool {
	if f == nil || f.pattern == nil {
		return true
	}
	return f.pattern.Match(name)
}
