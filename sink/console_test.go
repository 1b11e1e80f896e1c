package sink

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relex/logcore/format/text"
	"github.com/relex/logcore/level"
	"github.com/relex/logcore/record"
)

type fakeOwner struct{ name string }

func (o *fakeOwner) Name() string           { return o.name }
func (o *fakeOwner) Process(*record.Record) {}

func TestConsoleEmitWritesFormattedRecord(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)
	pool := record.New()
	rec, err := pool.Acquire(&fakeOwner{name: "svc"}, level.Info, record.SourceLocation{}, "hello")
	require.NoError(t, err)

	require.NoError(t, c.Emit(rec, text.New()))
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "svc")
	assert.EqualValues(t, 0, c.ErrorCount())
}

func TestConsoleEmitRespectsFilter(t *testing.T) {
	var buf bytes.Buffer
	filter, err := NewNameFilter("svc.*")
	require.NoError(t, err)
	c := NewConsoleWriter(&buf).WithFilter(filter)

	pool := record.New()
	rec, err := pool.Acquire(&fakeOwner{name: "other"}, level.Info, record.SourceLocation{}, "hello")
	require.NoError(t, err)

	require.NoError(t, c.Emit(rec, text.New()))
	assert.Empty(t, buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("write failed") }

func TestConsoleEmitCountsWriteErrors(t *testing.T) {
	c := NewConsoleWriter(failingWriter{})
	pool := record.New()
	rec, err := pool.Acquire(&fakeOwner{name: "svc"}, level.Info, record.SourceLocation{}, "hello")
	require.NoError(t, err)

	assert.Error(t, c.Emit(rec, text.New()))
	assert.EqualValues(t, 1, c.ErrorCount())
}
