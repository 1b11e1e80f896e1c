package text

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relex/logcore/level"
	"github.com/relex/logcore/record"
)

type fakeOwner struct{ name string }

func (o *fakeOwner) Name() string            { return o.name }
func (o *fakeOwner) Process(*record.Record) {}

func TestFormatRecordIncludesFields(t *testing.T) {
	pool := record.New()
	rec, err := pool.Acquire(&fakeOwner{name: "svc"}, level.Info, record.SourceLocation{}, "started")
	require.NoError(t, err)
	rec.StructuredData().Add("count", int64(3))

	f := New()
	out, err := f.FormatRecord(rec)
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "INFO")
	assert.Contains(t, s, "svc")
	assert.Contains(t, s, "started")
	assert.Contains(t, s, "count=3")
}

func TestFormatRecordCustomLayout(t *testing.T) {
	pool := record.New()
	rec, err := pool.Acquire(&fakeOwner{name: "svc"}, level.Info, record.SourceLocation{}, "x")
	require.NoError(t, err)
	rec.Timestamp = time.Unix(0, 0).UTC()

	f := &Formatter{TimestampLayout: "2006-01-02"}
	out, _ := f.FormatRecord(rec)
	assert.Contains(t, string(out), "1970-01-01")
}
