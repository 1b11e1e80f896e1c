package json

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relex/logcore/level"
	"github.com/relex/logcore/record"
)

type fakeOwner struct{ name string }

func (o *fakeOwner) Name() string           { return o.name }
func (o *fakeOwner) Process(*record.Record) {}

func TestFormatRecordProducesValidJSON(t *testing.T) {
	pool := record.New()
	rec, err := pool.Acquire(&fakeOwner{name: "svc"}, level.Warn, record.SourceLocation{File: "a.go", Line: 7}, "boom")
	require.NoError(t, err)
	rec.StructuredData().Add("retry", int64(2))

	f := New()
	out, err := f.FormatRecord(rec)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "WARN", decoded["level"])
	assert.Equal(t, "svc", decoded["logger"])
	assert.Equal(t, "boom", decoded["message"])
	assert.Equal(t, "a.go", decoded["file"])
}
