package msgpack

import (
	"testing"

	vmpack "github.com/vmihailenco/msgpack/v4"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relex/logcore/level"
	"github.com/relex/logcore/record"
)

type fakeOwner struct{ name string }

func (o *fakeOwner) Name() string           { return o.name }
func (o *fakeOwner) Process(*record.Record) {}

func TestFormatRecordRoundTrips(t *testing.T) {
	pool := record.New()
	rec, err := pool.Acquire(&fakeOwner{name: "svc"}, level.Error, record.SourceLocation{}, "fail")
	require.NoError(t, err)

	f := New()
	out, err := f.FormatRecord(rec)
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	var decoded wireRecord
	require.NoError(t, vmpack.Unmarshal(out, &decoded))
	assert.Equal(t, "ERROR", decoded.Level)
	assert.Equal(t, "svc", decoded.Logger)
	assert.Equal(t, "fail", decoded.Message)
}
