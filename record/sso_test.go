package record

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSSOStorageInline(t *testing.T) {
	var s ssoStorage
	s.Set("hello")
	assert.True(t, s.IsInline())
	assert.Equal(t, "hello", s.View())
}

func TestSSOStorageHeapFallback(t *testing.T) {
	var s ssoStorage
	long := strings.Repeat("x", 200)
	s.Set(long)
	assert.False(t, s.IsInline())
	assert.Equal(t, long, s.View())
}

func TestSSOStorageResetReusesCapacity(t *testing.T) {
	var s ssoStorage
	long := strings.Repeat("y", 200)
	s.Set(long)
	s.Reset()
	assert.Equal(t, "", s.View())
	assert.Equal(t, 200, cap(s.heap), "Reset keeps the heap buffer's capacity")
	s.Set("short again")
	assert.Equal(t, "short again", s.View())
}

func TestSSOStorageBoundary(t *testing.T) {
	var s ssoStorage
	exact := strings.Repeat("z", len(s.inline))
	s.Set(exact)
	assert.True(t, s.IsInline())
	assert.Equal(t, exact, s.View())
}
