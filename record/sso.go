package record

import (
	"github.com/relex/logcore/util"
)

// ssoStorage owns a copy of a message string using small-string optimization: strings up to
// 64 bytes (the size of the inline array) live in the inline array with zero heap allocation; longer ones
// spill to a reused heap buffer. Grounded on the teacher's util.StringFromBytes/BytesFromString
// unsafe aliasing, which lets View() hand back a string backed directly by owned bytes without a
// second copy.
//
// The zero value is empty and ready to use. Copying an ssoStorage by value aliases its heap slice;
// callers should treat it as move-only and always go through Set/Reset on the record that owns it.
type ssoStorage struct {
	inline    [64]byte
	inlineLen int
	heap      []byte
}

// Set copies s into the storage, reusing the inline array or the existing heap buffer's capacity
// where possible.
func (s *ssoStorage) Set(str string) {
	if len(str) <= len(s.inline) {
		copy(s.inline[:], str)
		s.inlineLen = len(str)
		s.heap = s.heap[:0]
		return
	}
	s.inlineLen = 0
	if cap(s.heap) < len(str) {
		s.heap = make([]byte, len(str))
	} else {
		s.heap = s.heap[:len(str)]
	}
	copy(s.heap, str)
}

// View returns a borrowed, zero-copy string over the storage's current contents. The returned
// string is only valid until the next Set/Reset call on this storage.
func (s *ssoStorage) View() string {
	if len(s.heap) > 0 {
		return util.StringFromBytes(s.heap)
	}
	return util.StringFromBytes(s.inline[:s.inlineLen])
}

// IsInline reports whether the current contents fit in the inline array without a heap
// allocation.
func (s *ssoStorage) IsInline() bool {
	return len(s.heap) == 0
}

// Reset clears the storage's logical length without releasing the heap buffer's capacity, so a
// pooled record can be reused without repeated allocation for similarly-sized messages.
func (s *ssoStorage) Reset() {
	s.inlineLen = 0
	s.heap = s.heap[:0]
}
