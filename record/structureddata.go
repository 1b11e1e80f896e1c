package record

import (
	"github.com/relex/logcore/defs"
	"github.com/relex/logcore/util"
)

// StructuredData is a string-keyed map of structured log fields, grounded on the reference
// implementation's unordered_map<string, FieldValue>. Keys are deep-copied on Add so the map never
// aliases caller-owned backing memory (the record may outlive the caller's stack frame once
// enqueued).
type StructuredData struct {
	fields map[string]Value
}

// NewStructuredData returns an empty StructuredData ready for use.
func NewStructuredData() *StructuredData {
	return &StructuredData{}
}

// Add stores value under key, overwriting any existing entry. Values that are not one of the
// supported variant types are silently ignored, matching the core's "never panic on the hot path"
// policy. Slice-typed values are deep-copied (mirroring util.DeepCopyStrings) so the map never
// aliases caller-owned backing memory once the record is handed off to a worker goroutine.
func (d *StructuredData) Add(key string, value Value) *StructuredData {
	if !kindOf(value) {
		return d
	}
	if d.fields == nil {
		d.fields = make(map[string]Value, defs.RecordStructuredDataInitialCapacity)
	}
	d.fields[util.DeepCopyString(key)] = deepCopyValue(value)
	return d
}

// deepCopyValue copies the backing slice of slice-typed variants; scalar variants (including
// string, which is already immutable) are returned unchanged.
func deepCopyValue(value Value) Value {
	switch v := value.(type) {
	case []string:
		return util.DeepCopyStrings(v)
	case []int64:
		return append([]int64(nil), v...)
	case []float64:
		return append([]float64(nil), v...)
	case []bool:
		return append([]bool(nil), v...)
	default:
		return value
	}
}

// Get returns the value stored under key and whether it was present.
func (d *StructuredData) Get(key string) (Value, bool) {
	if d.fields == nil {
		return nil, false
	}
	v, ok := d.fields[key]
	return v, ok
}

// HasField reports whether key is present.
func (d *StructuredData) HasField(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Remove deletes key, reporting whether it was present.
func (d *StructuredData) Remove(key string) bool {
	if !d.HasField(key) {
		return false
	}
	delete(d.fields, key)
	return true
}

// Clear empties the map, retaining its backing storage for reuse by a pooled record.
func (d *StructuredData) Clear() {
	for k := range d.fields {
		delete(d.fields, k)
	}
}

// Merge copies every field from other into d, overwriting on key collision (right-biased).
func (d *StructuredData) Merge(other *StructuredData) *StructuredData {
	if other == nil {
		return d
	}
	for k, v := range other.fields {
		d.Add(k, v)
	}
	return d
}

// IsEmpty reports whether the map holds no fields.
func (d *StructuredData) IsEmpty() bool {
	return len(d.fields) == 0
}

// GetFields returns the live, unordered field map. Callers must not retain it past the record's
// lifetime, nor mutate it directly; use Add/Remove instead.
func (d *StructuredData) GetFields() map[string]Value {
	return d.fields
}
