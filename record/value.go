package record

import "time"

// Value is one of the structured-field variants a record may carry: nil, string, int64, uint64,
// float64, bool, time.Time, or a slice of one of the scalar kinds. It is deliberately a plain
// interface{} rather than a hand-rolled tagged union — Go has no std::variant, and a type switch
// on the concrete value is the idiomatic substitute.
type Value = interface{}

// kindOf reports whether v is one of the variant's legal member types. Used to reject nonsense
// values at Add time rather than let them flow silently into a formatter.
func kindOf(v Value) bool {
	switch v.(type) {
	case nil, string, int64, uint64, float64, bool, time.Time,
		[]string, []int64, []float64, []bool:
		return true
	default:
		return false
	}
}
