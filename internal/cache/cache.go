// Package cache defines the storage used to keep engine analyses between
// runs or across repeated positions.
package cache

// Backend stores encoded analyses by key. Values are opaque to the backend.
type Backend interface {
	// Get returns the value stored under key.
	Get(key string) ([]byte, bool)

	// Set stores data under key, replacing any previous value.
	Set(key string, data []byte) error

	Stats() Stats
}

// Stats counts lookups since the backend was opened.
type Stats struct {
	Hits   int64
	Misses int64

	// Evictions is always zero for unbounded backends.
	Evictions int64

	// Size is the number of entries held.
	Size int
}

// HitRate returns the percentage of lookups that hit.
func (s Stats) HitRate() float64 {
	if lookups := s.Hits + s.Misses; lookups > 0 {
		return float64(s.Hits) / float64(lookups) * 100
	}
	return 0
}
