// Package cachestrategy defines in-memory eviction strategies.
package cachestrategy

// Strategy holds a bounded set of entries and decides which to evict.
type Strategy interface {
	Get(key string) ([]byte, bool)
	Add(key string, value []byte) bool
	Len() int
}
