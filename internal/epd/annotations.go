package epd

// Annotations is an ordered key/value mapping. Keys keep the order of their
// first insertion; setting an existing key replaces its value in place.
type Annotations struct {
	keys   []string
	values map[string]string
}

// New returns an empty mapping.
func New() *Annotations {
	return &Annotations{values: make(map[string]string)}
}

// Set stores value under key.
func (a *Annotations) Set(key, value string) {
	if a.values == nil {
		a.values = make(map[string]string)
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

// Get returns the value stored under key.
func (a *Annotations) Get(key string) (string, bool) {
	if a == nil {
		return "", false
	}
	v, ok := a.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (a *Annotations) Keys() []string {
	if a == nil {
		return nil
	}
	keys := make([]string, len(a.keys))
	copy(keys, a.keys)
	return keys
}

// Len returns the number of entries.
func (a *Annotations) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Clone returns an independent copy.
func (a *Annotations) Clone() *Annotations {
	c := New()
	if a == nil {
		return c
	}
	for _, k := range a.keys {
		c.Set(k, a.values[k])
	}
	return c
}

// Equal reports whether both mappings hold the same entries in the same order.
func (a *Annotations) Equal(b *Annotations) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i, k := range a.Keys() {
		if b.keys[i] != k || b.values[k] != a.values[k] {
			return false
		}
	}
	return true
}
