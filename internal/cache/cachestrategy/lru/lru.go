// Package lru evicts the least recently used analysis first.
package lru

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/discochess/moveloss/internal/cache/cachestrategy"
)

var _ cachestrategy.Strategy = (*Strategy)(nil)

// Strategy is a fixed-capacity LRU set of encoded analyses.
type Strategy struct {
	entries *lru.Cache[string, []byte]
}

// New returns a strategy holding at most capacity analyses.
func New(capacity int) (*Strategy, error) {
	entries, err := lru.New[string, []byte](capacity)
	if err != nil {
		return nil, fmt.Errorf("lru: capacity %d: %w", capacity, err)
	}
	return &Strategy{entries: entries}, nil
}

// Get marks key as recently used.
func (s *Strategy) Get(key string) ([]byte, bool) { return s.entries.Get(key) }

// Add reports whether the oldest entry was evicted to make room.
func (s *Strategy) Add(key string, value []byte) bool { return s.entries.Add(key, value) }

func (s *Strategy) Len() int { return s.entries.Len() }
