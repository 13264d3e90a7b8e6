package testutil

import (
	"fmt"
	"sync"
)

// SequentialGenerator generates predictable identifiers: prefix-1,
// prefix-2, and so on.
//
// Used in place of UUIDv7 snapshot handles so store contents and golden
// files are byte-identical across runs.
//
// Thread-safety: SequentialGenerator is safe for concurrent use via internal mutex.
type SequentialGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialGenerator creates a generator. An empty prefix defaults to
// "test-snapshot".
func NewSequentialGenerator(prefix string) *SequentialGenerator {
	if prefix == "" {
		prefix = "test-snapshot"
	}
	return &SequentialGenerator{prefix: prefix}
}

// Generate returns the next identifier.
func (g *SequentialGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
