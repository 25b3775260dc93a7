// Package testutil provides deterministic stand-ins for tests.
package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator generates operation IDs "<prefix>-000001", "<prefix>-000002", ...
//
// The same scenario run with a fresh SequenceGenerator produces byte-identical
// operation logs, which golden traces rely on.
//
// Thread-safety: all methods are safe for concurrent use.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int64
}

// NewSequenceGenerator creates a generator. An empty prefix means "op".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "op"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next ID.
//
// Implements contract.IDGenerator.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%06d", g.prefix, g.n)
}

// Count returns how many IDs have been generated.
func (g *SequenceGenerator) Count() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

// Reset restarts the sequence. The next Generate returns "<prefix>-000001".
func (g *SequenceGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
