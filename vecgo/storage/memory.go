package storage

import "sync"

// Memory is an append-only, insertion-ordered in-memory vector store.
type Memory struct {
	vectors []Vector
	mu      sync.RWMutex
}

// NewMemory creates a new in-memory storage.
func NewMemory() *Memory {
	return &Memory{}
}

// Append stores vectors after the existing ones and assigns their Seq.
func (m *Memory) Append(vectors []Vector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range vectors {
		v.Seq = len(m.vectors)
		m.vectors = append(m.vectors, v)
	}
}

// Scan calls fn for every stored vector in insertion order until fn
// returns false. The store is read-locked for the duration of the scan.
func (m *Memory) Scan(fn func(Vector) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.vectors {
		if !fn(v) {
			return
		}
	}
}

// Len returns the number of stored vectors.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}
