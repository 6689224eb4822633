package store

import (
	"context"
	"sync"
)

// Memory is an in-process Store. Expired documents are dropped lazily on
// Get and in bulk by Cleanup.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]*Document)}
}

func (m *Memory) Put(_ context.Context, doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *doc
	m.docs[doc.ID] = &stored
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*Document, error) {
	m.mu.RLock()
	doc, ok := m.docs[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if doc.IsExpired() {
		m.mu.Lock()
		delete(m.docs, id)
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	out := *doc
	return &out, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

// Cleanup removes every expired document.
func (m *Memory) Cleanup(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, doc := range m.docs {
		if doc.IsExpired() {
			delete(m.docs, id)
		}
	}
	return nil
}

// Len returns the number of stored documents, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *Memory) Close() error { return nil }
