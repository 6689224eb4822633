// Package store keeps parsed documents between HTTP requests so that a
// client can parse once and render many templates against the result.
//
// Two backends are provided:
//   - memory: in-process map, for single-instance use and tests
//   - redis: shared storage for multi-instance deployments
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcncl/j2j/internal/config"
	"github.com/mcncl/j2j/internal/errors"
)

// ErrNotFound is returned when a document does not exist or has expired.
var ErrNotFound = errors.ErrDocumentNotFound

// Document is a stored JSON document.
type Document struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the document has outlived its TTL.
func (d *Document) IsExpired() bool {
	return time.Now().After(d.ExpiresAt)
}

// NewDocument wraps source with a fresh random ID.
func NewDocument(source string, ttl time.Duration) *Document {
	now := time.Now()
	return &Document{
		ID:        uuid.NewString(),
		Source:    source,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// ValidID reports whether id looks like an ID produced by NewDocument.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Store is the interface for document storage backends.
type Store interface {
	// Put stores doc until its ExpiresAt.
	Put(ctx context.Context, doc *Document) error
	// Get returns the document with id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Document, error)
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, id string) error
	// Close releases backend resources.
	Close() error
}

// Open creates the backend selected by cfg.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		return NewRedis(ctx, RedisConfig{Addr: cfg.RedisAddr})
	default:
		return nil, errors.NewStoreError(fmt.Sprintf("unknown store backend %q", cfg.Backend), nil)
	}
}
