// Package memory provides an in-process [store.Store].
package memory

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/shelfworks/planogram/pkg/store"
)

// Store keeps every version of every planogram in memory.
type Store struct {
	mu   sync.RWMutex
	docs map[string][]store.Document
	now  func() time.Time
}

// New creates an empty memory store.
func New() *Store {
	return &Store{docs: make(map[string][]store.Document), now: time.Now}
}

func (s *Store) Get(ctx context.Context, id string) (store.Document, error) {
	if err := ctx.Err(); err != nil {
		return store.Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.docs[id]
	if len(versions) == 0 {
		return store.Document{}, store.ErrNotFound
	}
	return clone(versions[len(versions)-1]), nil
}

func (s *Store) GetVersion(ctx context.Context, id string, version int) (store.Document, error) {
	if err := ctx.Err(); err != nil {
		return store.Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.docs[id]
	if version < 1 || version > len(versions) {
		return store.Document{}, store.ErrNotFound
	}
	return clone(versions[version-1]), nil
}

func (s *Store) Versions(ctx context.Context, id string) ([]store.VersionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.docs[id]
	if len(versions) == 0 {
		return nil, store.ErrNotFound
	}
	out := make([]store.VersionInfo, len(versions))
	for i, d := range versions {
		out[i] = store.InfoOf(d)
	}
	return out, nil
}

func (s *Store) Put(ctx context.Context, id string, data []byte, expectedVersion int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := store.ValidateID(id); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Versions are dense, so the slice length is the latest version.
	if len(s.docs[id]) != expectedVersion {
		return 0, store.ErrConflict
	}
	next := expectedVersion + 1
	s.docs[id] = append(s.docs[id], store.Document{
		ID:      id,
		Version: next,
		Data:    bytes.Clone(data),
		SavedAt: s.now().UTC(),
	})
	return next, nil
}

// Len returns the number of planograms with at least one version.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *Store) Close() error { return nil }

func clone(d store.Document) store.Document {
	d.Data = bytes.Clone(d.Data)
	return d
}

var _ store.Store = (*Store)(nil)
