// Package file provides a [store.Store] that keeps one JSON file per
// planogram version on local disk.
//
// Layout:
//
//	<baseDir>/<planogram id>/000001.json
//	<baseDir>/<planogram id>/000002.json
//
// A version file is created with a hard link from a fully written temporary
// file, which fails if the version already exists. A crash or cancellation
// therefore never leaves a partially written version, and two processes
// sharing the directory cannot both create the same version.
package file

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/shelfworks/planogram/pkg/store"
)

const ext = ".json"

// Store is a file-based versioned document store.
type Store struct {
	mu      sync.RWMutex
	baseDir string
}

// New creates a file store rooted at baseDir.
// If baseDir is empty, defaults to ~/.local/share/planogram/planograms/
func New(baseDir string) (*Store, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".local", "share", "planogram", "planograms")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Path returns the base directory of the store.
func (s *Store) Path() string {
	return s.baseDir
}

func (s *Store) dir(id string) (string, error) {
	if err := store.ValidateID(id); err != nil {
		return "", err
	}
	name := url.PathEscape(id)
	if name == "." || name == ".." {
		return "", fmt.Errorf("invalid planogram id %q", id)
	}
	return filepath.Join(s.baseDir, name), nil
}

func versionFile(dir string, version int) string {
	return filepath.Join(dir, fmt.Sprintf("%06d%s", version, ext))
}

// versions lists the version numbers stored in dir in ascending order.
func versions(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read store dir: %w", err)
	}
	var out []int
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSuffix(name, ext))
		if err != nil || v < 1 {
			continue
		}
		out = append(out, v)
	}
	slices.Sort(out)
	return out, nil
}

func (s *Store) read(id, dir string, version int) (store.Document, error) {
	path := versionFile(dir, version)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store.Document{}, store.ErrNotFound
		}
		return store.Document{}, fmt.Errorf("read version file: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return store.Document{}, fmt.Errorf("stat version file: %w", err)
	}
	return store.Document{ID: id, Version: version, Data: data, SavedAt: info.ModTime().UTC()}, nil
}

func (s *Store) Get(ctx context.Context, id string) (store.Document, error) {
	if err := ctx.Err(); err != nil {
		return store.Document{}, err
	}
	dir, err := s.dir(id)
	if err != nil {
		return store.Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	vs, err := versions(dir)
	if err != nil {
		return store.Document{}, err
	}
	if len(vs) == 0 {
		return store.Document{}, store.ErrNotFound
	}
	return s.read(id, dir, vs[len(vs)-1])
}

func (s *Store) GetVersion(ctx context.Context, id string, version int) (store.Document, error) {
	if err := ctx.Err(); err != nil {
		return store.Document{}, err
	}
	dir, err := s.dir(id)
	if err != nil {
		return store.Document{}, err
	}
	if version < 1 {
		return store.Document{}, store.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(id, dir, version)
}

func (s *Store) Versions(ctx context.Context, id string) ([]store.VersionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := s.dir(id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	vs, err := versions(dir)
	if err != nil {
		return nil, err
	}
	if len(vs) == 0 {
		return nil, store.ErrNotFound
	}
	out := make([]store.VersionInfo, 0, len(vs))
	for _, v := range vs {
		info, err := os.Stat(versionFile(dir, v))
		if err != nil {
			return nil, fmt.Errorf("stat version file: %w", err)
		}
		out = append(out, store.VersionInfo{Version: v, SavedAt: info.ModTime().UTC(), Size: int(info.Size())})
	}
	return out, nil
}

func (s *Store) Put(ctx context.Context, id string, data []byte, expectedVersion int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	dir, err := s.dir(id)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	vs, err := versions(dir)
	if err != nil {
		return 0, err
	}
	latest := 0
	if len(vs) > 0 {
		latest = vs[len(vs)-1]
	}
	if latest != expectedVersion {
		return 0, store.ErrConflict
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return 0, fmt.Errorf("create planogram dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	next := expectedVersion + 1
	if err := os.Link(tmp.Name(), versionFile(dir, next)); err != nil {
		if errors.Is(err, os.ErrExist) {
			return 0, store.ErrConflict
		}
		return 0, fmt.Errorf("publish version file: %w", err)
	}
	return next, nil
}

func (s *Store) Close() error { return nil }

var _ store.Store = (*Store)(nil)
