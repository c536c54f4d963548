// Package storetest provides a conformance suite shared by every
// [store.Store] backend.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shelfworks/planogram/pkg/store"
)

// Factory returns a fresh, empty store for one subtest. The suite closes it.
type Factory func(t *testing.T) store.Store

// Run exercises the versioning and optimistic concurrency contract of the
// store returned by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"NotFound", testNotFound},
		{"FirstSave", testFirstSave},
		{"VersionChain", testVersionChain},
		{"Conflict", testConflict},
		{"History", testHistory},
		{"IsolatedIDs", testIsolatedIDs},
		{"ConcurrentPut", testConcurrentPut},
		{"CancelledContext", testCancelledContext},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func testNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetVersion(ctx, "missing", 1); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetVersion() error = %v, want ErrNotFound", err)
	}
	if _, err := s.Versions(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Versions() error = %v, want ErrNotFound", err)
	}
}

func testFirstSave(t *testing.T, s store.Store) {
	ctx := context.Background()

	v, err := s.Put(ctx, "pg-1", doc(1), 0)
	if err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if v != 1 {
		t.Errorf("Put() = %d, want 1", v)
	}

	got, err := s.Get(ctx, "pg-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.ID != "pg-1" || got.Version != 1 || string(got.Data) != string(doc(1)) {
		t.Errorf("Get() = {%s v%d %s}", got.ID, got.Version, got.Data)
	}
	if got.SavedAt.IsZero() {
		t.Error("Get() SavedAt is zero")
	}
}

func testVersionChain(t *testing.T, s store.Store) {
	ctx := context.Background()

	for want := 1; want <= 4; want++ {
		v, err := s.Put(ctx, "pg-1", doc(want), want-1)
		if err != nil {
			t.Fatalf("Put(expected %d) error: %v", want-1, err)
		}
		if v != want {
			t.Fatalf("Put(expected %d) = %d, want %d", want-1, v, want)
		}
	}

	latest, err := s.Get(ctx, "pg-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if latest.Version != 4 || string(latest.Data) != string(doc(4)) {
		t.Errorf("Get() = v%d %s, want v4", latest.Version, latest.Data)
	}

	old, err := s.GetVersion(ctx, "pg-1", 2)
	if err != nil {
		t.Fatalf("GetVersion(2) error: %v", err)
	}
	if old.Version != 2 || string(old.Data) != string(doc(2)) {
		t.Errorf("GetVersion(2) = v%d %s", old.Version, old.Data)
	}

	if _, err := s.GetVersion(ctx, "pg-1", 5); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetVersion(5) error = %v, want ErrNotFound", err)
	}
}

func testConflict(t *testing.T, s store.Store) {
	ctx := context.Background()

	if _, err := s.Put(ctx, "pg-1", doc(1), 3); !errors.Is(err, store.ErrConflict) {
		t.Errorf("Put(new, expected 3) error = %v, want ErrConflict", err)
	}
	if _, err := s.Put(ctx, "pg-1", doc(1), 0); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if _, err := s.Put(ctx, "pg-1", doc(99), 0); !errors.Is(err, store.ErrConflict) {
		t.Errorf("Put(stale) error = %v, want ErrConflict", err)
	}
	if _, err := s.Put(ctx, "pg-1", doc(99), 2); !errors.Is(err, store.ErrConflict) {
		t.Errorf("Put(ahead) error = %v, want ErrConflict", err)
	}

	got, err := s.Get(ctx, "pg-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Version != 1 || string(got.Data) != string(doc(1)) {
		t.Errorf("rejected Put changed the document: v%d %s", got.Version, got.Data)
	}
}

func testHistory(t *testing.T, s store.Store) {
	ctx := context.Background()

	for v := 0; v < 3; v++ {
		if _, err := s.Put(ctx, "pg-1", doc(v+1), v); err != nil {
			t.Fatalf("Put() error: %v", err)
		}
	}

	versions, err := s.Versions(ctx, "pg-1")
	if err != nil {
		t.Fatalf("Versions() error: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("Versions() len = %d, want 3", len(versions))
	}
	for i, info := range versions {
		if info.Version != i+1 {
			t.Errorf("Versions()[%d].Version = %d, want %d", i, info.Version, i+1)
		}
		if info.Size != len(doc(i+1)) {
			t.Errorf("Versions()[%d].Size = %d, want %d", i, info.Size, len(doc(i+1)))
		}
	}
}

func testIsolatedIDs(t *testing.T, s store.Store) {
	ctx := context.Background()

	if _, err := s.Put(ctx, "pg-a", doc(1), 0); err != nil {
		t.Fatalf("Put(a) error: %v", err)
	}
	if _, err := s.Put(ctx, "pg-a", doc(2), 1); err != nil {
		t.Fatalf("Put(a) error: %v", err)
	}
	if v, err := s.Put(ctx, "pg-b", doc(7), 0); err != nil || v != 1 {
		t.Fatalf("Put(b) = %d, %v; want 1, nil", v, err)
	}

	b, err := s.Get(ctx, "pg-b")
	if err != nil {
		t.Fatalf("Get(b) error: %v", err)
	}
	if string(b.Data) != string(doc(7)) {
		t.Errorf("Get(b) data = %s", b.Data)
	}
}

// testConcurrentPut races several writers that all loaded the same version.
// Exactly one may win.
func testConcurrentPut(t *testing.T, s store.Store) {
	ctx := context.Background()
	const writers = 8

	if _, err := s.Put(ctx, "pg-1", doc(0), 0); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := s.Put(ctx, "pg-1", doc(100+i), 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && v == 2:
				wins++
			case errors.Is(err, store.ErrConflict):
				conflicts++
			default:
				t.Errorf("writer %d: Put() = %d, %v", i, v, err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 || conflicts != writers-1 {
		t.Errorf("wins = %d, conflicts = %d; want 1 and %d", wins, conflicts, writers-1)
	}

	latest, err := s.Get(ctx, "pg-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if latest.Version != 2 {
		t.Errorf("latest version = %d, want 2", latest.Version)
	}
}

func testCancelledContext(t *testing.T, s store.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Put(ctx, "pg-1", doc(1), 0); err == nil {
		t.Error("Put() with cancelled context should fail")
	}
	if _, err := s.Get(context.Background(), "pg-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("cancelled Put left a document behind: %v", err)
	}
}

func doc(n int) []byte {
	return []byte(fmt.Sprintf(`{"fixtureId":"fx","name":"doc %d","version":%d}`, n, n))
}
