package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shelfworks/planogram/pkg/store"
	"github.com/shelfworks/planogram/pkg/store/storetest"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "planograms.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openTempStore(t) })
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Error("Open(blank) should fail")
	}
}

func TestReopenKeepsVersions(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "planograms.db")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Put(ctx, "pg", []byte(`{"v":1}`), 0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Put(ctx, "pg", []byte(`{"v":2}`), 1); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	got, err := s.Get(ctx, "pg")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Version != 2 || string(got.Data) != `{"v":2}` {
		t.Errorf("Get() = v%d %s, want v2", got.Version, got.Data)
	}
}

func TestCloseNil(t *testing.T) {
	var s *Store
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil store = %v", err)
	}
}
