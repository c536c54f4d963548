package editor

import (
	"context"
	"math"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shelfworks/planogram/pkg/catalog"
	"github.com/shelfworks/planogram/pkg/errors"
	"github.com/shelfworks/planogram/pkg/fixture"
	"github.com/shelfworks/planogram/pkg/observability"
	"github.com/shelfworks/planogram/pkg/persistence"
	"github.com/shelfworks/planogram/pkg/planogram"
	"github.com/shelfworks/planogram/pkg/store"
	"github.com/shelfworks/planogram/pkg/store/memory"
	"github.com/shelfworks/planogram/pkg/units"
)

func newRepo(s store.Store) *persistence.Repository {
	return persistence.New(s, persistence.Options{
		Retry: persistence.RetryPolicy{Attempts: 1},
	})
}

// newSession returns a session over a planogram with one 48x72in section
// "bay" holding a single 10in row.
func newSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	p := planogram.New("pg-1", "Drinks", fixture.New("fx-1", "Gondola"))
	s := New(p, opts...)
	if _, err := s.AddSection(SectionSpec{
		ID: "bay", Width: 48, Height: 72, HeaderHeight: 4, RowOffset: 2,
		Rows: []fixture.Row{{ID: "top", Height: 10}},
	}); err != nil {
		t.Fatalf("AddSection() error: %v", err)
	}
	return s
}

func can(id string, facings int) fixture.PlacedComponent {
	return fixture.PlacedComponent{
		ID:         id,
		ProductID:  "sku-" + id,
		Dimensions: units.Dimensions{Width: 2, Height: 6, Depth: 2},
		Facings:    facings,
	}
}

func TestPlacementScenarios(t *testing.T) {
	s := newSession(t)

	tall := can("tall", 1)
	tall.Dimensions.Height = 12
	if _, err := s.Place("bay", tall, 0, 0); !errors.Is(err, errors.ErrCodeComponentTooTall) {
		t.Fatalf("Place(12in) error = %v, want %s", err, errors.ErrCodeComponentTooTall)
	}

	a, err := s.Place("bay", can("a", 3), 0, 0)
	if err != nil {
		t.Fatalf("Place(a) error: %v", err)
	}
	if got := s.Engine().OccupiedWidth(a); got != 60 {
		t.Errorf("OccupiedWidth(a) = %v, want 60", got)
	}
	if _, err := s.Place("bay", can("b", 1), 0, 60); err != nil {
		t.Fatalf("Place(b at 60) error: %v", err)
	}
	if _, err := s.Place("bay", can("c", 1), 0, 59); !errors.Is(err, errors.ErrCodeOverlap) {
		t.Fatalf("Place(c at 59) error = %v, want %s", err, errors.ErrCodeOverlap)
	}

	if _, err := s.SetFacings("bay", "a", 4); !errors.Is(err, errors.ErrCodeOverlap) {
		t.Fatalf("SetFacings(4) error = %v, want %s", err, errors.ErrCodeOverlap)
	}
	sec, _ := s.Fixture().Section("bay")
	if c, _ := sec.Component("a"); c.Facings != 3 {
		t.Errorf("Facings = %d after rejected change, want 3", c.Facings)
	}
}

func TestUnknownSection(t *testing.T) {
	s := newSession(t)

	calls := []struct {
		name string
		fn   func() error
	}{
		{"AddRow", func() error { _, err := s.AddRow("ghost", fixture.Row{Height: 5}); return err }},
		{"RemoveLastRow", func() error { _, err := s.RemoveLastRow("ghost"); return err }},
		{"ResizeRow", func() error { _, err := s.ResizeRow("ghost", 0, 5); return err }},
		{"Place", func() error { _, err := s.Place("ghost", can("x", 1), 0, 0); return err }},
		{"Move", func() error { _, err := s.Move("ghost", "x", 0, 0); return err }},
		{"SetFacings", func() error { _, err := s.SetFacings("ghost", "x", 1); return err }},
		{"RemoveComponent", func() error { _, err := s.RemoveComponent("ghost", "x"); return err }},
		{"RemoveSection", func() error { return s.RemoveSection("ghost") }},
	}

	for _, tt := range calls {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			if !errors.Is(err, errors.ErrCodeNotFound) {
				t.Fatalf("%s() error = %v, want %s", tt.name, err, errors.ErrCodeNotFound)
			}
			if got := errors.Detail(err, errors.DetailSection); got != "ghost" {
				t.Errorf("section detail = %q, want ghost", got)
			}
		})
	}
	if !s.Dirty() {
		t.Error("AddSection should have marked the session dirty")
	}
}

func TestRowOperations(t *testing.T) {
	s := newSession(t)

	row, err := s.AddRow("bay", fixture.Row{Height: 12})
	if err != nil {
		t.Fatalf("AddRow() error: %v", err)
	}
	if row.ID == "" {
		t.Error("AddRow() should generate a row id")
	}
	// 4 + 2 + 10 + 12 = 28; 44in left.
	if _, err := s.AddRow("bay", fixture.Row{Height: 45}); !errors.Is(err, errors.ErrCodeCapacityExceeded) {
		t.Errorf("AddRow(45) error = %v, want %s", err, errors.ErrCodeCapacityExceeded)
	}

	if _, err := s.Place("bay", can("low", 1), 1, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RemoveLastRow("bay"); !errors.Is(err, errors.ErrCodeRowOccupied) {
		t.Errorf("RemoveLastRow(occupied) error = %v, want %s", err, errors.ErrCodeRowOccupied)
	}

	if _, err := s.ResizeRow("bay", 0, 14); err != nil {
		t.Fatalf("ResizeRow() error: %v", err)
	}
	sec, _ := s.Fixture().Section("bay")
	low, _ := sec.Component("low")
	if !units.ApproxEqual(low.Y, 200) {
		t.Errorf("Y after resizing the row above = %v, want 200", low.Y)
	}

	if _, err := s.RemoveComponent("bay", "low"); err != nil {
		t.Fatal(err)
	}
	removed, err := s.RemoveLastRow("bay")
	if err != nil {
		t.Fatalf("RemoveLastRow() error: %v", err)
	}
	if removed.ID != row.ID {
		t.Errorf("RemoveLastRow() = %q, want %q", removed.ID, row.ID)
	}
}

func TestComponentIDsAreFixtureWide(t *testing.T) {
	s := newSession(t)
	if _, err := s.AddSection(SectionSpec{ID: "bay-2", Width: 48, Height: 72, Rows: []fixture.Row{{Height: 10}}}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Place("bay", can("a", 1), 0, 0); err != nil {
		t.Fatal(err)
	}
	_, err := s.Place("bay-2", can("a", 1), 0, 0)
	if !errors.Is(err, errors.ErrCodeDuplicateID) {
		t.Fatalf("Place(dup id in other section) error = %v, want %s", err, errors.ErrCodeDuplicateID)
	}
	if got := errors.Detail(err, errors.DetailSection); got != "bay" {
		t.Errorf("section detail = %q, want bay", got)
	}

	generated, err := s.Place("bay-2", can("", 1), 0, 0)
	if err != nil || generated.ID == "" {
		t.Errorf("Place(no id) = %q, %v", generated.ID, err)
	}
}

func TestPlaceProduct(t *testing.T) {
	cat, err := catalog.NewStatic(catalog.Product{
		ID: "sku-9", Name: "Sparkling Water", Brand: "Brook",
		Dimensions: units.Dimensions{Width: 3, Height: 9, Depth: 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	s := newSession(t, WithCatalog(cat))

	c, err := s.PlaceProduct(context.Background(), "bay", "sku-9", 2, 0, 100)
	if err != nil {
		t.Fatalf("PlaceProduct() error: %v", err)
	}
	if c.Name != "Sparkling Water" || c.Brand != "Brook" || c.Facings != 2 || c.X != 100 {
		t.Errorf("PlaceProduct() = %+v", c)
	}
	if _, err := s.PlaceProduct(context.Background(), "bay", "sku-0", 1, 0, 300); !errors.Is(err, errors.ErrCodeProductNotFound) {
		t.Errorf("PlaceProduct(unknown) error = %v, want %s", err, errors.ErrCodeProductNotFound)
	}
}

func TestLifecycle(t *testing.T) {
	s := newSession(t)

	if err := s.SetStatus(planogram.StatusActive); err != nil {
		t.Fatalf("SetStatus(active) error: %v", err)
	}
	if err := s.AssignStores([]string{"store-1"}); err != nil {
		t.Fatalf("AssignStores() error: %v", err)
	}
	if err := s.Rename(""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Rename(\"\") error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
	if err := s.SetStatus(planogram.StatusArchived); err != nil {
		t.Fatalf("SetStatus(archived) error: %v", err)
	}

	if _, err := s.Place("bay", can("late", 1), 0, 0); !errors.Is(err, errors.ErrCodeArchived) {
		t.Errorf("Place(archived) error = %v, want %s", err, errors.ErrCodeArchived)
	}
	if err := s.Rename("new"); !errors.Is(err, errors.ErrCodeArchived) {
		t.Errorf("Rename(archived) error = %v, want %s", err, errors.ErrCodeArchived)
	}

	p := s.Planogram()
	if p.Status != planogram.StatusArchived || len(p.StoreAssignments) != 1 || p.Name != "Drinks" {
		t.Errorf("Planogram() = %+v", p)
	}
}

func TestSaveAdvancesVersion(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, WithRepository(newRepo(memory.New())))

	if s.Version() != 0 || !s.Dirty() {
		t.Fatalf("new session: version %d dirty %v", s.Version(), s.Dirty())
	}
	saved, err := s.Save(ctx)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if saved.Version != 1 || s.Version() != 1 || s.Dirty() {
		t.Errorf("after Save: saved v%d, session v%d, dirty %v", saved.Version, s.Version(), s.Dirty())
	}
	if s.State() != StateEditing {
		t.Errorf("State() = %s, want editing", s.State())
	}
}

func TestExactFitRowsSurviveReload(t *testing.T) {
	ctx := context.Background()
	s := New(planogram.New("pg-1", "Drinks", fixture.New("fx-1", "Gondola")),
		WithRepository(newRepo(memory.New())))
	if _, err := s.AddSection(SectionSpec{
		ID: "bay", Width: 48, Height: 31.2, HeaderHeight: 13.5,
		Rows: []fixture.Row{{ID: "top", Height: 1.1}},
	}); err != nil {
		t.Fatalf("AddSection() error: %v", err)
	}
	if _, err := s.AddRow("bay", fixture.Row{ID: "low", Height: 16.6}); err != nil {
		t.Fatalf("AddRow(16.6) error: %v", err)
	}
	if problems := s.Audit(); len(problems) != 0 {
		t.Fatalf("Audit() = %v, want none", problems)
	}
	if _, err := s.Save(ctx); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := s.Reload(ctx); err != nil {
		t.Fatalf("Reload() error = %v, want nil", err)
	}
	if sec, _ := s.Fixture().Section("bay"); len(sec.Rows) != 2 {
		t.Errorf("rows after reload = %d, want 2", len(sec.Rows))
	}
}

func TestNonFiniteXKeepsSessionSavable(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, WithRepository(newRepo(memory.New())))

	if _, err := s.Place("bay", can("a", 1), 0, math.NaN()); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("Place(NaN) error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
	if _, err := s.Place("bay", can("b", 1), 0, 0); err != nil {
		t.Fatalf("Place(b) error: %v", err)
	}
	if _, err := s.Save(ctx); err != nil {
		t.Errorf("Save() error = %v, want nil", err)
	}
}

func TestSaveWithoutRepository(t *testing.T) {
	s := newSession(t)
	if _, err := s.Save(context.Background()); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("Save() error = %v, want %s", err, errors.ErrCodeInternal)
	}
	if err := s.Reload(context.Background()); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("Reload() error = %v, want %s", err, errors.ErrCodeInternal)
	}
}

// TestConflictThenReload: two sessions open the same planogram at version 3
// and both save. One gets version 4, the other VERSION_CONFLICT and keeps
// its version; after Reload it sees version 4's content.
func TestConflictThenReload(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(memory.New())

	seed := newSession(t, WithRepository(repo))
	for i := 0; i < 3; i++ {
		if _, err := seed.Save(ctx); err != nil {
			t.Fatal(err)
		}
	}

	a, err := Open(ctx, repo, "pg-1")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	b, err := Open(ctx, repo, "pg-1")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if a.Version() != 3 || b.Version() != 3 {
		t.Fatalf("opened versions %d and %d, want 3", a.Version(), b.Version())
	}

	if _, err := a.Place("bay", can("from-a", 1), 0, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Place("bay", can("from-b", 1), 0, 200); err != nil {
		t.Fatal(err)
	}

	sessions := []*Session{a, b}
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.Save(ctx)
		}()
	}
	wg.Wait()

	winner, loser := -1, -1
	for i, err := range errs {
		switch {
		case err == nil:
			winner = i
		case errors.Is(err, errors.ErrCodeVersionConflict):
			loser = i
		default:
			t.Fatalf("Save() error = %v", err)
		}
	}
	if winner < 0 || loser < 0 {
		t.Fatalf("want one winner and one conflict, got errors %v", errs)
	}

	w, l := sessions[winner], sessions[loser]
	if w.Version() != 4 || l.Version() != 3 {
		t.Errorf("versions after race: winner %d, loser %d; want 4 and 3", w.Version(), l.Version())
	}
	if !l.Dirty() {
		t.Error("losing session should keep its unsaved changes")
	}

	if err := l.Reload(ctx); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if l.Version() != 4 || l.Dirty() {
		t.Errorf("after Reload: version %d dirty %v", l.Version(), l.Dirty())
	}
	if !planogram.Equal(l.Planogram(), w.Planogram()) {
		t.Error("reloaded session does not match the winning save")
	}
}

func TestSaveInProgressRejectsMutations(t *testing.T) {
	blocking := newBlockingStore()
	s := newSession(t, WithRepository(newRepo(blocking)))

	done := make(chan error, 1)
	go func() {
		_, err := s.Save(context.Background())
		done <- err
	}()
	<-blocking.entered

	if s.State() != StateSaving {
		t.Fatalf("State() = %s during save, want saving", s.State())
	}
	if _, err := s.Place("bay", can("x", 1), 0, 0); !errors.Is(err, errors.ErrCodeSaveInProgress) {
		t.Errorf("Place() during save error = %v, want %s", err, errors.ErrCodeSaveInProgress)
	}
	if _, err := s.Save(context.Background()); !errors.Is(err, errors.ErrCodeSaveInProgress) {
		t.Errorf("second Save() error = %v, want %s", err, errors.ErrCodeSaveInProgress)
	}
	if err := s.Reload(context.Background()); !errors.Is(err, errors.ErrCodeSaveInProgress) {
		t.Errorf("Reload() during save error = %v, want %s", err, errors.ErrCodeSaveInProgress)
	}

	close(blocking.release)
	if err := <-done; err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if s.State() != StateEditing || s.Version() != 1 {
		t.Errorf("after save: state %s version %d", s.State(), s.Version())
	}
	if _, err := s.Place("bay", can("x", 1), 0, 0); err != nil {
		t.Errorf("Place() after save error: %v", err)
	}
}

func TestFailedSaveKeepsVersion(t *testing.T) {
	repo := persistence.New(newBlockingStore(), persistence.Options{
		SaveTimeout: 10 * time.Millisecond,
		Retry:       persistence.RetryPolicy{Attempts: 1},
	})
	s := newSession(t, WithRepository(repo))

	_, err := s.Save(context.Background())
	if !errors.Is(err, errors.ErrCodeTimeout) {
		t.Fatalf("Save() error = %v, want %s", err, errors.ErrCodeTimeout)
	}
	if s.Version() != 0 || s.State() != StateEditing || !s.Dirty() {
		t.Errorf("after failed save: version %d state %s dirty %v", s.Version(), s.State(), s.Dirty())
	}
}

func TestEditorHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetEditorHooks(hooks)
	defer observability.Reset()

	s := newSession(t, WithRepository(newRepo(memory.New())))
	_, _ = s.Place("bay", can("a", 1), 0, 0)
	_, _ = s.Place("bay", can("b", 1), 0, 0)
	_, _ = s.Save(context.Background())

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	want := []string{"add-section ok", "place ok", "place rejected", "save-start 0", "save-complete 1"}
	if len(hooks.events) != len(want) {
		t.Fatalf("events = %v, want %v", hooks.events, want)
	}
	for i := range want {
		if hooks.events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, hooks.events[i], want[i])
		}
	}
}

func TestAuditClean(t *testing.T) {
	s := newSession(t)
	_, _ = s.Place("bay", can("a", 2), 0, 0)
	if problems := s.Audit(); len(problems) != 0 {
		t.Errorf("Audit() = %v", problems)
	}
}

func TestFixtureIsACopy(t *testing.T) {
	s := newSession(t)
	f := s.Fixture()
	f.Sections[0].Rows[0].Height = 1

	sec, _ := s.Fixture().Section("bay")
	if sec.Rows[0].Height != 10 {
		t.Error("modifying Fixture() result changed the session")
	}
}

// blockingStore blocks every Put until release is closed or the context
// ends, signalling entered when a Put starts.
type blockingStore struct {
	*memory.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingStore() *blockingStore {
	return &blockingStore{
		Store:   memory.New(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *blockingStore) Put(ctx context.Context, id string, data []byte, expected int) (int, error) {
	b.once.Do(func() { close(b.entered) })
	select {
	case <-b.release:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	return b.Store.Put(ctx, id, data, expected)
}

type recordingHooks struct {
	observability.NoopEditorHooks
	mu     sync.Mutex
	events []string
}

func (r *recordingHooks) OnMutation(_ string, op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	r.events = append(r.events, op+" "+outcome)
}

func (r *recordingHooks) OnSaveStart(_ context.Context, _ string, expected int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "save-start "+strconv.Itoa(expected))
}

func (r *recordingHooks) OnSaveComplete(_ context.Context, _ string, version int, _ time.Duration, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "save-complete "+strconv.Itoa(version))
}
