package editor

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/shelfworks/planogram/pkg/catalog"
	"github.com/shelfworks/planogram/pkg/errors"
	"github.com/shelfworks/planogram/pkg/fixture"
	"github.com/shelfworks/planogram/pkg/observability"
	"github.com/shelfworks/planogram/pkg/persistence"
	"github.com/shelfworks/planogram/pkg/placement"
	"github.com/shelfworks/planogram/pkg/planogram"
)

// State is the lifecycle state of an editing session.
type State int

// Session states.
const (
	StateEditing State = iota
	StateSaving
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateSaving:
		return "saving"
	}
	return "unknown"
}

// Session is an editing session over one planogram. It is safe for
// concurrent use; all operations are serialized.
type Session struct {
	mu      sync.Mutex
	p       *planogram.Planogram
	engine  *placement.Engine
	repo    *persistence.Repository
	catalog catalog.Catalog
	logger  *log.Logger
	state   State
	dirty   bool
}

// Option configures a Session.
type Option func(*Session)

// WithRepository sets the repository used by Save and Reload.
func WithRepository(r *persistence.Repository) Option {
	return func(s *Session) { s.repo = r }
}

// WithCatalog sets the product catalog used by PlaceProduct.
func WithCatalog(c catalog.Catalog) Option {
	return func(s *Session) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// New starts a session over p. The session takes ownership of p; callers
// must not modify it afterwards.
func New(p *planogram.Planogram, opts ...Option) *Session {
	s := &Session{
		p:       p,
		engine:  placement.New(p.Scale),
		catalog: catalog.Empty,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open loads the latest version of id from repo and starts a session on it.
func Open(ctx context.Context, repo *persistence.Repository, id string, opts ...Option) (*Session, error) {
	p, err := repo.LoadPlanogram(ctx, id)
	if err != nil {
		return nil, err
	}
	return New(p, append([]Option{WithRepository(repo)}, opts...)...), nil
}

// =============================================================================
// Accessors
// =============================================================================

// ID returns the planogram id.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.ID
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Version returns the version the session was loaded from or last saved as.
// It is 0 for a planogram that has never been saved.
func (s *Session) Version() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Version
}

// Dirty reports whether there are mutations since the last load or save.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Planogram returns a deep copy of the planogram.
func (s *Session) Planogram() *planogram.Planogram {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Clone()
}

// Fixture returns a deep copy of the fixture tree for rendering.
func (s *Session) Fixture() *fixture.Fixture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Fixture.Clone()
}

// Snapshot serializes the current in-memory state.
func (s *Session) Snapshot() planogram.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return planogram.Serialize(s.p)
}

// Engine returns the placement engine used by the session.
func (s *Session) Engine() *placement.Engine { return s.engine }

// Audit returns every invariant violation in the current layout. A session
// only ever produces valid layouts, so this is empty unless the planogram was
// constructed invalid.
func (s *Session) Audit() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.p.Fixture.Validate(); err != nil {
		return []error{err}
	}
	return s.engine.AuditFixture(s.p.Fixture)
}

// =============================================================================
// Persistence
// =============================================================================

// Save writes the current state as a new version. On success the session
// version advances and the session is clean; on failure the version is
// unchanged and the error is returned.
func (s *Session) Save(ctx context.Context) (persistence.SavedVersion, error) {
	s.mu.Lock()
	if err := s.guard(); err != nil {
		s.mu.Unlock()
		return persistence.SavedVersion{}, err
	}
	if s.repo == nil {
		s.mu.Unlock()
		return persistence.SavedVersion{}, errors.New(errors.ErrCodeInternal, "session has no repository")
	}
	id, expected := s.p.ID, s.p.Version
	snap := planogram.Serialize(s.p)
	s.state = StateSaving
	s.mu.Unlock()

	observability.Editor().OnSaveStart(ctx, id, expected)
	start := time.Now()
	saved, err := s.repo.Save(ctx, snap, expected)
	observability.Editor().OnSaveComplete(ctx, id, saved.Version, time.Since(start), err)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateEditing
	if err != nil {
		s.logger.Warn("save failed", "planogram", id, "version", expected, "code", errors.GetCode(err))
		return persistence.SavedVersion{}, err
	}
	s.p.Version = saved.Version
	s.dirty = false
	s.logger.Info("saved planogram", "planogram", id, "version", saved.Version)
	return saved, nil
}

// Reload discards local changes and replaces the session's planogram with
// the latest stored version.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	if err := s.guard(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.repo == nil {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeInternal, "session has no repository")
	}
	id := s.p.ID
	s.mu.Unlock()

	p, err := s.repo.LoadPlanogram(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	s.p = p
	s.engine = placement.New(p.Scale)
	s.dirty = false
	s.logger.Info("reloaded planogram", "planogram", id, "version", p.Version)
	return nil
}

// =============================================================================
// Internal Helpers
// =============================================================================

// guard rejects operations while a save is in flight. Callers hold s.mu.
func (s *Session) guard() error {
	if s.state == StateSaving {
		return errors.New(errors.ErrCodeSaveInProgress, "planogram %q is being saved", s.p.ID).
			With(errors.DetailPlanogram, s.p.ID)
	}
	return nil
}

// mutate runs fn under the session lock once the session accepts
// mutations, and records the outcome.
func (s *Session) mutate(op string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.guard()
	if err == nil {
		err = s.p.Mutable()
	}
	if err == nil {
		err = fn()
	}
	if err == nil {
		s.dirty = true
		s.logger.Debug("applied", "op", op, "planogram", s.p.ID)
	} else {
		s.logger.Debug("rejected", "op", op, "planogram", s.p.ID, "code", errors.GetCode(err))
	}
	observability.Editor().OnMutation(s.p.ID, op, err)
	return err
}

// section returns the section with id. Callers hold s.mu.
func (s *Session) section(id string) (*fixture.Section, error) {
	sec, ok := s.p.Fixture.Section(id)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "section %q not found", id).
			With(errors.DetailSection, id)
	}
	return sec, nil
}
