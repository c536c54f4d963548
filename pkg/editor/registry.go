package editor

import (
	"context"
	"sort"
	"sync"

	"github.com/shelfworks/planogram/pkg/errors"
	"github.com/shelfworks/planogram/pkg/persistence"
	"github.com/shelfworks/planogram/pkg/planogram"
)

// Registry holds at most one session per planogram id, keeping a single
// writer per fixture within a process.
type Registry struct {
	mu       sync.Mutex
	repo     *persistence.Repository
	opts     []Option
	sessions map[string]*Session
}

// NewRegistry creates a registry whose sessions save to repo and are
// configured with opts.
func NewRegistry(repo *persistence.Repository, opts ...Option) *Registry {
	return &Registry{
		repo:     repo,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session for a new, unsaved planogram. It fails with
// DUPLICATE_ID if a session for the id is open or the id was saved before.
func (r *Registry) Create(ctx context.Context, p *planogram.Planogram) (*Session, error) {
	if r.open(p.ID) != nil {
		return nil, duplicate(p.ID)
	}
	if _, err := r.repo.Load(ctx, p.ID); err == nil {
		return nil, duplicate(p.ID)
	} else if !errors.Is(err, errors.ErrCodeNotFound) {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[p.ID]; ok {
		return nil, duplicate(p.ID)
	}
	s := New(p, append([]Option{WithRepository(r.repo)}, r.opts...)...)
	r.sessions[p.ID] = s
	return s, nil
}

// Get returns the open session for id, loading the latest stored version
// if none is open. The store is read without holding the registry lock; if
// a concurrent Get opened the same id first, that session wins.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	if s := r.open(id); s != nil {
		return s, nil
	}
	loaded, err := Open(ctx, r.repo, id, r.opts...)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s, nil
	}
	r.sessions[id] = loaded
	return loaded, nil
}

func (r *Registry) open(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

// Close drops the session for id. Unsaved changes are discarded.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// IDs returns the ids of open sessions in sorted order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Repository returns the repository sessions save to.
func (r *Registry) Repository() *persistence.Repository { return r.repo }

func duplicate(id string) error {
	return errors.New(errors.ErrCodeDuplicateID, "planogram %q already exists", id).
		With(errors.DetailPlanogram, id)
}
