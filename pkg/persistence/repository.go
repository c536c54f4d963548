// Package persistence implements the save/load protocol between editing
// sessions and a versioned [store.Store].
//
// Saves use optimistic concurrency: a snapshot is written as version
// expectedVersion+1 only if the store still holds expectedVersion. Every error
// returned by [Repository] is a structured pkg/errors value:
//
//	VERSION_CONFLICT  another writer saved first; reload and reconcile
//	NOT_FOUND         the planogram or version does not exist
//	TIMEOUT           the per-call timeout or the caller's deadline expired
//	NETWORK_ERROR     a transient backend failure that survived retries
//	INVALID_SNAPSHOT  the stored document could not be decoded
//	INTERNAL_ERROR    any other backend failure
//
// Conflicts, missing documents and timeouts are never retried
// automatically; only NETWORK_ERROR failures are, with exponential backoff.
package persistence

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/shelfworks/planogram/pkg/errors"
	"github.com/shelfworks/planogram/pkg/observability"
	"github.com/shelfworks/planogram/pkg/planogram"
	"github.com/shelfworks/planogram/pkg/store"
)

// Default per-call timeouts.
const (
	DefaultSaveTimeout = 10 * time.Second
	DefaultLoadTimeout = 5 * time.Second
)

// Options configures a Repository. Zero values select the defaults.
type Options struct {
	SaveTimeout time.Duration
	LoadTimeout time.Duration
	Retry       RetryPolicy
	Logger      *log.Logger
}

// SavedVersion describes a successful save.
type SavedVersion struct {
	ID      string    `json:"id"`
	Version int       `json:"version"`
	SavedAt time.Time `json:"savedAt"`
}

// Repository saves and loads planogram snapshots.
//
// A Repository is safe for concurrent use; coordination between writers
// happens entirely through the store's version check.
type Repository struct {
	store       store.Store
	saveTimeout time.Duration
	loadTimeout time.Duration
	retry       RetryPolicy
	logger      *log.Logger
	now         func() time.Time
}

// New creates a repository over s.
func New(s store.Store, opts Options) *Repository {
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = DefaultSaveTimeout
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	if opts.Retry.Attempts == 0 {
		opts.Retry = DefaultRetryPolicy
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Repository{
		store:       s,
		saveTimeout: opts.SaveTimeout,
		loadTimeout: opts.LoadTimeout,
		retry:       opts.Retry,
		logger:      opts.Logger,
		now:         time.Now,
	}
}

// Store returns the underlying document store.
func (r *Repository) Store() store.Store { return r.store }

// Save writes snap as version expectedVersion+1. The snapshot's version and
// schema fields are set by Save; all other fields are written as given.
//
// A planogram that has never been saved uses expectedVersion 0.
//
// A retryable Put failure may still have committed. If a later attempt is
// rejected as a conflict, Save reads the head and treats version
// expectedVersion+1 holding exactly the bytes it wrote as its own success.
func (r *Repository) Save(ctx context.Context, snap planogram.Snapshot, expectedVersion int) (SavedVersion, error) {
	id := snap.ID
	if err := store.ValidateID(id); err != nil {
		return SavedVersion{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "save").
			With(errors.DetailField, "id")
	}
	if expectedVersion < 0 {
		return SavedVersion{}, errors.New(errors.ErrCodeInvalidInput, "expected version must not be negative, got %d", expectedVersion).
			With(errors.DetailPlanogram, id).
			With(errors.DetailVersion, strconv.Itoa(expectedVersion))
	}

	next := expectedVersion + 1
	snap.Version = next
	snap.SchemaVersion = planogram.SchemaVersion
	data, err := planogram.Marshal(snap)
	if err != nil {
		return SavedVersion{}, errors.Wrap(errors.ErrCodeInternal, err, "encode planogram %q", id)
	}

	ctx, cancel := context.WithTimeout(ctx, r.saveTimeout)
	defer cancel()

	start := r.now()
	var version int
	uncertain := false
	err = retry(ctx, "put", r.retry, func() error {
		v, err := r.store.Put(ctx, id, data, expectedVersion)
		if uncertain && stderrors.Is(err, store.ErrConflict) && r.landed(ctx, id, next, data) {
			r.logger.Debug("earlier save attempt committed", "planogram", id, "version", next)
			v, err = next, nil
		}
		uncertain = uncertain || store.IsRetryable(err)
		version = v
		return err
	})
	observability.Store().OnPut(ctx, id, version, len(data), time.Since(start), err)

	if err != nil {
		if stderrors.Is(err, store.ErrConflict) {
			observability.Store().OnConflict(ctx, id, expectedVersion)
			r.logger.Warn("save rejected", "planogram", id, "expected", expectedVersion)
			return SavedVersion{}, errors.New(errors.ErrCodeVersionConflict,
				"planogram %q was saved by another session since version %d", id, expectedVersion).
				With(errors.DetailPlanogram, id).
				With(errors.DetailVersion, strconv.Itoa(expectedVersion))
		}
		r.logger.Error("save failed", "planogram", id, "err", err)
		return SavedVersion{}, mapIOError(ctx, err, "save planogram %q", id).With(errors.DetailPlanogram, id)
	}

	r.logger.Debug("saved planogram", "planogram", id, "version", version, "bytes", len(data))
	return SavedVersion{ID: id, Version: version, SavedAt: r.now().UTC()}, nil
}

// landed reports whether the head of id is version holding exactly data.
func (r *Repository) landed(ctx context.Context, id string, version int, data []byte) bool {
	doc, err := r.store.Get(ctx, id)
	return err == nil && doc.Version == version && bytes.Equal(doc.Data, data)
}

// SavePlanogram serializes p and saves it against p.Version. On success
// p.Version is advanced to the saved version.
func (r *Repository) SavePlanogram(ctx context.Context, p *planogram.Planogram) (SavedVersion, error) {
	saved, err := r.Save(ctx, planogram.Serialize(p), p.Version)
	if err != nil {
		return SavedVersion{}, err
	}
	p.Version = saved.Version
	return saved, nil
}

// Load returns the latest snapshot of id.
func (r *Repository) Load(ctx context.Context, id string) (planogram.Snapshot, error) {
	return r.load(ctx, id, 0)
}

// LoadVersion returns a specific earlier (or the latest) version of id.
func (r *Repository) LoadVersion(ctx context.Context, id string, version int) (planogram.Snapshot, error) {
	if version < 1 {
		return planogram.Snapshot{}, errors.New(errors.ErrCodeInvalidInput, "version must be at least 1, got %d", version).
			With(errors.DetailPlanogram, id).
			With(errors.DetailVersion, strconv.Itoa(version))
	}
	return r.load(ctx, id, version)
}

// LoadPlanogram loads and deserializes the latest version of id.
func (r *Repository) LoadPlanogram(ctx context.Context, id string) (*planogram.Planogram, error) {
	snap, err := r.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return planogram.Deserialize(snap)
}

// History lists the stored versions of id, oldest first.
func (r *Repository) History(ctx context.Context, id string) ([]store.VersionInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.loadTimeout)
	defer cancel()

	var versions []store.VersionInfo
	err := retry(ctx, "versions", r.retry, func() error {
		var err error
		versions, err = r.store.Versions(ctx, id)
		return err
	})
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, notFound(id, 0)
		}
		return nil, mapIOError(ctx, err, "list versions of %q", id).With(errors.DetailPlanogram, id)
	}
	return versions, nil
}

// load fetches version of id, or the latest when version is 0.
func (r *Repository) load(ctx context.Context, id string, version int) (planogram.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.loadTimeout)
	defer cancel()

	start := r.now()
	var doc store.Document
	err := retry(ctx, "get", r.retry, func() error {
		var err error
		if version == 0 {
			doc, err = r.store.Get(ctx, id)
		} else {
			doc, err = r.store.GetVersion(ctx, id, version)
		}
		return err
	})
	observability.Store().OnLoad(ctx, id, doc.Version, time.Since(start), err)

	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return planogram.Snapshot{}, notFound(id, version)
		}
		r.logger.Error("load failed", "planogram", id, "err", err)
		return planogram.Snapshot{}, mapIOError(ctx, err, "load planogram %q", id).With(errors.DetailPlanogram, id)
	}

	snap, err := planogram.Unmarshal(doc.Data)
	if err != nil {
		return planogram.Snapshot{}, err
	}
	// The store's version is authoritative; the payload copy is informational.
	snap.Version = doc.Version
	if snap.ID == "" {
		snap.ID = id
	}
	r.logger.Debug("loaded planogram", "planogram", id, "version", doc.Version)
	return snap, nil
}

func notFound(id string, version int) error {
	if version > 0 {
		return errors.New(errors.ErrCodeNotFound, "planogram %q has no version %d", id, version).
			With(errors.DetailPlanogram, id).
			With(errors.DetailVersion, strconv.Itoa(version))
	}
	return errors.New(errors.ErrCodeNotFound, "planogram %q not found", id).
		With(errors.DetailPlanogram, id)
}

// mapIOError classifies a store failure. Deadline expiry wins over the
// backend's own error since backends report it in different ways.
func mapIOError(ctx context.Context, err error, format string, args ...any) *errors.Error {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.Wrap(errors.ErrCodeTimeout, err, format, args...)
	case stderrors.Is(err, context.Canceled):
		return errors.Wrap(errors.ErrCodeTimeout, err, format+" (cancelled)", args...)
	case store.IsRetryable(err):
		return errors.Wrap(errors.ErrCodeNetwork, err, format, args...)
	default:
		return errors.Wrap(errors.ErrCodeInternal, err, format, args...)
	}
}
