package planogram

import (
	"slices"

	"github.com/google/uuid"

	"github.com/shelfworks/planogram/pkg/errors"
	"github.com/shelfworks/planogram/pkg/fixture"
	"github.com/shelfworks/planogram/pkg/units"
)

// Status is the lifecycle state of a planogram.
type Status string

// Lifecycle states.
const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

var transitions = map[Status][]Status{
	StatusDraft:    {StatusActive, StatusArchived},
	StatusActive:   {StatusDraft, StatusArchived},
	StatusArchived: nil,
}

// ParseStatus converts s to a Status, failing with INVALID_STATUS for
// anything other than draft, active or archived.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := transitions[st]; !ok {
		return "", errors.New(errors.ErrCodeInvalidStatus, "unknown status %q", s).
			With(errors.DetailField, "status")
	}
	return st, nil
}

// CanTransition reports whether a planogram may move from s to next.
// Staying in the same status is always allowed.
func (s Status) CanTransition(next Status) bool {
	return s == next || slices.Contains(transitions[s], next)
}

// Planogram is a named, versioned container binding one fixture to the
// stores it is assigned to.
type Planogram struct {
	ID               string
	Name             string
	Fixture          *fixture.Fixture
	StoreAssignments []string
	Status           Status
	Version          int
	Scale            units.Scale
}

// New creates an unsaved draft planogram around f. An empty id is replaced
// by a generated one.
func New(id, name string, f *fixture.Fixture) *Planogram {
	if id == "" {
		id = NewID()
	}
	if f == nil {
		f = fixture.New(NewID(), name)
	}
	return &Planogram{
		ID:      id,
		Name:    name,
		Fixture: f,
		Status:  StatusDraft,
		Scale:   units.DefaultScale,
	}
}

// NewID returns a random identifier suitable for planograms, sections, rows
// and components.
func NewID() string {
	return uuid.NewString()
}

// Mutable returns PLANOGRAM_ARCHIVED if p can no longer be edited.
func (p *Planogram) Mutable() error {
	if p.Status == StatusArchived {
		return errors.New(errors.ErrCodeArchived, "planogram %q is archived", p.ID).
			With(errors.DetailPlanogram, p.ID)
	}
	return nil
}

// Transition moves p to status next.
func (p *Planogram) Transition(next Status) error {
	if _, err := ParseStatus(string(next)); err != nil {
		return err
	}
	if !p.Status.CanTransition(next) {
		return errors.New(errors.ErrCodeInvalidStatus, "cannot move planogram %q from %s to %s", p.ID, p.Status, next).
			With(errors.DetailPlanogram, p.ID).
			With(errors.DetailField, "status")
	}
	p.Status = next
	return nil
}

// AssignStores replaces the store assignment list. Empty and duplicate
// store ids are rejected with INVALID_INPUT.
func (p *Planogram) AssignStores(stores []string) error {
	seen := make(map[string]bool, len(stores))
	for _, id := range stores {
		if id == "" {
			return errors.New(errors.ErrCodeInvalidInput, "store id must not be empty").
				With(errors.DetailField, "storeAssignments")
		}
		if seen[id] {
			return errors.New(errors.ErrCodeDuplicateID, "store %q assigned twice", id).
				With(errors.DetailField, "storeAssignments")
		}
		seen[id] = true
	}
	p.StoreAssignments = slices.Clone(stores)
	return nil
}

// Clone returns a deep copy of p.
func (p *Planogram) Clone() *Planogram {
	if p == nil {
		return nil
	}
	out := *p
	out.Fixture = p.Fixture.Clone()
	out.StoreAssignments = slices.Clone(p.StoreAssignments)
	return &out
}
