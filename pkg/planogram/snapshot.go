package planogram

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"

	"github.com/shelfworks/planogram/pkg/errors"
	"github.com/shelfworks/planogram/pkg/fixture"
	"github.com/shelfworks/planogram/pkg/placement"
	"github.com/shelfworks/planogram/pkg/units"
)

// SchemaVersion is the version of the snapshot protocol written by this
// package. Snapshots without a schemaVersion field are read as version 1.
const SchemaVersion = 1

// =============================================================================
// Snapshot - Persisted Layout
// =============================================================================

// Snapshot is the canonical serialization format of a planogram.
// Used for the document store, the HTTP API and CLI import/export.
type Snapshot struct {
	ID               string            `json:"id,omitempty"`
	SchemaVersion    int               `json:"schemaVersion,omitempty"`
	FixtureID        string            `json:"fixtureId"`
	FixtureName      string            `json:"fixtureName,omitempty"`
	Name             string            `json:"name"`
	Author           string            `json:"author,omitempty"`
	Scale            float64           `json:"scale,omitempty"` // Pixels per inch
	Sections         []SectionSnapshot `json:"sections"`
	StoreAssignments []string          `json:"storeAssignments"`
	Status           Status            `json:"status"`
	Version          int               `json:"version"`
}

// SectionSnapshot is the serialized form of a section. Lengths are inches.
type SectionSnapshot struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Width        float64             `json:"width"`
	Height       float64             `json:"height"`
	HeaderHeight float64             `json:"headerHeight"`
	RowOffset    float64             `json:"rowOffset"`
	Rows         []RowSnapshot       `json:"rows"`
	Components   []ComponentSnapshot `json:"components"`
}

// RowSnapshot is the serialized form of a row.
type RowSnapshot struct {
	ID     string  `json:"id"`
	Height float64 `json:"height"`
}

// ComponentSnapshot is the serialized form of a placed component. X and Y
// are pixels and are written exactly as the placement engine derived them.
type ComponentSnapshot struct {
	ID         string           `json:"id"`
	ProductID  string           `json:"productId"`
	Name       string           `json:"name"`
	Brand      string           `json:"brand"`
	Dimensions units.Dimensions `json:"dimensions"`
	Facings    int              `json:"facings"`
	RowIndex   int              `json:"rowIndex"`
	X          float64          `json:"x"`
	Y          float64          `json:"y"`
}

// ComponentCount returns the number of placed components in the snapshot.
func (s Snapshot) ComponentCount() int {
	n := 0
	for _, sec := range s.Sections {
		n += len(sec.Components)
	}
	return n
}

// =============================================================================
// Planogram ↔ Snapshot Conversion
// =============================================================================

// Serialize converts p to its snapshot. The result shares no memory with p.
func Serialize(p *Planogram) Snapshot {
	out := Snapshot{
		ID:               p.ID,
		SchemaVersion:    SchemaVersion,
		Name:             p.Name,
		Scale:            float64(p.Scale),
		Sections:         []SectionSnapshot{},
		StoreAssignments: []string{},
		Status:           p.Status,
		Version:          p.Version,
	}
	if len(p.StoreAssignments) > 0 {
		out.StoreAssignments = slices.Clone(p.StoreAssignments)
	}
	if f := p.Fixture; f != nil {
		out.FixtureID = f.ID
		out.FixtureName = f.Name
		out.Author = f.Author
		out.Sections = make([]SectionSnapshot, len(f.Sections))
		for i, s := range f.Sections {
			out.Sections[i] = SectionToSnapshot(s)
		}
	}
	return out
}

// Deserialize rebuilds a planogram from snap. Component coordinates are
// taken verbatim. The rebuilt tree is validated: structural problems, layout
// violations and unknown statuses fail with INVALID_SNAPSHOT wrapping the
// underlying error, and a newer schema fails with UNSUPPORTED_SCHEMA.
func Deserialize(snap Snapshot) (*Planogram, error) {
	if snap.SchemaVersion > SchemaVersion {
		return nil, errors.New(errors.ErrCodeUnsupportedSchema,
			"snapshot schema %d is newer than supported schema %d", snap.SchemaVersion, SchemaVersion).
			With(errors.DetailPlanogram, snap.ID)
	}
	if snap.Version < 0 {
		return nil, invalid(snap, fmt.Errorf("negative version %d", snap.Version))
	}
	status, err := ParseStatus(string(snap.Status))
	if err != nil {
		return nil, invalid(snap, err)
	}
	scale := units.Scale(snap.Scale).OrDefault()
	if err := scale.Validate(); err != nil {
		return nil, invalid(snap, err)
	}

	f := &fixture.Fixture{ID: snap.FixtureID, Name: snap.FixtureName, Author: snap.Author}
	if len(snap.Sections) > 0 {
		f.Sections = make([]*fixture.Section, len(snap.Sections))
		for i, s := range snap.Sections {
			f.Sections[i] = sectionFromSnapshot(s)
		}
	}
	if err := placement.New(scale).Check(f); err != nil {
		return nil, invalid(snap, err)
	}

	p := &Planogram{
		ID:      snap.ID,
		Name:    snap.Name,
		Fixture: f,
		Status:  status,
		Version: snap.Version,
		Scale:   scale,
	}
	if len(snap.StoreAssignments) > 0 {
		p.StoreAssignments = slices.Clone(snap.StoreAssignments)
	}
	return p, nil
}

// Equal reports whether a and b describe structurally identical planograms,
// including derived coordinates. Nil and empty collections compare equal.
func Equal(a, b *Planogram) bool {
	if a == nil || b == nil {
		return a == b
	}
	return reflect.DeepEqual(Serialize(a), Serialize(b))
}

// Marshal encodes snap as indented JSON.
func Marshal(snap Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a JSON snapshot. Malformed JSON fails with
// INVALID_SNAPSHOT; the tree itself is validated by [Deserialize].
func Unmarshal(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "decode snapshot")
	}
	return snap, nil
}

// Decode unmarshals and deserializes data in one step.
func Decode(data []byte) (*Planogram, error) {
	snap, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return Deserialize(snap)
}

// Encode serializes and marshals p in one step.
func Encode(p *Planogram) ([]byte, error) {
	return Marshal(Serialize(p))
}

// =============================================================================
// Internal Helpers
// =============================================================================

// SectionToSnapshot converts a single section with its rows and components.
func SectionToSnapshot(s *fixture.Section) SectionSnapshot {
	out := SectionSnapshot{
		ID:           s.ID,
		Name:         s.Name,
		Width:        s.Width,
		Height:       s.Height,
		HeaderHeight: s.HeaderHeight,
		RowOffset:    s.RowOffset,
		Rows:         make([]RowSnapshot, len(s.Rows)),
		Components:   make([]ComponentSnapshot, len(s.Components)),
	}
	for i, r := range s.Rows {
		out.Rows[i] = RowSnapshot{ID: r.ID, Height: r.Height}
	}
	for i, c := range s.Components {
		out.Components[i] = ComponentToSnapshot(c)
	}
	return out
}

// ComponentToSnapshot converts a single placed component.
func ComponentToSnapshot(c fixture.PlacedComponent) ComponentSnapshot {
	return ComponentSnapshot{
		ID:         c.ID,
		ProductID:  c.ProductID,
		Name:       c.Name,
		Brand:      c.Brand,
		Dimensions: c.Dimensions,
		Facings:    c.Facings,
		RowIndex:   c.RowIndex,
		X:          c.X,
		Y:          c.Y,
	}
}

func sectionFromSnapshot(s SectionSnapshot) *fixture.Section {
	out := &fixture.Section{
		ID:           s.ID,
		Name:         s.Name,
		Width:        s.Width,
		Height:       s.Height,
		HeaderHeight: s.HeaderHeight,
		RowOffset:    s.RowOffset,
	}
	if len(s.Rows) > 0 {
		out.Rows = make([]fixture.Row, len(s.Rows))
		for i, r := range s.Rows {
			out.Rows[i] = fixture.Row{ID: r.ID, Height: r.Height}
		}
	}
	if len(s.Components) > 0 {
		out.Components = make([]fixture.PlacedComponent, len(s.Components))
		for i, c := range s.Components {
			out.Components[i] = fixture.PlacedComponent{
				ID:         c.ID,
				ProductID:  c.ProductID,
				Name:       c.Name,
				Brand:      c.Brand,
				Dimensions: c.Dimensions,
				Facings:    c.Facings,
				RowIndex:   c.RowIndex,
				X:          c.X,
				Y:          c.Y,
			}
		}
	}
	return out
}

func invalid(snap Snapshot, cause error) error {
	err := errors.Wrap(errors.ErrCodeInvalidSnapshot, cause, "snapshot of planogram %q", snap.ID).
		With(errors.DetailPlanogram, snap.ID)
	for key, value := range errors.Details(cause) {
		err = err.With(key, value)
	}
	return err
}
