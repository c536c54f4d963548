package fixture

// Index is a rebuildable reverse lookup from component id to the id of the
// section that owns it. It is a snapshot: rebuild it after mutating the tree.
type Index struct {
	owner map[string]string
}

// BuildIndex scans f and returns a fresh index.
func BuildIndex(f *Fixture) Index {
	idx := Index{owner: make(map[string]string, f.ComponentCount())}
	for _, s := range f.Sections {
		for _, c := range s.Components {
			idx.owner[c.ID] = s.ID
		}
	}
	return idx
}

// SectionOf returns the id of the section containing the component.
func (i Index) SectionOf(componentID string) (string, bool) {
	id, ok := i.owner[componentID]
	return id, ok
}

// Len returns the number of indexed components.
func (i Index) Len() int { return len(i.owner) }

// FindComponent locates a component anywhere in f.
func FindComponent(f *Fixture, componentID string) (*Section, PlacedComponent, bool) {
	sectionID, ok := BuildIndex(f).SectionOf(componentID)
	if !ok {
		return nil, PlacedComponent{}, false
	}
	s, _ := f.Section(sectionID)
	c, _ := s.Component(componentID)
	return s, c, true
}
