package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/shelfworks/planogram/pkg/editor"
	"github.com/shelfworks/planogram/pkg/fixture"
)

// Template describes the empty shelving of a fixture, used by `init --from`.
//
//	name = "4ft gondola"
//
//	[[section]]
//	id = "bay-1"
//	width = 48
//	height = 72
//	header_height = 4
//	row_offset = 2
//	rows = [10, 12, 14]
type Template struct {
	Name     string            `toml:"name"`
	Sections []SectionTemplate `toml:"section"`
}

// SectionTemplate is one section of a Template. Rows are heights in inches,
// top to bottom.
type SectionTemplate struct {
	ID           string    `toml:"id"`
	Name         string    `toml:"name"`
	Width        float64   `toml:"width"`
	Height       float64   `toml:"height"`
	HeaderHeight float64   `toml:"header_height"`
	RowOffset    float64   `toml:"row_offset"`
	Rows         []float64 `toml:"rows"`
}

// LoadTemplate reads a fixture template file.
func LoadTemplate(path string) (Template, error) {
	var t Template
	md, err := toml.DecodeFile(path, &t)
	if err != nil {
		return t, fmt.Errorf("read template %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return t, fmt.Errorf("template %s: unknown key %s", path, undecoded[0])
	}
	if len(t.Sections) == 0 {
		return t, fmt.Errorf("template %s: no sections", path)
	}
	return t, nil
}

// SectionSpecs converts the template into section specs for an editing
// session. Geometry is validated by the session when the specs are added.
func (t Template) SectionSpecs() []editor.SectionSpec {
	specs := make([]editor.SectionSpec, len(t.Sections))
	for i, s := range t.Sections {
		spec := editor.SectionSpec{
			ID:           s.ID,
			Name:         s.Name,
			Width:        s.Width,
			Height:       s.Height,
			HeaderHeight: s.HeaderHeight,
			RowOffset:    s.RowOffset,
		}
		for _, h := range s.Rows {
			spec.Rows = append(spec.Rows, fixture.Row{Height: h})
		}
		specs[i] = spec
	}
	return specs
}
