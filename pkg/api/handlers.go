package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shelfworks/planogram/pkg/editor"
	"github.com/shelfworks/planogram/pkg/errors"
	"github.com/shelfworks/planogram/pkg/export"
	"github.com/shelfworks/planogram/pkg/fixture"
	"github.com/shelfworks/planogram/pkg/planogram"
	"github.com/shelfworks/planogram/pkg/store"
	"github.com/shelfworks/planogram/pkg/units"
)

// =============================================================================
// Request and Response Types
// =============================================================================

// View is the response for a planogram: its current snapshot plus session
// state.
type View struct {
	Planogram planogram.Snapshot `json:"planogram"`
	State     string             `json:"state"`
	Dirty     bool               `json:"dirty"`
}

// AuditResult lists layout violations. OK is true when there are none.
type AuditResult struct {
	OK       bool        `json:"ok"`
	Problems []ErrorBody `json:"problems"`
}

type createRequest struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	FixtureID   string  `json:"fixtureId"`
	FixtureName string  `json:"fixtureName"`
	Author      string  `json:"author"`
	Scale       float64 `json:"scale"`
}

type sectionRequest struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Width        float64                 `json:"width"`
	Height       float64                 `json:"height"`
	HeaderHeight float64                 `json:"headerHeight"`
	RowOffset    float64                 `json:"rowOffset"`
	Rows         []planogram.RowSnapshot `json:"rows"`
}

// placeRequest places either an ad-hoc component (dimensions given) or a
// catalog product (dimensions omitted).
type placeRequest struct {
	ID         string            `json:"id"`
	ProductID  string            `json:"productId"`
	Name       string            `json:"name"`
	Brand      string            `json:"brand"`
	Dimensions *units.Dimensions `json:"dimensions"`
	Facings    int               `json:"facings"`
	RowIndex   int               `json:"rowIndex"`
	X          float64           `json:"x"`
}

type positionRequest struct {
	RowIndex int     `json:"rowIndex"`
	X        float64 `json:"x"`
}

// =============================================================================
// Planogram Handlers
// =============================================================================

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Name == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "name must not be empty").
			With(errors.DetailField, "name"))
		return
	}
	scale := units.Scale(req.Scale).OrDefault()
	if err := scale.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.FixtureID == "" {
		req.FixtureID = planogram.NewID()
	}
	f := fixture.New(req.FixtureID, req.FixtureName)
	f.Author = req.Author
	p := planogram.New(req.ID, req.Name, f)
	p.Scale = scale

	sess, err := s.registry.Create(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("created planogram", "planogram", p.ID)
	writeJSON(w, http.StatusCreated, viewOf(sess))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *editor.Session) {
		writeJSON(w, http.StatusOK, viewOf(sess))
	})
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.registry.Close(id) {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no open session for planogram %q", id).
			With(errors.DetailPlanogram, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *editor.Session) {
		problems := sess.Audit()
		res := AuditResult{OK: len(problems) == 0, Problems: make([]ErrorBody, len(problems))}
		for i, p := range problems {
			res.Problems[i] = BodyOf(p)
		}
		writeJSON(w, http.StatusOK, res)
	})
}

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *editor.Session) {
		dot := export.ToDOT(sess.Snapshot(), export.Options{Detailed: r.URL.Query().Get("detailed") == "true"})
		svg, err := export.RenderSVG(r.Context(), dot)
		if err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render diagram"))
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(svg)
	})
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	s.mutate(w, r, &req, func(sess *editor.Session) (any, error) {
		if err := sess.Rename(req.Name); err != nil {
			return nil, err
		}
		return viewOf(sess), nil
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	s.mutate(w, r, &req, func(sess *editor.Session) (any, error) {
		status, err := planogram.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		if err := sess.SetStatus(status); err != nil {
			return nil, err
		}
		return viewOf(sess), nil
	})
}

func (s *Server) handleStores(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stores []string `json:"stores"`
	}
	s.mutate(w, r, &req, func(sess *editor.Session) (any, error) {
		if err := sess.AssignStores(req.Stores); err != nil {
			return nil, err
		}
		return viewOf(sess), nil
	})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *editor.Session) {
		saved, err := sess.Save(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *editor.Session) {
		if err := sess.Reload(r.Context()); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(sess))
	})
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.registry.Repository().History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]store.VersionInfo{"versions": versions})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	version, err := pathInt(r, "version")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.registry.Repository().LoadVersion(r.Context(), chi.URLParam(r, "id"), version)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// =============================================================================
// Layout Handlers
// =============================================================================

func (s *Server) handleAddSection(w http.ResponseWriter, r *http.Request) {
	var req sectionRequest
	s.mutateStatus(w, r, &req, http.StatusCreated, func(sess *editor.Session) (any, error) {
		spec := editor.SectionSpec{
			ID:           req.ID,
			Name:         req.Name,
			Width:        req.Width,
			Height:       req.Height,
			HeaderHeight: req.HeaderHeight,
			RowOffset:    req.RowOffset,
		}
		for _, row := range req.Rows {
			spec.Rows = append(spec.Rows, fixture.Row{ID: row.ID, Height: row.Height})
		}
		sec, err := sess.AddSection(spec)
		if err != nil {
			return nil, err
		}
		return planogram.SectionToSnapshot(sec), nil
	})
}

func (s *Server) handleRemoveSection(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *editor.Session) {
		if err := sess.RemoveSection(chi.URLParam(r, "section")); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) handleAddRow(w http.ResponseWriter, r *http.Request) {
	var req planogram.RowSnapshot
	s.mutateStatus(w, r, &req, http.StatusCreated, func(sess *editor.Session) (any, error) {
		row, err := sess.AddRow(chi.URLParam(r, "section"), fixture.Row{ID: req.ID, Height: req.Height})
		if err != nil {
			return nil, err
		}
		return planogram.RowSnapshot{ID: row.ID, Height: row.Height}, nil
	})
}

func (s *Server) handleRemoveLastRow(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *editor.Session) {
		row, err := sess.RemoveLastRow(chi.URLParam(r, "section"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, planogram.RowSnapshot{ID: row.ID, Height: row.Height})
	})
}

// handleResizeRow responds with the whole section since every component
// below the resized row moves.
func (s *Server) handleResizeRow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Height float64 `json:"height"`
	}
	s.mutate(w, r, &req, func(sess *editor.Session) (any, error) {
		index, err := pathInt(r, "index")
		if err != nil {
			return nil, err
		}
		sectionID := chi.URLParam(r, "section")
		if _, err := sess.ResizeRow(sectionID, index, req.Height); err != nil {
			return nil, err
		}
		sec, _ := sess.Fixture().Section(sectionID)
		return planogram.SectionToSnapshot(sec), nil
	})
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	s.mutateStatus(w, r, &req, http.StatusCreated, func(sess *editor.Session) (any, error) {
		sectionID := chi.URLParam(r, "section")
		var (
			c   fixture.PlacedComponent
			err error
		)
		if req.Dimensions == nil {
			c, err = sess.PlaceProduct(r.Context(), sectionID, req.ProductID, req.Facings, req.RowIndex, req.X)
		} else {
			c, err = sess.Place(sectionID, fixture.PlacedComponent{
				ID:         req.ID,
				ProductID:  req.ProductID,
				Name:       req.Name,
				Brand:      req.Brand,
				Dimensions: *req.Dimensions,
				Facings:    req.Facings,
			}, req.RowIndex, req.X)
		}
		if err != nil {
			return nil, err
		}
		return planogram.ComponentToSnapshot(c), nil
	})
}

func (s *Server) handleRemoveComponent(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *editor.Session) {
		c, err := sess.RemoveComponent(chi.URLParam(r, "section"), chi.URLParam(r, "component"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, planogram.ComponentToSnapshot(c))
	})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	s.mutate(w, r, &req, func(sess *editor.Session) (any, error) {
		c, err := sess.Move(chi.URLParam(r, "section"), chi.URLParam(r, "component"), req.RowIndex, req.X)
		if err != nil {
			return nil, err
		}
		return planogram.ComponentToSnapshot(c), nil
	})
}

func (s *Server) handleFacings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Facings int `json:"facings"`
	}
	s.mutate(w, r, &req, func(sess *editor.Session) (any, error) {
		c, err := sess.SetFacings(chi.URLParam(r, "section"), chi.URLParam(r, "component"), req.Facings)
		if err != nil {
			return nil, err
		}
		return planogram.ComponentToSnapshot(c), nil
	})
}

// =============================================================================
// Internal Helpers
// =============================================================================

func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*editor.Session)) {
	sess, err := s.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	fn(sess)
}

func (s *Server) mutate(w http.ResponseWriter, r *http.Request, req any, fn func(*editor.Session) (any, error)) {
	s.mutateStatus(w, r, req, http.StatusOK, fn)
}

// mutateStatus decodes req, resolves the session and writes fn's result
// with status on success.
func (s *Server) mutateStatus(w http.ResponseWriter, r *http.Request, req any, status int, fn func(*editor.Session) (any, error)) {
	if err := decode(w, r, req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *editor.Session) {
		res, err := fn(sess)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, status, res)
	})
}

func viewOf(sess *editor.Session) View {
	return View{
		Planogram: sess.Snapshot(),
		State:     sess.State().String(),
		Dirty:     sess.Dirty(),
	}
}

func pathInt(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be an integer, got %q", name, raw).
			With(errors.DetailField, name)
	}
	return n, nil
}
