// Package api exposes planogram editing sessions over HTTP.
//
// # Overview
//
// The API is the boundary between the layout engine and a rendering client.
// It serves the fixture tree with derived pixel coordinates, audit results,
// and one endpoint per layout mutation. Mutations go through an
// [editor.Session], so every rule the engine enforces applies unchanged.
//
// # Routes
//
//	GET    /healthz
//	GET    /version
//	POST   /planograms
//	GET    /planograms/{id}
//	DELETE /planograms/{id}/session
//	GET    /planograms/{id}/audit
//	GET    /planograms/{id}/diagram.svg
//	PUT    /planograms/{id}/name
//	PUT    /planograms/{id}/status
//	PUT    /planograms/{id}/stores
//	POST   /planograms/{id}/save
//	POST   /planograms/{id}/reload
//	GET    /planograms/{id}/versions
//	GET    /planograms/{id}/versions/{version}
//	POST   /planograms/{id}/sections
//	DELETE /planograms/{id}/sections/{section}
//	POST   /planograms/{id}/sections/{section}/rows
//	DELETE /planograms/{id}/sections/{section}/rows/last
//	PUT    /planograms/{id}/sections/{section}/rows/{index}
//	POST   /planograms/{id}/sections/{section}/components
//	DELETE /planograms/{id}/sections/{section}/components/{component}
//	PUT    /planograms/{id}/sections/{section}/components/{component}/position
//	PUT    /planograms/{id}/sections/{section}/components/{component}/facings
//
// # Errors
//
// Failures are returned as
//
//	{"error": {"code": "OVERLAP", "message": "...", "details": {"blocking": "c1"}}}
//
// with the HTTP status chosen by error class: validation 422, not found 404,
// version conflict 409, save in progress 423, timeout 504, network 503.
package api
