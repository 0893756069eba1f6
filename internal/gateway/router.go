// ABOUTME: Top-level request classification and dispatch
// ABOUTME: Routes requests to the admin gate, the API, project gating, or the origin

package gateway

import (
	"errors"
	"net/http"
	"strings"

	"github.com/vitrine-dev/vitrine/internal/gate"
	"github.com/vitrine-dev/vitrine/internal/store"
)

// route classifies the request path and dispatches it. Classification
// order matters: the admin namespace is checked first so /api/admin is
// never treated as a plain public API path.
func (g *Gateway) route(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/health" {
		g.handleHealth(w, r)
		return
	}

	// 1. Admin area protection
	if strings.HasPrefix(path, "/admin") || strings.HasPrefix(path, "/api/admin") {
		g.adminGate.Middleware(http.HandlerFunc(g.serveOwn)).ServeHTTP(w, r)
		return
	}

	// 2. Public assets and API
	if strings.HasPrefix(path, "/assets/") || strings.HasPrefix(path, "/api/") ||
		path == "/" || path == "/index.html" || path == "/favicon.ico" {
		g.serveOwn(w, r)
		return
	}

	// 3. Project access and script injection
	folder := firstSegment(path)
	if folder == "" {
		g.origin.ServeHTTP(w, r)
		return
	}

	project, err := g.store.GetProjectByFolder(r.Context(), folder)
	if errors.Is(err, store.ErrNotFound) {
		// Unknown folders fall through to the origin, which will 404 or
		// serve a top-level file itself.
		g.origin.ServeHTTP(w, r)
		return
	}
	if err != nil {
		// Classification-only store failures degrade to pass-through:
		// content availability wins when the store is unreachable before
		// any access decision has been made. Verification failures inside
		// the gates still deny.
		g.logger.Error("project classification failed, passing through",
			"folder", folder, "error", err)
		g.origin.ServeHTTP(w, r)
		return
	}

	if project.IsEncrypted {
		decision := g.projectGate.Check(r, project)
		if decision.Action != gate.ActionProceed {
			g.logger.Debug("project access decision", "folder", folder, "decision", decision.String())
			decision.Apply(w, r)
			return
		}
	}

	g.injector.Serve(w, r, project, g.origin)
}

// serveOwn dispatches between the gateway's own API endpoints and the
// content origin. API paths are served locally; everything else is origin
// content.
func (g *Gateway) serveOwn(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		g.apiMux.ServeHTTP(w, r)
		return
	}
	g.origin.ServeHTTP(w, r)
}

// firstSegment returns the first non-empty path segment
func firstSegment(path string) string {
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			return seg
		}
	}
	return ""
}
