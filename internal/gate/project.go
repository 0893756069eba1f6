// ABOUTME: Per-project access controller for encrypted projects
// ABOUTME: Moves a URL token grant into a durable cookie, denies everything else

package gate

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vitrine-dev/vitrine/internal/store"
	"github.com/vitrine-dev/vitrine/internal/token"
)

// Action is the outcome of a project access check
type Action int

const (
	// ActionProceed lets the request reach the origin unmodified
	ActionProceed Action = iota

	// ActionRedirect sends the client to Location, attaching Cookie.
	// Used for the one-time URL-token to cookie hand-off.
	ActionRedirect

	// ActionDeny redirects the client to the site root. Denial is a plain
	// redirect rather than an error page so nothing about the project is
	// leaked beyond what the URL already implies.
	ActionDeny
)

// Decision is the explicit three-outcome result of a project access check
type Decision struct {
	Action   Action
	Location string
	Cookie   *http.Cookie
}

// ProjectCookieName returns the cookie name scoping a grant to one project
func ProjectCookieName(projectID string) string {
	return "token_" + projectID
}

// ProjectGate governs access to encrypted projects. It holds no
// cross-request state; every check is recomputed from the request and
// the store.
type ProjectGate struct {
	store  store.GatekeeperStore
	logger *slog.Logger
}

// NewProjectGate creates a project gate backed by the given store
func NewProjectGate(s store.GatekeeperStore, logger *slog.Logger) *ProjectGate {
	return &ProjectGate{
		store:  s,
		logger: logger.With("component", "project_gate"),
	}
}

// Check decides whether the request may reach the given encrypted project.
// A token in the URL query takes priority over the project cookie: a URL
// token is a freshly issued grant and must win even over a stale cookie,
// then get normalized into a cookie so it stops lingering in history and
// referrers.
func (g *ProjectGate) Check(r *http.Request, project *store.Project) Decision {
	tok := r.URL.Query().Get("token")
	fromURL := tok != ""
	if !fromURL {
		if cookie, err := r.Cookie(ProjectCookieName(project.ID)); err == nil {
			tok = cookie.Value
		}
	}

	if tok == "" {
		return Decision{Action: ActionDeny, Location: "/"}
	}

	cfg, err := g.store.GetAdminConfig(r.Context())
	if err != nil {
		// Verification-path store failures deny, they never bypass.
		g.logger.Error("admin config lookup failed, denying", "error", err)
		return Decision{Action: ActionDeny, Location: "/"}
	}

	claims, err := token.NewCodec([]byte(cfg.Secret)).Verify(tok)
	if err != nil || claims.ProjectID != project.ID {
		// A token for another project or an admin session token is not a
		// grant for this project, however well it is signed.
		return Decision{Action: ActionDeny, Location: "/"}
	}

	if !fromURL {
		return Decision{Action: ActionProceed}
	}

	// One-time hand-off: redirect to the same URL with the token stripped
	// and carry the grant forward in a project-scoped cookie.
	clean := *r.URL
	q := clean.Query()
	q.Del("token")
	clean.RawQuery = q.Encode()

	return Decision{
		Action:   ActionRedirect,
		Location: clean.RequestURI(),
		Cookie: &http.Cookie{
			Name:     ProjectCookieName(project.ID),
			Value:    tok,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   project.RememberDays * 86400,
		},
	}
}

// Apply writes a non-proceed decision to the response
func (d Decision) Apply(w http.ResponseWriter, r *http.Request) {
	if d.Cookie != nil {
		http.SetCookie(w, d.Cookie)
	}
	http.Redirect(w, r, d.Location, http.StatusFound)
}

// String describes the decision for logging
func (d Decision) String() string {
	switch d.Action {
	case ActionProceed:
		return "proceed"
	case ActionRedirect:
		return fmt.Sprintf("redirect to %s", d.Location)
	case ActionDeny:
		return "deny"
	default:
		return "unknown"
	}
}
