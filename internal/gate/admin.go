// ABOUTME: Admin area gatekeeper verifying the admin session cookie
// ABOUTME: Unauthenticated requests are rejected except for the login page

package gate

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/vitrine-dev/vitrine/internal/store"
	"github.com/vitrine-dev/vitrine/internal/token"
)

// AdminCookieName is the name of the admin session cookie
const AdminCookieName = "admin_session"

// AdminGate protects the administrative namespace. The session token is
// verified statelessly against the signing secret; only its expiry matters,
// the subject claim is informational.
type AdminGate struct {
	store  store.GatekeeperStore
	logger *slog.Logger
}

// NewAdminGate creates an admin gate backed by the given store
func NewAdminGate(s store.GatekeeperStore, logger *slog.Logger) *AdminGate {
	return &AdminGate{
		store:  s,
		logger: logger.With("component", "admin_gate"),
	}
}

// Middleware wraps the admin namespace. Authenticated requests pass through
// unchanged. Unauthenticated requests are rejected with 401, except for the
// bare login page, which must stay reachable so a session can be started.
func (g *AdminGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.authenticated(r) {
			next.ServeHTTP(w, r)
			return
		}

		path := r.URL.Path
		if strings.HasPrefix(path, "/api/") {
			writeUnauthorized(w)
			return
		}
		if path == "/admin" || path == "/admin.html" {
			next.ServeHTTP(w, r)
			return
		}
		writeUnauthorized(w)
	})
}

// authenticated reports whether the request carries a valid admin session.
// A store failure while fetching the signing secret is a denial, never a
// bypass.
func (g *AdminGate) authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(AdminCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}

	cfg, err := g.store.GetAdminConfig(r.Context())
	if err != nil {
		g.logger.Error("admin config lookup failed, denying", "error", err)
		return false
	}

	codec := token.NewCodec([]byte(cfg.Secret))
	if _, err := codec.Verify(cookie.Value); err != nil {
		return false
	}
	return true
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"Unauthorized"}`))
}
