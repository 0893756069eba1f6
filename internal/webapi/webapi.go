// ABOUTME: JSON API handlers for login, project verification, and admin CRUD
// ABOUTME: The admin namespace is protected upstream by the admin gate

package webapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vitrine-dev/vitrine/internal/gate"
	"github.com/vitrine-dev/vitrine/internal/store"
	"github.com/vitrine-dev/vitrine/internal/token"
)

// AdminSessionTTL is how long an admin login lasts
const AdminSessionTTL = 24 * time.Hour

// defaultPageSize is the public listing page size when the config table
// does not set items_per_page
const defaultPageSize = 12

// API serves the gateway's JSON endpoints
type API struct {
	store  store.Store
	logger *slog.Logger
}

// New creates the API handler set
func New(s store.Store, logger *slog.Logger) *API {
	return &API{
		store:  s,
		logger: logger.With("component", "api"),
	}
}

// RegisterRoutes registers all API routes on the given mux. Routes under
// /api/admin rely on the admin gate running before the mux; they perform
// no session check of their own.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/login", a.handleLogin)

	mux.HandleFunc("POST /api/public/verify", a.handleVerify)
	mux.HandleFunc("GET /api/public/list", a.handleList)

	mux.HandleFunc("GET /api/admin/check", a.handleCheck)
	mux.HandleFunc("GET /api/admin/projects", a.handleProjectsGet)
	mux.HandleFunc("POST /api/admin/projects", a.handleProjectsPost)
	mux.HandleFunc("DELETE /api/admin/projects", a.handleProjectsDelete)
	mux.HandleFunc("GET /api/admin/js-library", a.handleScriptsGet)
	mux.HandleFunc("POST /api/admin/js-library", a.handleScriptsPost)
	mux.HandleFunc("DELETE /api/admin/js-library", a.handleScriptsDelete)
	mux.HandleFunc("GET /api/admin/config", a.handleConfigGet)
	mux.HandleFunc("POST /api/admin/config", a.handleConfigPost)
}

// handleLogin checks the admin credentials and starts a session. The
// session is a signed token in the admin_session cookie; nothing is
// persisted server-side.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cfg, err := a.store.GetAdminConfig(r.Context())
	if err != nil {
		a.logger.Error("admin config lookup failed", "error", err)
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if req.Username != cfg.Username ||
		bcrypt.CompareHashAndPassword([]byte(cfg.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	tok, err := token.NewCodec([]byte(cfg.Secret)).Issue(
		token.Claims{Subject: req.Username}, AdminSessionTTL)
	if err != nil {
		a.logger.Error("issuing admin session failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     gate.AdminCookieName,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(AdminSessionTTL / time.Second),
	})

	a.logger.Info("admin login", "username", req.Username)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleVerify exchanges a project password for a project grant token.
// The caller redirects to the project with ?token=..., which the project
// gate then converts into a cookie.
func (a *API) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID string `json:"projectId"`
		Password  string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	project, err := a.store.GetProjectByID(r.Context(), req.ProjectID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	if err != nil {
		a.logger.Error("project lookup failed", "project", req.ProjectID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	if !containsString(project.Passwords, req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	cfg, err := a.store.GetAdminConfig(r.Context())
	if err != nil {
		a.logger.Error("admin config lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	ttl := time.Duration(project.RememberDays) * 24 * time.Hour
	tok, err := token.NewCodec([]byte(cfg.Secret)).Issue(
		token.Claims{ProjectID: project.ID}, ttl)
	if err != nil {
		a.logger.Error("issuing project grant failed", "project", project.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": tok})
}

// handleList returns the public project listing with search and pagination
func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("q")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	limit := defaultPageSize
	if v, err := a.store.GetConfigValue(r.Context(), store.ConfigKeyItemsPerPage); err == nil {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	projects, total, err := a.store.ListPublicProjects(r.Context(), search, page, limit)
	if err != nil {
		a.logger.Error("public listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	data := make([]publicProject, 0, len(projects))
	for _, p := range projects {
		data = append(data, toPublicProject(p))
	}

	totalPages := (total + limit - 1) / limit
	writeJSON(w, http.StatusOK, map[string]any{
		"data": data,
		"pagination": map[string]any{
			"total":      total,
			"page":       page,
			"limit":      limit,
			"totalPages": totalPages,
		},
	})
}

// handleCheck confirms an admin session. The admin gate has already
// verified the cookie before this handler runs.
func (a *API) handleCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
