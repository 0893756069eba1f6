// ABOUTME: Admin CRUD handlers for projects, the script library, and config
// ABOUTME: JSON views mirror the stored records, with passwords kept admin-only

package webapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/vitrine-dev/vitrine/internal/store"
)

// projectView is the admin-facing JSON shape of a project
type projectView struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	FolderPath   string         `json:"folder_path"`
	IsPublic     bool           `json:"is_public"`
	IsEncrypted  bool           `json:"is_encrypted"`
	Passwords    []string       `json:"passwords,omitempty"`
	RelatedLink  string         `json:"related_link,omitempty"`
	ExtraButtons []store.Button `json:"extra_buttons,omitempty"`
	ScriptIDs    []string       `json:"js_injections,omitempty"`
	RememberDays int            `json:"remember_duration"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// publicProject is projectView minus the password list
type publicProject struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	FolderPath   string         `json:"folder_path"`
	IsEncrypted  bool           `json:"is_encrypted"`
	RelatedLink  string         `json:"related_link,omitempty"`
	ExtraButtons []store.Button `json:"extra_buttons,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func toProjectView(p *store.Project) projectView {
	return projectView{
		ID:           p.ID,
		Name:         p.Name,
		FolderPath:   p.FolderPath,
		IsPublic:     p.IsPublic,
		IsEncrypted:  p.IsEncrypted,
		Passwords:    p.Passwords,
		RelatedLink:  p.RelatedLink,
		ExtraButtons: p.ExtraButtons,
		ScriptIDs:    p.ScriptIDs,
		RememberDays: p.RememberDays,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func toPublicProject(p *store.Project) publicProject {
	return publicProject{
		ID:           p.ID,
		Name:         p.Name,
		FolderPath:   p.FolderPath,
		IsEncrypted:  p.IsEncrypted,
		RelatedLink:  p.RelatedLink,
		ExtraButtons: p.ExtraButtons,
		CreatedAt:    p.CreatedAt,
	}
}

func (a *API) handleProjectsGet(w http.ResponseWriter, r *http.Request) {
	projects, err := a.store.ListProjects(r.Context())
	if err != nil {
		a.logger.Error("listing projects failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	views := make([]projectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, toProjectView(p))
	}
	writeJSON(w, http.StatusOK, views)
}

func (a *API) handleProjectsPost(w http.ResponseWriter, r *http.Request) {
	var req projectView
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FolderPath == "" {
		writeError(w, http.StatusBadRequest, "folder_path is required")
		return
	}

	p := &store.Project{
		ID:           req.ID,
		Name:         req.Name,
		FolderPath:   req.FolderPath,
		IsPublic:     req.IsPublic,
		IsEncrypted:  req.IsEncrypted,
		Passwords:    req.Passwords,
		RelatedLink:  req.RelatedLink,
		ExtraButtons: req.ExtraButtons,
		ScriptIDs:    req.ScriptIDs,
		RememberDays: req.RememberDays,
	}
	if err := a.store.SaveProject(r.Context(), p); err != nil {
		a.logger.Error("saving project failed", "folder", req.FolderPath, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": p.ID})
}

func (a *API) handleProjectsDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	err := a.store.DeleteProject(r.Context(), req.ID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	if err != nil {
		a.logger.Error("deleting project failed", "id", req.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// scriptView is the admin-facing JSON shape of a script library entry
type scriptView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *API) handleScriptsGet(w http.ResponseWriter, r *http.Request) {
	entries, err := a.store.ListScripts(r.Context())
	if err != nil {
		a.logger.Error("listing scripts failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	views := make([]scriptView, 0, len(entries))
	for _, e := range entries {
		views = append(views, scriptView{
			ID:        e.ID,
			Name:      e.Name,
			Content:   e.Content,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (a *API) handleScriptsPost(w http.ResponseWriter, r *http.Request) {
	var req scriptView
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	entry := &store.ScriptEntry{ID: req.ID, Name: req.Name, Content: req.Content}
	if err := a.store.SaveScript(r.Context(), entry); err != nil {
		a.logger.Error("saving script failed", "name", req.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": entry.ID})
}

func (a *API) handleScriptsDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	err := a.store.DeleteScript(r.Context(), req.ID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Script not found")
		return
	}
	if err != nil {
		a.logger.Error("deleting script failed", "id", req.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *API) handleConfigGet(w http.ResponseWriter, r *http.Request) {
	values, err := a.store.GetAllConfig(r.Context())
	if err != nil {
		a.logger.Error("reading config failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	// The password hash stays server-side even for admins.
	delete(values, store.ConfigKeyAdminPasswordHash)
	delete(values, store.ConfigKeySigningSecret)
	writeJSON(w, http.StatusOK, values)
}

func (a *API) handleConfigPost(w http.ResponseWriter, r *http.Request) {
	var updates map[string]string
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	for key, value := range updates {
		if err := a.store.SetConfigValue(r.Context(), key, value); err != nil {
			a.logger.Error("writing config failed", "key", key, "error", err)
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
