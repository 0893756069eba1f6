// ABOUTME: Store interface and data types for vitrine persistence
// ABOUTME: Defines Project, ScriptEntry structs and the store interfaces

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Config table keys for the admin account and token signing
const (
	ConfigKeyAdminUsername     = "admin_username"
	ConfigKeyAdminPasswordHash = "admin_password_hash"
	ConfigKeySigningSecret     = "signing_secret"
	ConfigKeyItemsPerPage      = "items_per_page"
)

// DefaultRememberDays is the project grant lifetime when a project
// does not declare one.
const DefaultRememberDays = 30

// AdminConfig is the process-wide admin account and signing configuration.
// It is read fresh from the store for every verification decision.
type AdminConfig struct {
	Username     string
	PasswordHash string
	Secret       string
}

// Button is an extra action link shown alongside a project
type Button struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Project is a published content folder. Passwords, ScriptIDs and
// ExtraButtons are persisted as JSON text; malformed stored values decode
// to their empty value rather than failing the read.
type Project struct {
	ID           string
	Name         string
	FolderPath   string
	IsPublic     bool
	IsEncrypted  bool
	Passwords    []string
	RelatedLink  string
	ExtraButtons []Button
	ScriptIDs    []string
	RememberDays int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ScriptEntry is an immutable script body from the injection library
type ScriptEntry struct {
	ID        string
	Name      string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GatekeeperStore is the read-only view the request pipeline consumes
type GatekeeperStore interface {
	// GetAdminConfig returns the admin account and signing secret.
	GetAdminConfig(ctx context.Context) (*AdminConfig, error)

	// GetProjectByFolder looks up a project by its folder path (the first
	// request path segment). Returns ErrNotFound when no project matches.
	GetProjectByFolder(ctx context.Context, folder string) (*Project, error)

	// GetScriptEntries returns the library entries whose ids are in the
	// given set. Unknown ids are silently ignored; no ordering is implied.
	GetScriptEntries(ctx context.Context, ids []string) ([]ScriptEntry, error)
}

// AdminStore is the wider surface used by bootstrap and the API handlers
type AdminStore interface {
	GetProjectByID(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
	ListPublicProjects(ctx context.Context, search string, page, limit int) ([]*Project, int, error)
	SaveProject(ctx context.Context, p *Project) error
	DeleteProject(ctx context.Context, id string) error

	ListScripts(ctx context.Context) ([]*ScriptEntry, error)
	SaveScript(ctx context.Context, s *ScriptEntry) error
	DeleteScript(ctx context.Context, id string) error

	GetConfigValue(ctx context.Context, key string) (string, error)
	GetAllConfig(ctx context.Context) (map[string]string, error)
	SetConfigValue(ctx context.Context, key, value string) error
}

// Store combines the gatekeeper and admin surfaces
type Store interface {
	GatekeeperStore
	AdminStore
}
