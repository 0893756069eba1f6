// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides project/script/config persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// Close closes the underlying database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			folder_path TEXT NOT NULL UNIQUE,
			is_public INTEGER NOT NULL DEFAULT 0,
			is_encrypted INTEGER NOT NULL DEFAULT 0,
			passwords TEXT,
			related_link TEXT,
			extra_buttons TEXT,
			js_injections TEXT,
			remember_duration INTEGER,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_projects_folder_path
			ON projects(folder_path);

		CREATE TABLE IF NOT EXISTS js_library (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS config (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// GetAdminConfig assembles the admin account and signing secret from the
// config table. A missing signing secret is an error: verification must
// fail rather than pass when the store is not provisioned.
func (s *SQLiteStore) GetAdminConfig(ctx context.Context) (*AdminConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM config WHERE key IN (?, ?, ?)`,
		ConfigKeyAdminUsername, ConfigKeyAdminPasswordHash, ConfigKeySigningSecret)
	if err != nil {
		return nil, fmt.Errorf("querying admin config: %w", err)
	}
	defer rows.Close()

	cfg := &AdminConfig{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning admin config: %w", err)
		}
		switch key {
		case ConfigKeyAdminUsername:
			cfg.Username = value
		case ConfigKeyAdminPasswordHash:
			cfg.PasswordHash = value
		case ConfigKeySigningSecret:
			cfg.Secret = value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading admin config: %w", err)
	}

	if cfg.Secret == "" {
		return nil, fmt.Errorf("signing secret not configured (run bootstrap)")
	}

	return cfg, nil
}

const projectColumns = `id, name, folder_path, is_public, is_encrypted,
	passwords, related_link, extra_buttons, js_injections, remember_duration,
	created_at, updated_at`

// GetProjectByFolder looks up a project by folder path
func (s *SQLiteStore) GetProjectByFolder(ctx context.Context, folder string) (*Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE folder_path = ?`, folder)

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying project by folder: %w", err)
	}
	return p, nil
}

// GetScriptEntries returns library entries matching the given id set.
// The library is small, so it is read in full and filtered in memory.
func (s *SQLiteStore) GetScriptEntries(ctx context.Context, ids []string) ([]ScriptEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, content FROM js_library`)
	if err != nil {
		return nil, fmt.Errorf("querying script library: %w", err)
	}
	defer rows.Close()

	var entries []ScriptEntry
	for rows.Next() {
		var e ScriptEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Content); err != nil {
			return nil, fmt.Errorf("scanning script entry: %w", err)
		}
		if wanted[e.ID] {
			entries = append(entries, e)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading script library: %w", err)
	}

	return entries, nil
}

// GetProjectByID looks up a project by id
func (s *SQLiteStore) GetProjectByID(ctx context.Context, id string) (*Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying project by id: %w", err)
	}
	return p, nil
}

// ListProjects returns all projects, newest first
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	return collectProjects(rows)
}

// ListPublicProjects returns a page of public projects matching the search
// term, plus the total match count. Search matches name or folder path.
func (s *SQLiteStore) ListPublicProjects(ctx context.Context, search string, page, limit int) ([]*Project, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 12
	}

	where := `WHERE is_public = 1`
	args := []any{}
	if search != "" {
		where += ` AND (name LIKE ? OR folder_path LIKE ?)`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM projects `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting public projects: %w", err)
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects `+where+
			` ORDER BY created_at DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying public projects: %w", err)
	}
	defer rows.Close()

	projects, err := collectProjects(rows)
	if err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// SaveProject inserts or updates a project keyed by folder path.
// A missing id gets a generated UUID.
func (s *SQLiteStore) SaveProject(ctx context.Context, p *Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	passwords := marshalJSON(p.Passwords)
	buttons := marshalJSON(p.ExtraButtons)
	scripts := marshalJSON(p.ScriptIDs)

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM projects WHERE folder_path = ?`, p.FolderPath).Scan(&exists)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO projects (
				id, name, folder_path, is_public, is_encrypted, passwords,
				related_link, extra_buttons, js_injections, remember_duration,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.FolderPath, boolToInt(p.IsPublic), boolToInt(p.IsEncrypted),
			passwords, p.RelatedLink, buttons, scripts, p.RememberDays,
			p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting project: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("checking project existence: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE projects SET
			name = ?, is_public = ?, is_encrypted = ?, passwords = ?,
			related_link = ?, extra_buttons = ?, js_injections = ?,
			remember_duration = ?, updated_at = ?
		WHERE folder_path = ?`,
		p.Name, boolToInt(p.IsPublic), boolToInt(p.IsEncrypted), passwords,
		p.RelatedLink, buttons, scripts, p.RememberDays, p.UpdatedAt,
		p.FolderPath)
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	return nil
}

// DeleteProject removes a project by id
func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListScripts returns all script library entries, newest first
func (s *SQLiteStore) ListScripts(ctx context.Context) ([]*ScriptEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, content, created_at, updated_at FROM js_library ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying scripts: %w", err)
	}
	defer rows.Close()

	var entries []*ScriptEntry
	for rows.Next() {
		var e ScriptEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Content, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning script entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// SaveScript inserts or updates a script library entry
func (s *SQLiteStore) SaveScript(ctx context.Context, e *ScriptEntry) error {
	now := time.Now().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
		e.CreatedAt = now
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO js_library (id, name, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = ?, content = ?, updated_at = ?`,
		e.ID, e.Name, e.Content, e.CreatedAt, e.UpdatedAt,
		e.Name, e.Content, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving script: %w", err)
	}
	return nil
}

// DeleteScript removes a script library entry by id
func (s *SQLiteStore) DeleteScript(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM js_library WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting script: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetConfigValue reads a single config table value
func (s *SQLiteStore) GetConfigValue(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying config %q: %w", key, err)
	}
	return value, nil
}

// GetAllConfig reads the full config table as a key/value map
func (s *SQLiteStore) GetAllConfig(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM config`)
	if err != nil {
		return nil, fmt.Errorf("querying config: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning config row: %w", err)
		}
		out[key] = value
	}
	return out, rows.Err()
}

// SetConfigValue writes a single config table value
func (s *SQLiteStore) SetConfigValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO config (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("setting config %q: %w", key, err)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for project scanning
type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*Project, error) {
	var p Project
	var isPublic, isEncrypted int
	var passwords, relatedLink, buttons, scripts sql.NullString
	var rememberDays sql.NullInt64

	err := row.Scan(&p.ID, &p.Name, &p.FolderPath, &isPublic, &isEncrypted,
		&passwords, &relatedLink, &buttons, &scripts, &rememberDays,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.IsPublic = isPublic != 0
	p.IsEncrypted = isEncrypted != 0
	p.RelatedLink = relatedLink.String
	p.Passwords = decodeStringList(passwords.String)
	p.ScriptIDs = decodeStringList(scripts.String)
	p.ExtraButtons = decodeButtonList(buttons.String)
	p.RememberDays = int(rememberDays.Int64)
	if p.RememberDays <= 0 {
		p.RememberDays = DefaultRememberDays
	}

	return &p, nil
}

func collectProjects(rows *sql.Rows) ([]*Project, error) {
	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// decodeStringList parses a stored JSON string list. Malformed or empty
// stored values degrade to nil, never to an error.
func decodeStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return list
}

// decodeButtonList parses a stored JSON button list with the same
// degrade-to-empty policy as decodeStringList.
func decodeButtonList(raw string) []Button {
	if raw == "" {
		return nil
	}
	var list []Button
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return list
}

func marshalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
