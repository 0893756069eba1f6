// ABOUTME: Scenario tests for request classification and dispatch
// ABOUTME: Uses a real SQLite store and a stub origin, no mocking of the pipeline

package gateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-dev/vitrine/internal/config"
	"github.com/vitrine-dev/vitrine/internal/gate"
	"github.com/vitrine-dev/vitrine/internal/store"
	"github.com/vitrine-dev/vitrine/internal/token"
)

const testSecret = "gateway-test-signing-secret-32by"

// stubOrigin records served paths and answers with a small HTML page
type stubOrigin struct {
	served []string
}

func (o *stubOrigin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	o.served = append(o.served, r.URL.Path)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<html><body>origin:%s</body></html>", r.URL.Path)
}

func newTestGateway(t *testing.T) (*Gateway, *store.SQLiteStore, *stubOrigin) {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.SetConfigValue(ctx, store.ConfigKeyAdminUsername, "admin"))
	require.NoError(t, s.SetConfigValue(ctx, store.ConfigKeySigningSecret, testSecret))

	cfg := &config.Config{
		Server:   config.ServerConfig{HTTPAddr: "127.0.0.1:0"},
		Database: config.DatabaseConfig{Path: "unused"},
		Origin:   config.OriginConfig{StaticDir: "unused"},
	}

	o := &stubOrigin{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newGateway(cfg, s, o, logger), s, o
}

func do(gw *Gateway, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	gw.Handler().ServeHTTP(rec, req)
	return rec
}

func issueProjectToken(t *testing.T, projectID string, ttl time.Duration) string {
	t.Helper()
	tok, err := token.NewCodec([]byte(testSecret)).Issue(token.Claims{ProjectID: projectID}, ttl)
	require.NoError(t, err)
	return tok
}

func TestRoute_Health(t *testing.T) {
	gw, _, o := newTestGateway(t)

	rec := do(gw, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, o.served)
}

func TestRoute_AdminAPIRequiresSession(t *testing.T) {
	gw, _, o := newTestGateway(t)

	rec := do(gw, httptest.NewRequest(http.MethodGet, "/api/admin/config", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	assert.Empty(t, o.served, "denied admin requests must not reach the origin")
}

func TestRoute_AdminLoginPageReachable(t *testing.T) {
	gw, _, o := newTestGateway(t)

	rec := do(gw, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"/admin"}, o.served)
}

func TestRoute_AdminSessionReachesAPI(t *testing.T) {
	gw, _, _ := newTestGateway(t)

	tok, err := token.NewCodec([]byte(testSecret)).Issue(token.Claims{Subject: "admin"}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/check", nil)
	req.AddCookie(&http.Cookie{Name: gate.AdminCookieName, Value: tok})

	rec := do(gw, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authenticated":true}`, rec.Body.String())
}

func TestRoute_PublicNamespacesPassThrough(t *testing.T) {
	gw, _, o := newTestGateway(t)

	for _, path := range []string{"/assets/app.js", "/", "/index.html", "/favicon.ico"} {
		rec := do(gw, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
	assert.Equal(t, []string{"/assets/app.js", "/", "/index.html", "/favicon.ico"}, o.served)
}

func TestRoute_PublicAPIServedLocally(t *testing.T) {
	gw, _, o := newTestGateway(t)

	rec := do(gw, httptest.NewRequest(http.MethodGet, "/api/public/list", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pagination"`)
	assert.Empty(t, o.served)
}

func TestRoute_UnknownFolderPassesThrough(t *testing.T) {
	gw, _, o := newTestGateway(t)

	rec := do(gw, httptest.NewRequest(http.MethodGet, "/random/page.html", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"/random/page.html"}, o.served)
}

func TestRoute_PlainProjectPassesThrough(t *testing.T) {
	gw, s, o := newTestGateway(t)
	require.NoError(t, s.SaveProject(context.Background(),
		&store.Project{Name: "Demo", FolderPath: "demo"}))

	rec := do(gw, httptest.NewRequest(http.MethodGet, "/demo/page.html", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "origin:/demo/page.html")
	assert.Equal(t, []string{"/demo/page.html"}, o.served)
}

func TestRoute_ProjectScriptsInjected(t *testing.T) {
	gw, s, _ := newTestGateway(t)
	ctx := context.Background()

	script := &store.ScriptEntry{Name: "analytics", Content: "track()"}
	require.NoError(t, s.SaveScript(ctx, script))
	require.NoError(t, s.SaveProject(ctx, &store.Project{
		Name: "Demo", FolderPath: "demo", ScriptIDs: []string{script.ID},
	}))

	rec := do(gw, httptest.NewRequest(http.MethodGet, "/demo/index.html", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"<html><body>origin:/demo/index.html<script>track()</script></body></html>",
		rec.Body.String())
}

func TestRoute_EncryptedProjectDeniedWithoutToken(t *testing.T) {
	gw, s, o := newTestGateway(t)
	require.NoError(t, s.SaveProject(context.Background(), &store.Project{
		Name: "Secret", FolderPath: "secret", IsEncrypted: true,
	}))

	rec := do(gw, httptest.NewRequest(http.MethodGet, "/secret/page.html", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Empty(t, o.served)
}

func TestRoute_EncryptedProjectCookieGrants(t *testing.T) {
	gw, s, o := newTestGateway(t)
	p := &store.Project{Name: "Secret", FolderPath: "secret", IsEncrypted: true}
	require.NoError(t, s.SaveProject(context.Background(), p))

	req := httptest.NewRequest(http.MethodGet, "/secret/page.html", nil)
	req.AddCookie(&http.Cookie{
		Name:  gate.ProjectCookieName(p.ID),
		Value: issueProjectToken(t, p.ID, time.Hour),
	})

	rec := do(gw, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "origin:/secret/page.html")
	assert.Empty(t, rec.Header().Get("Set-Cookie"), "cookie grants must not re-set the cookie")
	assert.Equal(t, []string{"/secret/page.html"}, o.served)
}

func TestRoute_EncryptedProjectURLTokenHandOff(t *testing.T) {
	gw, s, o := newTestGateway(t)
	p := &store.Project{
		Name: "Secret", FolderPath: "secret", IsEncrypted: true, RememberDays: 14,
	}
	require.NoError(t, s.SaveProject(context.Background(), p))

	tok := issueProjectToken(t, p.ID, time.Hour)
	rec := do(gw, httptest.NewRequest(http.MethodGet, "/secret/page.html?token="+tok, nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/secret/page.html", rec.Header().Get("Location"))
	assert.Empty(t, o.served, "the hand-off redirect happens before the origin")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, gate.ProjectCookieName(p.ID), cookies[0].Name)
	assert.Equal(t, tok, cookies[0].Value)
	assert.Equal(t, 14*86400, cookies[0].MaxAge)
}

func TestRoute_EncryptedProjectExpiredCookieDenied(t *testing.T) {
	gw, s, _ := newTestGateway(t)
	p := &store.Project{Name: "Secret", FolderPath: "secret", IsEncrypted: true}
	require.NoError(t, s.SaveProject(context.Background(), p))

	req := httptest.NewRequest(http.MethodGet, "/secret/", nil)
	req.AddCookie(&http.Cookie{
		Name:  gate.ProjectCookieName(p.ID),
		Value: issueProjectToken(t, p.ID, -time.Hour),
	})

	rec := do(gw, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestRoute_ClassificationStoreFailurePassesThrough(t *testing.T) {
	gw, s, o := newTestGateway(t)

	// Closing the database makes every query fail from here on.
	require.NoError(t, s.Close())

	rec := do(gw, httptest.NewRequest(http.MethodGet, "/whatever/page.html", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"/whatever/page.html"}, o.served)
}

func TestRoute_VerificationStoreFailureDenies(t *testing.T) {
	gw, s, o := newTestGateway(t)
	p := &store.Project{Name: "Secret", FolderPath: "secret", IsEncrypted: true}
	require.NoError(t, s.SaveProject(context.Background(), p))

	// Blank out the signing secret: the project row still loads, so
	// classification succeeds, but the verification step cannot proceed.
	require.NoError(t, s.SetConfigValue(context.Background(), store.ConfigKeySigningSecret, ""))

	req := httptest.NewRequest(http.MethodGet, "/secret/", nil)
	req.AddCookie(&http.Cookie{
		Name:  gate.ProjectCookieName(p.ID),
		Value: issueProjectToken(t, p.ID, time.Hour),
	})

	rec := do(gw, req)
	assert.Equal(t, http.StatusFound, rec.Code, "verification failures deny, they never bypass")
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Empty(t, o.served)
}
