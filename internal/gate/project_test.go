// ABOUTME: Tests for the project access controller
// ABOUTME: Covers the deny, proceed, and URL-to-cookie hand-off outcomes

package gate

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-dev/vitrine/internal/store"
	"github.com/vitrine-dev/vitrine/internal/token"
)

func testProject() *store.Project {
	return &store.Project{
		ID:           "proj-1",
		FolderPath:   "secret",
		IsEncrypted:  true,
		RememberDays: 7,
	}
}

func projectRequest(target string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestProjectGate_NoTokenDenies(t *testing.T) {
	g := NewProjectGate(newFakeStore(), testLogger())

	d := g.Check(projectRequest("/secret/page.html"), testProject())
	assert.Equal(t, ActionDeny, d.Action)
	assert.Equal(t, "/", d.Location)
	assert.Nil(t, d.Cookie)
}

func TestProjectGate_ValidCookieProceeds(t *testing.T) {
	g := NewProjectGate(newFakeStore(), testLogger())
	tok := issueToken(t, token.Claims{ProjectID: "proj-1"}, time.Hour)

	d := g.Check(projectRequest("/secret/page.html",
		&http.Cookie{Name: ProjectCookieName("proj-1"), Value: tok}), testProject())

	assert.Equal(t, ActionProceed, d.Action)
	assert.Nil(t, d.Cookie, "cookie-sourced tokens must not re-set the cookie")
}

func TestProjectGate_URLTokenHandOff(t *testing.T) {
	g := NewProjectGate(newFakeStore(), testLogger())
	tok := issueToken(t, token.Claims{ProjectID: "proj-1"}, time.Hour)

	d := g.Check(projectRequest("/secret/page.html?a=1&token="+tok), testProject())

	assert.Equal(t, ActionRedirect, d.Action)
	assert.Equal(t, "/secret/page.html?a=1", d.Location, "token must be stripped, other params kept")

	require.NotNil(t, d.Cookie)
	assert.Equal(t, "token_proj-1", d.Cookie.Name)
	assert.Equal(t, tok, d.Cookie.Value)
	assert.Equal(t, "/", d.Cookie.Path)
	assert.True(t, d.Cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, d.Cookie.SameSite)
	assert.Equal(t, 7*86400, d.Cookie.MaxAge)
}

func TestProjectGate_URLTokenWinsOverStaleCookie(t *testing.T) {
	g := NewProjectGate(newFakeStore(), testLogger())
	fresh := issueToken(t, token.Claims{ProjectID: "proj-1"}, time.Hour)
	stale := issueToken(t, token.Claims{ProjectID: "proj-1"}, -time.Hour)

	d := g.Check(projectRequest("/secret/?token="+fresh,
		&http.Cookie{Name: ProjectCookieName("proj-1"), Value: stale}), testProject())

	assert.Equal(t, ActionRedirect, d.Action)
	require.NotNil(t, d.Cookie)
	assert.Equal(t, fresh, d.Cookie.Value)
}

func TestProjectGate_WrongProjectTokenDenies(t *testing.T) {
	g := NewProjectGate(newFakeStore(), testLogger())
	other := issueToken(t, token.Claims{ProjectID: "proj-2"}, time.Hour)

	d := g.Check(projectRequest("/secret/?token="+other), testProject())
	assert.Equal(t, ActionDeny, d.Action)
}

func TestProjectGate_AdminTokenDoesNotGrantProject(t *testing.T) {
	g := NewProjectGate(newFakeStore(), testLogger())
	admin := issueToken(t, token.Claims{Subject: "admin"}, time.Hour)

	d := g.Check(projectRequest("/secret/?token="+admin), testProject())
	assert.Equal(t, ActionDeny, d.Action, "a valid admin session is not a project grant")
}

func TestProjectGate_ExpiredTokenDenies(t *testing.T) {
	g := NewProjectGate(newFakeStore(), testLogger())
	expired := issueToken(t, token.Claims{ProjectID: "proj-1"}, -time.Minute)

	d := g.Check(projectRequest("/secret/?token="+expired), testProject())
	assert.Equal(t, ActionDeny, d.Action)
}

func TestProjectGate_StoreFailureDenies(t *testing.T) {
	s := newFakeStore()
	s.failWith = errStoreDown
	g := NewProjectGate(s, testLogger())
	tok := issueToken(t, token.Claims{ProjectID: "proj-1"}, time.Hour)

	d := g.Check(projectRequest("/secret/?token="+tok), testProject())
	assert.Equal(t, ActionDeny, d.Action)
}

func TestDecision_ApplyWritesCookieAndRedirect(t *testing.T) {
	d := Decision{
		Action:   ActionRedirect,
		Location: "/secret/",
		Cookie:   &http.Cookie{Name: "token_p", Value: "v", Path: "/"},
	}

	rec := httptest.NewRecorder()
	d.Apply(rec, httptest.NewRequest(http.MethodGet, "/secret/?token=v", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/secret/", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "token_p=v")
}
