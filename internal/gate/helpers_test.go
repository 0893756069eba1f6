// ABOUTME: Shared test fixtures for gate tests
// ABOUTME: Provides an in-memory GatekeeperStore and token helpers

package gate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/vitrine-dev/vitrine/internal/store"
	"github.com/vitrine-dev/vitrine/internal/token"
)

const testSecret = "gate-test-signing-secret-32bytes"

// fakeStore is an in-memory GatekeeperStore with error injection
type fakeStore struct {
	admin    *store.AdminConfig
	projects map[string]*store.Project
	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		admin:    &store.AdminConfig{Username: "admin", Secret: testSecret},
		projects: make(map[string]*store.Project),
	}
}

func (f *fakeStore) GetAdminConfig(ctx context.Context) (*store.AdminConfig, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.admin, nil
}

func (f *fakeStore) GetProjectByFolder(ctx context.Context, folder string) (*store.Project, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	p, ok := f.projects[folder]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

// GetScriptEntries satisfies GatekeeperStore; the gates never read scripts.
func (f *fakeStore) GetScriptEntries(ctx context.Context, ids []string) ([]store.ScriptEntry, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return nil, nil
}

var errStoreDown = errors.New("store unavailable")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func issueToken(t *testing.T, claims token.Claims, ttl time.Duration) string {
	t.Helper()
	tok, err := token.NewCodec([]byte(testSecret)).Issue(claims, ttl)
	if err != nil {
		t.Fatalf("issuing test token: %v", err)
	}
	return tok
}
