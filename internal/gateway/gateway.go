// ABOUTME: Gateway assembly and HTTP server lifecycle
// ABOUTME: Wires the store, gates, injector, API, and content origin together

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vitrine-dev/vitrine/internal/config"
	"github.com/vitrine-dev/vitrine/internal/gate"
	"github.com/vitrine-dev/vitrine/internal/inject"
	"github.com/vitrine-dev/vitrine/internal/origin"
	"github.com/vitrine-dev/vitrine/internal/store"
	"github.com/vitrine-dev/vitrine/internal/webapi"
)

// Gateway is the edge gatekeeper in front of the content origin
type Gateway struct {
	config      *config.Config
	store       store.Store
	adminGate   *gate.AdminGate
	projectGate *gate.ProjectGate
	injector    *inject.Injector
	origin      http.Handler
	apiMux      *http.ServeMux
	logger      *slog.Logger
	httpServer  *http.Server
	closeStore  func() error
}

// New creates a Gateway from configuration, opening the SQLite store and
// building the configured content origin.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	sqlStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	originHandler, err := origin.FromConfig(cfg.Origin, logger)
	if err != nil {
		sqlStore.Close()
		return nil, fmt.Errorf("building origin: %w", err)
	}

	gw := newGateway(cfg, sqlStore, originHandler, logger)
	gw.closeStore = sqlStore.Close
	return gw, nil
}

// newGateway assembles a gateway around explicit backends. Tests use this
// directly with in-memory stores and origins.
func newGateway(cfg *config.Config, s store.Store, originHandler http.Handler, logger *slog.Logger) *Gateway {
	gw := &Gateway{
		config:      cfg,
		store:       s,
		adminGate:   gate.NewAdminGate(s, logger),
		projectGate: gate.NewProjectGate(s, logger),
		injector:    inject.New(s, logger),
		origin:      originHandler,
		logger:      logger.With("component", "gateway"),
	}

	gw.apiMux = http.NewServeMux()
	webapi.New(s, logger).RegisterRoutes(gw.apiMux)

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw
}

// Handler returns the gateway's root HTTP handler
func (g *Gateway) Handler() http.Handler {
	return http.HandlerFunc(g.route)
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", g.config.Server.HTTPAddr)
		if err := g.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is
// already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown stops the HTTP server and closes the store
func (g *Gateway) Shutdown(ctx context.Context) error {
	err := g.httpServer.Shutdown(ctx)
	if g.closeStore != nil {
		if closeErr := g.closeStore(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

// handleHealth returns 200 OK if the server is alive
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
