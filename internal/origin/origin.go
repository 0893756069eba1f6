// ABOUTME: Content origin handlers behind the gatekeeper
// ABOUTME: Serves a local static directory or proxies an upstream host

package origin

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/yuin/goldmark"

	"github.com/vitrine-dev/vitrine/internal/config"
)

// FromConfig builds the origin handler selected by the configuration
func FromConfig(cfg config.OriginConfig, logger *slog.Logger) (http.Handler, error) {
	logger = logger.With("component", "origin")

	if cfg.UpstreamURL != "" {
		target, err := url.Parse(cfg.UpstreamURL)
		if err != nil {
			return nil, fmt.Errorf("parsing origin.upstream_url: %w", err)
		}
		proxy := httputil.NewSingleHostReverseProxy(target)
		proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("upstream request failed", "path", r.URL.Path, "error", err)
			w.WriteHeader(http.StatusBadGateway)
		}
		return proxy, nil
	}

	return &staticOrigin{
		dir:    cfg.StaticDir,
		files:  http.FileServer(http.Dir(cfg.StaticDir)),
		logger: logger,
	}, nil
}

// mdPage wraps rendered markdown in a minimal document so downstream
// transforms see a regular HTML body.
var mdPage = template.Must(template.New("md").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
{{.Content}}
</body>
</html>
`))

// staticOrigin serves files from a local directory. A directory that
// publishes content.md without an index.html is served as rendered
// markdown, matching the markdown publishing flow of the admin area.
type staticOrigin struct {
	dir    string
	files  http.Handler
	logger *slog.Logger
}

func (o *staticOrigin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)
	full := filepath.Join(o.dir, filepath.FromSlash(clean))

	if info, err := os.Stat(full); err == nil && info.IsDir() {
		if _, err := os.Stat(filepath.Join(full, "index.html")); os.IsNotExist(err) {
			if md, err := os.ReadFile(filepath.Join(full, "content.md")); err == nil {
				o.serveMarkdown(w, clean, md)
				return
			}
		}
	}

	o.files.ServeHTTP(w, r)
}

func (o *staticOrigin) serveMarkdown(w http.ResponseWriter, requestPath string, md []byte) {
	var buf bytes.Buffer
	if err := goldmark.Convert(md, &buf); err != nil {
		o.logger.Error("failed to convert markdown", "path", requestPath, "error", err)
		http.Error(w, "Failed to render content", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	mdPage.Execute(w, struct {
		Title   string
		Content template.HTML
	}{
		Title:   path.Base(requestPath),
		Content: template.HTML(buf.String()),
	})
}
