// ABOUTME: Streaming HTML response transform appending project scripts
// ABOUTME: Injects a script block before </body> without buffering the body

package inject

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/vitrine-dev/vitrine/internal/store"
)

// Injector appends a project's declared script bodies to HTML responses.
// Non-HTML responses and projects with no matched scripts pass through
// byte for byte.
type Injector struct {
	store  store.GatekeeperStore
	logger *slog.Logger
}

// New creates an injector backed by the given script library store
func New(s store.GatekeeperStore, logger *slog.Logger) *Injector {
	return &Injector{
		store:  s,
		logger: logger.With("component", "inject"),
	}
}

// Serve runs next with a response writer that injects the project's
// scripts into HTML output. When the project declares no scripts, or none
// of its ids match the library, next writes straight to w.
func (i *Injector) Serve(w http.ResponseWriter, r *http.Request, project *store.Project, next http.Handler) {
	script := i.scriptFor(r.Context(), project)
	if script == "" {
		next.ServeHTTP(w, r)
		return
	}

	rw := &rewriter{inner: w, payload: []byte("<script>" + script + "</script>")}
	defer rw.Close()
	next.ServeHTTP(rw, r)
}

// scriptFor concatenates the bodies of the project's declared scripts with
// a blank-line separator, in declared order regardless of storage order.
// A library read failure degrades to no injection.
func (i *Injector) scriptFor(ctx context.Context, project *store.Project) string {
	if len(project.ScriptIDs) == 0 {
		return ""
	}

	entries, err := i.store.GetScriptEntries(ctx, project.ScriptIDs)
	if err != nil {
		i.logger.Error("script library fetch failed, skipping injection",
			"project", project.ID, "error", err)
		return ""
	}

	byID := make(map[string]string, len(entries))
	for _, e := range entries {
		byID[e.ID] = e.Content
	}

	var bodies []string
	for _, id := range project.ScriptIDs {
		if content, ok := byID[id]; ok {
			bodies = append(bodies, content)
		}
	}
	return strings.Join(bodies, "\n\n")
}

// rewriter is a ResponseWriter wrapper that, once an HTML content type is
// declared, streams the body through an HTML tokenizer and writes the
// payload immediately before the first closing body tag. Only the
// tokenizer's per-token buffer is held in memory.
type rewriter struct {
	inner   http.ResponseWriter
	payload []byte

	wroteHeader bool
	injecting   bool
	pw          *io.PipeWriter
	done        chan struct{}

	// mu serializes access to inner once the rewrite goroutine is running:
	// the handler goroutine may call Flush while the goroutine writes.
	mu sync.Mutex
}

func (rw *rewriter) Header() http.Header {
	return rw.inner.Header()
}

func (rw *rewriter) WriteHeader(status int) {
	if rw.wroteHeader {
		return
	}
	rw.wroteHeader = true

	ct := rw.inner.Header().Get("Content-Type")
	if !strings.Contains(strings.ToLower(ct), "text/html") {
		rw.inner.WriteHeader(status)
		return
	}

	// The injected block changes the body length.
	rw.inner.Header().Del("Content-Length")
	rw.inner.WriteHeader(status)

	pr, pw := io.Pipe()
	rw.pw = pw
	rw.injecting = true
	rw.done = make(chan struct{})
	go rw.rewrite(pr)
}

func (rw *rewriter) Write(p []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	if rw.injecting {
		return rw.pw.Write(p)
	}
	return rw.inner.Write(p)
}

// Close finishes the transform. It must be called after the origin handler
// returns so the tokenizer can drain the tail of the stream.
func (rw *rewriter) Close() {
	if !rw.injecting {
		return
	}
	rw.pw.Close()
	<-rw.done
}

// rewrite tokenizes the body stream and re-emits each token's raw bytes,
// inserting the payload before the first </body>. A stream with no closing
// body tag is emitted unchanged.
func (rw *rewriter) rewrite(pr *io.PipeReader) {
	defer close(rw.done)
	defer pr.Close()

	injected := false
	z := html.NewTokenizer(pr)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF ends the stream; pipe errors only occur if the
			// client went away, in which case there is nothing to do.
			return
		}

		if tt == html.EndTagToken && !injected {
			if name, _ := z.TagName(); strings.EqualFold(string(name), "body") {
				if _, err := rw.writeInner(rw.payload); err != nil {
					return
				}
				injected = true
			}
		}

		if _, err := rw.writeInner(z.Raw()); err != nil {
			return
		}
	}
}

func (rw *rewriter) writeInner(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.inner.Write(p)
}

var _ http.ResponseWriter = (*rewriter)(nil)

// Flush forwards to the underlying writer when it supports flushing.
// While the transform is engaged, buffered tokenizer bytes cannot be
// forced out early; only already-emitted output is flushed. The mutex
// keeps the flush from interleaving with the rewrite goroutine's writes:
// a reverse-proxy origin flushes after every body write when the upstream
// length is unknown, so handler-side flushes are routine, not rare.
func (rw *rewriter) Flush() {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if f, ok := rw.inner.(http.Flusher); ok {
		f.Flush()
	}
}
