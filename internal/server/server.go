package server

import (
	"context"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"

	"github.com/jpalmerr/taskpulse/internal/hub"
)

const (
	// defaultTitle is used when no custom title is configured.
	defaultTitle = "TaskPulse"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"

	// shutdownTimeout bounds graceful shutdown of in-flight requests.
	shutdownTimeout = 5 * time.Second
)

// Server exposes the hub over HTTP and WebSocket.
//
// Endpoints:
//   - GET /          embedded web UI
//   - GET|POST /api  query surface (single-method JSON body)
//   - POST /peer     share/merge RPCs for other instances
//   - GET /health    liveness probe
//   - GET /ws        push channel (WebSocket upgrade)
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	hub        *hub.Hub
	port       int
	assets     fs.FS
	title      string
	logger     *slog.Logger
	httpServer *http.Server

	// explicit dispatch tables: the method named in a request body maps to
	// a handler registered at construction
	apiMethods  map[string]rpcHandler
	peerMethods map[string]rpcHandler
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - h: the hub owning task state and push subscribers
//   - port: TCP port to listen on
//   - assets: embedded filesystem containing web UI assets (may be nil)
//   - title: web UI title (defaults to "TaskPulse" if empty)
//   - logger: logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(h *hub.Hub, port int, assets fs.FS, title string, logger *slog.Logger) *Server {
	s := &Server{
		hub:    h,
		port:   port,
		assets: assets,
		title:  title,
		logger: logger,
	}
	s.apiMethods = map[string]rpcHandler{
		"tasks": s.rpcTasks,
	}
	s.peerMethods = map[string]rpcHandler{
		"share_tasks": s.rpcShareTasks,
		"merge_tasks": s.rpcMergeTasks,
	}
	return s
}

// routes builds the full handler chain. Split from Start so tests can drive
// it through httptest without binding a port.
func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.Methods(http.MethodGet, http.MethodPost).Path("/api").HandlerFunc(s.handleAPI)
	r.Methods(http.MethodPost).Path("/peer").HandlerFunc(s.handlePeer)
	r.Methods(http.MethodGet).Path("/health").HandlerFunc(s.handleHealth)
	r.Methods(http.MethodGet).Path("/ws").HandlerFunc(s.handleWS)

	// serve the web UI at root
	if s.assets != nil {
		r.Methods(http.MethodGet).Path("/").HandlerFunc(s.handleIndex)
	}

	return r
}

// logRequests records one line per handled request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.logger.Info("handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"bytes", m.Written,
			"duration", m.Duration,
		)
	})
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening, so callers observe port conflicts synchronously. The server
// will continue running until the context is cancelled, at which point it
// initiates a graceful shutdown with a 5-second timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler: s.routes(),
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// enabling graceful shutdown of long-running handlers like /ws.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// handleHealth answers the liveness probe with no payload.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// handleIndex serves the web UI page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "page not found", http.StatusInternalServerError)
		return
	}

	// apply title substitution with HTML escaping to prevent XSS
	title := s.title
	if title == "" {
		title = defaultTitle
	}
	safeTitle := html.EscapeString(title)
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, safeTitle)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write index response", "error", err)
	}
}
