// Package server mounts the board's REST and MCP surfaces on one listener.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/evanschultz/widgethub/internal/adapters/server/common"
	"github.com/evanschultz/widgethub/internal/adapters/server/httpapi"
	"github.com/evanschultz/widgethub/internal/adapters/server/mcpapi"
	"github.com/evanschultz/widgethub/internal/app"
)

const (
	defaultHTTPBind    = "127.0.0.1:5437"
	defaultAPIEndpoint = "/api/v1"
	defaultMCPEndpoint = "/mcp"

	shutdownGrace     = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	readinessTimeout  = 2 * time.Second
)

// Config describes where the board is served.
type Config struct {
	HTTPBind      string
	APIEndpoint   string
	MCPEndpoint   string
	ServerName    string
	ServerVersion string
}

// Dependencies are the app-side collaborators the transports call into.
type Dependencies struct {
	Board common.BoardService
	// Logger receives one debug line per request. Nil turns request logging off.
	Logger app.Logger
}

// Server is a board server with its routes mounted, not yet listening.
type Server struct {
	cfg     Config
	handler http.Handler
	logger  app.Logger
}

// New validates cfg and mounts health, readiness, REST and MCP routes.
func New(cfg Config, deps Dependencies) (*Server, error) {
	if deps.Board == nil {
		return nil, errors.New("board dependency is required")
	}
	cfg, err := withDefaults(cfg)
	if err != nil {
		return nil, err
	}

	mcpHandler, err := mcpapi.NewHandler(mcpapi.Config{
		ServerName:    cfg.ServerName,
		ServerVersion: cfg.ServerVersion,
		EndpointPath:  cfg.MCPEndpoint,
	}, deps.Board)
	if err != nil {
		return nil, fmt.Errorf("configure mcp handler: %w", err)
	}
	rest := http.StripPrefix(cfg.APIEndpoint, httpapi.NewHandler(deps.Board))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeProbe(w, http.StatusOK, probeBody{Status: "ok"})
	})
	mux.Handle("GET /readyz", readiness(deps.Board))
	mux.Handle(cfg.MCPEndpoint, mcpHandler)
	mux.Handle(cfg.APIEndpoint, rest)
	mux.Handle(cfg.APIEndpoint+"/", rest)

	var handler http.Handler = mux
	if deps.Logger != nil {
		handler = logRequests(deps.Logger, mux)
	}
	return &Server{cfg: cfg, handler: handler, logger: deps.Logger}, nil
}

// Config returns the effective configuration after defaults.
func (s *Server) Config() Config {
	return s.cfg
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve accepts connections on ln until ctx is done, then drains in-flight
// requests for up to shutdownGrace.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// NewHandler builds the root handler without listening.
func NewHandler(cfg Config, deps Dependencies) (http.Handler, Config, error) {
	s, err := New(cfg, deps)
	if err != nil {
		return nil, Config{}, err
	}
	return s.handler, s.cfg, nil
}

// Run listens on cfg.HTTPBind and serves until ctx is done.
func Run(ctx context.Context, cfg Config, deps Dependencies) error {
	s, err := New(cfg, deps)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}
	ln, err := net.Listen("tcp", s.cfg.HTTPBind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.HTTPBind, err)
	}
	if s.logger != nil {
		s.logger.Info("board server listening", "addr", ln.Addr().String(), "api", s.cfg.APIEndpoint, "mcp", s.cfg.MCPEndpoint)
	}
	return s.Serve(ctx, ln)
}

func withDefaults(cfg Config) (Config, error) {
	cfg.HTTPBind = strings.TrimSpace(cfg.HTTPBind)
	if cfg.HTTPBind == "" {
		cfg.HTTPBind = defaultHTTPBind
	}
	cfg.APIEndpoint = cleanEndpoint(cfg.APIEndpoint, defaultAPIEndpoint)
	cfg.MCPEndpoint = cleanEndpoint(cfg.MCPEndpoint, defaultMCPEndpoint)
	if cfg.APIEndpoint == cfg.MCPEndpoint {
		return Config{}, fmt.Errorf("api and mcp endpoints both resolve to %s", cfg.APIEndpoint)
	}
	if name := strings.TrimSpace(cfg.ServerName); name != "" {
		cfg.ServerName = name
	} else {
		cfg.ServerName = "widgethub"
	}
	if v := strings.TrimSpace(cfg.ServerVersion); v != "" {
		cfg.ServerVersion = v
	} else {
		cfg.ServerVersion = "dev"
	}
	return cfg, nil
}

// cleanEndpoint reduces path to "/a/b" form. Blank or root paths use fallback.
func cleanEndpoint(path, fallback string) string {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return fallback
	}
	return "/" + trimmed
}

type probeBody struct {
	Status   string `json:"status"`
	Revision uint64 `json:"revision,omitempty"`
	Error    string `json:"error,omitempty"`
}

// readiness reports ready once the board can be read.
func readiness(board common.BoardService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		view, err := board.GetBoard(ctx)
		if err != nil {
			writeProbe(w, http.StatusServiceUnavailable, probeBody{Status: "unavailable", Error: err.Error()})
			return
		}
		writeProbe(w, http.StatusOK, probeBody{Status: "ok", Revision: view.Revision})
	})
}

func writeProbe(w http.ResponseWriter, status int, body probeBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusWriter remembers the response code for request logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(p)
}

// Flush keeps MCP event streams working through the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func logRequests(logger app.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		status := sw.status
		if status == 0 {
			status = http.StatusOK
		}
		logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", status, "took", time.Since(start).Round(time.Microsecond))
	})
}
