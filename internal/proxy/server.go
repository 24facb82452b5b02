// Package proxy serves an upstream site through a reverse proxy that injects
// the tag loader into every HTML page.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/goliatone/go-tagloader/httpinject"
)

// Server is the tag proxy HTTP server.
type Server struct {
	httpServer *http.Server
	upstream   *url.URL
	logger     *zap.Logger
}

// NewServer builds the router: /healthz answers locally and every other path
// is proxied to upstream.
func NewServer(addr string, upstream *url.URL, loader httpinject.PageLoader, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{upstream: upstream, logger: logger}

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.SetXForwarded()
			// Compressed pages cannot be rewritten.
			pr.Out.Header.Del("Accept-Encoding")
		},
		ModifyResponse: httpinject.ModifyResponse(loader, httpinject.WithLogger(logger)),
		ErrorHandler:   s.handleProxyError,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/*", rp)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens on the configured address and blocks until the server stops.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("tag proxy listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("upstream", s.upstream.String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleProxyError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("upstream request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err))
	http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
}
