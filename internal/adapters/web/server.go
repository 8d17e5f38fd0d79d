package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lcalzada-xor/fast/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/fast/internal/adapters/web/websocket"
)

// Server owns the FAST aggregation server's HTTP listener.
type Server struct {
	addr    string
	srv     *http.Server
	ws      *websocket.Manager
	logger  *slog.Logger
}

// NewServer builds a Server bound to addr, serving h's routes.
func NewServer(addr string, h *handlers.Handlers, ws *websocket.Manager, password string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	router := NewRouter(h, ws, password)
	instrumented := otelhttp.NewHandler(router, "fast-server")

	return &Server{
		addr: addr,
		ws:   ws,
		logger: logger,
		srv: &http.Server{
			Addr:              addr,
			Handler:           instrumented,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run starts the Event Bus relay and the HTTP listener, blocking until ctx
// is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	s.ws.Start(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info("web: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("web: shutdown error", "error", err)
		}
	}()

	s.logger.Info("web: listening", "addr", s.addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
