// Package httpserver exposes turn submission and history reads over HTTP.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/petasbytes/coder-agent/memory"
	"github.com/rs/zerolog"
)

// TurnService is the part of agent.Manager the server needs.
type TurnService interface {
	SubmitTurn(ctx context.Context, historyID string, incoming []memory.Message) (string, error)
	History(ctx context.Context, historyID string) ([]memory.Message, bool, error)
}

// HTTPServer holds all dependencies for the HTTP server.
type HTTPServer struct {
	gin   *gin.Engine
	l     zerolog.Logger
	addr  string
	turns TurnService
}

// Config is the dependency bag passed to New().
type Config struct {
	Logger zerolog.Logger
	Addr   string
	Mode   string
	Turns  TurnService
}

// New creates a new HTTPServer instance with routes registered.
func New(cfg Config) (*HTTPServer, error) {
	if cfg.Mode == "" {
		return nil, errors.New("mode is required")
	}
	if cfg.Turns == nil {
		return nil, errors.New("turn service is required")
	}
	gin.SetMode(cfg.Mode)

	srv := &HTTPServer{
		gin:   gin.New(),
		l:     cfg.Logger,
		addr:  cfg.Addr,
		turns: cfg.Turns,
	}
	srv.mapHandlers()
	return srv, nil
}

// Handler returns the routed engine.
func (srv *HTTPServer) Handler() http.Handler { return srv.gin }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (srv *HTTPServer) Run(ctx context.Context) error {
	if srv.addr == "" {
		return errors.New("listen address is required")
	}
	hs := &http.Server{
		Addr:              srv.addr,
		Handler:           srv.gin,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.l.Info().Str("addr", srv.addr).Msg("http server listening")
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	srv.l.Info().Msg("http server stopped")
	return nil
}
