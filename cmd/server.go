package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// httpServer is the part of *http.Server the supervisor drives
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// serverService runs an HTTP server under a suture supervisor
type serverService struct {
	server          httpServer
	addr            string
	shutdownTimeout time.Duration
}

func newServerService(server httpServer, addr string, shutdownTimeout time.Duration) *serverService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &serverService{
		server:          server,
		addr:            addr,
		shutdownTimeout: shutdownTimeout,
	}
}

// Serve blocks until ctx is cancelled or the listener fails
func (s *serverService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("Starting server")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server...")
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (s *serverService) String() string {
	return "http-server"
}
