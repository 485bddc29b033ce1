// Package api is the sensor's admin surface: health and process status
// on a port separate from the honeypots, so operators never probe the
// decoy endpoints themselves.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/lucid-vigil/decoynet/pkg/status"
)

// Server serves /healthz and /status.
type Server struct {
	srv       *http.Server
	logger    zerolog.Logger
	startedAt time.Time
}

// NewServer builds the admin server for the given port.
func NewServer(port string, logger zerolog.Logger) *Server {
	s := &Server{
		logger:    logger.With().Str("component", "api").Logger(),
		startedAt: time.Now(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start binds and serves in the background, returning bind errors
// synchronously.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Admin API listening")

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Admin API server stopped")
		}
	}()
	return nil
}

// Shutdown drains the server within grace.
func (s *Server) Shutdown(grace time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.srv.Close()
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := status.Collect(s.startedAt)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Partial status snapshot")
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.logger.Debug().Err(err).Msg("Status encode failed")
	}
}
