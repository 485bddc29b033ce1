// Package webpot serves a fake admin login page. Visits to the root
// are logged as activity; login submissions are captured and always
// answered with the form plus an error banner.
package webpot

import (
	"context"
	"errors"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/lucid-vigil/decoynet/pkg/event"
	"github.com/lucid-vigil/decoynet/pkg/store"
)

var loginPage = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>System Login</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 0; display: flex; justify-content: center; align-items: center; height: 100vh; background-color: #f0f0f0; }
        .login-container { background-color: white; padding: 20px; border-radius: 5px; box-shadow: 0 0 10px rgba(0,0,0,0.1); width: 300px; }
        h2 { text-align: center; color: #333; }
        input[type="text"], input[type="password"] { width: 100%; padding: 10px; margin: 8px 0; box-sizing: border-box; border: 1px solid #ddd; border-radius: 4px; }
        input[type="submit"] { width: 100%; background-color: #4CAF50; color: white; padding: 10px; border: none; border-radius: 4px; cursor: pointer; }
        input[type="submit"]:hover { background-color: #45a049; }
        .error { color: red; text-align: center; }
    </style>
</head>
<body>
    <div class="login-container">
        <h2>Admin Login</h2>
        {{if .Error}}
        <p class="error">{{.Error}}</p>
        {{end}}
        <form method="post" action="/login">
            <input type="text" name="username" placeholder="Username" required>
            <input type="password" name="password" placeholder="Password" required>
            <input type="submit" value="Login">
        </form>
    </div>
</body>
</html>
`))

// Server is the web honeypot. Unlike the byte-stream honeypots it is an
// HTTP server; no session state persists across requests.
type Server struct {
	store  store.Store
	logger zerolog.Logger
	srv    *http.Server

	addrCh chan net.Addr
}

// New builds the web honeypot listening on addr.
func New(addr string, st store.Store, logger zerolog.Logger) *Server {
	s := &Server{
		store:  st,
		logger: logger.With().Str("honeypot", "web").Logger(),
		addrCh: make(chan net.Addr, 1),
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Name() string { return "web" }

// Start binds the port and serves in the background. Bind failures are
// returned synchronously so startup can fail fast.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.addrCh <- ln.Addr()
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Honeypot listening")

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Web honeypot server stopped")
		}
	}()
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() net.Addr {
	select {
	case addr := <-s.addrCh:
		s.addrCh <- addr
		return addr
	default:
		return nil
	}
}

// Shutdown drains in-flight requests for up to grace, then closes.
func (s *Server) Shutdown(grace time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.srv.Close()
	}
	s.logger.Info().Msg("Honeypot stopped")
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	ev := event.NewWebVisit(ip, r.URL.Path, r.UserAgent())
	s.record(r.Context(), event.StreamWebVisits, ev)
	s.logger.Info().Str("source_ip", ip).Str("path", r.URL.Path).Msg("Web visit")

	s.render(w, "")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	ev := event.NewAuthAttempt(event.ServiceWebLogin, ip, 0, username, password)
	ev.UserAgent = r.UserAgent()
	s.record(r.Context(), event.StreamAuthAttempts, ev)
	s.logger.Info().
		Str("source_ip", ip).
		Str("username", username).
		Msg("Web login attempt")

	s.render(w, "Invalid username or password")
}

func (s *Server) render(w http.ResponseWriter, errMsg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := loginPage.Execute(w, struct{ Error string }{Error: errMsg}); err != nil {
		s.logger.Debug().Err(err).Msg("Template write failed")
	}
}

func (s *Server) record(ctx context.Context, stream event.Stream, ev event.Event) {
	if err := s.store.Append(ctx, stream, ev); err != nil {
		var appendErr *store.AppendError
		if errors.As(err, &appendErr) {
			s.logger.Error().Err(err).Msg("Event lost: store append failed")
			return
		}
		s.logger.Error().Err(err).Msg("Store append failed")
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
