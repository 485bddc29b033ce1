// Package telnetpot emulates a bare telnet login prompt: one username,
// one password, one recorded attempt, one rejection, then the
// connection is closed. There is no re-prompt loop.
package telnetpot

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lucid-vigil/decoynet/pkg/event"
	"github.com/lucid-vigil/decoynet/pkg/honeypot"
	"github.com/lucid-vigil/decoynet/pkg/store"
)

const (
	loginPrompt    = "\r\nLogin: "
	passwordPrompt = "Password: "
	loginFailed    = "\r\nLogin incorrect\r\n"

	// Small pause before closing, so the rejection is flushed and the
	// dialogue feels like a real login stack.
	closeDelay = time.Second
)

// Handler implements honeypot.Handler for the telnet dialogue.
type Handler struct {
	store       store.Store
	idleTimeout time.Duration
	logger      zerolog.Logger
}

// New returns a telnet handler writing into st.
func New(st store.Store, idleTimeout time.Duration, logger zerolog.Logger) *Handler {
	return &Handler{
		store:       st,
		idleTimeout: idleTimeout,
		logger:      logger.With().Str("honeypot", "telnet").Logger(),
	}
}

func (h *Handler) Name() string { return "telnet" }

// Handle prompts for a username and a password, strips control bytes
// from both, emits exactly one auth attempt, and closes.
func (h *Handler) Handle(ctx context.Context, conn net.Conn) {
	ip, port := honeypot.SplitAddr(conn.RemoteAddr())

	if _, err := conn.Write([]byte(loginPrompt)); err != nil {
		return
	}

	reader := bufio.NewReader(conn)

	username, ok := h.readLine(reader, conn)
	if !ok || ctx.Err() != nil {
		return
	}
	if _, err := conn.Write([]byte(passwordPrompt)); err != nil {
		return
	}
	password, ok := h.readLine(reader, conn)
	if !ok || ctx.Err() != nil {
		return
	}

	ev := event.NewAuthAttempt(event.ServiceTelnet, ip, port, username, password)
	if err := h.store.Append(ctx, event.StreamAuthAttempts, ev); err != nil {
		var appendErr *store.AppendError
		if errors.As(err, &appendErr) {
			h.logger.Error().Err(err).Msg("Event lost: store append failed")
		} else {
			h.logger.Error().Err(err).Msg("Store append failed")
		}
	}
	h.logger.Info().
		Str("source_ip", ip).
		Str("username", username).
		Msg("Telnet login attempt")

	conn.Write([]byte(loginFailed))

	select {
	case <-time.After(closeDelay):
	case <-ctx.Done():
	}
}

func (h *Handler) readLine(reader *bufio.Reader, conn net.Conn) (string, bool) {
	if h.idleTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(h.idleTimeout))
	}
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return sanitize(line), true
}

// sanitize keeps printable ASCII only, dropping telnet negotiation
// bytes and control characters before the value is recorded.
func sanitize(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c < 0x7f {
			b.WriteByte(c)
		}
	}
	return strings.TrimSpace(b.String())
}
