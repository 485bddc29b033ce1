// Package ftppot emulates just enough of an FTP control channel to
// harvest USER/PASS credentials. Every line the peer sends is also
// recorded verbatim as an activity record.
package ftppot

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
	banner            = "220 FTP Server Ready\r\n"
	replyNeedPassword = "331 Password required\r\n"
	replyLoginFailed  = "530 Login incorrect\r\n"
	replyPleaseLogin  = "530 Please login with USER and PASS\r\n"
)

// Handler implements honeypot.Handler for the FTP dialogue.
type Handler struct {
	store       store.Store
	idleTimeout time.Duration
	logger      zerolog.Logger
}

// New returns an FTP handler writing into st. idleTimeout bounds how
// long a session may sit between commands; zero disables the bound.
func New(st store.Store, idleTimeout time.Duration, logger zerolog.Logger) *Handler {
	return &Handler{
		store:       st,
		idleTimeout: idleTimeout,
		logger:      logger.With().Str("honeypot", "ftp").Logger(),
	}
}

func (h *Handler) Name() string { return "ftp" }

// Handle walks the idle -> awaiting-password -> idle machine driven by
// USER and PASS lines. Authentication never succeeds; a completed
// USER/PASS pair emits one auth-attempt event and gets a 530 back.
func (h *Handler) Handle(ctx context.Context, conn net.Conn) {
	ip, port := honeypot.SplitAddr(conn.RemoteAddr())

	if _, err := conn.Write([]byte(banner)); err != nil {
		return
	}

	var username string
	haveUser := false

	scanner := bufio.NewScanner(conn)
	for {
		if h.idleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(h.idleTimeout))
		}
		if !scanner.Scan() {
			return
		}
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		h.record(ctx, event.NewFTPCommand(ip, port, line))

		switch {
		case strings.HasPrefix(line, "USER"):
			username = argument(line)
			haveUser = true
			if !h.reply(conn, replyNeedPassword) {
				return
			}

		case strings.HasPrefix(line, "PASS"):
			password := argument(line)
			// A PASS with no USER on record is tolerated but emits no
			// auth attempt.
			if haveUser {
				h.record(ctx, event.NewAuthAttempt(event.ServiceFTP, ip, port, username, password))
				h.logger.Info().
					Str("source_ip", ip).
					Str("username", username).
					Msg("FTP login attempt")
			}
			if !h.reply(conn, replyLoginFailed) {
				return
			}

		default:
			if !h.reply(conn, replyPleaseLogin) {
				return
			}
		}
	}
}

func (h *Handler) reply(conn net.Conn, msg string) bool {
	_, err := conn.Write([]byte(msg))
	return err == nil
}

func (h *Handler) record(ctx context.Context, ev event.Event) {
	stream := event.StreamFor(ev.Kind)
	if err := h.store.Append(ctx, stream, ev); err != nil {
		var appendErr *store.AppendError
		if errors.As(err, &appendErr) {
			h.logger.Error().Err(err).Msg("Event lost: store append failed")
			return
		}
		h.logger.Error().Err(err).Msg("Store append failed")
	}
}

// argument returns everything after the four-letter command and its
// separating space.
func argument(line string) string {
	if len(line) > 5 {
		return line[5:]
	}
	return ""
}
