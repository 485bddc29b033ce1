// Package sshpot runs a real SSH transport that offers password
// authentication only and rejects every attempt. Each attempt is
// captured as an auth event before the failure goes back to the peer.
package sshpot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"

	"github.com/lucid-vigil/decoynet/pkg/event"
	"github.com/lucid-vigil/decoynet/pkg/honeypot"
	"github.com/lucid-vigil/decoynet/pkg/store"
)

const serverVersion = "SSH-2.0-OpenSSH_8.9p1"

// Handler implements honeypot.Handler over the SSH transport. The key
// exchange is delegated to golang.org/x/crypto/ssh; this package only
// decides the auth outcome and records attempts.
type Handler struct {
	store            store.Store
	signer           ssh.Signer
	handshakeTimeout time.Duration
	channelWindow    time.Duration
	logger           zerolog.Logger
}

// New returns an SSH handler using the given host key. handshakeTimeout
// bounds the whole key-exchange-plus-auth phase; channelWindow is how
// long a (theoretically) authenticated peer would be kept before the
// transport is torn down.
func New(st store.Store, signer ssh.Signer, handshakeTimeout, channelWindow time.Duration, logger zerolog.Logger) *Handler {
	return &Handler{
		store:            st,
		signer:           signer,
		handshakeTimeout: handshakeTimeout,
		channelWindow:    channelWindow,
		logger:           logger.With().Str("honeypot", "ssh").Logger(),
	}
}

func (h *Handler) Name() string { return "ssh" }

// Handle runs the handshake and auth loop. The password callback fires
// once per attempt, however many attempts the peer makes on one
// connection; every one is recorded and every one fails.
func (h *Handler) Handle(ctx context.Context, conn net.Conn) {
	ip, port := honeypot.SplitAddr(conn.RemoteAddr())

	if h.handshakeTimeout > 0 {
		conn.SetDeadline(time.Now().Add(h.handshakeTimeout))
	}

	cfg := &ssh.ServerConfig{
		ServerVersion: serverVersion,
		PasswordCallback: func(meta ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			h.recordAttempt(ctx, ip, port, meta.User(), string(password))
			return nil, fmt.Errorf("password rejected for %q", meta.User())
		},
	}
	cfg.AddHostKey(h.signer)

	sconn, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		// The usual exit: the peer exhausted its attempts or hung up
		// mid-handshake. Either way the session is over.
		return
	}

	// Unreachable with the rejecting callback above, but the transport
	// contract requires draining if a connection ever authenticates.
	defer sconn.Close()
	go ssh.DiscardRequests(reqs)
	timeout := time.After(h.channelWindow)
	for {
		select {
		case ch, ok := <-chans:
			if !ok {
				return
			}
			ch.Reject(ssh.Prohibited, "no channels available")
		case <-timeout:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) recordAttempt(ctx context.Context, ip string, port int, username, password string) {
	ev := event.NewAuthAttempt(event.ServiceSSH, ip, port, username, password)
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
		Msg("SSH login attempt")
}
